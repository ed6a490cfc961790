package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/snap-point/articles-api/models"
	"github.com/snap-point/articles-api/services"
	"github.com/snap-point/articles-api/utils"
	"go.uber.org/zap"
)

// ArticleStore is the article data access the controller depends on.
type ArticleStore interface {
	Create(ctx context.Context, title, content string) (*models.Article, error)
	FindAll(ctx context.Context) ([]models.Article, error)
	FindOne(ctx context.Context, id uint) (*models.Article, error)
}

// LikeToggler registers likes.
type LikeToggler interface {
	Toggle(ctx context.Context, articleID uint, userID string) (services.LikeResult, error)
}

type ArticleController struct {
	articles ArticleStore
	likes    LikeToggler
	log      *zap.Logger
}

func NewArticleController(articles ArticleStore, likes LikeToggler, log *zap.Logger) *ArticleController {
	return &ArticleController{articles: articles, likes: likes, log: log}
}

// CreateArticle godoc
// @Summary Create an article
// @Tags articles
// @Accept json
// @Produce json
// @Param article body CreateArticleRequest true "Article"
// @Success 201 {object} models.Article
// @Router /articles [post]
func (ac *ArticleController) CreateArticle(c *gin.Context) {
	var req CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	article, err := ac.articles.Create(c.Request.Context(), req.Title, req.Content)
	if err != nil {
		ac.internalError(c, "Failed to create article", err)
		return
	}

	c.JSON(http.StatusCreated, article)
}

// ListArticles godoc
// @Summary List all articles
// @Tags articles
// @Produce json
// @Success 200 {array} models.Article
// @Router /articles [get]
func (ac *ArticleController) ListArticles(c *gin.Context) {
	articles, err := ac.articles.FindAll(c.Request.Context())
	if err != nil {
		ac.internalError(c, "Failed to list articles", err)
		return
	}

	c.JSON(http.StatusOK, articles)
}

// GetArticle godoc
// @Summary Get an article
// @Tags articles
// @Produce json
// @Param id path integer true "Article ID"
// @Success 200 {object} models.Article
// @Failure 404 {object} map[string]string
// @Router /articles/{id} [get]
func (ac *ArticleController) GetArticle(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	article, err := ac.articles.FindOne(c.Request.Context(), id)
	if errors.Is(err, services.ErrArticleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}
	if err != nil {
		ac.internalError(c, "Failed to get article", err)
		return
	}

	c.JSON(http.StatusOK, article)
}

// LikeArticle godoc
// @Summary Like an article
// @Description Registers a like for the user. Repeating the call is a no-op and returns {}.
// @Tags articles
// @Accept json
// @Produce json
// @Param id path integer true "Article ID"
// @Param like body LikeRequest true "Acting user"
// @Success 200 {object} services.LikeResult
// @Failure 404 {object} map[string]string
// @Router /articles/{id}/like [put]
func (ac *ArticleController) LikeArticle(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := ac.likes.Toggle(c.Request.Context(), id, req.UserID)
	if errors.Is(err, services.ErrArticleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}
	if err != nil {
		ac.internalError(c, "Failed to like article", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (ac *ArticleController) internalError(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	ac.log.Error(msg,
		zap.String("request_id", utils.GetRequestID(c)),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

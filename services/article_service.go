package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/snap-point/articles-api/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// ArticleService is the plain data access for articles.
type ArticleService struct {
	db *gorm.DB
}

func NewArticleService(db *gorm.DB) *ArticleService {
	return &ArticleService{db: db}
}

// Create stores a new article. The like counter always starts at zero.
func (s *ArticleService) Create(ctx context.Context, title, content string) (*models.Article, error) {
	ctx, span := tracer.Start(ctx, "ArticleService.Create",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	article := models.Article{
		Title:   title,
		Content: content,
	}
	if err := s.db.WithContext(ctx).Create(&article).Error; err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("create article: %w", err)
	}

	span.SetAttributes(attribute.Int64("article.id", int64(article.ID)))
	return &article, nil
}

// FindAll returns every article in insertion order.
func (s *ArticleService) FindAll(ctx context.Context) ([]models.Article, error) {
	ctx, span := tracer.Start(ctx, "ArticleService.FindAll")
	defer span.End()

	articles := []models.Article{}
	err := s.db.WithContext(ctx).
		Select(models.ArticleColumns).
		Order("id").
		Find(&articles).Error
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("list articles: %w", err)
	}

	span.SetAttributes(attribute.Int("article.count", len(articles)))
	return articles, nil
}

// FindOne returns the article with the given id or ErrArticleNotFound.
func (s *ArticleService) FindOne(ctx context.Context, id uint) (*models.Article, error) {
	ctx, span := tracer.Start(ctx, "ArticleService.FindOne",
		trace.WithAttributes(attribute.Int64("article.id", int64(id))),
	)
	defer span.End()

	var article models.Article
	err := s.db.WithContext(ctx).
		Select(models.ArticleColumns).
		First(&article, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		recordError(span, ErrArticleNotFound)
		return nil, ErrArticleNotFound
	}
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("find article %d: %w", id, err)
	}

	return &article, nil
}

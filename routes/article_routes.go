package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/snap-point/articles-api/controllers"
)

func SetupArticleRoutes(rg *gin.RouterGroup, articleController *controllers.ArticleController, leaderboardController *controllers.LeaderboardController) {
	articles := rg.Group("/articles")
	{
		articles.POST("", articleController.CreateArticle)
		articles.GET("", articleController.ListArticles)
		articles.GET("/leaderboard", leaderboardController.GetLeaderboard)
		articles.GET("/:id", articleController.GetArticle)
		articles.PUT("/:id/like", articleController.LikeArticle)
	}
}

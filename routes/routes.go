package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/snap-point/articles-api/controllers"
	"github.com/snap-point/articles-api/middleware"
	"github.com/snap-point/articles-api/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps carries everything the handlers need. Leaderboard may be nil.
type Deps struct {
	DB              *gorm.DB
	Articles        *services.ArticleService
	Likes           *services.LikeService
	Leaderboard     *services.Leaderboard
	LeaderboardSize int
	Log             *zap.Logger
	ServiceName     string
}

// NewRouter builds the engine with the shared middleware stack and all routes.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(otelgin.Middleware(deps.ServiceName))
	r.Use(middleware.Logger(deps.Log))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:   []string{"X-Request-ID"},
	}))

	SetupRoutes(r, deps)
	return r
}

func SetupRoutes(r *gin.Engine, deps Deps) {
	// Initialize controllers
	articleController := controllers.NewArticleController(deps.Articles, deps.Likes, deps.Log)
	healthController := controllers.NewHealthController(deps.DB)

	var board controllers.LeaderboardReader
	if deps.Leaderboard != nil {
		board = deps.Leaderboard
	}
	leaderboardController := controllers.NewLeaderboardController(board, deps.LeaderboardSize, deps.Log)

	r.GET("/healthz", healthController.Health)

	SetupArticleRoutes(r.Group(""), articleController, leaderboardController)
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/quickdl-go/api/handlers"
	"github.com/yourusername/quickdl-go/api/middleware"
	"github.com/yourusername/quickdl-go/internal/app"
	"github.com/yourusername/quickdl-go/internal/domain"
	"github.com/yourusername/quickdl-go/pkg/logger"
	"go.uber.org/zap"
)

// SetupRouter sets up the gateway router
func SetupRouter(
	config *domain.Config,
	registry *app.Registry,
	ratings domain.RatingService,
	log *zap.Logger,
) *gin.Engine {
	log = logger.OrNop(log)

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(config.Server.AllowedOrigins))

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(registry)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Identity(config.Identity, config.Server.SecureCookies, log))
	{
		platformHandler := handlers.NewPlatformHandler(registry, log)
		platforms := v1.Group("/platforms/:platform")
		{
			platforms.POST("/mount", platformHandler.Mount)
			platforms.DELETE("", platformHandler.Unmount)
			platforms.GET("", platformHandler.GetState)
			platforms.POST("/submit", platformHandler.Submit)
			platforms.GET("/file", platformHandler.File)
			platforms.POST("/rating", platformHandler.Rate)
			platforms.GET("/notification", platformHandler.GetNotification)
			platforms.DELETE("/notification", platformHandler.DismissNotification)
		}

		ratingsHandler := handlers.NewRatingsHandler(ratings, log)
		v1.GET("/ratings/average", ratingsHandler.Average)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}

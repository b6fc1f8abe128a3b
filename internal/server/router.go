package server

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/aivy-app/aivy-backend/internal/handlers"
	"github.com/aivy-app/aivy-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler      *handlers.AuthHandler
	AuthMiddleware   *middleware.AuthMiddleware
	UserHandler      *handlers.UserHandler
	SpaceHandler     *handlers.SpaceHandler
	ThreadHandler    *handlers.ThreadHandler
	DocumentHandler  *handlers.DocumentHandler
	TopicHandler     *handlers.TopicHandler
	FlashcardHandler *handlers.FlashcardHandler
	PetHandler       *handlers.PetHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("aivy-backend"))

	allowOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		allowOrigins = strings.Split(v, ",")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)

	// Protected
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	protected.POST("/logout", cfg.AuthHandler.Logout)
	protected.GET("/user", cfg.UserHandler.GetMe)

	protected.POST("/spaces", cfg.SpaceHandler.Create)
	protected.GET("/spaces", cfg.SpaceHandler.List)
	protected.GET("/spaces/:space_id", cfg.SpaceHandler.Get)
	protected.GET("/spaces/:space_id/documents", cfg.DocumentHandler.ListBySpace)

	protected.POST("/threads", cfg.ThreadHandler.Create)
	protected.GET("/threads", cfg.ThreadHandler.List)
	protected.GET("/threads/:thread_id", cfg.ThreadHandler.Get)
	protected.GET("/threads/:thread_id/messages", cfg.ThreadHandler.History)
	protected.GET("/threads/:thread_id/checkpoints", cfg.ThreadHandler.Checkpoints)
	protected.POST("/threads/:thread_id/messages", cfg.ThreadHandler.SendMessage)
	protected.POST("/threads/:thread_id/messages/stream", cfg.ThreadHandler.StreamMessage)

	protected.POST("/documents", cfg.DocumentHandler.Create)
	protected.POST("/documents/search", cfg.DocumentHandler.Search)

	protected.GET("/topics", cfg.TopicHandler.List)
	protected.GET("/topics/:name", cfg.TopicHandler.Get)

	protected.GET("/flashcards", cfg.FlashcardHandler.List)

	protected.GET("/pet", cfg.PetHandler.Get)
	protected.POST("/pet/feed", cfg.PetHandler.Feed)
	protected.POST("/pet/play", cfg.PetHandler.Play)

	return router
}

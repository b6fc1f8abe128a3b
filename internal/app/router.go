package app

import (
	"github.com/gin-gonic/gin"

	"github.com/aivy-app/aivy-backend/internal/server"
)

func wireRouter(h Handlers, m Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthHandler:      h.Auth,
		AuthMiddleware:   m.Auth,
		UserHandler:      h.User,
		SpaceHandler:     h.Space,
		ThreadHandler:    h.Thread,
		DocumentHandler:  h.Document,
		TopicHandler:     h.Topic,
		FlashcardHandler: h.Flashcard,
		PetHandler:       h.Pet,
	})
}

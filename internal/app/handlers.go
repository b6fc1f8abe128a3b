package app

import (
	"github.com/aivy-app/aivy-backend/internal/handlers"
	"github.com/aivy-app/aivy-backend/internal/platform/logger"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Space     *handlers.SpaceHandler
	Thread    *handlers.ThreadHandler
	Document  *handlers.DocumentHandler
	Topic     *handlers.TopicHandler
	Flashcard *handlers.FlashcardHandler
	Pet       *handlers.PetHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:      handlers.NewAuthHandler(s.Auth),
		User:      handlers.NewUserHandler(s.User),
		Space:     handlers.NewSpaceHandler(s.Space),
		Thread:    handlers.NewThreadHandler(s.Chat),
		Document:  handlers.NewDocumentHandler(s.Document, s.Retrieval),
		Topic:     handlers.NewTopicHandler(s.Topic),
		Flashcard: handlers.NewFlashcardHandler(s.Flashcard),
		Pet:       handlers.NewPetHandler(s.Pet),
	}
}

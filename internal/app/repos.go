package app

import (
	"gorm.io/gorm"

	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/repos"
)

type Repos struct {
	User       repos.UserRepo
	UserToken  repos.UserTokenRepo
	Space      repos.SpaceRepo
	Thread     repos.ThreadRepo
	Checkpoint repos.CheckpointRepo
	Document   repos.DocumentRepo
	Topic      repos.TopicRepo
	Flashcard  repos.FlashcardRepo
	Pet        repos.PetRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:       repos.NewUserRepo(db, log),
		UserToken:  repos.NewUserTokenRepo(db, log),
		Space:      repos.NewSpaceRepo(db, log),
		Thread:     repos.NewThreadRepo(db, log),
		Checkpoint: repos.NewCheckpointRepo(db, log),
		Document:   repos.NewDocumentRepo(db, log),
		Topic:      repos.NewTopicRepo(db, log),
		Flashcard:  repos.NewFlashcardRepo(db, log),
		Pet:        repos.NewPetRepo(db, log),
	}
}

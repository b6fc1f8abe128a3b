package app

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/aivy-app/aivy-backend/internal/agent"
	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/services"
)

type Services struct {
	AI        services.AIClient
	Embedder  services.Embedder
	Store     agent.CheckpointStore
	Registry  *agent.Registry
	Agent     *agent.Orchestrator
	Auth      services.AuthService
	User      services.UserService
	Space     services.SpaceService
	Chat      services.ChatService
	Retrieval services.RetrievalService
	Topic     services.TopicService
	Flashcard services.FlashcardService
	Document  services.DocumentService
	Pet       services.PetService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	log.Info("Wiring services...")

	ai, err := services.NewOpenAIClient(log)
	if err != nil {
		return Services{}, err
	}

	var embedder services.Embedder = ai
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		embedder = services.NewCachedEmbedder(log, rdb, ai)
	}

	store := services.NewCheckpointStore(db, log, r.Checkpoint)
	retrieval := services.NewRetrievalService(db, log, r.Document, embedder)
	topic := services.NewTopicService(db, log, r.Topic)
	flashcard := services.NewFlashcardService(db, log, r.Flashcard)
	document := services.NewDocumentService(db, log, r.Document, r.Space, embedder)

	registry := agent.NewRegistry(
		services.NewRetrievalTool(retrieval),
		services.NewFlashcardTool(flashcard),
		services.NewTopicScoreTool(topic),
	)
	orchestrator := agent.NewOrchestrator(log, store, ai, registry, agent.Config{
		MaxRounds:   cfg.MaxToolRounds,
		ToolTimeout: time.Duration(cfg.ToolTimeoutSeconds) * time.Second,
	})

	auth := services.NewAuthService(db, log, r.User, r.Pet, r.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	user := services.NewUserService(db, log, r.User)
	space := services.NewSpaceService(db, log, r.Space)
	chat := services.NewChatService(db, log, r.Thread, r.Space, store, orchestrator)
	pet := services.NewPetService(db, log, r.Pet, r.User)

	return Services{
		AI:        ai,
		Embedder:  embedder,
		Store:     store,
		Registry:  registry,
		Agent:     orchestrator,
		Auth:      auth,
		User:      user,
		Space:     space,
		Chat:      chat,
		Retrieval: retrieval,
		Topic:     topic,
		Flashcard: flashcard,
		Document:  document,
		Pet:       pet,
	}, nil
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/repos"
	"github.com/aivy-app/aivy-backend/internal/types"
)

const flashcardOptionCount = 3

type CreateFlashcardInput struct {
	UserID       uuid.UUID
	SpaceID      uuid.UUID
	Topic        string
	Question     string
	Options      []string
	CorrectIndex int
}

type FlashcardService interface {
	Create(ctx context.Context, input CreateFlashcardInput) (*types.Flashcard, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Flashcard, error)
	ListByTopic(ctx context.Context, userID uuid.UUID, topic string) ([]*types.Flashcard, error)
}

type flashcardService struct {
	db         *gorm.DB
	log        *logger.Logger
	flashcards repos.FlashcardRepo
}

func NewFlashcardService(db *gorm.DB, baseLog *logger.Logger, flashcardRepo repos.FlashcardRepo) FlashcardService {
	return &flashcardService{
		db:         db,
		log:        baseLog.With("service", "FlashcardService"),
		flashcards: flashcardRepo,
	}
}

func (s *flashcardService) Create(ctx context.Context, input CreateFlashcardInput) (*types.Flashcard, error) {
	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("missing user id: %w", apperrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(input.Topic) == "" {
		return nil, fmt.Errorf("missing topic: %w", apperrors.ErrInvalidFlashcard)
	}
	if strings.TrimSpace(input.Question) == "" {
		return nil, fmt.Errorf("missing question: %w", apperrors.ErrInvalidFlashcard)
	}
	if len(input.Options) != flashcardOptionCount {
		return nil, fmt.Errorf("expected %d options, got %d: %w", flashcardOptionCount, len(input.Options), apperrors.ErrInvalidFlashcard)
	}
	for i, opt := range input.Options {
		if strings.TrimSpace(opt) == "" {
			return nil, fmt.Errorf("option %d is empty: %w", i, apperrors.ErrInvalidFlashcard)
		}
	}
	if input.CorrectIndex < 0 || input.CorrectIndex >= flashcardOptionCount {
		return nil, fmt.Errorf("correct index %d out of range: %w", input.CorrectIndex, apperrors.ErrInvalidFlashcard)
	}

	rawOptions, err := json.Marshal(input.Options)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}
	card := &types.Flashcard{
		UserID:        input.UserID,
		SpaceID:       input.SpaceID,
		Topic:         strings.TrimSpace(input.Topic),
		Question:      strings.TrimSpace(input.Question),
		Options:       datatypes.JSON(rawOptions),
		CorrectOption: input.CorrectIndex,
	}
	if _, err := s.flashcards.Create(ctx, nil, card); err != nil {
		return nil, fmt.Errorf("persist flashcard: %w", err)
	}
	return card, nil
}

func (s *flashcardService) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Flashcard, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id: %w", apperrors.ErrInvalidArgument)
	}
	return s.flashcards.ListByUser(ctx, nil, userID, limit)
}

func (s *flashcardService) ListByTopic(ctx context.Context, userID uuid.UUID, topic string) ([]*types.Flashcard, error) {
	if userID == uuid.Nil || topic == "" {
		return nil, fmt.Errorf("missing user id or topic: %w", apperrors.ErrInvalidArgument)
	}
	return s.flashcards.ListByTopic(ctx, nil, userID, topic)
}

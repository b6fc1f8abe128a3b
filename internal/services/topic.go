package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/repos"
	"github.com/aivy-app/aivy-backend/internal/types"
)

// TopicService maintains per-user topic mastery records. UpsertLevel is
// idempotent: re-applying the same level and thread leaves the row unchanged.
type TopicService interface {
	UpsertLevel(ctx context.Context, userID uuid.UUID, name, level string, threadID uuid.UUID) (*types.Topic, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.Topic, error)
	GetByName(ctx context.Context, userID uuid.UUID, name string) (*types.Topic, error)
}

type topicService struct {
	db     *gorm.DB
	log    *logger.Logger
	topics repos.TopicRepo
}

func NewTopicService(db *gorm.DB, baseLog *logger.Logger, topicRepo repos.TopicRepo) TopicService {
	return &topicService{
		db:     db,
		log:    baseLog.With("service", "TopicService"),
		topics: topicRepo,
	}
}

func (s *topicService) UpsertLevel(ctx context.Context, userID uuid.UUID, name, level string, threadID uuid.UUID) (*types.Topic, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id: %w", apperrors.ErrInvalidArgument)
	}
	if name == "" {
		return nil, fmt.Errorf("missing topic name: %w", apperrors.ErrInvalidArgument)
	}
	if !types.ValidTopicLevel(level) {
		return nil, fmt.Errorf("unknown topic level %q: %w", level, apperrors.ErrInvalidArgument)
	}

	topic, err := s.upsert(ctx, userID, name, level, threadID)
	if err == nil {
		return topic, nil
	}
	// Two agents can race the insert for a new topic name. The unique
	// (user_id, name) index rejects the loser; retry once as an update.
	if isUniqueViolation(err) {
		return s.upsert(ctx, userID, name, level, threadID)
	}
	return nil, err
}

func (s *topicService) upsert(ctx context.Context, userID uuid.UUID, name, level string, threadID uuid.UUID) (*types.Topic, error) {
	existing, err := s.topics.GetByUserAndName(ctx, nil, userID, name)
	if err != nil {
		return nil, fmt.Errorf("read topic %q: %w", name, err)
	}

	if existing == nil {
		threads := []uuid.UUID{}
		if threadID != uuid.Nil {
			threads = append(threads, threadID)
		}
		raw, err := json.Marshal(threads)
		if err != nil {
			return nil, fmt.Errorf("encode related threads: %w", err)
		}
		topic := &types.Topic{
			UserID:         userID,
			Name:           name,
			Level:          level,
			RelatedThreads: datatypes.JSON(raw),
		}
		if _, err := s.topics.Create(ctx, nil, topic); err != nil {
			return nil, err
		}
		return topic, nil
	}

	threads, err := decodeRelatedThreads(existing.RelatedThreads)
	if err != nil {
		return nil, fmt.Errorf("decode related threads for %q: %w", name, err)
	}
	changed := existing.Level != level
	existing.Level = level
	if threadID != uuid.Nil && !containsUUID(threads, threadID) {
		threads = append(threads, threadID)
		raw, err := json.Marshal(threads)
		if err != nil {
			return nil, fmt.Errorf("encode related threads: %w", err)
		}
		existing.RelatedThreads = datatypes.JSON(raw)
		changed = true
	}
	if !changed {
		return existing, nil
	}
	if err := s.topics.Save(ctx, nil, existing); err != nil {
		return nil, fmt.Errorf("save topic %q: %w", name, err)
	}
	return existing, nil
}

func (s *topicService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.Topic, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id: %w", apperrors.ErrInvalidArgument)
	}
	return s.topics.ListByUser(ctx, nil, userID)
}

func (s *topicService) GetByName(ctx context.Context, userID uuid.UUID, name string) (*types.Topic, error) {
	if userID == uuid.Nil || name == "" {
		return nil, fmt.Errorf("missing user id or topic name: %w", apperrors.ErrInvalidArgument)
	}
	topic, err := s.topics.GetByUserAndName(ctx, nil, userID, name)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, fmt.Errorf("topic %q: %w", name, apperrors.ErrNotFound)
	}
	return topic, nil
}

func decodeRelatedThreads(raw datatypes.JSON) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var threads []uuid.UUID
	if err := json.Unmarshal(raw, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

func containsUUID(list []uuid.UUID, id uuid.UUID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

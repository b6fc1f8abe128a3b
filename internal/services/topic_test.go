package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/repos"
	"github.com/aivy-app/aivy-backend/internal/types"
)

func newTestTopicService(t *testing.T) TopicService {
	t.Helper()
	db := newTestDB(t)
	log := testLogger(t)
	return NewTopicService(db, log, repos.NewTopicRepo(db, log))
}

func relatedThreads(t *testing.T, topic *types.Topic) []uuid.UUID {
	t.Helper()
	var threads []uuid.UUID
	require.NoError(t, json.Unmarshal(topic.RelatedThreads, &threads))
	return threads
}

func TestUpsertLevelCreatesTopic(t *testing.T) {
	svc := newTestTopicService(t)
	userID := uuid.New()
	threadID := uuid.New()

	topic, err := svc.UpsertLevel(context.Background(), userID, "Recursion", types.TopicLevelLearning, threadID)
	require.NoError(t, err)
	assert.Equal(t, "Recursion", topic.Name)
	assert.Equal(t, types.TopicLevelLearning, topic.Level)
	assert.Equal(t, []uuid.UUID{threadID}, relatedThreads(t, topic))
}

func TestUpsertLevelIsIdempotent(t *testing.T) {
	svc := newTestTopicService(t)
	ctx := context.Background()
	userID := uuid.New()
	threadID := uuid.New()

	first, err := svc.UpsertLevel(ctx, userID, "Recursion", types.TopicLevelBasic, threadID)
	require.NoError(t, err)

	second, err := svc.UpsertLevel(ctx, userID, "Recursion", types.TopicLevelBasic, threadID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, types.TopicLevelBasic, second.Level)
	assert.Len(t, relatedThreads(t, second), 1)

	topics, err := svc.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, topics, 1)
}

func TestUpsertLevelUpdatesLevelAndGrowsThreadSet(t *testing.T) {
	svc := newTestTopicService(t)
	ctx := context.Background()
	userID := uuid.New()
	threadA := uuid.New()
	threadB := uuid.New()

	_, err := svc.UpsertLevel(ctx, userID, "Recursion", types.TopicLevelLearning, threadA)
	require.NoError(t, err)

	topic, err := svc.UpsertLevel(ctx, userID, "Recursion", types.TopicLevelAdvanced, threadB)
	require.NoError(t, err)
	assert.Equal(t, types.TopicLevelAdvanced, topic.Level)
	assert.ElementsMatch(t, []uuid.UUID{threadA, threadB}, relatedThreads(t, topic))
}

func TestUpsertLevelRejectsUnknownLevel(t *testing.T) {
	svc := newTestTopicService(t)
	_, err := svc.UpsertLevel(context.Background(), uuid.New(), "Recursion", "Expert", uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestTopicsArePerUser(t *testing.T) {
	svc := newTestTopicService(t)
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	_, err := svc.UpsertLevel(ctx, alice, "Recursion", types.TopicLevelBasic, uuid.Nil)
	require.NoError(t, err)
	_, err = svc.UpsertLevel(ctx, bob, "Recursion", types.TopicLevelAdvanced, uuid.Nil)
	require.NoError(t, err)

	got, err := svc.GetByName(ctx, alice, "Recursion")
	require.NoError(t, err)
	assert.Equal(t, types.TopicLevelBasic, got.Level)
}

func TestGetByNameNotFound(t *testing.T) {
	svc := newTestTopicService(t)
	_, err := svc.GetByName(context.Background(), uuid.New(), "Nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

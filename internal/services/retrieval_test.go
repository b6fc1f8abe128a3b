package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aivy-app/aivy-backend/internal/agent"
	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/repos"
	"github.com/aivy-app/aivy-backend/internal/types"
)

// fixedEmbedder returns the same vector for every input.
type fixedEmbedder struct {
	vec []float32
}

func (e fixedEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = e.vec
	}
	return out, nil
}

func mustEmbedding(t *testing.T, vec []float32) datatypes.JSON {
	t.Helper()
	raw, err := json.Marshal(vec)
	require.NoError(t, err)
	return datatypes.JSON(raw)
}

type retrievalFixture struct {
	svc      RetrievalService
	docs     repos.DocumentRepo
	db       *gorm.DB
	scope    agent.Scope
	otherSpc uuid.UUID
}

func newRetrievalFixture(t *testing.T) *retrievalFixture {
	t.Helper()
	db := newTestDB(t)
	log := testLogger(t)
	docRepo := repos.NewDocumentRepo(db, log)
	return &retrievalFixture{
		svc:  NewRetrievalService(db, log, docRepo, fixedEmbedder{vec: []float32{1, 0}}),
		docs: docRepo,
		db:   db,
		scope: agent.Scope{
			ThreadID: uuid.New(),
			SpaceID:  uuid.New(),
			UserID:   uuid.New(),
		},
		otherSpc: uuid.New(),
	}
}

func (f *retrievalFixture) addDoc(t *testing.T, name string, emb []float32, threadID *uuid.UUID, spaceID uuid.UUID, createdAt time.Time) uuid.UUID {
	t.Helper()
	doc := &types.Document{
		UserID:    f.scope.UserID,
		SpaceID:   spaceID,
		ThreadID:  threadID,
		Name:      name,
		Text:      "content of " + name,
		Embedding: mustEmbedding(t, emb),
		Source:    types.DocumentSourceUpload,
	}
	_, err := f.docs.Create(context.Background(), nil, doc)
	require.NoError(t, err)
	if !createdAt.IsZero() {
		require.NoError(t, f.db.Model(doc).Update("created_at", createdAt).Error)
	}
	return doc.ID
}

func TestSearchValidation(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()

	_, err := f.svc.Search(ctx, "", 5, f.scope)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuery)

	_, err = f.svc.Search(ctx, "query", 0, f.scope)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuery)

	_, err = f.svc.Search(ctx, "query", -3, f.scope)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuery)
}

func TestSearchNoCandidates(t *testing.T) {
	f := newRetrievalFixture(t)
	results, err := f.svc.Search(context.Background(), "anything", 5, f.scope)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchThreadTierBeatsRawSimilarity(t *testing.T) {
	f := newRetrievalFixture(t)
	threadID := f.scope.ThreadID

	// Space doc is the closer raw match (cos 0.9 vs 0.7) but the thread doc
	// wins after the 1.5x boost: 0.7*1.5 = 1.05 > 0.9.
	f.addDoc(t, "thread-notes", []float32{0.7, 0.714}, &threadID, f.scope.SpaceID, time.Time{})
	f.addDoc(t, "space-textbook", []float32{0.9, 0.436}, nil, f.scope.SpaceID, time.Time{})

	results, err := f.svc.Search(context.Background(), "query", 5, f.scope)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "thread-notes", results[0].Name)
	assert.Equal(t, TierThread, results[0].Tier)
	assert.Equal(t, "space-textbook", results[1].Name)
	assert.Equal(t, TierSpace, results[1].Tier)
	assert.Greater(t, results[1].Similarity, results[0].Similarity)
	assert.Greater(t, results[0].Relevance, results[1].Relevance)
}

func TestSearchRecencyTieBreak(t *testing.T) {
	f := newRetrievalFixture(t)
	old := time.Now().Add(-2 * time.Hour)
	recent := time.Now().Add(-1 * time.Minute)

	f.addDoc(t, "older", []float32{1, 0}, nil, f.scope.SpaceID, old)
	f.addDoc(t, "newer", []float32{1, 0}, nil, f.scope.SpaceID, recent)

	results, err := f.svc.Search(context.Background(), "query", 5, f.scope)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "newer", results[0].Name)
	assert.Equal(t, "older", results[1].Name)
}

func TestSearchUserTierExcludesCurrentSpace(t *testing.T) {
	f := newRetrievalFixture(t)

	f.addDoc(t, "other-space-doc", []float32{1, 0}, nil, f.otherSpc, time.Time{})
	f.addDoc(t, "current-space-doc", []float32{1, 0}, nil, f.scope.SpaceID, time.Time{})

	results, err := f.svc.Search(context.Background(), "query", 5, f.scope)
	require.NoError(t, err)
	require.Len(t, results, 2)

	tiers := map[string]string{}
	for _, r := range results {
		tiers[r.Name] = r.Tier
	}
	assert.Equal(t, TierSpace, tiers["current-space-doc"])
	assert.Equal(t, TierUser, tiers["other-space-doc"])
}

func TestSearchLimitTruncates(t *testing.T) {
	f := newRetrievalFixture(t)
	for i := 0; i < 5; i++ {
		f.addDoc(t, "doc", []float32{1, 0}, nil, f.scope.SpaceID, time.Time{})
	}
	results, err := f.svc.Search(context.Background(), "query", 2, f.scope)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchZeroScopeIsGlobal(t *testing.T) {
	f := newRetrievalFixture(t)
	f.addDoc(t, "anywhere", []float32{1, 0}, nil, f.otherSpc, time.Time{})

	results, err := f.svc.Search(context.Background(), "query", 5, agent.Scope{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, TierGlobal, results[0].Tier)
}

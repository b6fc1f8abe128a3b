package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/aivy-app/aivy-backend/internal/agent"
	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/repos"
)

func newTestCheckpointStore(t *testing.T) agent.CheckpointStore {
	t.Helper()
	db := newTestDB(t)
	log := testLogger(t)
	return NewCheckpointStore(db, log, repos.NewCheckpointRepo(db, log))
}

func userMsg(content string) agent.Message {
	return agent.Message{Role: agent.RoleUser, Content: content}
}

func TestCheckpointStoreLatestEmptyThread(t *testing.T) {
	store := newTestCheckpointStore(t)
	snap, err := store.Latest(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestCheckpointStoreAppendAndLatest(t *testing.T) {
	store := newTestCheckpointStore(t)
	ctx := context.Background()
	threadID := uuid.New()
	meta := agent.CheckpointMetadata{OwnerUserID: uuid.New(), SpaceID: uuid.New()}

	seq, err := store.Append(ctx, threadID, 0, []agent.Message{userMsg("a"), {Role: agent.RoleAssistant, Content: "b"}}, meta)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	seq, err = store.Append(ctx, threadID, 1, []agent.Message{userMsg("c")}, meta)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)

	snap, err := store.Latest(ctx, threadID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, int64(2), snap.Seq)
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, "a", snap.Messages[0].Content)
	assert.Equal(t, "c", snap.Messages[2].Content)
	assert.Equal(t, meta.OwnerUserID, snap.Metadata.OwnerUserID)
	assert.Equal(t, 1, snap.Metadata.Version)
}

func TestCheckpointStoreStaleBase(t *testing.T) {
	store := newTestCheckpointStore(t)
	ctx := context.Background()
	threadID := uuid.New()
	meta := agent.CheckpointMetadata{OwnerUserID: uuid.New()}

	_, err := store.Append(ctx, threadID, 0, []agent.Message{userMsg("first")}, meta)
	require.NoError(t, err)

	// A second writer still holding base 0 must be rejected.
	_, err = store.Append(ctx, threadID, 0, []agent.Message{userMsg("second")}, meta)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStaleCheckpoint)

	// The loser's write left no trace.
	snap, err := store.Latest(ctx, threadID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Seq)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "first", snap.Messages[0].Content)
}

func TestCheckpointStoreConcurrentAppendOneWinner(t *testing.T) {
	store := newTestCheckpointStore(t)
	ctx := context.Background()
	threadID := uuid.New()
	meta := agent.CheckpointMetadata{}

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		content := fmt.Sprintf("writer-%d", i)
		go func() {
			_, err := store.Append(ctx, threadID, 0, []agent.Message{userMsg(content)}, meta)
			errs <- err
		}()
	}

	var wins, stales int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			wins++
		case errors.Is(err, apperrors.ErrStaleCheckpoint):
			stales++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, stales)

	snap, err := store.Latest(ctx, threadID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Seq)
	require.Len(t, snap.Messages, 1)
}

func TestCheckpointStoreAppendValidation(t *testing.T) {
	store := newTestCheckpointStore(t)
	ctx := context.Background()
	meta := agent.CheckpointMetadata{}

	_, err := store.Append(ctx, uuid.Nil, 0, []agent.Message{userMsg("x")}, meta)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = store.Append(ctx, uuid.New(), 0, nil, meta)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = store.Append(ctx, uuid.New(), -1, []agent.Message{userMsg("x")}, meta)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestCheckpointStoreListDescendingWithCursor(t *testing.T) {
	store := newTestCheckpointStore(t)
	ctx := context.Background()
	threadID := uuid.New()
	meta := agent.CheckpointMetadata{}

	for i := 0; i < 4; i++ {
		_, err := store.Append(ctx, threadID, int64(i), []agent.Message{userMsg(fmt.Sprintf("m%d", i))}, meta)
		require.NoError(t, err)
	}

	snaps, err := store.List(ctx, threadID, 2, nil)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, int64(4), snaps[0].Seq)
	assert.Equal(t, int64(3), snaps[1].Seq)

	before := int64(3)
	snaps, err = store.List(ctx, threadID, 10, &before)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, int64(2), snaps[0].Seq)
	assert.Equal(t, int64(1), snaps[1].Seq)

	snaps, err = store.List(ctx, uuid.New(), 10, nil)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestCheckpointStoreThreadIsolation(t *testing.T) {
	store := newTestCheckpointStore(t)
	ctx := context.Background()
	threadA := uuid.New()
	threadB := uuid.New()
	meta := agent.CheckpointMetadata{}

	_, err := store.Append(ctx, threadA, 0, []agent.Message{userMsg("a")}, meta)
	require.NoError(t, err)
	// Both threads start at base 0 independently.
	_, err = store.Append(ctx, threadB, 0, []agent.Message{userMsg("b")}, meta)
	require.NoError(t, err)

	snapB, err := store.Latest(ctx, threadB)
	require.NoError(t, err)
	assert.Equal(t, "b", snapB.Messages[0].Content)
}

// Property: however appends interleave, each committed snapshot extends the
// previous one and sequences stay contiguous from 1.
func TestCheckpointStoreAppendOnlyProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := newTestCheckpointStore(t)
		ctx := context.Background()
		threadID := uuid.New()
		meta := agent.CheckpointMetadata{}

		appends := rapid.IntRange(1, 8).Draw(rt, "appends")
		var total int
		for i := 0; i < appends; i++ {
			deltaLen := rapid.IntRange(1, 3).Draw(rt, "delta_len")
			delta := make([]agent.Message, 0, deltaLen)
			for j := 0; j < deltaLen; j++ {
				delta = append(delta, userMsg(rapid.StringMatching(`[a-z]{1,12}`).Draw(rt, "content")))
			}
			seq, err := store.Append(ctx, threadID, int64(i), delta, meta)
			if err != nil {
				rt.Fatalf("append %d: %v", i, err)
			}
			if seq != int64(i+1) {
				rt.Fatalf("expected seq %d, got %d", i+1, seq)
			}
			total += deltaLen
		}

		snaps, err := store.List(ctx, threadID, 0, nil)
		if err != nil {
			rt.Fatalf("list: %v", err)
		}
		if len(snaps) != appends {
			rt.Fatalf("expected %d snapshots, got %d", appends, len(snaps))
		}
		for i, snap := range snaps {
			if snap.Seq != int64(appends-i) {
				rt.Fatalf("snapshot %d has seq %d", i, snap.Seq)
			}
		}
		// Each snapshot's messages are a prefix of the next newer one.
		for i := 0; i < len(snaps)-1; i++ {
			newer, older := snaps[i], snaps[i+1]
			if len(older.Messages) >= len(newer.Messages) {
				rt.Fatalf("seq %d has %d messages, seq %d has %d", older.Seq, len(older.Messages), newer.Seq, len(newer.Messages))
			}
			for j := range older.Messages {
				if older.Messages[j].Content != newer.Messages[j].Content {
					rt.Fatalf("history rewritten at index %d", j)
				}
			}
		}
		if len(snaps[0].Messages) != total {
			rt.Fatalf("latest has %d messages, appended %d", len(snaps[0].Messages), total)
		}
	})
}

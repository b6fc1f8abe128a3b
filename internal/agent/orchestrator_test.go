package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/platform/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	require.NoError(t, err)
	t.Cleanup(log.Sync)
	return log
}

// memStore is an in-memory CheckpointStore with the same CAS semantics as
// the real one.
type memStore struct {
	mu    sync.Mutex
	snaps map[uuid.UUID][]*Snapshot

	failAppend error
	appends    int
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[uuid.UUID][]*Snapshot)}
}

func (s *memStore) Append(_ context.Context, threadID uuid.UUID, baseSeq int64, delta []Message, meta CheckpointMetadata) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends++
	if s.failAppend != nil {
		return 0, s.failAppend
	}
	log := s.snaps[threadID]
	var latestSeq int64
	var prev []Message
	if len(log) > 0 {
		latest := log[len(log)-1]
		latestSeq = latest.Seq
		prev = latest.Messages
	}
	if latestSeq != baseSeq {
		return 0, fmt.Errorf("base %d but latest is %d: %w", baseSeq, latestSeq, apperrors.ErrStaleCheckpoint)
	}
	merged := make([]Message, 0, len(prev)+len(delta))
	merged = append(merged, prev...)
	merged = append(merged, delta...)
	snap := &Snapshot{
		ThreadID:  threadID,
		Seq:       baseSeq + 1,
		Messages:  merged,
		Metadata:  meta,
		CreatedAt: time.Now(),
	}
	s.snaps[threadID] = append(log, snap)
	return snap.Seq, nil
}

func (s *memStore) Latest(_ context.Context, threadID uuid.UUID) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.snaps[threadID]
	if len(log) == 0 {
		return nil, nil
	}
	return log[len(log)-1], nil
}

func (s *memStore) List(_ context.Context, threadID uuid.UUID, limit int, beforeSeq *int64) ([]*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Snapshot
	for _, snap := range s.snaps[threadID] {
		if beforeSeq != nil && snap.Seq >= *beforeSeq {
			continue
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// scriptedModel replays a fixed sequence of assistant turns.
type scriptedModel struct {
	mu    sync.Mutex
	turns []AssistantTurn
	calls int

	streamChunks []string
	onComplete   func()
}

func (m *scriptedModel) next() (*AssistantTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.onComplete != nil {
		m.onComplete()
	}
	if len(m.turns) == 0 {
		return nil, errors.New("script exhausted")
	}
	turn := m.turns[0]
	if len(m.turns) > 1 {
		m.turns = m.turns[1:]
	}
	return &turn, nil
}

func (m *scriptedModel) Complete(context.Context, []Message, []ToolSpec) (*AssistantTurn, error) {
	return m.next()
}

func (m *scriptedModel) StreamComplete(_ context.Context, _ []Message, _ []ToolSpec, onDelta func(string)) (*AssistantTurn, error) {
	for _, chunk := range m.streamChunks {
		onDelta(chunk)
	}
	return m.next()
}

type funcTool struct {
	name string
	fn   func(ctx context.Context, args map[string]any, scope Scope) (any, error)
}

func (t funcTool) Spec() ToolSpec {
	return ToolSpec{Name: t.name, Parameters: map[string]any{"type": "object"}}
}

func (t funcTool) Invoke(ctx context.Context, args map[string]any, scope Scope) (any, error) {
	return t.fn(ctx, args, scope)
}

func testScope() Scope {
	return Scope{ThreadID: uuid.New(), SpaceID: uuid.New(), UserID: uuid.New()}
}

func TestRunTurnNoTools(t *testing.T) {
	store := newMemStore()
	model := &scriptedModel{turns: []AssistantTurn{{Content: "A B-tree is a self-balancing search tree."}}}
	o := NewOrchestrator(testLogger(t), store, model, NewRegistry(), Config{})
	scope := testScope()

	res, err := o.RunTurn(context.Background(), scope, "What is a B-tree?")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Sequence)
	assert.Equal(t, "A B-tree is a self-balancing search tree.", res.Assistant.Content)

	snap, err := store.Latest(context.Background(), scope.ThreadID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, RoleUser, snap.Messages[0].Role)
	assert.Equal(t, RoleAssistant, snap.Messages[1].Role)
	assert.Equal(t, scope.UserID, snap.Metadata.OwnerUserID)
}

func TestRunTurnWithToolRound(t *testing.T) {
	store := newMemStore()
	model := &scriptedModel{turns: []AssistantTurn{
		{ToolCalls: []ToolCall{{ID: "call-1", Name: "lookup", Arguments: map[string]any{"q": "btree"}}}},
		{Content: "Found it."},
	}}
	var gotScope Scope
	registry := NewRegistry(funcTool{name: "lookup", fn: func(_ context.Context, args map[string]any, scope Scope) (any, error) {
		gotScope = scope
		return map[string]any{"answer": args["q"]}, nil
	}})
	o := NewOrchestrator(testLogger(t), store, model, registry, Config{})
	scope := testScope()

	res, err := o.RunTurn(context.Background(), scope, "look up btree")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Sequence)
	assert.Equal(t, scope, gotScope)

	snap, _ := store.Latest(context.Background(), scope.ThreadID)
	require.NotNil(t, snap)
	// user, assistant(tool call), tool result, final assistant
	require.Len(t, snap.Messages, 4)
	assert.Equal(t, RoleTool, snap.Messages[2].Role)
	require.NotNil(t, snap.Messages[2].ToolResult)
	assert.Equal(t, "call-1", snap.Messages[2].ToolResult.CallID)
	assert.Empty(t, snap.Messages[2].ToolResult.Error)
}

func TestRunTurnSecondTurnExtendsHistory(t *testing.T) {
	store := newMemStore()
	model := &scriptedModel{turns: []AssistantTurn{{Content: "first"}, {Content: "second"}}}
	o := NewOrchestrator(testLogger(t), store, model, NewRegistry(), Config{})
	scope := testScope()

	_, err := o.RunTurn(context.Background(), scope, "one")
	require.NoError(t, err)
	res, err := o.RunTurn(context.Background(), scope, "two")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Sequence)

	snap, _ := store.Latest(context.Background(), scope.ThreadID)
	require.Len(t, snap.Messages, 4)
	assert.Equal(t, "one", snap.Messages[0].Content)
	assert.Equal(t, "two", snap.Messages[2].Content)
}

func TestRunTurnToolLoopExceeded(t *testing.T) {
	store := newMemStore()
	// Script never terminates: every reasoning step requests another call.
	model := &scriptedModel{turns: []AssistantTurn{
		{ToolCalls: []ToolCall{{ID: "c", Name: "noop"}}},
	}}
	registry := NewRegistry(funcTool{name: "noop", fn: func(context.Context, map[string]any, Scope) (any, error) {
		return "ok", nil
	}})
	o := NewOrchestrator(testLogger(t), store, model, registry, Config{MaxRounds: 3})
	scope := testScope()

	_, err := o.RunTurn(context.Background(), scope, "go")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrToolLoopExceeded)
	// Bound allows exactly MaxRounds dispatched rounds, so the model was
	// consulted MaxRounds+1 times.
	assert.Equal(t, 4, model.calls)

	// Best-effort commit preserved the partial history.
	snap, _ := store.Latest(context.Background(), scope.ThreadID)
	require.NotNil(t, snap)
	assert.Equal(t, int64(1), snap.Seq)
	// user + 3 dispatched rounds of (assistant + tool) + final assistant
	assert.Len(t, snap.Messages, 8)
}

func TestRunTurnToolTimeoutFedBack(t *testing.T) {
	store := newMemStore()
	model := &scriptedModel{turns: []AssistantTurn{
		{ToolCalls: []ToolCall{{ID: "slow-1", Name: "slow"}}},
		{Content: "gave up on the tool"},
	}}
	registry := NewRegistry(funcTool{name: "slow", fn: func(ctx context.Context, _ map[string]any, _ Scope) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}})
	o := NewOrchestrator(testLogger(t), store, model, registry, Config{ToolTimeout: 20 * time.Millisecond})
	scope := testScope()

	res, err := o.RunTurn(context.Background(), scope, "try the slow tool")
	require.NoError(t, err)
	assert.Equal(t, "gave up on the tool", res.Assistant.Content)

	snap, _ := store.Latest(context.Background(), scope.ThreadID)
	require.Len(t, snap.Messages, 4)
	require.NotNil(t, snap.Messages[2].ToolResult)
	assert.Equal(t, apperrors.ErrToolTimeout.Error(), snap.Messages[2].ToolResult.Error)
}

func TestRunTurnUnknownToolReported(t *testing.T) {
	store := newMemStore()
	model := &scriptedModel{turns: []AssistantTurn{
		{ToolCalls: []ToolCall{{ID: "x", Name: "does_not_exist"}}},
		{Content: "done"},
	}}
	o := NewOrchestrator(testLogger(t), store, model, NewRegistry(), Config{})
	scope := testScope()

	_, err := o.RunTurn(context.Background(), scope, "call something weird")
	require.NoError(t, err)

	snap, _ := store.Latest(context.Background(), scope.ThreadID)
	require.NotNil(t, snap.Messages[2].ToolResult)
	assert.Contains(t, snap.Messages[2].ToolResult.Error, "unknown tool")
}

func TestRunTurnConcurrentConflict(t *testing.T) {
	store := newMemStore()
	store.failAppend = fmt.Errorf("raced: %w", apperrors.ErrStaleCheckpoint)
	model := &scriptedModel{turns: []AssistantTurn{{Content: "hi"}}}
	o := NewOrchestrator(testLogger(t), store, model, NewRegistry(), Config{})

	_, err := o.RunTurn(context.Background(), testScope(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConcurrentTurnConflict)
	// No retry: exactly one append attempt.
	assert.Equal(t, 1, store.appends)
}

func TestRunTurnCancelledSkipsCommit(t *testing.T) {
	store := newMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	model := &scriptedModel{turns: []AssistantTurn{{Content: "late answer"}}}
	model.onComplete = cancel

	o := NewOrchestrator(testLogger(t), store, model, NewRegistry(), Config{})
	scope := testScope()

	_, err := o.RunTurn(ctx, scope, "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.appends)
}

func TestRunTurnValidation(t *testing.T) {
	o := NewOrchestrator(testLogger(t), newMemStore(), &scriptedModel{}, NewRegistry(), Config{})

	_, err := o.RunTurn(context.Background(), Scope{}, "hi")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = o.RunTurn(context.Background(), testScope(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestStreamTurnEmitsDeltasAndCommitsOnce(t *testing.T) {
	store := newMemStore()
	model := &scriptedModel{
		turns:        []AssistantTurn{{Content: "Hello there"}},
		streamChunks: []string{"Hello ", "there"},
	}
	o := NewOrchestrator(testLogger(t), store, model, NewRegistry(), Config{})
	scope := testScope()

	var events []StreamEvent
	res, err := o.StreamTurn(context.Background(), scope, "hi", func(ev StreamEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Sequence)

	var deltas string
	var doneEvents int
	for _, ev := range events {
		switch ev.Type {
		case "delta":
			deltas += ev.Delta
		case "done":
			doneEvents++
			assert.Equal(t, int64(1), ev.Sequence)
		}
	}
	assert.Equal(t, "Hello there", deltas)
	assert.Equal(t, 1, doneEvents)
	assert.Equal(t, 1, store.appends)
}

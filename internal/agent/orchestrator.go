package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/platform/logger"
)

const (
	DefaultMaxRounds   = 8
	DefaultToolTimeout = 10 * time.Second
)

// StreamEvent is one incremental notification from a streaming turn.
// Streamed output is never itself the unit of persistence; the checkpoint
// commit happens exactly once over the complete delta.
type StreamEvent struct {
	Type       string      `json:"type"` // "delta" | "tool_call" | "tool_result" | "done"
	Delta      string      `json:"delta,omitempty"`
	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
	Sequence   int64       `json:"sequence,omitempty"`
}

type Config struct {
	// MaxRounds bounds Reasoning<->ToolDispatch round trips per turn.
	MaxRounds int
	// ToolTimeout bounds a single tool invocation.
	ToolTimeout time.Duration
}

// Orchestrator drives one turn at a time: load latest checkpoint, loop the
// model against the tool registry, commit the accumulated delta once.
type Orchestrator struct {
	log         *logger.Logger
	store       CheckpointStore
	model       ModelClient
	registry    *Registry
	maxRounds   int
	toolTimeout time.Duration
}

func NewOrchestrator(baseLog *logger.Logger, store CheckpointStore, model ModelClient, registry *Registry, cfg Config) *Orchestrator {
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	toolTimeout := cfg.ToolTimeout
	if toolTimeout <= 0 {
		toolTimeout = DefaultToolTimeout
	}
	return &Orchestrator{
		log:         baseLog.With("component", "Orchestrator"),
		store:       store,
		model:       model,
		registry:    registry,
		maxRounds:   maxRounds,
		toolTimeout: toolTimeout,
	}
}

// TurnResult is the committed outcome of one turn.
type TurnResult struct {
	Assistant Message
	Sequence  int64
}

// RunTurn executes one user-message-in, assistant-message-out cycle and
// commits a new checkpoint. On ErrConcurrentTurnConflict nothing was
// committed and the caller must resubmit after a fresh read.
func (o *Orchestrator) RunTurn(ctx context.Context, scope Scope, userContent string) (*TurnResult, error) {
	return o.run(ctx, scope, userContent, nil)
}

// StreamTurn is RunTurn with incremental emission of content deltas and
// tool-call notifications. The commit still happens exactly once, at the
// end, over the complete delta.
func (o *Orchestrator) StreamTurn(ctx context.Context, scope Scope, userContent string, emit func(StreamEvent)) (*TurnResult, error) {
	return o.run(ctx, scope, userContent, emit)
}

func (o *Orchestrator) run(ctx context.Context, scope Scope, userContent string, emit func(StreamEvent)) (*TurnResult, error) {
	if scope.ThreadID == uuid.Nil || scope.UserID == uuid.Nil {
		return nil, fmt.Errorf("orchestrator requires thread and user scope: %w", apperrors.ErrInvalidArgument)
	}
	if userContent == "" {
		return nil, fmt.Errorf("empty user message: %w", apperrors.ErrInvalidArgument)
	}

	// Loading.
	snap, err := o.store.Latest(ctx, scope.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("load latest checkpoint: %w", err)
	}
	var (
		baseSeq int64
		working []Message
	)
	if snap != nil {
		baseSeq = snap.Seq
		working = append(working, snap.Messages...)
	}
	meta := CheckpointMetadata{Version: 1, OwnerUserID: scope.UserID, SpaceID: scope.SpaceID}

	userMsg := Message{Role: RoleUser, Content: userContent}
	working = append(working, userMsg)
	delta := []Message{userMsg}

	log := o.log.With("thread_id", scope.ThreadID, "base_seq", baseSeq)

	// Reasoning <-> ToolDispatch loop.
	var final Message
	specs := o.registry.Specs()
	for round := 0; ; round++ {
		turn, err := o.complete(ctx, working, specs, emit)
		if err != nil {
			return nil, fmt.Errorf("model call: %w", err)
		}

		asst := Message{Role: RoleAssistant, Content: turn.Content, ToolCalls: turn.ToolCalls}
		working = append(working, asst)
		delta = append(delta, asst)

		if len(turn.ToolCalls) == 0 {
			final = asst
			break
		}
		if round >= o.maxRounds {
			// Best-effort commit so the partial history is not silently lost.
			o.commitBestEffort(ctx, scope.ThreadID, baseSeq, delta, meta)
			log.Warn("turn exceeded tool round-trip bound", "max_rounds", o.maxRounds)
			return nil, fmt.Errorf("turn aborted after %d tool round trips: %w", o.maxRounds, apperrors.ErrToolLoopExceeded)
		}

		for i := range turn.ToolCalls {
			call := turn.ToolCalls[i]
			if emit != nil {
				emit(StreamEvent{Type: "tool_call", ToolCall: &call})
			}
			result := o.dispatch(ctx, call, scope)
			toolMsg := Message{Role: RoleTool, ToolResult: &result}
			working = append(working, toolMsg)
			delta = append(delta, toolMsg)
			if emit != nil {
				emit(StreamEvent{Type: "tool_result", ToolResult: &result})
			}
		}
	}

	// Committing. A cancelled caller gets no checkpoint: tool side effects
	// that already landed externally stay, the conversation log does not
	// advance.
	if err := ctx.Err(); err != nil {
		log.Warn("turn cancelled before commit, abandoning", "error", err)
		return nil, err
	}
	newSeq, err := o.store.Append(ctx, scope.ThreadID, baseSeq, delta, meta)
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleCheckpoint) {
			return nil, fmt.Errorf("another turn committed first at base %d: %w", baseSeq, apperrors.ErrConcurrentTurnConflict)
		}
		return nil, fmt.Errorf("commit checkpoint: %w", err)
	}

	if emit != nil {
		emit(StreamEvent{Type: "done", Sequence: newSeq})
	}
	log.Debug("turn committed", "new_seq", newSeq, "delta_len", len(delta))
	return &TurnResult{Assistant: final, Sequence: newSeq}, nil
}

func (o *Orchestrator) complete(ctx context.Context, history []Message, specs []ToolSpec, emit func(StreamEvent)) (*AssistantTurn, error) {
	if emit == nil {
		return o.model.Complete(ctx, history, specs)
	}
	return o.model.StreamComplete(ctx, history, specs, func(delta string) {
		emit(StreamEvent{Type: "delta", Delta: delta})
	})
}

// dispatch invokes one tool with a per-invocation timeout. All failures are
// folded into the ToolResult so the model can decide how to proceed; only
// caller cancellation propagates.
func (o *Orchestrator) dispatch(ctx context.Context, call ToolCall, scope Scope) ToolResult {
	res := ToolResult{CallID: call.ID, Name: call.Name}

	tool, ok := o.registry.Lookup(call.Name)
	if !ok {
		res.Error = fmt.Sprintf("unknown tool %q", call.Name)
		return res
	}

	tctx, cancel := context.WithTimeout(ctx, o.toolTimeout)
	defer cancel()

	type invokeOut struct {
		out any
		err error
	}
	ch := make(chan invokeOut, 1)
	go func() {
		out, err := tool.Invoke(tctx, call.Arguments, scope)
		ch <- invokeOut{out: out, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
				res.Error = apperrors.ErrToolTimeout.Error()
			} else {
				res.Error = r.err.Error()
			}
			o.log.Warn("tool invocation failed", "tool", call.Name, "error", r.err)
			return res
		}
		res.Output = r.out
		return res
	case <-tctx.Done():
		// The tool goroutine is left to run to completion; its external side
		// effects stand either way.
		if ctx.Err() != nil {
			res.Error = ctx.Err().Error()
		} else {
			res.Error = apperrors.ErrToolTimeout.Error()
		}
		o.log.Warn("tool invocation timed out", "tool", call.Name, "timeout", o.toolTimeout)
		return res
	}
}

func (o *Orchestrator) commitBestEffort(ctx context.Context, threadID uuid.UUID, baseSeq int64, delta []Message, meta CheckpointMetadata) {
	if ctx.Err() != nil {
		return
	}
	if _, err := o.store.Append(ctx, threadID, baseSeq, delta, meta); err != nil {
		o.log.Warn("best-effort commit failed", "thread_id", threadID, "base_seq", baseSeq, "error", err)
	}
}

package agent

import "context"

// AssistantTurn is one model response: final content, tool-call requests,
// or both.
type AssistantTurn struct {
	Content   string
	ToolCalls []ToolCall
}

// ModelClient is the opaque language-model capability the orchestrator
// drives. Implementations live outside the agent core.
type ModelClient interface {
	Complete(ctx context.Context, history []Message, tools []ToolSpec) (*AssistantTurn, error)

	// StreamComplete behaves like Complete but emits assistant content
	// incrementally through onDelta before returning the full turn.
	StreamComplete(ctx context.Context, history []Message, tools []ToolSpec, onDelta func(delta string)) (*AssistantTurn, error)
}

package agent

import "github.com/google/uuid"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in a thread's history. Immutable once part of a
// checkpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`

	// ToolCalls is set on assistant messages that request tool invocations.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolResult is set on tool-role messages carrying one invocation's output.
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

type ToolResult struct {
	CallID string `json:"call_id,omitempty"`
	Name   string `json:"name"`
	Output any    `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Scope is the (thread, space, user) triple used to filter retrieval and
// attribute tool side effects. A zero Scope means an unscoped (global)
// search and is reserved for trusted internal callers.
type Scope struct {
	ThreadID uuid.UUID `json:"thread_id"`
	SpaceID  uuid.UUID `json:"space_id"`
	UserID   uuid.UUID `json:"user_id"`
}

func (s Scope) IsZero() bool {
	return s.ThreadID == uuid.Nil && s.SpaceID == uuid.Nil && s.UserID == uuid.Nil
}

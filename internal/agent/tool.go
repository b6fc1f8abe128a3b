package agent

import (
	"context"
	"strings"
)

// ToolSpec is the declared contract of a tool as shown to the model.
// Parameters is a JSON-schema object.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Tool is a named, schema-bound capability the model may invoke mid-turn.
// Invoke receives the caller's scope explicitly; tools hold no per-request
// state.
type Tool interface {
	Spec() ToolSpec
	Invoke(ctx context.Context, args map[string]any, scope Scope) (any, error)
}

// Registry is a static name -> tool mapping. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t == nil {
			continue
		}
		name := strings.TrimSpace(t.Spec().Name)
		if name == "" {
			continue
		}
		if _, dup := r.tools[name]; dup {
			continue
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r
}

func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[strings.TrimSpace(name)]
	return t, ok
}

// Specs returns tool specs in registration order, for the model call.
func (r *Registry) Specs() []ToolSpec {
	out := make([]ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Spec())
	}
	return out
}

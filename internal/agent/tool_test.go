package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func namedTool(name string) Tool {
	return funcTool{name: name, fn: func(context.Context, map[string]any, Scope) (any, error) {
		return nil, nil
	}}
}

func TestRegistrySpecsKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry(namedTool("alpha"), namedTool("beta"), namedTool("gamma"))
	specs := r.Specs()
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, names)
}

func TestRegistrySkipsDuplicatesAndNil(t *testing.T) {
	r := NewRegistry(namedTool("alpha"), nil, namedTool("alpha"), namedTool(""))
	assert.Len(t, r.Specs(), 1)

	tool, ok := r.Lookup("alpha")
	assert.True(t, ok)
	assert.Equal(t, "alpha", tool.Spec().Name)
}

func TestRegistryLookupUnknown(t *testing.T) {
	r := NewRegistry(namedTool("alpha"))
	_, ok := r.Lookup("missing")
	assert.False(t, ok)
}

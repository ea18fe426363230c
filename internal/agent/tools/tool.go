// Package tools implements the ADVANCED mode agent's callable tools: the
// model can invoke these mid-conversation instead of only answering from
// its own knowledge.
package tools

import (
	"context"
	"encoding/json"

	"github.com/Tencent/WeKnora/internal/types"
)

// Name identifies a registered tool.
type Name string

const (
	ToolDatabaseQuery Name = "database_query"
	ToolThinking      Name = "sequential_thinking"
)

// Tool is implemented by every agent-callable tool.
type Tool interface {
	Name() Name
	Description() string
	Schema() json.RawMessage
	Execute(ctx context.Context, args json.RawMessage) (*types.ToolResult, error)
}

// BaseTool carries a tool's static definition; concrete tools embed it and
// add state plus an Execute method.
type BaseTool struct {
	name        Name
	description string
	schema      json.RawMessage
}

func (t BaseTool) Name() Name                { return t.name }
func (t BaseTool) Description() string       { return t.description }
func (t BaseTool) Schema() json.RawMessage   { return t.schema }

// Registry holds the tools available to one agent run.
type Registry struct {
	tools map[Name]Tool
}

// NewRegistry builds a Registry containing tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[Name]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
	return r
}

// Get looks up a tool by name.
func (r *Registry) Get(name Name) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns every registered tool.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}

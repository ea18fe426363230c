// Package agent runs the ADVANCED mode tool-calling loop: the model may
// invoke a registered tool mid-conversation instead of answering directly,
// and the loop feeds the tool's result back until the model produces a
// final answer or a turn budget is exhausted.
package agent

import (
	"context"
	"encoding/json"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/agent/tools"
	"github.com/Tencent/WeKnora/internal/logger"
	"github.com/Tencent/WeKnora/internal/models/chat"
)

// maxTurns bounds the tool-call loop so a model that keeps calling tools
// cannot run forever.
const maxTurns = 6

// Runner drives one ADVANCED-mode conversation turn over a Dispatcher
// backend and a tool Registry.
type Runner struct {
	dispatcher *chat.Dispatcher
	modelName  chat.BackendName
	registry   *tools.Registry
}

// New builds a Runner.
func New(dispatcher *chat.Dispatcher, modelName chat.BackendName, registry *tools.Registry) *Runner {
	return &Runner{dispatcher: dispatcher, modelName: modelName, registry: registry}
}

func (r *Runner) toolDefs() []chat.Tool {
	all := r.registry.All()
	defs := make([]chat.Tool, 0, len(all))
	for _, t := range all {
		defs = append(defs, chat.Tool{
			Type: "function",
			Function: chat.FunctionDef{
				Name:        string(t.Name()),
				Description: t.Description(),
				Parameters:  t.Schema(),
			},
		})
	}
	return defs
}

// Run executes the tool-calling loop starting from messages and returns the
// model's final answer.
func (r *Runner) Run(ctx context.Context, messages []chat.Message) (string, error) {
	defs := r.toolDefs()
	opts := &chat.ChatOptions{Temperature: 0.3, Tools: defs}

	for turn := 0; turn < maxTurns; turn++ {
		resp, err := r.dispatcher.Chat(ctx, r.modelName, "ADVANCED", messages, opts)
		if err != nil {
			return "", err
		}
		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		messages = append(messages, chat.Message{Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			result := r.execute(ctx, call)
			messages = append(messages, chat.Message{
				Role:    "tool",
				Name:    call.Function.Name,
				Content: toolResultText(result),
			})
		}
	}
	return "", apperrors.NewPipelineError(apperrors.KindInvariant, nil, "agent exceeded %d tool-call turns", maxTurns)
}

func (r *Runner) execute(ctx context.Context, call chat.ToolCall) *toolOutcome {
	tool, ok := r.registry.Get(tools.Name(call.Function.Name))
	if !ok {
		return &toolOutcome{Success: false, Error: "unknown tool " + call.Function.Name}
	}
	res, err := tool.Execute(ctx, []byte(call.Function.Arguments))
	if err != nil {
		logger.Errorf(ctx, "agent tool %q failed: %v", call.Function.Name, err)
		return &toolOutcome{Success: false, Error: err.Error()}
	}
	return &toolOutcome{Success: res.Success, Output: res.Output, Error: res.Error}
}

// toolOutcome is the minimal shape fed back to the model as a tool
// message's content, independent of types.ToolResult's JSON tags so a
// failed Execute call (no types.ToolResult at all) can still report one.
type toolOutcome struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

func toolResultText(o *toolOutcome) string {
	data, err := json.Marshal(o)
	if err != nil {
		return o.Output
	}
	return string(data)
}

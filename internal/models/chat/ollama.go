package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Tencent/WeKnora/internal/logger"
	ollamaapi "github.com/ollama/ollama/api"
)

// OllamaBackend implements Backend against a locally-hosted Ollama server.
type OllamaBackend struct {
	modelName string
	modelID   string
	client    *ollamaapi.Client
}

// NewOllamaBackend creates a new Ollama chat backend.
func NewOllamaBackend(config *Config) (*OllamaBackend, error) {
	base := config.BaseURL
	if base == "" {
		base = "http://localhost:11434"
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse ollama base url: %w", err)
	}
	return &OllamaBackend{
		modelName: config.ModelName,
		modelID:   config.ModelID,
		client:    ollamaapi.NewClient(parsed, http.DefaultClient),
	}, nil
}

func (c *OllamaBackend) convertMessages(messages []Message) []ollamaapi.Message {
	out := make([]ollamaapi.Message, 0, len(messages))
	for _, msg := range messages {
		m := ollamaapi.Message{
			Role:      msg.Role,
			Content:   msg.Content,
			ToolCalls: c.toolCallFrom(msg.ToolCalls),
		}
		if msg.Role == "tool" {
			m.ToolName = msg.Name
		}
		out = append(out, m)
	}
	return out
}

func (c *OllamaBackend) buildChatRequest(messages []Message, opts *ChatOptions, isStream bool) *ollamaapi.ChatRequest {
	streamFlag := isStream
	req := &ollamaapi.ChatRequest{
		Model:    c.modelName,
		Messages: c.convertMessages(messages),
		Stream:   &streamFlag,
		Options:  make(map[string]interface{}),
	}
	if opts != nil {
		if opts.Temperature > 0 {
			req.Options["temperature"] = opts.Temperature
		}
		if opts.TopP > 0 {
			req.Options["top_p"] = opts.TopP
		}
		if opts.MaxTokens > 0 {
			req.Options["num_predict"] = opts.MaxTokens
		}
		if opts.Thinking != nil {
			req.Think = &ollamaapi.ThinkValue{Value: *opts.Thinking}
		}
		if len(opts.Format) > 0 {
			req.Format = opts.Format
		}
		if len(opts.Tools) > 0 {
			req.Tools = c.toolFrom(opts.Tools)
		}
	}
	return req
}

func (c *OllamaBackend) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	if err := c.ensureModelAvailable(ctx); err != nil {
		return nil, err
	}
	req := c.buildChatRequest(messages, opts, false)

	var content string
	var toolCalls []ToolCall
	var promptTokens, completionTokens int

	err := c.client.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
		content = resp.Message.Content
		toolCalls = c.toolCallTo(resp.Message.ToolCalls)
		if resp.EvalCount > 0 {
			promptTokens = resp.PromptEvalCount
			completionTokens = resp.EvalCount - promptTokens
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat request: %w", err)
	}

	return &Response{
		Content:   content,
		ToolCalls: toolCalls,
		Usage: Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}, nil
}

func (c *OllamaBackend) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamChunk, error) {
	if err := c.ensureModelAvailable(ctx); err != nil {
		return nil, err
	}
	req := c.buildChatRequest(messages, opts, true)

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		err := c.client.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
			if resp.Message.Content != "" {
				out <- StreamChunk{Type: ChunkTypeContent, Content: resp.Message.Content}
			}
			if len(resp.Message.ToolCalls) > 0 {
				out <- StreamChunk{Type: ChunkTypeToolCall, ToolCalls: c.toolCallTo(resp.Message.ToolCalls)}
			}
			if resp.Done {
				out <- StreamChunk{Type: ChunkTypeContent, Done: true}
			}
			return nil
		})
		if err != nil {
			logger.GetLogger(ctx).Errorf("ollama stream chat failed: %v", err)
			out <- StreamChunk{Type: ChunkTypeError, Err: err, Done: true}
		}
	}()
	return out, nil
}

func (c *OllamaBackend) ensureModelAvailable(ctx context.Context) error {
	list, err := c.client.List(ctx)
	if err != nil {
		return fmt.Errorf("list ollama models: %w", err)
	}
	for _, m := range list.Models {
		if m.Name == c.modelName || m.Model == c.modelName {
			return nil
		}
	}
	logger.GetLogger(ctx).Infof("pulling ollama model %s", c.modelName)
	return c.client.Pull(ctx, &ollamaapi.PullRequest{Model: c.modelName}, func(ollamaapi.ProgressResponse) error {
		return nil
	})
}

func (c *OllamaBackend) GetModelName() string { return c.modelName }
func (c *OllamaBackend) GetModelID() string    { return c.modelID }

// IsAvailable pings the local Ollama server's model list; any response
// (including an empty one) means the server is up.
func (c *OllamaBackend) IsAvailable(ctx context.Context) bool {
	_, err := c.client.List(ctx)
	return err == nil
}

func (c *OllamaBackend) toolFrom(tools []Tool) ollamaapi.Tools {
	if len(tools) == 0 {
		return nil
	}
	out := make(ollamaapi.Tools, 0, len(tools))
	for _, tool := range tools {
		fn := ollamaapi.ToolFunction{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
		}
		if len(tool.Function.Parameters) > 0 {
			_ = json.Unmarshal(tool.Function.Parameters, &fn.Parameters)
		}
		out = append(out, ollamaapi.Tool{Type: tool.Type, Function: fn})
	}
	return out
}

func (c *OllamaBackend) toolCallFrom(toolCalls []ToolCall) []ollamaapi.ToolCall {
	if len(toolCalls) == 0 {
		return nil
	}
	out := make([]ollamaapi.ToolCall, 0, len(toolCalls))
	for _, tc := range toolCalls {
		var args map[string]interface{}
		if tc.Function.Arguments != "" {
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		}
		out = append(out, ollamaapi.ToolCall{
			Function: ollamaapi.ToolCallFunction{
				Index:     idxFromID(tc.ID),
				Name:      tc.Function.Name,
				Arguments: args,
			},
		})
	}
	return out
}

func (c *OllamaBackend) toolCallTo(ollamaToolCalls []ollamaapi.ToolCall) []ToolCall {
	if len(ollamaToolCalls) == 0 {
		return nil
	}
	out := make([]ToolCall, 0, len(ollamaToolCalls))
	for _, tc := range ollamaToolCalls {
		argsBytes, _ := json.Marshal(tc.Function.Arguments)
		out = append(out, ToolCall{
			ID:   idToString(tc.Function.Index),
			Type: "function",
			Function: ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: string(argsBytes),
			},
		})
	}
	return out
}

func idToString(i int) string {
	return strconv.Itoa(i)
}

func idxFromID(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

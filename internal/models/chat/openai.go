package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Tencent/WeKnora/internal/logger"
	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend implements Backend against any OpenAI-compatible chat
// completions endpoint: OpenAI itself, DeepSeek, SiliconFlow, OpenRouter, a
// private gateway, or Zhipu's GLM endpoint.
type OpenAIBackend struct {
	client    *goopenai.Client
	modelName string
	modelID   string
}

// NewOpenAIBackend creates a new generic OpenAI-compatible chat backend.
func NewOpenAIBackend(config *Config) (*OpenAIBackend, error) {
	if config.ModelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	clientConfig := goopenai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	return &OpenAIBackend{
		client:    goopenai.NewClientWithConfig(clientConfig),
		modelName: config.ModelName,
		modelID:   config.ModelID,
	}, nil
}

func (c *OpenAIBackend) toOpenAIMessages(messages []Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, goopenai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			Name:       m.Name,
			ToolCalls:  c.toOpenAIToolCalls(m.ToolCalls),
			ToolCallID: toolCallIDIfTool(m),
		})
	}
	return out
}

func toolCallIDIfTool(m Message) string {
	if m.Role == "tool" && len(m.ToolCalls) == 1 {
		return m.ToolCalls[0].ID
	}
	return ""
}

func (c *OpenAIBackend) toOpenAIToolCalls(toolCalls []ToolCall) []goopenai.ToolCall {
	if len(toolCalls) == 0 {
		return nil
	}
	out := make([]goopenai.ToolCall, 0, len(toolCalls))
	for _, tc := range toolCalls {
		out = append(out, goopenai.ToolCall{
			ID:   tc.ID,
			Type: goopenai.ToolTypeFunction,
			Function: goopenai.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return out
}

func (c *OpenAIBackend) toOpenAITools(tools []Tool) []goopenai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]goopenai.Tool, 0, len(tools))
	for _, tool := range tools {
		var params map[string]interface{}
		if len(tool.Function.Parameters) > 0 {
			_ = json.Unmarshal(tool.Function.Parameters, &params)
		}
		out = append(out, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

func (c *OpenAIBackend) fromOpenAIToolCalls(toolCalls []goopenai.ToolCall) []ToolCall {
	if len(toolCalls) == 0 {
		return nil
	}
	out := make([]ToolCall, 0, len(toolCalls))
	for _, tc := range toolCalls {
		out = append(out, ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return out
}

func (c *OpenAIBackend) buildRequest(messages []Message, opts *ChatOptions, stream bool) goopenai.ChatCompletionRequest {
	req := goopenai.ChatCompletionRequest{
		Model:    c.modelName,
		Messages: c.toOpenAIMessages(messages),
		Stream:   stream,
	}
	if opts != nil {
		req.Temperature = opts.Temperature
		req.TopP = opts.TopP
		req.MaxTokens = opts.MaxTokens
		if len(opts.Tools) > 0 {
			req.Tools = c.toOpenAITools(opts.Tools)
		}
	}
	return req
}

func (c *OpenAIBackend) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(messages, opts, false))
	if err != nil {
		return nil, fmt.Errorf("openai chat request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat response has no choices")
	}
	choice := resp.Choices[0]
	return &Response{
		Content:   choice.Message.Content,
		ToolCalls: c.fromOpenAIToolCalls(choice.Message.ToolCalls),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (c *OpenAIBackend) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamChunk, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.buildRequest(messages, opts, true))
	if err != nil {
		return nil, fmt.Errorf("openai chat stream request: %w", err)
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if err != nil {
				if err.Error() == "EOF" {
					out <- StreamChunk{Type: ChunkTypeContent, Done: true}
					return
				}
				logger.GetLogger(ctx).Errorf("openai stream chat failed: %v", err)
				out <- StreamChunk{Type: ChunkTypeError, Err: err, Done: true}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta
			if delta.Content != "" {
				out <- StreamChunk{Type: ChunkTypeContent, Content: delta.Content}
			}
			if len(delta.ToolCalls) > 0 {
				out <- StreamChunk{Type: ChunkTypeToolCall, ToolCalls: c.fromOpenAIToolCalls(delta.ToolCalls)}
			}
			if resp.Choices[0].FinishReason != "" {
				out <- StreamChunk{Type: ChunkTypeContent, Done: true}
				return
			}
		}
	}()
	return out, nil
}

func (c *OpenAIBackend) GetModelName() string { return c.modelName }
func (c *OpenAIBackend) GetModelID() string    { return c.modelID }

// IsAvailable lists models against the configured endpoint; any response
// means the upstream is reachable and authenticating.
func (c *OpenAIBackend) IsAvailable(ctx context.Context) bool {
	_, err := c.client.ListModels(ctx)
	return err == nil
}

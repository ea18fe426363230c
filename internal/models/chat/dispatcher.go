package chat

import (
	"context"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
)

// BackendName names one of the three backends §4.12 requires the dispatcher
// to know about by name.
type BackendName string

const (
	BackendOllama     BackendName = "OLLAMA"
	BackendDeepSeek   BackendName = "DEEPSEEK"
	BackendLangChain4j BackendName = "LANGCHAIN4J"
)

// Policy maps a mode to the backend it dispatches to when the caller hasn't
// named one explicitly, implementing §4.13's mode table.
type Policy map[string]BackendName

// DefaultPolicy routes BASIC and ADVANCED_RAG/UNIFIED traffic to the local
// Ollama backend and ADVANCED traffic to the DeepSeek-backed agent lane.
var DefaultPolicy = Policy{
	"BASIC":        BackendOllama,
	"ADVANCED":     BackendDeepSeek,
	"ADVANCED_RAG": BackendOllama,
	"UNIFIED":      BackendOllama,
}

// Dispatcher is the Model Dispatcher (C12): a uniform chat/streamChat
// surface over named backends, chosen by explicit model name when given,
// else by mode policy.
type Dispatcher struct {
	backends map[BackendName]Backend
	policy   Policy
}

// NewDispatcher builds a Dispatcher over backends, keyed by name, using
// policy for mode-based fallback selection. A nil policy uses DefaultPolicy.
func NewDispatcher(backends map[BackendName]Backend, policy Policy) *Dispatcher {
	if policy == nil {
		policy = DefaultPolicy
	}
	return &Dispatcher{backends: backends, policy: policy}
}

// resolve picks the backend for modelName (if it names a known backend) or
// falls back to the mode policy.
func (d *Dispatcher) resolve(modelName BackendName, mode string) (Backend, error) {
	if modelName != "" {
		if b, ok := d.backends[modelName]; ok {
			return b, nil
		}
		return nil, apperrors.NewBadRequestError(apperrors.KindInvalidModelType, "unknown model backend %q", modelName)
	}
	name, ok := d.policy[mode]
	if !ok {
		return nil, apperrors.NewBadRequestError(apperrors.KindInvalidModelType, "no backend policy for mode %q", mode)
	}
	b, ok := d.backends[name]
	if !ok {
		return nil, apperrors.NewConfigError("backend %q required by policy is not configured", name)
	}
	return b, nil
}

// Chat runs a blocking chat turn. Upstream failures are wrapped as an
// UpstreamError, never returned raw, so callers can treat every failure
// mode the same way.
func (d *Dispatcher) Chat(ctx context.Context, modelName BackendName, mode string,
	messages []Message, opts *ChatOptions,
) (*Response, error) {
	backend, err := d.resolve(modelName, mode)
	if err != nil {
		return nil, err
	}
	resp, err := backend.Chat(ctx, messages, opts)
	if err != nil {
		return nil, apperrors.NewUpstreamError(apperrors.KindModelUnavailable, err, "chat backend %q failed", modelName)
	}
	return resp, nil
}

// StreamChat runs a streaming chat turn. There is no automatic fallback to
// a different backend mid-stream: a failure becomes a single terminal error
// chunk on the same channel the caller is already draining.
func (d *Dispatcher) StreamChat(ctx context.Context, modelName BackendName, mode string,
	messages []Message, opts *ChatOptions,
) (<-chan StreamChunk, error) {
	backend, err := d.resolve(modelName, mode)
	if err != nil {
		return nil, err
	}
	stream, err := backend.ChatStream(ctx, messages, opts)
	if err != nil {
		out := make(chan StreamChunk, 1)
		out <- StreamChunk{Type: ChunkTypeError, Err: apperrors.NewUpstreamError(
			apperrors.KindModelUnavailable, err, "chat backend %q failed", modelName), Done: true}
		close(out)
		return out, nil
	}
	return stream, nil
}

// IsAvailable reports whether the named backend is currently reachable.
func (d *Dispatcher) IsAvailable(ctx context.Context, modelName BackendName) bool {
	b, ok := d.backends[modelName]
	return ok && b.IsAvailable(ctx)
}

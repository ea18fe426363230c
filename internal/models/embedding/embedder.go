// Package embedding implements the Embedding Client (C3): mapping a string
// or batch of strings to dense vectors through one of several remote model
// backends, selected by provider the way the teacher's factory routes by
// provider name.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/Tencent/WeKnora/internal/models/provider"
	"github.com/Tencent/WeKnora/internal/types"
)

// Embedder is the Embedding Client's interface: embed(text) and
// embedBatch(texts) from §4.3.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
	GetModelName() string
	GetDimensions() int
	GetModelID() string
	EmbedderPooler
}

// EmbedderPooler bounds concurrent embedding calls to protect the upstream
// model, the shared semaphore §5 requires for embed/search (default 8
// concurrent).
type EmbedderPooler interface {
	BatchEmbedWithPool(ctx context.Context, model Embedder, texts []string) ([][]float32, error)
}

// ModelSource distinguishes a locally-hosted backend (Ollama) from a remote
// API backend (Aliyun, Jina, Volcengine, or a generic OpenAI-compatible
// endpoint).
type ModelSource string

const (
	ModelSourceLocal  ModelSource = "local"
	ModelSourceRemote ModelSource = "remote"
)

// Config configures an Embedder before it is constructed.
type Config struct {
	Source               ModelSource `json:"source"`
	BaseURL              string      `json:"base_url"`
	ModelName            string      `json:"model_name"`
	APIKey               string      `json:"api_key"`
	TruncatePromptTokens int         `json:"truncate_prompt_tokens"`
	Dimensions           int         `json:"dimensions"`
	ModelID              string      `json:"model_id"`
	Provider             string      `json:"provider"`
}

// NewEmbedder constructs the Embedder selected by config.Source and, for
// remote sources, by detected or configured provider — mirroring the
// teacher's provider-keyed embedder factory switch.
func NewEmbedder(config Config, pooler EmbedderPooler) (Embedder, error) {
	switch config.Source {
	case ModelSourceLocal:
		return NewOllamaEmbedder(config.BaseURL, config.ModelName, config.Dimensions, config.ModelID, pooler)
	case ModelSourceRemote:
		providerName := provider.ProviderName(config.Provider)
		if providerName == "" {
			providerName = provider.DetectProvider(config.BaseURL)
		}
		switch providerName {
		case provider.ProviderAliyun:
			return NewAliyunEmbedder(config.APIKey, config.BaseURL, config.ModelName,
				config.TruncatePromptTokens, config.Dimensions, config.ModelID, pooler)
		case provider.ProviderVolcengine:
			return NewVolcengineEmbedder(config.APIKey, config.BaseURL, config.ModelName,
				config.TruncatePromptTokens, config.Dimensions, config.ModelID, pooler)
		case provider.ProviderJina:
			return NewJinaEmbedder(config.APIKey, config.BaseURL, config.ModelName,
				config.TruncatePromptTokens, config.Dimensions, config.ModelID, pooler)
		default:
			return NewOpenAIEmbedder(config.APIKey, config.BaseURL, config.ModelName, config.Dimensions, config.ModelID, pooler)
		}
	default:
		return nil, fmt.Errorf("unsupported embedder source: %s", config.Source)
	}
}

// semaphorePool is the default EmbedderPooler: a buffered-channel semaphore
// matching §5's "shared semaphore (default 8 concurrent)". The
// contract-review pipeline's chunk-analysis fan-out uses a real ants pool
// (internal/review.Engine) since that stage needs bounded *goroutine*
// concurrency rather than a call admission gate.
type semaphorePool struct {
	sem chan struct{}
}

// NewSemaphorePool returns an EmbedderPooler that admits at most size
// concurrent BatchEmbed calls across all embedders sharing it.
func NewSemaphorePool(size int) EmbedderPooler {
	if size <= 0 {
		size = 8
	}
	return &semaphorePool{sem: make(chan struct{}, size)}
}

func (p *semaphorePool) BatchEmbedWithPool(ctx context.Context, model Embedder, texts []string) ([][]float32, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.sem }()
	return model.BatchEmbed(ctx, texts)
}

func trimBaseURL(url string) string {
	return strings.TrimRight(url, "/")
}

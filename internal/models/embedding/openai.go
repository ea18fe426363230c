package embedding

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder implements text vectorization against any OpenAI-compatible
// embeddings endpoint, used as the default remote backend for providers with
// no dedicated implementation (SiliconFlow, OpenRouter, a private gateway).
type OpenAIEmbedder struct {
	client     *goopenai.Client
	modelName  string
	dimensions int
	modelID    string
	EmbedderPooler
}

// NewOpenAIEmbedder creates a new generic OpenAI-compatible embedder.
func NewOpenAIEmbedder(apiKey, baseURL, modelName string, dimensions int, modelID string, pooler EmbedderPooler) (*OpenAIEmbedder, error) {
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	clientConfig := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = trimBaseURL(baseURL)
	}
	return &OpenAIEmbedder{
		client:         goopenai.NewClientWithConfig(clientConfig),
		modelName:      modelName,
		dimensions:     dimensions,
		modelID:        modelID,
		EmbedderPooler: pooler,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vecs[0], nil
}

func (e *OpenAIEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequestStrings{
		Input: texts,
		Model: goopenai.EmbeddingModel(e.modelName),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed request: %w", err)
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func (e *OpenAIEmbedder) GetModelName() string { return e.modelName }
func (e *OpenAIEmbedder) GetDimensions() int    { return e.dimensions }
func (e *OpenAIEmbedder) GetModelID() string    { return e.modelID }

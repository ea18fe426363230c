package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Tencent/WeKnora/internal/logger"
)

// OllamaEmbedder implements text vectorization against a locally-hosted
// Ollama server's /api/embed endpoint.
type OllamaEmbedder struct {
	baseURL    string
	modelName  string
	dimensions int
	modelID    string
	httpClient *http.Client
	EmbedderPooler
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaEmbedder creates a new Ollama embedder.
func NewOllamaEmbedder(baseURL, modelName string, dimensions int, modelID string, pooler EmbedderPooler) (*OllamaEmbedder, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	return &OllamaEmbedder{
		baseURL:        trimBaseURL(baseURL),
		modelName:      modelName,
		dimensions:     dimensions,
		modelID:        modelID,
		httpClient:     &http.Client{Timeout: 60 * time.Second},
		EmbedderPooler: pooler,
	}, nil
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vecs[0], nil
}

func (e *OllamaEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody, err := json.Marshal(ollamaEmbedRequest{Model: e.modelName, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.GetLogger(ctx).Errorf("OllamaEmbedder API error: status %s body %s", resp.Status, string(body))
		return nil, fmt.Errorf("ollama embed error: status %s", resp.Status)
	}

	var parsed ollamaEmbedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return parsed.Embeddings, nil
}

func (e *OllamaEmbedder) GetModelName() string { return e.modelName }
func (e *OllamaEmbedder) GetDimensions() int    { return e.dimensions }
func (e *OllamaEmbedder) GetModelID() string    { return e.modelID }

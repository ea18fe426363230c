package chat

import "fmt"

// NewBackend constructs the Backend selected by config.Source: a local
// Ollama server, or any remote OpenAI-compatible endpoint (OpenAI,
// DeepSeek, SiliconFlow, OpenRouter, Zhipu, a private gateway) — mirroring
// the embedding client's Source-keyed factory.
func NewBackend(config *Config) (Backend, error) {
	if config.ModelName == "" {
		return nil, fmt.Errorf("model name is required")
	}

	switch config.Source {
	case SourceLocal:
		return NewOllamaBackend(config)
	default:
		return NewOpenAIBackend(config)
	}
}

package chat

import "fmt"

const deepSeekDefaultBaseURL = "https://api.deepseek.com/v1"

// NewDeepSeekBackend builds the dispatcher's remote DEEPSEEK backend. It is
// an OpenAI-compatible chat completions endpoint, so it reuses
// OpenAIBackend's request shape, defaulting the base URL to DeepSeek's own
// API when the caller didn't set one.
func NewDeepSeekBackend(config *Config) (Backend, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("deepseek backend requires an api key")
	}
	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = deepSeekDefaultBaseURL
	}
	return NewOpenAIBackend(&cfg)
}

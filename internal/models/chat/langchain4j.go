package chat

const langChain4jDefaultBaseURL = "http://localhost:8088/v1"

// NewLangChain4jBackend builds the dispatcher's LANGCHAIN4J backend: a
// second local chat backend, fronted by a LangChain4j gateway process
// rather than Ollama's native API, exposed as an OpenAI-compatible chat
// completions endpoint. Kept distinct from OLLAMA so a deployment can run
// both local backends side by side and let the dispatcher's policy or an
// explicit model name choose between them.
func NewLangChain4jBackend(config *Config) (Backend, error) {
	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = langChain4jDefaultBaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = "local"
	}
	return NewOpenAIBackend(&cfg)
}

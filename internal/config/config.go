// Package config loads and exposes the backend's runtime configuration,
// layering a YAML file with environment variable overrides via viper — the
// same precedence order the teacher repo's env-driven knobs (internal/utils
// file-size limit) assume, generalized to every tunable the RAG core and
// contract-review engine read.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// RAG holds chunking and aggregation knobs from §6's "Config options
// recognized" table.
type RAG struct {
	ChunkSize             int     `mapstructure:"chunkSize"`
	ChunkOverlap          int     `mapstructure:"chunkOverlap"`
	AggregatorMaxResults  int     `mapstructure:"aggregatorMaxResults"`
	SimilarityThreshold   float64 `mapstructure:"aggregatorSimilarityThreshold"`
	RRFK                  int     `mapstructure:"aggregatorRrfK"`
	EmbeddingMaxTokens    int     `mapstructure:"embeddingMaxTokens"`
}

// Memory holds the chat-memory window size (C11).
type Memory struct {
	WindowSize int `mapstructure:"windowSize"`
}

// JWT holds the auth boundary's bearer-token verification secret (§1.1 —
// issuance stays out of scope, only verification middleware lives here).
type JWT struct {
	Secret string `mapstructure:"secret"`
}

// Review holds the Contract-Review Engine's (C15) pipeline knobs.
type Review struct {
	RetrievalTopK      int `mapstructure:"retrievalTopK"`
	AnalyzeConcurrency int `mapstructure:"analyzeConcurrency"`
}

// Storage selects and configures the BlobStore backend that holds uploaded
// contract files (§1.1's "File storage" out-of-scope collaborator).
type Storage struct {
	Backend string      `mapstructure:"backend"` // "local" or "minio"
	LocalDir string     `mapstructure:"localDir"`
	Minio   MinioConfig `mapstructure:"minio"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"accessKey"`
	SecretKey string `mapstructure:"secretKey"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"useSSL"`
}

// Stream holds SSE backpressure knobs (§5).
type Stream struct {
	QueueCapacity int `mapstructure:"queueCapacity"`
}

// ChatBackend configures one of C12's three concrete backends.
type ChatBackend struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"baseUrl"`
	APIKey    string `mapstructure:"apiKey"`
	ModelName string `mapstructure:"modelName"`
	ModelID   string `mapstructure:"modelId"`
}

// Models holds every model-backend collaborator the core dispatches to:
// C12's three chat backends, C3's embedding client, and C15's analysis
// model selection.
type Models struct {
	Ollama          ChatBackend `mapstructure:"ollama"`
	DeepSeek        ChatBackend `mapstructure:"deepseek"`
	LangChain4j     ChatBackend `mapstructure:"langchain4j"`
	BasicBackend    string      `mapstructure:"basicBackend"`
	AdvancedBackend string      `mapstructure:"advancedBackend"`
	RAGBackend      string      `mapstructure:"ragBackend"`
	ReviewBackend   string      `mapstructure:"reviewBackend"`

	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Rerank    RerankConfig    `mapstructure:"rerank"`
}

// RerankConfig configures the Content Aggregator's optional cross-encoder
// reranking pass (C9's fifth, non-spec-mandated step).
type RerankConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Provider  string `mapstructure:"provider"`
	BaseURL   string `mapstructure:"baseUrl"`
	APIKey    string `mapstructure:"apiKey"`
	ModelName string `mapstructure:"modelName"`
	ModelID   string `mapstructure:"modelId"`
}

// EmbeddingConfig configures the Embedding Client (C3).
type EmbeddingConfig struct {
	Source     string `mapstructure:"source"` // "local" or "remote"
	Provider   string `mapstructure:"provider"`
	BaseURL    string `mapstructure:"baseUrl"`
	APIKey     string `mapstructure:"apiKey"`
	ModelName  string `mapstructure:"modelName"`
	ModelID    string `mapstructure:"modelId"`
	Dimensions int    `mapstructure:"dimensions"`
}

// Timeouts holds per-operation deadlines (§5, §7).
type Timeouts struct {
	Embed      time.Duration `mapstructure:"embed"`
	Search     time.Duration `mapstructure:"search"`
	Chat       time.Duration `mapstructure:"chat"`
	Stream     time.Duration `mapstructure:"stream"`
	Persist    time.Duration `mapstructure:"persist"`
}

// Config is the fully-resolved runtime configuration.
type Config struct {
	RAG      RAG      `mapstructure:"rag"`
	JWT      JWT      `mapstructure:"jwt"`
	Memory   Memory   `mapstructure:"memory"`
	Review   Review   `mapstructure:"review"`
	Stream   Stream   `mapstructure:"stream"`
	Timeouts Timeouts `mapstructure:"timeouts"`

	MaxFileSizeMB int `mapstructure:"maxFileSizeMB"`

	RequestWorkers int `mapstructure:"requestWorkers"`
	ReviewWorkers  int `mapstructure:"reviewWorkers"`
	SemaphoreSize  int `mapstructure:"semaphoreSize"`

	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Vector   VectorConfig   `mapstructure:"vector"`
	Storage  Storage        `mapstructure:"storage"`
	Models   Models         `mapstructure:"models"`

	ServerAddr string `mapstructure:"serverAddr"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

// VectorConfig selects and configures the Vector Store backend (C4). Backend
// is either "qdrant" or "pgvector" — see SPEC_FULL §4 C4 for the similarity
// metric each implies.
type VectorConfig struct {
	Backend string `mapstructure:"backend"`
	Addr    string `mapstructure:"addr"`
	Dim     int    `mapstructure:"dim"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("rag.chunkSize", 1000)
	v.SetDefault("rag.chunkOverlap", 100)
	v.SetDefault("rag.aggregatorMaxResults", 10)
	v.SetDefault("rag.aggregatorSimilarityThreshold", 0.85)
	v.SetDefault("rag.aggregatorRrfK", 60)
	v.SetDefault("rag.embeddingMaxTokens", 500)
	v.SetDefault("memory.windowSize", 10)
	v.SetDefault("review.retrievalTopK", 5)
	v.SetDefault("review.analyzeConcurrency", 4)
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.localDir", "./data/contracts")
	v.SetDefault("storage.minio.bucket", "contracts")
	v.SetDefault("stream.queueCapacity", 64)
	v.SetDefault("timeouts.embed", "30s")
	v.SetDefault("timeouts.search", "5s")
	v.SetDefault("timeouts.chat", "120s")
	v.SetDefault("timeouts.stream", "20m")
	v.SetDefault("timeouts.persist", "5s")
	v.SetDefault("maxFileSizeMB", 50)
	v.SetDefault("requestWorkers", 0) // not read by cmd/server; HTTP requests are not run through a bounded pool
	v.SetDefault("reviewWorkers", 4)
	v.SetDefault("semaphoreSize", 8)
	v.SetDefault("vector.backend", "qdrant")
	v.SetDefault("vector.addr", "localhost:6334")
	v.SetDefault("vector.dim", 1024)
	v.SetDefault("serverAddr", ":8080")
	v.SetDefault("models.ollama.enabled", true)
	v.SetDefault("models.ollama.baseUrl", "http://localhost:11434")
	v.SetDefault("models.ollama.modelName", "qwen2.5:7b")
	v.SetDefault("models.deepseek.baseUrl", "https://api.deepseek.com/v1")
	v.SetDefault("models.deepseek.modelName", "deepseek-chat")
	v.SetDefault("models.langchain4j.modelName", "gpt-4o-mini")
	v.SetDefault("models.basicBackend", "OLLAMA")
	v.SetDefault("models.advancedBackend", "DEEPSEEK")
	v.SetDefault("models.ragBackend", "DEEPSEEK")
	v.SetDefault("models.reviewBackend", "DEEPSEEK")
	v.SetDefault("models.embedding.source", "local")
	v.SetDefault("models.embedding.baseUrl", "http://localhost:11434")
	v.SetDefault("models.embedding.modelName", "bge-m3")
	v.SetDefault("models.embedding.dimensions", 1024)
	v.SetDefault("models.rerank.enabled", false)
	v.SetDefault("models.rerank.provider", "jina")
}

// Load reads configuration from the named file (if present) layered under
// environment variables prefixed LEGALASSIST_, e.g. LEGALASSIST_RAG_CHUNKSIZE.
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("LEGALASSIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

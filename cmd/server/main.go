// Command server is the composition root: it builds every collaborator the
// RAG core, the contract-review engine, and the unified chat dispatcher
// need and serves the HTTP/SSE surface over Gin. Construction is plain Go
// rather than routed through internal/runtime's dig container: that
// container wraps a single narrow lookup (the embedding provider registry),
// and forcing this graph's ~20 concrete collaborators through reflection-based
// DI would obscure the wiring rather than clarify it. See DESIGN.md.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Tencent/WeKnora/internal/agent"
	"github.com/Tencent/WeKnora/internal/agent/tools"
	"github.com/Tencent/WeKnora/internal/application/repository"
	"github.com/Tencent/WeKnora/internal/application/repository/retriever/pgvector"
	qdrantstore "github.com/Tencent/WeKnora/internal/application/repository/retriever/qdrant"
	"github.com/Tencent/WeKnora/internal/application/service/chatmemory"
	"github.com/Tencent/WeKnora/internal/chatdispatch"
	"github.com/Tencent/WeKnora/internal/config"
	"github.com/Tencent/WeKnora/internal/dbmigrate"
	"github.com/Tencent/WeKnora/internal/docparser"
	"github.com/Tencent/WeKnora/internal/handler"
	"github.com/Tencent/WeKnora/internal/knowledge"
	"github.com/Tencent/WeKnora/internal/logger"
	"github.com/Tencent/WeKnora/internal/models/chat"
	"github.com/Tencent/WeKnora/internal/models/embedding"
	"github.com/Tencent/WeKnora/internal/models/rerank"
	"github.com/Tencent/WeKnora/internal/ragcore/aggregator"
	"github.com/Tencent/WeKnora/internal/ragcore/injector"
	"github.com/Tencent/WeKnora/internal/ragcore/retriever"
	"github.com/Tencent/WeKnora/internal/ragcore/router"
	"github.com/Tencent/WeKnora/internal/ragcore/service"
	"github.com/Tencent/WeKnora/internal/review"
	"github.com/Tencent/WeKnora/internal/textproc"
	"github.com/Tencent/WeKnora/internal/tracing"
	"github.com/Tencent/WeKnora/internal/types"
	"github.com/Tencent/WeKnora/internal/types/interfaces"
)

func main() {
	ctx := context.Background()

	cfgPath := os.Getenv("LEGALASSIST_CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Errorf(ctx, "load config: %v", err)
		os.Exit(1)
	}

	shutdownTracing, err := tracing.Init(ctx, "legalassist")
	if err != nil {
		logger.Errorf(ctx, "init tracing: %v", err)
		os.Exit(1)
	}
	defer shutdownTracing(ctx)

	migrationsDir := os.Getenv("LEGALASSIST_MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}
	if err := dbmigrate.Up(migrationsDir, cfg.Postgres.DSN); err != nil {
		logger.Errorf(ctx, "migrate schema: %v", err)
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{})
	if err != nil {
		logger.Errorf(ctx, "connect postgres: %v", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	vectorStore, err := buildVectorStore(ctx, cfg, db)
	if err != nil {
		logger.Errorf(ctx, "build vector store: %v", err)
		os.Exit(1)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		logger.Errorf(ctx, "build embedding client: %v", err)
		os.Exit(1)
	}

	dispatcher, err := buildChatDispatcher(cfg)
	if err != nil {
		logger.Errorf(ctx, "build chat dispatcher: %v", err)
		os.Exit(1)
	}

	parser := docparser.New(int64(cfg.MaxFileSizeMB) * 1024 * 1024)
	chunker, err := textproc.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap, cfg.RAG.EmbeddingMaxTokens)
	if err != nil {
		logger.Errorf(ctx, "build text processor: %v", err)
		os.Exit(1)
	}

	legalCorpus := retriever.New("legal_corpus", embedder, vectorStore,
		map[string]any{"sourceType": string(types.IndexSourceDocument)})
	retrievers := map[string]retriever.Retriever{legalCorpus.Name(): legalCorpus}
	ragRouter := router.New(legalCorpus.Name())

	var reranker rerank.Reranker
	if cfg.Models.Rerank.Enabled {
		reranker, err = rerank.NewReranker(&rerank.RerankerConfig{
			Provider:  cfg.Models.Rerank.Provider,
			APIKey:    cfg.Models.Rerank.APIKey,
			BaseURL:   cfg.Models.Rerank.BaseURL,
			ModelName: cfg.Models.Rerank.ModelName,
			ModelID:   cfg.Models.Rerank.ModelID,
		})
		if err != nil {
			logger.Errorf(ctx, "build reranker: %v", err)
			os.Exit(1)
		}
	}
	agg := aggregator.New(aggregator.Config{
		SimilarityThreshold: cfg.RAG.SimilarityThreshold,
		RRFConstant:         cfg.RAG.RRFK,
		MaxResults:          cfg.RAG.AggregatorMaxResults,
		Reranker:            reranker,
	})
	inj := injector.New()

	ragService := service.New(ragRouter, retrievers, agg, inj, dispatcher, chat.BackendName(cfg.Models.RAGBackend))

	memory := chatmemory.New(redisClient, cfg.Memory.WindowSize)
	sessionRepo := repository.NewChatSessionRepository(db)
	messageRepo := repository.NewChatMessageRepository(db)

	toolRegistry := tools.NewRegistry(
		tools.NewDatabaseQueryTool(db),
		tools.NewSequentialThinkingTool(),
	)
	agentRunner := agent.New(dispatcher, chat.BackendName(cfg.Models.AdvancedBackend), toolRegistry)

	chatDisp := chatdispatch.New(chatdispatch.Config{
		SessionRepo:    sessionRepo,
		MessageRepo:    messageRepo,
		Memory:         memory,
		RAGService:     ragService,
		BasicRetriever: legalCorpus,
		Injector:       inj,
		ModelDispatch:  dispatcher,
		BasicModel:     chat.BackendName(cfg.Models.BasicBackend),
		AgentRunner:    agentRunner,
		AdvancedModel:  chat.BackendName(cfg.Models.AdvancedBackend),
	})
	chatHandler := chatdispatch.NewHandler(chatDisp)

	blobStore, err := review.NewBlobStore(cfg.Storage)
	if err != nil {
		logger.Errorf(ctx, "build blob store: %v", err)
		os.Exit(1)
	}

	asynqRedis := asynq.RedisClientOpt{Addr: cfg.Redis.Addr}
	asynqClient := asynq.NewClient(asynqRedis)
	defer asynqClient.Close()

	reviewEngine := review.New(review.Config{
		Repo:               repository.NewContractReviewRepository(db),
		Parser:             parser,
		Chunker:            chunker,
		Embedder:           embedder,
		VectorStore:        vectorStore,
		RAGService:         ragService,
		Dispatcher:         dispatcher,
		ModelName:          chat.BackendName(cfg.Models.ReviewBackend),
		BlobStore:          blobStore,
		AsynqClient:        asynqClient,
		RetrievalTopK:      cfg.Review.RetrievalTopK,
		AnalyzeConcurrency: cfg.Review.AnalyzeConcurrency,
	})
	defer reviewEngine.Close()
	reportRenderer := review.NewStubReportRenderer()
	contractHandler := handler.NewContractHandler(reviewEngine, reportRenderer, cfg.Timeouts.Stream)

	knowledgeSvc := knowledge.New(knowledge.Config{
		Repo:        repository.NewKnowledgeDocumentRepository(db),
		Parser:      parser,
		Chunker:     chunker,
		Embedder:    embedder,
		VectorStore: vectorStore,
	})
	knowledgeHandler := handler.NewKnowledgeHandler(knowledgeSvc)

	server := asynq.NewServer(asynqRedis, asynq.Config{Concurrency: cfg.ReviewWorkers})
	mux := asynq.NewServeMux()
	mux.Handle(review.TaskTypeAnalyze, taskHandlerFunc(review.NewTaskHandler(reviewEngine)))
	go func() {
		if err := server.Run(mux); err != nil {
			logger.Errorf(ctx, "asynq server stopped: %v", err)
		}
	}()
	defer server.Shutdown()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api/v1")
	api.Use(handler.Auth(cfg.JWT.Secret))
	api.Use(handler.ErrorRenderer())
	chatHandler.RegisterRoutes(api)
	contractHandler.RegisterRoutes(api)
	knowledgeHandler.RegisterRoutes(api)

	httpServer := &http.Server{Addr: cfg.ServerAddr, Handler: r}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf(ctx, "http server stopped: %v", err)
		}
	}()

	waitForShutdown(ctx, httpServer)
}

// taskHandlerFunc adapts an interfaces.TaskHandler to asynq.HandlerFunc.
func taskHandlerFunc(h interfaces.TaskHandler) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return h.Handle(ctx, t)
	}
}

func buildVectorStore(ctx context.Context, cfg *config.Config, db *gorm.DB) (interfaces.VectorStore, error) {
	switch cfg.Vector.Backend {
	case "pgvector":
		return pgvector.New(db)
	default:
		host, port, err := splitHostPort(cfg.Vector.Addr)
		if err != nil {
			return nil, err
		}
		client, err := qdrantclient.NewClient(&qdrantclient.Config{Host: host, Port: port})
		if err != nil {
			return nil, err
		}
		return qdrantstore.New(ctx, client, "legal_corpus", cfg.Vector.Dim)
	}
}

func buildEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	pool := embedding.NewSemaphorePool(cfg.SemaphoreSize)
	return embedding.NewEmbedder(embedding.Config{
		Source:     embedding.ModelSource(cfg.Models.Embedding.Source),
		Provider:   cfg.Models.Embedding.Provider,
		BaseURL:    cfg.Models.Embedding.BaseURL,
		APIKey:     cfg.Models.Embedding.APIKey,
		ModelName:  cfg.Models.Embedding.ModelName,
		ModelID:    cfg.Models.Embedding.ModelID,
		Dimensions: cfg.Models.Embedding.Dimensions,
	}, pool)
}

func buildChatDispatcher(cfg *config.Config) (*chat.Dispatcher, error) {
	backends := make(map[chat.BackendName]chat.Backend)

	if cfg.Models.Ollama.Enabled {
		b, err := chat.NewBackend(&chat.Config{
			Source:    chat.SourceLocal,
			BaseURL:   cfg.Models.Ollama.BaseURL,
			ModelName: cfg.Models.Ollama.ModelName,
			ModelID:   cfg.Models.Ollama.ModelID,
		})
		if err != nil {
			return nil, fmt.Errorf("build ollama backend: %w", err)
		}
		backends[chat.BackendOllama] = b
	}
	if cfg.Models.DeepSeek.APIKey != "" {
		b, err := chat.NewBackend(&chat.Config{
			BaseURL:   cfg.Models.DeepSeek.BaseURL,
			APIKey:    cfg.Models.DeepSeek.APIKey,
			ModelName: cfg.Models.DeepSeek.ModelName,
			ModelID:   cfg.Models.DeepSeek.ModelID,
		})
		if err != nil {
			return nil, fmt.Errorf("build deepseek backend: %w", err)
		}
		backends[chat.BackendDeepSeek] = b
	}
	if cfg.Models.LangChain4j.BaseURL != "" {
		b, err := chat.NewBackend(&chat.Config{
			BaseURL:   cfg.Models.LangChain4j.BaseURL,
			APIKey:    cfg.Models.LangChain4j.APIKey,
			ModelName: cfg.Models.LangChain4j.ModelName,
			ModelID:   cfg.Models.LangChain4j.ModelID,
		})
		if err != nil {
			return nil, fmt.Errorf("build langchain4j backend: %w", err)
		}
		backends[chat.BackendLangChain4j] = b
	}

	policy := chat.Policy{
		"BASIC":        chat.BackendName(cfg.Models.BasicBackend),
		"ADVANCED":     chat.BackendName(cfg.Models.AdvancedBackend),
		"ADVANCED_RAG": chat.BackendName(cfg.Models.RAGBackend),
		"UNIFIED":      chat.BackendName(cfg.Models.RAGBackend),
	}
	return chat.NewDispatcher(backends, policy), nil
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("parse vector store address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("parse vector store port in %q: %w", addr, err)
	}
	return host, port, nil
}

func waitForShutdown(ctx context.Context, httpServer *http.Server) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "http server shutdown: %v", err)
	}
}

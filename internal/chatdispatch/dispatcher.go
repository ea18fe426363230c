package chatdispatch

import (
	"context"
	"strings"
	"time"

	"github.com/Tencent/WeKnora/internal/agent"
	"github.com/Tencent/WeKnora/internal/common"
	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/logger"
	"github.com/Tencent/WeKnora/internal/models/chat"
	"github.com/Tencent/WeKnora/internal/ragcore/injector"
	"github.com/Tencent/WeKnora/internal/ragcore/retriever"
	"github.com/Tencent/WeKnora/internal/ragcore/service"
	"github.com/Tencent/WeKnora/internal/types"
	"github.com/Tencent/WeKnora/internal/types/interfaces"
)

// ChatRequest is POST /chat and /chat/stream's shared body shape (§6).
type ChatRequest struct {
	Message          string          `json:"message"`
	ModelType        types.ModelType `json:"modelType"`
	ModelName        string          `json:"modelName,omitempty"`
	ConversationID   string          `json:"conversationId,omitempty"`
	UseKnowledgeBase bool            `json:"useKnowledgeBase"`
}

// Dispatcher is the Unified Chat Dispatcher (C14): mode routing plus the
// session/message/memory side effects every mode shares.
type Dispatcher struct {
	sessionRepo interfaces.ChatSessionRepository
	messageRepo interfaces.ChatMessageRepository
	memory      interfaces.ChatMemoryService

	ragService *service.Service

	basicRetriever retriever.Retriever
	injector       *injector.Injector
	modelDispatch  *chat.Dispatcher
	basicModel     chat.BackendName

	agentRunner   *agent.Runner
	advancedModel chat.BackendName
}

// Config collects Dispatcher's constructor arguments.
type Config struct {
	SessionRepo    interfaces.ChatSessionRepository
	MessageRepo    interfaces.ChatMessageRepository
	Memory         interfaces.ChatMemoryService
	RAGService     *service.Service
	BasicRetriever retriever.Retriever
	Injector       *injector.Injector
	ModelDispatch  *chat.Dispatcher
	BasicModel     chat.BackendName
	AgentRunner    *agent.Runner
	AdvancedModel  chat.BackendName
}

// New builds a Dispatcher.
func New(cfg Config) *Dispatcher {
	return &Dispatcher{
		sessionRepo:    cfg.SessionRepo,
		messageRepo:    cfg.MessageRepo,
		memory:         cfg.Memory,
		ragService:     cfg.RAGService,
		basicRetriever: cfg.BasicRetriever,
		injector:       cfg.Injector,
		modelDispatch:  cfg.ModelDispatch,
		basicModel:     cfg.BasicModel,
		agentRunner:    cfg.AgentRunner,
		advancedModel:  cfg.AdvancedModel,
	}
}

// resolveMode implements §4.13's UNIFIED routing: a request that already
// names a concrete mode passes through unchanged.
func (d *Dispatcher) resolveMode(req ChatRequest) types.ModelType {
	if req.ModelType != types.ModelTypeUnified {
		return req.ModelType
	}
	return ClassifyMode(req.Message)
}

// Chat runs the synchronous (non-streaming) path: resolve mode, run it,
// persist session/message side effects, return the unified result shape.
func (d *Dispatcher) Chat(ctx context.Context, userID uint64, req ChatRequest) (*types.ChatResult, error) {
	start := time.Now()
	if strings.TrimSpace(req.Message) == "" {
		return &types.ChatResult{SessionID: req.ConversationID, Status: types.ChatStatusEmptyQuestion}, nil
	}

	mode := d.resolveMode(req)
	common.PipelineInfo(ctx, "chat-dispatch", "route", map[string]interface{}{
		"modelType": mode, "useKnowledgeBase": req.UseKnowledgeBase,
	})
	if req.ConversationID != "" {
		if err := ensureSession(ctx, d.sessionRepo, userID, req.ConversationID, req.Message, mode); err != nil {
			return nil, err
		}
		if err := persistMessage(ctx, d.messageRepo, req.ConversationID, types.ChatRoleUser, req.Message, nil); err != nil {
			return nil, err
		}
	}

	var (
		result *types.ChatResult
		actual chat.BackendName
		err    error
	)
	switch mode {
	case types.ModelTypeBasic:
		result, actual, err = d.chatBasic(ctx, req)
	case types.ModelTypeAdvanced:
		result, actual, err = d.chatAdvanced(ctx, req)
	case types.ModelTypeAdvancedRAG:
		result, actual, err = d.chatAdvancedRAG(ctx, req)
	default:
		return nil, apperrors.NewBadRequestError(apperrors.KindInvalidModelType, "unknown chat mode %q", mode)
	}
	if err != nil {
		common.PipelineError(ctx, "chat-dispatch", "backend-failed", map[string]interface{}{
			"modelType": mode, "error": err.Error(),
		})
		return nil, err
	}
	result.DurationMs = time.Since(start).Milliseconds()

	if req.ConversationID != "" {
		meta := map[string]any{
			"modelType":       mode,
			"requestedModel":  req.ModelName,
			"actualModelUsed": actual,
			"streaming":       false,
		}
		if err := persistMessage(ctx, d.messageRepo, req.ConversationID, types.ChatRoleAssistant, result.Answer, meta); err != nil {
			logger.Errorf(ctx, "persist assistant message: %v", err)
		}
	}
	return result, nil
}

func (d *Dispatcher) resolveBackendName(requested string, fallback chat.BackendName) chat.BackendName {
	if requested == "" {
		return fallback
	}
	return chat.BackendName(strings.ToUpper(requested))
}

// chatBasic implements the BASIC row: Ollama + simple RAG (C8 + C10 + C12),
// with C11 memory when a conversationId is present.
func (d *Dispatcher) chatBasic(ctx context.Context, req ChatRequest) (*types.ChatResult, chat.BackendName, error) {
	var contents []types.Content
	if req.UseKnowledgeBase {
		var err error
		contents, err = d.basicRetriever.Retrieve(ctx, req.Message, retriever.DefaultTopK)
		if err != nil {
			return nil, "", err
		}
	}

	var history []types.ChatMemoryEntry
	if req.ConversationID != "" {
		var err error
		history, err = d.memory.History(ctx, req.ConversationID, types.ModelTypeBasic)
		if err != nil {
			logger.Errorf(ctx, "load BASIC memory: %v", err)
		}
	}

	prompt := req.Message
	if req.UseKnowledgeBase {
		prompt = d.injector.Inject(req.Message, contents)
	}

	messages := make([]chat.Message, 0, len(history)+1)
	for _, h := range history {
		messages = append(messages, chat.Message{Role: string(h.Role), Content: h.Content})
	}
	messages = append(messages, chat.Message{Role: "user", Content: prompt})

	backendName := d.resolveBackendName(req.ModelName, d.basicModel)
	resp, err := d.modelDispatch.Chat(ctx, backendName, string(types.ModelTypeBasic), messages, nil)
	if err != nil {
		return nil, "", err
	}

	if req.ConversationID != "" {
		d.rememberTurn(ctx, req.ConversationID, types.ModelTypeBasic, req.Message, resp.Content)
	}

	return &types.ChatResult{
		Answer:            resp.Content,
		HasKnowledgeMatch: len(contents) > 0,
		SourceCount:       len(contents),
		Sources:           toSourceDetails(contents),
		SessionID:         req.ConversationID,
		Status:            types.ChatStatusSuccess,
	}, backendName, nil
}

// chatAdvanced implements the ADVANCED row: the tool-calling agent over
// DeepSeek, with agent-side (C11-backed) memory.
func (d *Dispatcher) chatAdvanced(ctx context.Context, req ChatRequest) (*types.ChatResult, chat.BackendName, error) {
	var history []types.ChatMemoryEntry
	if req.ConversationID != "" {
		var err error
		history, err = d.memory.History(ctx, req.ConversationID, types.ModelTypeAdvanced)
		if err != nil {
			logger.Errorf(ctx, "load ADVANCED memory: %v", err)
		}
	}

	messages := make([]chat.Message, 0, len(history)+1)
	for _, h := range history {
		messages = append(messages, chat.Message{Role: string(h.Role), Content: h.Content})
	}
	messages = append(messages, chat.Message{Role: "user", Content: req.Message})

	answer, err := d.agentRunner.Run(ctx, messages)
	if err != nil {
		return nil, "", err
	}

	if req.ConversationID != "" {
		d.rememberTurn(ctx, req.ConversationID, types.ModelTypeAdvanced, req.Message, answer)
	}

	return &types.ChatResult{
		Answer:    answer,
		SessionID: req.ConversationID,
		Status:    types.ChatStatusSuccess,
	}, d.advancedModel, nil
}

// chatAdvancedRAG delegates wholesale to C13.
func (d *Dispatcher) chatAdvancedRAG(ctx context.Context, req ChatRequest) (*types.ChatResult, chat.BackendName, error) {
	result := d.ragService.Chat(ctx, req.Message, req.ConversationID)
	if result.Status == types.ChatStatusProcessingErr {
		return nil, "", apperrors.NewUpstreamError(apperrors.KindModelUnavailable, nil, "advanced rag chat failed")
	}
	return result, d.ragService.ModelName(), nil
}

func (d *Dispatcher) rememberTurn(ctx context.Context, conversationID string, modelType types.ModelType, question, answer string) {
	now := time.Now()
	if err := d.memory.Append(ctx, conversationID, modelType, types.ChatMemoryEntry{
		Role: types.ChatRoleUser, Content: question, CreatedAt: now,
	}); err != nil {
		logger.Errorf(ctx, "append user turn to memory: %v", err)
	}
	if err := d.memory.Append(ctx, conversationID, modelType, types.ChatMemoryEntry{
		Role: types.ChatRoleAssistant, Content: answer, CreatedAt: now,
	}); err != nil {
		logger.Errorf(ctx, "append assistant turn to memory: %v", err)
	}
}

// toSourceDetails mirrors C13's own preview-truncation convention (200
// runes) so BASIC's response shape matches ADVANCED_RAG's.
func toSourceDetails(contents []types.Content) []types.SourceDetail {
	if len(contents) == 0 {
		return nil
	}
	out := make([]types.SourceDetail, 0, len(contents))
	for _, c := range contents {
		out = append(out, types.SourceDetail{
			ContentPreview: truncatePreview(c.Text, 200),
			SourceName:     c.Source,
			RelevanceScore: c.Score,
			ContentType:    c.ContentType,
		})
	}
	return out
}

func truncatePreview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Package service implements the Advanced-RAG Service (C13): the
// synchronous and streaming pipeline composing the Query Analyzer (C6),
// Router (C7), Retriever (C8), Aggregator (C9), Injector (C10), and Model
// Dispatcher (C12) into one chat() call.
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Tencent/WeKnora/internal/common"
	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/logger"
	"github.com/Tencent/WeKnora/internal/models/chat"
	"github.com/Tencent/WeKnora/internal/ragcore/aggregator"
	"github.com/Tencent/WeKnora/internal/ragcore/analyzer"
	"github.com/Tencent/WeKnora/internal/ragcore/injector"
	"github.com/Tencent/WeKnora/internal/ragcore/retriever"
	"github.com/Tencent/WeKnora/internal/ragcore/router"
	"github.com/Tencent/WeKnora/internal/tracing"
	"github.com/Tencent/WeKnora/internal/types"
)

// sessionWindowSize is §4.13's in-process session memory window, kept
// separate from the Chat-Memory Store (C11) window.
const sessionWindowSize = 10

// Service is the default Advanced-RAG Service.
type Service struct {
	router     *router.Router
	retrievers map[string]retriever.Retriever
	aggregator *aggregator.Aggregator
	injector   *injector.Injector
	dispatcher *chat.Dispatcher
	modelName  chat.BackendName

	mu       sync.Mutex
	sessions map[string][]types.ChatMemoryEntry
}

// New builds a Service over the given collaborators. retrievers maps the
// retriever names the Router (C7) addresses to their implementations.
func New(
	r *router.Router,
	retrievers map[string]retriever.Retriever,
	agg *aggregator.Aggregator,
	inj *injector.Injector,
	dispatcher *chat.Dispatcher,
	modelName chat.BackendName,
) *Service {
	return &Service{
		router:     r,
		retrievers: retrievers,
		aggregator: agg,
		injector:   inj,
		dispatcher: dispatcher,
		modelName:  modelName,
		sessions:   make(map[string][]types.ChatMemoryEntry),
	}
}

// Chat runs the full pipeline synchronously and returns a ChatResult.
func (s *Service) Chat(ctx context.Context, question, sessionID string) *types.ChatResult {
	start := time.Now()

	if strings.TrimSpace(question) == "" {
		return &types.ChatResult{
			SessionID: sessionID,
			Status:    types.ChatStatusEmptyQuestion,
		}
	}

	contents, err := s.retrieve(ctx, question)
	if err != nil {
		common.PipelineError(ctx, "advanced-rag", "retrieval-failed", map[string]interface{}{
			"sessionId": sessionID, "error": err.Error(),
		})
		logger.GetLogger(ctx).Errorf("advanced rag retrieval failed: %v", err)
		return &types.ChatResult{
			SessionID:  sessionID,
			Status:     types.ChatStatusProcessingErr,
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	prompt := s.injector.Inject(question, contents)
	messages := s.buildMessages(sessionID, prompt)

	resp, err := s.dispatcher.Chat(ctx, s.modelName, string(types.ModelTypeAdvancedRAG), messages, nil)
	if err != nil {
		common.PipelineError(ctx, "advanced-rag", "chat-failed", map[string]interface{}{
			"sessionId": sessionID, "error": err.Error(),
		})
		logger.GetLogger(ctx).Errorf("advanced rag chat failed: %v", err)
		return &types.ChatResult{
			SessionID:  sessionID,
			Status:     types.ChatStatusProcessingErr,
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	s.remember(sessionID, question, resp.Content)

	common.PipelineInfo(ctx, "advanced-rag", "complete", map[string]interface{}{
		"sessionId": sessionID, "sourceCount": len(contents),
	})
	return &types.ChatResult{
		Answer:            resp.Content,
		HasKnowledgeMatch: len(contents) > 0,
		SourceCount:       len(contents),
		Sources:           toSourceDetails(contents),
		SessionID:         sessionID,
		Status:            types.ChatStatusSuccess,
		DurationMs:        time.Since(start).Milliseconds(),
	}
}

// greeting/system-question patterns that don't need a knowledge retrieval
// pass before answering, e.g. "你好" or "你是谁".
var noRetrievalPatterns = []string{"你好", "您好", "hi", "hello", "你是谁", "你能做什么", "谢谢", "再见"}

func needsKnowledgeRetrieval(question string) bool {
	trimmed := strings.TrimSpace(question)
	lower := strings.ToLower(trimmed)
	if len([]rune(trimmed)) <= 6 {
		for _, p := range noRetrievalPatterns {
			if strings.Contains(lower, strings.ToLower(p)) {
				return false
			}
		}
	}
	return true
}

// StreamChat runs the pipeline and emits ordered StreamEvents on the
// returned channel: start, one or more content deltas, then exactly one
// terminal done or error event.
func (s *Service) StreamChat(ctx context.Context, question, sessionID string) <-chan types.StreamEvent {
	out := make(chan types.StreamEvent, 64)

	go func() {
		defer close(out)

		if strings.TrimSpace(question) == "" {
			out <- types.StreamEvent{Type: types.StreamEventError, Error: "empty question", SessionID: sessionID}
			return
		}

		var contents []types.Content
		if needsKnowledgeRetrieval(question) {
			var err error
			contents, err = s.retrieve(ctx, question)
			if err != nil {
				logger.GetLogger(ctx).Errorf("advanced rag streaming retrieval failed: %v", err)
				out <- types.StreamEvent{Type: types.StreamEventError, Error: "retrieval failed", SessionID: sessionID}
				return
			}
		}

		out <- types.StreamEvent{Type: types.StreamEventStart, SourceCount: len(contents)}

		prompt := s.injector.Inject(question, contents)
		messages := s.buildMessages(sessionID, prompt)

		stream, err := s.dispatcher.StreamChat(ctx, s.modelName, string(types.ModelTypeAdvancedRAG), messages, nil)
		if err != nil {
			out <- types.StreamEvent{Type: types.StreamEventError, Error: err.Error(), SessionID: sessionID}
			return
		}

		var answer strings.Builder
		for chunk := range stream {
			if chunk.Type == chat.ChunkTypeError {
				out <- types.StreamEvent{Type: types.StreamEventError, Error: chunk.Err.Error(), SessionID: sessionID}
				return
			}
			if chunk.Content != "" {
				answer.WriteString(chunk.Content)
				out <- types.StreamEvent{Type: types.StreamEventContent, Content: chunk.Content}
			}
			if chunk.Done {
				break
			}
		}

		s.remember(sessionID, question, answer.String())
		out <- types.StreamEvent{Type: types.StreamEventDone, SourceCount: len(contents), SessionID: sessionID}
	}()

	return out
}

// ModelName reports the backend this Service's Chat/StreamChat calls
// dispatch to, for callers that need to record which model actually
// answered (C14's per-message metadata, §4.13).
func (s *Service) ModelName() chat.BackendName { return s.modelName }

// RetrieveContext exposes the C6->C7->C8->C9 retrieval chain without C10/C12,
// for callers that need law passages but not a generated answer (the
// Contract-Review Engine's stage 4, §4.14).
func (s *Service) RetrieveContext(ctx context.Context, query string) ([]types.Content, error) {
	return s.retrieve(ctx, query)
}

// retrieve implements the C6 -> C7 -> (C8 per retriever) -> C9 chain for one
// question.
func (s *Service) retrieve(ctx context.Context, question string) ([]types.Content, error) {
	ctx, span := tracing.StartSpan(ctx, "ragcore.retrieve")
	defer span.End()

	intent := analyzer.Analyze(question)
	routes := s.router.Route(intent)

	var rankedLists [][]types.Content
	for _, rq := range routes {
		for _, name := range rq.Retrievers {
			r, ok := s.retrievers[name]
			if !ok {
				continue
			}
			contents, err := r.Retrieve(ctx, rq.Query, retriever.DefaultTopK)
			if err != nil {
				return nil, apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err,
					"retriever %q failed", name)
			}
			if len(contents) > 0 {
				rankedLists = append(rankedLists, contents)
			}
		}
	}

	if len(rankedLists) == 0 {
		return nil, nil
	}
	return s.aggregator.Aggregate(ctx, question, rankedLists), nil
}

// buildMessages assembles the chat request: the in-process session window
// (distinct from C11) followed by the freshly-injected prompt as the final
// user turn.
func (s *Service) buildMessages(sessionID, prompt string) []chat.Message {
	s.mu.Lock()
	history := append([]types.ChatMemoryEntry(nil), s.sessions[sessionID]...)
	s.mu.Unlock()

	messages := make([]chat.Message, 0, len(history)+1)
	for _, h := range history {
		messages = append(messages, chat.Message{Role: string(h.Role), Content: h.Content})
	}
	messages = append(messages, chat.Message{Role: string(types.ChatRoleUser), Content: prompt})
	return messages
}

// remember appends the turn to the in-process session window, trimming to
// sessionWindowSize.
func (s *Service) remember(sessionID, question, answer string) {
	if sessionID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.sessions[sessionID],
		types.ChatMemoryEntry{Role: types.ChatRoleUser, Content: question, CreatedAt: time.Now()},
		types.ChatMemoryEntry{Role: types.ChatRoleAssistant, Content: answer, CreatedAt: time.Now()},
	)
	if len(entries) > sessionWindowSize {
		entries = entries[len(entries)-sessionWindowSize:]
	}
	s.sessions[sessionID] = entries
}

func toSourceDetails(contents []types.Content) []types.SourceDetail {
	out := make([]types.SourceDetail, len(contents))
	for i, c := range contents {
		preview := c.Text
		if r := []rune(preview); len(r) > 200 {
			preview = string(r[:200])
		}
		out[i] = types.SourceDetail{
			ContentPreview: preview,
			SourceName:     c.Source,
			RelevanceScore: c.Score,
			ContentType:    c.ContentType,
		}
	}
	return out
}

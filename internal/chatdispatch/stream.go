package chatdispatch

import (
	"context"
	"strings"

	"github.com/Tencent/WeKnora/internal/logger"
	"github.com/Tencent/WeKnora/internal/models/chat"
	"github.com/Tencent/WeKnora/internal/types"
)

// StreamChat opens the streaming path for req, resolving mode and running
// the session/persistence side effects §4.13 requires around it. The
// returned channel emits exactly the `start`/`content`/`done`/`error`
// sequence §6 names; it is closed once the terminal event has been sent.
func (d *Dispatcher) StreamChat(ctx context.Context, userID uint64, req ChatRequest) (<-chan types.StreamEvent, error) {
	mode := d.resolveMode(req)
	if req.ConversationID != "" {
		if err := ensureSession(ctx, d.sessionRepo, userID, req.ConversationID, req.Message, mode); err != nil {
			return nil, err
		}
		if err := persistMessage(ctx, d.messageRepo, req.ConversationID, types.ChatRoleUser, req.Message, nil); err != nil {
			return nil, err
		}
	}

	out := make(chan types.StreamEvent, 64)
	go d.runStream(ctx, userID, mode, req, out)
	return out, nil
}

func (d *Dispatcher) runStream(ctx context.Context, userID uint64, mode types.ModelType, req ChatRequest, out chan<- types.StreamEvent) {
	defer close(out)

	var (
		answer strings.Builder
		actual chat.BackendName
	)

	switch mode {
	case types.ModelTypeAdvancedRAG:
		actual = d.ragService.ModelName()
		for evt := range d.ragService.StreamChat(ctx, req.Message, req.ConversationID) {
			if evt.Type == types.StreamEventContent {
				answer.WriteString(evt.Content)
			}
			out <- evt
		}
	case types.ModelTypeBasic:
		actual = d.streamBasic(ctx, req, &answer, out)
	case types.ModelTypeAdvanced:
		actual = d.streamAdvanced(ctx, req, &answer, out)
	default:
		out <- types.StreamEvent{Type: types.StreamEventError, Error: "unknown chat mode"}
		return
	}

	if req.ConversationID != "" && answer.Len() > 0 {
		persistCtx := logger.CloneContext(ctx)
		meta := map[string]any{
			"modelType":       mode,
			"requestedModel":  req.ModelName,
			"actualModelUsed": actual,
			"streaming":       true,
		}
		if err := persistMessage(persistCtx, d.messageRepo, req.ConversationID, types.ChatRoleAssistant, answer.String(), meta); err != nil {
			logger.Errorf(persistCtx, "persist streamed assistant message: %v", err)
		}
		d.rememberTurn(persistCtx, req.ConversationID, mode, req.Message, answer.String())
	}
}

// streamBasic adapts the Model Dispatcher's raw StreamChunk sequence to
// C13's start/content/done/error contract, so BASIC and ADVANCED_RAG are
// indistinguishable to an SSE client.
func (d *Dispatcher) streamBasic(ctx context.Context, req ChatRequest, answer *strings.Builder, out chan<- types.StreamEvent) chat.BackendName {
	var contents []types.Content
	if req.UseKnowledgeBase {
		var err error
		contents, err = d.basicRetriever.Retrieve(ctx, req.Message, 0)
		if err != nil {
			out <- types.StreamEvent{Type: types.StreamEventError, Error: err.Error()}
			return d.basicModel
		}
	}

	prompt := req.Message
	if req.UseKnowledgeBase {
		prompt = d.injector.Inject(req.Message, contents)
	}

	out <- types.StreamEvent{Type: types.StreamEventStart, SourceCount: len(contents)}

	backendName := d.resolveBackendName(req.ModelName, d.basicModel)
	messages := []chat.Message{{Role: "user", Content: prompt}}
	stream, err := d.modelDispatch.StreamChat(ctx, backendName, string(types.ModelTypeBasic), messages, nil)
	if err != nil {
		out <- types.StreamEvent{Type: types.StreamEventError, Error: err.Error()}
		return backendName
	}

	for chunk := range stream {
		switch chunk.Type {
		case chat.ChunkTypeContent:
			answer.WriteString(chunk.Content)
			out <- types.StreamEvent{Type: types.StreamEventContent, Content: chunk.Content}
		case chat.ChunkTypeError:
			msg := "stream failed"
			if chunk.Err != nil {
				msg = chunk.Err.Error()
			}
			out <- types.StreamEvent{Type: types.StreamEventError, Error: msg}
			return backendName
		}
	}
	out <- types.StreamEvent{Type: types.StreamEventDone, SourceCount: len(contents), SessionID: req.ConversationID}
	return backendName
}

// streamAdvanced runs the agent loop to completion and surfaces its answer
// as a single content event: the tool-calling loop has no natural token
// stream of its own to forward.
func (d *Dispatcher) streamAdvanced(ctx context.Context, req ChatRequest, answer *strings.Builder, out chan<- types.StreamEvent) chat.BackendName {
	out <- types.StreamEvent{Type: types.StreamEventStart, SourceCount: 0}

	messages := []chat.Message{{Role: "user", Content: req.Message}}
	result, err := d.agentRunner.Run(ctx, messages)
	if err != nil {
		out <- types.StreamEvent{Type: types.StreamEventError, Error: err.Error()}
		return d.advancedModel
	}

	answer.WriteString(result)
	out <- types.StreamEvent{Type: types.StreamEventContent, Content: result}
	out <- types.StreamEvent{Type: types.StreamEventDone, SourceCount: 0, SessionID: req.ConversationID}
	return d.advancedModel
}

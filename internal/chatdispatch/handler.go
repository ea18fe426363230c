package chatdispatch

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/handler"
	"github.com/Tencent/WeKnora/internal/types"
)

// modelTypeFromQuery normalizes a ?modelName= query value into one of C14's
// mode constants, defaulting to BASIC for an unrecognized value so a typo
// clears something rather than erroring.
func modelTypeFromQuery(raw string) types.ModelType {
	switch types.ModelType(raw) {
	case types.ModelTypeAdvanced, types.ModelTypeAdvancedRAG, types.ModelTypeUnified:
		return types.ModelType(raw)
	default:
		return types.ModelTypeBasic
	}
}

// Handler implements the chat HTTP routes (§6), each a thin translation
// between Gin and the Dispatcher.
type Handler struct {
	dispatcher *Dispatcher
}

// NewHandler builds a Handler.
func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// RegisterRoutes wires the chat endpoints onto rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.chat)
	rg.POST("/chat/stream", h.stream)
	rg.GET("/chat/sessions", h.listSessions)
	rg.GET("/chat/sessions/:id", h.getSession)
	rg.DELETE("/chat/sessions/:id", h.deleteSession)
	rg.DELETE("/chat/session/:conversationId", h.deleteSessionMemory)
}

// chat godoc
// @Summary      发起一次对话
// @Description  同步返回一次模型回复，按 modelType 路由到 BASIC/ADVANCED/ADVANCED_RAG/UNIFIED 四种模式之一
// @Tags         对话
// @Accept       json
// @Produce      json
// @Param        request  body      ChatRequest    true  "对话请求"
// @Success      200      {object}  types.ChatResult
// @Failure      400      {object}  map[string]interface{}  "请求体无效"
// @Router       /chat [post]
func (h *Handler) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError(apperrors.KindEmptyInput, "invalid chat request body: %v", err))
		return
	}

	result, err := h.dispatcher.Chat(c.Request.Context(), handler.UserID(c), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// stream godoc
// @Summary      发起一次流式对话
// @Description  以 SSE 返回 start/content/done/error 事件序列，直至终止事件或客户端断开
// @Tags         对话
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body  ChatRequest  true  "对话请求"
// @Success      200  {string}  string  "text/event-stream"
// @Failure      400  {object}  map[string]interface{}  "请求体无效"
// @Router       /chat/stream [post]
func (h *Handler) stream(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError(apperrors.KindEmptyInput, "invalid chat request body: %v", err))
		return
	}

	events, err := h.dispatcher.StreamChat(c.Request.Context(), handler.UserID(c), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			writeChatSSE(c, string(evt.Type), evt)
		}
	}
}

func writeChatSSE(c *gin.Context, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(`{}`)
	}
	c.SSEvent(event, string(data))
	c.Writer.Flush()
}

// listSessions godoc
// @Summary      列出会话
// @Description  列出当前用户的全部会话
// @Tags         对话
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "会话列表"
// @Router       /chat/sessions [get]
func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.dispatcher.sessionRepo.List(c.Request.Context(), handler.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": sessions})
}

// getSession godoc
// @Summary      获取会话详情
// @Description  返回会话及其完整消息历史
// @Tags         对话
// @Produce      json
// @Param        id   path      string  true  "会话 ID"
// @Success      200  {object}  map[string]interface{}  "会话及消息"
// @Failure      404  {object}  map[string]interface{}  "会话不存在"
// @Router       /chat/sessions/{id} [get]
func (h *Handler) getSession(c *gin.Context) {
	id := c.Param("id")
	session, err := h.dispatcher.sessionRepo.GetByID(c.Request.Context(), id, handler.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	messages, err := h.dispatcher.messageRepo.ListBySession(c.Request.Context(), id, 0)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "messages": messages})
}

// deleteSession godoc
// @Summary      删除会话
// @Description  删除会话记录及其消息历史，不清除对话记忆（另一模型可能仍在使用相同 conversationId 的记忆）
// @Tags         对话
// @Param        id   path  string  true  "会话 ID"
// @Success      204  "已删除"
// @Failure      404  {object}  map[string]interface{}  "会话不存在"
// @Router       /chat/sessions/{id} [delete]
func (h *Handler) deleteSession(c *gin.Context) {
	id := c.Param("id")
	userID := handler.UserID(c)

	if _, err := h.dispatcher.sessionRepo.GetByID(c.Request.Context(), id, userID); err != nil {
		c.Error(err)
		return
	}
	if err := h.dispatcher.messageRepo.DeleteBySession(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	if err := h.dispatcher.sessionRepo.Delete(c.Request.Context(), id, userID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// deleteSessionMemory godoc
// @Summary      清除对话记忆
// @Description  清除指定会话在某个模型下的记忆窗口；不传 modelName 时清除该会话在所有模型下的记忆
// @Tags         对话
// @Param        conversationId  path   string  true   "会话 ID"
// @Param        modelName       query  string  false  "模型类型，留空表示清除所有模型的记忆"
// @Success      204  "已清除"
// @Router       /chat/session/{conversationId} [delete]
func (h *Handler) deleteSessionMemory(c *gin.Context) {
	conversationID := c.Param("conversationId")
	modelName := c.Query("modelName")

	var err error
	if modelName == "" {
		err = h.dispatcher.memory.ClearAll(c.Request.Context(), conversationID)
	} else {
		err = h.dispatcher.memory.Clear(c.Request.Context(), conversationID, modelTypeFromQuery(modelName))
	}
	if err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

package interfaces

import (
	"context"

	"github.com/Tencent/WeKnora/internal/types"
)

// ChatMemoryService is the Chat-Memory Store (C11): a bounded, per-
// (conversationId, modelType) sliding window of recent messages, persisted
// so the window survives process restart. Clearing one (conv, model) pair
// must not affect another model's memory for the same conversation.
type ChatMemoryService interface {
	Append(ctx context.Context, conversationID string, modelType types.ModelType, msg types.ChatMemoryEntry) error
	History(ctx context.Context, conversationID string, modelType types.ModelType) ([]types.ChatMemoryEntry, error)
	Clear(ctx context.Context, conversationID string, modelType types.ModelType) error
	ClearAll(ctx context.Context, conversationID string) error
	Exists(ctx context.Context, conversationID string, modelType types.ModelType) (bool, error)
	Count(ctx context.Context, conversationID string, modelType types.ModelType) (int, error)
}

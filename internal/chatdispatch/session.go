package chatdispatch

import (
	"context"

	"github.com/google/uuid"

	"github.com/Tencent/WeKnora/internal/types"
	"github.com/Tencent/WeKnora/internal/types/interfaces"
)

// sessionTitleLimit is §4.13's "50-char title derived from first user
// message" limit, counted in runes so CJK text isn't byte-truncated
// mid-character.
const sessionTitleLimit = 50

// deriveTitle takes the first sessionTitleLimit runes of message as a
// session's title.
func deriveTitle(message string) string {
	r := []rune(message)
	if len(r) <= sessionTitleLimit {
		return string(r)
	}
	return string(r[:sessionTitleLimit])
}

// ensureSession implements §4.13 side effect 1: create the session (with a
// derived title) if it doesn't already exist for this owner.
func ensureSession(ctx context.Context, repo interfaces.ChatSessionRepository, userID uint64,
	conversationID, firstMessage string, modelType types.ModelType,
) error {
	if _, err := repo.GetByID(ctx, conversationID, userID); err == nil {
		return repo.Touch(ctx, conversationID, modelType)
	}
	return repo.Create(ctx, &types.ChatSession{
		ID:            conversationID,
		UserID:        userID,
		Title:         deriveTitle(firstMessage),
		LastModelType: modelType,
	})
}

// persistMessage implements side effects 2 and 3: append one turn.
func persistMessage(ctx context.Context, repo interfaces.ChatMessageRepository, sessionID string,
	role types.ChatRole, content string, metadata map[string]any,
) error {
	return repo.Create(ctx, &types.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
	})
}

package repository

import (
	"context"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/types"
	"github.com/Tencent/WeKnora/internal/types/interfaces"
	"gorm.io/gorm"
)

type chatMessageRepository struct {
	db *gorm.DB
}

// NewChatMessageRepository creates a new chat message repository.
func NewChatMessageRepository(db *gorm.DB) interfaces.ChatMessageRepository {
	return &chatMessageRepository{db: db}
}

func (r *chatMessageRepository) Create(ctx context.Context, message *types.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return apperrors.NewInternalServerError(err, "create chat message")
	}
	return nil
}

func (r *chatMessageRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*types.ChatMessage, error) {
	var messages []*types.ChatMessage
	q := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&messages).Error; err != nil {
		return nil, apperrors.NewInternalServerError(err, "list messages for session %s", sessionID)
	}
	return messages, nil
}

func (r *chatMessageRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&types.ChatMessage{}).Error
	if err != nil {
		return apperrors.NewInternalServerError(err, "delete messages for session %s", sessionID)
	}
	return nil
}

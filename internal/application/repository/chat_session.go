package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/types"
	"github.com/Tencent/WeKnora/internal/types/interfaces"
	"gorm.io/gorm"
)

type chatSessionRepository struct {
	db *gorm.DB
}

// NewChatSessionRepository creates a new chat session repository.
func NewChatSessionRepository(db *gorm.DB) interfaces.ChatSessionRepository {
	return &chatSessionRepository{db: db}
}

func (r *chatSessionRepository) Create(ctx context.Context, session *types.ChatSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return apperrors.NewInternalServerError(err, "create chat session")
	}
	return nil
}

func (r *chatSessionRepository) GetByID(ctx context.Context, id string, userID uint64) (*types.ChatSession, error) {
	var session types.ChatSession
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(apperrors.KindSessionNotFound, "chat session %s not found", id)
		}
		return nil, apperrors.NewInternalServerError(err, "get chat session %s", id)
	}
	return &session, nil
}

func (r *chatSessionRepository) List(ctx context.Context, userID uint64) ([]*types.ChatSession, error) {
	var sessions []*types.ChatSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, apperrors.NewInternalServerError(err, "list chat sessions")
	}
	return sessions, nil
}

// Touch updates a session's last-used model type and bumps updated_at,
// called after every turn so the session list sorts by recency.
func (r *chatSessionRepository) Touch(ctx context.Context, id string, modelType types.ModelType) error {
	err := r.db.WithContext(ctx).Model(&types.ChatSession{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_model_type": modelType, "updated_at": time.Now()}).Error
	if err != nil {
		return apperrors.NewInternalServerError(err, "touch chat session %s", id)
	}
	return nil
}

func (r *chatSessionRepository) Delete(ctx context.Context, id string, userID uint64) error {
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&types.ChatSession{}).Error
	if err != nil {
		return apperrors.NewInternalServerError(err, "delete chat session %s", id)
	}
	return nil
}

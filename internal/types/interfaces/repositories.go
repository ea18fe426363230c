package interfaces

import (
	"context"

	"github.com/Tencent/WeKnora/internal/types"
)

// KnowledgeDocumentRepository is the Knowledge-Doc Registry's (C5)
// persistence interface.
type KnowledgeDocumentRepository interface {
	Create(ctx context.Context, doc *types.KnowledgeDocument) error
	GetByID(ctx context.Context, id string, tenantID uint64) (*types.KnowledgeDocument, error)
	GetByContentHash(ctx context.Context, contentHash string, tenantID uint64) (*types.KnowledgeDocument, error)
	List(ctx context.Context, tenantID uint64) ([]*types.KnowledgeDocument, error)
	Delete(ctx context.Context, id string, tenantID uint64) error
}

// ChatSessionRepository persists ChatSession rows for C14.
type ChatSessionRepository interface {
	Create(ctx context.Context, session *types.ChatSession) error
	GetByID(ctx context.Context, id string, userID uint64) (*types.ChatSession, error)
	List(ctx context.Context, userID uint64) ([]*types.ChatSession, error)
	Touch(ctx context.Context, id string, modelType types.ModelType) error
	Delete(ctx context.Context, id string, userID uint64) error
}

// ChatMessageRepository persists ChatMessage rows for C14.
type ChatMessageRepository interface {
	Create(ctx context.Context, message *types.ChatMessage) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*types.ChatMessage, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}

// ContractReviewRepository persists ContractReview and RiskClause rows for
// C15.
type ContractReviewRepository interface {
	Create(ctx context.Context, review *types.ContractReview) error
	GetByID(ctx context.Context, id uint64, tenantID uint64) (*types.ContractReview, error)
	// GetByIDUnscoped loads a review without a tenant filter, for the
	// background worker which operates outside any request's tenant scope.
	GetByIDUnscoped(ctx context.Context, id uint64) (*types.ContractReview, error)
	GetByFileHash(ctx context.Context, fileHash string, tenantID uint64) (*types.ContractReview, error)
	// ClaimPending atomically transitions a PENDING review to PROCESSING and
	// returns true if this caller won the claim, false if another worker
	// already claimed it (or it is not PENDING).
	ClaimPending(ctx context.Context, id uint64) (bool, error)
	Complete(ctx context.Context, id uint64, result *types.ReviewResult, riskLevel types.RiskLevel,
		totalRisks int, clauses []types.RiskClause) error
	Fail(ctx context.Context, id uint64, errMsg string) error
	List(ctx context.Context, tenantID uint64) ([]*types.ContractReview, error)
	// ListPage returns one page of a tenant's reviews plus the total count,
	// for GET /contracts/my-reviews?page&size.
	ListPage(ctx context.Context, tenantID uint64, page, size int) ([]*types.ContractReview, int64, error)
	// ResetToPending clears a terminal review's result and risk clauses and
	// moves it back to PENDING, for the explicit reprocess operation (§4.14).
	ResetToPending(ctx context.Context, id uint64) error
}

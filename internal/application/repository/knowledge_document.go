package repository

import (
	"context"
	"errors"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/types"
	"github.com/Tencent/WeKnora/internal/types/interfaces"
	"gorm.io/gorm"
)

// knowledgeDocumentRepository implements the Knowledge-Doc Registry (C5):
// SHA-256-deduplicated, tenant-scoped CRUD over KnowledgeDocument rows.
type knowledgeDocumentRepository struct {
	db *gorm.DB
}

// NewKnowledgeDocumentRepository creates a new knowledge document repository.
func NewKnowledgeDocumentRepository(db *gorm.DB) interfaces.KnowledgeDocumentRepository {
	return &knowledgeDocumentRepository{db: db}
}

func (r *knowledgeDocumentRepository) Create(ctx context.Context, doc *types.KnowledgeDocument) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return apperrors.NewInternalServerError(err, "create knowledge document")
	}
	return nil
}

func (r *knowledgeDocumentRepository) GetByID(ctx context.Context, id string, tenantID uint64) (*types.KnowledgeDocument, error) {
	var doc types.KnowledgeDocument
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(apperrors.KindDocumentNotFound, "knowledge document %s not found", id)
		}
		return nil, apperrors.NewInternalServerError(err, "get knowledge document %s", id)
	}
	return &doc, nil
}

// GetByContentHash implements the registry's dedup-on-ingest lookup: a
// document whose content hashes identically to one already indexed is
// treated as already-present rather than re-chunked and re-embedded.
func (r *knowledgeDocumentRepository) GetByContentHash(ctx context.Context, contentHash string, tenantID uint64) (*types.KnowledgeDocument, error) {
	var doc types.KnowledgeDocument
	err := r.db.WithContext(ctx).
		Where("content_hash = ? AND tenant_id = ?", contentHash, tenantID).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewInternalServerError(err, "lookup knowledge document by hash")
	}
	return &doc, nil
}

func (r *knowledgeDocumentRepository) List(ctx context.Context, tenantID uint64) ([]*types.KnowledgeDocument, error) {
	var docs []*types.KnowledgeDocument
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, apperrors.NewInternalServerError(err, "list knowledge documents")
	}
	return docs, nil
}

func (r *knowledgeDocumentRepository) Delete(ctx context.Context, id string, tenantID uint64) error {
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&types.KnowledgeDocument{}).Error
	if err != nil {
		return apperrors.NewInternalServerError(err, "delete knowledge document %s", id)
	}
	return nil
}

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

type contractReviewRepository struct {
	db *gorm.DB
}

// NewContractReviewRepository creates a new contract review repository.
func NewContractReviewRepository(db *gorm.DB) interfaces.ContractReviewRepository {
	return &contractReviewRepository{db: db}
}

func (r *contractReviewRepository) Create(ctx context.Context, review *types.ContractReview) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return apperrors.NewInternalServerError(err, "create contract review")
	}
	return nil
}

func (r *contractReviewRepository) GetByID(ctx context.Context, id uint64, tenantID uint64) (*types.ContractReview, error) {
	var review types.ContractReview
	err := r.db.WithContext(ctx).
		Preload("RiskClauses").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(apperrors.KindReviewNotFound, "contract review %d not found", id)
		}
		return nil, apperrors.NewInternalServerError(err, "get contract review %d", id)
	}
	return &review, nil
}

func (r *contractReviewRepository) GetByIDUnscoped(ctx context.Context, id uint64) (*types.ContractReview, error) {
	var review types.ContractReview
	err := r.db.WithContext(ctx).Preload("RiskClauses").Where("id = ?", id).First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(apperrors.KindReviewNotFound, "contract review %d not found", id)
		}
		return nil, apperrors.NewInternalServerError(err, "get contract review %d", id)
	}
	return &review, nil
}

func (r *contractReviewRepository) GetByFileHash(ctx context.Context, fileHash string, tenantID uint64) (*types.ContractReview, error) {
	var review types.ContractReview
	err := r.db.WithContext(ctx).
		Where("file_hash = ? AND tenant_id = ?", fileHash, tenantID).
		Order("created_at DESC").
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewInternalServerError(err, "lookup contract review by file hash")
	}
	return &review, nil
}

// ClaimPending performs the state machine's atomic PENDING->PROCESSING
// transition: a single UPDATE ... WHERE status = 'PENDING' whose RowsAffected
// tells the caller whether it won the claim, with no read-then-write race
// window for two workers to both think they own the job.
func (r *contractReviewRepository) ClaimPending(ctx context.Context, id uint64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&types.ContractReview{}).
		Where("id = ? AND status = ?", id, types.ReviewStatusPending).
		Update("status", types.ReviewStatusProcessing)
	if result.Error != nil {
		return false, apperrors.NewInternalServerError(result.Error, "claim contract review %d", id)
	}
	return result.RowsAffected == 1, nil
}

func (r *contractReviewRepository) Complete(ctx context.Context, id uint64, result *types.ReviewResult,
	riskLevel types.RiskLevel, totalRisks int, clauses []types.RiskClause,
) error {
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":        types.ReviewStatusCompleted,
			"review_result": result,
			"risk_level":    riskLevel,
			"total_risks":   totalRisks,
			"completed_at":  &now,
		}
		if err := tx.Model(&types.ContractReview{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if len(clauses) > 0 {
			for i := range clauses {
				clauses[i].ReviewID = id
			}
			if err := tx.Create(&clauses).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *contractReviewRepository) Fail(ctx context.Context, id uint64, errMsg string) error {
	now := time.Now()
	updates := map[string]any{
		"status":        types.ReviewStatusFailed,
		"review_result": &types.ReviewResult{Error: errMsg},
		"completed_at":  &now,
	}
	if err := r.db.WithContext(ctx).Model(&types.ContractReview{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return apperrors.NewInternalServerError(err, "mark contract review %d failed", id)
	}
	return nil
}

func (r *contractReviewRepository) List(ctx context.Context, tenantID uint64) ([]*types.ContractReview, error) {
	var reviews []*types.ContractReview
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, apperrors.NewInternalServerError(err, "list contract reviews")
	}
	return reviews, nil
}

func (r *contractReviewRepository) ListPage(ctx context.Context, tenantID uint64, page, size int) (
	[]*types.ContractReview, int64, error,
) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&types.ContractReview{}).
		Where("tenant_id = ?", tenantID).Count(&total).Error; err != nil {
		return nil, 0, apperrors.NewInternalServerError(err, "count contract reviews")
	}

	var reviews []*types.ContractReview
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, apperrors.NewInternalServerError(err, "list contract reviews page")
	}
	return reviews, total, nil
}

// ResetToPending clears a terminal review's outcome and moves it back to
// PENDING in one transaction: the risk clauses table has no "this batch
// belongs to generation N" marker, so a reprocess must delete the old
// clauses outright rather than leave them dangling alongside a fresh set.
func (r *contractReviewRepository) ResetToPending(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Delete(&types.RiskClause{}).Error; err != nil {
			return err
		}
		updates := map[string]any{
			"status":        types.ReviewStatusPending,
			"risk_level":    nil,
			"total_risks":   nil,
			"review_result": nil,
			"completed_at":  nil,
		}
		return tx.Model(&types.ContractReview{}).Where("id = ?", id).Updates(updates).Error
	})
}

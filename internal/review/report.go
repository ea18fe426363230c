package review

import (
	"context"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/types"
)

// ReportRenderer is the PDF-rendering boundary §1.1 describes as out of
// scope: GET /contracts/{id}/report calls it and returns whatever it
// produces. No renderer ships here.
type ReportRenderer interface {
	Render(ctx context.Context, review *types.ContractReview) ([]byte, error)
}

// stubReportRenderer always declines, so the route is wired end to end
// without pretending a PDF pipeline exists.
type stubReportRenderer struct{}

// NewStubReportRenderer builds the default ReportRenderer until an external
// rendering collaborator is wired in.
func NewStubReportRenderer() ReportRenderer { return stubReportRenderer{} }

func (stubReportRenderer) Render(ctx context.Context, review *types.ContractReview) ([]byte, error) {
	return nil, apperrors.NewNotImplementedError("report rendering for review %d is not implemented", review.ID)
}

package review

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/types/interfaces"
)

// taskPayload is TaskTypeAnalyze's JSON body.
type taskPayload struct {
	ReviewID uint64 `json:"reviewId"`
}

// TaskHandler adapts Engine.RunAnalysis to asynq's interfaces.TaskHandler
// (the teacher's task_handler.go contract), so the background worker pool
// (§5, default 4 workers) dispatches contract-analysis jobs the same way
// it would dispatch any other asynq task type.
type taskHandler struct {
	engine *Engine
}

// NewTaskHandler builds the interfaces.TaskHandler the asynq server
// registers under TaskTypeAnalyze.
func NewTaskHandler(engine *Engine) interfaces.TaskHandler {
	return &taskHandler{engine: engine}
}

func (h *taskHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload taskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return apperrors.NewInternalServerError(err, "decode contract analyze task payload")
	}
	return h.engine.RunAnalysis(ctx, payload.ReviewID)
}

// Package common holds small cross-cutting helpers shared by the RAG
// pipeline, the chat dispatcher, and the contract-review engine.
package common

import (
	"context"

	"github.com/Tencent/WeKnora/internal/logger"
	"github.com/sirupsen/logrus"
)

// PipelineInfo logs a structured pipeline info-level entry tagged with the
// stage and action it occurred in, so stage boundaries stay greppable across
// the RAG, chat-dispatch, and contract-review pipelines.
func PipelineInfo(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logger.GetLogger(ctx).WithFields(toLogrusFields(stage, action, fields)).Info(action)
}

// PipelineWarn logs a structured pipeline warning-level entry.
func PipelineWarn(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logger.GetLogger(ctx).WithFields(toLogrusFields(stage, action, fields)).Warn(action)
}

// PipelineError logs a structured pipeline error-level entry.
func PipelineError(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logger.GetLogger(ctx).WithFields(toLogrusFields(stage, action, fields)).Error(action)
}

func toLogrusFields(stage, action string, fields map[string]interface{}) logrus.Fields {
	out := make(logrus.Fields, len(fields)+2)
	out["stage"] = stage
	out["action"] = action
	for k, v := range fields {
		out[k] = v
	}
	return out
}

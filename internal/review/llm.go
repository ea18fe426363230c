package review

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/models/chat"
	"github.com/Tencent/WeKnora/internal/types"
)

// analysisResponse is the structured object §4.14 stage 5 expects the model
// to return: summary, named clauses, and risk findings. Parsing is tolerant
// of unknown fields (plain json.Unmarshal already ignores them); missing
// required fields are the caller's retry trigger.
type analysisResponse struct {
	Summary          string          `json:"summary"`
	DetailedAnalysis string          `json:"detailedAnalysis"`
	KeyClauses       []string        `json:"keyClauses"`
	RiskClauses      []riskClauseLLM `json:"riskClauses"`
}

type riskClauseLLM struct {
	Level         types.RiskLevel `json:"level"`
	Type          string          `json:"type"`
	ClauseText    string          `json:"clauseText"`
	Description   string          `json:"description"`
	Suggestion    string          `json:"suggestion"`
	LegalBasis    string          `json:"legalBasis"`
	PositionStart int             `json:"positionStart"`
	PositionEnd   int             `json:"positionEnd"`
}

func (r analysisResponse) missingRequired() bool {
	return strings.TrimSpace(r.Summary) == "" || r.RiskClauses == nil
}

// buildAnalysisPrompt assembles the chunk text and its retrieved law
// context into one analysis turn, mirroring the Injector's (C10) role
// preface + references + rules structure but targeted at risk extraction
// instead of question answering.
func buildAnalysisPrompt(chunkText string, lawContext []types.Content, reminder bool) string {
	var b strings.Builder
	b.WriteString("你是一名专业的合同法律审查助手。请审查以下合同条款内容，识别其中的风险点，并严格按照 JSON 格式输出分析结果。\n\n")
	b.WriteString("合同条款内容：\n")
	b.WriteString(chunkText)
	b.WriteString("\n\n")

	if len(lawContext) > 0 {
		b.WriteString("相关法律依据：\n")
		for i, c := range lawContext {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, truncateRunes(c.Text, 500))
		}
		b.WriteString("\n")
	}

	b.WriteString("请输出一个 JSON 对象，字段如下：\n")
	b.WriteString(`{"summary": "条款概述", "detailedAnalysis": "详细分析", ` +
		`"keyClauses": ["关键条款1", "..."], "riskClauses": [{"level": "HIGH|MEDIUM|LOW", ` +
		`"type": "风险类型", "clauseText": "原文", "description": "风险说明", ` +
		`"suggestion": "修改建议", "legalBasis": "法律依据", "positionStart": 0, "positionEnd": 0}]}` + "\n")

	if reminder {
		b.WriteString("\n上一次输出缺少必需字段（summary 或 riskClauses），请严格按照上述字段结构重新输出完整 JSON，riskClauses 缺失风险时返回空数组而不是省略该字段。\n")
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// parseAnalysisResponse extracts the JSON object from a model's raw text
// reply. Models asked for JSON still sometimes wrap it in a code fence or
// trailing prose; this strips to the outermost braces before decoding.
func parseAnalysisResponse(raw string) (*analysisResponse, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return nil, apperrors.NewPipelineError(apperrors.KindLLMResponseUnparseable, nil,
			"model response contains no JSON object")
	}
	var resp analysisResponse
	if err := json.Unmarshal([]byte(raw[start:end+1]), &resp); err != nil {
		return nil, apperrors.NewPipelineError(apperrors.KindLLMResponseUnparseable, err,
			"model response is not valid JSON")
	}
	return &resp, nil
}

// analyzeChunk runs one C12 call against chunkText plus its law context,
// retrying once with a reminder prompt if the first reply is missing
// required fields, per §4.14 stage 5.
func (e *Engine) analyzeChunk(ctx context.Context, chunkText string, lawContext []types.Content) (*analysisResponse, error) {
	for attempt, reminder := range []bool{false, true} {
		prompt := buildAnalysisPrompt(chunkText, lawContext, reminder)
		messages := []chat.Message{{Role: "user", Content: prompt}}
		resp, err := e.dispatcher.Chat(ctx, e.modelName, "ADVANCED", messages, &chat.ChatOptions{Temperature: 0.2})
		if err != nil {
			if attempt == 1 {
				return nil, err
			}
			continue
		}
		parsed, err := parseAnalysisResponse(resp.Content)
		if err != nil {
			if attempt == 1 {
				return nil, err
			}
			continue
		}
		if parsed.missingRequired() {
			if attempt == 1 {
				return nil, apperrors.NewPipelineError(apperrors.KindLLMResponseUnparseable, nil,
					"model response missing required fields after retry")
			}
			continue
		}
		return parsed, nil
	}
	return nil, apperrors.NewPipelineError(apperrors.KindLLMResponseUnparseable, nil, "model analysis failed")
}

package review

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/Tencent/WeKnora/internal/common"
	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/logger"
	"github.com/Tencent/WeKnora/internal/tracing"
	"github.com/Tencent/WeKnora/internal/types"
)

// stage names used in progress events, matching §4.14's six stages.
const (
	stageParse    = "PARSE"
	stageChunk    = "CHUNK"
	stageEmbed    = "EMBED"
	stageRetrieve = "RETRIEVE"
	stageAnalyze  = "ANALYZE"
	stageScore    = "SCORE"
)

// RunAnalysis executes the full C15 pipeline for one review: claim, parse,
// chunk, embed, retrieve, analyze, score, persist, emit terminal SSE. It is
// the asynq handler's body (task.go) and is safe to call directly in tests.
func (e *Engine) RunAnalysis(ctx context.Context, reviewID uint64) error {
	ctx = logger.CloneContext(ctx)
	ctx, span := tracing.StartSpan(ctx, "review.RunAnalysis")
	defer span.End()

	claimed, err := e.repo.ClaimPending(ctx, reviewID)
	if err != nil {
		return err
	}
	if !claimed {
		logger.Infof(ctx, "contract review %d already claimed, skipping", reviewID)
		return nil
	}

	common.PipelineInfo(ctx, "contract-review", "start", map[string]interface{}{"reviewId": reviewID})
	e.publish(reviewID, types.ReviewEventInfo, map[string]string{"message": "analysis started"})

	review, err := e.repo.GetByIDUnscoped(ctx, reviewID)
	if err != nil {
		return e.fail(ctx, reviewID, err)
	}

	text, err := e.runParse(ctx, reviewID, review)
	if err != nil {
		return e.fail(ctx, reviewID, err)
	}

	chunks := e.runChunk(ctx, reviewID, text)

	lawContext := e.runEmbedAndRetrieve(ctx, reviewID, review, chunks)

	clauses, summary, err := e.runAnalyze(ctx, reviewID, chunks, lawContext)
	if err != nil {
		return e.fail(ctx, reviewID, err)
	}

	if err := e.runScore(ctx, reviewID, summary, clauses); err != nil {
		return err
	}
	common.PipelineInfo(ctx, "contract-review", "complete", map[string]interface{}{
		"reviewId": reviewID, "totalRisks": len(clauses),
	})
	return nil
}

func (e *Engine) fail(ctx context.Context, reviewID uint64, cause error) error {
	msg := cause.Error()
	if appErr := apperrors.As(cause); appErr != nil {
		msg = appErr.Message
	}
	common.PipelineError(ctx, "contract-review", "failed", map[string]interface{}{
		"reviewId": reviewID, "error": msg,
	})
	if err := e.repo.Fail(ctx, reviewID, msg); err != nil {
		logger.Errorf(ctx, "contract review %d: record FAILED state: %v", reviewID, err)
	}
	e.publish(reviewID, types.ReviewEventError, map[string]string{"error": msg})
	return cause
}

func (e *Engine) runParse(ctx context.Context, reviewID uint64, review *types.ContractReview) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "review.parse")
	defer span.End()

	e.progress(reviewID, stageParse, 0, "正在解析合同文件")
	rc, err := e.blobStore.Get(ctx, review.StoredPath)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	text, err := e.parser.Parse(rc, review.OriginalFilename, review.Size)
	if err != nil {
		return "", err
	}
	e.progress(reviewID, stageParse, 20, "合同文件解析完成")
	return text, nil
}

func (e *Engine) runChunk(ctx context.Context, reviewID uint64, text string) []string {
	_, span := tracing.StartSpan(ctx, "review.chunk")
	defer span.End()

	e.progress(reviewID, stageChunk, 20, "正在拆分合同条款")
	chunks := e.chunker.Split(text)
	e.progress(reviewID, stageChunk, 35, fmt.Sprintf("拆分出 %d 个条款片段", len(chunks)))
	return chunks
}

// runEmbedAndRetrieve implements stages 3 and 4. Stage 3's indexing
// failures are logged but non-fatal per §4.14; stage 4 gathers one shared
// law-context set, queried with the first chunk (or the original filename
// when there are no chunks) rather than per-chunk, to bound the number of
// C13 retrieval calls one review issues.
func (e *Engine) runEmbedAndRetrieve(ctx context.Context, reviewID uint64, review *types.ContractReview, chunks []string) []types.Content {
	ctx, span := tracing.StartSpan(ctx, "review.embedAndRetrieve")
	defer span.End()

	e.progress(reviewID, stageEmbed, 35, "正在向量化合同条款")
	vectors, err := e.embedder.BatchEmbed(ctx, chunks)
	if err != nil {
		common.PipelineWarn(ctx, "contract-review", "embed-failed", map[string]interface{}{
			"reviewId": reviewID, "error": err.Error(),
		})
		logger.Errorf(ctx, "contract review %d: embed chunks: %v", reviewID, err)
	} else {
		segments := make([]types.VectorSegment, 0, len(chunks))
		for i, chunk := range chunks {
			if i >= len(vectors) {
				break
			}
			segments = append(segments, types.VectorSegment{
				ID:      uuid.NewString(),
				DocID:   reviewDocID(reviewID),
				Ordinal: i,
				Text:    chunk,
				Vector:  vectors[i],
				Metadata: types.IndexMetadata{
					SourceType:       types.IndexSourceContractReview,
					OriginalFilename: review.OriginalFilename,
					ReviewID:         reviewID,
				}.ToMap(),
			})
		}
		if err := e.vectorStore.InsertBatch(ctx, segments); err != nil {
			logger.Errorf(ctx, "contract review %d: index chunks: %v", reviewID, err)
		}
	}
	e.progress(reviewID, stageEmbed, 55, "合同条款向量化完成")

	e.progress(reviewID, stageRetrieve, 55, "正在检索相关法律条款")
	query := review.OriginalFilename
	if len(chunks) > 0 {
		query = chunks[0]
	}
	lawContext, err := e.ragService.RetrieveContext(ctx, query)
	if err != nil {
		logger.Errorf(ctx, "contract review %d: retrieve law context: %v", reviewID, err)
		lawContext = nil
	}
	if len(lawContext) > e.topK {
		lawContext = lawContext[:e.topK]
	}
	e.progress(reviewID, stageRetrieve, 70, fmt.Sprintf("检索到 %d 条相关法律依据", len(lawContext)))
	return lawContext
}

// runAnalyze implements stage 5: one C12 call per chunk, fanned out across
// the engine's bounded analysis pool (ants) so a large contract's chunks
// analyze concurrently instead of one model round-trip at a time, then
// merged back in chunk order into one risk-clause list.
func (e *Engine) runAnalyze(ctx context.Context, reviewID uint64, chunks []string, lawContext []types.Content) (
	[]types.RiskClause, *types.ReviewResult, error,
) {
	ctx, span := tracing.StartSpan(ctx, "review.analyze")
	defer span.End()

	e.progress(reviewID, stageAnalyze, 70, "正在进行风险分析")

	total := len(chunks)
	responses := make([]*analysisResponse, total)

	var (
		wg      sync.WaitGroup
		errOnce sync.Once
		firstErr error
		done    int32
	)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		wg.Add(1)
		submitErr := e.analyzePool.Submit(func() {
			defer wg.Done()
			resp, err := e.analyzeChunk(ctx, chunk, lawContext)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			responses[i] = resp
			n := atomic.AddInt32(&done, 1)
			pct := 70 + int(float64(n)/float64(total)*25)
			e.progress(reviewID, stageAnalyze, pct, fmt.Sprintf("已分析 %d/%d 个条款片段", n, total))
		})
		if submitErr != nil {
			wg.Done()
			errOnce.Do(func() { firstErr = submitErr })
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, nil, firstErr
	}

	var clauses []types.RiskClause
	var summaries, detailed, keyClauses []string
	for _, resp := range responses {
		if resp == nil {
			continue
		}
		if resp.Summary != "" {
			summaries = append(summaries, resp.Summary)
		}
		if resp.DetailedAnalysis != "" {
			detailed = append(detailed, resp.DetailedAnalysis)
		}
		keyClauses = append(keyClauses, resp.KeyClauses...)
		for _, rc := range resp.RiskClauses {
			clauses = append(clauses, types.RiskClause{
				Level:         rc.Level,
				Type:          rc.Type,
				ClauseText:    rc.ClauseText,
				Description:   rc.Description,
				Suggestion:    rc.Suggestion,
				LegalBasis:    rc.LegalBasis,
				PositionStart: rc.PositionStart,
				PositionEnd:   rc.PositionEnd,
			})
		}
	}

	result := &types.ReviewResult{
		Summary:          joinNonEmpty(summaries, "；"),
		DetailedAnalysis: joinNonEmpty(detailed, "\n\n"),
		KeyClauses:       dedupeStrings(keyClauses),
	}
	return clauses, result, nil
}

// runScore implements stage 6: compute the two scores, pick an overall risk
// level from the highest clause severity seen, persist, and emit the
// terminal events.
func (e *Engine) runScore(ctx context.Context, reviewID uint64, result *types.ReviewResult, clauses []types.RiskClause) error {
	ctx, span := tracing.StartSpan(ctx, "review.score")
	defer span.End()

	e.progress(reviewID, stageScore, 95, "正在生成评分与报告")

	totalRisks := len(clauses)
	level := overallRiskLevel(clauses)
	result.CompletenessScore = completenessScore(totalRisks, level)
	result.ComplianceScore = complianceScore(totalRisks, level)

	if err := e.repo.Complete(ctx, reviewID, result, level, totalRisks, clauses); err != nil {
		return err
	}

	review, err := e.repo.GetByIDUnscoped(ctx, reviewID)
	if err != nil {
		logger.Errorf(ctx, "contract review %d: reload after complete: %v", reviewID, err)
	} else {
		e.publish(reviewID, types.ReviewEventResult, review)
	}
	e.progress(reviewID, stageScore, 100, "分析完成")
	e.publish(reviewID, types.ReviewEventComplete, map[string]string{"message": "review complete"})
	return nil
}

// overallRiskLevel takes the highest severity seen across clauses, HIGH
// outranking MEDIUM outranking LOW; an empty clause list is LOW.
func overallRiskLevel(clauses []types.RiskClause) types.RiskLevel {
	level := types.RiskLevelLow
	for _, c := range clauses {
		switch c.Level {
		case types.RiskLevelHigh:
			return types.RiskLevelHigh
		case types.RiskLevelMedium:
			level = types.RiskLevelMedium
		}
	}
	return level
}

// completenessScore implements §4.14 stage 6's formula:
// max(20, 100 - min(totalRisks*5, 50) - (HIGH?20 : MEDIUM?10 : 0)).
func completenessScore(totalRisks int, level types.RiskLevel) int {
	penalty := totalRisks * 5
	if penalty > 50 {
		penalty = 50
	}
	switch level {
	case types.RiskLevelHigh:
		penalty += 20
	case types.RiskLevelMedium:
		penalty += 10
	}
	score := 100 - penalty
	if score < 20 {
		score = 20
	}
	return score
}

// complianceScore is not formula-specified by spec.md beyond "by the
// formulas" (plural) alongside completeness; it mirrors the same shape
// with a gentler high-risk penalty so the two scores diverge meaningfully
// instead of tracking each other exactly.
func complianceScore(totalRisks int, level types.RiskLevel) int {
	penalty := totalRisks * 4
	if penalty > 40 {
		penalty = 40
	}
	if level == types.RiskLevelHigh {
		penalty += 15
	}
	score := 100 - penalty
	if score < 30 {
		score = 30
	}
	return score
}

func joinNonEmpty(parts []string, sep string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

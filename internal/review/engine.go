// Package review implements the Contract-Review Engine (C15): the async
// state machine over one uploaded contract — persist record, parse, chunk,
// embed, retrieve law context, run LLM analysis, score and persist risks,
// all while emitting progress over the §4.14 SSE contract.
package review

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/hibiken/asynq"
	"github.com/panjf2000/ants/v2"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/logger"
	"github.com/Tencent/WeKnora/internal/models/chat"
	"github.com/Tencent/WeKnora/internal/models/embedding"
	"github.com/Tencent/WeKnora/internal/ragcore/service"
	"github.com/Tencent/WeKnora/internal/textproc"
	"github.com/Tencent/WeKnora/internal/types"
	"github.com/Tencent/WeKnora/internal/types/interfaces"
)

// TaskTypeAnalyze names the asynq task type a review's analysis runs under.
const TaskTypeAnalyze = "contract:analyze"

// Engine wires the C2/C1/C3/C4/C13/C12 collaborators the pipeline composes.
type Engine struct {
	repo        interfaces.ContractReviewRepository
	parser      parser
	chunker     *textproc.Processor
	embedder    embedding.Embedder
	vectorStore interfaces.VectorStore
	ragService  *service.Service
	dispatcher  *chat.Dispatcher
	modelName   chat.BackendName
	blobStore   BlobStore
	asynqClient *asynq.Client
	hub         *hub
	topK        int
	analyzePool *ants.Pool
}

// parser is the narrow slice of docparser.Parser the engine depends on,
// named here so tests can substitute a stub.
type parser interface {
	Parse(r io.Reader, filename string, size int64) (string, error)
}

// Config collects Engine's constructor arguments.
type Config struct {
	Repo        interfaces.ContractReviewRepository
	Parser      parser
	Chunker     *textproc.Processor
	Embedder    embedding.Embedder
	VectorStore interfaces.VectorStore
	RAGService  *service.Service
	Dispatcher  *chat.Dispatcher
	ModelName   chat.BackendName
	BlobStore   BlobStore
	AsynqClient *asynq.Client
	RetrievalTopK int
	// AnalyzeConcurrency bounds how many chunks stage 5 analyzes at once.
	// <= 0 defaults to 4.
	AnalyzeConcurrency int
}

// New builds an Engine from cfg. It panics if the bounded analysis pool
// cannot be created, matching ants' own NewPool failure mode (invalid size).
func New(cfg Config) *Engine {
	topK := cfg.RetrievalTopK
	if topK <= 0 {
		topK = 5
	}
	concurrency := cfg.AnalyzeConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	pool, err := ants.NewPool(concurrency)
	if err != nil {
		panic(fmt.Sprintf("review: build analysis pool: %v", err))
	}
	return &Engine{
		repo:          cfg.Repo,
		parser:        cfg.Parser,
		chunker:       cfg.Chunker,
		embedder:      cfg.Embedder,
		vectorStore:   cfg.VectorStore,
		ragService:    cfg.RAGService,
		dispatcher:    cfg.Dispatcher,
		modelName:     cfg.ModelName,
		blobStore:     cfg.BlobStore,
		asynqClient:   cfg.AsynqClient,
		hub:           newHub(),
		topK:          topK,
		analyzePool:   pool,
	}
}

// Close releases the engine's bounded analysis pool.
func (e *Engine) Close() {
	e.analyzePool.Release()
}

// reviewDocID is the synthetic VectorStore document id every segment
// indexed from reviewID's upload carries, reusing DeleteByDocumentID
// unmodified for the reprocess operation's "clear vector segments" step.
func reviewDocID(reviewID uint64) string {
	return fmt.Sprintf("review:%d", reviewID)
}

// Upload implements the upload half of C15: hash and store the file, create
// the PENDING record, enqueue analysis. (userId, fileHash) duplicates are
// allowed — logged, not rejected, per spec.md's ContractReview invariants.
func (e *Engine) Upload(ctx context.Context, tenantID, userID uint64, filename string, size int64, r io.Reader) (
	*types.ContractReview, error,
) {
	hasher := sha256.New()
	tee := io.TeeReader(r, hasher)

	key := fmt.Sprintf("%d/%d-%s", tenantID, time.Now().UnixNano(), filename)
	storedPath, err := e.blobStore.Put(ctx, key, tee, size)
	if err != nil {
		return nil, err
	}

	fileHash := hex.EncodeToString(hasher.Sum(nil))
	if existing, err := e.repo.GetByFileHash(ctx, fileHash, tenantID); err == nil && existing != nil {
		logger.Infof(ctx, "duplicate contract upload: hash %s already reviewed as %d", fileHash, existing.ID)
	}

	review := &types.ContractReview{
		TenantID:         tenantID,
		UserID:           userID,
		OriginalFilename: filename,
		StoredPath:       storedPath,
		Size:             size,
		FileHash:         fileHash,
		Status:           types.ReviewStatusPending,
	}
	if err := e.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	if err := e.enqueue(ctx, review.ID); err != nil {
		return nil, err
	}
	return review, nil
}

func (e *Engine) enqueue(ctx context.Context, reviewID uint64) error {
	task := asynq.NewTask(TaskTypeAnalyze, []byte(fmt.Sprintf(`{"reviewId":%d}`, reviewID)))
	if _, err := e.asynqClient.EnqueueContext(ctx, task); err != nil {
		return apperrors.NewInternalServerError(err, "enqueue contract review %d", reviewID)
	}
	return nil
}

// Get loads review id, owner-scoped to tenantID.
func (e *Engine) Get(ctx context.Context, id, tenantID uint64) (*types.ContractReview, error) {
	return e.repo.GetByID(ctx, id, tenantID)
}

// List returns one page of tenantID's reviews.
func (e *Engine) List(ctx context.Context, tenantID uint64, page, size int) ([]*types.ContractReview, int64, error) {
	return e.repo.ListPage(ctx, tenantID, page, size)
}

// TriggerAnalysis implements §4.14's idempotence rule: re-triggering a
// COMPLETED or PROCESSING review is a no-op returning the current state;
// only a PENDING review gets (re-)enqueued.
func (e *Engine) TriggerAnalysis(ctx context.Context, id, tenantID uint64) (*types.ContractReview, error) {
	rev, err := e.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if rev.Status != types.ReviewStatusPending {
		return rev, nil
	}
	if err := e.enqueue(ctx, id); err != nil {
		return nil, err
	}
	return rev, nil
}

// Reprocess clears the review's indexed segments, resets it to PENDING, and
// enqueues fresh analysis — modeled as a distinct operation from analyze
// per §4.14's closing note.
func (e *Engine) Reprocess(ctx context.Context, id, tenantID uint64) error {
	if _, err := e.repo.GetByID(ctx, id, tenantID); err != nil {
		return err
	}
	if err := e.vectorStore.DeleteByDocumentID(ctx, reviewDocID(id)); err != nil {
		logger.Errorf(ctx, "reprocess %d: clear vector segments: %v", id, err)
	}
	if err := e.repo.ResetToPending(ctx, id); err != nil {
		return err
	}
	return e.enqueue(ctx, id)
}

// Subscribe registers an SSE watcher for reviewID's progress events.
func (e *Engine) Subscribe(reviewID uint64) (chan reviewEvent, func()) {
	return e.hub.subscribe(reviewID)
}

func (e *Engine) publish(reviewID uint64, eventType types.ReviewEventType, payload any) {
	e.hub.publish(reviewID, reviewEvent{Type: eventType, Payload: payload})
}

func (e *Engine) progress(reviewID uint64, stage string, pct int, message string) {
	e.publish(reviewID, types.ReviewEventProgress, types.ReviewProgress{Stage: stage, Progress: pct, Message: message})
}

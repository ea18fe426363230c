// Package knowledge implements the Knowledge-Doc Registry's (C5) ingestion
// path: parse an uploaded reference document, dedup it by content hash, chunk
// and embed it, and index it into the Vector Store (C4) under
// sourceType=document so the Content Retriever's (C8) "legal_corpus"
// retriever can find it. This is the writer side of the corpus the
// Advanced-RAG Service (C13) and Contract-Review Engine (C15) only read from.
package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/logger"
	"github.com/Tencent/WeKnora/internal/models/embedding"
	"github.com/Tencent/WeKnora/internal/textproc"
	"github.com/Tencent/WeKnora/internal/types"
	"github.com/Tencent/WeKnora/internal/types/interfaces"
)

// parser is the narrow slice of docparser.Parser the service depends on,
// named here so tests can substitute a stub (mirrors review.Engine's own
// parser seam).
type parser interface {
	Parse(r io.Reader, filename string, size int64) (string, error)
}

// Service is the Knowledge-Doc Registry's ingestion and lookup surface: it
// composes the Document Parser (C2), Text Processor (C1), Embedding Client
// (C3), Vector Store (C4), and the registry repository into one Ingest call,
// plus the plain CRUD reads/deletes the repository already provides.
type Service struct {
	repo        interfaces.KnowledgeDocumentRepository
	parser      parser
	chunker     *textproc.Processor
	embedder    embedding.Embedder
	vectorStore interfaces.VectorStore
}

// Config collects Service's constructor arguments.
type Config struct {
	Repo        interfaces.KnowledgeDocumentRepository
	Parser      parser
	Chunker     *textproc.Processor
	Embedder    embedding.Embedder
	VectorStore interfaces.VectorStore
}

// New builds a Service from cfg.
func New(cfg Config) *Service {
	return &Service{
		repo:        cfg.Repo,
		parser:      cfg.Parser,
		chunker:     cfg.Chunker,
		embedder:    cfg.Embedder,
		vectorStore: cfg.VectorStore,
	}
}

// Ingest parses r, dedups it against the tenant's existing corpus by
// content hash, and, when it is genuinely new, persists a KnowledgeDocument
// row and indexes its chunks into the Vector Store tagged
// sourceType=document. A byte-identical re-upload is not an error: it
// returns the existing document unchanged rather than re-chunking and
// re-embedding it.
func (s *Service) Ingest(
	ctx context.Context, tenantID uint64, title, filename string, size int64, docType types.DocumentType, r io.Reader,
) (*types.KnowledgeDocument, error) {
	text, err := s.parser.Parse(r, filename, size)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewBadRequestError(apperrors.KindEmptyDocument, "document %s has no extractable text", filename)
	}

	hash := contentHash(text)
	if existing, err := s.repo.GetByContentHash(ctx, hash, tenantID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	if title == "" {
		title = filename
	}
	doc := &types.KnowledgeDocument{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Title:       title,
		Content:     text,
		SourceFile:  filename,
		ContentHash: hash,
		DocType:     docType,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.index(ctx, doc); err != nil {
		logger.Errorf(ctx, "knowledge document %s: index: %v", doc.ID, err)
	}
	return doc, nil
}

// index chunks and embeds doc's content and inserts the resulting segments
// into the Vector Store. Indexing failures are returned to the caller
// (Ingest logs them, Reindex returns them) rather than rolling back the
// already-persisted registry row: the document exists and can be
// re-indexed by a future reprocess, matching the Contract-Review Engine's
// own non-fatal treatment of stage-3 embed failures.
func (s *Service) index(ctx context.Context, doc *types.KnowledgeDocument) error {
	chunks := s.chunker.Split(doc.Content)
	if len(chunks) == 0 {
		return nil
	}

	vectors, err := s.embedder.BatchEmbed(ctx, chunks)
	if err != nil {
		return apperrors.NewUpstreamError(apperrors.KindEmbeddingUnavailable, err, "embed knowledge document %s", doc.ID)
	}

	segments := make([]types.VectorSegment, 0, len(chunks))
	for i, chunk := range chunks {
		if i >= len(vectors) {
			break
		}
		segments = append(segments, types.VectorSegment{
			ID:      uuid.NewString(),
			DocID:   doc.ID,
			Ordinal: i,
			Text:    chunk,
			Vector:  vectors[i],
			Metadata: types.IndexMetadata{
				SourceType:       types.IndexSourceDocument,
				Source:           doc.Title,
				OriginalFilename: doc.SourceFile,
				Category:         string(doc.DocType),
				DocumentID:       doc.ID,
			}.ToMap(),
		})
	}
	if err := s.vectorStore.InsertBatch(ctx, segments); err != nil {
		return apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err, "index knowledge document %s", doc.ID)
	}
	return nil
}

// Get returns one tenant-scoped document by id.
func (s *Service) Get(ctx context.Context, id string, tenantID uint64) (*types.KnowledgeDocument, error) {
	return s.repo.GetByID(ctx, id, tenantID)
}

// List returns every document indexed for tenantID, most recent first.
func (s *Service) List(ctx context.Context, tenantID uint64) ([]*types.KnowledgeDocument, error) {
	return s.repo.List(ctx, tenantID)
}

// Delete removes doc's registry row and its indexed segments. The segment
// delete runs even if the registry delete already dropped the row, so a
// partial prior failure can't leave orphaned vectors behind.
func (s *Service) Delete(ctx context.Context, id string, tenantID uint64) error {
	if err := s.repo.Delete(ctx, id, tenantID); err != nil {
		return err
	}
	return s.vectorStore.DeleteByDocumentID(ctx, id)
}

// Reindex re-chunks and re-embeds doc, replacing its existing segments. Used
// when a corpus document's chunking or embedding config changes after it was
// first ingested.
func (s *Service) Reindex(ctx context.Context, id string, tenantID uint64) error {
	doc, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return err
	}
	if err := s.vectorStore.DeleteByDocumentID(ctx, id); err != nil {
		return err
	}
	return s.index(ctx, doc)
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

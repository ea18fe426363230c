package interfaces

import (
	"context"

	"github.com/Tencent/WeKnora/internal/types"
)

// VectorMatch is one scored nearest-neighbor result from a VectorStore
// search.
type VectorMatch struct {
	Segment types.VectorSegment
	Score   float64
}

// VectorStore is the Vector Store's (C4) interface: insert, search, and
// lifecycle operations against whichever backend (Qdrant or pgvector) is
// configured.
type VectorStore interface {
	Insert(ctx context.Context, segment types.VectorSegment) error
	InsertBatch(ctx context.Context, segments []types.VectorSegment) error
	Search(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]VectorMatch, error)
	DeleteByDocumentID(ctx context.Context, docID string) error
	Count(ctx context.Context) (int64, error)
}

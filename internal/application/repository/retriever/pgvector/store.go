// Package pgvector implements the Vector Store (C4) against a Postgres
// table with a pgvector column, using negative inner product — the
// backend's similarity metric per the Vector Store's resolved Open
// Question (distinct from the Qdrant backend's cosine).
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"

	pgv "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/types"
	"github.com/Tencent/WeKnora/internal/types/interfaces"
)

// segmentRow is the gorm model backing the vector_segments table.
type segmentRow struct {
	ID       string `gorm:"column:id;primaryKey"`
	DocID    string `gorm:"column:doc_id;index"`
	Ordinal  int    `gorm:"column:ordinal"`
	Text     string `gorm:"column:text"`
	Vector   pgv.Vector `gorm:"column:embedding;type:vector"`
	Metadata []byte `gorm:"column:metadata;type:jsonb"`
}

func (segmentRow) TableName() string { return "vector_segments" }

// Store implements interfaces.VectorStore against a Postgres table with a
// pgvector embedding column.
type Store struct {
	db *gorm.DB
}

// New creates a Store and ensures the backing table and extension exist.
func New(db *gorm.DB) (*Store, error) {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err, "enable pgvector extension")
	}
	if err := db.AutoMigrate(&segmentRow{}); err != nil {
		return nil, apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err, "migrate vector_segments table")
	}
	return &Store{db: db}, nil
}

func toRow(segment types.VectorSegment) (*segmentRow, error) {
	metaBytes, err := json.Marshal(segment.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal segment metadata: %w", err)
	}
	return &segmentRow{
		ID:       segment.ID,
		DocID:    segment.DocID,
		Ordinal:  segment.Ordinal,
		Text:     segment.Text,
		Vector:   pgv.NewVector(segment.Vector),
		Metadata: metaBytes,
	}, nil
}

func (s *Store) Insert(ctx context.Context, segment types.VectorSegment) error {
	return s.InsertBatch(ctx, []types.VectorSegment{segment})
}

func (s *Store) InsertBatch(ctx context.Context, segments []types.VectorSegment) error {
	if len(segments) == 0 {
		return nil
	}
	rows := make([]*segmentRow, 0, len(segments))
	for _, seg := range segments {
		row, err := toRow(seg)
		if err != nil {
			return apperrors.NewInternalServerError(err, "build pgvector row for segment %s", seg.ID)
		}
		rows = append(rows, row)
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err, "insert %d segments", len(rows))
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]interfaces.VectorMatch, error) {
	q := s.db.WithContext(ctx).Model(&segmentRow{})
	for key, value := range filter {
		q = q.Where("metadata ->> ? = ?", key, fmt.Sprintf("%v", value))
	}

	var rows []segmentRow
	err := q.Order(gorm.Expr("embedding <#> ?", pgv.NewVector(vector))).
		Limit(topK).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err, "search vector_segments")
	}

	matches := make([]interfaces.VectorMatch, 0, len(rows))
	for _, row := range rows {
		var meta map[string]any
		_ = json.Unmarshal(row.Metadata, &meta)
		seg := types.VectorSegment{ID: row.ID, DocID: row.DocID, Ordinal: row.Ordinal, Text: row.Text, Metadata: meta}
		matches = append(matches, interfaces.VectorMatch{Segment: seg, Score: innerProduct(row.Vector, vector)})
	}
	return matches, nil
}

// innerProduct is used only to report a Score comparable in sign/scale with
// the Qdrant backend's cosine score (higher is more similar).
func innerProduct(a pgv.Vector, b []float32) float64 {
	slice := a.Slice()
	var sum float64
	n := len(slice)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += float64(slice[i]) * float64(b[i])
	}
	return sum
}

func (s *Store) DeleteByDocumentID(ctx context.Context, docID string) error {
	err := s.db.WithContext(ctx).Where("doc_id = ?", docID).Delete(&segmentRow{}).Error
	if err != nil {
		return apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err, "delete segments for document %s", docID)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&segmentRow{}).Count(&count).Error; err != nil {
		return 0, apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err, "count vector_segments")
	}
	return count, nil
}

// Package qdrant implements the Vector Store (C4) against a Qdrant
// collection, using cosine similarity — the backend's similarity metric per
// the Vector Store's resolved Open Question.
package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/types"
	"github.com/Tencent/WeKnora/internal/types/interfaces"
)

// Store implements interfaces.VectorStore against a single Qdrant
// collection.
type Store struct {
	client         *qdrant.Client
	collectionName string
	dim            uint64
}

// New creates a Store and ensures its backing collection exists with
// cosine-distance vectors of dimension dim.
func New(ctx context.Context, client *qdrant.Client, collectionName string, dim int) (*Store, error) {
	s := &Store{client: client, collectionName: collectionName, dim: uint64(dim)}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return nil, apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err, "check qdrant collection")
	}
	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.dim,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err, "create qdrant collection")
		}
	}
	return s, nil
}

func (s *Store) toPoint(segment types.VectorSegment) (*qdrant.PointStruct, error) {
	payload, err := qdrant.TryValueMap(segment.Metadata)
	if err != nil {
		return nil, fmt.Errorf("convert metadata to payload: %w", err)
	}
	if payload == nil {
		payload = map[string]*qdrant.Value{}
	}
	textValue, err := qdrant.NewValue(segment.Text)
	if err != nil {
		return nil, fmt.Errorf("build text value: %w", err)
	}
	payload["__text__"] = textValue
	docIDValue, err := qdrant.NewValue(segment.DocID)
	if err != nil {
		return nil, fmt.Errorf("build doc id value: %w", err)
	}
	payload["__doc_id__"] = docIDValue

	return &qdrant.PointStruct{
		Id:      qdrant.NewID(segment.ID),
		Vectors: qdrant.NewVectors(segment.Vector...),
		Payload: payload,
	}, nil
}

func (s *Store) Insert(ctx context.Context, segment types.VectorSegment) error {
	return s.InsertBatch(ctx, []types.VectorSegment{segment})
}

func (s *Store) InsertBatch(ctx context.Context, segments []types.VectorSegment) error {
	if len(segments) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, 0, len(segments))
	for _, seg := range segments {
		point, err := s.toPoint(seg)
		if err != nil {
			return apperrors.NewInternalServerError(err, "build qdrant point for segment %s", seg.ID)
		}
		points = append(points, point)
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err, "upsert %d points", len(points))
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]interfaces.VectorMatch, error) {
	limit := uint64(topK)
	withPayload := qdrant.NewWithPayload(true)
	query := &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    withPayload,
	}
	if len(filter) > 0 {
		query.Filter = toEqualityFilter(filter)
	}

	scored, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err, "query qdrant collection %s", s.collectionName)
	}

	matches := make([]interfaces.VectorMatch, 0, len(scored))
	for _, point := range scored {
		seg := types.VectorSegment{Metadata: map[string]any{}}
		if id := point.GetId(); id != nil {
			seg.ID = id.GetUuid()
			if seg.ID == "" {
				seg.ID = fmt.Sprintf("%d", id.GetNum())
			}
		}
		payload := point.GetPayload()
		for key, value := range payload {
			switch key {
			case "__text__":
				seg.Text = value.GetStringValue()
			case "__doc_id__":
				seg.DocID = value.GetStringValue()
			default:
				seg.Metadata[key] = qdrantValueToAny(value)
			}
		}
		matches = append(matches, interfaces.VectorMatch{Segment: seg, Score: float64(point.GetScore())})
	}
	return matches, nil
}

func (s *Store) DeleteByDocumentID(ctx context.Context, docID string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatchKeyword("__doc_id__", docID)},
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collectionName,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err, "delete points for document %s", docID)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	exact := true
	count, err := s.client.Count(ctx, &qdrant.CountPoints{CollectionName: s.collectionName, Exact: &exact})
	if err != nil {
		return 0, apperrors.NewUpstreamError(apperrors.KindVectorStoreUnavailable, err, "count qdrant collection %s", s.collectionName)
	}
	return int64(count), nil
}

// toEqualityFilter builds a Must-all Qdrant filter from a flat
// key-equals-value metadata map, the Vector Store's documented filter shape.
func toEqualityFilter(filter map[string]any) *qdrant.Filter {
	f := &qdrant.Filter{}
	for key, value := range filter {
		switch v := value.(type) {
		case string:
			f.Must = append(f.Must, qdrant.NewMatchKeyword(key, v))
		case bool:
			f.Must = append(f.Must, qdrant.NewMatchBool(key, v))
		case int:
			f.Must = append(f.Must, qdrant.NewMatchInt(key, int64(v)))
		case int64:
			f.Must = append(f.Must, qdrant.NewMatchInt(key, v))
		}
	}
	return f
}

func qdrantValueToAny(value *qdrant.Value) any {
	if value == nil {
		return nil
	}
	switch kind := value.Kind.(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}

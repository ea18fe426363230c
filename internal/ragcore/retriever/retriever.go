// Package retriever implements the Content Retriever (C8): a thin wrapper
// composing the Embedding Client (C3) and Vector Store (C4) behind a single
// retrieve(query) call.
package retriever

import (
	"context"

	"github.com/Tencent/WeKnora/internal/models/embedding"
	"github.com/Tencent/WeKnora/internal/types"
	"github.com/Tencent/WeKnora/internal/types/interfaces"
)

// DefaultTopK is §4.8's default result count when a caller doesn't override it.
const DefaultTopK = 10

// Retriever turns a query string into scored Content candidates.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]types.Content, error)
}

// Service is the default Retriever: embed the query, search the vector
// store, and shape the hits into ranked Content. An empty corpus is not an
// error, it just yields an empty list.
type Service struct {
	name     string
	embedder embedding.Embedder
	store    interfaces.VectorStore
	filter   map[string]any
}

// New builds a retriever named name over embedder/store. filter, when
// non-nil, is applied to every search (e.g. restricting to one tenant's
// corpus or to sourceType=contract_review for a single review's segments).
func New(name string, embedder embedding.Embedder, store interfaces.VectorStore, filter map[string]any) *Service {
	return &Service{name: name, embedder: embedder, store: store, filter: filter}
}

// Name returns the retriever's registry key, used by the Router (C7) to
// address it.
func (s *Service) Name() string {
	return s.name
}

func (s *Service) Retrieve(ctx context.Context, query string, topK int) ([]types.Content, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if query == "" {
		return nil, nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.Search(ctx, vector, topK, s.filter)
	if err != nil {
		return nil, err
	}

	contents := make([]types.Content, 0, len(matches))
	for rank, m := range matches {
		contentType, _ := m.Segment.Metadata["content_type"].(string)
		source, _ := m.Segment.Metadata["source"].(string)
		contents = append(contents, types.Content{
			Text:        m.Segment.Text,
			Source:      source,
			ContentType: inferOrDefault(types.ContentType(contentType), m.Segment.Text),
			Score:       m.Score,
			Rank:        rank,
			Metadata:    m.Segment.Metadata,
		})
	}
	return contents, nil
}

// inferOrDefault keeps a caller-supplied content type from the segment's
// metadata, and otherwise falls back to the shared inference rules so every
// Content entering C9 carries a type.
func inferOrDefault(declared types.ContentType, text string) types.ContentType {
	if declared != "" {
		return declared
	}
	return types.InferContentType(text)
}

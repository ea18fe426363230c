// Package rerank implements the optional reranking stage the Content
// Aggregator (C9) can call after Reciprocal Rank Fusion and its legal
// relevance re-rank pass, before truncation: a second opinion on ordering
// from a dedicated cross-encoder API.
package rerank

import (
	"context"
	"fmt"
)

// RerankerConfig configures a Reranker before it is constructed.
type RerankerConfig struct {
	Provider  string
	APIKey    string
	BaseURL   string
	ModelName string
	ModelID   string
}

// DocumentInfo is the document text a RankResult carries back, when the
// upstream API was asked to return it.
type DocumentInfo struct {
	Text string `json:"text"`
}

// RankResult is one document's position and score in a reranked list.
type RankResult struct {
	Index          int          `json:"index"`
	Document       DocumentInfo `json:"document,omitempty"`
	RelevanceScore float64      `json:"relevance_score"`
}

// Reranker scores a set of documents against a query, returning them
// ordered most to least relevant.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string) ([]RankResult, error)
	GetModelName() string
	GetModelID() string
}

// NewReranker constructs the Reranker selected by config.Provider.
func NewReranker(config *RerankerConfig) (Reranker, error) {
	switch config.Provider {
	case "jina":
		return NewJinaReranker(config)
	case "zhipu":
		return NewZhipuReranker(config)
	default:
		return nil, fmt.Errorf("unsupported reranker provider: %s", config.Provider)
	}
}

// Package router implements the Query Transformer / Router (C7): turning a
// QueryIntent into one or more queries, each routed to the retrievers that
// should run it.
package router

import (
	"sort"

	"github.com/Tencent/WeKnora/internal/types"
)

// RoutedQuery is one (query text, retriever names) pair the router
// produced for an intent.
type RoutedQuery struct {
	Query      string
	Retrievers []string
}

// Router routes a QueryIntent to transformed queries and retrievers. The
// default implementation performs the identity transform against the
// single legal-document corpus retriever, preserving the original query
// text so PRECISE_ARTICLE lookups remain literal.
type Router struct {
	retrieverNames []string
}

// New creates a Router that sends every query to retrieverNames, in a
// fixed, sorted order so routes are deterministic for a given intent.
func New(retrieverNames ...string) *Router {
	names := append([]string(nil), retrieverNames...)
	sort.Strings(names)
	if len(names) == 0 {
		names = []string{"legal_corpus"}
	}
	return &Router{retrieverNames: names}
}

// Route produces the transformed-query set for intent. The identity
// transform is always included; PRECISE_ARTICLE and CHAPTER_LEVEL intents
// use only the identity query, since expanding a literal article lookup
// would weaken its precision. COMPLEX intents additionally route a
// law-name-scoped query when one was extracted, so a multi-clause question
// still gets a direct hit against its named law.
func (r *Router) Route(intent *types.QueryIntent) []RoutedQuery {
	queries := []RoutedQuery{{Query: intent.OriginalQuery, Retrievers: r.retrieverNames}}

	if intent.QueryType == types.QueryTypeComplex && intent.LawName != "" {
		queries = append(queries, RoutedQuery{Query: intent.LawName, Retrievers: r.retrieverNames})
	}

	return queries
}

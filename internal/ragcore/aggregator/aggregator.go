// Package aggregator implements the Content Aggregator (C9): scoring,
// de-duplicating, rank-fusing, and legal-relevance re-ranking the candidate
// passages multiple retrievers produced for one query.
package aggregator

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/Tencent/WeKnora/internal/logger"
	"github.com/Tencent/WeKnora/internal/models/rerank"
	"github.com/Tencent/WeKnora/internal/types"
)

// Config tunes the four-step algorithm in §4.9. Zero values fall back to
// the spec's defaults. Reranker is an optional fifth pass beyond §4.9: when
// set, it asks a dedicated cross-encoder for a second opinion on the
// already-fused top results and blends it in before truncation. A nil
// Reranker leaves the four-step algorithm untouched.
type Config struct {
	SimilarityThreshold float64 // Jaccard merge threshold, default 0.85
	RRFConstant         int     // RRF's k, default 60
	MaxResults          int     // truncation length, default 10
	Reranker            rerank.Reranker
}

func (c Config) withDefaults() Config {
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = 0.85
	}
	if c.RRFConstant <= 0 {
		c.RRFConstant = 60
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 10
	}
	return c
}

// Aggregator is the default Content Aggregator.
type Aggregator struct {
	cfg Config
}

// New builds an Aggregator with cfg, defaulting zero fields. A nil
// cfg.Reranker is a valid, common value meaning "skip the optional fifth
// pass" — withDefaults leaves it untouched.
func New(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg.withDefaults()}
}

// candidate is a Content plus its arrival order, kept to break score ties
// deterministically in favor of whichever candidate arrived first.
type candidate struct {
	content types.Content
	arrival int
}

// Aggregate runs the full §4.9 pipeline over the ranked lists one query
// produced against each retriever it was routed to, and returns at most
// cfg.MaxResults Content ordered by final score descending. When a Reranker
// is configured, its verdict on the post-fusion top results blends in as an
// additional signal before truncation.
func (a *Aggregator) Aggregate(ctx context.Context, query string, rankedLists [][]types.Content) []types.Content {
	queryTokens := tokenize(query)

	candidates := a.scoreAndCollect(query, queryTokens, rankedLists)
	merged := a.dedupe(candidates)
	a.fuseRanks(merged, rankedLists)
	a.rerankLegalRelevance(merged, query)

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].content.Score != merged[j].content.Score {
			return merged[i].content.Score > merged[j].content.Score
		}
		return merged[i].arrival < merged[j].arrival
	})

	if a.cfg.Reranker != nil {
		a.applyReranker(ctx, query, merged)
	}

	if len(merged) > a.cfg.MaxResults {
		merged = merged[:a.cfg.MaxResults]
	}

	out := make([]types.Content, len(merged))
	for i, c := range merged {
		c.content.Rank = i
		out[i] = c.content
	}
	return out
}

// applyReranker blends the configured cross-encoder's verdict into each
// surviving candidate's score, re-sorting afterward. A reranker failure is
// logged and ignored: the deterministic §4.9 ordering it was about to adjust
// stands on its own.
func (a *Aggregator) applyReranker(ctx context.Context, query string, merged []candidate) {
	texts := make([]string, len(merged))
	for i, c := range merged {
		texts[i] = c.content.Text
	}

	results, err := a.cfg.Reranker.Rerank(ctx, query, texts)
	if err != nil {
		logger.GetLogger(ctx).Warnf("aggregator: rerank pass failed, keeping fused order: %v", err)
		return
	}

	for _, r := range results {
		if r.Index < 0 || r.Index >= len(merged) {
			continue
		}
		merged[r.Index].content.Score = 0.7*merged[r.Index].content.Score + 0.3*r.RelevanceScore
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].content.Score != merged[j].content.Score {
			return merged[i].content.Score > merged[j].content.Score
		}
		return merged[i].arrival < merged[j].arrival
	})
}

// scoreAndCollect implements §4.9 step 1: base score = 0.7*keyword-match +
// 0.3*reciprocal-rank, scaled by content-type weight and length adjustment.
func (a *Aggregator) scoreAndCollect(query string, queryTokens []string, rankedLists [][]types.Content) []candidate {
	var out []candidate
	arrival := 0
	for _, list := range rankedLists {
		for _, c := range list {
			if c.ContentType == "" {
				c.ContentType = types.InferContentType(c.Text)
			}
			c.Score = baseScore(queryTokens, c)
			out = append(out, candidate{content: c, arrival: arrival})
			arrival++
		}
	}
	return out
}

func baseScore(queryTokens []string, c types.Content) float64 {
	keywordFraction := matchFraction(queryTokens, c.Text)
	reciprocalRank := 1.0 / float64(c.Rank+1)
	score := 0.7*keywordFraction + 0.3*reciprocalRank

	if w, ok := types.ContentTypeWeights[c.ContentType]; ok {
		score *= w
	}
	score *= lengthAdjustment(len(c.Text))

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func lengthAdjustment(length int) float64 {
	switch {
	case length < 50:
		return 0.7
	case length > 2000:
		return 0.8
	default:
		return 1.0
	}
}

func matchFraction(queryTokens []string, content string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	hit := 0
	for _, tok := range queryTokens {
		if strings.Contains(lower, tok) {
			hit++
		}
	}
	return float64(hit) / float64(len(queryTokens))
}

// dedupe implements §4.9 step 2: normalize each candidate's text, then
// merge any pair whose word-set Jaccard similarity exceeds the threshold,
// keeping the higher-scored instance.
func (a *Aggregator) dedupe(candidates []candidate) []candidate {
	var kept []candidate
	var keptWords [][]string

	for _, c := range candidates {
		normalized := normalize(c.content.Text)
		words := strings.Fields(normalized)

		mergedInto := -1
		for i, ew := range keptWords {
			if jaccard(words, ew) > a.cfg.SimilarityThreshold {
				mergedInto = i
				break
			}
		}

		if mergedInto < 0 {
			kept = append(kept, c)
			keptWords = append(keptWords, words)
			continue
		}

		if c.content.Score > kept[mergedInto].content.Score {
			kept[mergedInto] = c
			keptWords[mergedInto] = words
		}
	}

	return kept
}

var punctuationPattern = regexp.MustCompile(`[\p{P}\s]+`)

func normalize(text string) string {
	return strings.ToLower(punctuationPattern.ReplaceAllString(strings.TrimSpace(text), " "))
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	setA := toSet(a)
	setB := toSet(b)

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// fuseRanks implements §4.9 step 3: Reciprocal Rank Fusion across every
// original ranked list, blended 50/50 with the step-1 score.
func (a *Aggregator) fuseRanks(merged []candidate, rankedLists [][]types.Content) {
	rrf := make(map[string]float64, len(merged))
	for _, list := range rankedLists {
		for rank, c := range list {
			key := normalize(c.Text)
			rrf[key] += 1.0 / float64(a.cfg.RRFConstant+rank+1)
		}
	}

	for i := range merged {
		key := normalize(merged[i].content.Text)
		merged[i].content.Score = 0.5*merged[i].content.Score + 0.5*rrf[key]
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].content.Score != merged[j].content.Score {
			return merged[i].content.Score > merged[j].content.Score
		}
		return merged[i].arrival < merged[j].arrival
	})
}

// legal vocabulary tables for §4.9 step 4.
var legalEntityTerms = []string{"当事人", "甲方", "乙方", "丙方", "买方", "卖方", "出租人", "承租人", "原告", "被告"}

var legalRelationTerms = []string{"合同关系", "债权债务", "违约责任", "侵权责任", "代理关系", "担保关系"}

var legalTermDensity = map[string]float64{
	"民法典":  1.0,
	"合同法":  0.9,
	"违约责任": 0.8,
	"法律责任": 0.7,
	"侵权":   0.6,
	"仲裁":   0.5,
	"诉讼":   0.5,
}

// rerankLegalRelevance implements §4.9 step 4: blend each candidate's score
// with a legal-relevance signal built from entity overlap, relation
// mentions, and weighted legal-term density.
func (a *Aggregator) rerankLegalRelevance(merged []candidate, query string) {
	for i := range merged {
		relevance := legalRelevance(query, merged[i].content.Text)
		merged[i].content.Score = 0.6*merged[i].content.Score + 0.4*relevance
	}
}

func legalRelevance(query, content string) float64 {
	var score float64

	for _, term := range legalEntityTerms {
		if strings.Contains(content, term) && strings.Contains(query, term) {
			score += 0.1
		}
	}
	for _, term := range legalRelationTerms {
		if strings.Contains(content, term) || strings.Contains(query, term) {
			score += 0.05
		}
	}
	for term, weight := range legalTermDensity {
		if strings.Contains(content, term) {
			score += weight * 0.1
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func tokenize(query string) []string {
	words := strings.Fields(normalize(query))
	if len(words) > 0 {
		return words
	}
	// strings.Fields keeps a whitespace-free CJK query as one token, so this
	// per-rune fallback is reached only when normalize leaves no fields at
	// all (an empty or punctuation-only query).
	runes := []rune(normalize(query))
	tokens := make([]string, 0, len(runes))
	for _, r := range runes {
		if r == ' ' {
			continue
		}
		tokens = append(tokens, string(r))
	}
	return tokens
}

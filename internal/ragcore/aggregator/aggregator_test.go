package aggregator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tencent/WeKnora/internal/models/rerank"
	"github.com/Tencent/WeKnora/internal/types"
)

func TestAggregate_DedupesAndOrdersByScore(t *testing.T) {
	a := New(Config{})

	lists := [][]types.Content{
		{
			{Text: "违约责任由违约方承担，甲方应赔偿乙方损失", ContentType: types.ContentTypeContractClause, Rank: 0},
			{Text: "本合同自签订之日起生效", ContentType: types.ContentTypeContractClause, Rank: 1},
		},
		{
			// near-duplicate of the first item with trivial punctuation changes
			{Text: "违约责任由违约方承担, 甲方应赔偿乙方损失!", ContentType: types.ContentTypeContractClause, Rank: 0},
		},
	}

	out := a.Aggregate(context.Background(), "违约责任", lists)

	require.NotEmpty(t, out)
	// the near-duplicate pair collapses into one surviving candidate
	assert.Len(t, out, 2)
	for i, c := range out {
		assert.Equal(t, i, c.Rank)
	}
	// results come back sorted by descending score
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Score, out[i].Score)
	}
}

func TestAggregate_RespectsMaxResults(t *testing.T) {
	a := New(Config{MaxResults: 2})

	var list []types.Content
	for i := 0; i < 5; i++ {
		list = append(list, types.Content{Text: "条款内容各不相同编号" + string(rune('A'+i)), Rank: i})
	}

	out := a.Aggregate(context.Background(), "条款", [][]types.Content{list})
	assert.Len(t, out, 2)
}

// stubReranker reorders documents to put the document at flipIndex first,
// regardless of the fused order it receives.
type stubReranker struct {
	flipIndex int
}

func (s *stubReranker) Rerank(ctx context.Context, query string, documents []string) ([]rerank.RankResult, error) {
	results := make([]rerank.RankResult, len(documents))
	for i := range documents {
		score := 0.1
		if i == s.flipIndex {
			score = 1.0
		}
		results[i] = rerank.RankResult{Index: i, RelevanceScore: score}
	}
	return results, nil
}

func (s *stubReranker) GetModelName() string { return "stub" }
func (s *stubReranker) GetModelID() string   { return "stub" }

func TestAggregate_OptionalRerankerBlendsScore(t *testing.T) {
	plain := New(Config{})
	lists := [][]types.Content{
		{
			{Text: "第一条普通内容，没有法律术语", Rank: 0},
			{Text: "第二条普通内容，同样没有法律术语", Rank: 1},
		},
	}

	baseline := plain.Aggregate(context.Background(), "内容", lists)
	require.Len(t, baseline, 2)

	// flip whichever one the plain pipeline ranked last into the reranker's
	// favorite and confirm it rises to the top once the optional pass runs.
	loserText := baseline[1].Text
	var flipIndex int
	for i, c := range lists[0] {
		if c.Text == loserText {
			flipIndex = i
		}
	}

	withRerank := New(Config{Reranker: &stubReranker{flipIndex: flipIndex}})
	out := withRerank.Aggregate(context.Background(), "内容", lists)

	require.Len(t, out, 2)
	assert.Equal(t, loserText, out[0].Text)
}

func TestAggregate_RerankerFailureKeepsFusedOrder(t *testing.T) {
	plain := New(Config{})
	lists := [][]types.Content{
		{
			{Text: "第一条款项内容示例文本", Rank: 0},
			{Text: "第二条款项内容示例文本", Rank: 1},
		},
	}

	baseline := plain.Aggregate(context.Background(), "条款", lists)

	withFailingRerank := New(Config{Reranker: &erroringReranker{}})
	out := withFailingRerank.Aggregate(context.Background(), "条款", lists)

	require.Len(t, out, len(baseline))
	for i := range baseline {
		assert.Equal(t, baseline[i].Text, out[i].Text)
	}
}

type erroringReranker struct{}

func (e *erroringReranker) Rerank(ctx context.Context, query string, documents []string) ([]rerank.RankResult, error) {
	return nil, errors.New("rerank backend unavailable")
}
func (e *erroringReranker) GetModelName() string { return "erroring" }
func (e *erroringReranker) GetModelID() string   { return "erroring" }

func TestJaccard(t *testing.T) {
	assert.Equal(t, 1.0, jaccard(nil, nil))
	assert.Equal(t, 0.0, jaccard([]string{"a"}, []string{"b"}))
	assert.InDelta(t, 1.0/3.0, jaccard([]string{"a", "b"}, []string{"b", "c"}), 0.0001)
}

func TestTokenize_WhitespaceFreeQueryIsOneToken(t *testing.T) {
	// strings.Fields treats a whitespace-free CJK query as a single field,
	// so the rune-splitting fallback only ever fires once normalize strips
	// the query down to nothing (e.g. a punctuation-only query).
	assert.Equal(t, []string{"合同法"}, tokenize("合同法"))
}

func TestTokenize_PunctuationOnlyQueryFallsBackToRunes(t *testing.T) {
	assert.Empty(t, tokenize("？！。"))
}

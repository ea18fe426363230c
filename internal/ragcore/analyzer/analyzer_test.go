package analyzer

import (
	"testing"

	"github.com/Tencent/WeKnora/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestArabicToChineseNumeral(t *testing.T) {
	cases := map[int]string{
		1: "一", 3: "三", 13: "十三", 30: "三十",
		100: "一百", 101: "一百零一", 110: "一百一十",
		1000: "一千", 1024: "一千零二十四",
	}
	for n, want := range cases {
		assert.Equal(t, want, ArabicToChineseNumeral(n))
	}
}

func TestAnalyze(t *testing.T) {
	t.Run("precise article with arabic digits", func(t *testing.T) {
		intent := Analyze("环境保护法第30条规定了什么？")
		assert.Equal(t, types.QueryTypePreciseArticle, intent.QueryType)
		assert.Equal(t, "第三十条", intent.ArticleNumber)
		assert.Equal(t, "环境保护法", intent.LawName)
	})

	t.Run("precise article already in chinese numerals", func(t *testing.T) {
		intent := Analyze("环境保护法第三十条规定了什么？")
		assert.Equal(t, types.QueryTypePreciseArticle, intent.QueryType)
		assert.Equal(t, "第三十条", intent.ArticleNumber)
	})

	t.Run("chapter level", func(t *testing.T) {
		intent := Analyze("合同法第三章讲的是什么")
		assert.Equal(t, types.QueryTypeChapterLevel, intent.QueryType)
	})

	t.Run("conjunction with article tokens is still precise article", func(t *testing.T) {
		intent := Analyze("民法典第五百七十七条和第五百七十八条有什么区别")
		assert.Equal(t, types.QueryTypePreciseArticle, intent.QueryType)
	})

	t.Run("semantic fallback", func(t *testing.T) {
		intent := Analyze("什么是合同违约？")
		assert.Equal(t, types.QueryTypeSemantic, intent.QueryType)
	})
}

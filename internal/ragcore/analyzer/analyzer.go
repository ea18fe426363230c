// Package analyzer implements the Query Analyzer (C6): parsing a free-text
// user query into a structured QueryIntent.
package analyzer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Tencent/WeKnora/internal/types"
)

var (
	lawNameRe          = regexp.MustCompile(`《?([^《》，,。！？]+?(法|条例|规定|办法|准则|细则))》?`)
	articleChineseRe   = regexp.MustCompile(`第([零一二三四五六七八九十百千]+)条`)
	articleArabicRe    = regexp.MustCompile(`第(\d+)条`)
	articleSimplified  = regexp.MustCompile(`(\d+)条`)
	chapterRe          = regexp.MustCompile(`第([零一二三四五六七八九十百千\d]+)章`)
	sectionRe          = regexp.MustCompile(`第([零一二三四五六七八九十百千\d]+)节`)
	conjunctionRe      = regexp.MustCompile(`和|及|以及|或者|还有|、`)
)

// Analyze parses q into a QueryIntent per §4.5's extraction rules and type
// selection order.
func Analyze(q string) *types.QueryIntent {
	intent := &types.QueryIntent{OriginalQuery: q}

	if m := lawNameRe.FindStringSubmatch(q); m != nil {
		name := strings.Trim(m[0], "《》")
		name = strings.TrimPrefix(name, "中华人民共和国")
		intent.LawName = name
	}

	intent.ArticleNumber = extractArticle(q)
	intent.Chapter = extractChapterOrSection(q, chapterRe)
	intent.Section = extractChapterOrSection(q, sectionRe)

	intent.QueryType = classify(q, intent)
	return intent
}

// extractArticle implements §4.5's article extraction + normalization:
// recognize `第<CN>条`, `第<digits>条`, or the simplified `<digits>条`, and
// normalize every form to `第<chineseNumeral(N)>条`.
func extractArticle(q string) string {
	if m := articleChineseRe.FindStringSubmatch(q); m != nil {
		return "第" + m[1] + "条"
	}
	if m := articleArabicRe.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 9999 {
			return "第" + ArabicToChineseNumeral(n) + "条"
		}
	}
	if m := articleSimplified.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 9999 {
			return "第" + ArabicToChineseNumeral(n) + "条"
		}
	}
	return ""
}

func extractChapterOrSection(q string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(q)
	if m == nil {
		return ""
	}
	return m[0]
}

// classify implements §4.5's type-selection order: article present ->
// PRECISE_ARTICLE; chapter/section present -> CHAPTER_LEVEL; a conjunction
// together with a `第…` token -> COMPLEX; else SEMANTIC.
func classify(q string, intent *types.QueryIntent) types.QueryType {
	switch {
	case intent.ArticleNumber != "":
		return types.QueryTypePreciseArticle
	case intent.Chapter != "" || intent.Section != "":
		return types.QueryTypeChapterLevel
	case conjunctionRe.MatchString(q) && strings.Contains(q, "第"):
		return types.QueryTypeComplex
	default:
		return types.QueryTypeSemantic
	}
}

var (
	cnDigits = [...]string{"零", "一", "二", "三", "四", "五", "六", "七", "八", "九"}
	cnUnits  = [...]string{"", "十", "百", "千"}
)

// ArabicToChineseNumeral converts n (1..9999) to its Chinese-numeral legal
// form, e.g. 30 -> "三十", 101 -> "一百零一", 110 -> "一百一十".
func ArabicToChineseNumeral(n int) string {
	if n <= 0 || n > 9999 {
		return strconv.Itoa(n)
	}
	if n < 10 {
		return cnDigits[n]
	}

	digits := splitDigits(n)
	var b strings.Builder
	lastWasZero := false
	leading := true
	for i, d := range digits {
		unit := cnUnits[len(digits)-1-i]
		if d == 0 {
			lastWasZero = true
			continue
		}
		if lastWasZero && !leading {
			b.WriteString("零")
		}
		lastWasZero = false
		// Omit the leading "一十" -> "十" per conventional usage (十三, not 一十三).
		if !(leading && d == 1 && unit == "十") {
			b.WriteString(cnDigits[d])
		}
		b.WriteString(unit)
		leading = false
	}
	return b.String()
}

func splitDigits(n int) []int {
	var digits []int
	for _, p := range []int{1000, 100, 10, 1} {
		if n >= p || len(digits) > 0 {
			digits = append(digits, (n/p)%10)
		}
	}
	if len(digits) == 0 {
		digits = []int{n}
	}
	return digits
}

package types

import "strings"

// InferContentType implements §4.8 step 1's content-type inference rules,
// used whenever a retrieved segment's metadata doesn't already carry an
// explicit content type.
func InferContentType(text string) ContentType {
	switch {
	case containsArticleMarker(text) && (strings.Contains(text, "法") || strings.Contains(text, "典")):
		return ContentTypeLawProvision
	case strings.Contains(text, "案例") || strings.Contains(text, "判决") || strings.Contains(text, "法院"):
		return ContentTypeCaseReference
	case strings.Contains(text, "合同") && strings.Contains(text, "条款"):
		return ContentTypeContractClause
	case strings.Contains(text, "规定") || strings.Contains(text, "办法") || strings.Contains(text, "条例"):
		return ContentTypeRegulation
	default:
		return ContentTypeGeneral
	}
}

// containsArticleMarker reports whether text contains a "第...条" span,
// the article-citation pattern ("第N条") used throughout Chinese statutes.
func containsArticleMarker(text string) bool {
	i := strings.Index(text, "第")
	if i < 0 {
		return false
	}
	rest := text[i+len("第"):]
	j := strings.Index(rest, "条")
	return j >= 0
}

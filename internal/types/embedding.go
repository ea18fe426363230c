package types

// IndexSourceType distinguishes which pipeline populated a VectorSegment,
// since the Vector Store (C4) is shared between document indexing and
// contract-review indexing (§4.14 stage 3 tags segments
// sourceType=contract_review).
type IndexSourceType string

const (
	IndexSourceDocument       IndexSourceType = "document"
	IndexSourceContractReview IndexSourceType = "contract_review"
)

// IndexMetadata is the metadata map persisted alongside every VectorSegment,
// carrying the fields §3 names for VectorSegment: source, original_filename,
// category, section, article_number (when known), plus a back-reference to
// whichever owner produced it.
type IndexMetadata struct {
	SourceType       IndexSourceType `json:"sourceType"`
	Source           string          `json:"source,omitempty"`
	OriginalFilename string          `json:"original_filename,omitempty"`
	Category         string          `json:"category,omitempty"`
	Section          string          `json:"section,omitempty"`
	ArticleNumber    string          `json:"article_number,omitempty"`
	ReviewID         uint64          `json:"reviewId,omitempty"`
	DocumentID       string          `json:"documentId,omitempty"`
}

// ToMap flattens IndexMetadata into the generic map[string]any shape the
// Vector Store's metadata filter (§4.4) matches against by equality.
func (m IndexMetadata) ToMap() map[string]any {
	out := map[string]any{"sourceType": string(m.SourceType)}
	if m.Source != "" {
		out["source"] = m.Source
	}
	if m.OriginalFilename != "" {
		out["original_filename"] = m.OriginalFilename
	}
	if m.Category != "" {
		out["category"] = m.Category
	}
	if m.Section != "" {
		out["section"] = m.Section
	}
	if m.ArticleNumber != "" {
		out["article_number"] = m.ArticleNumber
	}
	if m.ReviewID != 0 {
		out["reviewId"] = m.ReviewID
	}
	if m.DocumentID != "" {
		out["documentId"] = m.DocumentID
	}
	return out
}

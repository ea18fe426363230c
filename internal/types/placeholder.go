package types

// PromptPlaceholder represents a placeholder that can be used in prompt
// templates rendered by the Content Injector (C10).
type PromptPlaceholder struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// PromptFieldType identifies which template a placeholder set applies to.
type PromptFieldType string

const (
	// PromptFieldSystemPrompt is the RAG-answer system prompt (§4.9).
	PromptFieldSystemPrompt PromptFieldType = "system_prompt"
	// PromptFieldNoKnowledgePrompt is the distinct no-knowledge prompt
	// emitted when Contents is empty (§4.9).
	PromptFieldNoKnowledgePrompt PromptFieldType = "no_knowledge_prompt"
	// PromptFieldAnalysisPrompt is the contract-review LLM analysis prompt
	// (§4.14 stage 5).
	PromptFieldAnalysisPrompt PromptFieldType = "analysis_prompt"
)

var (
	PlaceholderQuery = PromptPlaceholder{
		Name:        "query",
		Label:       "用户问题",
		Description: "用户当前的问题或查询内容",
	}

	PlaceholderReferenceKnowledge = PromptPlaceholder{
		Name:        "reference_knowledge",
		Label:       "参考知识",
		Description: "检索到的相关法律条文或合同条款段落",
	}

	PlaceholderCurrentTime = PromptPlaceholder{
		Name:        "current_time",
		Label:       "当前时间",
		Description: "当前系统时间（RFC3339 格式）",
	}

	PlaceholderClauseText = PromptPlaceholder{
		Name:        "clause_text",
		Label:       "合同条款",
		Description: "待分析的合同条款原文",
	}

	PlaceholderLegalContext = PromptPlaceholder{
		Name:        "legal_context",
		Label:       "相关法律依据",
		Description: "为该条款检索到的法律依据段落",
	}
)

// PlaceholdersByField returns the available placeholders for one template.
func PlaceholdersByField(fieldType PromptFieldType) []PromptPlaceholder {
	switch fieldType {
	case PromptFieldSystemPrompt:
		return []PromptPlaceholder{PlaceholderQuery, PlaceholderReferenceKnowledge, PlaceholderCurrentTime}
	case PromptFieldNoKnowledgePrompt:
		return []PromptPlaceholder{PlaceholderQuery, PlaceholderCurrentTime}
	case PromptFieldAnalysisPrompt:
		return []PromptPlaceholder{PlaceholderClauseText, PlaceholderLegalContext, PlaceholderCurrentTime}
	default:
		return []PromptPlaceholder{}
	}
}

// PlaceholderMap returns every template's available placeholder set.
func PlaceholderMap() map[PromptFieldType][]PromptPlaceholder {
	return map[PromptFieldType][]PromptPlaceholder{
		PromptFieldSystemPrompt:      PlaceholdersByField(PromptFieldSystemPrompt),
		PromptFieldNoKnowledgePrompt: PlaceholdersByField(PromptFieldNoKnowledgePrompt),
		PromptFieldAnalysisPrompt:    PlaceholdersByField(PromptFieldAnalysisPrompt),
	}
}

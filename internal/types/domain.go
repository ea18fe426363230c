package types

import "time"

// DocumentType enumerates the legal-document categories a KnowledgeDocument
// may carry.
type DocumentType string

const (
	DocumentTypeLaw               DocumentType = "LAW"
	DocumentTypeRegulation        DocumentType = "REGULATION"
	DocumentTypeCase              DocumentType = "CASE"
	DocumentTypeContractTemplate  DocumentType = "CONTRACT_TEMPLATE"
)

// KnowledgeDocument is one indexed legal or reference document.
type KnowledgeDocument struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	TenantID    uint64         `json:"-" gorm:"index"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	SourceFile  string         `json:"source_file"`
	ContentHash string         `json:"content_hash" gorm:"uniqueIndex"`
	DocType     DocumentType   `json:"document_type"`
	Metadata    map[string]any `json:"metadata" gorm:"serializer:json"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// VectorSegment is one chunk of one KnowledgeDocument (or one contract
// review upload, tagged via Metadata["sourceType"]).
type VectorSegment struct {
	ID       string         `json:"id" gorm:"primaryKey"`
	DocID    string         `json:"doc_id" gorm:"index"`
	Ordinal  int            `json:"ordinal"`
	Text     string         `json:"text"`
	Vector   []float32      `json:"-" gorm:"serializer:json"`
	Metadata map[string]any `json:"metadata" gorm:"serializer:json"`
}

// ChatSession is one conversation owned by one user.
type ChatSession struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        uint64    `json:"user_id" gorm:"index"`
	Title         string    `json:"title"`
	LastModelType ModelType `json:"last_model_type"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ChatRole enumerates the two turn-taking roles in a session.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one append-only turn inside a ChatSession.
type ChatMessage struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	SessionID string         `json:"session_id" gorm:"index"`
	Role      ChatRole       `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata" gorm:"serializer:json"`
	CreatedAt time.Time      `json:"created_at"`
}

// ModelType is the dispatch key for §4.13's four chat modes.
type ModelType string

const (
	ModelTypeBasic        ModelType = "BASIC"
	ModelTypeAdvanced     ModelType = "ADVANCED"
	ModelTypeAdvancedRAG  ModelType = "ADVANCED_RAG"
	ModelTypeUnified      ModelType = "UNIFIED"
)

// ReviewStatus enumerates the contract-review state machine's states (C15).
type ReviewStatus string

const (
	ReviewStatusPending    ReviewStatus = "PENDING"
	ReviewStatusProcessing ReviewStatus = "PROCESSING"
	ReviewStatusCompleted  ReviewStatus = "COMPLETED"
	ReviewStatusFailed     ReviewStatus = "FAILED"
)

// RiskLevel enumerates a ContractReview's overall and per-clause risk grade.
type RiskLevel string

const (
	RiskLevelHigh   RiskLevel = "HIGH"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelLow    RiskLevel = "LOW"
)

// ReviewResult is the structured analysis payload persisted with a
// COMPLETED (or FAILED, carrying only Error) ContractReview.
type ReviewResult struct {
	Summary          string   `json:"summary"`
	DetailedAnalysis string   `json:"detailed_analysis"`
	KeyClauses       []string `json:"key_clauses,omitempty"`
	ScoringRules     string   `json:"scoring_rules,omitempty"`
	ComplianceScore  int      `json:"compliance_score,omitempty"`
	CompletenessScore int     `json:"completeness_score,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// ContractReview is one asynchronous contract-analysis job (C15).
type ContractReview struct {
	ID               uint64        `json:"id" gorm:"primaryKey"`
	TenantID         uint64        `json:"-" gorm:"index"`
	UserID           uint64        `json:"user_id" gorm:"index"`
	OriginalFilename string        `json:"original_filename"`
	StoredPath       string        `json:"stored_path"`
	Size             int64         `json:"size"`
	FileHash         string        `json:"file_hash" gorm:"index"`
	Status           ReviewStatus  `json:"status"`
	RiskLevel        *RiskLevel    `json:"risk_level,omitempty"`
	TotalRisks       *int          `json:"total_risks,omitempty"`
	ReviewResult     *ReviewResult `json:"review_result,omitempty" gorm:"serializer:json"`
	RiskClauses      []RiskClause  `json:"risk_clauses,omitempty" gorm:"foreignKey:ReviewID"`
	CreatedAt        time.Time     `json:"created_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
}

// RiskClause is one identified risk within a ContractReview.
type RiskClause struct {
	ID            uint64    `json:"id" gorm:"primaryKey"`
	ReviewID      uint64    `json:"review_id" gorm:"index"`
	Level         RiskLevel `json:"level"`
	Type          string    `json:"type"`
	ClauseText    string    `json:"clause_text"`
	Description   string    `json:"description"`
	Suggestion    string    `json:"suggestion"`
	LegalBasis    string    `json:"legal_basis"`
	PositionStart int       `json:"position_start"`
	PositionEnd   int       `json:"position_end"`
}

// SourceDetail is a transient value returned alongside a RAG answer.
type SourceDetail struct {
	ContentPreview string  `json:"content_preview"`
	SourceName     string  `json:"source_name"`
	RelevanceScore float64 `json:"relevance_score"`
	ContentType    ContentType `json:"content_type"`
}

// QueryType enumerates the Query Analyzer's (C6) classification outcomes.
type QueryType string

const (
	QueryTypePreciseArticle QueryType = "PRECISE_ARTICLE"
	QueryTypeChapterLevel   QueryType = "CHAPTER_LEVEL"
	QueryTypeComplex        QueryType = "COMPLEX"
	QueryTypeSemantic       QueryType = "SEMANTIC"
)

// QueryIntent is C6's structured output.
type QueryIntent struct {
	OriginalQuery string    `json:"original_query"`
	LawName       string    `json:"law_name,omitempty"`
	ArticleNumber string    `json:"article_number,omitempty"`
	Chapter       string    `json:"chapter,omitempty"`
	Section       string    `json:"section,omitempty"`
	QueryType     QueryType `json:"query_type"`
}

// ContentType enumerates C9's content-type weighting table.
type ContentType string

const (
	ContentTypeLawProvision   ContentType = "LAW_PROVISION"
	ContentTypeContractClause ContentType = "CONTRACT_CLAUSE"
	ContentTypeRegulation     ContentType = "REGULATION"
	ContentTypeCaseReference  ContentType = "CASE_REFERENCE"
	ContentTypeGeneral        ContentType = "GENERAL"
	ContentTypeWebContent     ContentType = "WEB_CONTENT"
)

// ContentTypeWeights implements §4.8 step 1's weighting table.
var ContentTypeWeights = map[ContentType]float64{
	ContentTypeLawProvision:   1.0,
	ContentTypeContractClause: 0.9,
	ContentTypeRegulation:     0.85,
	ContentTypeCaseReference:  0.8,
	ContentTypeGeneral:        0.7,
	ContentTypeWebContent:     0.6,
}

// Content is one retrieved candidate passage flowing through C8 → C9 → C10.
type Content struct {
	Text        string         `json:"text"`
	Source      string         `json:"source"`
	ContentType ContentType    `json:"content_type"`
	Score       float64        `json:"score"`
	Rank        int            `json:"rank"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ChatMemoryEntry is one message inside a C11 bounded window.
type ChatMemoryEntry struct {
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatResponseStatus is the outcome status of C13's synchronous chat()
// result (ChatResult).
type ChatResponseStatus string

const (
	ChatStatusSuccess        ChatResponseStatus = "SUCCESS"
	ChatStatusEmptyQuestion  ChatResponseStatus = "EMPTY_QUESTION"
	ChatStatusProcessingErr  ChatResponseStatus = "PROCESSING_ERROR"
	ChatStatusUninitialized  ChatResponseStatus = "UNINITIALIZED"
)

type ChatResult struct {
	Answer            string             `json:"answer"`
	HasKnowledgeMatch bool               `json:"has_knowledge_match"`
	SourceCount       int                `json:"source_count"`
	Sources           []SourceDetail     `json:"sources"`
	SessionID         string             `json:"session_id"`
	Status            ChatResponseStatus `json:"status"`
	DurationMs        int64              `json:"duration_ms"`
}

// StreamEventType names the chat SSE event contract (§6).
type StreamEventType string

const (
	StreamEventStart   StreamEventType = "start"
	StreamEventContent StreamEventType = "content"
	StreamEventDone    StreamEventType = "done"
	StreamEventError   StreamEventType = "error"
)

// StreamEvent is one SSE frame emitted by C13's streaming chat path.
type StreamEvent struct {
	Type        StreamEventType `json:"type"`
	Content     string          `json:"content,omitempty"`
	SourceCount int             `json:"sourceCount,omitempty"`
	SessionID   string          `json:"sessionId,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// ReviewEventType names the contract-review SSE event contract (§6).
type ReviewEventType string

const (
	ReviewEventConnected ReviewEventType = "connected"
	ReviewEventInfo      ReviewEventType = "info"
	ReviewEventProgress  ReviewEventType = "progress"
	ReviewEventResult    ReviewEventType = "result"
	ReviewEventComplete  ReviewEventType = "complete"
	ReviewEventTimeout   ReviewEventType = "timeout"
	ReviewEventError     ReviewEventType = "error"
)

// ReviewProgress is the payload of a `progress` event (§4.14).
type ReviewProgress struct {
	Stage    string `json:"stage"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

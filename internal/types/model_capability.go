package types

// ModelCapability names one capability a model-provider backend exposes:
// chat completion, embedding, reranking, or vision-language. Distinct from
// ModelType (the chat-dispatch mode key, §4.13) — this enumerates what a
// provider's models can DO, not which dispatcher mode selected them.
type ModelCapability string

const (
	ModelTypeKnowledgeQA ModelCapability = "knowledge_qa"
	ModelTypeEmbedding   ModelCapability = "embedding"
	ModelTypeRerank      ModelCapability = "rerank"
	ModelTypeVLLM        ModelCapability = "vllm"
)

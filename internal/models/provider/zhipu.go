package provider

import (
	"fmt"

	"github.com/Tencent/WeKnora/internal/types"
)

const (
	ZhipuChatBaseURL      = "https://open.bigmodel.cn/api/paas/v4"
	ZhipuEmbeddingBaseURL = "https://open.bigmodel.cn/api/paas/v4"
)

// ZhipuProvider implements the Zhipu (智谱 GLM) provider.
type ZhipuProvider struct{}

func init() {
	Register(&ZhipuProvider{})
}

func (p *ZhipuProvider) Info() ProviderInfo {
	return ProviderInfo{
		Name:        ProviderZhipu,
		DisplayName: "智谱 AI (Zhipu)",
		Description: "glm-4, glm-4-air, embedding-3, etc.",
		DefaultURLs: map[types.ModelCapability]string{
			types.ModelTypeKnowledgeQA: ZhipuChatBaseURL,
			types.ModelTypeEmbedding:   ZhipuEmbeddingBaseURL,
		},
		ModelTypes: []types.ModelCapability{
			types.ModelTypeKnowledgeQA,
			types.ModelTypeEmbedding,
		},
		RequiresAuth: true,
	}
}

func (p *ZhipuProvider) ValidateConfig(config *Config) error {
	if config.APIKey == "" {
		return fmt.Errorf("API key is required for Zhipu provider")
	}
	if config.ModelName == "" {
		return fmt.Errorf("model name is required")
	}
	return nil
}

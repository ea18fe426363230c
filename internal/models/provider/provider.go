// Package provider implements the provider registry the Embedding Client
// (C3) and Model Dispatcher (C12) route through: each concrete API vendor
// self-registers its base URLs, supported capabilities, and config
// validation, and DetectProvider infers which one a base URL belongs to.
package provider

import (
	"sort"
	"strings"
	"sync"

	"github.com/Tencent/WeKnora/internal/types"
)

// ProviderName identifies one registered API vendor.
type ProviderName string

const (
	ProviderOpenAI      ProviderName = "openai"
	ProviderAliyun      ProviderName = "aliyun"
	ProviderZhipu       ProviderName = "zhipu"
	ProviderDeepSeek    ProviderName = "deepseek"
	ProviderGemini      ProviderName = "gemini"
	ProviderVolcengine  ProviderName = "volcengine"
	ProviderHunyuan     ProviderName = "hunyuan"
	ProviderMiniMax     ProviderName = "minimax"
	ProviderMimo        ProviderName = "mimo"
	ProviderJina        ProviderName = "jina"
	ProviderOpenRouter  ProviderName = "openrouter"
	ProviderSiliconFlow ProviderName = "siliconflow"
	ProviderGeneric     ProviderName = "generic"
)

// ProviderInfo is a provider's static metadata: display name, default base
// URL per capability, supported capabilities, and whether it requires auth.
type ProviderInfo struct {
	Name         ProviderName
	DisplayName  string
	Description  string
	DefaultURLs  map[types.ModelCapability]string
	ModelTypes   []types.ModelCapability
	RequiresAuth bool
}

// GetDefaultURL returns the provider's default base URL for capability, or
// "" if the provider has none configured for it (e.g. the generic provider,
// which requires the caller to supply one).
func (i ProviderInfo) GetDefaultURL(capability types.ModelCapability) string {
	return i.DefaultURLs[capability]
}

// Config is the configuration a Provider validates before a model backend
// is constructed from it.
type Config struct {
	APIKey    string
	BaseURL   string
	ModelName string
}

// Provider is implemented by every concrete API vendor.
type Provider interface {
	Info() ProviderInfo
	ValidateConfig(config *Config) error
}

var (
	mu        sync.RWMutex
	providers = map[ProviderName]Provider{}
)

// Register adds p to the registry, keyed by its Info().Name. Called from
// each provider file's init().
func Register(p Provider) {
	mu.Lock()
	defer mu.Unlock()
	providers[p.Info().Name] = p
}

// Get returns the registered provider named name, if any.
func Get(name ProviderName) (Provider, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := providers[name]
	return p, ok
}

// GetOrDefault returns the provider named name, falling back to the generic
// OpenAI-compatible provider when name is unregistered.
func GetOrDefault(name ProviderName) Provider {
	if p, ok := Get(name); ok {
		return p
	}
	p, _ := Get(ProviderGeneric)
	return p
}

// List returns every registered provider's Info, sorted by name for
// deterministic output.
func List() []ProviderInfo {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]ProviderInfo, 0, len(providers))
	for _, p := range providers {
		out = append(out, p.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListByModelType returns every registered provider that supports capability.
func ListByModelType(capability types.ModelCapability) []ProviderInfo {
	var out []ProviderInfo
	for _, info := range List() {
		for _, mt := range info.ModelTypes {
			if mt == capability {
				out = append(out, info)
				break
			}
		}
	}
	return out
}

// knownHosts maps a distinctive base-URL substring to its provider, checked
// in DetectProvider before falling back to ProviderGeneric.
var knownHosts = []struct {
	substr string
	name   ProviderName
}{
	{"api.openai.com", ProviderOpenAI},
	{"openrouter.ai", ProviderOpenRouter},
	{"dashscope.aliyuncs.com", ProviderAliyun},
	{"open.bigmodel.cn", ProviderZhipu},
	{"api.deepseek.com", ProviderDeepSeek},
	{"generativelanguage.googleapis.com", ProviderGemini},
	{"volces.com", ProviderVolcengine},
	{"hunyuan.cloud.tencent.com", ProviderHunyuan},
	{"api.minimax.io", ProviderMiniMax},
	{"api.minimaxi.com", ProviderMiniMax},
	{"xiaomimimo.com", ProviderMimo},
	{"api.jina.ai", ProviderJina},
	{"api.siliconflow.cn", ProviderSiliconFlow},
}

// DetectProvider infers a provider from a base URL's host, falling back to
// ProviderGeneric for anything unrecognized (self-hosted Ollama, a private
// OpenAI-compatible gateway, etc.).
func DetectProvider(baseURL string) ProviderName {
	lower := strings.ToLower(baseURL)
	for _, h := range knownHosts {
		if strings.Contains(lower, h.substr) {
			return h.name
		}
	}
	return ProviderGeneric
}

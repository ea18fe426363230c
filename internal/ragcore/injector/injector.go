// Package injector implements the Content Injector (C10): assembling the
// final prompt handed to the Model Dispatcher (C12) out of the user's
// question and the Aggregator's (C9) ranked Content.
package injector

import (
	"fmt"
	"strings"
	"time"

	"github.com/Tencent/WeKnora/internal/types"
)

const (
	maxReferences    = 5
	maxReferenceRune = 500
)

// systemPromptTemplate and noKnowledgePromptTemplate are the default
// renderings of their PromptField. Each `{{name}}` token names one of
// types.PlaceholdersByField(fieldType)'s placeholders. renderPrompt panics
// when the values map lacks a catalog placeholder; it does not check the
// template's tokens against the catalog, so a token outside the catalog
// stays in the output as written.
const systemPromptTemplate = "你是一名叫做法律小助手的法律助手，基于提供的参考知识回答用户的法律问题。\n\n" +
	"参考知识：\n{{reference_knowledge}}\n" +
	"回答规则：\n" +
	"1. 优先使用下面的参考知识作答，不要逐字照抄原文，请用通俗易懂的语言转述；\n" +
	"2. 如果参考知识与问题无关，请依据自身法律常识谨慎作答，并说明这不是基于检索到的权威依据；\n" +
	"3. 不要编造法律条文或案例。\n\n" +
	"当前时间：{{current_time}}\n\n" +
	"用户问题：{{query}}"

const noKnowledgePromptTemplate = "你是一名叫做法律小助手的法律助手。本次未检索到相关的参考知识，" +
	"请基于你已有的法律常识尽力解答用户的问题，并说明这一回答未经过权威资料核实，建议用户进一步核实。\n\n" +
	"当前时间：{{current_time}}\n\n" +
	"用户问题：{{query}}"

// Injector builds the prompt sent to the model for one turn.
type Injector struct{}

// New creates an Injector.
func New() *Injector {
	return &Injector{}
}

// Inject assembles the prompt for query given the Aggregator's ranked
// contents. An empty contents list produces a distinct no-knowledge prompt
// that omits the reference block entirely, per §4.10.
func (i *Injector) Inject(query string, contents []types.Content) string {
	if len(contents) == 0 {
		return renderPrompt(types.PromptFieldNoKnowledgePrompt, noKnowledgePromptTemplate, map[string]string{
			"query":        query,
			"current_time": time.Now().Format(time.RFC3339),
		})
	}

	var refs strings.Builder
	n := len(contents)
	if n > maxReferences {
		n = maxReferences
	}
	for idx := 0; idx < n; idx++ {
		fmt.Fprintf(&refs, "[%d] %s\n", idx+1, truncate(contents[idx].Text, maxReferenceRune))
	}

	return renderPrompt(types.PromptFieldSystemPrompt, systemPromptTemplate, map[string]string{
		"query":               query,
		"reference_knowledge": refs.String(),
		"current_time":        time.Now().Format(time.RFC3339),
	})
}

// renderPrompt fills tmpl's `{{name}}` tokens from values, after confirming
// values supplies every placeholder fieldType declares available
// (types.PlaceholdersByField); keys outside that set are ignored. It is the
// same catalog a prompt-template editor
// would offer an administrator customizing these templates.
func renderPrompt(fieldType types.PromptFieldType, tmpl string, values map[string]string) string {
	allowed := types.PlaceholdersByField(fieldType)
	pairs := make([]string, 0, len(allowed)*2)
	for _, p := range allowed {
		v, ok := values[p.Name]
		if !ok {
			panic(fmt.Sprintf("injector: template for %s missing value for placeholder %q", fieldType, p.Name))
		}
		pairs = append(pairs, "{{"+p.Name+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// truncate cuts text to at most n runes, so CJK reference passages don't get
// split mid-byte.
func truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

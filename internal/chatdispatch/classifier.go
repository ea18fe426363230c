// Package chatdispatch implements the Unified Chat Dispatcher (C14): the
// HTTP surface that picks a chat mode, runs it, and persists session state
// around the result.
package chatdispatch

import (
	"strings"
	"unicode/utf8"

	"github.com/Tencent/WeKnora/internal/types"
)

var simpleQueryTokens = []string{
	"什么是", "如何定义", "解释一下", "含义", "是什么意思", "包括哪些", "有哪些", "查询", "查找", "第几条", "哪一条",
}

var shortQuestionMarkers = []string{"吗", "呢", "么", "?", "？"}

var caseAnalysisTokens = []string{"案例", "案情", "核心法律问题", "如何认定", "是否构成", "案件", "纠纷"}
var reasoningTokens = []string{"分析", "判断", "评估", "应当如何", "如何处理", "怎么办", "建议", "对策"}
var generationTokens = []string{"起草", "撰写", "生成", "制作", "拟定"}
var reviewTokens = []string{"审查", "审核", "检查", "风险", "隐患", "问题"}
var liabilityTokens = []string{"责任", "赔偿", "承担", "后果", "处罚"}
var legalDomainTokens = []string{"合同", "违约", "侵权", "赔偿", "诉讼", "仲裁", "协议"}

// ClassifyMode implements §4.14's UNIFIED routing classifier: a simple
// lookup question routes to ADVANCED_RAG, a complex analysis/drafting/
// review/liability question routes to ADVANCED, and anything else defaults
// to ADVANCED as well since neither a definite simple nor complex signal
// fired.
func ClassifyMode(message string) types.ModelType {
	if isSimpleQuery(message) {
		return types.ModelTypeAdvancedRAG
	}
	if isComplexAnalysis(message) {
		return types.ModelTypeAdvanced
	}
	return types.ModelTypeAdvanced
}

func isSimpleQuery(message string) bool {
	length := utf8.RuneCountInString(message)
	if length < 80 && containsAny(message, simpleQueryTokens) {
		return true
	}
	if length < 20 && containsAny(message, shortQuestionMarkers) {
		return true
	}
	return false
}

func isComplexAnalysis(message string) bool {
	length := utf8.RuneCountInString(message)
	if length > 70 {
		return true
	}
	if containsAny(message, caseAnalysisTokens) || containsAny(message, reasoningTokens) ||
		containsAny(message, generationTokens) || containsAny(message, reviewTokens) ||
		containsAny(message, liabilityTokens) {
		return true
	}
	return countMatches(message, legalDomainTokens) >= 2
}

func containsAny(message string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(message, t) {
			return true
		}
	}
	return false
}

func countMatches(message string, tokens []string) int {
	n := 0
	for _, t := range tokens {
		if strings.Contains(message, t) {
			n++
		}
	}
	return n
}

package chatdispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tencent/WeKnora/internal/types"
)

func TestResolveMode_ExplicitModeBypassesClassifier(t *testing.T) {
	d := &Dispatcher{}

	for _, mt := range []types.ModelType{types.ModelTypeBasic, types.ModelTypeAdvanced, types.ModelTypeAdvancedRAG} {
		got := d.resolveMode(ChatRequest{ModelType: mt, Message: "随便写点什么"})
		assert.Equal(t, mt, got)
	}
}

func TestResolveMode_UnifiedDelegatesToClassifier(t *testing.T) {
	d := &Dispatcher{}

	got := d.resolveMode(ChatRequest{ModelType: types.ModelTypeUnified, Message: "合同法第几条规定了违约责任？"})
	assert.Equal(t, ClassifyMode("合同法第几条规定了违约责任？"), got)
}

func TestModelTypeFromQuery(t *testing.T) {
	cases := map[string]types.ModelType{
		"":             types.ModelTypeBasic,
		"BASIC":        types.ModelTypeBasic,
		"bogus":        types.ModelTypeBasic,
		"ADVANCED":     types.ModelTypeAdvanced,
		"ADVANCED_RAG": types.ModelTypeAdvancedRAG,
		"UNIFIED":      types.ModelTypeUnified,
	}
	for raw, want := range cases {
		assert.Equal(t, want, modelTypeFromQuery(raw), "raw=%q", raw)
	}
}

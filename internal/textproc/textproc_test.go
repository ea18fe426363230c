package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("rejects chunkSize <= chunkOverlap", func(t *testing.T) {
		_, err := New(100, 100, 500)
		assert.Error(t, err)
	})

	t.Run("accepts valid config", func(t *testing.T) {
		p, err := New(1000, 100, 500)
		require.NoError(t, err)
		assert.Equal(t, 1000, p.ChunkSize)
	})
}

func TestNeedsChunking(t *testing.T) {
	p, err := New(1000, 100, 500)
	require.NoError(t, err)

	t.Run("short text does not need chunking", func(t *testing.T) {
		assert.False(t, p.NeedsChunking("短文本"))
	})

	t.Run("long text needs chunking", func(t *testing.T) {
		assert.True(t, p.NeedsChunking(strings.Repeat("法", 2000)))
	})
}

func TestSplit(t *testing.T) {
	p, err := New(20, 5, 500)
	require.NoError(t, err)

	t.Run("splits at sentence punctuation", func(t *testing.T) {
		text := "合同生效。乙方应当按期支付货款。如有违约，应承担违约责任。"
		chunks := p.Split(text)
		assert.NotEmpty(t, chunks)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), 20)
		}
	})

	t.Run("progress guaranteed on pathological input", func(t *testing.T) {
		text := strings.Repeat("a", 1000)
		chunks := p.Split(text)
		assert.NotEmpty(t, chunks)
		// Reassembling should cover the whole input (allowing overlap duplication).
		joined := strings.Join(chunks, "")
		assert.GreaterOrEqual(t, len(joined), len(text))
	})

	t.Run("empty text yields no chunks", func(t *testing.T) {
		assert.Nil(t, p.Split(""))
	})
}

func TestCleanSource(t *testing.T) {
	t.Run("strips hash prefix and path", func(t *testing.T) {
		meta := map[string]any{
			"original_filename": "/data/uploads/ab12ef34ab12ef34ab12ef34ab12ef34ab12ef34ab12ef34ab12ef34ab12ef34-合同.docx",
		}
		got := CleanSource(meta)
		assert.Equal(t, "合同.docx", got)
	})

	t.Run("falls back through source then file_name", func(t *testing.T) {
		meta := map[string]any{"file_name": "民法典.txt"}
		assert.Equal(t, "民法典.txt", CleanSource(meta))
	})

	t.Run("never returns empty", func(t *testing.T) {
		assert.NotEmpty(t, CleanSource(map[string]any{}))
	})
}

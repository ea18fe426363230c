// Package textproc implements the Text Processor (C1): token estimation,
// chunk splitting at sentence/punctuation boundaries, and document-source
// display-name cleanup.
package textproc

import (
	"path/filepath"
	"regexp"
	"strings"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
)

// Processor holds the tunables §6 names: rag.chunkSize, rag.chunkOverlap,
// embedding.maxTokens.
type Processor struct {
	ChunkSize    int
	ChunkOverlap int
	MaxTokens    int
}

// New validates S > O per §4.1 ("Fails with ConfigError when S ≤ O") and
// returns a ready Processor.
func New(chunkSize, chunkOverlap, maxTokens int) (*Processor, error) {
	if chunkSize <= chunkOverlap {
		return nil, apperrors.NewConfigError("chunkSize (%d) must be greater than chunkOverlap (%d)", chunkSize, chunkOverlap)
	}
	return &Processor{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap, MaxTokens: maxTokens}, nil
}

// estimateTokens approximates token count as length/3, the ratio the spec
// gives for CJK-heavy text.
func estimateTokens(text string) int {
	return len([]rune(text)) / 3
}

// NeedsChunking reports whether text's estimated token count exceeds the
// embedding-token ceiling.
func (p *Processor) NeedsChunking(text string) bool {
	return estimateTokens(text) > p.MaxTokens
}

// boundary punctuation tiers, checked in order, per §4.1.
var (
	primaryBoundary   = map[rune]bool{'。': true, '!': true, '?': true, '；': true}
	secondaryBoundary = map[rune]bool{',': true, '，': true, ';': true}
)

// Split implements §4.1's greedy windowing: chunk boundaries prefer, in
// order, sentence-terminal punctuation, then comma/semicolon punctuation,
// then whitespace, else a hard cut. Progress is guaranteed by
// start_{i+1} = max(start_i + 1, end_i - O).
func (p *Processor) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < n {
		end := start + p.ChunkSize
		if end >= n {
			chunks = append(chunks, string(runes[start:n]))
			break
		}

		cut := findBoundary(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))

		next := cut - p.ChunkOverlap
		if next < start+1 {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// findBoundary searches backward from end (the greedy window's far edge)
// for the best-preferred boundary, falling back to a hard cut at end.
func findBoundary(runes []rune, start, end int) int {
	if cut, ok := searchBack(runes, start, end, primaryBoundary); ok {
		return cut
	}
	if cut, ok := searchBack(runes, start, end, secondaryBoundary); ok {
		return cut
	}
	for i := end; i > start; i-- {
		if isSpace(runes[i-1]) {
			return i
		}
	}
	return end
}

func searchBack(runes []rune, start, end int, set map[rune]bool) (int, bool) {
	for i := end; i > start; i-- {
		if set[runes[i-1]] {
			return i, true
		}
	}
	return 0, false
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

var (
	hexHashPrefix = regexp.MustCompile(`^[0-9a-fA-F]{64}[-_]?`)
)

// CleanSource derives a display string for a document's origin, per §4.1:
// strip a 64-hex-digit hash prefix and any path component, falling back
// through original_filename -> source -> file_name -> a generic label;
// never returns empty.
func CleanSource(metadata map[string]any) string {
	for _, key := range []string{"original_filename", "source", "file_name"} {
		if v, ok := metadata[key]; ok {
			if s, ok := v.(string); ok {
				if cleaned := cleanOne(s); cleaned != "" {
					return cleaned
				}
			}
		}
	}
	return "未知来源"
}

func cleanOne(s string) string {
	base := filepath.Base(s)
	base = hexHashPrefix.ReplaceAllString(base, "")
	base = strings.TrimSpace(base)
	return base
}

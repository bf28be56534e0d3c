// Package chunker splits extracted document text into overlapping windows
// sized for embedding. Window boundaries prefer sentence ends so retrieved
// chunks read as coherent passages.
package chunker

import (
	"strings"
	"unicode"
)

const (
	DefaultSize    = 2048
	DefaultOverlap = 256

	// fragments shorter than this are merged into the previous chunk
	minChunkRunes = 128
)

type Chunk struct {
	Index      int
	Content    string
	TokenCount int
}

type Chunker struct {
	size    int
	overlap int
}

// New returns a chunker with the given window size and overlap in runes.
// Non-positive size falls back to the default; an overlap that is not
// smaller than the size is clamped to half the size.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split cuts text into overlapping chunks. Consecutive chunks share the
// configured overlap. The result is a pure function of the input.
func (c *Chunker) Split(text string) []Chunk {
	runes := []rune(Clean(text))
	if len(runes) == 0 {
		return nil
	}

	var chunks []Chunk
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = snapBack(runes, start, end)
		}

		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			if end == len(runes) && len([]rune(content)) < minChunkRunes && len(chunks) > 0 {
				prev := &chunks[len(chunks)-1]
				prev.Content = prev.Content + " " + content
				prev.TokenCount = EstimateTokens(prev.Content)
			} else {
				chunks = append(chunks, Chunk{
					Index:      len(chunks),
					Content:    content,
					TokenCount: EstimateTokens(content),
				})
			}
		}

		if end == len(runes) {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// snapBack moves the window end to the last sentence boundary in the second
// half of the window, falling back to the last space, then to a hard cut.
// Callers guarantee end < len(runes), so probing runes[end] is safe.
func snapBack(runes []rune, start, end int) int {
	mid := start + (end-start)/2

	for i := end; i > mid; i-- {
		if isSentenceEnd(runes[i-1]) && unicode.IsSpace(runes[i]) {
			return i
		}
	}
	for i := end; i > mid; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return end
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Clean collapses runs of whitespace into single spaces.
func Clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// EstimateTokens approximates the token count of s as one token per four
// characters.
func EstimateTokens(s string) int {
	n := len(s) / 4
	if n == 0 && s != "" {
		n = 1
	}
	return n
}

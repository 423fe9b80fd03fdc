package services

import (
	"strings"
	"unicode/utf8"
)

type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText implements TextChunker. Sizes are in runes. Paragraphs are kept
// whole when they fit; longer ones are split on sentence boundaries, and a
// single sentence longer than maxChunkSize is cut hard.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	c := &chunkAccumulator{max: maxChunkSize, overlap: overlap}

	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= maxChunkSize {
			c.add(para, "\n\n")
			continue
		}

		for _, sentence := range splitIntoSentences(para) {
			for _, piece := range hardSplit(sentence, maxChunkSize) {
				c.add(piece, " ")
			}
		}
	}

	return c.finish()
}

type chunkAccumulator struct {
	max     int
	overlap int
	chunks  []string
	current strings.Builder
	size    int
	fresh   bool // current holds only overlap carried from the previous chunk
}

func (c *chunkAccumulator) add(piece, sep string) {
	n := utf8.RuneCountInString(piece)
	sepLen := utf8.RuneCountInString(sep)
	if c.size > 0 && c.size+sepLen+n > c.max {
		c.flush()
	}
	if c.size > 0 && c.size+sepLen+n > c.max {
		// carried overlap does not fit next to the piece
		c.reset()
	}
	if c.size > 0 {
		c.current.WriteString(sep)
		c.size += sepLen
	}
	c.current.WriteString(piece)
	c.size += n
	c.fresh = false
}

func (c *chunkAccumulator) flush() {
	if c.fresh || c.size == 0 {
		c.reset()
		return
	}
	prev := c.current.String()
	c.chunks = append(c.chunks, prev)
	c.reset()

	if tail := lastNRunes(prev, c.overlap); tail != "" && utf8.RuneCountInString(tail) < c.max {
		c.current.WriteString(tail)
		c.size = utf8.RuneCountInString(tail)
		c.fresh = true
	}
}

func (c *chunkAccumulator) reset() {
	c.current.Reset()
	c.size = 0
	c.fresh = false
}

func (c *chunkAccumulator) finish() []string {
	if c.size > 0 && !c.fresh {
		c.chunks = append(c.chunks, c.current.String())
	}
	return c.chunks
}

// splitIntoSentences splits after '.', '!' or '?' and keeps the punctuation.
func splitIntoSentences(text string) []string {
	var result []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				result = append(result, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		result = append(result, s)
	}
	return result
}

func hardSplit(text string, max int) []string {
	runes := []rune(text)
	if len(runes) <= max {
		return []string{text}
	}
	var out []string
	for len(runes) > max {
		out = append(out, string(runes[:max]))
		runes = runes[max:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func lastNRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}

package chunker

import (
	"regexp"
	"strings"
)

// WindowChunker splits cleaned text into overlapping word windows. Window
// size and overlap are counted in whitespace-delimited words, a cheap
// stand-in for model tokens that keeps chunk boundaries stable across
// runs.
type WindowChunker struct {
	windowWords  int
	overlapWords int
}

// NewWindowChunker creates a chunker with the given window and overlap
// sizes. Nonsensical values fall back to safe defaults.
func NewWindowChunker(windowWords, overlapWords int) *WindowChunker {
	if windowWords <= 0 {
		windowWords = 1000
	}
	if overlapWords < 0 || overlapWords >= windowWords {
		overlapWords = windowWords / 5
	}
	return &WindowChunker{windowWords: windowWords, overlapWords: overlapWords}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanText collapses whitespace runs and trims the result.
func CleanText(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// Chunk splits text into overlapping windows. Empty input yields no
// chunks; input shorter than one window yields a single chunk.
func (c *WindowChunker) Chunk(text string) []string {
	text = CleanText(text)
	if text == "" {
		return nil
	}

	words := strings.Fields(text)
	if len(words) <= c.windowWords {
		return []string{text}
	}

	var chunks []string
	step := c.windowWords - c.overlapWords
	for start := 0; start < len(words); start += step {
		end := start + c.windowWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

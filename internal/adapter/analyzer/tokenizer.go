package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into lowercase word tokens. A token is a maximal
// run of Unicode letters and digits; punctuation and whitespace are
// discarded.
type Tokenizer struct{}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize splits text into lowercase tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// CountTokens returns an approximate token count for chunk budgeting.
// Uses a simple heuristic: average word is about 1.3 model tokens.
func (t *Tokenizer) CountTokens(text string) int {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	return int(float64(len(words)) * 1.3)
}

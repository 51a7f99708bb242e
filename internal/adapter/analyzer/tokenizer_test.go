package analyzer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tok := NewTokenizer()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "lowercases and strips punctuation",
			in:   "The cat, sat!",
			want: []string{"the", "cat", "sat"},
		},
		{
			name: "digits kept inside tokens",
			in:   "error404 page",
			want: []string{"error404", "page"},
		},
		{
			name: "unicode letters",
			in:   "naïve Café",
			want: []string{"naïve", "café"},
		},
		{
			name: "punctuation only",
			in:   "... --- !!!",
			want: nil,
		},
		{
			name: "empty",
			in:   "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCountTokens(t *testing.T) {
	tok := NewTokenizer()

	if got := tok.CountTokens(""); got != 0 {
		t.Errorf("CountTokens(empty) = %d, want 0", got)
	}
	if got := tok.CountTokens("one two three four"); got < 4 {
		t.Errorf("CountTokens = %d, want at least the word count", got)
	}
}

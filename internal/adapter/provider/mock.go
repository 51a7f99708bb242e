package provider

import (
	"context"
	"fmt"
)

// MockEmbedder produces deterministic pseudo-embeddings from character
// codes. Useful for tests and for exercising the pipeline offline.
type MockEmbedder struct {
	dimension int
}

// NewMockEmbedder creates a mock embedder with the given dimension.
func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = 64
	}
	return &MockEmbedder{dimension: dimension}
}

// Embed maps each text to a vector derived from its leading runes.
func (e *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.dimension)
		for j, r := range text {
			if j >= e.dimension {
				break
			}
			v[j] = float32(r) / 1000.0
		}
		vectors[i] = v
	}
	return vectors, nil
}

// Dimension returns the configured dimension.
func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

// ModelName returns "mock".
func (e *MockEmbedder) ModelName() string {
	return "mock"
}

// Generate echoes the retrieval so offline runs stay inspectable.
func (e *MockEmbedder) Generate(_ context.Context, query string, contexts []string, sourceLabel string) (string, error) {
	return fmt.Sprintf("[mock] %d context chunk(s) retrieved from %q for: %s",
		len(contexts), sourceLabel, query), nil
}

// Rerank returns an identity ranking.
func (e *MockEmbedder) Rerank(_ context.Context, _ string, candidates []string) (string, error) {
	out := "["
	for i := range candidates {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%d", i+1)
	}
	return out + "]", nil
}

package index

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"docqa/internal/domain"
)

// Contextual boost parameters.
const (
	neighborWindow = 200 // characters of neighbor text kept on each side

	earlyPositionBoost  = 0.1  // chunk in the first 10% of the corpus
	longTextBoost       = 0.05 // chunk longer than longTextThreshold
	longTextThreshold   = 1000
	textOverlapStep     = 0.02
	textOverlapCap      = 0.2
	contextOverlapStep  = 0.01
	contextOverlapCap   = 0.1
	earlyPositionCutoff = 0.1
)

// ContextualEntry pairs a chunk with excerpts of its immediate neighbors
// from the same ingestion batch.
type ContextualEntry struct {
	Text        string
	Vector      []float32
	PrevContext string
	NextContext string
}

// Wrapper returns the context-augmented form of the chunk: the tail of the
// previous chunk, the chunk text, and the head of the next chunk.
func (e ContextualEntry) Wrapper() string {
	parts := make([]string, 0, 3)
	if e.PrevContext != "" {
		parts = append(parts, e.PrevContext)
	}
	parts = append(parts, e.Text)
	if e.NextContext != "" {
		parts = append(parts, e.NextContext)
	}
	return strings.Join(parts, " ")
}

// ContextualIndex augments dense similarity with a heuristic relevance
// boost derived from neighboring-chunk context and lexical overlap.
type ContextualIndex struct {
	entries []ContextualEntry
}

// NewContextualIndex creates an empty contextual index.
func NewContextualIndex() *ContextualIndex {
	return &ContextualIndex{}
}

// Add stores a batch of (text, vector) pairs, building each entry's
// neighbor context from its batch neighbors. Boundary chunks get empty
// neighbor context. The batch is validated before any mutation.
func (idx *ContextualIndex) Add(texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("%w: %d texts but %d vectors", domain.ErrValidation, len(texts), len(vectors))
	}

	for i, text := range texts {
		entry := ContextualEntry{Text: text, Vector: vectors[i]}
		if i > 0 {
			entry.PrevContext = tailRunes(texts[i-1], neighborWindow)
		}
		if i < len(texts)-1 {
			entry.NextContext = headRunes(texts[i+1], neighborWindow)
		}
		idx.entries = append(idx.entries, entry)
	}
	return nil
}

// Search scores every entry with cosine similarity times (1 + boost),
// sorts descending, and returns the top k ranked from 1.
func (idx *ContextualIndex) Search(query string, queryVector []float32, k int) ([]domain.ScoredResult, error) {
	if len(idx.entries) == 0 || k <= 0 {
		return nil, nil
	}

	type hit struct {
		position int
		score    float64
	}
	hits := make([]hit, len(idx.entries))
	for i, entry := range idx.entries {
		similarity := cosineSimilarity(queryVector, entry.Vector)
		boost := idx.boost(query, entry, i)
		hits[i] = hit{position: i, score: similarity * (1 + boost)}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].position < hits[j].position
	})

	if k > len(hits) {
		k = len(hits)
	}

	results := make([]domain.ScoredResult, k)
	for i := 0; i < k; i++ {
		results[i] = domain.ScoredResult{
			Text:    idx.entries[hits[i].position].Text,
			Score:   hits[i].score,
			Methods: map[domain.Method]bool{domain.MethodContextual: true},
			Rank:    i + 1,
		}
	}
	return results, nil
}

// boost computes the strictly additive, never negative relevance boost
// for the entry at the given corpus position.
func (idx *ContextualIndex) boost(query string, entry ContextualEntry, position int) float64 {
	var boost float64

	if float64(position) < earlyPositionCutoff*float64(len(idx.entries)) {
		boost += earlyPositionBoost
	}
	if len(entry.Text) > longTextThreshold {
		boost += longTextBoost
	}

	queryWords := wordSet(query)
	boost += math.Min(textOverlapStep*float64(overlapCount(queryWords, entry.Text)), textOverlapCap)

	neighborContext := strings.TrimSpace(entry.PrevContext + " " + entry.NextContext)
	boost += math.Min(contextOverlapStep*float64(overlapCount(queryWords, neighborContext)), contextOverlapCap)

	return boost
}

// Clear drops all entries.
func (idx *ContextualIndex) Clear() {
	idx.entries = nil
}

// Ready reports whether the index holds at least one entry.
func (idx *ContextualIndex) Ready() bool {
	return len(idx.entries) > 0
}

// Count returns the number of stored entries.
func (idx *ContextualIndex) Count() int {
	return len(idx.entries)
}

// Entry returns the entry at the given position for inspection.
func (idx *ContextualIndex) Entry(position int) (ContextualEntry, bool) {
	if position < 0 || position >= len(idx.entries) {
		return ContextualEntry{}, false
	}
	return idx.entries[position], true
}

// cosineSimilarity returns 0 for zero-norm vectors, never NaN.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// overlapCount counts query words that also occur in text, comparing
// lowercase whitespace-split tokens.
func overlapCount(queryWords map[string]struct{}, text string) int {
	textWords := wordSet(text)
	count := 0
	for w := range queryWords {
		if _, ok := textWords[w]; ok {
			count++
		}
	}
	return count
}

func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func headRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

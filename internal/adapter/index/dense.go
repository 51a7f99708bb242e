package index

import (
	"fmt"
	"math"
	"sort"

	"docqa/internal/domain"
)

// DenseIndex performs exhaustive nearest-neighbor search over embedding
// vectors by squared Euclidean distance. Brute-force scan is correct and
// fast enough at the corpus sizes this engine targets.
//
// The vector dimension is inferred from the first Add and locked until
// Clear. Callers serialize access; the index itself is not goroutine-safe.
type DenseIndex struct {
	dimension int
	texts     []string
	vectors   [][]float32
}

// NewDenseIndex creates an empty, uninitialized dense index.
func NewDenseIndex() *DenseIndex {
	return &DenseIndex{}
}

// Add appends a batch of (text, vector) pairs. The batch is validated in
// full before any mutation: on error the index is unchanged.
func (idx *DenseIndex) Add(texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("%w: %d texts but %d vectors", domain.ErrValidation, len(texts), len(vectors))
	}
	if len(texts) == 0 {
		return nil
	}

	dim := idx.dimension
	if dim == 0 {
		dim = len(vectors[0])
		if dim == 0 {
			return fmt.Errorf("%w: zero-length embedding vector", domain.ErrValidation)
		}
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: dimension mismatch at position %d: expected %d, got %d",
				domain.ErrValidation, i, dim, len(v))
		}
	}

	idx.dimension = dim
	idx.texts = append(idx.texts, texts...)
	idx.vectors = append(idx.vectors, vectors...)
	return nil
}

// Search returns the min(k, count) stored texts nearest to queryVector,
// scored by similarity = exp(-squared distance) and ranked from 1. An
// empty or uninitialized index yields an empty result.
func (idx *DenseIndex) Search(queryVector []float32, k int) ([]domain.ScoredResult, error) {
	if len(idx.vectors) == 0 || k <= 0 {
		return nil, nil
	}
	if len(queryVector) != idx.dimension {
		return nil, fmt.Errorf("%w: query dimension mismatch: expected %d, got %d",
			domain.ErrValidation, idx.dimension, len(queryVector))
	}

	type hit struct {
		position int
		distance float64
	}
	hits := make([]hit, len(idx.vectors))
	for i, v := range idx.vectors {
		hits[i] = hit{position: i, distance: squaredDistance(queryVector, v)}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].position < hits[j].position
	})

	if k > len(hits) {
		k = len(hits)
	}

	results := make([]domain.ScoredResult, k)
	for i := 0; i < k; i++ {
		results[i] = domain.ScoredResult{
			Text:    idx.texts[hits[i].position],
			Score:   math.Exp(-hits[i].distance),
			Methods: map[domain.Method]bool{domain.MethodSemantic: true},
			Rank:    i + 1,
		}
	}
	return results, nil
}

// Clear drops all vectors and texts. The dimension is re-inferred on the
// next Add.
func (idx *DenseIndex) Clear() {
	idx.dimension = 0
	idx.texts = nil
	idx.vectors = nil
}

// Ready reports whether the index holds at least one vector.
func (idx *DenseIndex) Ready() bool {
	return len(idx.vectors) > 0
}

// Count returns the number of stored documents.
func (idx *DenseIndex) Count() int {
	return len(idx.vectors)
}

// Dimension returns the locked vector dimension, or 0 if uninitialized.
func (idx *DenseIndex) Dimension() int {
	return idx.dimension
}

func squaredDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

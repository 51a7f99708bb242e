package usecase

import (
	"sort"

	"docqa/internal/domain"
)

// FusionWeights scales each strategy's raw scores before merging.
// Documented convention, not enforced to sum to 1.
type FusionWeights struct {
	Semantic   float64
	BM25       float64
	Contextual float64
}

// DefaultFusionWeights returns the standard hybrid weighting.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Semantic: 0.4, BM25: 0.3, Contextual: 0.3}
}

type fusedCandidate struct {
	score   float64
	methods map[domain.Method]bool
}

// fuseWeighted merges per-strategy result lists into one ranked list.
// Candidates are deduplicated by exact text equality; when the same text
// is produced by multiple strategies its weighted scores are summed, not
// averaged, so multi-method agreement is rewarded. The contributing-method
// set accumulates across strategies.
func fuseWeighted(dense, lexical, contextual []domain.ScoredResult, w FusionWeights) []domain.ScoredResult {
	acc := make(map[string]*fusedCandidate, len(dense)+len(lexical)+len(contextual))
	var order []string

	addList := func(results []domain.ScoredResult, weight float64) {
		for _, r := range results {
			candidate, ok := acc[r.Text]
			if !ok {
				candidate = &fusedCandidate{methods: make(map[domain.Method]bool)}
				acc[r.Text] = candidate
				order = append(order, r.Text)
			}
			candidate.score += weight * r.Score
			for m := range r.Methods {
				candidate.methods[m] = true
			}
		}
	}

	addList(dense, w.Semantic)
	addList(lexical, w.BM25)
	addList(contextual, w.Contextual)

	merged := make([]domain.ScoredResult, 0, len(order))
	for _, text := range order {
		c := acc[text]
		merged = append(merged, domain.ScoredResult{
			Text:    text,
			Score:   c.score,
			Methods: c.methods,
		})
	}

	// Stable: equal scores keep first-seen order.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	for i := range merged {
		merged[i].Rank = i + 1
	}
	return merged
}

// truncateResults returns at most limit results, preserving order.
func truncateResults(results []domain.ScoredResult, limit int) []domain.ScoredResult {
	if limit <= 0 || len(results) <= limit {
		return results
	}
	return results[:limit]
}

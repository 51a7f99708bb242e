package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"docqa/internal/domain"
)

// parseRanking parses the oracle's raw output as a 1-based permutation of
// candidate indices for a list of n candidates. It returns an error when
// the output does not parse as a JSON index array, contains duplicates, or
// contains indices outside [1, n]. Callers fall back to the original
// candidate order on error; a parse failure never surfaces further.
func parseRanking(raw string, n int) ([]int, error) {
	var indices []int
	if err := json.Unmarshal([]byte(raw), &indices); err != nil {
		// Oracles often wrap the array in prose or code fences; retry on
		// the innermost bracketed span.
		start := strings.Index(raw, "[")
		end := strings.LastIndex(raw, "]")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no index array in oracle output: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &indices); err != nil {
			return nil, fmt.Errorf("oracle output is not an index array: %w", err)
		}
	}

	if len(indices) == 0 {
		return nil, fmt.Errorf("oracle returned an empty ranking")
	}
	if len(indices) > n {
		return nil, fmt.Errorf("oracle returned %d indices for %d candidates", len(indices), n)
	}

	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 1 || idx > n {
			return nil, fmt.Errorf("index %d out of range [1, %d]", idx, n)
		}
		if seen[idx] {
			return nil, fmt.Errorf("duplicate index %d in ranking", idx)
		}
		seen[idx] = true
	}
	return indices, nil
}

// applyRanking reorders candidates by the 1-based permutation. The
// permutation may be partial; omitted candidates are dropped and repeated
// or out-of-range indices are skipped, so the output is never longer than
// the input. Ranks are reassigned from 1.
func applyRanking(candidates []domain.ScoredResult, ranking []int) []domain.ScoredResult {
	reordered := make([]domain.ScoredResult, 0, len(ranking))
	used := make(map[int]bool, len(ranking))
	for _, idx := range ranking {
		if idx < 1 || idx > len(candidates) || used[idx] {
			continue
		}
		used[idx] = true
		reordered = append(reordered, candidates[idx-1])
	}
	for i := range reordered {
		reordered[i].Rank = i + 1
	}
	return reordered
}

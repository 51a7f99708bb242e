package index

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"docqa/internal/domain"
)

func TestContextualEntryNeighborContext(t *testing.T) {
	idx := NewContextualIndex()
	long := strings.Repeat("x", 300)
	texts := []string{long, "middle chunk", long}
	vectors := [][]float32{{1}, {1}, {1}}

	if err := idx.Add(texts, vectors); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	first, _ := idx.Entry(0)
	if first.PrevContext != "" {
		t.Errorf("first chunk has prev context %q, want empty", first.PrevContext)
	}
	if len([]rune(first.NextContext)) != 12 {
		t.Errorf("next context = %q, want full short neighbor", first.NextContext)
	}

	mid, _ := idx.Entry(1)
	if len([]rune(mid.PrevContext)) != 200 {
		t.Errorf("prev context length = %d, want 200 (truncated)", len([]rune(mid.PrevContext)))
	}
	if len([]rune(mid.NextContext)) != 200 {
		t.Errorf("next context length = %d, want 200 (truncated)", len([]rune(mid.NextContext)))
	}

	last, _ := idx.Entry(2)
	if last.NextContext != "" {
		t.Errorf("last chunk has next context %q, want empty", last.NextContext)
	}

	if !strings.Contains(mid.Wrapper(), "middle chunk") {
		t.Errorf("wrapper does not contain the chunk text: %q", mid.Wrapper())
	}
}

func TestContextualBoostExactValue(t *testing.T) {
	idx := NewContextualIndex()

	// 20 chunks; the chunk under test sits mid-corpus (no position bonus)
	// and is short (no length bonus). Two query words overlap its text and
	// one query word appears only in the neighbor context.
	texts := make([]string, 20)
	for i := range texts {
		texts[i] = fmt.Sprintf("filler chunk number %d", i)
	}
	texts[10] = "billing policy details here"
	texts[9] = "chapter about refund terms"
	vectors := make([][]float32, 20)
	for i := range vectors {
		vectors[i] = []float32{1}
	}
	if err := idx.Add(texts, vectors); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	entry, _ := idx.Entry(10)
	// Query overlaps text on "billing" and "policy", neighbor context on
	// "refund" only.
	boost := idx.boost("billing policy refund", entry, 10)

	want := math.Min(2*0.02, 0.2) + math.Min(1*0.01, 0.1) // 0.05
	if math.Abs(boost-want) > 1e-12 {
		t.Errorf("boost = %v, want %v", boost, want)
	}
}

func TestContextualBoostPositionAndLength(t *testing.T) {
	idx := NewContextualIndex()
	long := strings.Repeat("word ", 250) // > 1000 chars
	texts := []string{long, "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{1}
	}
	if err := idx.Add(texts, vectors); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	entry, _ := idx.Entry(0)
	// Position 0 of 10 is in the first 10%, text exceeds 1000 chars, and
	// the query overlaps nothing.
	boost := idx.boost("zzz", entry, 0)
	if math.Abs(boost-0.15) > 1e-12 {
		t.Errorf("boost = %v, want 0.15 (position + length)", boost)
	}
}

func TestContextualSearchScoring(t *testing.T) {
	idx := NewContextualIndex()
	err := idx.Add(
		[]string{"refund policy text", "unrelated topic"},
		[][]float32{{1, 0}, {0, 1}},
	)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	results, err := idx.Search("refund policy", []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Text != "refund policy text" {
		t.Errorf("rank 1 = %q", results[0].Text)
	}
	if results[0].Rank != 1 {
		t.Errorf("rank = %d, want 1", results[0].Rank)
	}
	if !results[0].Methods[domain.MethodContextual] {
		t.Error("missing contextual method tag")
	}
	// final score = cosine * (1 + boost) with boost > 0 here.
	if results[0].Score <= 1.0 {
		t.Errorf("boosted exact-cosine score = %v, want > 1", results[0].Score)
	}
}

func TestContextualZeroNormVector(t *testing.T) {
	idx := NewContextualIndex()
	if err := idx.Add([]string{"a"}, [][]float32{{0, 0}}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	results, err := idx.Search("a", []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if math.IsNaN(results[0].Score) {
		t.Error("zero-norm vector produced NaN score")
	}
}

func TestContextualValidation(t *testing.T) {
	idx := NewContextualIndex()
	if err := idx.Add([]string{"a", "b"}, [][]float32{{1}}); err == nil {
		t.Fatal("expected length mismatch error")
	}
	if idx.Count() != 0 {
		t.Errorf("Count = %d after failed Add, want 0", idx.Count())
	}
}

func TestContextualClear(t *testing.T) {
	idx := NewContextualIndex()
	if err := idx.Add([]string{"a"}, [][]float32{{1}}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	idx.Clear()
	if idx.Ready() || idx.Count() != 0 {
		t.Errorf("index not empty after Clear: ready=%v count=%d", idx.Ready(), idx.Count())
	}

	results, err := idx.Search("a", []float32{1}, 1)
	if err != nil || len(results) != 0 {
		t.Errorf("search after Clear: results=%v err=%v", results, err)
	}
}

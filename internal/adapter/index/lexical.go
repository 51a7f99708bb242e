package index

import (
	"math"
	"sort"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/domain"
)

// Okapi BM25 defaults.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// LexicalIndex scores documents with the Okapi BM25 formula. The
// term-frequency, document-length, and inverse-document-frequency tables
// are fully recomputed on every Add; incremental maintenance is not worth
// the bookkeeping at this corpus scale.
type LexicalIndex struct {
	tokenizer *analyzer.Tokenizer
	k1        float64
	b         float64

	texts     []string
	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	idf       map[string]float64
}

// NewLexicalIndex creates an empty BM25 index with the given parameters.
// Non-positive parameters fall back to the Okapi defaults.
func NewLexicalIndex(tokenizer *analyzer.Tokenizer, k1, b float64) *LexicalIndex {
	if k1 <= 0 {
		k1 = DefaultK1
	}
	if b <= 0 {
		b = DefaultB
	}
	return &LexicalIndex{
		tokenizer: tokenizer,
		k1:        k1,
		b:         b,
		idf:       make(map[string]float64),
	}
}

// Add appends texts to the corpus and rebuilds all lexical statistics.
func (idx *LexicalIndex) Add(texts []string) error {
	for _, text := range texts {
		tokens := idx.tokenizer.Tokenize(text)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		idx.texts = append(idx.texts, text)
		idx.termFreqs = append(idx.termFreqs, tf)
		idx.docLens = append(idx.docLens, len(tokens))
	}
	idx.rebuildStats()
	return nil
}

// rebuildStats recomputes average document length and per-term IDF over
// the whole corpus.
func (idx *LexicalIndex) rebuildStats() {
	idx.idf = make(map[string]float64)

	n := len(idx.texts)
	if n == 0 {
		idx.avgDocLen = 0
		return
	}

	totalLen := 0
	docFreq := make(map[string]int)
	for i, tf := range idx.termFreqs {
		totalLen += idx.docLens[i]
		for term := range tf {
			docFreq[term]++
		}
	}
	idx.avgDocLen = float64(totalLen) / float64(n)

	// The +1 inside the log keeps IDF strictly positive, so a matching
	// term always contributes a positive score.
	for term, df := range docFreq {
		idx.idf[term] = math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1)
	}
}

// Search tokenizes the query, scores every document with BM25, discards
// non-positive scores, and returns the top k ranked from 1.
func (idx *LexicalIndex) Search(query string, k int) ([]domain.ScoredResult, error) {
	if len(idx.texts) == 0 || k <= 0 {
		return nil, nil
	}

	queryTokens := idx.tokenizer.Tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	type hit struct {
		position int
		score    float64
	}
	var hits []hit
	for i := range idx.texts {
		score := idx.scoreDocument(queryTokens, i)
		if score > 0 {
			hits = append(hits, hit{position: i, score: score})
		}
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
			Text:    idx.texts[hits[i].position],
			Score:   hits[i].score,
			Methods: map[domain.Method]bool{domain.MethodBM25: true},
			Rank:    i + 1,
		}
	}
	return results, nil
}

// scoreDocument computes score(D,Q) = Σ idf(t)·tf·(k1+1)/(tf + k1·(1-b+b·|D|/avgdl)).
func (idx *LexicalIndex) scoreDocument(queryTokens []string, position int) float64 {
	tf := idx.termFreqs[position]
	dl := float64(idx.docLens[position])

	var score float64
	for _, term := range queryTokens {
		f, ok := tf[term]
		if !ok {
			continue
		}
		freq := float64(f)
		score += idx.idf[term] * freq * (idx.k1 + 1) /
			(freq + idx.k1*(1-idx.b+idx.b*dl/idx.avgDocLen))
	}
	return score
}

// Clear drops the corpus and all statistics.
func (idx *LexicalIndex) Clear() {
	idx.texts = nil
	idx.termFreqs = nil
	idx.docLens = nil
	idx.avgDocLen = 0
	idx.idf = make(map[string]float64)
}

// Ready reports whether the index holds at least one document.
func (idx *LexicalIndex) Ready() bool {
	return len(idx.texts) > 0
}

// Count returns the number of indexed documents.
func (idx *LexicalIndex) Count() int {
	return len(idx.texts)
}

package domain

// Method identifies the retrieval strategy that produced a result.
type Method string

const (
	MethodSemantic   Method = "semantic"
	MethodBM25       Method = "bm25"
	MethodContextual Method = "contextual"
)

// Strategy selects how the engine retrieves candidates for a query.
type Strategy string

const (
	StrategyDense      Strategy = "dense"
	StrategyBM25       Strategy = "bm25"
	StrategyContextual Strategy = "contextual"
	StrategyHybrid     Strategy = "hybrid"
	StrategyRerank     Strategy = "rerank"
)

// Chunk is a bounded slice of extracted document text, the unit of indexing.
// Identity is positional: a chunk is addressed by its index into the corpus.
type Chunk struct {
	Text    string
	Source  string
	Ordinal int
}

// ScoredResult is one retrieval hit. Methods records every strategy that
// contributed the result; Rank is 1-based within its result list.
type ScoredResult struct {
	Text    string          `json:"text"`
	Score   float64         `json:"score"`
	Methods map[Method]bool `json:"-"`
	Rank    int             `json:"rank"`
}

// MethodList returns the contributing methods in a stable order.
func (r ScoredResult) MethodList() []Method {
	out := make([]Method, 0, len(r.Methods))
	for _, m := range []Method{MethodSemantic, MethodBM25, MethodContextual} {
		if r.Methods[m] {
			out = append(out, m)
		}
	}
	return out
}

// Retrieval is the fusion coordinator's output: a generation context list
// and a shorter citation list drawn from the same ranked candidates.
type Retrieval struct {
	Contexts  []ScoredResult
	Citations []ScoredResult
}

// Answer is a generated response with its supporting citations.
type Answer struct {
	Text    string         `json:"text"`
	Query   string         `json:"query"`
	Sources []ScoredResult `json:"sources"`
}

// IndexStatus reports readiness and size for one index.
type IndexStatus struct {
	Ready bool `json:"ready"`
	Count int  `json:"count"`
}

// EngineStatus aggregates the state of all three indices.
type EngineStatus struct {
	Dense      IndexStatus `json:"dense"`
	Lexical    IndexStatus `json:"lexical"`
	Contextual IndexStatus `json:"contextual"`
	Dimension  int         `json:"dimension"`
	Sources    []string    `json:"sources"`
}

package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/adapter/cache"
	"docqa/internal/adapter/index"
	"docqa/internal/domain"
	"docqa/internal/port"
)

// EngineOptions configures a retrieval engine. Zero values fall back to
// the documented defaults.
type EngineOptions struct {
	K1 float64
	B  float64

	Weights FusionWeights

	HybridCandidates int // per-index candidate count for hybrid fan-out
	RerankCandidates int // dense candidate count for oracle rerank
	ContextTopK      int // generation context size
	CitationTopK     int // citation list size

	Oracle port.RerankOracle
	Cache  *cache.QueryCache
	Logger *slog.Logger
}

// Engine owns the three retrieval indices and coordinates ingestion,
// deletion, and multi-strategy search over a shared append-mostly corpus.
//
// A single reader-writer lock guards all index state: mutation is
// exclusive with respect to concurrent searches. Network calls (the
// rerank oracle) happen strictly outside the lock.
type Engine struct {
	mu         sync.RWMutex
	dense      *index.DenseIndex
	lexical    *index.LexicalIndex
	contextual *index.ContextualIndex

	// Retained (chunk, vector) pairs are the source of truth for
	// deletion rebuilds, so removing a document never re-invokes the
	// embedding provider.
	chunks  []domain.Chunk
	vectors [][]float32

	weights          FusionWeights
	hybridCandidates int
	rerankCandidates int
	contextTopK      int
	citationTopK     int

	oracle port.RerankOracle
	cache  *cache.QueryCache
	log    *slog.Logger
}

// NewEngine creates an empty engine.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Weights == (FusionWeights{}) {
		opts.Weights = DefaultFusionWeights()
	}
	if opts.HybridCandidates <= 0 {
		opts.HybridCandidates = 8
	}
	if opts.RerankCandidates <= 0 {
		opts.RerankCandidates = 10
	}
	if opts.ContextTopK <= 0 {
		opts.ContextTopK = 5
	}
	if opts.CitationTopK <= 0 {
		opts.CitationTopK = 3
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine{
		dense:            index.NewDenseIndex(),
		lexical:          index.NewLexicalIndex(analyzer.NewTokenizer(), opts.K1, opts.B),
		contextual:       index.NewContextualIndex(),
		weights:          opts.Weights,
		hybridCandidates: opts.HybridCandidates,
		rerankCandidates: opts.RerankCandidates,
		contextTopK:      opts.ContextTopK,
		citationTopK:     opts.CitationTopK,
		oracle:           opts.Oracle,
		cache:            opts.Cache,
		log:              opts.Logger,
	}
}

// Add ingests a batch of (text, vector) pairs from one source document.
// The whole batch is validated against all invariants before any index is
// touched: a failed Add leaves every index unchanged.
func (e *Engine) Add(texts []string, vectors [][]float32, source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateLocked(texts, vectors); err != nil {
		return err
	}
	if len(texts) == 0 {
		return nil
	}

	e.addLocked(texts, vectors, source)
	e.log.Debug("batch ingested", "source", source, "chunks", len(texts), "total", len(e.chunks))
	return nil
}

// validateLocked checks batch shape and embedding dimensions. Callers hold
// the write lock, so the dimension cannot change between validation and
// mutation.
func (e *Engine) validateLocked(texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("%w: %d texts but %d vectors", domain.ErrValidation, len(texts), len(vectors))
	}
	if len(vectors) == 0 {
		return nil
	}

	dim := e.dense.Dimension()
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
	return nil
}

// addLocked feeds a pre-validated batch to all three indices and the
// retained corpus. Callers hold the write lock.
func (e *Engine) addLocked(texts []string, vectors [][]float32, source string) {
	// Pre-validated batches cannot fail index-level checks.
	_ = e.dense.Add(texts, vectors)
	_ = e.lexical.Add(texts)
	_ = e.contextual.Add(texts, vectors)

	base := len(e.chunks)
	for i, text := range texts {
		e.chunks = append(e.chunks, domain.Chunk{Text: text, Source: source, Ordinal: base + i})
	}
	e.vectors = append(e.vectors, vectors...)
	e.invalidateCache()
}

// DeleteSource removes every chunk of one source document and rebuilds all
// three indices from the retained pairs of the surviving chunks. The
// rebuild is O(total remaining chunks) and fully blocking, but performs no
// provider calls.
func (e *Engine) DeleteSource(source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var keptTexts []string
	var keptVectors [][]float32
	var keptSources []string
	removed := 0
	for i, c := range e.chunks {
		if c.Source == source {
			removed++
			continue
		}
		keptTexts = append(keptTexts, c.Text)
		keptVectors = append(keptVectors, e.vectors[i])
		keptSources = append(keptSources, c.Source)
	}
	if removed == 0 {
		return fmt.Errorf("%w: unknown source %q", domain.ErrValidation, source)
	}

	e.clearLocked()
	for start := 0; start < len(keptTexts); {
		// Re-ingest per surviving source so contextual neighbors never
		// cross document boundaries introduced by the removal.
		end := start + 1
		for end < len(keptTexts) && keptSources[end] == keptSources[start] {
			end++
		}
		e.addLocked(keptTexts[start:end], keptVectors[start:end], keptSources[start])
		start = end
	}

	e.log.Info("source deleted", "source", source, "removed", removed, "remaining", len(e.chunks))
	return nil
}

// Reset empties all three indices and the retained corpus.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearLocked()
}

func (e *Engine) clearLocked() {
	e.dense.Clear()
	e.lexical.Clear()
	e.contextual.Clear()
	e.chunks = nil
	e.vectors = nil
	e.invalidateCache()
}

func (e *Engine) invalidateCache() {
	if e.cache != nil {
		e.cache.Invalidate()
	}
}

// Search runs one retrieval strategy and returns at most k results.
// Searching an empty corpus returns an empty list, never an error.
func (e *Engine) Search(ctx context.Context, query string, queryVector []float32, k int, strategy domain.Strategy) ([]domain.ScoredResult, error) {
	cacheable := strategy != domain.StrategyRerank
	if cacheable && e.cache != nil {
		if results, ok := e.cache.Get(strategy, query, k); ok {
			return results, nil
		}
	}

	var results []domain.ScoredResult
	var err error

	switch strategy {
	case domain.StrategyDense:
		e.mu.RLock()
		results, err = e.dense.Search(queryVector, k)
		e.mu.RUnlock()
	case domain.StrategyBM25:
		e.mu.RLock()
		results, err = e.lexical.Search(query, k)
		e.mu.RUnlock()
	case domain.StrategyContextual:
		e.mu.RLock()
		results, err = e.contextual.Search(query, queryVector, k)
		e.mu.RUnlock()
	case domain.StrategyHybrid:
		results, err = e.hybridSearch(query, queryVector)
		results = truncateResults(results, k)
	case domain.StrategyRerank:
		results, err = e.oracleRerank(ctx, query, queryVector)
		results = truncateResults(results, k)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", domain.ErrValidation, strategy)
	}
	if err != nil {
		return nil, err
	}

	if cacheable && e.cache != nil {
		e.cache.Put(strategy, query, k, results)
	}
	return results, nil
}

// Retrieve runs a strategy and splits the ranked output into generation
// contexts and citation sources. An empty retrieval is a valid outcome.
func (e *Engine) Retrieve(ctx context.Context, query string, queryVector []float32, strategy domain.Strategy) (domain.Retrieval, error) {
	results, err := e.Search(ctx, query, queryVector, e.contextTopK, strategy)
	if err != nil {
		return domain.Retrieval{}, err
	}

	return domain.Retrieval{
		Contexts:  truncateResults(results, e.contextTopK),
		Citations: truncateResults(results, e.citationTopK),
	}, nil
}

// hybridSearch fans the query out to all three indices, normalizes their
// heterogeneous scores with the configured weights, and merges.
func (e *Engine) hybridSearch(query string, queryVector []float32) ([]domain.ScoredResult, error) {
	e.mu.RLock()
	denseResults, err := e.dense.Search(queryVector, e.hybridCandidates)
	if err != nil {
		e.mu.RUnlock()
		return nil, err
	}
	lexicalResults, err := e.lexical.Search(query, e.hybridCandidates)
	if err != nil {
		e.mu.RUnlock()
		return nil, err
	}
	contextualResults, err := e.contextual.Search(query, queryVector, e.hybridCandidates)
	e.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	return fuseWeighted(denseResults, lexicalResults, contextualResults, e.weights), nil
}

// oracleRerank fetches dense candidates, asks the rerank oracle for a
// 1-based permutation, and reorders. Malformed or invalid oracle output
// falls back to the original candidate order and never raises.
func (e *Engine) oracleRerank(ctx context.Context, query string, queryVector []float32) ([]domain.ScoredResult, error) {
	e.mu.RLock()
	candidates, err := e.dense.Search(queryVector, e.rerankCandidates)
	e.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 || e.oracle == nil {
		return candidates, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	// Oracle round trip happens outside the index lock.
	raw, err := e.oracle.Rerank(ctx, query, texts)
	if err != nil {
		return nil, err
	}

	ranking, err := parseRanking(raw, len(candidates))
	if err != nil {
		e.log.Warn("oracle ranking rejected, keeping original order", "reason", err)
		return candidates, nil
	}
	return applyRanking(candidates, ranking), nil
}

// Status reports per-index readiness and counts.
func (e *Engine) Status() domain.EngineStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()

	seen := make(map[string]bool)
	var sources []string
	for _, c := range e.chunks {
		if !seen[c.Source] {
			seen[c.Source] = true
			sources = append(sources, c.Source)
		}
	}
	sort.Strings(sources)

	return domain.EngineStatus{
		Dense:      domain.IndexStatus{Ready: e.dense.Ready(), Count: e.dense.Count()},
		Lexical:    domain.IndexStatus{Ready: e.lexical.Ready(), Count: e.lexical.Count()},
		Contextual: domain.IndexStatus{Ready: e.contextual.Ready(), Count: e.contextual.Count()},
		Dimension:  e.dense.Dimension(),
		Sources:    sources,
	}
}

// DocumentCount returns the number of indexed chunks.
func (e *Engine) DocumentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.chunks)
}

// Ready reports whether all three indices hold data.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dense.Ready() && e.lexical.Ready() && e.contextual.Ready()
}

// Snapshot writes the retained corpus to the store.
func (e *Engine) Snapshot(store port.SnapshotStore) error {
	e.mu.RLock()
	chunks := make([]domain.Chunk, len(e.chunks))
	copy(chunks, e.chunks)
	vectors := make([][]float32, len(e.vectors))
	copy(vectors, e.vectors)
	e.mu.RUnlock()

	return store.Save(chunks, vectors)
}

// Restore replaces the engine state with the store's corpus, rebuilding
// all three indices per source document.
func (e *Engine) Restore(store port.SnapshotStore) error {
	chunks, vectors, err := store.Load()
	if err != nil {
		return err
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: snapshot holds %d chunks but %d vectors",
			domain.ErrValidation, len(chunks), len(vectors))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearLocked()

	for start := 0; start < len(chunks); {
		end := start + 1
		for end < len(chunks) && chunks[end].Source == chunks[start].Source {
			end++
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}
		e.addLocked(texts, vectors[start:end], chunks[start].Source)
		start = end
	}
	return nil
}

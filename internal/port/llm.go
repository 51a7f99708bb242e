package port

import "context"

// Generator produces an answer to a query grounded in retrieved context.
type Generator interface {
	// Generate answers the query using the given context chunks. The
	// sourceLabel names the document collection for the prompt.
	Generate(ctx context.Context, query string, contexts []string, sourceLabel string) (string, error)

	// ModelName returns the name of the generation model.
	ModelName() string
}

// RerankOracle reorders a candidate list by relevance. The raw return
// value is expected to parse as a JSON array of 1-based candidate
// indices; callers must tolerate arbitrary output.
type RerankOracle interface {
	Rerank(ctx context.Context, query string, candidates []string) (string, error)
}

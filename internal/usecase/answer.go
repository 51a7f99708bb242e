package usecase

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// Returned verbatim when retrieval finds nothing; the generator is not
// called in that case.
const noContextAnswer = "I couldn't find relevant information in the document to answer your question."

// AnswerUseCase embeds a question, retrieves supporting chunks, and hands
// them to the generator.
type AnswerUseCase struct {
	embedder  port.Embedder
	generator port.Generator
	engine    *Engine
}

// NewAnswerUseCase creates an answer use case.
func NewAnswerUseCase(embedder port.Embedder, generator port.Generator, engine *Engine) *AnswerUseCase {
	return &AnswerUseCase{
		embedder:  embedder,
		generator: generator,
		engine:    engine,
	}
}

// Ask answers the query using the given retrieval strategy. Provider
// failures surface to the caller; an empty retrieval yields a canned
// answer with no sources.
func (u *AnswerUseCase) Ask(ctx context.Context, query string, strategy domain.Strategy) (domain.Answer, error) {
	vectors, err := u.embedder.Embed(ctx, []string{query})
	if err != nil {
		return domain.Answer{}, err
	}
	if len(vectors) == 0 {
		return domain.Answer{}, fmt.Errorf("embedding returned no vector for query")
	}

	retrieval, err := u.engine.Retrieve(ctx, query, vectors[0], strategy)
	if err != nil {
		return domain.Answer{}, err
	}

	if len(retrieval.Contexts) == 0 {
		return domain.Answer{Text: noContextAnswer, Query: query}, nil
	}

	contexts := make([]string, len(retrieval.Contexts))
	for i, r := range retrieval.Contexts {
		contexts[i] = r.Text
	}

	status := u.engine.Status()
	text, err := u.generator.Generate(ctx, query, contexts, strings.Join(status.Sources, ", "))
	if err != nil {
		return domain.Answer{}, err
	}

	return domain.Answer{
		Text:    text,
		Query:   query,
		Sources: retrieval.Citations,
	}, nil
}

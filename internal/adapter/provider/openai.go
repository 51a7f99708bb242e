package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"docqa/internal/domain"
)

// Batch size for embedding requests. Batches are dispatched concurrently
// and reassembled in input order: index position is the only document
// identity, so order is not negotiable.
const embedBatchSize = 16

const maxConcurrentBatches = 4

// OpenAIProvider implements the Embedder, Generator, and RerankOracle
// ports against any OpenAI-compatible API, including Azure OpenAI.
type OpenAIProvider struct {
	client *openai.Client

	embedModel string
	dimension  int
	batchSize  int

	genModel       string
	maxTokens      int
	temperature    float32
	embedTimeout   time.Duration
	requestTimeout time.Duration
}

// ProviderOptions configures an OpenAIProvider.
type ProviderOptions struct {
	EmbedModel     string
	Dimension      int
	BatchSize      int
	GenModel       string
	MaxTokens      int
	Temperature    float64
	EmbedTimeout   time.Duration
	RequestTimeout time.Duration
}

func (o *ProviderOptions) applyDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = embedBatchSize
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1000
	}
	if o.Temperature <= 0 {
		o.Temperature = 0.3
	}
	if o.EmbedTimeout <= 0 {
		o.EmbedTimeout = 60 * time.Second
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
}

// NewOpenAIProvider creates a provider for the public OpenAI API. The key
// is read from the named environment variable.
func NewOpenAIProvider(apiKeyEnv string, opts ProviderOptions) (*OpenAIProvider, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key not found in environment variable %s",
			domain.ErrProviderAuth, apiKeyEnv)
	}
	return newProvider(openai.NewClient(apiKey), opts), nil
}

// NewAzureProvider creates a provider for an Azure OpenAI deployment. Key
// and endpoint are read from the named environment variables.
func NewAzureProvider(apiKeyEnv, endpointEnv string, opts ProviderOptions) (*OpenAIProvider, error) {
	apiKey := os.Getenv(apiKeyEnv)
	endpoint := os.Getenv(endpointEnv)
	if apiKey == "" || endpoint == "" {
		return nil, fmt.Errorf("%w: Azure key and endpoint must be set via %s and %s",
			domain.ErrProviderAuth, apiKeyEnv, endpointEnv)
	}
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	return newProvider(openai.NewClientWithConfig(cfg), opts), nil
}

// NewCompatibleProvider creates a provider for any OpenAI-compatible base
// URL (local inference servers, proxies).
func NewCompatibleProvider(apiKey, baseURL string, opts ProviderOptions) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return newProvider(openai.NewClientWithConfig(cfg), opts)
}

func newProvider(client *openai.Client, opts ProviderOptions) *OpenAIProvider {
	opts.applyDefaults()
	return &OpenAIProvider{
		client:         client,
		embedModel:     opts.EmbedModel,
		dimension:      opts.Dimension,
		batchSize:      opts.BatchSize,
		genModel:       opts.GenModel,
		maxTokens:      opts.MaxTokens,
		temperature:    float32(opts.Temperature),
		embedTimeout:   opts.EmbedTimeout,
		requestTimeout: opts.RequestTimeout,
	}
}

// Embed returns one vector per input text, in input order. Batches of
// batchSize texts are dispatched concurrently; results are written into
// pre-assigned slots so reassembly preserves order. Any failed batch fails
// the whole call; there is no retry.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.embedTimeout)
	defer cancel()

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)

	for start := 0; start < len(texts); start += p.batchSize {
		start := start
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			vectors, err := p.embedBatch(gctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(out[start:end], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, classifyProviderError("embed", err)
	}
	return out, nil
}

func (p *OpenAIProvider) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.embedModel),
		Input: texts,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		vectors[data.Index] = data.Embedding
	}
	return vectors, nil
}

// Dimension returns the configured embedding dimension.
func (p *OpenAIProvider) Dimension() int {
	return p.dimension
}

// ModelName returns the embedding model name.
func (p *OpenAIProvider) ModelName() string {
	return p.embedModel
}

const generateSystemPrompt = `You are an AI assistant that helps analyze documents.
You have been provided with relevant excerpts from the document "%s".

Instructions:
1. Answer the user's question based on the provided context
2. If the context doesn't contain relevant information, say so clearly
3. Be specific and cite relevant parts of the document when possible
4. If you're unsure about something, acknowledge the uncertainty
5. Keep your response concise but informative

Context from the document:
%s`

// Generate answers the query grounded in the given context chunks.
func (p *OpenAIProvider) Generate(ctx context.Context, query string, contexts []string, sourceLabel string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	system := fmt.Sprintf(generateSystemPrompt, sourceLabel, strings.Join(contexts, "\n\n"))

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.genModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: "Question: " + query},
		},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		return "", classifyProviderError("generate", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.WrapError(domain.ErrProviderNetwork, "generate",
			errors.New("no choices in completion response"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

const rerankSystemPrompt = `You rank document passages by relevance to a question.
Respond with ONLY a JSON array of the passage numbers, most relevant first,
e.g. [3, 1, 2]. Do not explain.`

// Rerank asks the model to reorder candidates and returns the raw reply.
// Callers parse and validate; malformed output is their fallback problem,
// not an error here.
func (p *OpenAIProvider) Rerank(ctx context.Context, query string, candidates []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nPassages:\n", query)
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.genModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: rerankSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: b.String()},
		},
		MaxTokens:   200,
		Temperature: 0,
	})
	if err != nil {
		return "", classifyProviderError("rerank", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.WrapError(domain.ErrProviderNetwork, "rerank",
			errors.New("no choices in completion response"))
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyProviderError maps transport failures onto the domain error
// taxonomy so callers can distinguish auth, quota, timeout, and network
// causes.
func classifyProviderError(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrProviderTimeout, operation, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return domain.WrapError(domain.ErrProviderAuth, operation, err)
		case 429:
			return domain.WrapError(domain.ErrProviderQuota, operation, err)
		}
	}
	return domain.WrapError(domain.ErrProviderNetwork, operation, err)
}

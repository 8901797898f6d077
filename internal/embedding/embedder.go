// Package embedding maps text to fixed-length vectors via the OpenAI
// embeddings API. Requests are batched during ingestion and retried with
// exponential backoff on rate limit errors.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// DefaultModel is the embedding model the corpus indices are built with.
	// A query must be embedded with the same model as the chunks it is
	// compared against.
	DefaultModel = "text-embedding-3-small"

	// Dimension is the vector size produced by DefaultModel. Every index
	// backend validates chunk and query vectors against it.
	Dimension = 1536

	// DefaultBatchSize balances requests-per-minute against tokens-per-minute
	// rate limits during corpus ingestion.
	DefaultBatchSize = 500
)

// Embedder generates embeddings for text.
type Embedder struct {
	client    *Client
	model     string
	batchSize int
}

// NewEmbedder creates an Embedder. Empty model and non-positive batchSize
// fall back to the defaults.
func NewEmbedder(client *Client, model string, batchSize int) *Embedder {
	if model == "" {
		model = DefaultModel
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		client:    client,
		model:     model,
		batchSize: batchSize,
	}
}

// EmbedTexts generates embeddings for the given texts, batched and in input
// order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	var all [][]float32

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch := texts[i:end]

		embeddings, err := e.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		all = append(all, embeddings...)
	}

	return all, nil
}

// EmbedQuery embeds a single statement. The query path embeds once per
// request and shares the vector across all per-party searches.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.embedBatchWithRetry(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(embeddings))
	}
	return embeddings[0], nil
}

// embedBatchWithRetry generates embeddings for a single batch. Rate limit
// errors (HTTP 429) are retried with exponential backoff; everything else is
// permanent and fails immediately.
func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: e.model,
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		embeddings = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			embeddings[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return embeddings, err
}

func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts the API's float64 vectors to the float32 the index
// stores.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}

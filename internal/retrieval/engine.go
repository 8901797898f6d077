// Package retrieval fetches a party's manifesto chunks most similar to a
// statement. The statement is embedded once per request; the resulting
// vector is shared across all per-party searches.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wahlkompass/wahlkompass/internal/index"
	"github.com/wahlkompass/wahlkompass/internal/party"
)

// QueryEmbedder embeds a single statement.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Engine performs per-party candidate retrieval with a noise threshold.
type Engine struct {
	embedder QueryEmbedder
	store    index.Store
	topK     int
	minScore float64
	logger   *slog.Logger
}

// NewEngine creates a retrieval engine. topK and minScore come from
// configuration; they are tuned against the corpus, not contractual.
func NewEngine(embedder QueryEmbedder, store index.Store, topK int, minScore float64, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		embedder: embedder,
		store:    store,
		topK:     topK,
		minScore: minScore,
		logger:   logger,
	}
}

// EmbedStatement embeds the request statement. A failure here fails the
// whole request since every party's retrieval needs the vector.
func (e *Engine) EmbedStatement(ctx context.Context, statement string) ([]float32, error) {
	vector, err := e.embedder.EmbedQuery(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("embed statement: %w", err)
	}
	return vector, nil
}

// Retrieve returns the party's top hits above the noise threshold, sorted by
// descending similarity. A missing or broken index degrades to an empty
// result: downstream synthesis then takes the no-evidence path.
func (e *Engine) Retrieve(ctx context.Context, p party.Party, vector []float32) []index.Hit {
	hits, err := e.store.Search(ctx, p, vector, e.topK)
	if err != nil {
		e.logger.Warn("Retrieval failed, treating as no evidence", "party", p.Key(), "error", err)
		return nil
	}

	filtered := hits[:0]
	for _, hit := range hits {
		if hit.Score >= e.minScore {
			filtered = append(filtered, hit)
		}
	}
	return filtered
}

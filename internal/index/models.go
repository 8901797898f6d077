// Package index defines the chunk data model and the per-party vector store
// contract shared by the in-process and qdrant backends.
package index

import (
	"context"

	"github.com/wahlkompass/wahlkompass/internal/party"
)

// Dimension is the embedding vector size (text-embedding-3-small). Both
// backends validate chunk and query vectors against it.
const Dimension = 1536

// Chunk is one indexed slice of a party's manifesto. Chunks are immutable
// once indexed; a re-ingestion replaces a party's chunks wholesale.
type Chunk struct {
	ID        string      // UUID
	Party     party.Party // owning party
	Text      string      // chunk text, the citation unit
	Source    string      // source document title, e.g. "Wahlprogramm 2025"
	Page      *int        // 1-based page number, nil for page-less formats
	Section   string      // heading path for structured formats, may be empty
	Link      string      // URL to the official manifesto
	Embedding []float32
}

// Hit pairs a chunk with its similarity score for one query. Hits are
// ephemeral and never persisted; scores are only comparable within a single
// query's results.
type Hit struct {
	Chunk Chunk
	Score float64
}

// Store is the per-party vector index. Reads are safe concurrently with each
// other; Replace swaps a party's index atomically so readers never observe a
// partially built index.
type Store interface {
	// Replace installs chunks as the party's new index, discarding any prior
	// contents. The old index remains servable until the swap completes.
	Replace(ctx context.Context, p party.Party, chunks []Chunk) error

	// Search returns up to k hits sorted by descending similarity. A party
	// with no indexed chunks yields an empty slice, not an error.
	Search(ctx context.Context, p party.Party, vector []float32, k int) ([]Hit, error)

	// Count returns the number of chunks indexed for the party.
	Count(ctx context.Context, p party.Party) (int, error)

	Close() error
}

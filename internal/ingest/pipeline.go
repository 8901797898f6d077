// Package ingest builds per-party vector indices from the configured corpus:
// parse, chunk, embed, then replace the party's index in one swap.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/wahlkompass/wahlkompass/internal/chunker"
	"github.com/wahlkompass/wahlkompass/internal/config"
	"github.com/wahlkompass/wahlkompass/internal/index"
	"github.com/wahlkompass/wahlkompass/internal/parse"
	"github.com/wahlkompass/wahlkompass/internal/party"
)

// Embedder is the embedding provider dependency of the pipeline.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Result contains statistics about one party's ingestion.
type Result struct {
	Party          party.Party
	TotalDocs      int
	SuccessfulDocs int
	TotalChunks    int
	Failed         []FailedDoc
	Duration       time.Duration
}

// FailedDoc records a document whose ingestion failed. A failed document
// never aborts the rest of the party's corpus.
type FailedDoc struct {
	Path   string
	Reason string
}

// Pipeline orchestrates parsing, chunking, embedding and index population.
type Pipeline struct {
	corpus   []config.Source
	chunker  *chunker.Chunker
	embedder Embedder
	store    index.Store
	logger   *slog.Logger
}

// NewPipeline creates an ingestion pipeline over the configured corpus.
func NewPipeline(corpus []config.Source, c *chunker.Chunker, embedder Embedder, store index.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		corpus:   corpus,
		chunker:  c,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// IngestAll rebuilds the index of every party that has corpus sources.
func (p *Pipeline) IngestAll(ctx context.Context) ([]*Result, error) {
	var results []*Result
	for _, pt := range party.All() {
		if len(p.sourcesFor(pt)) == 0 {
			continue
		}
		result, err := p.IngestParty(ctx, pt)
		if err != nil {
			return results, fmt.Errorf("ingest %s: %w", pt, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// IngestParty rebuilds one party's index from its corpus sources. Documents
// fail individually; the index is swapped in only after every document has
// been processed, and reflects the successful ones. Re-running with the same
// corpus replaces rather than accumulates.
func (p *Pipeline) IngestParty(ctx context.Context, pt party.Party) (*Result, error) {
	start := time.Now()
	sources := p.sourcesFor(pt)
	result := &Result{Party: pt, TotalDocs: len(sources)}

	p.logger.Info("Starting ingestion", "party", pt.Key(), "documents", len(sources))

	var chunks []index.Chunk
	for _, src := range sources {
		docChunks, err := p.processDocument(ctx, pt, src)
		if err != nil {
			p.logger.Warn("Failed to ingest document", "party", pt.Key(), "path", src.Path, "error", err)
			result.Failed = append(result.Failed, FailedDoc{
				Path:   src.Path,
				Reason: err.Error(),
			})
			continue
		}
		result.SuccessfulDocs++
		chunks = append(chunks, docChunks...)
	}
	result.TotalChunks = len(chunks)

	if err := p.store.Replace(ctx, pt, chunks); err != nil {
		return nil, fmt.Errorf("replace index: %w", err)
	}

	result.Duration = time.Since(start)
	p.logger.Info("Ingestion complete",
		"party", pt.Key(),
		"successful", result.SuccessfulDocs,
		"failed", len(result.Failed),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)

	return result, nil
}

// processDocument runs one source document through parse, chunk and embed.
func (p *Pipeline) processDocument(ctx context.Context, pt party.Party, src config.Source) ([]index.Chunk, error) {
	parser, err := parse.ForPath(src.Path)
	if err != nil {
		return nil, err
	}

	segments, err := parser.Parse(src.Path)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	pieces := p.chunker.Split(segments)
	if len(pieces) == 0 {
		p.logger.Warn("Document produced no chunks", "path", src.Path)
		return nil, nil
	}
	p.logger.Debug("Chunked document", "path", src.Path, "chunks", len(pieces))

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.Text
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(embeddings) != len(pieces) {
		return nil, fmt.Errorf("got %d embeddings for %d chunks", len(embeddings), len(pieces))
	}

	title := src.Title
	if title == "" {
		title = filepath.Base(src.Path)
	}
	link := src.Link
	if link == "" {
		link = pt.ManifestoLink()
	}

	chunks := make([]index.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = index.Chunk{
			ID:        uuid.New().String(),
			Party:     pt,
			Text:      piece.Text,
			Source:    title,
			Page:      piece.Page,
			Section:   piece.Section,
			Link:      link,
			Embedding: embeddings[i],
		}
	}

	p.logger.Info("Ingested document", "path", src.Path, "chunks", len(chunks))
	return chunks, nil
}

func (p *Pipeline) sourcesFor(pt party.Party) []config.Source {
	var sources []config.Source
	for _, src := range p.corpus {
		if src.Party == pt.Key() {
			sources = append(sources, src)
		}
	}
	return sources
}

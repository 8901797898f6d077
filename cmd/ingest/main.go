// Package main provides the ingestion CLI for building per-party manifesto
// indices.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wahlkompass/wahlkompass/internal/chunker"
	"github.com/wahlkompass/wahlkompass/internal/config"
	"github.com/wahlkompass/wahlkompass/internal/embedding"
	"github.com/wahlkompass/wahlkompass/internal/index"
	"github.com/wahlkompass/wahlkompass/internal/index/memory"
	"github.com/wahlkompass/wahlkompass/internal/index/qdrant"
	"github.com/wahlkompass/wahlkompass/internal/ingest"
	"github.com/wahlkompass/wahlkompass/internal/party"
)

var (
	configPath string
	partyKey   string
)

var rootCmd = &cobra.Command{
	Use:   "wahlkompass-ingest",
	Short: "Manifesto index builder",
	Long:  "CLI tool for building and rebuilding per-party manifesto vector indices",
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Rebuild party indices from the configured corpus",
	Long: `Parses, chunks and embeds the configured manifesto documents and
atomically replaces each party's vector index.

This command:
1. Loads the corpus configuration
2. Parses each manifesto document (PDF, markdown or plain text)
3. Splits documents into overlapping chunks
4. Generates embeddings in batches
5. Replaces each party's index in one atomic swap

Environment variables:
  OPENAI_API_KEY OpenAI API key for embeddings (required)
  QDRANT_HOST    Qdrant hostname, qdrant backend only (default: localhost)
  QDRANT_PORT    Qdrant gRPC port, qdrant backend only (default: 6334)`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	ingestCmd.Flags().StringVarP(&partyKey, "party", "p", "", "rebuild only this party's index (e.g. spd)")
	rootCmd.AddCommand(ingestCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if len(cfg.Corpus) == 0 {
		return fmt.Errorf("no corpus sources configured in %s", configPath)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.Embedding.Model, cfg.Embedding.BatchSize)

	c := chunker.New(cfg.Chunker.MaxChunkSize, cfg.Chunker.Overlap)
	pipeline := ingest.NewPipeline(cfg.Corpus, c, embedder, store, slog.Default())

	var results []*ingest.Result
	if partyKey != "" {
		p, ok := party.FromKey(partyKey)
		if !ok {
			return fmt.Errorf("unknown party %q", partyKey)
		}
		fmt.Printf("Ingesting corpus for %s...\n", p.DisplayName())
		result, err := pipeline.IngestParty(ctx, p)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		results = append(results, result)
	} else {
		fmt.Println("Ingesting full corpus...")
		results, err = pipeline.IngestAll(ctx)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
	}

	fmt.Println()
	fmt.Println("Ingestion complete!")
	for _, result := range results {
		fmt.Printf("  %-8s documents %d/%d, chunks %d, took %s\n",
			result.Party.Key(), result.SuccessfulDocs, result.TotalDocs,
			result.TotalChunks, result.Duration.Round(time.Second))
		for _, failed := range result.Failed {
			fmt.Printf("           failed: %s: %s\n", failed.Path, failed.Reason)
		}
	}
	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))

	return nil
}

// openStore builds the configured index backend.
func openStore(ctx context.Context, cfg *config.Config) (index.Store, error) {
	switch cfg.Index.Backend {
	case "qdrant":
		fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.Index.Qdrant.Host, cfg.Index.Qdrant.Port)
		store, err := qdrant.NewStore(cfg.Index.Qdrant.Host, cfg.Index.Qdrant.Port, cfg.Index.Qdrant.Collection)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
		}
		if err := store.EnsureCollection(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to ensure collection: %w", err)
		}
		return store, nil
	default:
		store := memory.NewStore(cfg.Index.Dir)
		if err := store.Load(); err != nil {
			return nil, fmt.Errorf("failed to load indices from %s: %w", cfg.Index.Dir, err)
		}
		return store, nil
	}
}

// Package main provides the analysis server entry point.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wahlkompass/wahlkompass/internal/analysis"
	"github.com/wahlkompass/wahlkompass/internal/config"
	"github.com/wahlkompass/wahlkompass/internal/embedding"
	"github.com/wahlkompass/wahlkompass/internal/index"
	"github.com/wahlkompass/wahlkompass/internal/index/memory"
	"github.com/wahlkompass/wahlkompass/internal/index/qdrant"
	"github.com/wahlkompass/wahlkompass/internal/retrieval"
	srv "github.com/wahlkompass/wahlkompass/internal/server"
	"github.com/wahlkompass/wahlkompass/internal/synthesis"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	configPath := getEnv("CONFIG_PATH", "config.yaml")
	port := getEnv("PORT", "8080")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open index store: %v", err)
	}
	defer store.Close()

	client, err := embedding.NewClient()
	if err != nil {
		log.Fatalf("failed to create embedding client: %v", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.Embedding.Model, cfg.Embedding.BatchSize)

	logger := slog.Default()
	retriever := retrieval.NewEngine(embedder, store, cfg.Retrieval.TopK, cfg.Retrieval.MinScore, logger)
	// Chat completions reuse the embedding connection.
	completer := synthesis.NewOpenAICompleter(client.Client(), cfg.Synthesis.Model)
	synthesizer := synthesis.NewSynthesizer(completer, cfg.Synthesis.MaxEvidenceChars, logger)
	engine := analysis.NewEngine(
		retriever,
		synthesizer,
		cfg.Analysis.MaxStatementLen,
		time.Duration(cfg.Analysis.PartyTimeoutSecs)*time.Second,
		logger,
	)

	server := srv.NewServer(&srv.Config{
		Analyzer: engine,
		Store:    store,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.NewHealthHandler(store))
	mux.HandleFunc("/analyze", srv.NewAnalyzeHandler(engine, logger))
	mux.Handle("/mcp", srv.NewHTTPHandler(server, nil))

	// Check if running in server mode (HTTP) or stdio mode (local development)
	serverMode := getEnv("SERVER_MODE", "false") == "true"

	if serverMode {
		addr := "0.0.0.0:" + port
		log.Printf("Starting HTTP server on %s (analyze at /analyze, MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	} else {
		// Stdio mode: run the MCP server over stdin/stdout for local
		// clients, with the HTTP endpoints in the background.
		go func() {
			addr := "0.0.0.0:" + port
			log.Printf("Starting HTTP endpoints on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("HTTP server error: %v", err)
			}
		}()

		log.Println("Starting Wahlkompass MCP server (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
	}
}

// openStore builds the configured index backend and loads persisted indices.
func openStore(ctx context.Context, cfg *config.Config) (index.Store, error) {
	switch cfg.Index.Backend {
	case "qdrant":
		store, err := qdrant.NewStore(cfg.Index.Qdrant.Host, cfg.Index.Qdrant.Port, cfg.Index.Qdrant.Collection)
		if err != nil {
			return nil, fmt.Errorf("connect to qdrant: %w", err)
		}
		if err := store.EnsureCollection(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("ensure collection: %w", err)
		}
		return store, nil
	default:
		store := memory.NewStore(cfg.Index.Dir)
		if err := store.Load(); err != nil {
			return nil, fmt.Errorf("load indices from %s: %w", cfg.Index.Dir, err)
		}
		return store, nil
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

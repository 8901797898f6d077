// Package config loads the application configuration from YAML. Tuning
// constants (chunk sizes, top-k, similarity threshold) live here rather than
// in code: they are tuned empirically against the corpus, not contractual.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/wahlkompass/wahlkompass/internal/party"
)

// Source describes one manifesto document to ingest for a party.
type Source struct {
	Party string `yaml:"party"`
	Title string `yaml:"title"`
	Path  string `yaml:"path"`
	// Link overrides the party's default manifesto URL on citations.
	Link string `yaml:"link,omitempty"`
}

// ChunkerConfig configures how parsed documents are split.
type ChunkerConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size"`
	Overlap      int `yaml:"overlap"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

// QdrantConfig contains connection details for the qdrant index backend.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	// Backend is "memory" (in-process, persisted under Dir) or "qdrant".
	Backend string        `yaml:"backend"`
	Dir     string        `yaml:"dir"`
	Qdrant  *QdrantConfig `yaml:"qdrant,omitempty"`
}

// RetrievalConfig tunes per-party candidate retrieval.
type RetrievalConfig struct {
	TopK     int     `yaml:"top_k"`
	MinScore float64 `yaml:"min_score"`
}

// SynthesisConfig configures the stance synthesizer.
type SynthesisConfig struct {
	Model            string `yaml:"model"`
	MaxEvidenceChars int    `yaml:"max_evidence_chars"`
}

// AnalysisConfig bounds request handling.
type AnalysisConfig struct {
	MaxStatementLen  int `yaml:"max_statement_len"`
	PartyTimeoutSecs int `yaml:"party_timeout_secs"`
}

// Config is the root application configuration.
type Config struct {
	Corpus    []Source        `yaml:"corpus"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
}

// Load reads a config from path. A missing file yields the defaults; a
// present file only needs to name the fields it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &Config{}
			applyDefaults(cfg)
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Chunker.MaxChunkSize <= 0 {
		cfg.Chunker.MaxChunkSize = 1000
	}
	if cfg.Chunker.Overlap < 0 || cfg.Chunker.Overlap >= cfg.Chunker.MaxChunkSize {
		cfg.Chunker.Overlap = 200
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.BatchSize <= 0 {
		cfg.Embedding.BatchSize = 500
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "memory"
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = "indices"
	}
	if cfg.Index.Backend == "qdrant" && cfg.Index.Qdrant == nil {
		cfg.Index.Qdrant = &QdrantConfig{}
	}
	if cfg.Index.Qdrant != nil {
		if cfg.Index.Qdrant.Host == "" {
			cfg.Index.Qdrant.Host = "localhost"
		}
		if cfg.Index.Qdrant.Port <= 0 {
			cfg.Index.Qdrant.Port = 6334
		}
		if cfg.Index.Qdrant.Collection == "" {
			cfg.Index.Qdrant.Collection = "manifestos"
		}
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 6
	}
	if cfg.Retrieval.MinScore <= 0 {
		cfg.Retrieval.MinScore = 0.35
	}
	if cfg.Synthesis.Model == "" {
		cfg.Synthesis.Model = "gpt-4o"
	}
	if cfg.Synthesis.MaxEvidenceChars <= 0 {
		cfg.Synthesis.MaxEvidenceChars = 12000
	}
	if cfg.Analysis.MaxStatementLen <= 0 {
		cfg.Analysis.MaxStatementLen = 1000
	}
	if cfg.Analysis.PartyTimeoutSecs <= 0 {
		cfg.Analysis.PartyTimeoutSecs = 25
	}
}

// applyEnvOverrides lets deployment environment variables win over file
// values for connection details.
func applyEnvOverrides(cfg *Config) {
	if cfg.Index.Qdrant == nil {
		return
	}
	if v := os.Getenv("QDRANT_HOST"); v != "" {
		cfg.Index.Qdrant.Host = v
	}
	if v := os.Getenv("QDRANT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Index.Qdrant.Port = port
		}
	}
}

func validate(cfg *Config) error {
	switch cfg.Index.Backend {
	case "memory", "qdrant":
	default:
		return fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
	for i, src := range cfg.Corpus {
		if _, ok := party.FromKey(src.Party); !ok {
			return fmt.Errorf("corpus[%d]: unknown party %q", i, src.Party)
		}
		if src.Path == "" {
			return fmt.Errorf("corpus[%d]: missing path", i)
		}
	}
	return nil
}

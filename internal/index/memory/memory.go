// Package memory provides an in-process vector index with brute-force cosine
// search. Each party owns an immutable index snapshot behind a pointer that
// Replace swaps atomically; snapshots are persisted to disk so ingestion does
// not have to rerun at every process start.
package memory

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/wahlkompass/wahlkompass/internal/index"
	"github.com/wahlkompass/wahlkompass/internal/party"
)

// snapshot is one party's fully built index. Snapshots are never mutated
// after construction, so searches can run on them without holding the lock.
type snapshot struct {
	Dimension int
	Chunks    []index.Chunk
}

// Store implements index.Store in process memory.
type Store struct {
	mu      sync.RWMutex
	parties map[party.Party]*snapshot
	dir     string
}

var _ index.Store = (*Store)(nil)

// NewStore creates a Store persisting under dir. An empty dir disables
// persistence (used in tests).
func NewStore(dir string) *Store {
	return &Store{
		parties: make(map[party.Party]*snapshot),
		dir:     dir,
	}
}

// Load restores all persisted party indices from disk. Parties without a
// persisted file are left empty; a missing directory is not an error.
func (s *Store) Load() error {
	if s.dir == "" {
		return nil
	}
	for _, p := range party.All() {
		snap, err := readSnapshot(s.partyFile(p))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load index for %s: %w", p, err)
		}
		s.mu.Lock()
		s.parties[p] = snap
		s.mu.Unlock()
	}
	return nil
}

// Replace installs chunks as the party's new index. The snapshot is built
// and persisted before the swap, so concurrent readers keep seeing the old
// index until the new one is complete.
func (s *Store) Replace(ctx context.Context, p party.Party, chunks []index.Chunk) error {
	snap := &snapshot{Chunks: chunks}
	for i, c := range chunks {
		if i == 0 {
			snap.Dimension = len(c.Embedding)
			continue
		}
		if len(c.Embedding) != snap.Dimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				index.ErrDimensionMismatch, i, len(c.Embedding), snap.Dimension)
		}
	}

	if s.dir != "" {
		if err := writeSnapshot(s.partyFile(p), snap); err != nil {
			return fmt.Errorf("persist index for %s: %w", p, err)
		}
	}

	s.mu.Lock()
	s.parties[p] = snap
	s.mu.Unlock()
	return nil
}

// Search returns the top k chunks by cosine similarity. An empty or missing
// party index yields an empty result.
func (s *Store) Search(ctx context.Context, p party.Party, vector []float32, k int) ([]index.Hit, error) {
	s.mu.RLock()
	snap := s.parties[p]
	s.mu.RUnlock()

	if snap == nil || len(snap.Chunks) == 0 {
		return nil, nil
	}
	if len(vector) != snap.Dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			index.ErrDimensionMismatch, len(vector), snap.Dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	hits := make([]index.Hit, 0, len(snap.Chunks))
	for _, c := range snap.Chunks {
		hits = append(hits, index.Hit{Chunk: c, Score: cosineSimilarity(vector, c.Embedding)})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *Store) Count(ctx context.Context, p party.Party) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap := s.parties[p]; snap != nil {
		return len(snap.Chunks), nil
	}
	return 0, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) partyFile(p party.Party) string {
	return filepath.Join(s.dir, p.Key()+".idx")
}

// writeSnapshot persists via temp file and rename, mirroring the in-memory
// swap on disk.
func writeSnapshot(path string, snap *snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readSnapshot(path string) (*snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &snap, nil
}

func cosineSimilarity(a []float32, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

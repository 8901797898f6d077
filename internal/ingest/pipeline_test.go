package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wahlkompass/wahlkompass/internal/chunker"
	"github.com/wahlkompass/wahlkompass/internal/config"
	"github.com/wahlkompass/wahlkompass/internal/index/memory"
	"github.com/wahlkompass/wahlkompass/internal/party"
)

// fakeEmbedder returns a fixed-dimension vector per text, derived from its
// length so results are deterministic.
type fakeEmbedder struct {
	calls int
	fail  bool
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("embedding provider down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, 0}
	}
	return out, nil
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newPipeline(corpus []config.Source, store *memory.Store, embedder Embedder) *Pipeline {
	return NewPipeline(corpus, chunker.New(1000, 200), embedder, store, nil)
}

func TestIngestParty_BuildsIndex(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "spd.txt", "Wir fördern den Ausbau von Elektromobilität.\n\nWir investieren in Schulen.")
	store := memory.NewStore("")
	pipeline := newPipeline([]config.Source{
		{Party: "spd", Title: "Wahlprogramm 2025", Path: path},
	}, store, &fakeEmbedder{})

	result, err := pipeline.IngestParty(context.Background(), party.SPD)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalDocs)
	assert.Equal(t, 1, result.SuccessfulDocs)
	assert.Empty(t, result.Failed)
	assert.Greater(t, result.TotalChunks, 0)

	n, err := store.Count(context.Background(), party.SPD)
	require.NoError(t, err)
	assert.Equal(t, result.TotalChunks, n)

	hits, err := store.Search(context.Background(), party.SPD, []float32{1, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Wahlprogramm 2025", hits[0].Chunk.Source)
	assert.Equal(t, party.SPD.ManifestoLink(), hits[0].Chunk.Link, "missing link falls back to the official manifesto URL")
	assert.NotEmpty(t, hits[0].Chunk.ID)
}

func TestIngestParty_FailedDocDoesNotAbortOthers(t *testing.T) {
	dir := t.TempDir()
	good := writeDoc(t, dir, "fdp.txt", "Steuern runter, Tempo rauf.")
	store := memory.NewStore("")
	pipeline := newPipeline([]config.Source{
		{Party: "fdp", Path: filepath.Join(dir, "missing.txt")},
		{Party: "fdp", Path: good},
	}, store, &fakeEmbedder{})

	result, err := pipeline.IngestParty(context.Background(), party.FDP)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalDocs)
	assert.Equal(t, 1, result.SuccessfulDocs)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, filepath.Join(dir, "missing.txt"), result.Failed[0].Path)
	assert.NotEmpty(t, result.Failed[0].Reason)

	// The index reflects the successfully ingested document.
	n, err := store.Count(context.Background(), party.FDP)
	require.NoError(t, err)
	assert.Greater(t, n, 0)
}

func TestIngestParty_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "gruene.txt", "Wir fördern erneuerbare Energien und den Klimaschutz.")
	store := memory.NewStore("")
	pipeline := newPipeline([]config.Source{
		{Party: "gruene", Path: path},
	}, store, &fakeEmbedder{})

	first, err := pipeline.IngestParty(context.Background(), party.Gruene)
	require.NoError(t, err)
	second, err := pipeline.IngestParty(context.Background(), party.Gruene)
	require.NoError(t, err)

	assert.Equal(t, first.TotalChunks, second.TotalChunks)

	n, err := store.Count(context.Background(), party.Gruene)
	require.NoError(t, err)
	assert.Equal(t, second.TotalChunks, n, "re-ingestion must not accumulate duplicates")
}

func TestIngestParty_EmbeddingFailureIsolatedPerDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "linke.txt", "Mietendeckel jetzt.")
	store := memory.NewStore("")
	pipeline := newPipeline([]config.Source{
		{Party: "linke", Path: path},
	}, store, &fakeEmbedder{fail: true})

	result, err := pipeline.IngestParty(context.Background(), party.Linke)
	require.NoError(t, err, "provider failure is a per-document failure, not a pipeline error")
	assert.Equal(t, 0, result.SuccessfulDocs)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0].Reason, "embedding")
}

func TestIngestAll_OnlyPartiesWithSources(t *testing.T) {
	dir := t.TempDir()
	spd := writeDoc(t, dir, "spd.txt", "Mindestlohn erhöhen.")
	afd := writeDoc(t, dir, "afd.txt", "Grenzen schließen.")
	store := memory.NewStore("")
	pipeline := newPipeline([]config.Source{
		{Party: "spd", Path: spd},
		{Party: "afd", Path: afd},
	}, store, &fakeEmbedder{})

	results, err := pipeline.IngestAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	parties := []party.Party{results[0].Party, results[1].Party}
	assert.ElementsMatch(t, []party.Party{party.AfD, party.SPD}, parties)
}

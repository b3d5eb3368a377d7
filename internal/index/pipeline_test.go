package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"localagent/internal/model"
	"localagent/internal/vectorstore"
)

type memFingerprintTable struct {
	mu      sync.Mutex
	records map[string]*model.FileRecord
}

func newMemFingerprintTable() *memFingerprintTable {
	return &memFingerprintTable{records: make(map[string]*model.FileRecord)}
}

func (m *memFingerprintTable) LookupAll(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.records))
	for path, rec := range m.records {
		out[path] = rec.SHA256
	}
	return out, nil
}

func (m *memFingerprintTable) UpsertRecord(ctx context.Context, file *model.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[file.Path] = file
	return nil
}

type fakeEmbedder struct {
	calls   int
	batches [][]string
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, texts)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

func writeTestFiles(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"notes.txt":  "Saket is a person. He writes distributed systems.",
		"readme.md":  "# Project\n\nZanzibar style permission checks.",
		"data.json":  `{"marker": "quokka"}`,
		"table.csv":  "id,name\n1,wallaby",
		"image.webp": "not a supported extension",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func TestPipelineFullThenIncremental(t *testing.T) {
	dir := t.TempDir()
	writeTestFiles(t, dir)

	table := newMemFingerprintTable()
	embedder := &fakeEmbedder{}
	store := vectorstore.NewMemoryStore()
	pipeline := NewPipeline(table, embedder, store)

	ctx := context.Background()
	state, err := pipeline.Run(ctx, &Request{Roots: []string{dir}, Mode: ModeFull})
	require.NoError(t, err)
	require.Equal(t, 4, state.Stats["discovered"], "unsupported extension must be skipped")
	require.Equal(t, 4, state.Stats["changed"])
	require.GreaterOrEqual(t, state.Stats["upserted"], 1)
	require.Empty(t, state.Errors)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	firstCount := count

	// Unchanged files: a second incremental run touches nothing.
	state2, err := pipeline.Run(ctx, &Request{Roots: []string{dir}, Mode: ModeIncremental})
	require.NoError(t, err)
	require.Equal(t, 4, state2.Stats["discovered"])
	require.Equal(t, 0, state2.Stats["changed"])
	require.Equal(t, 0, state2.Stats["upserted"])

	count, err = store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, firstCount, count)
}

func TestPipelineIdempotentVectorIDs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("stable content"), 0o644))

	table := newMemFingerprintTable()
	store := vectorstore.NewMemoryStore()
	pipeline := NewPipeline(table, &fakeEmbedder{}, store)

	ctx := context.Background()
	_, err := pipeline.Run(ctx, &Request{Roots: []string{dir}, Mode: ModeFull})
	require.NoError(t, err)
	_, err = pipeline.Run(ctx, &Request{Roots: []string{dir}, Mode: ModeFull, ForceReembed: true})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count, "re-indexing unchanged content must not grow the store")
}

func TestPipelineParseEmptyIsSoftAndStillCommitted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.pptx")
	require.NoError(t, os.WriteFile(path, []byte{0x50, 0x4b, 0x03, 0x04}, 0o644))

	table := newMemFingerprintTable()
	embedder := &fakeEmbedder{}
	pipeline := NewPipeline(table, embedder, vectorstore.NewMemoryStore())

	state, err := pipeline.Run(context.Background(), &Request{Roots: []string{dir}, Mode: ModeFull})
	require.NoError(t, err)
	require.Len(t, state.Errors, 1)
	require.True(t, strings.HasPrefix(state.Errors[0], "parse-empty:"))
	require.Equal(t, 0, state.Stats["chunks"])
	require.Equal(t, 0, embedder.calls, "no chunks means no provider call")

	// The failed file is still committed so it is not retried next run.
	committed, err := table.LookupAll(context.Background())
	require.NoError(t, err)
	require.Contains(t, committed, path)

	state2, err := pipeline.Run(context.Background(), &Request{Roots: []string{dir}, Mode: ModeIncremental})
	require.NoError(t, err)
	require.Equal(t, 0, state2.Stats["changed"])
}

func TestPipelineWhitespaceOnlyTextIsChunked(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.txt"), []byte("  \n\t\n  "), 0o644))

	embedder := &fakeEmbedder{}
	pipeline := NewPipeline(newMemFingerprintTable(), embedder, vectorstore.NewMemoryStore())

	state, err := pipeline.Run(context.Background(), &Request{Roots: []string{dir}, Mode: ModeFull})
	require.NoError(t, err)
	require.Empty(t, state.Errors, "whitespace is text, not a parse failure")
	require.Equal(t, 1, state.Stats["chunks"])
	require.Equal(t, 1, embedder.calls)
}

func TestPipelineEmbedBatchingPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	// Large enough to chunk into several pieces under a tiny window.
	body := strings.Repeat("alpha bravo charlie delta echo. ", 200)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "long.txt"), []byte(body), 0o644))

	table := newMemFingerprintTable()
	embedder := &fakeEmbedder{}
	store := vectorstore.NewMemoryStore()
	pipeline := NewPipeline(table, embedder, store,
		WithChunking(100, 10), WithEmbedBatchSize(3))

	state, err := pipeline.Run(context.Background(), &Request{Roots: []string{dir}, Mode: ModeFull})
	require.NoError(t, err)
	require.Greater(t, state.Stats["chunks"], 3)
	require.Greater(t, embedder.calls, 1, "chunks must be sent in batches")
	require.Equal(t, state.Stats["chunks"], state.Stats["embedded"])
	require.Equal(t, state.Stats["chunks"], state.Stats["upserted"])

	// Every batch concatenated in order equals the chunk text order.
	var sent []string
	for _, batch := range embedder.batches {
		sent = append(sent, batch...)
	}
	for i, c := range state.Chunks {
		require.Equal(t, c.Text, sent[i])
	}
}

func TestPipelineMetadataCarriesPathAndChunkIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("metadata check body"), 0o644))

	store := vectorstore.NewMemoryStore()
	pipeline := NewPipeline(newMemFingerprintTable(), &fakeEmbedder{}, store)

	state, err := pipeline.Run(context.Background(), &Request{Roots: []string{dir}, Mode: ModeFull})
	require.NoError(t, err)
	require.Len(t, state.Chunks, 1)

	res, err := store.Query(context.Background(), []float32{1, 1}, 5, map[string]interface{}{"path": path})
	require.NoError(t, err)
	require.Len(t, res.IDs, 1)
	require.Equal(t, state.Chunks[0].File.SHA256+":0", res.IDs[0])
	require.Equal(t, ".txt", res.Metadatas[0]["file_type"])
	require.Equal(t, "fake-embed", res.Metadatas[0]["model"])
}

package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"localagent/internal/vectorstore"
)

type recordingEmbedder struct {
	calls int
}

func (r *recordingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	r.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (r *recordingEmbedder) ModelName() string { return "test-model" }

func seedStore(t *testing.T) *vectorstore.MemoryStore {
	t.Helper()
	store := vectorstore.NewMemoryStore()
	err := store.Upsert(context.Background(), &vectorstore.UpsertBatch{
		IDs:       []string{"f1:0", "f1:1"},
		Documents: []string{"Saket is a person.", "He works on storage."},
		Metadatas: []map[string]interface{}{
			{"path": "/docs/saket.txt", "chunk_idx": float64(0), "file_type": ".txt"},
			{"path": "/docs/saket.txt", "chunk_idx": float64(1), "file_type": ".txt"},
		},
		Embeddings: [][]float32{{1, 0}, {0.5, 0.5}},
	})
	require.NoError(t, err)
	return store
}

func TestRetrieveBlankQuerySkipsProvider(t *testing.T) {
	embedder := &recordingEmbedder{}
	r := NewRetriever(embedder, seedStore(t))

	hits, err := r.Retrieve(context.Background(), "   \t", 5, nil)
	require.NoError(t, err)
	require.Empty(t, hits)
	require.Equal(t, 0, embedder.calls)
}

func TestRetrieveZipsHitsPositionally(t *testing.T) {
	r := NewRetriever(&recordingEmbedder{}, seedStore(t))

	hits, err := r.Retrieve(context.Background(), "who is saket", 5, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "f1:0", hits[0].ID)
	require.Equal(t, "Saket is a person.", hits[0].Text)
	require.Equal(t, "/docs/saket.txt", hits[0].Path)
	require.Equal(t, 0, hits[0].ChunkIdx)
	require.Equal(t, ".txt", hits[0].FileType)
	require.InDelta(t, 0, hits[0].Score, 1e-9, "raw distance is surfaced unmodified")
	require.Less(t, hits[0].Score, hits[1].Score)
}

func TestRetrieveEmptyFilterMeansNoConstraint(t *testing.T) {
	r := NewRetriever(&recordingEmbedder{}, seedStore(t))

	hits, err := r.Retrieve(context.Background(), "saket", 10, map[string]interface{}{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
}

func TestRetrieveFilterRestrictsHits(t *testing.T) {
	store := seedStore(t)
	require.NoError(t, store.Upsert(context.Background(), &vectorstore.UpsertBatch{
		IDs:        []string{"f2:0"},
		Documents:  []string{"other doc"},
		Metadatas:  []map[string]interface{}{{"path": "/docs/other.md", "file_type": ".md"}},
		Embeddings: [][]float32{{0.9, 0.1}},
	}))
	r := NewRetriever(&recordingEmbedder{}, store)

	hits, err := r.Retrieve(context.Background(), "saket", 10, map[string]interface{}{"file_type": ".md"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "f2:0", hits[0].ID)
}

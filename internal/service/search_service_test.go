package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"localagent/internal/model"
	appErr "localagent/internal/pkg/errors"
	"localagent/internal/search"
	"localagent/internal/vectorstore"
	"localagent/internal/websearch"
)

type staticEmbedder struct{}

func (staticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (staticEmbedder) ModelName() string { return "static" }

func seededRetriever(t *testing.T) *search.Retriever {
	t.Helper()
	store := vectorstore.NewMemoryStore()
	err := store.Upsert(context.Background(), &vectorstore.UpsertBatch{
		IDs:        []string{"f1:0"},
		Documents:  []string{"Saket is a person."},
		Metadatas:  []map[string]interface{}{{"path": "/docs/saket.txt", "chunk_idx": 0, "file_type": ".txt"}},
		Embeddings: [][]float32{{1, 0}},
	})
	require.NoError(t, err)
	return search.NewRetriever(staticEmbedder{}, store)
}

func TestFileSearchRejectsBlankQuery(t *testing.T) {
	svc := NewSearchService(seededRetriever(t), nil, nil, nil, nil)
	_, err := svc.FileSearch(context.Background(), &FileSearchRequest{UserID: "u", Query: "  "})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestFileSearchReturnsHits(t *testing.T) {
	svc := NewSearchService(seededRetriever(t), nil, nil, nil, nil)
	resp, err := svc.FileSearch(context.Background(), &FileSearchRequest{UserID: "u", Query: "Who is Saket", TopK: 5})
	require.NoError(t, err)
	require.NotNil(t, resp.Hits, "hits list is always present")
	require.Len(t, resp.Hits, 1)
	require.Equal(t, "/docs/saket.txt", resp.Hits[0].Path)
}

func TestUnifiedSearchLocalOnlyWhenWebFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()
	searcher := websearch.NewSearcher("k1", "k2", websearch.WithBaseURLs(srv.URL, srv.URL))

	svc := NewSearchService(seededRetriever(t), searcher, nil, nil, nil)
	resp, err := svc.UnifiedSearch(context.Background(), &UnifiedSearchRequest{
		UserID:     "u",
		Query:      "saket",
		Strategy:   "balanced",
		IncludeWeb: true,
		WebEngines: "exa|serper",
	})
	require.NoError(t, err, "web failure must degrade, not abort")
	require.Empty(t, resp.EngineUsed)
	require.NotEmpty(t, resp.AttemptErrors)
	require.Equal(t, 1, resp.LocalCount)
	require.Equal(t, 0, resp.WebCount)
	require.Len(t, resp.Results, 1)
	require.Equal(t, model.SourceLocal, resp.Results[0].Source)
}

func TestUnifiedSearchRejectsUnknownEngine(t *testing.T) {
	svc := NewSearchService(seededRetriever(t), websearch.NewSearcher("", ""), nil, nil, nil)
	_, err := svc.UnifiedSearch(context.Background(), &UnifiedSearchRequest{
		UserID:     "u",
		Query:      "q",
		IncludeWeb: true,
		WebEngines: "bing",
	})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

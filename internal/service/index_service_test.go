package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"localagent/internal/index"
	"localagent/internal/model"
	appErr "localagent/internal/pkg/errors"
	"localagent/internal/vectorstore"
)

type memTable struct {
	mu      sync.Mutex
	records map[string]string
}

func (m *memTable) LookupAll(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.records))
	for k, v := range m.records {
		out[k] = v
	}
	return out, nil
}

func (m *memTable) UpsertRecord(ctx context.Context, file *model.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[file.Path] = file.SHA256
	return nil
}

func newIndexService(roots []string) *IndexService {
	pipeline := index.NewPipeline(&memTable{records: map[string]string{}}, staticEmbedder{}, vectorstore.NewMemoryStore())
	return NewIndexService(pipeline, nil, roots)
}

func TestIndexServiceRejectsNoRoots(t *testing.T) {
	svc := newIndexService(nil)
	_, err := svc.Run(context.Background(), &IndexRequest{UserID: "u"})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestIndexServiceFullThenIncremental(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"a.txt", "b.md", "c.json", "d.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("marker "+f), 0o644))
	}
	svc := newIndexService([]string{dir})

	resp, err := svc.Run(context.Background(), &IndexRequest{UserID: "u", Mode: index.ModeFull})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(resp.ScannedFiles), 4)
	require.GreaterOrEqual(t, resp.Stats["upserted"], 1)
	require.Empty(t, resp.UnchangedFiles)

	resp2, err := svc.Run(context.Background(), &IndexRequest{UserID: "u", Mode: index.ModeIncremental})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(resp2.UnchangedFiles), 4)
	require.Empty(t, resp2.ChangedFiles)
}

func TestIndexServiceExplicitRootsOverrideDefaults(t *testing.T) {
	defaultDir := t.TempDir()
	otherDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(otherDir, "x.txt"), []byte("only here"), 0o644))

	svc := newIndexService([]string{defaultDir})
	resp, err := svc.Run(context.Background(), &IndexRequest{
		UserID: "u",
		Roots:  []string{otherDir},
		Mode:   index.ModeFull,
	})
	require.NoError(t, err)
	require.Len(t, resp.ScannedFiles, 1)
	require.Equal(t, filepath.Join(otherDir, "x.txt"), resp.ScannedFiles[0])
}

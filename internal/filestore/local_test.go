package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"localagent/internal/config"
)

func TestLocalStoreSaveAndOpen(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)

	src := filepath.Join(dir, "src.bin")
	require.NoError(t, os.WriteFile(src, []byte("uploaded content"), 0o644))
	f, err := os.Open(src)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, store.Save(context.Background(), "doc.txt", f, 16))

	r, err := store.Open(context.Background(), "doc.txt")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "uploaded content", string(data))

	path, ok := store.LocalPath("doc.txt")
	require.True(t, ok)
	require.Equal(t, filepath.Join(dir, "doc.txt"), path)
}

func TestLocalStoreRejectsTraversalKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)

	for _, key := range []string{"", "a/b.txt", `a\b.txt`, "..secret"} {
		_, err := store.Open(context.Background(), key)
		require.Error(t, err, "key %q must be rejected", key)
	}
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
}

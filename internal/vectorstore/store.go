// Package vectorstore abstracts the similarity store behind a narrow
// batch upsert/query contract. All backends use cosine distance, lower
// meaning closer. An empty or nil filter means "no constraint" — it is
// never interpreted as "match nothing".
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"localagent/internal/config"
)

// UpsertBatch carries positionally aligned arrays: IDs[i],
// Documents[i], Metadatas[i] and Embeddings[i] all describe the same
// chunk.
type UpsertBatch struct {
	IDs        []string
	Documents  []string
	Metadatas  []map[string]interface{}
	Embeddings [][]float32
}

func (b *UpsertBatch) validate() error {
	n := len(b.IDs)
	if len(b.Documents) != n || len(b.Metadatas) != n || len(b.Embeddings) != n {
		return fmt.Errorf("upsert batch arrays are not aligned: ids=%d docs=%d metas=%d embs=%d",
			len(b.IDs), len(b.Documents), len(b.Metadatas), len(b.Embeddings))
	}
	return nil
}

// QueryResult mirrors the batch layout: entry i across all slices is
// one hit, ordered by ascending distance.
type QueryResult struct {
	IDs       []string
	Documents []string
	Metadatas []map[string]interface{}
	Distances []float64
}

type Store interface {
	Upsert(ctx context.Context, batch *UpsertBatch) error
	Query(ctx context.Context, embedding []float32, topK int, filter map[string]interface{}) (*QueryResult, error)
	Count(ctx context.Context) (int64, error)
}

// New builds the configured backend. The pgvector backend shares the
// application's Postgres handle; qdrant and memory ignore it.
func New(db *sql.DB, cfg config.VectorStoreConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "pgvector":
		return newPgvectorStore(db, cfg.Data)
	case "qdrant":
		return newQdrantStore(cfg.Data)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported vector_store.type: %s", cfg.Type)
	}
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("vector store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode vector store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode vector store config: %w", err)
	}
	return nil
}

func normalizeFilter(filter map[string]interface{}) map[string]interface{} {
	if len(filter) == 0 {
		return nil
	}
	return filter
}

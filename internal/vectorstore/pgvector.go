package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

type pgvectorConfig struct {
	Table     string `json:"table"`
	Dimension int    `json:"dimension"`
}

// pgvectorStore keeps chunk vectors in a Postgres table with a
// pgvector column, colocated with the audit tables. Cosine distance
// uses the <=> operator.
type pgvectorStore struct {
	db    *sql.DB
	table string
}

func newPgvectorStore(db *sql.DB, args interface{}) (*pgvectorStore, error) {
	if db == nil {
		return nil, fmt.Errorf("pgvector store requires a database handle")
	}
	cfg := &pgvectorConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Table == "" {
		cfg.Table = "chunk_vectors"
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("pgvector dimension is required")
	}
	s := &pgvectorStore{db: db, table: cfg.Table}
	if err := s.ensureSchema(cfg.Dimension); err != nil {
		return nil, fmt.Errorf("init pgvector table: %w", err)
	}
	return s, nil
}

func (s *pgvectorStore) ensureSchema(dimension int) error {
	if _, err := s.db.Exec("CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return err
	}
	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			embedding vector(%d) NOT NULL
		)
	`, s.table, dimension)
	_, err := s.db.Exec(stmt)
	return err
}

func (s *pgvectorStore) Upsert(ctx context.Context, batch *UpsertBatch) error {
	if err := batch.validate(); err != nil {
		return err
	}
	if len(batch.IDs) == 0 {
		return nil
	}
	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, document, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			document = EXCLUDED.document,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding
	`, s.table)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for i, id := range batch.IDs {
		meta, err := json.Marshal(batch.Metadatas[i])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt, id, batch.Documents[i], meta, pgvector.NewVector(batch.Embeddings[i])); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *pgvectorStore) Query(ctx context.Context, embedding []float32, topK int, filter map[string]interface{}) (*QueryResult, error) {
	filter = normalizeFilter(filter)
	if topK <= 0 {
		topK = 10
	}

	query := fmt.Sprintf(`
		SELECT id, document, metadata, embedding <=> $1 AS distance
		FROM %s
	`, s.table)
	args := []interface{}{pgvector.NewVector(embedding)}
	if filter != nil {
		cond, err := json.Marshal(filter)
		if err != nil {
			return nil, err
		}
		query += " WHERE metadata @> $2"
		args = append(args, cond)
	}
	query += fmt.Sprintf(" ORDER BY distance LIMIT %d", topK)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := &QueryResult{}
	for rows.Next() {
		var id, document string
		var metaRaw []byte
		var distance float64
		if err := rows.Scan(&id, &document, &metaRaw, &distance); err != nil {
			return nil, err
		}
		meta := map[string]interface{}{}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &meta); err != nil {
				return nil, err
			}
		}
		res.IDs = append(res.IDs, id)
		res.Documents = append(res.Documents, document)
		res.Metadatas = append(res.Metadatas, meta)
		res.Distances = append(res.Distances, distance)
	}
	return res, rows.Err()
}

func (s *pgvectorStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)).Scan(&count)
	return count, err
}

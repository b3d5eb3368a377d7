package repo

import (
	"context"
	"database/sql"

	"localagent/internal/model"
	"localagent/internal/pkg/dbutil"
	"localagent/internal/pkg/timeutil"
)

// QueryRepo persists the query audit trail: one row per query plus its
// ordered hits.
type QueryRepo struct {
	db *sql.DB
}

func NewQueryRepo(db *sql.DB) *QueryRepo {
	return &QueryRepo{db: db}
}

func (r *QueryRepo) InsertQuery(ctx context.Context, userID, qtext string, topK int, filtersJSON, modelName string, latencyMs int64, responseJSON string) (int64, error) {
	sqlStr := `
		INSERT INTO queries (user_id, qtext, top_k, filters_json, model, latency_ms, response_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	args := []interface{}{userID, qtext, topK, filtersJSON, modelName, latencyMs, responseJSON, timeutil.NowUnix()}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var id int64
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *QueryRepo) InsertHits(ctx context.Context, queryID int64, hits []*model.QueryHit) error {
	if len(hits) == 0 {
		return nil
	}
	sqlStr := `
		INSERT INTO query_hits (query_id, rank, score, path, chunk_idx, sha256, snippet)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for rank, hit := range hits {
		sha := ""
		if hit.Meta != nil {
			if v, ok := hit.Meta["sha256"].(string); ok {
				sha = v
			}
		}
		stmt, args := dbutil.Finalize(sqlStr, []interface{}{
			queryID, rank, hit.Score, hit.Path, hit.ChunkIdx, sha, snippetOf(hit.Text),
		})
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *QueryRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	sqlStr, args := dbutil.Finalize(`SELECT COUNT(*) FROM queries WHERE user_id = ?`, []interface{}{userID})
	var count int64
	err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count)
	return count, err
}

func snippetOf(text string) string {
	const limit = 200
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

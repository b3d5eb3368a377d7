package repo

import (
	"context"
	"database/sql"

	"localagent/internal/model"
	"localagent/internal/pkg/dbutil"
	"localagent/internal/pkg/timeutil"
)

// EventRepo records API level audit events and the web search detail
// rows hanging off them.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) InsertEvent(ctx context.Context, userID, api, requestJSON, responseJSON, status, notes string, latencyMs int64) (int64, error) {
	sqlStr := `
		INSERT INTO api_events (user_id, api, request_json, response_json, status, notes, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	args := []interface{}{userID, api, requestJSON, responseJSON, status, notes, latencyMs, timeutil.NowUnix()}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var id int64
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *EventRepo) InsertWebResults(ctx context.Context, eventID int64, results []*model.WebResult) error {
	if len(results) == 0 {
		return nil
	}
	sqlStr := `
		INSERT INTO web_results (event_id, rank, title, url, snippet, source, published_date, text_length)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for rank, res := range results {
		stmt, args := dbutil.Finalize(sqlStr, []interface{}{
			eventID, rank, res.Title, res.URL, res.Snippet, res.Source, res.PublishedDate, res.TextLength,
		})
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *EventRepo) InsertWebFetches(ctx context.Context, eventID int64, fetches []*model.FetchLog) error {
	if len(fetches) == 0 {
		return nil
	}
	sqlStr := `
		INSERT INTO web_fetches (event_id, url, ok, status, length, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, fetch := range fetches {
		stmt, args := dbutil.Finalize(sqlStr, []interface{}{
			eventID, fetch.URL, fetch.OK, fetch.Status, fetch.Length, fetch.Error,
		})
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

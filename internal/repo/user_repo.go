package repo

import (
	"context"
	"database/sql"

	"localagent/internal/pkg/dbutil"
	"localagent/internal/pkg/timeutil"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// EnsureUser registers a free-form user id on first sight. Repeated
// calls are no-ops.
func (r *UserRepo) EnsureUser(ctx context.Context, userID string, infoJSON string) error {
	sqlStr := `
		INSERT INTO users (id, info_json, created_at)
		VALUES (?, ?, ?)
	`
	args := []interface{}{userID, infoJSON, timeutil.NowUnix()}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return nil
		}
		return err
	}
	return nil
}

func (r *UserRepo) Exists(ctx context.Context, userID string) (bool, error) {
	sqlStr, args := dbutil.Finalize(`SELECT 1 FROM users WHERE id = ?`, []interface{}{userID})
	var one int
	err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"localagent/internal/model"
	"localagent/internal/pkg/dbutil"
)

// FileRepo is the durable fingerprint table behind the indexing
// pipeline's diff and commit stages.
type FileRepo struct {
	db *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

// LookupAll returns the committed path to fingerprint mapping.
func (r *FileRepo) LookupAll(ctx context.Context) (map[string]string, error) {
	sqlStr, args, err := builder.BuildSelect("files", nil, []string{"path", "sha256"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := make(map[string]string)
	for rows.Next() {
		var path, sha string
		if err := rows.Scan(&path, &sha); err != nil {
			return nil, err
		}
		out[path] = sha
	}
	return out, rows.Err()
}

func (r *FileRepo) UpsertRecord(ctx context.Context, file *model.FileRecord) error {
	sqlStr := `
		INSERT INTO files (path, bytes, mtime_ns, sha256, mime, last_indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (path)
		DO UPDATE SET
			bytes = EXCLUDED.bytes,
			mtime_ns = EXCLUDED.mtime_ns,
			sha256 = EXCLUDED.sha256,
			mime = EXCLUDED.mime,
			last_indexed_at = EXCLUDED.last_indexed_at
	`
	args := []interface{}{
		file.Path,
		file.Bytes,
		file.MtimeNs,
		file.SHA256,
		file.Mime,
		file.LastIndexedAt,
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *FileRepo) Get(ctx context.Context, path string) (*model.FileRecord, error) {
	sqlStr, args, err := builder.BuildSelect("files", map[string]interface{}{"path": path},
		[]string{"path", "bytes", "mtime_ns", "sha256", "mime", "last_indexed_at"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	file := &model.FileRecord{}
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(
		&file.Path, &file.Bytes, &file.MtimeNs, &file.SHA256, &file.Mime, &file.LastIndexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

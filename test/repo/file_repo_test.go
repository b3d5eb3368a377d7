package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"localagent/internal/model"
	"localagent/internal/pkg/timeutil"
	"localagent/internal/repo"
	"localagent/test/testutil"
)

func TestFileRepoUpsertAndLookup(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	files := repo.NewFileRepo(db)
	ctx := context.Background()

	rec := &model.FileRecord{
		Path:          "/tmp/repo-test/a.txt",
		Bytes:         42,
		MtimeNs:       1234567890,
		SHA256:        "hash-v1",
		Mime:          "text/plain",
		LastIndexedAt: timeutil.NowUnix(),
	}
	require.NoError(t, files.UpsertRecord(ctx, rec))

	all, err := files.LookupAll(ctx)
	require.NoError(t, err)
	require.Equal(t, "hash-v1", all[rec.Path])

	rec.SHA256 = "hash-v2"
	require.NoError(t, files.UpsertRecord(ctx, rec))

	got, err := files.Get(ctx, rec.Path)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "hash-v2", got.SHA256)
	require.EqualValues(t, 42, got.Bytes)

	missing, err := files.Get(ctx, "/tmp/repo-test/missing.txt")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestQueryRepoAudit(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	queries := repo.NewQueryRepo(db)
	ctx := context.Background()

	require.NoError(t, users.EnsureUser(ctx, "repo-test-user", "{}"))
	require.NoError(t, users.EnsureUser(ctx, "repo-test-user", "{}"), "re-ensure must be a no-op")

	id, err := queries.InsertQuery(ctx, "repo-test-user", "who is saket", 5, "{}", "test-model", 12, "{}")
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	hits := []*model.QueryHit{
		{ID: "f1:0", Text: "Saket is a person.", Score: 0.1, Path: "/docs/saket.txt", ChunkIdx: 0},
		{ID: "f1:1", Text: "More text.", Score: 0.4, Path: "/docs/saket.txt", ChunkIdx: 1},
	}
	require.NoError(t, queries.InsertHits(ctx, id, hits))

	count, err := queries.CountByUser(ctx, "repo-test-user")
	require.NoError(t, err)
	require.GreaterOrEqual(t, count, int64(1))
}

func TestEventRepoWebAudit(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	events := repo.NewEventRepo(db)
	ctx := context.Background()

	id, err := events.InsertEvent(ctx, "repo-test-user", "web_search", `{"q":"saket"}`, "{}", "ok", "", 30)
	require.NoError(t, err)

	require.NoError(t, events.InsertWebResults(ctx, id, []*model.WebResult{
		{Title: "t", URL: "https://example.com", Snippet: "s", Source: "serper", TextLength: 100},
	}))
	require.NoError(t, events.InsertWebFetches(ctx, id, []*model.FetchLog{
		{URL: "https://example.com", OK: true, Status: 200, Length: 100},
	}))
}

package job

import (
	"context"

	"localagent/internal/index"
	"localagent/internal/service"
)

// ReindexJob periodically runs an incremental index over the
// configured roots so on-disk edits surface without an API call.
type ReindexJob struct {
	indexer *service.IndexService
}

func NewReindexJob(indexer *service.IndexService) *ReindexJob {
	return &ReindexJob{indexer: indexer}
}

func (j *ReindexJob) Name() string {
	return "reindex"
}

func (j *ReindexJob) Run(ctx context.Context) error {
	if j.indexer == nil {
		return nil
	}
	_, err := j.indexer.Run(ctx, &service.IndexRequest{
		UserID: "scheduler",
		Mode:   index.ModeIncremental,
	})
	return err
}

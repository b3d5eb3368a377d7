package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"localagent/internal/filestore"
	"localagent/internal/index"
	appErr "localagent/internal/pkg/errors"
	"localagent/internal/reader"
)

type UploadedFile struct {
	Name string
	Open func() (filestore.ReadSeekCloser, error)
	Size int64
}

type UploadResponse struct {
	SavedFiles []string       `json:"saved_files"`
	Skipped    []string       `json:"skipped,omitempty"`
	Index      *IndexResponse `json:"index,omitempty"`
}

// UploadService lands uploads in the local store, mirrors them to the
// archive store when one is configured, and force-indexes the new
// files.
type UploadService struct {
	local   filestore.Store
	archive filestore.Store
	indexer *IndexService
}

func NewUploadService(local filestore.Store, archive filestore.Store, indexer *IndexService) *UploadService {
	return &UploadService{local: local, archive: archive, indexer: indexer}
}

func (s *UploadService) Upload(ctx context.Context, userID string, files []*UploadedFile) (*UploadResponse, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files in request", appErr.ErrInvalid)
	}
	logger := logutil.GetLogger(ctx)

	resp := &UploadResponse{}
	var paths []string
	for _, file := range files {
		if !reader.IsSupported(file.Name) {
			resp.Skipped = append(resp.Skipped, file.Name)
			continue
		}
		if err := s.saveOne(ctx, file); err != nil {
			return nil, fmt.Errorf("save %s: %w", file.Name, err)
		}
		resp.SavedFiles = append(resp.SavedFiles, file.Name)
		if path, ok := s.local.LocalPath(file.Name); ok {
			paths = append(paths, path)
		}
	}
	if len(resp.SavedFiles) == 0 {
		return nil, fmt.Errorf("%w: no supported files in request", appErr.ErrInvalid)
	}

	indexResp, err := s.indexer.Run(ctx, &IndexRequest{
		UserID:       userID,
		Roots:        paths,
		Mode:         index.ModeIncremental,
		ForceReembed: true,
	})
	if err != nil {
		// Files are saved, indexing them can be retried.
		logger.Warn("index after upload failed", zap.Error(err))
		return resp, nil
	}
	resp.Index = indexResp
	return resp, nil
}

func (s *UploadService) saveOne(ctx context.Context, file *UploadedFile) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	if err := s.local.Save(ctx, file.Name, src, file.Size); err != nil {
		return err
	}
	if s.archive != nil {
		if _, err := src.Seek(0, 0); err != nil {
			logutil.GetLogger(ctx).Warn("rewind for archive failed", zap.String("file", file.Name), zap.Error(err))
			return nil
		}
		if err := s.archive.Save(ctx, file.Name, src, file.Size); err != nil {
			logutil.GetLogger(ctx).Warn("archive mirror failed", zap.String("file", file.Name), zap.Error(err))
		}
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"localagent/internal/index"
	appErr "localagent/internal/pkg/errors"
	"localagent/internal/pkg/timeutil"
	"localagent/internal/repo"
)

type IndexRequest struct {
	UserID       string
	Roots        []string
	Mode         index.Mode
	ForceReembed bool
	Model        string
}

type IndexResponse struct {
	Stats          map[string]int `json:"stats"`
	Errors         []string       `json:"errors"`
	ScannedFiles   []string       `json:"scanned_files"`
	ChangedFiles   []string       `json:"changed_files"`
	UnchangedFiles []string       `json:"unchanged_files"`
	LatencyMs      int64          `json:"latency_ms"`
	EventID        int64          `json:"event_id,omitempty"`
}

// IndexService drives the indexing pipeline and records an audit event
// per run.
type IndexService struct {
	pipeline     *index.Pipeline
	eventRepo    *repo.EventRepo
	defaultRoots []string
}

func NewIndexService(pipeline *index.Pipeline, eventRepo *repo.EventRepo, defaultRoots []string) *IndexService {
	return &IndexService{pipeline: pipeline, eventRepo: eventRepo, defaultRoots: defaultRoots}
}

func (s *IndexService) Run(ctx context.Context, req *IndexRequest) (*IndexResponse, error) {
	roots := req.Roots
	if len(roots) == 0 {
		roots = s.defaultRoots
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no roots configured", appErr.ErrInvalid)
	}
	mode := req.Mode
	if mode != index.ModeFull {
		mode = index.ModeIncremental
	}

	start := timeutil.NowUnixMilli()
	state, err := s.pipeline.Run(ctx, &index.Request{
		Roots:        roots,
		Mode:         mode,
		ForceReembed: req.ForceReembed,
		Model:        req.Model,
	})
	latency := timeutil.NowUnixMilli() - start
	if err != nil {
		s.recordEvent(ctx, req, "error", err.Error(), latency)
		return nil, err
	}

	resp := &IndexResponse{
		Stats:     state.Stats,
		Errors:    state.Errors,
		LatencyMs: latency,
	}
	if resp.Errors == nil {
		resp.Errors = []string{}
	}
	changed := make(map[string]struct{}, len(state.Changed))
	for _, file := range state.Changed {
		changed[file.Path] = struct{}{}
		resp.ChangedFiles = append(resp.ChangedFiles, file.Path)
	}
	for _, file := range state.Files {
		resp.ScannedFiles = append(resp.ScannedFiles, file.Path)
		if _, ok := changed[file.Path]; !ok {
			resp.UnchangedFiles = append(resp.UnchangedFiles, file.Path)
		}
	}
	sort.Strings(resp.ScannedFiles)
	sort.Strings(resp.ChangedFiles)
	sort.Strings(resp.UnchangedFiles)

	resp.EventID = s.recordEvent(ctx, req, "ok", "", latency)
	return resp, nil
}

// recordEvent is fire and forget: audit failures are logged and never
// fail the run.
func (s *IndexService) recordEvent(ctx context.Context, req *IndexRequest, status, notes string, latencyMs int64) int64 {
	if s.eventRepo == nil {
		return 0
	}
	reqJSON, _ := json.Marshal(map[string]interface{}{
		"roots": req.Roots,
		"mode":  req.Mode,
		"force": req.ForceReembed,
	})
	id, err := s.eventRepo.InsertEvent(ctx, req.UserID, "index", string(reqJSON), "", status, notes, latencyMs)
	if err != nil {
		logutil.GetLogger(ctx).Warn("record index event failed", zap.Error(err))
		return 0
	}
	return id
}

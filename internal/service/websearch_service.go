package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"localagent/internal/model"
	appErr "localagent/internal/pkg/errors"
	"localagent/internal/repo"
	"localagent/internal/websearch"
)

type WebSearchRequest struct {
	UserID  string
	Query   string
	Engines string
	TopN    int
	Scrape  bool
}

type WebSearchResponse struct {
	EngineUsed    string             `json:"engine_used"`
	Results       []*model.WebResult `json:"results"`
	AttemptErrors []string           `json:"attempt_errors,omitempty"`
	LatencyMs     int64              `json:"latency_ms"`
	EventID       int64              `json:"event_id,omitempty"`
}

// WebSearchService runs standalone web searches and persists results
// and scrape attempts for audit.
type WebSearchService struct {
	searcher  *websearch.Searcher
	userRepo  *repo.UserRepo
	eventRepo *repo.EventRepo
}

func NewWebSearchService(searcher *websearch.Searcher, userRepo *repo.UserRepo, eventRepo *repo.EventRepo) *WebSearchService {
	return &WebSearchService{searcher: searcher, userRepo: userRepo, eventRepo: eventRepo}
}

func (s *WebSearchService) Search(ctx context.Context, req *WebSearchRequest) (*WebSearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", appErr.ErrInvalid)
	}
	engines, err := websearch.ParseEngines(req.Engines)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrInvalid, err)
	}
	if s.userRepo != nil && req.UserID != "" {
		if err := s.userRepo.EnsureUser(ctx, req.UserID, "{}"); err != nil {
			logutil.GetLogger(ctx).Warn("ensure user failed", zap.Error(err))
		}
	}

	start := time.Now()
	result, err := s.searcher.Search(ctx, req.Query, engines, req.TopN, req.Scrape)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		s.recordEvent(ctx, req, nil, "error", err.Error(), latency)
		return nil, fmt.Errorf("%w: %v", appErr.ErrUnavailable, err)
	}

	resp := &WebSearchResponse{
		EngineUsed:    result.EngineUsed,
		Results:       result.Results,
		AttemptErrors: result.AttemptErrors,
		LatencyMs:     latency,
	}
	resp.EventID = s.recordEvent(ctx, req, result, "ok", "", latency)
	return resp, nil
}

func (s *WebSearchService) recordEvent(ctx context.Context, req *WebSearchRequest, result *websearch.Response, status, notes string, latencyMs int64) int64 {
	if s.eventRepo == nil {
		return 0
	}
	logger := logutil.GetLogger(ctx)
	reqJSON, _ := json.Marshal(map[string]interface{}{
		"query":   req.Query,
		"engines": req.Engines,
		"top_n":   req.TopN,
		"scrape":  req.Scrape,
	})
	respJSON := ""
	if result != nil {
		encoded, _ := json.Marshal(map[string]interface{}{
			"engine_used":    result.EngineUsed,
			"result_count":   len(result.Results),
			"attempt_errors": result.AttemptErrors,
		})
		respJSON = string(encoded)
	}
	id, err := s.eventRepo.InsertEvent(ctx, req.UserID, "web_search", string(reqJSON), respJSON, status, notes, latencyMs)
	if err != nil {
		logger.Warn("record web search event failed", zap.Error(err))
		return 0
	}
	if result != nil {
		if err := s.eventRepo.InsertWebResults(ctx, id, result.Results); err != nil {
			logger.Warn("record web results failed", zap.Int64("event_id", id), zap.Error(err))
		}
		if err := s.eventRepo.InsertWebFetches(ctx, id, result.Fetches); err != nil {
			logger.Warn("record web fetches failed", zap.Int64("event_id", id), zap.Error(err))
		}
	}
	return id
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"localagent/internal/fusion"
	"localagent/internal/model"
	appErr "localagent/internal/pkg/errors"
	"localagent/internal/repo"
	"localagent/internal/search"
	"localagent/internal/websearch"
)

type FileSearchRequest struct {
	UserID  string
	Query   string
	TopK    int
	Filters map[string]interface{}
	Model   string
}

type FileSearchResponse struct {
	QueryID   int64             `json:"query_id,omitempty"`
	LatencyMs int64             `json:"latency_ms"`
	Hits      []*model.QueryHit `json:"hits"`
}

type UnifiedSearchRequest struct {
	UserID     string
	Query      string
	Strategy   string
	MaxResults int
	TopK       int
	IncludeWeb bool
	WebEngines string
	WebTopN    int
	ScrapeWeb  bool
}

type UnifiedSearchResponse struct {
	Results       []*model.UnifiedResult `json:"results"`
	Strategy      string                 `json:"strategy"`
	LocalCount    int                    `json:"local_count"`
	WebCount      int                    `json:"web_count"`
	EngineUsed    string                 `json:"engine_used,omitempty"`
	AttemptErrors []string               `json:"attempt_errors,omitempty"`
	LatencyMs     int64                  `json:"latency_ms"`
	EventID       int64                  `json:"event_id,omitempty"`
}

// SearchService answers similarity queries and unified local+web
// searches, leaving an audit trail per query.
type SearchService struct {
	retriever *search.Retriever
	searcher  *websearch.Searcher
	userRepo  *repo.UserRepo
	queryRepo *repo.QueryRepo
	eventRepo *repo.EventRepo
}

func NewSearchService(retriever *search.Retriever, searcher *websearch.Searcher, userRepo *repo.UserRepo, queryRepo *repo.QueryRepo, eventRepo *repo.EventRepo) *SearchService {
	return &SearchService{
		retriever: retriever,
		searcher:  searcher,
		userRepo:  userRepo,
		queryRepo: queryRepo,
		eventRepo: eventRepo,
	}
}

func (s *SearchService) FileSearch(ctx context.Context, req *FileSearchRequest) (*FileSearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", appErr.ErrInvalid)
	}
	s.ensureUser(ctx, req.UserID)

	start := time.Now()
	hits, err := s.retriever.Retrieve(ctx, req.Query, req.TopK, req.Filters)
	if err != nil {
		return nil, err
	}
	latency := time.Since(start).Milliseconds()

	resp := &FileSearchResponse{LatencyMs: latency, Hits: hits}
	resp.QueryID = s.recordQuery(ctx, req, hits, latency)
	return resp, nil
}

func (s *SearchService) UnifiedSearch(ctx context.Context, req *UnifiedSearchRequest) (*UnifiedSearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", appErr.ErrInvalid)
	}
	s.ensureUser(ctx, req.UserID)
	logger := logutil.GetLogger(ctx).With(zap.String("query", req.Query), zap.String("strategy", req.Strategy))

	start := time.Now()
	hits, err := s.retriever.Retrieve(ctx, req.Query, req.TopK, nil)
	if err != nil {
		return nil, err
	}
	local := fusion.NormalizeLocal(req.Query, hits)

	var web []*model.UnifiedResult
	resp := &UnifiedSearchResponse{Strategy: req.Strategy}
	if req.IncludeWeb {
		engines, err := websearch.ParseEngines(req.WebEngines)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", appErr.ErrInvalid, err)
		}
		webResp, err := s.searcher.Search(ctx, req.Query, engines, req.WebTopN, req.ScrapeWeb)
		if err != nil {
			// Web failure degrades to local-only results.
			logger.Warn("web search failed, returning local results only", zap.Error(err))
			resp.AttemptErrors = append(resp.AttemptErrors, err.Error())
		} else {
			web = fusion.NormalizeWeb(req.Query, webResp.Results)
			resp.EngineUsed = webResp.EngineUsed
			resp.AttemptErrors = append(resp.AttemptErrors, webResp.AttemptErrors...)
		}
	}

	resp.Results = fusion.Merge(local, web, req.Strategy, req.MaxResults)
	resp.LocalCount = len(local)
	resp.WebCount = len(web)
	resp.LatencyMs = time.Since(start).Milliseconds()
	resp.EventID = s.recordUnifiedEvent(ctx, req, resp)
	return resp, nil
}

func (s *SearchService) ensureUser(ctx context.Context, userID string) {
	if s.userRepo == nil || userID == "" {
		return
	}
	if err := s.userRepo.EnsureUser(ctx, userID, "{}"); err != nil {
		logutil.GetLogger(ctx).Warn("ensure user failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *SearchService) recordQuery(ctx context.Context, req *FileSearchRequest, hits []*model.QueryHit, latencyMs int64) int64 {
	if s.queryRepo == nil {
		return 0
	}
	filtersJSON, _ := json.Marshal(req.Filters)
	id, err := s.queryRepo.InsertQuery(ctx, req.UserID, req.Query, req.TopK, string(filtersJSON), req.Model, latencyMs, "")
	if err != nil {
		logutil.GetLogger(ctx).Warn("record query failed", zap.Error(err))
		return 0
	}
	if err := s.queryRepo.InsertHits(ctx, id, hits); err != nil {
		logutil.GetLogger(ctx).Warn("record query hits failed", zap.Int64("query_id", id), zap.Error(err))
	}
	return id
}

func (s *SearchService) recordUnifiedEvent(ctx context.Context, req *UnifiedSearchRequest, resp *UnifiedSearchResponse) int64 {
	if s.eventRepo == nil {
		return 0
	}
	reqJSON, _ := json.Marshal(map[string]interface{}{
		"query":       req.Query,
		"strategy":    req.Strategy,
		"include_web": req.IncludeWeb,
		"max_results": req.MaxResults,
	})
	respJSON, _ := json.Marshal(map[string]interface{}{
		"local_count": resp.LocalCount,
		"web_count":   resp.WebCount,
		"engine_used": resp.EngineUsed,
		"returned":    len(resp.Results),
	})
	id, err := s.eventRepo.InsertEvent(ctx, req.UserID, "unified_search", string(reqJSON), string(respJSON), "ok", "", resp.LatencyMs)
	if err != nil {
		logutil.GetLogger(ctx).Warn("record unified search event failed", zap.Error(err))
		return 0
	}
	return id
}

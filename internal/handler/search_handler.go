package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"localagent/internal/fusion"
	"localagent/internal/pkg/response"
	"localagent/internal/service"
)

type SearchHandler struct {
	search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

type fileSearchBody struct {
	UserID  string                 `json:"user_id"`
	Query   string                 `json:"query"`
	TopK    int                    `json:"top_k"`
	Filters map[string]interface{} `json:"filters"`
	Model   string                 `json:"model"`
}

func (h *SearchHandler) FileSearch(c *gin.Context) {
	body := &fileSearchBody{}
	if err := c.ShouldBindJSON(body); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", err.Error())
		return
	}
	userID := body.UserID
	if userID == "" {
		userID = requestUserID(c)
	}
	resp, err := h.search.FileSearch(c.Request.Context(), &service.FileSearchRequest{
		UserID:  userID,
		Query:   body.Query,
		TopK:    body.TopK,
		Filters: body.Filters,
		Model:   body.Model,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

type unifiedSearchBody struct {
	UserID     string `json:"user_id"`
	Query      string `json:"query"`
	Strategy   string `json:"strategy"`
	MaxResults int    `json:"max_results"`
	TopK       int    `json:"top_k"`
	IncludeWeb *bool  `json:"include_web"`
	WebEngine  string `json:"web_engine"`
	WebTopN    int    `json:"web_top_n"`
	ScrapeWeb  bool   `json:"scrape_web"`
}

func (h *SearchHandler) UnifiedSearch(c *gin.Context) {
	body := &unifiedSearchBody{}
	if err := c.ShouldBindJSON(body); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", err.Error())
		return
	}
	// Query params override body fields so simple clients can tweak
	// strategy without re-encoding the payload.
	if v := c.Query("strategy"); v != "" {
		body.Strategy = v
	}
	if v := c.Query("web_engine"); v != "" {
		body.WebEngine = v
	}
	if v := c.Query("web_top_n"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			body.WebTopN = n
		}
	}
	if v := c.Query("max_results"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			body.MaxResults = n
		}
	}
	if v := c.Query("include_web"); v != "" {
		b := v == "true" || v == "1"
		body.IncludeWeb = &b
	}
	if body.Strategy == "" {
		body.Strategy = fusion.StrategyBalanced
	}
	includeWeb := true
	if body.IncludeWeb != nil {
		includeWeb = *body.IncludeWeb
	}
	userID := body.UserID
	if userID == "" {
		userID = requestUserID(c)
	}
	resp, err := h.search.UnifiedSearch(c.Request.Context(), &service.UnifiedSearchRequest{
		UserID:     userID,
		Query:      body.Query,
		Strategy:   body.Strategy,
		MaxResults: body.MaxResults,
		TopK:       body.TopK,
		IncludeWeb: includeWeb,
		WebEngines: body.WebEngine,
		WebTopN:    body.WebTopN,
		ScrapeWeb:  body.ScrapeWeb,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

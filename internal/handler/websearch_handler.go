package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"localagent/internal/pkg/response"
	"localagent/internal/service"
)

type WebSearchHandler struct {
	web *service.WebSearchService
}

func NewWebSearchHandler(web *service.WebSearchService) *WebSearchHandler {
	return &WebSearchHandler{web: web}
}

// Search handles GET /api/v1/web/search. Both q and query are
// accepted; data=true requests page scraping.
func (h *WebSearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		query = c.Query("query")
	}
	if query == "" {
		response.Error(c, http.StatusBadRequest, "invalid", "q is required")
		return
	}
	topN := 5
	if v := c.Query("top_n"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			topN = n
		}
	}
	scrape := c.Query("data") == "true" || c.Query("data") == "1"

	resp, err := h.web.Search(c.Request.Context(), &service.WebSearchRequest{
		UserID:  requestUserID(c),
		Query:   query,
		Engines: c.Query("engine"),
		TopN:    topN,
		Scrape:  scrape,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

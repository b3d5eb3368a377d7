package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"localagent/internal/index"
	"localagent/internal/pkg/response"
	"localagent/internal/service"
)

type IndexHandler struct {
	indexer *service.IndexService
}

func NewIndexHandler(indexer *service.IndexService) *IndexHandler {
	return &IndexHandler{indexer: indexer}
}

// rootsField accepts either a single string or a list of strings, so
// `{"roots": "/docs"}` and `{"roots": ["/docs"]}` both work.
type rootsField []string

func (r *rootsField) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("roots must be a string or a list of strings")
	}
	*r = many
	return nil
}

type indexRequestBody struct {
	Roots        rootsField `json:"roots"`
	ForceReembed bool       `json:"force_reembed"`
	Model        string     `json:"model"`
	UserID       string     `json:"user_id"`
}

func (h *IndexHandler) Incremental(c *gin.Context) {
	h.run(c, index.ModeIncremental)
}

func (h *IndexHandler) Full(c *gin.Context) {
	h.run(c, index.ModeFull)
}

func (h *IndexHandler) run(c *gin.Context, mode index.Mode) {
	body := &indexRequestBody{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(body); err != nil {
			response.Error(c, http.StatusBadRequest, "invalid", err.Error())
			return
		}
	}
	userID := body.UserID
	if userID == "" {
		userID = requestUserID(c)
	}
	resp, err := h.indexer.Run(c.Request.Context(), &service.IndexRequest{
		UserID:       userID,
		Roots:        body.Roots,
		Mode:         mode,
		ForceReembed: body.ForceReembed,
		Model:        body.Model,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

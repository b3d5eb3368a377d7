package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appErr "localagent/internal/pkg/errors"
	"localagent/internal/pkg/response"
)

const defaultUserID = "default"

// requestUserID reads the caller identity from the body-independent
// places a client may put it. User ids are free form labels for the
// audit trail, not credentials.
func requestUserID(c *gin.Context) string {
	if id := c.Query("user_id"); id != "" {
		return id
	}
	if id := c.GetHeader("X-User-Id"); id != "" {
		return id
	}
	return defaultUserID
}

func handleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case appErr.IsInvalid(err):
		response.Error(c, http.StatusBadRequest, "invalid", err.Error())
	case appErr.IsNotFound(err):
		response.Error(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, appErr.ErrUnavailable):
		response.Error(c, http.StatusBadGateway, "unavailable", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}

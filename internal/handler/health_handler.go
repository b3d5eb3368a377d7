package handler

import (
	"github.com/gin-gonic/gin"

	"localagent/internal/pkg/response"
	"localagent/internal/service"
)

type HealthHandler struct {
	health *service.HealthService
}

func NewHealthHandler(health *service.HealthService) *HealthHandler {
	return &HealthHandler{health: health}
}

func (h *HealthHandler) Check(c *gin.Context) {
	response.Success(c, h.health.Check(c.Request.Context()))
}

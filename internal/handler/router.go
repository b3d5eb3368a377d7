package handler

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"localagent/internal/middleware"
)

type RouterDeps struct {
	Index       *IndexHandler
	Search      *SearchHandler
	WebSearch   *WebSearchHandler
	Upload      *UploadHandler
	Health      *HealthHandler
	CORSOrigins []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(deps.CORSOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	api := router.Group("/api/v1")
	api.POST("/index", deps.Index.Incremental)
	api.POST("/index-full", deps.Index.Full)
	api.POST("/file/search", deps.Search.FileSearch)
	api.POST("/search/unified", deps.Search.UnifiedSearch)
	api.GET("/web/search", deps.WebSearch.Search)
	api.POST("/upload-files", deps.Upload.Upload)
	api.GET("/health", deps.Health.Check)

	return router
}

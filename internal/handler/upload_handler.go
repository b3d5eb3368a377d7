package handler

import (
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"localagent/internal/filestore"
	"localagent/internal/pkg/response"
	"localagent/internal/service"
)

type UploadHandler struct {
	uploads *service.UploadService
}

func NewUploadHandler(uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Upload handles POST /api/v1/upload-files with one or more files
// under the "files" field.
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "multipart form is required")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		response.Error(c, http.StatusBadRequest, "invalid", "no files in request")
		return
	}

	files := make([]*service.UploadedFile, 0, len(headers))
	for _, header := range headers {
		header := header
		files = append(files, &service.UploadedFile{
			Name: filepath.Base(header.Filename),
			Size: header.Size,
			Open: func() (filestore.ReadSeekCloser, error) {
				return openMultipart(header)
			},
		})
	}

	resp, err := h.uploads.Upload(c.Request.Context(), requestUserID(c), files)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

func openMultipart(header *multipart.FileHeader) (filestore.ReadSeekCloser, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	return f, nil
}

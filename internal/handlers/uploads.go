package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"file-message/internal/logger"
	"file-message/internal/models"
)

// UploadHandler manages the copies native hosts keep of multipart uploads.
// Copies of failed conversions are removed right away; the rest stay until
// the client is done with the message and deletes them here.
type UploadHandler struct {
	dir string
}

func NewUploadHandler(dir string) *UploadHandler {
	return &UploadHandler{dir: dir}
}

func (h *UploadHandler) DeleteUploads(c *gin.Context) {
	var request models.DeleteUploadsRequest
	if !bindCleanupRequest(c, &request, "/uploads") {
		return
	}

	logger.WithFields(logrus.Fields{
		"filename": request.Filename,
	}).Info("Received /uploads delete request")

	deleteStoredFiles(c, h.dir, "upload", func(name string) bool {
		return request.Filename == "" || name == request.Filename
	})
}

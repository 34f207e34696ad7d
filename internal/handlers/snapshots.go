package handlers

import (
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"file-message/internal/logger"
	"file-message/internal/models"
)

const snapshotMarker = "_snapshot"

// SnapshotHandler manages the snapshots native hosts persist next to videos.
type SnapshotHandler struct {
	dir string
}

func NewSnapshotHandler(dir string) *SnapshotHandler {
	return &SnapshotHandler{dir: dir}
}

func (h *SnapshotHandler) DeleteSnapshots(c *gin.Context) {
	var request models.DeleteSnapshotsRequest
	if !bindCleanupRequest(c, &request, "/snapshots") {
		return
	}

	logger.WithFields(logrus.Fields{
		"filename": request.Filename,
		"video":    request.Video,
	}).Info("Received /snapshots delete request")

	prefix := ""
	if request.Video != "" {
		prefix = strings.TrimSuffix(filepath.Base(request.Video), filepath.Ext(request.Video)) + snapshotMarker
	}

	deleteStoredFiles(c, h.dir, "snapshot", func(name string) bool {
		if !strings.Contains(name, snapshotMarker) || !strings.HasSuffix(name, ".png") {
			return false
		}
		switch {
		case request.Filename != "":
			return name == request.Filename
		case prefix != "":
			return strings.HasPrefix(name, prefix)
		default:
			return true
		}
	})
}

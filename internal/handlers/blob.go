package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"file-message/internal/logger"
	"file-message/internal/models"
)

// ContentRefs resolves references minted for previews.
type ContentRefs interface {
	Open(id string) (*models.RawFile, bool)
	Revoke(ref string)
}

type BlobHandler struct {
	refs ContentRefs
}

func NewBlobHandler(refs ContentRefs) *BlobHandler {
	return &BlobHandler{refs: refs}
}

func (h *BlobHandler) Serve(c *gin.Context) {
	id := c.Param("id")
	file, ok := h.refs.Open(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content reference not found or expired"})
		return
	}

	r, err := file.Open()
	if err != nil {
		logger.WithFields(logrus.Fields{
			"id":       id,
			"fileName": file.Name,
			"error":    err.Error(),
		}).Error("Failed to open referenced content")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open content"})
		return
	}
	defer r.Close()

	c.DataFromReader(http.StatusOK, file.Size, file.MimeType, r, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", file.Name),
		"Cache-Control":       "private, no-store",
	})
}

func (h *BlobHandler) Revoke(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.refs.Open(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content reference not found or expired"})
		return
	}
	h.refs.Revoke(id)

	logger.WithFields(logrus.Fields{
		"id": id,
	}).Debug("Revoked content reference")
	c.Status(http.StatusNoContent)
}

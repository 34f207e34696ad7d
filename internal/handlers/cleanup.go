package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"file-message/internal/logger"
	"file-message/internal/models"
)

// bindCleanupRequest decodes an optional JSON body. Only an empty body means
// "no filter"; anything else that fails to decode is answered with 400.
func bindCleanupRequest(c *gin.Context, request any, route string) bool {
	err := c.ShouldBindJSON(request)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	logger.WithFields(logrus.Fields{
		"error": err.Error(),
	}).Error("Validation error for " + route)
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
	return false
}

// deleteStoredFiles removes the regular files in dir accepted by match and
// writes the response. kind names the files in messages ("snapshot", "upload").
func deleteStoredFiles(c *gin.Context, dir, kind string, match func(name string) bool) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		logger.WithFields(logrus.Fields{
			"dir": dir,
		}).Warn("Directory for " + kind + "s does not exist")
		c.JSON(http.StatusNotFound, models.DeleteFilesResponse{
			Message:      fmt.Sprintf("No %ss found to delete", kind),
			DeletedFiles: []string{},
		})
		return
	}
	if err != nil {
		logger.WithFields(logrus.Fields{
			"dir":   dir,
			"error": err.Error(),
		}).Error("Failed to read " + kind + " directory")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": fmt.Sprintf("Failed to read %s directory", kind),
		})
		return
	}

	var toDelete []string
	for _, entry := range entries {
		if !entry.IsDir() && match(entry.Name()) {
			toDelete = append(toDelete, entry.Name())
		}
	}

	if len(toDelete) == 0 {
		c.JSON(http.StatusNotFound, models.DeleteFilesResponse{
			Message:      fmt.Sprintf("No %ss found to delete", kind),
			DeletedFiles: []string{},
		})
		return
	}

	deleted := []string{}
	var failed []models.FailedFile
	for _, name := range toDelete {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			logger.WithFields(logrus.Fields{
				"file":  name,
				"error": err.Error(),
			}).Error("Failed to delete " + kind)
			failed = append(failed, models.FailedFile{FileName: name, Error: err.Error()})
			continue
		}
		deleted = append(deleted, name)
	}

	response := models.DeleteFilesResponse{
		Message:      fmt.Sprintf("Successfully deleted %d %s(s)", len(deleted), kind),
		DeletedFiles: deleted,
		DeletedCount: len(deleted),
		FailedFiles:  failed,
	}
	if len(failed) > 0 {
		response.Message += fmt.Sprintf(". Failed to delete %d %s(s)", len(failed), kind)
	}

	logger.WithFields(logrus.Fields{
		"deletedCount": len(deleted),
		"failedCount":  len(failed),
	}).Info("Delete of " + kind + "s completed")

	c.JSON(http.StatusOK, response)
}

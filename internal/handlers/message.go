package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"file-message/internal/logger"
	"file-message/internal/models"
	"file-message/internal/services"
)

var errUploadTooLarge = errors.New("upload exceeds the configured size limit")

// FileMessageCreator is the part of the message builder the handlers drive.
type FileMessageCreator interface {
	CreateFileMessage(ctx context.Context, file *models.RawFile) (*models.MessagePayload, error)
	GetVideoSnapshot(ctx context.Context, file *models.RawFile) (*models.RawFile, error)
}

// UploadHost is the host environment as seen by the upload endpoints.
type UploadHost interface {
	HasNativeFileAccess() bool
	PersistBlobToDisk(ctx context.Context, file *models.RawFile) (string, error)
	DiscardPersisted(ctx context.Context, path string) error
}

type MessageHandler struct {
	creator        FileMessageCreator
	host           UploadHost
	concurrency    int
	maxUploadBytes int64
}

func NewMessageHandler(creator FileMessageCreator, host UploadHost, concurrency int, maxUploadBytes int64) *MessageHandler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &MessageHandler{
		creator:        creator,
		host:           host,
		concurrency:    concurrency,
		maxUploadBytes: maxUploadBytes,
	}
}

// CreateFileMessages converts multipart uploads. On a native host each upload
// is written to the upload directory first so it has a path the SDK can read;
// the copy is removed again if its conversion fails.
func (h *MessageHandler) CreateFileMessages(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Invalid multipart body for /file-messages")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Request must contain at least one file in the \"files\" field.",
		})
		return
	}

	logger.WithFields(logrus.Fields{
		"fileCount": len(headers),
	}).Info("Received /file-messages request")

	var (
		files  []*models.RawFile
		failed []models.FailedFile
	)
	var firstErr error
	for _, header := range headers {
		file, err := h.readUpload(header)
		if err == nil && h.host.HasNativeFileAccess() {
			file, err = h.persistUpload(c.Request.Context(), file)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			failed = append(failed, models.FailedFile{FileName: header.Filename, Error: err.Error()})
			continue
		}
		files = append(files, file)
	}

	h.respond(c, files, failed, firstErr, h.host.HasNativeFileAccess())
}

// CreateFileMessagesByPath converts files the host exposes by path.
func (h *MessageHandler) CreateFileMessagesByPath(c *gin.Context) {
	if !h.host.HasNativeFileAccess() {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": services.ErrUnsupportedPlatform.Error(),
		})
		return
	}

	var request models.CreateByPathRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		logger.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Validation error for /file-messages/by-path")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	var (
		files  []*models.RawFile
		failed []models.FailedFile
	)
	var firstErr error
	for _, path := range request.Paths {
		file, err := models.NewRawFileFromPath(path)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			failed = append(failed, models.FailedFile{FileName: path, Error: err.Error()})
			continue
		}
		files = append(files, file)
	}

	h.respond(c, files, failed, firstErr, false)
}

// CreateVideoSnapshot returns the PNG still the pipeline would attach to a
// video message.
func (h *MessageHandler) CreateVideoSnapshot(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	file, err := h.readUpload(header)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	snapshot, err := h.creator.GetVideoSnapshot(c.Request.Context(), file)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"fileName": file.Name,
			"error":    err.Error(),
		}).Error("Failed to capture video snapshot")
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	data, err := snapshot.Bytes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", snapshot.Name))
	c.Data(http.StatusOK, snapshot.MimeType, data)
}

// respond converts files and writes the batch response. ownsFiles marks files
// whose paths are upload copies this handler wrote.
func (h *MessageHandler) respond(c *gin.Context, files []*models.RawFile, failed []models.FailedFile, firstErr error, ownsFiles bool) {
	messages, convFailed, convErr := h.convert(c.Request.Context(), files, ownsFiles)
	failed = append(failed, convFailed...)
	if firstErr == nil {
		firstErr = convErr
	}

	response := models.CreateFileMessagesResponse{
		Messages:    messages,
		FailedFiles: failed,
	}
	if response.Messages == nil {
		response.Messages = []models.MessagePayload{}
	}

	status := http.StatusOK
	if len(messages) == 0 && firstErr != nil {
		status = statusFor(firstErr)
	}

	logger.WithFields(logrus.Fields{
		"converted": len(messages),
		"failed":    len(failed),
	}).Info("File message request completed")

	c.JSON(status, response)
}

// convert runs conversions concurrently and keeps results in input order.
func (h *MessageHandler) convert(ctx context.Context, files []*models.RawFile, ownsFiles bool) ([]models.MessagePayload, []models.FailedFile, error) {
	results := make([]*models.MessagePayload, len(files))
	var (
		failed   []models.FailedFile
		firstErr error
		mutex    sync.Mutex
	)

	g := new(errgroup.Group)
	g.SetLimit(h.concurrency)
	for i, file := range files {
		g.Go(func() error {
			msg, err := h.creator.CreateFileMessage(ctx, file)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"fileName": file.Name,
					"error":    err.Error(),
				}).Error("Failed to create file message")
				if ownsFiles && file.HasPath() {
					h.discardUpload(ctx, file)
				}

				mutex.Lock()
				if firstErr == nil {
					firstErr = err
				}
				failed = append(failed, models.FailedFile{FileName: file.Name, Error: err.Error()})
				mutex.Unlock()
				return nil
			}
			results[i] = msg
			return nil
		})
	}
	_ = g.Wait()

	var messages []models.MessagePayload
	for _, msg := range results {
		if msg != nil {
			messages = append(messages, *msg)
		}
	}
	return messages, failed, firstErr
}

func (h *MessageHandler) readUpload(header *multipart.FileHeader) (*models.RawFile, error) {
	if header.Size > h.maxUploadBytes {
		return nil, fmt.Errorf("%s: %w", header.Filename, errUploadTooLarge)
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, fmt.Errorf("%s: %w", header.Filename, errUploadTooLarge)
	}
	return models.NewRawFileFromBytes(header.Filename, header.Header.Get("Content-Type"), data), nil
}

func (h *MessageHandler) persistUpload(ctx context.Context, file *models.RawFile) (*models.RawFile, error) {
	path, err := h.host.PersistBlobToDisk(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	return file.WithPath(path), nil
}

func (h *MessageHandler) discardUpload(ctx context.Context, file *models.RawFile) {
	if err := h.host.DiscardPersisted(context.WithoutCancel(ctx), file.Path); err != nil {
		logger.WithFields(logrus.Fields{
			"fileName": file.Name,
			"path":     file.Path,
			"error":    err.Error(),
		}).Warn("Failed to discard upload copy")
	}
}

func statusFor(err error) int {
	var (
		decodeErr  *services.DecodeError
		captureErr *services.CaptureError
	)
	switch {
	case errors.As(err, &decodeErr), errors.As(err, &captureErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUnsupportedPlatform):
		return http.StatusNotImplemented
	case errors.Is(err, services.ErrNoHostPath), errors.Is(err, errUploadTooLarge):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

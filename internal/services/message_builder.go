package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"file-message/internal/logger"
	"file-message/internal/models"
)

// Matched against the lowercased extension, so "photo.PNG" is an image too.
var imageExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "webp"}

type MessageBuilder struct {
	probe    MediaProbe
	strategy PathStrategy
}

func NewMessageBuilder(probe MediaProbe, strategy PathStrategy) *MessageBuilder {
	return &MessageBuilder{
		probe:    probe,
		strategy: strategy,
	}
}

// Classify decides the message kind from the file alone. Native hosts report
// real video MIME types while browsers only reliably report mp4, hence the
// different markers.
func Classify(file *models.RawFile, native bool) models.MessageKind {
	if slices.Contains(imageExtensions, fileExtension(file.Name)) {
		return models.MessageKindImage
	}
	marker := "mp4"
	if native {
		marker = "video"
	}
	if strings.Contains(file.MimeType, marker) {
		return models.MessageKindVideo
	}
	return models.MessageKindFile
}

func fileExtension(name string) string {
	return strings.ToLower(name[strings.LastIndex(name, ".")+1:])
}

// CreateFileMessage converts file into the payload for its kind. Any probe or
// SDK failure aborts the whole conversion.
func (b *MessageBuilder) CreateFileMessage(ctx context.Context, file *models.RawFile) (*models.MessagePayload, error) {
	kind := Classify(file, b.strategy.Native())
	entry := logger.WithFields(logrus.Fields{
		"fileName": file.Name,
		"kind":     kind,
		"size":     file.Size,
		"native":   b.strategy.Native(),
	})
	entry.Debug("Creating file message")

	var msg *models.MessagePayload
	switch kind {
	case models.MessageKindImage:
		payload, err := b.GetImageMessage(ctx, file)
		if err != nil {
			return nil, err
		}
		msg = models.NewImageMessage(payload)
	case models.MessageKindVideo:
		payload, err := b.createVideoMessage(ctx, file)
		if err != nil {
			return nil, err
		}
		msg = models.NewVideoMessage(payload)
	default:
		payload, err := b.GetFileMessage(ctx, file)
		if err != nil {
			return nil, err
		}
		msg = models.NewFileMessage(payload)
	}

	entry.Info("Created file message")
	return msg, nil
}

func (b *MessageBuilder) GetImageMessage(ctx context.Context, file *models.RawFile) (*models.ImagePayload, error) {
	meta, err := b.probe.ProbeImage(ctx, file)
	if err != nil {
		return nil, err
	}
	return b.strategy.ResolveImagePayload(ctx, file, meta)
}

// GetVideoMessage builds a video message around an already captured snapshot.
func (b *MessageBuilder) GetVideoMessage(ctx context.Context, file, snapshot *models.RawFile) (*models.VideoPayload, error) {
	duration, err := b.probe.ProbeVideoDuration(ctx, file)
	if err != nil {
		return nil, err
	}
	meta, err := b.measureSnapshot(ctx, file, models.VideoMetadata{Duration: duration, Snapshot: snapshot})
	if err != nil {
		return nil, err
	}
	return b.resolveVideo(ctx, file, meta)
}

func (b *MessageBuilder) GetFileMessage(ctx context.Context, file *models.RawFile) (*models.FilePayload, error) {
	return b.strategy.ResolveFilePayload(ctx, file)
}

func (b *MessageBuilder) GetVideoSnapshot(ctx context.Context, file *models.RawFile) (*models.RawFile, error) {
	return b.probe.CaptureVideoSnapshot(ctx, file)
}

func (b *MessageBuilder) createVideoMessage(ctx context.Context, file *models.RawFile) (*models.VideoPayload, error) {
	meta, err := b.describeVideo(ctx, file)
	if err != nil {
		return nil, err
	}
	return b.resolveVideo(ctx, file, meta)
}

// describeVideo probes the duration and captures the snapshot concurrently,
// then measures the snapshot.
func (b *MessageBuilder) describeVideo(ctx context.Context, file *models.RawFile) (models.VideoMetadata, error) {
	var meta models.VideoMetadata
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meta.Duration, err = b.probe.ProbeVideoDuration(gctx, file)
		return err
	})
	g.Go(func() error {
		var err error
		meta.Snapshot, err = b.probe.CaptureVideoSnapshot(gctx, file)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.VideoMetadata{}, err
	}
	return b.measureSnapshot(ctx, file, meta)
}

func (b *MessageBuilder) measureSnapshot(ctx context.Context, file *models.RawFile, meta models.VideoMetadata) (models.VideoMetadata, error) {
	if meta.Snapshot == nil || meta.Snapshot.Size == 0 {
		return models.VideoMetadata{}, &CaptureError{FileName: file.Name, Err: ErrEmptySnapshot}
	}
	dims, err := b.probe.ProbeImage(ctx, meta.Snapshot)
	if err != nil {
		return models.VideoMetadata{}, fmt.Errorf("snapshot of %q: %w", file.Name, err)
	}
	meta.Width, meta.Height = dims.Width, dims.Height
	return meta, nil
}

func (b *MessageBuilder) resolveVideo(ctx context.Context, file *models.RawFile, meta models.VideoMetadata) (*models.VideoPayload, error) {
	return b.strategy.ResolveVideoPayload(ctx, file, meta.Snapshot, meta.Duration, models.ImageMetadata{
		Width:  meta.Width,
		Height: meta.Height,
	})
}

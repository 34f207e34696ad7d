// Package imsdk is the local messaging SDK: it turns resolved file data into
// message objects ready for the send path. It implements both the embedded
// content overloads and the host path overloads.
package imsdk

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"file-message/internal/models"
)

var errMissingContent = errors.New("embedded file content is required")

type Client struct {
	newID    func() string
	newMsgID func() string
	now      func() time.Time
}

type Option func(*Client)

// WithClock replaces the clock used for CreateTime.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithIDs replaces both the content UUID and the client message id source.
func WithIDs(newID func() string) Option {
	return func(c *Client) {
		c.newID = newID
		c.newMsgID = newID
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		newID:    uuid.NewString,
		newMsgID: func() string { return xid.New().String() },
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BuildImageMessageFromPath(ctx context.Context, path string) (*models.ImagePayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	picture := models.PictureInfo{
		UUID: c.newID(),
		Type: models.MimeTypeFromName(path),
		Size: info.Size(),
		URL:  fileURL(path),
	}
	picture.Width, picture.Height = decodeDimensions(path)

	return &models.ImagePayload{
		ClientMsgID:     c.newMsgID(),
		ContentType:     models.ContentTypePicture,
		CreateTime:      c.now().UnixMilli(),
		SourcePath:      path,
		SourcePicture:   picture,
		BigPicture:      picture,
		SnapshotPicture: picture,
	}, nil
}

func (c *Client) BuildImageMessageFromFile(ctx context.Context, opts models.ImageFileOptions) (*models.ImagePayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.File == nil {
		return nil, errMissingContent
	}
	return &models.ImagePayload{
		ClientMsgID:     c.newMsgID(),
		ContentType:     models.ContentTypePicture,
		CreateTime:      c.now().UnixMilli(),
		SourcePath:      opts.SourcePath,
		SourcePicture:   opts.SourcePicture,
		BigPicture:      opts.BigPicture,
		SnapshotPicture: opts.SnapshotPicture,
		Source:          opts.File,
	}, nil
}

func (c *Client) BuildVideoMessageFromPath(ctx context.Context, opts models.VideoPathOptions) (*models.VideoPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(opts.VideoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat video: %w", err)
	}
	payload := &models.VideoPayload{
		ClientMsgID:  c.newMsgID(),
		ContentType:  models.ContentTypeVideo,
		CreateTime:   c.now().UnixMilli(),
		VideoPath:    opts.VideoPath,
		VideoUUID:    c.newID(),
		VideoURL:     fileURL(opts.VideoPath),
		VideoType:    opts.VideoType,
		VideoSize:    info.Size(),
		Duration:     opts.Duration,
		SnapshotPath: opts.SnapshotPath,
		SnapshotUUID: c.newID(),
		SnapshotURL:  fileURL(opts.SnapshotPath),
		SnapshotType: models.MimeTypeFromName(opts.SnapshotPath),
	}
	// The snapshot may only exist under a fallback name; its size and
	// dimensions are then left for the caller to fill in.
	if snapshot, err := os.Stat(opts.SnapshotPath); err == nil {
		payload.SnapshotSize = snapshot.Size()
		payload.SnapshotWidth, payload.SnapshotHeight = decodeDimensions(opts.SnapshotPath)
	}
	return payload, nil
}

func (c *Client) BuildVideoMessageFromFile(ctx context.Context, opts models.VideoFileOptions) (*models.VideoPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.VideoFile == nil || opts.SnapshotFile == nil {
		return nil, errMissingContent
	}
	return &models.VideoPayload{
		ClientMsgID:    c.newMsgID(),
		ContentType:    models.ContentTypeVideo,
		CreateTime:     c.now().UnixMilli(),
		VideoPath:      opts.VideoPath,
		VideoUUID:      opts.VideoUUID,
		VideoURL:       opts.VideoURL,
		VideoType:      opts.VideoType,
		VideoSize:      opts.VideoSize,
		Duration:       opts.Duration,
		SnapshotPath:   opts.SnapshotPath,
		SnapshotUUID:   opts.SnapshotUUID,
		SnapshotSize:   opts.SnapshotSize,
		SnapshotURL:    opts.SnapshotURL,
		SnapshotWidth:  opts.SnapshotWidth,
		SnapshotHeight: opts.SnapshotHeight,
		SnapshotType:   opts.SnapshotType,
		Video:          opts.VideoFile,
		Snapshot:       opts.SnapshotFile,
	}, nil
}

func (c *Client) BuildFileMessageFromPath(ctx context.Context, opts models.FilePathOptions) (*models.FilePayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	name := opts.FileName
	if name == "" {
		name = filepath.Base(opts.FilePath)
	}
	return &models.FilePayload{
		ClientMsgID: c.newMsgID(),
		ContentType: models.ContentTypeFile,
		CreateTime:  c.now().UnixMilli(),
		FilePath:    opts.FilePath,
		UUID:        c.newID(),
		SourceURL:   fileURL(opts.FilePath),
		FileName:    name,
		FileSize:    info.Size(),
		FileType:    models.MimeTypeFromName(opts.FilePath),
	}, nil
}

func (c *Client) BuildFileMessageFromFile(ctx context.Context, opts models.FileFileOptions) (*models.FilePayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.File == nil {
		return nil, errMissingContent
	}
	return &models.FilePayload{
		ClientMsgID: c.newMsgID(),
		ContentType: models.ContentTypeFile,
		CreateTime:  c.now().UnixMilli(),
		FilePath:    opts.FilePath,
		UUID:        opts.UUID,
		SourceURL:   opts.SourceURL,
		FileName:    opts.FileName,
		FileSize:    opts.FileSize,
		FileType:    opts.FileType,
		Source:      opts.File,
	}, nil
}

func fileURL(path string) string {
	return "file://" + filepath.ToSlash(path)
}

func decodeDimensions(path string) (int, int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"go.mau.fi/util/exmime"
	"go.mau.fi/util/ffmpeg"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"file-message/internal/logger"
	"file-message/internal/models"
)

// MediaProbe extracts intrinsic metadata from raw files. Implementations only
// create temporary resources of their own and release them before returning.
type MediaProbe interface {
	ProbeImage(ctx context.Context, file *models.RawFile) (models.ImageMetadata, error)
	ProbeVideoDuration(ctx context.Context, file *models.RawFile) (int64, error)
	CaptureVideoSnapshot(ctx context.Context, file *models.RawFile) (*models.RawFile, error)
}

type MediaProberConfig struct {
	ProbeTimeout    time.Duration
	SnapshotTimeout time.Duration
	// SnapshotMaxDimension bounds the longer snapshot side; 0 keeps the frame size.
	SnapshotMaxDimension int
	// TempDir is where content without a host path is spooled; empty means os.TempDir.
	TempDir string
}

type MediaProber struct {
	tool VideoTool
	cfg  MediaProberConfig
}

func NewMediaProber(tool VideoTool, cfg MediaProberConfig) *MediaProber {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 15 * time.Second
	}
	if cfg.SnapshotTimeout <= 0 {
		cfg.SnapshotTimeout = 10 * time.Second
	}
	return &MediaProber{tool: tool, cfg: cfg}
}

func (p *MediaProber) ProbeImage(ctx context.Context, file *models.RawFile) (models.ImageMetadata, error) {
	if err := ctx.Err(); err != nil {
		return models.ImageMetadata{}, err
	}
	r, err := file.Open()
	if err != nil {
		return models.ImageMetadata{}, &DecodeError{Kind: "image", FileName: file.Name, Err: err}
	}
	defer r.Close()

	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return models.ImageMetadata{}, &DecodeError{Kind: "image", FileName: file.Name, Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return models.ImageMetadata{}, &DecodeError{
			Kind:     "image",
			FileName: file.Name,
			Err:      fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height),
		}
	}

	logger.WithFields(logrus.Fields{
		"fileName": file.Name,
		"format":   format,
		"width":    cfg.Width,
		"height":   cfg.Height,
	}).Debug("Probed image dimensions")

	return models.ImageMetadata{Width: cfg.Width, Height: cfg.Height}, nil
}

func (p *MediaProber) ProbeVideoDuration(ctx context.Context, file *models.RawFile) (int64, error) {
	if !p.tool.ProbeSupported() {
		return 0, &DecodeError{Kind: "video", FileName: file.Name, Err: errors.New("ffprobe is not available")}
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
	defer cancel()

	input, release, err := p.localPath(file)
	if err != nil {
		return 0, &DecodeError{Kind: "video", FileName: file.Name, Err: err}
	}
	defer release()

	result, err := p.tool.Probe(ctx, input)
	if err != nil {
		return 0, &DecodeError{Kind: "video", FileName: file.Name, Err: err}
	}
	seconds, ok := durationOf(result)
	if !ok {
		return 0, &DecodeError{Kind: "video", FileName: file.Name, Err: errors.New("duration unavailable")}
	}
	return int64(math.Round(seconds)), nil
}

func (p *MediaProber) CaptureVideoSnapshot(ctx context.Context, file *models.RawFile) (*models.RawFile, error) {
	if !p.tool.Supported() {
		return nil, &CaptureError{FileName: file.Name, Err: errors.New("ffmpeg is not available")}
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.SnapshotTimeout)
	defer cancel()

	input, release, err := p.localPath(file)
	if err != nil {
		return nil, &CaptureError{FileName: file.Name, Err: err}
	}
	defer release()

	dir, err := os.MkdirTemp(p.cfg.TempDir, "media-snapshot-*")
	if err != nil {
		return nil, &CaptureError{FileName: file.Name, Err: err}
	}
	defer os.RemoveAll(dir)

	output := filepath.Join(dir, "frame.png")
	if err := p.tool.ExtractFrame(ctx, input, output); err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("no frame within %s: %w", p.cfg.SnapshotTimeout, ctx.Err())
		}
		return nil, &CaptureError{FileName: file.Name, Err: err}
	}

	frame, err := imaging.Open(output)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = ErrEmptySnapshot
		}
		return nil, &CaptureError{FileName: file.Name, Err: err}
	}
	if limit := p.cfg.SnapshotMaxDimension; limit > 0 {
		frame = imaging.Fit(frame, limit, limit, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.PNG); err != nil {
		return nil, &CaptureError{FileName: file.Name, Err: err}
	}
	if buf.Len() == 0 {
		return nil, &CaptureError{FileName: file.Name, Err: ErrEmptySnapshot}
	}
	return models.NewRawFileFromBytes(snapshotName(file.Name), "image/png", buf.Bytes()), nil
}

// localPath returns a filesystem path ffmpeg can read. Content without a
// host path is spooled to a temp file that release removes.
func (p *MediaProber) localPath(file *models.RawFile) (string, func(), error) {
	if file.HasPath() {
		return file.Path, func() {}, nil
	}

	r, err := file.Open()
	if err != nil {
		return "", nil, err
	}
	defer r.Close()

	ext := exmime.ExtensionFromMimetype(file.MimeType)
	if ext == "" {
		ext = filepath.Ext(file.Name)
	}
	tmp, err := os.CreateTemp(p.cfg.TempDir, "media-probe-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	release := func() {
		_ = os.Remove(tmp.Name())
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		release()
		return "", nil, fmt.Errorf("failed to spool content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		release()
		return "", nil, fmt.Errorf("failed to spool content: %w", err)
	}
	return tmp.Name(), release, nil
}

func durationOf(result *ffmpeg.ProbeResult) (float64, bool) {
	if result == nil {
		return 0, false
	}
	for _, s := range result.Streams {
		if s != nil && s.CodecType == "video" && s.Duration > 0 {
			return s.Duration, true
		}
	}
	if result.Format != nil && result.Format.Duration > 0 {
		return result.Format.Duration, true
	}
	return 0, false
}

func snapshotName(videoName string) string {
	base := strings.TrimSuffix(filepath.Base(videoName), filepath.Ext(videoName))
	if base == "" || base == "." || base == "/" {
		base = "video"
	}
	return base + "_snapshot.png"
}

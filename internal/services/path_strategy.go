package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"file-message/internal/logger"
	"file-message/internal/models"
)

// BlobMessageSDK builds messages from embedded content. Every messaging SDK
// supports it.
type BlobMessageSDK interface {
	BuildImageMessageFromFile(ctx context.Context, opts models.ImageFileOptions) (*models.ImagePayload, error)
	BuildVideoMessageFromFile(ctx context.Context, opts models.VideoFileOptions) (*models.VideoPayload, error)
	BuildFileMessageFromFile(ctx context.Context, opts models.FileFileOptions) (*models.FilePayload, error)
}

// PathMessageSDK is implemented by SDKs that read host files themselves.
type PathMessageSDK interface {
	BuildImageMessageFromPath(ctx context.Context, path string) (*models.ImagePayload, error)
	BuildVideoMessageFromPath(ctx context.Context, opts models.VideoPathOptions) (*models.VideoPayload, error)
	BuildFileMessageFromPath(ctx context.Context, opts models.FilePathOptions) (*models.FilePayload, error)
}

type HostEnvironment interface {
	HasNativeFileAccess() bool
	PersistBlobToDisk(ctx context.Context, file *models.RawFile) (string, error)
	DiscardPersisted(ctx context.Context, path string) error
}

// PathStrategy shapes payloads for one kind of host: one that exposes real
// filesystem paths, or one that only hands out in-memory content.
type PathStrategy interface {
	Native() bool
	ResolveImagePayload(ctx context.Context, file *models.RawFile, meta models.ImageMetadata) (*models.ImagePayload, error)
	ResolveVideoPayload(ctx context.Context, file, snapshot *models.RawFile, duration int64, meta models.ImageMetadata) (*models.VideoPayload, error)
	ResolveFilePayload(ctx context.Context, file *models.RawFile) (*models.FilePayload, error)
}

type StrategyDeps struct {
	SDK  BlobMessageSDK
	Host HostEnvironment
	IDs  IDGenerator
	Refs RefMinter
}

// NewPathStrategy reads the capability flag once and picks the matching
// strategy. A capable host paired with an SDK lacking path overloads is
// rejected with ErrUnsupportedPlatform.
func NewPathStrategy(deps StrategyDeps) (PathStrategy, error) {
	if deps.SDK == nil || deps.Host == nil || deps.IDs == nil || deps.Refs == nil {
		return nil, errors.New("path strategy requires sdk, host, id generator and ref minter")
	}
	if !deps.Host.HasNativeFileAccess() {
		return &blobStrategy{sdk: deps.SDK, ids: deps.IDs, refs: deps.Refs}, nil
	}
	pathSDK, ok := deps.SDK.(PathMessageSDK)
	if !ok {
		return nil, fmt.Errorf("native file access requires path overloads: %w", ErrUnsupportedPlatform)
	}
	return &nativeStrategy{sdk: pathSDK, host: deps.Host, refs: deps.Refs}, nil
}

type nativeStrategy struct {
	sdk  PathMessageSDK
	host HostEnvironment
	refs RefMinter
}

func (s *nativeStrategy) Native() bool { return true }

func (s *nativeStrategy) ResolveImagePayload(ctx context.Context, file *models.RawFile, meta models.ImageMetadata) (*models.ImagePayload, error) {
	if !file.HasPath() {
		return nil, fmt.Errorf("image %q: %w", file.Name, ErrNoHostPath)
	}
	payload, err := s.sdk.BuildImageMessageFromPath(ctx, file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to build image message: %w", err)
	}
	// The SDK's preview URL points at the host path; the UI needs a reference
	// it can render right away.
	payload.SourcePicture.URL = s.refs.Mint(file)
	if payload.SourcePicture.Width == 0 && payload.SourcePicture.Height == 0 {
		payload.SourcePicture.Width = meta.Width
		payload.SourcePicture.Height = meta.Height
	}
	return payload, nil
}

func (s *nativeStrategy) ResolveVideoPayload(ctx context.Context, file, snapshot *models.RawFile, duration int64, meta models.ImageMetadata) (*models.VideoPayload, error) {
	if !file.HasPath() {
		return nil, fmt.Errorf("video %q: %w", file.Name, ErrNoHostPath)
	}

	persisted := true
	snapshotPath, err := s.host.PersistBlobToDisk(ctx, snapshot)
	if err != nil {
		persisted = false
		perr := &PersistError{FileName: snapshot.Name, Err: err}
		snapshotPath = "/" + snapshot.Name
		logger.WithFields(logrus.Fields{
			"fileName":     file.Name,
			"snapshotPath": snapshotPath,
			"error":        perr.Error(),
		}).Warn("Snapshot could not be persisted, using fallback name")
	}

	payload, err := s.sdk.BuildVideoMessageFromPath(ctx, models.VideoPathOptions{
		VideoPath:    file.Path,
		SnapshotPath: snapshotPath,
		VideoType:    file.MimeType,
		Duration:     duration,
	})
	if err != nil {
		if persisted {
			s.discardSnapshot(ctx, snapshotPath)
		}
		return nil, fmt.Errorf("failed to build video message: %w", err)
	}
	payload.SnapshotURL = s.refs.Mint(snapshot)
	if payload.SnapshotWidth == 0 && payload.SnapshotHeight == 0 {
		payload.SnapshotWidth = meta.Width
		payload.SnapshotHeight = meta.Height
	}
	return payload, nil
}

// discardSnapshot removes a snapshot no message will reference. Removal
// errors are only logged.
func (s *nativeStrategy) discardSnapshot(ctx context.Context, path string) {
	if err := s.host.DiscardPersisted(context.WithoutCancel(ctx), path); err != nil {
		logger.WithFields(logrus.Fields{
			"snapshotPath": path,
			"error":        err.Error(),
		}).Warn("Failed to discard orphaned snapshot")
	}
}

func (s *nativeStrategy) ResolveFilePayload(ctx context.Context, file *models.RawFile) (*models.FilePayload, error) {
	if !file.HasPath() {
		return nil, fmt.Errorf("file %q: %w", file.Name, ErrNoHostPath)
	}
	payload, err := s.sdk.BuildFileMessageFromPath(ctx, models.FilePathOptions{
		FilePath: file.Path,
		FileName: file.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build file message: %w", err)
	}
	return payload, nil
}

type blobStrategy struct {
	sdk  BlobMessageSDK
	ids  IDGenerator
	refs RefMinter
}

func (s *blobStrategy) Native() bool { return false }

func (s *blobStrategy) ResolveImagePayload(ctx context.Context, file *models.RawFile, meta models.ImageMetadata) (*models.ImagePayload, error) {
	ref := s.refs.Mint(file)
	base := models.PictureInfo{
		UUID:   s.ids.NewID(),
		Type:   file.MimeType,
		Size:   file.Size,
		Width:  meta.Width,
		Height: meta.Height,
		URL:    ref,
	}
	payload, err := s.sdk.BuildImageMessageFromFile(ctx, models.ImageFileOptions{
		SourcePicture:   base,
		BigPicture:      base,
		SnapshotPicture: base,
		File:            file,
	})
	if err != nil {
		s.refs.Revoke(ref)
		return nil, fmt.Errorf("failed to build image message: %w", err)
	}
	return payload, nil
}

func (s *blobStrategy) ResolveVideoPayload(ctx context.Context, file, snapshot *models.RawFile, duration int64, meta models.ImageMetadata) (*models.VideoPayload, error) {
	ref := s.refs.Mint(snapshot)
	payload, err := s.sdk.BuildVideoMessageFromFile(ctx, models.VideoFileOptions{
		VideoFile:      file,
		SnapshotFile:   snapshot,
		Duration:       duration,
		VideoType:      file.MimeType,
		VideoUUID:      s.ids.NewID(),
		VideoSize:      file.Size,
		SnapshotUUID:   s.ids.NewID(),
		SnapshotSize:   snapshot.Size,
		SnapshotURL:    ref,
		SnapshotWidth:  meta.Width,
		SnapshotHeight: meta.Height,
		SnapshotType:   snapshot.MimeType,
	})
	if err != nil {
		s.refs.Revoke(ref)
		return nil, fmt.Errorf("failed to build video message: %w", err)
	}
	return payload, nil
}

func (s *blobStrategy) ResolveFilePayload(ctx context.Context, file *models.RawFile) (*models.FilePayload, error) {
	payload, err := s.sdk.BuildFileMessageFromFile(ctx, models.FileFileOptions{
		File:     file,
		FileName: file.Name,
		UUID:     s.ids.NewID(),
		FileSize: file.Size,
		FileType: file.MimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build file message: %w", err)
	}
	return payload, nil
}

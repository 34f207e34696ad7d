package host

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"file-message/internal/logger"
	"file-message/internal/models"
)

const maxNameAttempts = 100

var errOutsideDir = errors.New("path is outside the persist directory")

// Environment describes the host the pipeline runs on. The capability flag is
// fixed at construction. Blobs are persisted into dir, one Environment per
// directory (snapshots, uploads).
type Environment struct {
	nativeFileAccess bool
	dir              string
	sanitizer        *NameSanitizer
}

func NewEnvironment(nativeFileAccess bool, dir string) *Environment {
	return &Environment{
		nativeFileAccess: nativeFileAccess,
		dir:              dir,
		sanitizer:        NewNameSanitizer(),
	}
}

func (e *Environment) HasNativeFileAccess() bool {
	return e.nativeFileAccess
}

// PersistBlobToDisk writes file into the persist directory under a sanitized,
// non-clobbering name and returns its absolute path.
func (e *Environment) PersistBlobToDisk(ctx context.Context, file *models.RawFile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", e.dir, err)
	}
	data, err := file.Bytes()
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}

	name := e.sanitizer.SanitizeFileName(file.Name)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 0; i < maxNameAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		path := filepath.Join(e.dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", candidate, err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("failed to write %s: %w", candidate, err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("failed to write %s: %w", candidate, err)
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		logger.WithFields(logrus.Fields{
			"fileName": file.Name,
			"path":     abs,
			"size":     len(data),
		}).Debug("Persisted blob to disk")
		return abs, nil
	}
	return "", fmt.Errorf("no free name for %q in %s", name, e.dir)
}

// DiscardPersisted removes a file written by PersistBlobToDisk. Paths outside
// the persist directory are refused; a file that is already gone is not an
// error.
func (e *Environment) DiscardPersisted(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := filepath.Abs(e.dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", e.dir, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if filepath.Dir(abs) != dir {
		return fmt.Errorf("%s: %w", path, errOutsideDir)
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", filepath.Base(abs), err)
	}
	logger.WithFields(logrus.Fields{
		"path": abs,
	}).Debug("Discarded persisted blob")
	return nil
}

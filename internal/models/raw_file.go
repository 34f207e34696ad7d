package models

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// RawFile is an opaque handle to user-selected content. It is never mutated
// once built: every Open returns a fresh reader over the same bytes.
type RawFile struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	// Path is only set when the host exposes real filesystem paths.
	Path string `json:"path,omitempty"`

	open func() (io.ReadCloser, error)
}

var ErrNoContent = errors.New("file has neither content nor path")

// NewRawFileFromPath describes a file on the local filesystem.
func NewRawFileFromPath(path string) (*RawFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	return &RawFile{
		Name:     filepath.Base(abs),
		MimeType: MimeTypeFromName(abs),
		Size:     info.Size(),
		Path:     abs,
	}, nil
}

// NewRawFileFromBytes describes in-memory content with no host path.
func NewRawFileFromBytes(name, mimeType string, data []byte) *RawFile {
	if mimeType == "" {
		mimeType = MimeTypeFromName(name)
	}
	return &RawFile{
		Name:     name,
		MimeType: mimeType,
		Size:     int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// WithPath returns a copy of f that also carries a host path.
func (f *RawFile) WithPath(path string) *RawFile {
	cp := *f
	cp.Path = path
	return &cp
}

func (f *RawFile) HasPath() bool {
	return f.Path != ""
}

// Open prefers the in-memory content accessor and falls back to the host path.
func (f *RawFile) Open() (io.ReadCloser, error) {
	if f.open != nil {
		return f.open()
	}
	if f.Path != "" {
		return os.Open(f.Path)
	}
	return nil, ErrNoContent
}

// Bytes reads the whole content.
func (f *RawFile) Bytes() ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func MimeTypeFromName(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

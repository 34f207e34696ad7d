package services

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPlatform means the messaging SDK has no overload for the
	// host's capability state.
	ErrUnsupportedPlatform = errors.New("messaging sdk does not support this platform")
	// ErrNoHostPath is returned on a capable host for a file without a path.
	ErrNoHostPath    = errors.New("file has no host path")
	ErrEmptySnapshot = errors.New("snapshot is empty")
)

// DecodeError reports content that cannot be decoded as the expected media kind.
type DecodeError struct {
	Kind     string
	FileName string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s %q: %v", e.Kind, e.FileName, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// CaptureError reports that no video frame became available in time.
type CaptureError struct {
	FileName string
	Err      error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("failed to capture snapshot of %q: %v", e.FileName, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// PersistError reports that the host refused to store a derived file. The
// pipeline recovers from it with a fallback name.
type PersistError struct {
	FileName string
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist %q: %v", e.FileName, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

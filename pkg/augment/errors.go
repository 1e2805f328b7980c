package augment

import (
	"errors"
	"fmt"
	"io/fs"
)

// Sentinel errors for augmentation runs.
var (
	// ErrMissingSourceImage is reported when a record's image file does not exist.
	// The record is skipped and the run continues.
	ErrMissingSourceImage = errors.New("missing source image")

	// ErrUnreadableSourceImage is reported when a record's image exists but cannot be decoded.
	// The record is skipped and the run continues.
	ErrUnreadableSourceImage = errors.New("unreadable source image")

	// ErrImageWrite aborts the run: a derived image could not be stored.
	ErrImageWrite = errors.New("failed to write image")
)

// RecordError ties a failure to the annotation key and file it concerns.
type RecordError struct {
	Key  string
	Path string
	Err  error
}

// Error returns the error message including key and path.
func (e *RecordError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Key, e.Path, e.Err)
}

// Unwrap returns the wrapped error.
func (e *RecordError) Unwrap() error { return e.Err }

// SourceError classifies a failure to read the source image of key as
// missing or unreadable.
func SourceError(key, path string, err error) *RecordError {
	kind := ErrUnreadableSourceImage
	if errors.Is(err, fs.ErrNotExist) {
		kind = ErrMissingSourceImage
	}
	return &RecordError{Key: key, Path: path, Err: fmt.Errorf("%w: %w", kind, err)}
}

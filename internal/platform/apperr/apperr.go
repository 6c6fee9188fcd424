package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a lookup miss. Handlers map it to 404; everything else
// in the taxonomy maps to 4xx/5xx depending on where it surfaced.
var ErrNotFound = errors.New("not found")

// FileFormatError reports an unreadable, unsupported, or empty upload.
type FileFormatError struct {
	Filename string
	Err      error
}

func (e *FileFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("file format error (%s): %v", e.Filename, e.Err)
	}
	return fmt.Sprintf("file format error (%s)", e.Filename)
}

func (e *FileFormatError) Unwrap() error { return e.Err }

// ExtractionParseError reports model output that could not be recovered as
// JSON. RawResponse carries the full model response for diagnostics.
type ExtractionParseError struct {
	RawResponse string
	Err         error
}

func (e *ExtractionParseError) Error() string {
	return fmt.Sprintf("invalid JSON response from model: %v", e.Err)
}

func (e *ExtractionParseError) Unwrap() error { return e.Err }

// ExtractionServiceError reports an unreachable or rejecting completion service.
type ExtractionServiceError struct {
	Err error
}

func (e *ExtractionServiceError) Error() string {
	return fmt.Sprintf("extraction service error: %v", e.Err)
}

func (e *ExtractionServiceError) Unwrap() error { return e.Err }

// StoreError reports a persistence layer failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("store error (%s): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store error: %v", e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

package core

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout means the caller's wait expired. The underlying operation
	// may still complete in the background; writes stay harmless because
	// they are idempotent by dedup key or fact key.
	ErrTimeout = errors.New("operation timed out")

	// ErrUnavailable means the backend never reached a healthy state.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrNotFound is a negative result, not a failure.
	ErrNotFound = errors.New("not found")
)

// BackendError wraps a failure response from an otherwise reachable backend.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error in %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func NewBackendError(op string, err error) *BackendError {
	return &BackendError{Op: op, Err: err}
}

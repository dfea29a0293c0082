package database

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means no backend is configured or it cannot be reached.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrNotFound means the row does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrStored means the row exists but is pinned, so the delete was refused.
	ErrStored = errors.New("file is stored")
)

// RequestError wraps a failed query with the operation that issued it.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func requestErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RequestError{Op: op, Err: err}
}

package service

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

var (
	// ErrPinned is returned when deleting a record that is still stored.
	ErrPinned = errors.New("file is stored; unstore it before deleting")
	// ErrQuotaExceeded matches every *QuotaError.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrEmptyName rejects uploads without a filename.
	ErrEmptyName = errors.New("file name is empty")
	// ErrContentTypeMismatch is returned by strict uploads whose bytes do not
	// match the declared media type.
	ErrContentTypeMismatch = errors.New("content type mismatch")
)

// QuotaError reports a batch that would not fit in the remaining capacity.
type QuotaError struct {
	Used     int64
	Incoming int64
	Capacity int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%v: %s used + %s incoming exceeds %s",
		ErrQuotaExceeded,
		humanize.IBytes(uint64(e.Used)),
		humanize.IBytes(uint64(e.Incoming)),
		humanize.IBytes(uint64(e.Capacity)),
	)
}

func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

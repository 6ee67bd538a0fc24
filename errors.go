package ddbsession

import (
	"errors"
	"fmt"
	"strings"

	"github.com/unkn0wn-root/ddbsession/store"
)

var (
	ErrStoreRequired = errors.New("ddbsession: store is required")
	ErrNotOpen       = errors.New("ddbsession: namespace is not open")
	ErrEmptyID       = errors.New("ddbsession: empty namespace id")

	// Re-exported so callers need not import store for the common checks.
	ErrConflict    = store.ErrConflict
	ErrUnavailable = store.ErrUnavailable
)

// ConflictError is returned by Close when a concurrent writer changed the
// item and the local changes went beyond the housekeeping attribute.
type ConflictError struct {
	Namespace string
	Changed   []string
	Err       error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("ddbsession: namespace %q changed concurrently (local changes: %s): %v",
		e.Namespace, strings.Join(e.Changed, ","), e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

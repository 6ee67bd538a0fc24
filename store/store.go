// Package store defines the remote table abstraction used by ddbsession.
//
// A Store holds items keyed by a single hash-key attribute. Items are plain
// attribute-name to value maps. Writes are partial: only changed attributes are
// sent, each guarded by the value the writer last observed, so a concurrent
// writer that touched the same attribute makes the save fail with ErrConflict.
//
// Implementations must be safe for concurrent use.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Fetch when no item exists for the key.
	ErrNotFound = errors.New("store: item not found")

	// ErrConflict is returned by SavePartial when an expectation did not hold.
	ErrConflict = errors.New("store: conditional write conflict")

	// ErrUnavailable is returned when the backing client cannot be built or reached.
	ErrUnavailable = errors.New("store: backend unavailable")

	// ErrMissingTable is returned at construction when no table name is configured.
	ErrMissingTable = errors.New("store: table name required")
)

// Key identifies one item: {Name: Value}.
type Key struct {
	Name  string // hash-key attribute name, e.g. "id"
	Value string // namespace id
}

func (k Key) String() string { return k.Name + "=" + k.Value }

// Item is one record's attributes, including the hash-key attribute.
type Item map[string]any

// Change is a single attribute update of a partial save.
//
// Existed=false means the writer saw no such attribute, so the write expects
// it to still be absent. Existed=true means the attribute must still equal Expected.
type Change struct {
	Name     string
	Value    any
	Delete   bool
	Expected any
	Existed  bool
}

// Store is the outbound contract to the remote table.
type Store interface {
	// Fetch returns the item for key, or ErrNotFound.
	Fetch(ctx context.Context, key Key) (Item, error)

	// SavePartial applies changes to the item for key, creating it when absent.
	// All expectations are checked atomically with the write; if any fails
	// nothing is written and the error wraps ErrConflict.
	SavePartial(ctx context.Context, key Key, changes []Change) error

	// Delete removes the item. Deleting a missing item is not an error.
	Delete(ctx context.Context, key Key) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// ChangeNames returns the attribute names touched by changes, in order.
func ChangeNames(changes []Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Name
	}
	return out
}

package ddbsession

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/unkn0wn-root/ddbsession/internal/util"
	"github.com/unkn0wn-root/ddbsession/store"
)

// Namespace is a map-like view of one stored item.
//
// The item is fetched on the first Open and kept until Close, which writes
// back the attributes that changed (modes 'c' and 'w' only) and drops it.
// A Namespace is meant for a single request; do not share it.
type Namespace struct {
	b  *Backend
	id string

	mu      sync.Mutex // guards openers, mode, item, orig across Open/Close
	openers int
	mode    Mode
	item    store.Item
	orig    store.Item // deep copy of item as fetched; base of the partial save
}

// ID returns the namespace id.
func (n *Namespace) ID() string { return n.id }

// Mode returns the current access mode (ModeNone when closed).
func (n *Namespace) Mode() Mode {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.mode
}

func (n *Namespace) key() store.Key { return store.Key{Name: n.b.hashKey, Value: n.id} }

// Open records mode and loads the item unless one is already held.
// A missing item is not an error: the namespace starts as {hashKey: id}.
// replace is accepted for interface compatibility and ignored.
func (n *Namespace) Open(ctx context.Context, mode Mode, replace bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.doOpen(ctx, mode); err != nil {
		return err
	}
	n.openers = 1
	return nil
}

// Close flushes changes in write modes and releases the item.
// The item is released even when the flush fails.
func (n *Namespace) Close(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.openers = 0
	return n.doClose(ctx)
}

// Remove deletes the stored item. In-memory state is left untouched.
func (n *Namespace) Remove(ctx context.Context) error {
	if err := n.b.store.Delete(ctx, n.key()); err != nil {
		return fmt.Errorf("ddbsession: remove %q: %w", n.id, err)
	}
	n.b.hooks.Removed(n.id)
	return nil
}

func (n *Namespace) doOpen(ctx context.Context, mode Mode) error {
	if !mode.valid() {
		return fmt.Errorf("ddbsession: invalid open mode %s", mode)
	}
	if n.id == "" {
		return ErrEmptyID
	}
	n.mode = mode
	if n.item != nil {
		return nil
	}

	it, err := n.b.store.Fetch(ctx, n.key())
	switch {
	case errors.Is(err, store.ErrNotFound):
		it = store.Item{n.b.hashKey: n.id}
		n.b.hooks.RecordCreated(n.id)
	case err != nil:
		n.mode = ModeNone
		return fmt.Errorf("ddbsession: fetch %q: %w", n.id, err)
	}
	n.item = it
	n.orig = util.CloneItem(it)
	return nil
}

func (n *Namespace) doClose(ctx context.Context) error {
	mode, item, orig := n.mode, n.item, n.orig
	n.mode, n.item, n.orig = ModeNone, nil, nil

	if !mode.writes() || item == nil {
		return nil
	}
	changes := diff(n.b.hashKey, orig, item)
	if len(changes) == 0 {
		return nil
	}
	names := store.ChangeNames(changes)

	err := n.b.store.SavePartial(ctx, n.key(), changes)
	switch {
	case err == nil:
		n.b.hooks.Flushed(n.id, names)
		return nil
	case errors.Is(err, store.ErrConflict):
		if len(names) == 1 && names[0] == n.b.accessedAttr {
			n.b.log.Debug("conflict on housekeeping-only save ignored", Fields{"attr": names[0]})
			n.b.hooks.ConflictSuppressed(n.id, names)
			return nil
		}
		n.b.log.Warn("conditional save conflict", Fields{"changed": names})
		n.b.hooks.ConflictRaised(n.id, names)
		return &ConflictError{Namespace: n.id, Changed: names, Err: err}
	default:
		return fmt.Errorf("ddbsession: save %q: %w", n.id, err)
	}
}

// diff lists attribute changes from orig to cur, sorted by name.
// The hash-key attribute is never written.
func diff(hashKey string, orig, cur store.Item) []store.Change {
	var out []store.Change
	for name, v := range cur {
		if name == hashKey {
			continue
		}
		old, existed := orig[name]
		if existed && util.Equal(old, v) {
			continue
		}
		out = append(out, store.Change{Name: name, Value: v, Expected: old, Existed: existed})
	}
	for name, old := range orig {
		if name == hashKey {
			continue
		}
		if _, ok := cur[name]; !ok {
			out = append(out, store.Change{Name: name, Delete: true, Expected: old, Existed: true})
		}
	}
	slices.SortFunc(out, func(a, b store.Change) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Get returns the attribute named key. "session" with no such attribute
// returns the live item mapping once it holds more than the hash key;
// edits made through it are flushed by Close like any other change.
func (n *Namespace) Get(key string) (any, bool) {
	if v, ok := n.item[key]; ok {
		return v, true
	}
	if key == SessionKey && len(n.item) > 1 {
		return map[string]any(n.item), true
	}
	return nil, false
}

// Set is SetValue without expiry.
func (n *Namespace) Set(key string, value any) error {
	return n.SetValue(key, value, 0)
}

// SetValue sets an attribute. A string-keyed map stored under "session" is
// merged into the item instead. expiry is accepted and ignored.
func (n *Namespace) SetValue(key string, value any, expiry time.Duration) error {
	if n.item == nil {
		return ErrNotOpen
	}
	if key == SessionKey {
		switch m := value.(type) {
		case map[string]any:
			maps.Copy(n.item, m)
			return nil
		case store.Item:
			maps.Copy(n.item, m)
			return nil
		}
		if rv := reflect.ValueOf(value); rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
			iter := rv.MapRange()
			for iter.Next() {
				n.item[iter.Key().String()] = iter.Value().Interface()
			}
			return nil
		}
	}
	n.item[key] = value
	return nil
}

// Contains reports attribute presence. "session" is always present.
func (n *Namespace) Contains(key string) bool {
	if key == SessionKey {
		return true
	}
	_, ok := n.item[key]
	return ok
}

// Delete removes an attribute. "session", when not a literal attribute,
// removes everything except the hash key.
func (n *Namespace) Delete(key string) error {
	if n.item == nil {
		return ErrNotOpen
	}
	if _, ok := n.item[key]; ok {
		delete(n.item, key)
		return nil
	}
	if key == SessionKey {
		for k := range n.item {
			if k != n.b.hashKey {
				delete(n.item, k)
			}
		}
	}
	return nil
}

// Keys returns the item's attribute names, sorted.
func (n *Namespace) Keys() []string {
	return slices.Sorted(maps.Keys(n.item))
}

// CreationLock returns the lock guarding creation of key. It is a no-op.
func (n *Namespace) CreationLock(key string) Synchronizer { return NullSynchronizer{} }

// AccessLock returns the lock guarding the namespace. It is a no-op.
func (n *Namespace) AccessLock() Synchronizer { return NullSynchronizer{} }

// AcquireReadLock takes the access lock and opens for reading. Nested
// acquisitions share one open item; it is closed when the last one releases.
func (n *Namespace) AcquireReadLock(ctx context.Context) error {
	lk := n.AccessLock()
	if err := lk.AcquireReadLock(ctx); err != nil {
		return err
	}
	if err := n.openCounted(ctx, ModeRead); err != nil {
		lk.ReleaseReadLock()
		return err
	}
	return nil
}

// ReleaseReadLock undoes one AcquireReadLock, closing the item on the last
// release. Read-mode closes never write.
func (n *Namespace) ReleaseReadLock(ctx context.Context) error {
	defer n.AccessLock().ReleaseReadLock()
	return n.closeCounted(ctx)
}

// AcquireWriteLock takes the access lock and opens in create mode.
// With wait=false it reports whether the lock was obtained.
func (n *Namespace) AcquireWriteLock(ctx context.Context, wait, replace bool) (bool, error) {
	lk := n.AccessLock()
	ok, err := lk.AcquireWriteLock(ctx, wait)
	if err != nil {
		return false, err
	}
	if wait || ok {
		if err := n.openCounted(ctx, ModeCreate); err != nil {
			lk.ReleaseWriteLock()
			return false, err
		}
	}
	return ok, nil
}

// ReleaseWriteLock undoes one successful AcquireWriteLock. The last release
// flushes changes and may return a *ConflictError.
func (n *Namespace) ReleaseWriteLock(ctx context.Context) error {
	defer n.AccessLock().ReleaseWriteLock()
	return n.closeCounted(ctx)
}

func (n *Namespace) openCounted(ctx context.Context, mode Mode) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.openers == 0 {
		if err := n.doOpen(ctx, mode); err != nil {
			return err
		}
	}
	n.openers++
	return nil
}

func (n *Namespace) closeCounted(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.openers == 0 {
		return nil
	}
	n.openers--
	if n.openers == 0 {
		return n.doClose(ctx)
	}
	return nil
}

package ddbsession

import "context"

// Synchronizer is the lock handle a namespace manager exposes to middleware.
type Synchronizer interface {
	AcquireReadLock(ctx context.Context) error
	ReleaseReadLock()
	// AcquireWriteLock returns false only when wait is false and the lock is held elsewhere.
	AcquireWriteLock(ctx context.Context, wait bool) (bool, error)
	ReleaseWriteLock()
}

// NullSynchronizer grants every lock immediately and excludes nobody.
type NullSynchronizer struct{}

var _ Synchronizer = NullSynchronizer{}

func (NullSynchronizer) AcquireReadLock(context.Context) error { return nil }
func (NullSynchronizer) ReleaseReadLock()                      {}
func (NullSynchronizer) AcquireWriteLock(context.Context, bool) (bool, error) {
	return true, nil
}
func (NullSynchronizer) ReleaseWriteLock() {}

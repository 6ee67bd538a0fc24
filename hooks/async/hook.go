// Package asynchook runs another ddbsession.Hooks off the request path.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{FlushEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker, queue of 1000 events
//	defer hooks.Close()
//
//	b, _ := ddbsession.New(ddbsession.Options{Store: st, Hooks: hooks})
//
// Events are dropped, not blocked on, when the queue is full.
package asynchook

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/ddbsession"
)

type Hooks struct {
	inner   ddbsession.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards closed against send-on-closed
	closed  bool
	dropped atomic.Uint64
}

var _ ddbsession.Hooks = (*Hooks)(nil)

func New(inner ddbsession.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Later events are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped returns how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

// changed slices are copied; callers may reuse them after the hook returns.

func (h *Hooks) RecordCreated(ns string) { h.try(func() { h.inner.RecordCreated(ns) }) }
func (h *Hooks) Removed(ns string)       { h.try(func() { h.inner.Removed(ns) }) }
func (h *Hooks) Flushed(ns string, changed []string) {
	c := slices.Clone(changed)
	h.try(func() { h.inner.Flushed(ns, c) })
}
func (h *Hooks) ConflictSuppressed(ns string, changed []string) {
	c := slices.Clone(changed)
	h.try(func() { h.inner.ConflictSuppressed(ns, c) })
}
func (h *Hooks) ConflictRaised(ns string, changed []string) {
	c := slices.Clone(changed)
	h.try(func() { h.inner.ConflictRaised(ns, c) })
}

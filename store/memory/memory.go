// Package memory is an in-process store.Store with the same conditional
// partial-save semantics as the DynamoDB store. Useful for tests and single
// process deployments.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/unkn0wn-root/ddbsession/internal/util"
	"github.com/unkn0wn-root/ddbsession/store"
)

type entry struct {
	item      store.Item
	updatedAt time.Time
}

// Store keeps items in a map guarded by one RWMutex.
// With a positive idle timeout a sweeper drops items not written for that long.
type Store struct {
	mu    sync.RWMutex
	items map[store.Key]entry

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	idle time.Duration
	now  func() time.Time
}

var _ store.Store = (*Store)(nil)

// New returns an empty Store without sweeping.
func New() *Store {
	return &Store{items: make(map[store.Key]entry), now: time.Now}
}

// NewWithExpiry returns a Store that, every sweepInterval, drops items idle longer than idle.
func NewWithExpiry(sweepInterval, idle time.Duration) *Store {
	s := New()
	s.idle = idle
	if sweepInterval > 0 && idle > 0 {
		s.ticker = time.NewTicker(sweepInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.Sweep(idle)
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *Store) Fetch(_ context.Context, key store.Key) (store.Item, error) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	return util.CloneItem(e.item), nil
}

func (s *Store) SavePartial(_ context.Context, key store.Key, changes []store.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.items[key]
	for _, c := range changes {
		cur, ok := e.item[c.Name]
		if c.Existed != ok || (ok && !util.Equal(cur, c.Expected)) {
			return fmt.Errorf("%w: attribute %q", store.ErrConflict, c.Name)
		}
	}

	if !exists {
		e.item = store.Item{key.Name: key.Value}
	}
	for _, c := range changes {
		if c.Delete {
			delete(e.item, c.Name)
			continue
		}
		e.item[c.Name] = util.CloneValue(c.Value)
	}
	e.updatedAt = s.now()
	s.items[key] = e
	return nil
}

func (s *Store) Delete(_ context.Context, key store.Key) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Sweep drops items not written within idle.
func (s *Store) Sweep(idle time.Duration) {
	if idle <= 0 {
		return
	}
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	for k, e := range s.items {
		if e.updatedAt.Before(cutoff) {
			delete(s.items, k)
		}
	}
	s.mu.Unlock()
}

// Close stops the sweeper. Safe to call multiple times.
func (s *Store) Close(_ context.Context) error {
	s.once.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			s.ticker.Stop()
			s.wg.Wait()
		}
	})
	return nil
}

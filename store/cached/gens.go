package cached

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// GenStore abstracts where record generations live.
// Use LocalGens (default) for in-process generations, or RedisGens when
// several processes share one cache provider.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, key string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, key string) (uint64, error)
	// Cleanup prunes old metadata if applicable.
	Cleanup(retention time.Duration)
	Close(context.Context) error
}

type localGen struct {
	gen       uint64
	updatedAt time.Time
}

// LocalGens keeps generations in-process, with an optional loop that prunes
// entries not bumped within retention.
type LocalGens struct {
	mu     sync.RWMutex
	gens   map[string]localGen
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var _ GenStore = (*LocalGens)(nil)

func NewLocalGens(cleanupInterval, retention time.Duration) *LocalGens {
	s := &LocalGens{gens: make(map[string]localGen)}
	if cleanupInterval > 0 && retention > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.Cleanup(retention)
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *LocalGens) Snapshot(_ context.Context, k string) (uint64, error) {
	s.mu.RLock()
	e := s.gens[k]
	s.mu.RUnlock()
	return e.gen, nil
}

func (s *LocalGens) Bump(_ context.Context, k string) (uint64, error) {
	now := time.Now()
	s.mu.Lock()
	e := s.gens[k]
	e.gen++
	e.updatedAt = now
	s.gens[k] = e
	s.mu.Unlock()
	return e.gen, nil
}

// Cleanup drops generations not bumped within retention. A pruned key reads
// as gen 0 again; any cached entry still tagged with an older gen stays
// rejected because that gen was >= 1.
func (s *LocalGens) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	for k, e := range s.gens {
		if e.updatedAt.Before(cutoff) {
			delete(s.gens, k)
		}
	}
	s.mu.Unlock()
}

func (s *LocalGens) Close(context.Context) error {
	s.once.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			s.ticker.Stop()
			s.wg.Wait()
		}
	})
	return nil
}

// RedisGens shares generations across processes. With a TTL, idle generation
// keys expire; readers then observe gen 0 and re-fill from the store.
type RedisGens struct {
	rdb redis.UniversalClient
	ns  string
	ttl time.Duration
}

var _ GenStore = (*RedisGens)(nil)

// NewRedisGens creates Redis-backed generations. ttl <= 0 disables expiry.
// The client is not closed by Close.
func NewRedisGens(client redis.UniversalClient, namespace string, ttl time.Duration) *RedisGens {
	return &RedisGens{rdb: client, ns: namespace, ttl: ttl}
}

func (s *RedisGens) key(k string) string { return "gen:" + s.ns + ":" + k }

func (s *RedisGens) Snapshot(ctx context.Context, k string) (uint64, error) {
	res, err := s.rdb.Get(ctx, s.key(k)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis gen parse: %w", err)
	}
	return u, nil
}

// Bump increments the generation; with a TTL, INCR and EXPIRE share one round trip.
func (s *RedisGens) Bump(ctx context.Context, k string) (uint64, error) {
	rk := s.key(k)
	if s.ttl <= 0 {
		v, err := s.rdb.Incr(ctx, rk).Result()
		if err != nil {
			return 0, err
		}
		return uint64(v), nil
	}

	var incr *redis.IntCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, rk)
		p.Expire(ctx, rk, s.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return uint64(incr.Val()), nil
}

func (s *RedisGens) Cleanup(time.Duration) {}

func (s *RedisGens) Close(context.Context) error { return nil }

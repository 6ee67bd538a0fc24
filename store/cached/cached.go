// Package cached is a read-through store.Store decorator.
//
// Fetched items are kept in a provider.Provider, tagged with the record's
// generation as observed before the read. Every SavePartial and Delete bumps
// the generation and drops the entry, so a Fetch that raced a write can never
// install or serve a stale copy: entries whose generation is no longer current
// are treated as misses and removed.
package cached

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/ddbsession"
	"github.com/unkn0wn-root/ddbsession/codec"
	"github.com/unkn0wn-root/ddbsession/internal/util"
	"github.com/unkn0wn-root/ddbsession/internal/wire"
	"github.com/unkn0wn-root/ddbsession/provider"
	"github.com/unkn0wn-root/ddbsession/store"
)

const (
	defaultTTL          = 10 * time.Minute
	defaultSweep        = time.Hour
	defaultGenRetention = 30 * 24 * time.Hour
)

// SetCostFunc returns the cost passed to Provider.Set.
type SetCostFunc func(key string, raw []byte) int64

// Options tune the cache. Next and Provider are required.
type Options struct {
	Next     store.Store
	Provider provider.Provider

	Namespace       string                      // key prefix; "" => "ddbsession"
	Codec           codec.Codec[map[string]any] // nil => Msgpack
	TTL             time.Duration               // entry lifetime, also enforced on read; 0 => 10m
	GenStore        GenStore                    // nil => LocalGens
	CleanupInterval time.Duration               // LocalGens sweep; 0 => 1h
	GenRetention    time.Duration               // LocalGens retention; 0 => 30d
	ComputeSetCost  SetCostFunc                 // nil => len(raw)
	Logger          ddbsession.Logger           // nil => NopLogger
}

// Stats are cumulative counters.
type Stats struct {
	Hits, Misses, Stale uint64
}

type Store struct {
	next   store.Store
	prov   provider.Provider
	codec  codec.Codec[map[string]any]
	gens   GenStore
	ns     string
	ttl    time.Duration
	cost   SetCostFunc
	log    ddbsession.Logger
	now    func() time.Time
	hits   atomic.Uint64
	misses atomic.Uint64
	stale  atomic.Uint64
}

var _ store.Store = (*Store)(nil)

func New(opts Options) (*Store, error) {
	if opts.Next == nil {
		return nil, fmt.Errorf("cached: next store is required")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("cached: provider is required")
	}
	s := &Store{
		next:  opts.Next,
		prov:  opts.Provider,
		codec: opts.Codec,
		gens:  opts.GenStore,
		ns:    opts.Namespace,
		ttl:   opts.TTL,
		cost:  opts.ComputeSetCost,
		log:   opts.Logger,
		now:   time.Now,
	}
	if s.codec == nil {
		s.codec = codec.Msgpack[map[string]any]{}
	}
	if s.gens == nil {
		sweep, retention := opts.CleanupInterval, opts.GenRetention
		if sweep <= 0 {
			sweep = defaultSweep
		}
		if retention <= 0 {
			retention = defaultGenRetention
		}
		s.gens = NewLocalGens(sweep, retention)
	}
	if s.ns == "" {
		s.ns = "ddbsession"
	}
	if s.ttl <= 0 {
		s.ttl = defaultTTL
	}
	if s.cost == nil {
		s.cost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}
	if s.log == nil {
		s.log = ddbsession.NopLogger{}
	}
	return s, nil
}

func (s *Store) entryKey(k store.Key) string { return util.RecordKey("rec:"+s.ns, k) }

// Stats returns a snapshot of the hit/miss counters.
func (s *Store) Stats() Stats {
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load(), Stale: s.stale.Load()}
}

func (s *Store) Fetch(ctx context.Context, key store.Key) (store.Item, error) {
	k := s.entryKey(key)
	gen, err := s.gens.Snapshot(ctx, k)
	if err != nil {
		// without a generation nothing can be validated; bypass the cache
		s.log.Warn("generation snapshot failed", ddbsession.Fields{"err": err})
		return s.next.Fetch(ctx, key)
	}

	if it, ok := s.lookup(ctx, k, gen); ok {
		s.hits.Add(1)
		return it, nil
	}
	s.misses.Add(1)

	it, err := s.next.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, k, gen, it)
	return it, nil
}

func (s *Store) lookup(ctx context.Context, k string, gen uint64) (store.Item, bool) {
	raw, ok, err := s.prov.Get(ctx, k)
	if err != nil || !ok {
		return nil, false
	}
	rec, err := wire.DecodeRecord(raw)
	if err != nil {
		_ = s.prov.Del(ctx, k) // self-heal corrupt
		return nil, false
	}
	if rec.Gen != gen || s.now().Sub(rec.Fetched) > s.ttl {
		s.stale.Add(1)
		_ = s.prov.Del(ctx, k)
		return nil, false
	}
	m, err := s.codec.Decode(rec.Payload)
	if err != nil {
		_ = s.prov.Del(ctx, k)
		return nil, false
	}
	return store.Item(m), true
}

// fill caches it under the generation observed before the read, unless a
// write moved the generation meanwhile.
func (s *Store) fill(ctx context.Context, k string, observed uint64, it store.Item) {
	payload, err := s.codec.Encode(map[string]any(it))
	if err != nil {
		s.log.Debug("cache fill skipped (encode)", ddbsession.Fields{"err": err})
		return
	}
	if cur, err := s.gens.Snapshot(ctx, k); err != nil || cur != observed {
		s.log.Debug("cache fill skipped (gen moved)", ddbsession.Fields{"obs": observed})
		return
	}
	wb := wire.EncodeRecord(observed, s.now(), payload)
	ok, err := s.prov.Set(ctx, k, wb, s.cost(k, wb), s.ttl)
	if err != nil {
		s.log.Warn("cache fill failed", ddbsession.Fields{"err": err})
		return
	}
	if !ok {
		s.log.Debug("cache fill rejected by provider (pressure)", nil)
	}
}

// SavePartial writes through and invalidates, also when the write failed:
// a conflict means the cached copy is already out of date.
func (s *Store) SavePartial(ctx context.Context, key store.Key, changes []store.Change) error {
	err := s.next.SavePartial(ctx, key, changes)
	if len(changes) > 0 {
		s.invalidate(ctx, key)
	}
	return err
}

func (s *Store) Delete(ctx context.Context, key store.Key) error {
	err := s.next.Delete(ctx, key)
	s.invalidate(ctx, key)
	return err
}

func (s *Store) invalidate(ctx context.Context, key store.Key) {
	k := s.entryKey(key)
	gen, err := s.gens.Bump(ctx, k)
	if err != nil {
		s.log.Error("generation bump failed", ddbsession.Fields{"err": err})
	}
	if err := s.prov.Del(ctx, k); err != nil {
		s.log.Warn("cache delete failed", ddbsession.Fields{"err": err})
	}
	s.log.Debug("invalidated record", ddbsession.Fields{"newGen": gen})
}

// Close closes the generation store, the provider and the next store.
func (s *Store) Close(ctx context.Context) error {
	var first error
	for _, fn := range []func(context.Context) error{s.gens.Close, s.prov.Close, s.next.Close} {
		if err := fn(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

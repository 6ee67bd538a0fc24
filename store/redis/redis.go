// Package redis is a store.Store keeping each item in one Redis hash.
//
// Hash fields are attribute names; field values are encoded with a
// codec.Codec[any] (Msgpack by default). SavePartial runs WATCH, checks every
// expectation against the current fields and applies HSET/HDEL in MULTI/EXEC,
// so a concurrent writer either fails an expectation or aborts the transaction.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/ddbsession/codec"
	"github.com/unkn0wn-root/ddbsession/internal/util"
	"github.com/unkn0wn-root/ddbsession/store"
)

const defaultPrefix = "ddbsession"

var ErrNilClient = errors.New("redis store: nil client")

type Store struct {
	rdb         goredis.UniversalClient
	closeClient bool
	prefix      string
	ttl         time.Duration
	codec       codec.Codec[any]
}

var _ store.Store = (*Store)(nil)

type Option func(*Store)

// WithPrefix sets the key prefix (default "ddbsession").
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL makes every successful save refresh the record's expiry.
// Zero (the default) keeps records until deleted.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithCodec sets the field value codec.
func WithCodec(c codec.Codec[any]) Option {
	return func(s *Store) { s.codec = c }
}

// New dials addr and owns the resulting client.
func New(addr, password string, db int, opts ...Option) *Store {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	s := newStore(rdb, opts)
	s.closeClient = true
	return s
}

// NewFromClient wraps an existing client; Close leaves it open.
func NewFromClient(client goredis.UniversalClient, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return newStore(client, opts), nil
}

func newStore(rdb goredis.UniversalClient, opts []Option) *Store {
	s := &Store{rdb: rdb, prefix: defaultPrefix, codec: codec.Msgpack[any]{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) key(k store.Key) string { return util.RecordKey(s.prefix, k) }

func (s *Store) Fetch(ctx context.Context, key store.Key) (store.Item, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis store: HGETALL: %w", err)
	}
	if len(fields) == 0 {
		return nil, store.ErrNotFound
	}
	it := make(store.Item, len(fields))
	for name, raw := range fields {
		v, err := s.codec.Decode([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("redis store: decode %q: %w", name, err)
		}
		it[name] = v
	}
	return it, nil
}

func (s *Store) SavePartial(ctx context.Context, key store.Key, changes []store.Change) error {
	if len(changes) == 0 {
		return nil
	}
	rk := s.key(key)

	// field 0 is the hash key; its presence tells whether the record exists
	names := make([]string, 0, len(changes)+1)
	names = append(names, key.Name)
	names = append(names, store.ChangeNames(changes)...)

	enc := make([]any, len(changes))
	for i, c := range changes {
		if c.Delete {
			continue
		}
		b, err := s.codec.Encode(c.Value)
		if err != nil {
			return fmt.Errorf("redis store: encode %q: %w", c.Name, err)
		}
		enc[i] = b
	}
	idVal, err := s.codec.Encode(key.Value)
	if err != nil {
		return fmt.Errorf("redis store: encode key: %w", err)
	}

	err = s.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		cur, err := tx.HMGet(ctx, rk, names...).Result()
		if err != nil {
			return err
		}
		for i, c := range changes {
			if err := s.check(c, cur[i+1]); err != nil {
				return err
			}
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			if cur[0] == nil {
				p.HSet(ctx, rk, key.Name, idVal)
			}
			var set []any
			var del []string
			for i, c := range changes {
				if c.Delete {
					del = append(del, c.Name)
				} else {
					set = append(set, c.Name, enc[i])
				}
			}
			if len(set) > 0 {
				p.HSet(ctx, rk, set...)
			}
			if len(del) > 0 {
				p.HDel(ctx, rk, del...)
			}
			if s.ttl > 0 {
				p.Expire(ctx, rk, s.ttl)
			}
			return nil
		})
		return err
	}, rk)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrConflict):
		return err
	case errors.Is(err, goredis.TxFailedErr):
		return fmt.Errorf("%w: record modified during save", store.ErrConflict)
	default:
		return fmt.Errorf("redis store: save: %w", err)
	}
}

// check compares the raw current field (nil when absent) against c's expectation.
func (s *Store) check(c store.Change, raw any) error {
	if raw == nil {
		if c.Existed {
			return fmt.Errorf("%w: attribute %q", store.ErrConflict, c.Name)
		}
		return nil
	}
	if !c.Existed {
		return fmt.Errorf("%w: attribute %q", store.ErrConflict, c.Name)
	}
	str, ok := raw.(string)
	if !ok {
		return fmt.Errorf("redis store: unexpected field type %T", raw)
	}
	have, err := s.codec.Decode([]byte(str))
	if err != nil {
		return fmt.Errorf("redis store: decode %q: %w", c.Name, err)
	}
	// round-trip the expectation so both sides carry the codec's types
	b, err := s.codec.Encode(c.Expected)
	if err != nil {
		return fmt.Errorf("redis store: encode %q: %w", c.Name, err)
	}
	want, err := s.codec.Decode(b)
	if err != nil {
		return fmt.Errorf("redis store: decode %q: %w", c.Name, err)
	}
	if !util.Equal(have, want) {
		return fmt.Errorf("%w: attribute %q", store.ErrConflict, c.Name)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key store.Key) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis store: DEL: %w", err)
	}
	return nil
}

// Close releases the client only when the store owns it.
func (s *Store) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

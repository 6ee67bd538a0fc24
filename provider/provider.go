// Package provider defines the byte cache used by store/cached.
//
// A Provider must return from Get exactly the bytes passed to Set: no added
// metadata, no re-encoding. store/cached frames its own entries (see
// internal/wire) and treats anything else under its "rec:" keys as corrupt.
package provider

import (
	"context"
	"time"
)

// Provider is a byte store with TTLs, safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl (<= 0 means the provider default). cost may be
	// ignored. ok=false means the write was dropped under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes key; a missing key is not an error.
	Del(ctx context.Context, key string) error

	Close(ctx context.Context) error
}

package ddbsession

import (
	"context"
	"fmt"

	"github.com/unkn0wn-root/ddbsession/store"
)

const (
	// DefaultHashKey is the hash-key attribute used when Options.HashKey is empty.
	DefaultHashKey = "id"
	// DefaultAccessedTimeAttr is the housekeeping attribute refreshed on every access.
	DefaultAccessedTimeAttr = "_accessed_time"
	// SessionKey is the key that aliases the whole item in Get/Set/Delete/Contains.
	SessionKey = "session"
)

// Mode is the access mode passed to Open.
type Mode byte

const (
	ModeNone   Mode = 0
	ModeRead   Mode = 'r'
	ModeCreate Mode = 'c'
	ModeWrite  Mode = 'w'
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "closed"
	case ModeRead, ModeCreate, ModeWrite:
		return string(rune(m))
	default:
		return fmt.Sprintf("Mode(%d)", byte(m))
	}
}

func (m Mode) valid() bool { return m == ModeRead || m == ModeCreate || m == ModeWrite }

// writes reports whether Close persists in this mode.
func (m Mode) writes() bool { return m == ModeCreate || m == ModeWrite }

// Options configure a Backend. Only Store is required.
type Options struct {
	// Required
	Store store.Store

	HashKey          string // attribute holding the namespace id; "" => "id"
	AccessedTimeAttr string // housekeeping attribute; "" => "_accessed_time"
	Logger           Logger // nil => NopLogger
	Hooks            Hooks  // nil => NopHooks
}

// Backend hands out Namespace adapters bound to one Store.
// It is safe for concurrent use; the Namespaces it returns are not.
type Backend struct {
	store        store.Store
	hashKey      string
	accessedAttr string
	log          Logger
	hooks        Hooks
}

func New(opts Options) (*Backend, error) {
	if opts.Store == nil {
		return nil, ErrStoreRequired
	}
	return &Backend{
		store:        opts.Store,
		hashKey:      coalesce(opts.HashKey, DefaultHashKey),
		accessedAttr: coalesce(opts.AccessedTimeAttr, DefaultAccessedTimeAttr),
		log:          coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:        coalesce[Hooks](opts.Hooks, NopHooks{}),
	}, nil
}

// coalesce picks the configured option, or def when it was left unset.
func coalesce[T comparable](opt, def T) T {
	var unset T
	if opt == unset {
		return def
	}
	return opt
}

// Namespace returns a fresh, closed adapter for id.
func (b *Backend) Namespace(id string) *Namespace {
	return &Namespace{b: b, id: id}
}

// HashKey returns the configured hash-key attribute name.
func (b *Backend) HashKey() string { return b.hashKey }

// Close closes the underlying Store.
func (b *Backend) Close(ctx context.Context) error {
	return b.store.Close(ctx)
}

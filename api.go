package speccache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/speccache/codec"
	gen "github.com/unkn0wn-root/speccache/genstore"
	pr "github.com/unkn0wn-root/speccache/provider"
)

// ComputeFunc produces the value for a key on a miss. The context it receives
// is detached from the caller's cancellation.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// SetCostFunc reports the provider cost of an encoded entry.
type SetCostFunc func(key string, raw []byte) int64

// Result is delivered on the channel returned by GetOrCreateAsync.
type Result[V any] struct {
	Value V
	Err   error
}

// Cache is the provider-agnostic TTL cache with per-key single-flight.
// V is the caller's value type. Serialization is handled by a pluggable Codec[V].
type Cache[V any] interface {
	Enabled() bool
	Close(context.Context) error

	// Add stores value without expiry.
	Add(ctx context.Context, key string, value V) error
	Get(ctx context.Context, key string) (v V, ok bool, err error)
	Remove(ctx context.Context, key string) error

	// GetOrCreate returns the cached value or computes, stores and returns it.
	// ttl <= 0 uses Options.DefaultTTL. The call blocks until the shared
	// flight finishes or ctx is done.
	GetOrCreate(ctx context.Context, key string, compute ComputeFunc[V], ttl time.Duration) (V, error)

	// GetOrCreateAsync is GetOrCreate without blocking. The channel receives
	// exactly one Result and is then closed. Abandoning ctx delivers ctx.Err()
	// to this caller only; the flight keeps running for the others.
	GetOrCreateAsync(ctx context.Context, key string, compute ComputeFunc[V], ttl time.Duration) <-chan Result[V]

	// Invalidate makes every entry of the namespace stale.
	Invalidate(ctx context.Context) error
}

// Options tune the behavior of the cache.
// Namespace, Provider and Codec are required; others have sensible defaults.
type Options[V any] struct {
	// Required
	Namespace string // logical namespace to avoid collisions. e.g. "orders", "orders:count"
	Provider  pr.Provider
	Codec     c.Codec[V]

	Logger          Logger           // if nil, NopLogger is used
	Hooks           Hooks            // if nil, NopHooks is used
	DefaultTTL      time.Duration    // 0 => 10m
	CleanupInterval time.Duration    // local genstore only; 0 => 1h
	GenRetention    time.Duration    // local genstore only; 0 => 30d
	GenStore        gen.GenStore     // nil => LocalGenStore (in-process)
	ComputeSetCost  SetCostFunc      // default 1
	Now             func() time.Time // nil => time.Now
	Disabled        bool             // compute on every call, store nothing
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}

package speccache

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/singleflight"

	c "github.com/unkn0wn-root/speccache/codec"
	gen "github.com/unkn0wn-root/speccache/genstore"
	"github.com/unkn0wn-root/speccache/internal/wire"
	pr "github.com/unkn0wn-root/speccache/provider"
)

const (
	defaultTTL          = 10 * time.Minute
	defaultGenRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

type cache[V any] struct {
	ns             string
	nsKey          string
	provider       pr.Provider
	codec          c.Codec[V]
	log            Logger
	hooks          Hooks
	enabled        bool
	defaultTTL     time.Duration
	sweepInterval  time.Duration
	genRetention   time.Duration
	computeSetCost SetCostFunc
	gen            gen.GenStore
	now            func() time.Time

	// one group for sync and async callers; flights are keyed by storage key
	flights singleflight.Group
}

// gens is the pair of generations an entry is valid under.
type gens struct {
	ns  uint64
	key uint64
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("%w: provider is required", ErrInvalidArgument)
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("%w: codec is required", ErrInvalidArgument)
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", ErrInvalidArgument)
	}

	cc := &cache[V]{
		ns:       opts.Namespace,
		nsKey:    "ns:" + opts.Namespace,
		provider: opts.Provider,
		codec:    opts.Codec,
		enabled:  !opts.Disabled,
		now:      opts.Now,
	}

	// defaults
	cc.log = coalesce[Logger](opts.Logger, NopLogger{})
	cc.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	cc.defaultTTL = coalesce[time.Duration](opts.DefaultTTL, defaultTTL)
	cc.sweepInterval = coalesce[time.Duration](opts.CleanupInterval, defaultSweep)
	cc.genRetention = coalesce[time.Duration](opts.GenRetention, defaultGenRetention)
	if cc.now == nil {
		cc.now = time.Now
	}

	if opts.ComputeSetCost != nil {
		cc.computeSetCost = opts.ComputeSetCost
	} else {
		cc.computeSetCost = func(string, []byte) int64 { return 1 }
	}

	if opts.GenStore != nil {
		cc.gen = opts.GenStore
	} else {
		// default to in-process generations with periodic cleanup
		cc.gen = gen.NewLocal(cc.sweepInterval, cc.genRetention)
	}

	return cc, nil
}

func (cc *cache[V]) Enabled() bool { return cc.enabled }

func (cc *cache[V]) Close(ctx context.Context) error {
	// Close gen store first (best effort)
	if cc.gen != nil {
		_ = cc.gen.Close(ctx)
	}
	if cc.provider != nil {
		return cc.provider.Close(ctx)
	}
	return nil
}

func (cc *cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if key == "" {
		return zero, false, ErrInvalidArgument
	}
	if !cc.enabled {
		return zero, false, nil
	}
	v, ok, err := cc.lookup(ctx, cc.entryKey(key))
	if err != nil {
		return zero, false, err
	}
	if ok {
		cc.hooks.Hit(key)
	} else {
		cc.hooks.Miss(key)
	}
	return v, ok, nil
}

func (cc *cache[V]) Add(ctx context.Context, key string, value V) error {
	if key == "" {
		return ErrInvalidArgument
	}
	if !cc.enabled {
		return nil
	}
	k := cc.entryKey(key)
	obs, err := cc.snapshot(ctx, k)
	if err != nil {
		return err
	}
	return cc.store(ctx, k, value, obs, 0)
}

// Remove bumps the key generation and deletes the entry. Either step alone
// is enough to hide the old value, so only a double failure is an error.
func (cc *cache[V]) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidArgument
	}
	if !cc.enabled {
		return nil
	}
	k := cc.entryKey(key)
	newGen, bumpErr := cc.gen.Bump(ctx, k)
	if bumpErr != nil {
		cc.hooks.GenBumpError(k, bumpErr)
	}
	delErr := cc.provider.Del(ctx, k)
	if bumpErr != nil && delErr != nil {
		cc.hooks.RemoveOutage(key, bumpErr, delErr)
		cc.log.Error("remove failed", Fields{"key": key, "bump_err": bumpErr, "del_err": delErr})
		return &RemoveError{Key: key, BumpErr: bumpErr, DelErr: delErr}
	}
	cc.log.Debug("removed key (bumped gen + cleared entry)", Fields{"key": key, "newGen": newGen})
	return nil
}

func (cc *cache[V]) Invalidate(ctx context.Context) error {
	if !cc.enabled {
		return nil
	}
	g, err := cc.gen.Bump(ctx, cc.nsKey)
	if err != nil {
		cc.hooks.GenBumpError(cc.nsKey, err)
		cc.log.Error("namespace gen bump error", Fields{"ns": cc.ns, "err": err})
		return fmt.Errorf("speccache: invalidate %q: %w", cc.ns, err)
	}
	cc.log.Debug("invalidated namespace", Fields{"ns": cc.ns, "newGen": g})
	return nil
}

func (cc *cache[V]) GetOrCreate(ctx context.Context, key string, compute ComputeFunc[V], ttl time.Duration) (V, error) {
	var zero V
	if key == "" || compute == nil {
		return zero, ErrInvalidArgument
	}
	if !cc.enabled {
		return cc.call(ctx, key, compute)
	}

	k := cc.entryKey(key)
	if v, ok := cc.cached(ctx, key, k); ok {
		return v, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := cc.flights.DoChan(k, func() (any, error) {
		return cc.fill(detached, key, k, compute, ttl)
	})
	select {
	case res := <-ch:
		if res.Shared {
			cc.hooks.Coalesced(key)
		}
		v, _ := res.Val.(V)
		return v, res.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (cc *cache[V]) GetOrCreateAsync(ctx context.Context, key string, compute ComputeFunc[V], ttl time.Duration) <-chan Result[V] {
	out := make(chan Result[V], 1)
	go func() {
		defer close(out)
		v, err := cc.GetOrCreate(ctx, key, compute, ttl)
		out <- Result[V]{Value: v, Err: err}
	}()
	return out
}

// cached is the read path of GetOrCreate. Provider errors are logged and
// treated as a miss so a cache outage degrades to computing.
func (cc *cache[V]) cached(ctx context.Context, key, k string) (V, bool) {
	v, ok, err := cc.lookup(ctx, k)
	if err != nil {
		cc.log.Warn("provider get error", Fields{"key": key, "err": err})
	}
	if ok {
		cc.hooks.Hit(key)
		return v, true
	}
	cc.hooks.Miss(key)
	return v, false
}

// fill runs inside a flight. Generations are observed before the store is
// re-checked and before compute, so an Invalidate or Remove that lands while
// computing makes the write a no-op.
func (cc *cache[V]) fill(ctx context.Context, key, k string, compute ComputeFunc[V], ttl time.Duration) (V, error) {
	obs, snapErr := cc.snapshot(ctx, k)
	if snapErr == nil {
		if v, ok, _ := cc.lookup(ctx, k); ok {
			return v, nil
		}
	}

	v, err := cc.call(ctx, key, compute)
	if err != nil {
		return v, err
	}
	if snapErr != nil {
		return v, nil
	}
	if ttl <= 0 {
		ttl = cc.defaultTTL
	}
	if err := cc.store(ctx, k, v, obs, ttl); err != nil {
		cc.log.Warn("store after compute failed", Fields{"key": key, "err": err})
	}
	return v, nil
}

// call runs compute, converting errors and panics into *ComputeError and
// *PanicError.
func (cc *cache[V]) call(ctx context.Context, key string, compute ComputeFunc[V]) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero V
			pe := &PanicError{Key: key, Value: r, Stack: debug.Stack()}
			cc.hooks.ComputeFailed(key, pe)
			cc.log.Error("compute panicked", Fields{"key": key, "panic": r})
			v, err = zero, pe
		}
	}()

	v, err = compute(ctx)
	if err != nil {
		var zero V
		ce := &ComputeError{Key: key, Err: err}
		cc.hooks.ComputeFailed(key, ce)
		cc.log.Debug("compute failed", Fields{"key": key, "err": err})
		return zero, ce
	}
	return v, nil
}

// lookup reads and validates an entry. Corrupt, expired, stale and
// undecodable entries are deleted and reported as a miss.
func (cc *cache[V]) lookup(ctx context.Context, k string) (V, bool, error) {
	var zero V
	raw, ok, err := cc.provider.Get(ctx, k)
	if err != nil || !ok {
		return zero, false, err
	}
	e, err := wire.Decode(raw)
	if err != nil {
		cc.heal(ctx, k, "corrupt")
		return zero, false, nil
	}
	if e.Expired(cc.now().UnixNano()) {
		cc.heal(ctx, k, "expired")
		return zero, false, nil
	}
	cur, err := cc.snapshot(ctx, k)
	if err != nil {
		// cannot validate; do not serve and do not delete
		return zero, false, nil
	}
	if e.NSGen != cur.ns || e.KeyGen != cur.key {
		cc.heal(ctx, k, "gen_mismatch")
		return zero, false, nil
	}
	v, err := cc.codec.Decode(e.Payload)
	if err != nil {
		cc.heal(ctx, k, "value_decode")
		return zero, false, nil
	}
	return v, true, nil
}

// store writes value iff the generations still equal obs. ttl <= 0 stores
// without expiry.
func (cc *cache[V]) store(ctx context.Context, k string, value V, obs gens, ttl time.Duration) error {
	cur, err := cc.snapshot(ctx, k)
	if err != nil {
		return err
	}
	if cur != obs {
		// generation moved; skip stale write
		cc.log.Debug("store skipped (gen mismatch)", Fields{"key": k, "obs": obs.key, "obs_ns": obs.ns})
		return nil
	}
	payload, err := cc.codec.Encode(value)
	if err != nil {
		return err
	}
	var expires int64
	if ttl > 0 {
		expires = cc.now().Add(ttl).UnixNano()
	} else {
		ttl = 0
	}
	raw := wire.Encode(wire.Entry{NSGen: obs.ns, KeyGen: obs.key, Expires: expires, Payload: payload})
	ok, err := cc.provider.Set(ctx, k, raw, cc.computeSetCost(k, raw), ttl)
	if err != nil {
		return err
	}
	if !ok {
		cc.hooks.ProviderSetRejected(k)
		cc.log.Debug("store rejected by provider (pressure)", Fields{"key": k})
	}
	return nil
}

func (cc *cache[V]) heal(ctx context.Context, k, reason string) {
	_ = cc.provider.Del(ctx, k)
	cc.hooks.SelfHeal(k, reason)
	cc.log.Debug("self-heal", Fields{"key": k, "reason": reason})
}

func (cc *cache[V]) snapshot(ctx context.Context, k string) (gens, error) {
	m, err := cc.gen.SnapshotMany(ctx, []string{cc.nsKey, k})
	if err != nil {
		cc.hooks.GenSnapshotError(2, err)
		cc.log.Warn("gen snapshot error", Fields{"key": k, "err": err})
		return gens{}, err
	}
	return gens{ns: m[cc.nsKey], key: m[k]}, nil
}

func (cc *cache[V]) entryKey(userKey string) string {
	// isolate by namespace
	return "entry:" + cc.ns + ":" + userKey
}

// coalesce returns def when v is the zero value.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

package repository

import (
	"context"
	"fmt"

	"github.com/unkn0wn-root/speccache"
	"github.com/unkn0wn-root/speccache/spec"
)

const countPrefix = "count:"

// CachedReader serves List from a cache when the specification asks for it.
// The cache key is the specification's canonical key, so logically equal
// specifications built anywhere in the program share one entry and one
// in-flight computation.
type CachedReader[E any] struct {
	inner  Reader[E]
	lists  speccache.Cache[[]E]
	counts speccache.Cache[int]
}

var _ Reader[struct{}] = (*CachedReader[struct{}])(nil)

type Option[E any] func(*CachedReader[E])

// WithCountCache caches Count results of caching specifications in counts.
func WithCountCache[E any](counts speccache.Cache[int]) Option[E] {
	return func(r *CachedReader[E]) { r.counts = counts }
}

func NewCachedReader[E any](inner Reader[E], lists speccache.Cache[[]E], opts ...Option[E]) *CachedReader[E] {
	r := &CachedReader[E]{inner: inner, lists: lists}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *CachedReader[E]) List(ctx context.Context, s *spec.Spec[E]) ([]E, error) {
	if s == nil || !s.ShouldCache() {
		return r.inner.List(ctx, s)
	}
	key, err := s.Key()
	if err != nil {
		return nil, fmt.Errorf("repository: cache key: %w", err)
	}
	res := <-r.lists.GetOrCreateAsync(ctx, key, func(ctx context.Context) ([]E, error) {
		return r.inner.List(ctx, s)
	}, s.CacheDuration())
	return res.Value, res.Err
}

func (r *CachedReader[E]) Count(ctx context.Context, s *spec.Spec[E]) (int, error) {
	if r.counts == nil || s == nil || !s.ShouldCache() {
		return r.inner.Count(ctx, s)
	}
	key, err := s.Key()
	if err != nil {
		return 0, fmt.Errorf("repository: cache key: %w", err)
	}
	return r.counts.GetOrCreate(ctx, countPrefix+key, func(ctx context.Context) (int, error) {
		return r.inner.Count(ctx, s)
	}, s.CacheDuration())
}

func (r *CachedReader[E]) ListAll(ctx context.Context) ([]E, error) {
	return r.inner.ListAll(ctx)
}

func (r *CachedReader[E]) Single(ctx context.Context, s *spec.Spec[E]) (E, error) {
	return r.inner.Single(ctx, s)
}

func (r *CachedReader[E]) SingleOrDefault(ctx context.Context, s *spec.Spec[E]) (E, bool, error) {
	return r.inner.SingleOrDefault(ctx, s)
}

// Invalidate drops every cached list and count, e.g. after a write.
func (r *CachedReader[E]) Invalidate(ctx context.Context) error {
	if err := r.lists.Invalidate(ctx); err != nil {
		return err
	}
	if r.counts != nil {
		return r.counts.Invalidate(ctx)
	}
	return nil
}

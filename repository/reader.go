// Package repository exposes read operations parameterized by
// specifications, optionally fronted by a cache.
package repository

import (
	"context"
	"errors"

	"github.com/unkn0wn-root/speccache/query"
	"github.com/unkn0wn-root/speccache/spec"
)

var (
	ErrNotFound  = errors.New("repository: no entity matches the specification")
	ErrNotSingle = errors.New("repository: more than one entity matches the specification")
)

// Reader is the read side of a repository for entity type E.
type Reader[E any] interface {
	List(ctx context.Context, s *spec.Spec[E]) ([]E, error)
	ListAll(ctx context.Context) ([]E, error)
	// Single returns the only match, ErrNotFound or ErrNotSingle.
	Single(ctx context.Context, s *spec.Spec[E]) (E, error)
	// SingleOrDefault is Single with a missing match reported as ok=false.
	SingleOrDefault(ctx context.Context, s *spec.Spec[E]) (E, bool, error)
	Count(ctx context.Context, s *spec.Spec[E]) (int, error)
}

// SourceReader runs specifications directly against a data source. Reads
// never register entities with the source's change tracker.
type SourceReader[E any] struct {
	src query.Source[E]
}

var _ Reader[struct{}] = (*SourceReader[struct{}])(nil)

func NewSourceReader[E any](src query.Source[E]) *SourceReader[E] {
	return &SourceReader[E]{src: src}
}

func (r *SourceReader[E]) plan(s *spec.Spec[E]) (query.Query[E], error) {
	if s == nil {
		return nil, query.ErrInvalidArgument
	}
	return query.Plan(s.WithUntracked(), r.src)
}

func (r *SourceReader[E]) List(ctx context.Context, s *spec.Spec[E]) ([]E, error) {
	q, err := r.plan(s)
	if err != nil {
		return nil, err
	}
	return q.List(ctx)
}

func (r *SourceReader[E]) ListAll(ctx context.Context) ([]E, error) {
	if r.src == nil {
		return nil, query.ErrInvalidArgument
	}
	return r.src.Query().AsNoTracking().List(ctx)
}

func (r *SourceReader[E]) Single(ctx context.Context, s *spec.Spec[E]) (E, error) {
	v, ok, err := r.SingleOrDefault(ctx, s)
	if err == nil && !ok {
		err = ErrNotFound
	}
	return v, err
}

func (r *SourceReader[E]) SingleOrDefault(ctx context.Context, s *spec.Spec[E]) (E, bool, error) {
	var zero E
	items, err := r.List(ctx, s)
	if err != nil {
		return zero, false, err
	}
	switch len(items) {
	case 0:
		return zero, false, nil
	case 1:
		return items[0], true, nil
	}
	return zero, false, ErrNotSingle
}

// Count counts the rows the planned query would return, paging included.
func (r *SourceReader[E]) Count(ctx context.Context, s *spec.Spec[E]) (int, error) {
	q, err := r.plan(s)
	if err != nil {
		return 0, err
	}
	return q.Count(ctx)
}

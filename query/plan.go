package query

import (
	"fmt"

	"github.com/unkn0wn-root/speccache/expr"
	"github.com/unkn0wn-root/speccache/spec"
)

// Plan applies s to a fresh query from src, in this order: filter, typed
// includes, path includes, ordering, tracking mode, skip and take.
//
// Paging without an explicit order is ordered by the primary key ascending,
// so pages are reproducible. A Take of 0 leaves the result unbounded.
func Plan[E any](s *spec.Spec[E], src Source[E]) (Query[E], error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil specification", ErrInvalidArgument)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}
	q := src.Query()
	if q == nil {
		return nil, fmt.Errorf("%w: source returned a nil query", ErrInvalidArgument)
	}

	if c := s.Criteria(); c != nil {
		q = q.Where(c)
	}
	for _, inc := range s.Includes() {
		q = q.Include(inc)
	}
	for _, p := range s.IncludeStrings() {
		q = q.IncludePath(p)
	}

	switch {
	case s.OrderBy() != nil:
		q = q.OrderBy(s.OrderBy(), s.Ascending())
	case s.Paging():
		pk := src.PrimaryKey()
		if pk == "" {
			pk = spec.PrimaryKey[E]()
		}
		q = q.OrderBy(expr.Member("e", pk), true)
	}

	if s.Untracked() {
		q = q.AsNoTracking()
	}
	if s.Paging() {
		q = q.Skip(s.Skip())
		if s.Take() > 0 {
			q = q.Take(s.Take())
		}
	}
	return q, nil
}

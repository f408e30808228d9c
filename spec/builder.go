package spec

import (
	"time"

	"github.com/unkn0wn-root/speccache/expr"
)

// Builder configures a Spec. A Builder must not be used after Build.
type Builder[E any] struct {
	s Spec[E]
}

// For starts a specification over E.
func For[E any]() *Builder[E] { return &Builder[E]{} }

// Where adds a filter. Several filters are combined with &&.
func (b *Builder[E]) Where(l *expr.Lambda) *Builder[E] {
	b.s.criteria = expr.Conjoin(b.s.criteria, l)
	return b
}

// Include asks the source to load the related data selected by l, e.g.
// expr.Member("o", "Customer").
func (b *Builder[E]) Include(l *expr.Lambda) *Builder[E] {
	if l != nil {
		b.s.includes = append(b.s.includes, l)
	}
	return b
}

// IncludePath is Include with a dotted path string.
func (b *Builder[E]) IncludePath(path string) *Builder[E] {
	if path != "" {
		b.s.includeStrings = append(b.s.includeStrings, path)
	}
	return b
}

func (b *Builder[E]) OrderBy(l *expr.Lambda) *Builder[E] {
	b.s.orderBy, b.s.descending = l, false
	return b
}

func (b *Builder[E]) OrderByDescending(l *expr.Lambda) *Builder[E] {
	b.s.orderBy, b.s.descending = l, true
	return b
}

// Page enables paging. Negative bounds are treated as 0; a take of 0 means
// no limit.
func (b *Builder[E]) Page(skip, take int) *Builder[E] {
	b.s.skip, b.s.take, b.s.paging = max(skip, 0), max(take, 0), true
	return b
}

func (b *Builder[E]) Untracked() *Builder[E] {
	b.s.untracked = true
	return b
}

// Cached enables caching for d. d <= 0 means DefaultCacheDuration.
func (b *Builder[E]) Cached(d time.Duration) *Builder[E] {
	if d <= 0 {
		d = DefaultCacheDuration
	}
	b.s.cache, b.s.cacheDuration = true, d
	return b
}

// Build returns the immutable Spec.
func (b *Builder[E]) Build() *Spec[E] {
	s := b.s
	s.includes = append([]*expr.Lambda(nil), b.s.includes...)
	s.includeStrings = append([]string(nil), b.s.includeStrings...)
	return &s
}

// ByID matches the entity whose primary key equals id.
func ByID[E any](id any) *Spec[E] {
	pk := PrimaryKey[E]()
	return For[E]().Where(expr.NewLambda("e", func(e expr.Ref) expr.Operand {
		return e.Field(pk).Eq(id)
	})).Build()
}

// ByIDs matches entities whose primary key is one of ids, which must be a
// slice.
func ByIDs[E any](ids any) *Spec[E] {
	pk := PrimaryKey[E]()
	return For[E]().Where(expr.NewLambda("e", func(e expr.Ref) expr.Operand {
		return expr.In(e.Field(pk), expr.CaptureValue("ids", ids))
	})).Build()
}

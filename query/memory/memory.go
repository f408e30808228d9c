// Package memory is an in-process query.Source over a slice of entities.
// Predicates are evaluated with expr.Eval.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/speccache/expr"
	"github.com/unkn0wn-root/speccache/query"
	"github.com/unkn0wn-root/speccache/spec"
)

// Loader fills the related data named by an include path into items.
type Loader[E any] func(ctx context.Context, items []E) error

type Option[E any] func(*Source[E])

// WithRelation registers the loader for an include path such as "Customer".
func WithRelation[E any](path string, l Loader[E]) Option[E] {
	return func(s *Source[E]) { s.relations[path] = l }
}

func WithPrimaryKey[E any](field string) Option[E] {
	return func(s *Source[E]) { s.pk = field }
}

type Source[E any] struct {
	mu        sync.RWMutex
	items     []E
	pk        string
	relations map[string]Loader[E]
	tracker   *query.Tracker[E]
	execs     atomic.Int64
}

func New[E any](items []E, opts ...Option[E]) *Source[E] {
	s := &Source[E]{
		items:     append([]E(nil), items...),
		pk:        spec.PrimaryKey[E](),
		relations: make(map[string]Loader[E]),
	}
	for _, o := range opts {
		o(s)
	}
	s.tracker = query.NewTracker[E](s.pk)
	return s
}

func (s *Source[E]) Query() query.Query[E] { return &q[E]{src: s, take: -1} }

func (s *Source[E]) PrimaryKey() string { return s.pk }

// Add appends entities.
func (s *Source[E]) Add(items ...E) {
	s.mu.Lock()
	s.items = append(s.items, items...)
	s.mu.Unlock()
}

// Executions counts List and Count calls that reached the data.
func (s *Source[E]) Executions() int64 { return s.execs.Load() }

// Tracker exposes the identity map used by tracked reads.
func (s *Source[E]) Tracker() *query.Tracker[E] { return s.tracker }

type order struct {
	key *expr.Lambda
	asc bool
}

// q is immutable; every stage returns a modified copy.
type q[E any] struct {
	src        *Source[E]
	where      []*expr.Lambda
	includes   []string
	order      *order
	noTracking bool
	skip       int
	take       int // -1: unbounded
	err        error
}

func (x *q[E]) clone() *q[E] {
	c := *x
	c.where = append([]*expr.Lambda(nil), x.where...)
	c.includes = append([]string(nil), x.includes...)
	return &c
}

func (x *q[E]) Where(p *expr.Lambda) query.Query[E] {
	c := x.clone()
	c.where = append(c.where, p)
	return c
}

func (x *q[E]) Include(l *expr.Lambda) query.Query[E] {
	c := x.clone()
	p, err := expr.Path(l)
	if err != nil && c.err == nil {
		c.err = fmt.Errorf("memory: include %s: %w", l, err)
	}
	c.includes = append(c.includes, p)
	return c
}

func (x *q[E]) IncludePath(p string) query.Query[E] {
	c := x.clone()
	c.includes = append(c.includes, p)
	return c
}

func (x *q[E]) OrderBy(k *expr.Lambda, asc bool) query.Query[E] {
	c := x.clone()
	c.order = &order{key: k, asc: asc}
	return c
}

func (x *q[E]) AsNoTracking() query.Query[E] {
	c := x.clone()
	c.noTracking = true
	return c
}

func (x *q[E]) Skip(n int) query.Query[E] {
	c := x.clone()
	if n > 0 {
		c.skip += n
		if c.take >= 0 {
			c.take = max(c.take-n, 0)
		}
	}
	return c
}

func (x *q[E]) Take(n int) query.Query[E] {
	c := x.clone()
	n = max(n, 0)
	if c.take < 0 || n < c.take {
		c.take = n
	}
	return c
}

func (x *q[E]) List(ctx context.Context) ([]E, error) {
	out, err := x.run(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range x.includes {
		load, ok := x.src.relations[p]
		if !ok {
			return nil, fmt.Errorf("%w: %q", query.ErrUnknownInclude, p)
		}
		if err := load(ctx, out); err != nil {
			return nil, fmt.Errorf("memory: include %q: %w", p, err)
		}
	}
	if !x.noTracking {
		for i := range out {
			out[i] = x.src.tracker.Track(out[i])
		}
	}
	return out, nil
}

func (x *q[E]) Count(ctx context.Context) (int, error) {
	out, err := x.run(ctx)
	if err != nil {
		return 0, err
	}
	return len(out), nil
}

func (x *q[E]) run(ctx context.Context) ([]E, error) {
	if x.err != nil {
		return nil, x.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	x.src.execs.Add(1)

	x.src.mu.RLock()
	items := append([]E(nil), x.src.items...)
	x.src.mu.RUnlock()

	out := items[:0]
	for _, it := range items {
		keep := true
		for _, w := range x.where {
			ok, err := expr.EvalBool(w, it)
			if err != nil {
				return nil, fmt.Errorf("memory: where: %w", err)
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, it)
		}
	}

	if x.order != nil {
		if err := sortBy(out, x.order); err != nil {
			return nil, err
		}
	}

	if x.skip >= len(out) {
		return []E{}, nil
	}
	out = out[x.skip:]
	if x.take >= 0 && x.take < len(out) {
		out = out[:x.take]
	}
	return out, nil
}

func sortBy[E any](items []E, o *order) error {
	keys := make([]any, len(items))
	for i, it := range items {
		k, err := expr.Eval(o.key, it)
		if err != nil {
			return fmt.Errorf("memory: order: %w", err)
		}
		keys[i] = k
	}
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	var cmpErr error
	sort.SliceStable(idx, func(a, b int) bool {
		c, err := compareNullsFirst(keys[idx[a]], keys[idx[b]])
		if err != nil && cmpErr == nil {
			cmpErr = err
		}
		if o.asc {
			return c < 0
		}
		return c > 0
	})
	if cmpErr != nil {
		return fmt.Errorf("memory: order: %w", cmpErr)
	}
	sorted := make([]E, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	copy(items, sorted)
	return nil
}

func compareNullsFirst(a, b any) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	}
	return expr.Compare(a, b)
}

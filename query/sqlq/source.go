// Package sqlq is a query.Source over database/sql.
//
// Predicates are partially evaluated and compiled to parameterized SQL for
// SQLite (modernc.org/sqlite) or Postgres (github.com/jackc/pgx/v5/stdlib).
package sqlq

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/unkn0wn-root/speccache/expr"
	"github.com/unkn0wn-root/speccache/query"
	"github.com/unkn0wn-root/speccache/spec"
)

type Source[E any] struct {
	db      *sql.DB
	d       Dialect
	t       *Table[E]
	pk      string
	tracker *query.Tracker[E]
}

func New[E any](db *sql.DB, d Dialect, t *Table[E]) (*Source[E], error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil db", query.ErrInvalidArgument)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: nil dialect", query.ErrInvalidArgument)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	pk := t.PrimaryKey
	if pk == "" {
		pk = spec.PrimaryKey[E]()
	}
	return &Source[E]{db: db, d: d, t: t, pk: pk, tracker: query.NewTracker[E](pk)}, nil
}

func (s *Source[E]) Query() query.Query[E] { return &q[E]{src: s, take: -1} }

func (s *Source[E]) PrimaryKey() string { return s.pk }

func (s *Source[E]) Tracker() *query.Tracker[E] { return s.tracker }

type order struct {
	key *expr.Lambda
	asc bool
}

type q[E any] struct {
	src        *Source[E]
	where      []*expr.Lambda
	includes   []string
	order      *order
	noTracking bool
	skip       int
	take       int
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
		c.err = fmt.Errorf("sqlq: include %s: %w", l, err)
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

// Statement returns the SELECT built for q, which must come from this
// package.
func Statement[E any](qq query.Query[E]) (string, []any, error) {
	x, ok := qq.(*q[E])
	if !ok {
		return "", nil, fmt.Errorf("%w: not a sqlq query", query.ErrInvalidArgument)
	}
	return x.statement()
}

func (x *q[E]) statement() (string, []any, error) {
	if x.err != nil {
		return "", nil, x.err
	}
	s := x.src
	c := &compiler{d: s.d, columns: func(f string) (string, bool) {
		col, ok := s.t.column(f)
		return s.d.Quote(col), ok
	}}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(s.t.selectList(s.d))
	sb.WriteString(" FROM ")
	sb.WriteString(s.d.Quote(s.t.Name))

	if len(x.where) > 0 {
		conds := make([]string, len(x.where))
		for i, w := range x.where {
			cond, err := c.lambda(w)
			if err != nil {
				return "", nil, fmt.Errorf("sqlq: where: %w", err)
			}
			conds[i] = cond
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	if x.order != nil {
		key, err := c.lambda(x.order.key)
		if err != nil {
			return "", nil, fmt.Errorf("sqlq: order: %w", err)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(key)
		if x.order.asc {
			sb.WriteString(" ASC")
		} else {
			sb.WriteString(" DESC")
		}
	}
	sb.WriteString(s.d.Limit(x.take, x.skip))
	return sb.String(), c.args, nil
}

func (x *q[E]) List(ctx context.Context) ([]E, error) {
	stmt, args, err := x.statement()
	if err != nil {
		return nil, err
	}
	for _, p := range x.includes {
		if _, ok := x.src.t.Relations[p]; !ok {
			return nil, fmt.Errorf("%w: %q", query.ErrUnknownInclude, p)
		}
	}

	rows, err := x.src.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlq: query %s: %w", x.src.t.Name, err)
	}
	defer rows.Close()

	out := []E{}
	for rows.Next() {
		e, err := x.src.t.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlq: scan %s: %w", x.src.t.Name, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlq: rows %s: %w", x.src.t.Name, err)
	}

	for _, p := range x.includes {
		if err := x.src.t.Relations[p](ctx, x.src.db, x.src.d, out); err != nil {
			return nil, fmt.Errorf("sqlq: include %q: %w", p, err)
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
	stmt, args, err := x.statement()
	if err != nil {
		return 0, err
	}
	var n int
	err = x.src.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ("+stmt+") AS q", args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlq: count %s: %w", x.src.t.Name, err)
	}
	return n, nil
}

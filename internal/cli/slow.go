package cli

import (
	"context"
	"time"

	"github.com/unkn0wn-root/speccache/expr"
	"github.com/unkn0wn-root/speccache/internal/demo"
	"github.com/unkn0wn-root/speccache/query"
	qmem "github.com/unkn0wn-root/speccache/query/memory"
)

// slowSource adds a fixed latency to every List, standing in for a
// database round trip.
type slowSource struct {
	*qmem.Source[*demo.Order]
	latency time.Duration
}

func (s *slowSource) Query() query.Query[*demo.Order] {
	return slowQuery{Query: s.Source.Query(), latency: s.latency}
}

type slowQuery struct {
	query.Query[*demo.Order]
	latency time.Duration
}

func (q slowQuery) wrap(inner query.Query[*demo.Order]) query.Query[*demo.Order] {
	return slowQuery{Query: inner, latency: q.latency}
}

func (q slowQuery) Where(p *expr.Lambda) query.Query[*demo.Order] {
	return q.wrap(q.Query.Where(p))
}

func (q slowQuery) Include(l *expr.Lambda) query.Query[*demo.Order] {
	return q.wrap(q.Query.Include(l))
}

func (q slowQuery) IncludePath(p string) query.Query[*demo.Order] {
	return q.wrap(q.Query.IncludePath(p))
}

func (q slowQuery) OrderBy(k *expr.Lambda, asc bool) query.Query[*demo.Order] {
	return q.wrap(q.Query.OrderBy(k, asc))
}

func (q slowQuery) AsNoTracking() query.Query[*demo.Order] { return q.wrap(q.Query.AsNoTracking()) }
func (q slowQuery) Skip(n int) query.Query[*demo.Order]    { return q.wrap(q.Query.Skip(n)) }
func (q slowQuery) Take(n int) query.Query[*demo.Order]    { return q.wrap(q.Query.Take(n)) }

func (q slowQuery) List(ctx context.Context) ([]*demo.Order, error) {
	select {
	case <-time.After(q.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return q.Query.List(ctx)
}

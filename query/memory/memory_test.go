package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/unkn0wn-root/speccache/expr"
	"github.com/unkn0wn-root/speccache/query"
	"github.com/unkn0wn-root/speccache/spec"
)

type Customer struct {
	ID   int64
	Name string
}

type Order struct {
	ID         int64
	Status     string
	Total      float64
	CustomerID int64
	Customer   *Customer
}

func seed() *Source[*Order] {
	customers := map[int64]*Customer{1: {ID: 1, Name: "ann"}, 2: {ID: 2, Name: "bob"}}
	return New([]*Order{
		{ID: 3, Status: "Paid", Total: 30, CustomerID: 1},
		{ID: 1, Status: "Open", Total: 10, CustomerID: 2},
		{ID: 5, Status: "Paid", Total: 50, CustomerID: 2},
		{ID: 2, Status: "Paid", Total: 20, CustomerID: 1},
		{ID: 4, Status: "Open", Total: 40, CustomerID: 1},
	}, WithRelation[*Order]("Customer", func(_ context.Context, items []*Order) error {
		for _, o := range items {
			o.Customer = customers[o.CustomerID]
		}
		return nil
	}))
}

func ids(items []*Order) []int64 {
	out := make([]int64, len(items))
	for i, o := range items {
		out[i] = o.ID
	}
	return out
}

func run(t *testing.T, src *Source[*Order], s *spec.Spec[*Order]) []*Order {
	t.Helper()
	q, err := query.Plan(s, src)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	out, err := q.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestList_FilterOrderPage(t *testing.T) {
	src := seed()
	s := spec.For[*Order]().
		Where(expr.NewLambda("o", func(o expr.Ref) expr.Operand { return o.Field("Status").Eq("Paid") })).
		OrderByDescending(expr.Member("o", "Total")).
		Page(1, 1).
		Build()
	if got := ids(run(t, src, s)); !equalIDs(got, []int64{3}) {
		t.Fatalf("got %v", got)
	}
}

func TestList_PagingFallsBackToPrimaryKey(t *testing.T) {
	src := seed()
	got := ids(run(t, src, spec.For[*Order]().Page(1, 3).Build()))
	if !equalIDs(got, []int64{2, 3, 4}) {
		t.Fatalf("got %v", got)
	}
	got = ids(run(t, src, spec.For[*Order]().Page(4, 0).Build()))
	if !equalIDs(got, []int64{5}) {
		t.Fatalf("take 0 should be unbounded, got %v", got)
	}
	if got := run(t, src, spec.For[*Order]().Page(10, 2).Build()); len(got) != 0 {
		t.Fatalf("skip past end: got %v", ids(got))
	}
}

func TestList_Includes(t *testing.T) {
	src := seed()
	out := run(t, src, spec.ByID[*Order](int64(5)).WithUntracked())
	if len(out) != 1 || out[0].Customer != nil {
		t.Fatalf("relation loaded without include")
	}
	s := spec.For[*Order]().Include(expr.Member("o", "Customer")).Untracked().Build()
	for _, o := range run(t, src, s) {
		if o.Customer == nil || o.Customer.ID != o.CustomerID {
			t.Fatalf("order %d: customer not loaded", o.ID)
		}
	}

	q, _ := query.Plan(spec.For[*Order]().IncludePath("Lines").Build(), src)
	if _, err := q.List(context.Background()); !errors.Is(err, query.ErrUnknownInclude) {
		t.Fatalf("want ErrUnknownInclude, got %v", err)
	}
}

func TestList_Tracking(t *testing.T) {
	src := New([]Order{{ID: 1, Status: "Paid"}})
	q := src.Query()
	if _, err := q.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
	if src.Tracker().Len() != 1 {
		t.Fatalf("tracked reads should register entities")
	}
	src.Tracker().Reset()
	if _, err := q.AsNoTracking().List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
	if src.Tracker().Len() != 0 {
		t.Fatalf("untracked reads must not register entities")
	}
}

func TestCount_AndExecutions(t *testing.T) {
	src := seed()
	q, _ := query.Plan(spec.For[*Order]().
		Where(expr.NewLambda("o", func(o expr.Ref) expr.Operand { return o.Field("Total").Ge(30) })).
		Build(), src)
	n, err := q.Count(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	if src.Executions() != 1 {
		t.Fatalf("Executions = %d", src.Executions())
	}
}

func TestList_UnsatisfiableFilterIsEmpty(t *testing.T) {
	src := seed()
	got := run(t, src, spec.For[*Order]().
		Where(expr.NewLambda("o", func(o expr.Ref) expr.Operand { return o.Field("ID").Lt(0) })).
		Build())
	if len(got) != 0 {
		t.Fatalf("got %v", ids(got))
	}
}

func TestList_EvaluationErrorSurfaces(t *testing.T) {
	src := seed()
	q := src.Query().Where(expr.NewLambda("o", func(o expr.Ref) expr.Operand { return o.Field("Missing").Eq(1) }))
	if _, err := q.List(context.Background()); err == nil {
		t.Fatalf("expected an error for an unknown field")
	}
}

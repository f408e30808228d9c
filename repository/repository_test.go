package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/speccache"
	"github.com/unkn0wn-root/speccache/codec"
	"github.com/unkn0wn-root/speccache/expr"
	"github.com/unkn0wn-root/speccache/provider/memory"
	qmem "github.com/unkn0wn-root/speccache/query/memory"
	"github.com/unkn0wn-root/speccache/spec"
)

type Order struct {
	ID        int64
	Status    string
	CreatedAt time.Time
}

func seed() *qmem.Source[Order] {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := make([]Order, 0, 6)
	for i := int64(1); i <= 6; i++ {
		status := "Paid"
		if i%3 == 0 {
			status = "Open"
		}
		items = append(items, Order{ID: i, Status: status, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	return qmem.New(items)
}

func newCache[V any](t *testing.T, ns string, c codec.Codec[V]) speccache.Cache[V] {
	t.Helper()
	cc, err := speccache.New[V](speccache.Options[V]{
		Namespace: ns,
		Provider:  memory.New(memory.Config{}),
		Codec:     c,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close(context.Background()) })
	return cc
}

func newReader(t *testing.T, src *qmem.Source[Order]) *CachedReader[Order] {
	t.Helper()
	return NewCachedReader[Order](NewSourceReader[Order](src),
		newCache[[]Order](t, "orders", codec.JSON[[]Order]{}),
		WithCountCache[Order](newCache[int](t, "orders:count", codec.Varint{})))
}

// paidRecent is built from scratch on every call, the way independent
// request handlers would build it.
func paidRecent(param string) *spec.Spec[Order] {
	return spec.For[Order]().
		Where(expr.NewLambda(param, func(o expr.Ref) expr.Operand { return o.Field("Status").Eq("Paid") })).
		OrderByDescending(expr.Member(param, "CreatedAt")).
		Page(0, 10).
		Cached(30 * time.Second).
		Build()
}

func ids(items []Order) []int64 {
	out := make([]int64, len(items))
	for i, o := range items {
		out[i] = o.ID
	}
	return out
}

// ==============================
// SourceReader
// ==============================

func TestSourceReaderSingle(t *testing.T) {
	ctx := context.Background()
	r := NewSourceReader[Order](seed())

	o, err := r.Single(ctx, spec.ByID[Order](int64(4)))
	if err != nil || o.ID != 4 {
		t.Fatalf("Single = %+v, %v", o, err)
	}
	if _, err := r.Single(ctx, spec.ByID[Order](int64(99))); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
	if _, ok, err := r.SingleOrDefault(ctx, spec.ByID[Order](int64(99))); ok || err != nil {
		t.Fatalf("SingleOrDefault missing: ok=%v err=%v", ok, err)
	}
	if _, err := r.Single(ctx, spec.ByIDs[Order]([]int64{1, 2})); !errors.Is(err, ErrNotSingle) {
		t.Fatalf("two matches: %v", err)
	}
}

func TestSourceReaderReadsAreUntracked(t *testing.T) {
	ctx := context.Background()
	src := seed()
	r := NewSourceReader[Order](src)
	if _, err := r.List(ctx, spec.For[Order]().Build()); err != nil {
		t.Fatal(err)
	}
	all, err := r.ListAll(ctx)
	if err != nil || len(all) != 6 {
		t.Fatalf("ListAll = %d, %v", len(all), err)
	}
	if src.Tracker().Len() != 0 {
		t.Fatalf("read-only repository tracked %d entities", src.Tracker().Len())
	}
}

func TestSourceReaderCountIncludesPaging(t *testing.T) {
	r := NewSourceReader[Order](seed())
	n, err := r.Count(context.Background(), spec.For[Order]().Page(4, 10).Build())
	if err != nil || n != 2 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	if _, err := r.List(context.Background(), nil); err == nil {
		t.Fatalf("nil spec accepted")
	}
}

// ==============================
// CachedReader
// ==============================

func TestCachedListSharesEntryAcrossEqualSpecs(t *testing.T) {
	ctx := context.Background()
	src := seed()
	r := newReader(t, src)

	first, err := r.List(ctx, paidRecent("o"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.List(ctx, paidRecent("order"))
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{5, 4, 2, 1}
	if got := ids(first); !equal(got, want) {
		t.Fatalf("first = %v want %v", got, want)
	}
	if got := ids(second); !equal(got, want) {
		t.Fatalf("second = %v want %v", got, want)
	}
	if src.Executions() != 1 {
		t.Fatalf("source executed %d times, want 1", src.Executions())
	}
}

func TestCachedPagedSpecKeepsFallbackOrder(t *testing.T) {
	ctx := context.Background()
	src := qmem.New([]Order{{ID: 3}, {ID: 1}, {ID: 2}})
	r := newReader(t, src)

	unpaged, err := r.List(ctx, spec.For[Order]().Cached(time.Minute).Build())
	if err != nil {
		t.Fatal(err)
	}
	paged, err := r.List(ctx, spec.For[Order]().Page(0, 0).Cached(time.Minute).Build())
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(unpaged); !equal(got, []int64{3, 1, 2}) {
		t.Fatalf("unpaged = %v", got)
	}
	if got := ids(paged); !equal(got, []int64{1, 2, 3}) {
		t.Fatalf("paged = %v want [1 2 3]", got)
	}
	if src.Executions() != 2 {
		t.Fatalf("source executed %d times, want 2", src.Executions())
	}
}

func TestUncachedSpecAlwaysHitsSource(t *testing.T) {
	ctx := context.Background()
	src := seed()
	r := newReader(t, src)
	s := spec.For[Order]().Build()
	for i := 0; i < 3; i++ {
		if _, err := r.List(ctx, s); err != nil {
			t.Fatal(err)
		}
		if _, err := r.Count(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	if src.Executions() != 6 {
		t.Fatalf("Executions = %d, want 6", src.Executions())
	}
}

func TestCachedListSingleFlight(t *testing.T) {
	ctx := context.Background()
	src := seed()
	r := newReader(t, src)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, err := r.List(ctx, paidRecent("o")); err != nil || len(got) != 4 {
				t.Errorf("List = %v, %v", ids(got), err)
			}
		}()
	}
	wg.Wait()
	if src.Executions() != 1 {
		t.Fatalf("Executions = %d, want 1", src.Executions())
	}
}

func TestCachedCountAndInvalidate(t *testing.T) {
	ctx := context.Background()
	src := seed()
	r := newReader(t, src)
	s := paidRecent("o")

	for i := 0; i < 2; i++ {
		if n, err := r.Count(ctx, s); err != nil || n != 4 {
			t.Fatalf("Count = %d, %v", n, err)
		}
	}
	if src.Executions() != 1 {
		t.Fatalf("count not cached: Executions = %d", src.Executions())
	}

	src.Add(Order{ID: 7, Status: "Paid", CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
	if n, _ := r.Count(ctx, s); n != 4 {
		t.Fatalf("cached count should be served until invalidated, got %d", n)
	}
	if err := r.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := r.Count(ctx, s); n != 5 {
		t.Fatalf("Count after Invalidate = %d, want 5", n)
	}
	got, err := r.List(ctx, s)
	if err != nil || got[0].ID != 7 {
		t.Fatalf("List after Invalidate = %v, %v", ids(got), err)
	}
}

func TestEmptyResultIsCached(t *testing.T) {
	ctx := context.Background()
	src := seed()
	r := newReader(t, src)
	none := spec.For[Order]().
		Where(expr.NewLambda("o", func(o expr.Ref) expr.Operand { return o.Field("Status").Eq("Refunded") })).
		Cached(time.Minute).
		Build()
	for i := 0; i < 3; i++ {
		got, err := r.List(ctx, none)
		if err != nil || len(got) != 0 {
			t.Fatalf("List = %v, %v", ids(got), err)
		}
	}
	if src.Executions() != 1 {
		t.Fatalf("empty result recomputed: Executions = %d", src.Executions())
	}
}

func TestKeyErrorPropagates(t *testing.T) {
	ctx := context.Background()
	src := seed()
	r := newReader(t, src)
	ch := make(chan int)
	s := spec.For[Order]().
		Where(expr.NewLambda("o", func(o expr.Ref) expr.Operand { return o.Field("ID").Eq(ch) })).
		Cached(time.Minute).
		Build()
	if _, err := r.List(ctx, s); err == nil {
		t.Fatalf("unprintable constant produced a cache key")
	}
	if src.Executions() != 0 {
		t.Fatalf("source executed despite key failure")
	}
}

func TestSingleBypassesCache(t *testing.T) {
	ctx := context.Background()
	src := seed()
	r := newReader(t, src)
	s := spec.ByID[Order](int64(2))
	for i := 0; i < 2; i++ {
		if o, err := r.Single(ctx, s); err != nil || o.ID != 2 {
			t.Fatalf("Single = %+v, %v", o, err)
		}
	}
	if src.Executions() != 2 {
		t.Fatalf("Executions = %d", src.Executions())
	}
}

func equal(a, b []int64) bool {
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

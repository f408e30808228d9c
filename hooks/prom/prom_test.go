package promhooks

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	orders := New(reg, "orders")
	counts := New(reg, "orders:count")

	orders.Hit("a")
	orders.Hit("b")
	orders.Miss("c")
	orders.SelfHeal("entry:orders:c", "expired")
	orders.ComputeFailed("c", errors.New("x"))
	counts.Miss("n")
	orders.GenBumpError("ns:orders", errors.New("down"))

	if got := testutil.ToFloat64(orders.lookups.WithLabelValues("hit")); got != 2 {
		t.Fatalf("hits = %v", got)
	}
	if got := testutil.ToFloat64(counts.lookups.WithLabelValues("miss")); got != 1 {
		t.Fatalf("count misses = %v", got)
	}
	if got := testutil.ToFloat64(orders.selfHeals.WithLabelValues("expired")); got != 1 {
		t.Fatalf("self heals = %v", got)
	}
	if got := testutil.ToFloat64(orders.failures); got != 1 {
		t.Fatalf("failures = %v", got)
	}
	if got := testutil.ToFloat64(orders.genErrors.WithLabelValues("bump")); got != 1 {
		t.Fatalf("gen errors = %v", got)
	}
	if n, err := testutil.GatherAndCount(reg, "speccache_lookups_total"); err != nil || n != 3 {
		t.Fatalf("lookup series = %d, %v", n, err)
	}
}

package genstore

import (
	"context"
	"testing"
	"time"
)

func TestLocalSnapshotManyIncludesAllAndZeroForMissing(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(0, 0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	// bump ns twice -> gen=2
	for i := 0; i < 2; i++ {
		if _, err := s.Bump(ctx, "ns:orders"); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.SnapshotMany(ctx, []string{"ns:orders", "entry:orders:a", "ns:other"})
	if err != nil {
		t.Fatal(err)
	}
	if got["ns:orders"] != 2 || got["entry:orders:a"] != 0 || got["ns:other"] != 0 || len(got) != 3 {
		t.Fatalf("got=%v", got)
	}
	if s.Len() != 1 {
		t.Fatalf("snapshots must not allocate counters, Len=%d", s.Len())
	}
}

func TestLocalBumpIsMonotonic(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(0, 0)
	var last uint64
	for i := 0; i < 5; i++ {
		g, _ := s.Bump(ctx, "k")
		if g != last+1 {
			t.Fatalf("bump %d returned %d", i, g)
		}
		last = g
	}
	if g, _ := s.Snapshot(ctx, "k"); g != last {
		t.Fatalf("Snapshot = %d want %d", g, last)
	}
}

func TestLocalCleanupPrunesOld(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(0, 0)

	if _, err := s.Bump(ctx, "old"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := s.Bump(ctx, "new"); err != nil {
		t.Fatal(err)
	}
	s.Cleanup(10 * time.Millisecond)

	if g, _ := s.Snapshot(ctx, "old"); g != 0 {
		t.Fatalf("expected pruned -> 0, got %d", g)
	}
	if g, _ := s.Snapshot(ctx, "new"); g != 1 {
		t.Fatalf("recent counter pruned, got %d", g)
	}
}

func TestLocalBackgroundCleanupAndClose(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(5*time.Millisecond, 5*time.Millisecond)
	if _, err := s.Bump(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for s.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("background cleanup never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestParseGen(t *testing.T) {
	cases := []struct {
		in   any
		want uint64
		ok   bool
	}{
		{nil, 0, true},
		{"7", 7, true},
		{[]byte("12"), 12, true},
		{int64(3), 3, true},
		{"x", 0, false},
	}
	for _, tc := range cases {
		g, err := parseGen("k", tc.in)
		if (err == nil) != tc.ok || g != tc.want {
			t.Fatalf("parseGen(%v) = %d, %v", tc.in, g, err)
		}
	}
	if _, err := NewRedis(RedisConfig{}); err != ErrNilClient {
		t.Fatalf("nil client: %v", err)
	}
}

// Package providertest holds the behavior every provider.Provider must show.
package providertest

import (
	"bytes"
	"context"
	"testing"
	"time"

	pr "github.com/unkn0wn-root/speccache/provider"
)

// Options relaxes checks a backend cannot honor.
type Options struct {
	// Settle runs after each Set for stores that apply writes asynchronously.
	Settle func()
}

// Run exercises p through the Provider contract.
func Run(t *testing.T, p pr.Provider, opts Options) {
	t.Helper()
	ctx := context.Background()
	settle := opts.Settle
	if settle == nil {
		settle = func() {}
	}

	if _, ok, err := p.Get(ctx, "entry:test:missing"); err != nil || ok {
		t.Fatalf("Get missing: ok=%v err=%v", ok, err)
	}

	want := []byte{0, 'S', 'P', 'C', 'C', 0xff, 1, 2, 3}
	ok, err := p.Set(ctx, "entry:test:a", want, int64(len(want)), time.Minute)
	if err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	settle()
	got, ok, err := p.Get(ctx, "entry:test:a")
	if err != nil || !ok || !bytes.Equal(got, want) {
		t.Fatalf("Get after Set: ok=%v err=%v got=%x", ok, err, got)
	}

	if ok, err := p.Set(ctx, "entry:test:forever", []byte("x"), 1, 0); err != nil || !ok {
		t.Fatalf("Set without TTL: ok=%v err=%v", ok, err)
	}
	settle()
	if _, ok, _ := p.Get(ctx, "entry:test:forever"); !ok {
		t.Fatalf("entry without TTL missing")
	}

	if err := p.Del(ctx, "entry:test:a"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := p.Get(ctx, "entry:test:a"); ok {
		t.Fatalf("Get after Del should miss")
	}
	if err := p.Del(ctx, "entry:test:never-set"); err != nil {
		t.Fatalf("Del of a missing key: %v", err)
	}
}

package asynchook

import (
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/speccache"
)

type recorder struct {
	speccache.NopHooks
	mu    sync.Mutex
	heals []string
	block chan struct{}
}

func (r *recorder) SelfHeal(k, reason string) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.heals = append(r.heals, k+"/"+reason)
	r.mu.Unlock()
}

func TestDeliversThenDrainsOnClose(t *testing.T) {
	r := &recorder{}
	h := New(r, 2, 16)
	h.SelfHeal("a", "corrupt")
	h.SelfHeal("b", "expired")
	h.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.heals) != 2 {
		t.Fatalf("delivered %v", r.heals)
	}
	h.SelfHeal("c", "late") // must not panic after Close
	if h.Dropped() != 1 {
		t.Fatalf("Dropped = %d", h.Dropped())
	}
}

func TestDropsWhenQueueFull(t *testing.T) {
	r := &recorder{block: make(chan struct{})}
	h := New(r, 1, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			h.SelfHeal("k", "corrupt")
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("hook call blocked the caller")
	}
	close(r.block)
	h.Close()
	if h.Dropped() == 0 {
		t.Fatalf("expected dropped events")
	}
}

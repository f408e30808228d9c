package query

import (
	"reflect"
	"sync"

	"github.com/unkn0wn-root/speccache/expr"
)

// Tracker is an identity map: tracked reads of the same primary key return
// the instance seen first, so callers can mutate it and write it back.
type Tracker[E any] struct {
	mu      sync.Mutex
	pk      string
	entries map[any]E
}

func NewTracker[E any](pk string) *Tracker[E] {
	return &Tracker[E]{pk: pk, entries: make(map[any]E)}
}

// Track returns the tracked instance for e's key, registering e if new.
// Entities whose key cannot be read, or is not comparable, are returned as is.
func (t *Tracker[E]) Track(e E) E {
	k, err := expr.FieldOf(e, t.pk)
	if err != nil || k == nil || !reflect.TypeOf(k).Comparable() {
		return e
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.entries[k]; ok {
		return prev
	}
	t.entries[k] = e
	return e
}

func (t *Tracker[E]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Reset forgets every tracked entity.
func (t *Tracker[E]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.entries)
}


// Package memory is a map-backed Provider for single-process use and tests.
// It honors per-entry TTLs and an optional entry cap with random eviction.
package memory

import (
	"context"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/speccache/provider"
)

type entry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type Provider struct {
	mu         sync.RWMutex
	m          map[string]entry
	maxEntries int
	now        func() time.Time
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	MaxEntries int              // 0 = unbounded
	Now        func() time.Time // nil => time.Now
}

func New(cfg Config) *Provider {
	p := &Provider{m: make(map[string]entry), maxEntries: cfg.MaxEntries, now: cfg.Now}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.RLock()
	e, ok := p.m[key]
	p.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && !p.now().Before(e.exp) {
		p.mu.Lock()
		if cur, ok := p.m[key]; ok && cur.exp.Equal(e.exp) {
			delete(p.m, key)
		}
		p.mu.Unlock()
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = p.now().Add(ttl)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.m[key]; !exists && p.maxEntries > 0 && len(p.m) >= p.maxEntries {
		// map iteration order is random enough for eviction
		for k := range p.m {
			delete(p.m, k)
			break
		}
	}
	p.m[key] = entry{v: value, exp: exp}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (p *Provider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.m)
}

func (p *Provider) Close(_ context.Context) error {
	p.mu.Lock()
	clear(p.m)
	p.mu.Unlock()
	return nil
}

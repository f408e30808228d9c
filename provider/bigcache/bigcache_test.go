package bigcache

import (
	"context"
	"testing"
	"time"

	"github.com/unkn0wn-root/speccache/provider/providertest"
)

func TestContract(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{LifeWindow: time.Hour, Shards: 16, MaxEntriesInWindow: 1000, MaxEntrySize: 256})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close(ctx)
	providertest.Run(t, p, providertest.Options{})
}

func TestInvalidShards(t *testing.T) {
	if _, err := New(context.Background(), Config{LifeWindow: time.Minute, Shards: 3}); err == nil {
		t.Fatalf("non power of two shard count accepted")
	}
}

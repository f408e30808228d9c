package ristretto

import (
	"context"
	"testing"

	"github.com/unkn0wn-root/speccache/provider/providertest"
)

func TestContract(t *testing.T) {
	p, err := New(Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64, Synchronous: true})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close(context.Background())
	providertest.Run(t, p, providertest.Options{})
}

func TestInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("zero config accepted")
	}
	if CostBySize("k", make([]byte, 42)) != 42 {
		t.Fatalf("CostBySize should charge by length")
	}
}

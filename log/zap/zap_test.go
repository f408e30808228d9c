package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/speccache"
)

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Error("compute failed", speccache.Fields{"key": "paid", "err": errors.New("db down")})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	e := entries[0]
	if e.LoggerName != "speccache" || e.Level != zapcore.ErrorLevel || e.Message != "compute failed" {
		t.Fatalf("unexpected entry %+v", e.Entry)
	}
	ctx := e.ContextMap()
	if ctx["key"] != "paid" || ctx["err"] != "db down" {
		t.Fatalf("fields = %v", ctx)
	}
}

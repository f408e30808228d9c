package logrus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/unkn0wn-root/speccache"
)

func TestLogrusLogger(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Warn("store rejected by provider (pressure)", speccache.Fields{"key": "entry:orders:x"})
	l.Debug("no fields", nil)

	if len(hook.Entries) != 2 {
		t.Fatalf("got %d entries", len(hook.Entries))
	}
	e := hook.Entries[0]
	if e.Level != logrus.WarnLevel || e.Data["key"] != "entry:orders:x" || e.Data["component"] != "speccache" {
		t.Fatalf("unexpected entry %+v", e.Data)
	}
}

package app

import (
	"fmt"
	"io"
	stdslog "log/slog"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/speccache"
	"github.com/unkn0wn-root/speccache/internal/config"
	logrusadapter "github.com/unkn0wn-root/speccache/log/logrus"
	slogadapter "github.com/unkn0wn-root/speccache/log/slog"
	zapadapter "github.com/unkn0wn-root/speccache/log/zap"
)

// newLogger builds the configured backend writing to w. The returned
// *slog.Logger is non-nil only for the slog backend and feeds the event hooks.
func newLogger(cfg config.Log, w io.Writer) (speccache.Logger, *stdslog.Logger, func() error, error) {
	nop := func() error { return nil }
	switch cfg.Backend {
	case "slog":
		var lvl stdslog.Level
		if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, nil, nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		hopts := &stdslog.HandlerOptions{Level: lvl}
		var h stdslog.Handler = stdslog.NewTextHandler(w, hopts)
		if cfg.Format == "json" {
			h = stdslog.NewJSONHandler(w, hopts)
		}
		l := stdslog.New(h)
		return slogadapter.New(l), l, nop, nil

	case "zap":
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc := zapcore.NewConsoleEncoder(ec)
		if cfg.Format == "json" {
			enc = zapcore.NewJSONEncoder(ec)
		}
		l := zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl))
		return zapadapter.New(l), nil, func() error { _ = l.Sync(); return nil }, nil

	case "logrus":
		lvl, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		l := logrus.New()
		l.SetOutput(w)
		l.SetLevel(lvl)
		if cfg.Format == "json" {
			l.SetFormatter(&logrus.JSONFormatter{})
		} else {
			l.SetFormatter(&logrus.TextFormatter{DisableColors: true})
		}
		return logrusadapter.New(l), nil, nop, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown log backend %q", cfg.Backend)
}

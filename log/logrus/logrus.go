// Package logrus adapts a *logrus.Entry to speccache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/speccache"
)

var _ speccache.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New wraps l and tags every line with component=speccache.
func New(l *logrus.Logger) LogrusLogger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return LogrusLogger{E: l.WithField("component", "speccache")}
}

func (l LogrusLogger) Debug(msg string, f speccache.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f speccache.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f speccache.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f speccache.Fields) { l.with(f).Error(msg) }

func (l LogrusLogger) with(f speccache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	return l.E.WithFields(logrus.Fields(f))
}

// Package sloghook logs cache events to a *slog.Logger with sampling and key
// redaction. Cache keys embed predicate constants (customer ids, emails), so
// they are hashed unless a Redact function says otherwise.
package sloghook

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/speccache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery uint64
	MissEvery     uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	speccache.NopHooks

	l    *slog.Logger
	opts Options

	selfHealCtr atomic.Uint64
	missCtr     atomic.Uint64
}

var _ speccache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

// Hit and Coalesced stay no-ops; they fire on every read.

func (h *Hooks) Miss(key string) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("speccache.miss", "key", h.redact(key))
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("speccache.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) ComputeFailed(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("speccache.compute_failed",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) ProviderSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("speccache.provider_set_rejected",
		"key", h.redact(storageKey))
}

func (h *Hooks) GenSnapshotError(count int, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("speccache.gen_snapshot_error",
		"count", count,
		"err", err)
}

func (h *Hooks) GenBumpError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("speccache.gen_bump_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) RemoveOutage(key string, bumpErr, delErr error) {
	if h.l == nil {
		return
	}
	h.l.Error("speccache.remove_outage",
		"key", h.redact(key),
		"bump_err", bumpErr,
		"del_err", delErr)
}

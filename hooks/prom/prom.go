// Package promhooks exports cache events as Prometheus counters.
//
//	h := promhooks.New(prometheus.DefaultRegisterer, "orders")
//	cache, _ := speccache.New[[]Order](speccache.Options[[]Order]{..., Hooks: h})
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/speccache"
)

// Hooks counts events per namespace. Keys are never used as labels.
type Hooks struct {
	lookups   *prometheus.CounterVec
	coalesced prometheus.Counter
	selfHeals *prometheus.CounterVec
	failures  prometheus.Counter
	rejected  prometheus.Counter
	genErrors *prometheus.CounterVec
	outages   prometheus.Counter
}

var _ speccache.Hooks = (*Hooks)(nil)

// New registers the collectors on reg under the given namespace label.
// Collectors already registered by another namespace are reused.
func New(reg prometheus.Registerer, namespace string) *Hooks {
	labels := prometheus.Labels{"namespace": namespace}
	counter := func(name, help string) prometheus.Counter {
		vec := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "speccache", Name: name, Help: help,
		}, []string{"namespace"}))
		return vec.With(labels)
	}
	vec := func(name, help, label string) *prometheus.CounterVec {
		v := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "speccache", Name: name, Help: help,
		}, []string{"namespace", label}))
		return v.MustCurryWith(labels)
	}

	return &Hooks{
		lookups:   vec("lookups_total", "Cache lookups by result.", "result"),
		coalesced: counter("coalesced_total", "Callers that shared a running computation."),
		selfHeals: vec("self_heals_total", "Entries deleted on read.", "reason"),
		failures:  counter("compute_failures_total", "Computations that returned an error or panicked."),
		rejected:  counter("provider_set_rejected_total", "Writes rejected by the store."),
		genErrors: vec("generation_errors_total", "Generation store failures.", "op"),
		outages:   counter("remove_outages_total", "Removals where both bump and delete failed."),
	}
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(err)
	}
	return c
}

func (h *Hooks) Hit(string)                        { h.lookups.WithLabelValues("hit").Inc() }
func (h *Hooks) Miss(string)                       { h.lookups.WithLabelValues("miss").Inc() }
func (h *Hooks) Coalesced(string)                  { h.coalesced.Inc() }
func (h *Hooks) SelfHeal(_, reason string)         { h.selfHeals.WithLabelValues(reason).Inc() }
func (h *Hooks) ComputeFailed(string, error)       { h.failures.Inc() }
func (h *Hooks) ProviderSetRejected(string)        { h.rejected.Inc() }
func (h *Hooks) GenSnapshotError(int, error)       { h.genErrors.WithLabelValues("snapshot").Inc() }
func (h *Hooks) GenBumpError(string, error)        { h.genErrors.WithLabelValues("bump").Inc() }
func (h *Hooks) RemoveOutage(string, error, error) { h.outages.Inc() }

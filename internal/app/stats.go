package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stats are the lookup counters of one namespace.
type Stats struct {
	Hits      float64 `json:"hits"`
	Misses    float64 `json:"misses"`
	Coalesced float64 `json:"coalesced"`
}

// Stats reads the counters of namespace back from the registry.
func (a *App) Stats(namespace string) (Stats, error) {
	mfs, err := a.Registry.Gather()
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["namespace"] != namespace {
				continue
			}
			v := m.GetCounter().GetValue()
			switch mf.GetName() {
			case "speccache_lookups_total":
				if labels["result"] == "hit" {
					st.Hits += v
				} else {
					st.Misses += v
				}
			case "speccache_coalesced_total":
				st.Coalesced += v
			}
		}
	}
	return st, nil
}

// MetricsHandler serves the registry in the Prometheus text format.
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
}

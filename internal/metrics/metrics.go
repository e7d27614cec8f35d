// Package metrics holds the Prometheus collectors for the sync engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	mutations *prometheus.CounterVec
	persist   *prometheus.HistogramVec
	snapshots *prometheus.CounterVec
	analytics *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fitplate",
			Name:      "mutations_total",
			Help:      "Daily-log mutations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		persist: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fitplate",
			Name:      "persist_duration_seconds",
			Help:      "Time spent writing a mutation to the document store.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fitplate",
			Name:      "snapshots_total",
			Help:      "Snapshots handled by the log store by result.",
		}, []string{"result"}),
		analytics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fitplate",
			Name:      "analytics_requests_total",
			Help:      "Analytics loads by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.mutations, m.persist, m.snapshots, m.analytics)
	return m
}

func (m *Metrics) Mutation(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.mutations.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObservePersist(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.persist.WithLabelValues(kind).Observe(d.Seconds())
}

// Snapshot results: promoted, stale, decode_error, materialized.
func (m *Metrics) Snapshot(result string) {
	if m == nil {
		return
	}
	m.snapshots.WithLabelValues(result).Inc()
}

// Analytics results: ok, need_more_data, error, cancelled.
func (m *Metrics) Analytics(result string) {
	if m == nil {
		return
	}
	m.analytics.WithLabelValues(result).Inc()
}

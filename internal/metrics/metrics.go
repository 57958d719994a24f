// Package metrics exposes the client's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "stack"

// Result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Metrics groups every collector the services update. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	saves        *prometheus.CounterVec
	loads        *prometheus.CounterVec
	mutations    *prometheus.CounterVec
	refreshSkips *prometheus.CounterVec
	available    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "saves_total",
			Help:      "Pushes to the remote store by result.",
		}, []string{"result"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "loads_total",
			Help:      "Pulls from the remote store by result.",
		}, []string{"result"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Applied document mutations by operation.",
		}, []string{"op"}),
		refreshSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "refresh_skipped_total",
			Help:      "Auto-refresh triggers that did not pull, by reason.",
		}, []string{"reason"}),
		available: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "available",
			Help:      "Available funds after the last mutation or load.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.saves, m.loads, m.mutations, m.refreshSkips, m.available)
	}
	return m
}

// ObserveSave counts a push.
func (m *Metrics) ObserveSave(result string) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(result).Inc()
}

// ObserveLoad counts a pull.
func (m *Metrics) ObserveLoad(result string) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(result).Inc()
}

// ObserveMutation counts an applied mutation.
func (m *Metrics) ObserveMutation(op string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op).Inc()
}

// ObserveRefreshSkip counts an auto-refresh that did not pull.
func (m *Metrics) ObserveRefreshSkip(reason string) {
	if m == nil {
		return
	}
	m.refreshSkips.WithLabelValues(reason).Inc()
}

// SetAvailable records the current available figure.
func (m *Metrics) SetAvailable(available decimal.Decimal) {
	if m == nil {
		return
	}
	m.available.Set(available.InexactFloat64())
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Refresh exchange outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeExpired = "expired"
	OutcomeStale   = "stale"
)

// Gate decisions.
const (
	DecisionFast      = "fast"
	DecisionRefreshed = "refreshed"
	DecisionAnonymous = "anonymous"
	DecisionExpired   = "expired"
)

// Metrics holds the session client collectors. A nil *Metrics records nothing.
type Metrics struct {
	RefreshExchanges *prometheus.CounterVec
	GateDecisions    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg when reg is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RefreshExchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotelsession",
			Name:      "refresh_exchanges_total",
			Help:      "Refresh credential exchanges by outcome.",
		}, []string{"outcome"}),
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotelsession",
			Name:      "gate_decisions_total",
			Help:      "Outgoing request gate decisions.",
		}, []string{"decision"}),
	}
	if reg != nil {
		reg.MustRegister(m.RefreshExchanges, m.GateDecisions)
	}
	return m
}

func (m *Metrics) Refresh(outcome string) {
	if m == nil {
		return
	}
	m.RefreshExchanges.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Gate(decision string) {
	if m == nil {
		return
	}
	m.GateDecisions.WithLabelValues(decision).Inc()
}

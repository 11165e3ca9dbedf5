package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the recovery state machine.
type Metrics struct {
	Transitions *prometheus.CounterVec
	Denials     *prometheus.CounterVec
}

// New creates and registers all recovery metrics.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "discrescue_recovery_transitions_total",
			Help: "Recovery state transitions attempted, by operation and outcome",
		}, []string{"operation", "outcome"}),
		Denials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "discrescue_recovery_denials_total",
			Help: "Transitions denied by the authorization guard, by reason",
		}, []string{"operation", "reason"}),
	}
}

func (m *Metrics) RecordTransition(operation, outcome string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordDenial(operation, reason string) {
	if m == nil {
		return
	}
	m.Denials.WithLabelValues(operation, reason).Inc()
}

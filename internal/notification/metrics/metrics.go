package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for notification dispatch.
type Metrics struct {
	Dispatched    *prometheus.CounterVec
	StoreFailures prometheus.Counter
	PushFailures  prometheus.Counter
}

// New creates and registers all notification metrics.
func New() *Metrics {
	return &Metrics{
		Dispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "discrescue_notifications_dispatched_total",
			Help: "Notifications composed per transition kind",
		}, []string{"kind"}),
		StoreFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "discrescue_notification_store_failures_total",
			Help: "In-app notification writes that failed and were swallowed",
		}),
		PushFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "discrescue_notification_push_failures_total",
			Help: "Push channel publishes that failed and were swallowed",
		}),
	}
}

func (m *Metrics) RecordDispatched(kind string) {
	if m == nil {
		return
	}
	m.Dispatched.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordStoreFailure() {
	if m == nil {
		return
	}
	m.StoreFailures.Inc()
}

func (m *Metrics) RecordPushFailure() {
	if m == nil {
		return
	}
	m.PushFailures.Inc()
}

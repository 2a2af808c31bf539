package channel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for delivery channel outcomes.
type Metrics struct {
	Delivered prometheus.Counter
	Retries   prometheus.Counter
	Dropped   prometheus.Counter
}

// NewMetrics registers and returns the channel metrics. Call once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		Delivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studygate_audit_delivered_total",
			Help: "Total number of audit events successfully delivered to the sink",
		}),
		Retries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studygate_audit_delivery_retries_total",
			Help: "Total number of audit delivery retry attempts",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studygate_audit_dropped_total",
			Help: "Total number of audit events dropped after buffer overflow or retry exhaustion",
		}),
	}
}

package emitter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for emission outcomes.
type Metrics struct {
	Emitted        prometheus.Counter
	Rejected       prometheus.Counter
	SubmitFailures prometheus.Counter
}

// NewMetrics registers and returns the emitter metrics. Call once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		Emitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studygate_audit_emitted_total",
			Help: "Total number of audit events submitted to the delivery channel",
		}),
		Rejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studygate_audit_rejected_total",
			Help: "Total number of audit events rejected by validation before transmission",
		}),
		SubmitFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studygate_audit_submit_failures_total",
			Help: "Total number of audit events refused by the delivery channel",
		}),
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds application-level Prometheus metrics. The audit channel and
// emitter register their own.
type Metrics struct {
	UsersCreated    prometheus.Counter
	StudiesLaunched prometheus.Counter
	SitesAdded      prometheus.Counter
}

// New creates and registers all application metrics.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studygate_users_created_total",
			Help: "Total number of user accounts created.",
		}),
		StudiesLaunched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studygate_studies_launched_total",
			Help: "Total number of studies launched.",
		}),
		SitesAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studygate_sites_added_total",
			Help: "Total number of sites added to studies.",
		}),
	}
}

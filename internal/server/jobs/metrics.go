package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Task outcomes reported by the runner.
const (
	OutcomeDone  = "done"
	OutcomeRetry = "retry"
	OutcomeDead  = "dead"
)

type Metrics struct {
	processed *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics registers the job counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		processed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "filevault_jobs_total",
				Help: "Processed background tasks by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filevault_job_duration_seconds",
				Help:    "Handler run time of background tasks",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) observe(kind, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(kind, outcome).Inc()
	m.duration.WithLabelValues(kind).Observe(seconds)
}

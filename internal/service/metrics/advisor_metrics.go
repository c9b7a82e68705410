package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AdvisorLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stockyard",
			Subsystem: "advisor",
			Name:      "latency_seconds",
			Help:      "Latency of advisor endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	AdvisorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockyard",
			Subsystem: "advisor",
			Name:      "errors_total",
			Help:      "Errors by advisor endpoint",
		},
		[]string{"endpoint"},
	)

	TrainingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockyard",
			Subsystem: "advisor",
			Name:      "training_runs_total",
			Help:      "Completed training runs by outcome",
		},
		[]string{"outcome"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(AdvisorLatency, AdvisorErrors, TrainingRuns)
	})
}

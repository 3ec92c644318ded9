package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles ingestion pipeline metrics.
type Metrics struct {
	RunsTotal           *prometheus.CounterVec
	RunDuration         prometheus.Histogram
	ProviderErrors      *prometheus.CounterVec
	PredictionsInserted prometheus.Counter
	LocationsCreated    prometheus.Counter
}

// New constructs and registers metrics.
func New() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weathertrack_ingest_runs_total",
				Help: "Total ingestion runs by terminal status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "weathertrack_ingest_run_duration_seconds",
			Help:    "Ingestion run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		ProviderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weathertrack_provider_errors_total",
				Help: "Total failed provider calls by HTTP status",
			},
			[]string{"status"},
		),
		PredictionsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weathertrack_predictions_inserted_total",
			Help: "Total prediction rows inserted",
		}),
		LocationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weathertrack_locations_created_total",
			Help: "Total location rows created by reconciliation",
		}),
	}
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.ProviderErrors,
		m.PredictionsInserted,
		m.LocationsCreated,
	)
	return m
}

package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

// RegisterDBGauges registers gauges backed by count queries. Pending runs
// should stay at zero between invocations; a stuck value points at a crashed
// pipeline.
func RegisterDBGauges(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "weathertrack_runs_pending",
			Help: "Runs still in Pending status",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM runs WHERE status = 'Pending'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "weathertrack_predictions_rows",
			Help: "Total persisted prediction rows",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM temperature_predictions")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}

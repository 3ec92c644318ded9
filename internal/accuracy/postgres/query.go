package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"weathertrack/internal/accuracy"
)

// Query runs the read-only prediction-vs-actual analytics against postgres.
type Query struct {
	db *sql.DB
}

// NewQuery constructs a query.
func NewQuery(db *sql.DB) *Query {
	return &Query{db: db}
}

// MatchRange pairs, for each distinct forecast hour in the inclusive
// [start, end] range, the actual reading recorded closest to that hour with
// the prediction whose lead time sits in the 10-12h band and is closest to
// the 11h nominal horizon. Hours missing either side yield no row. Ties on
// either side resolve to the lowest id, so repeated calls on unchanged data
// return identical rows. Returns an empty slice when nothing pairs.
func (q *Query) MatchRange(ctx context.Context, locationID int64, start, end time.Time) ([]accuracy.Match, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("accuracy query: nil db")
	}
	rows, err := q.db.QueryContext(ctx, `
WITH actuals AS (
	SELECT DISTINCT ON (forecast_for_hour)
		id, forecast_for_hour, temperature
	FROM actual_readings
	WHERE location_id = $1
	  AND forecast_for_hour BETWEEN $2 AND $3
	ORDER BY forecast_for_hour,
		ABS(EXTRACT(EPOCH FROM (recorded_at - forecast_for_hour))),
		id
),
candidates AS (
	SELECT DISTINCT ON (forecast_for_hour)
		id, forecast_for_hour, forecast_made_at, temperature,
		EXTRACT(EPOCH FROM (forecast_for_hour - forecast_made_at)) / 3600.0 AS lead_hours
	FROM temperature_predictions
	WHERE location_id = $1
	  AND forecast_for_hour BETWEEN $2 AND $3
	  AND forecast_for_hour - forecast_made_at BETWEEN make_interval(hours => $4) AND make_interval(hours => $5)
	ORDER BY forecast_for_hour,
		ABS(EXTRACT(EPOCH FROM (forecast_for_hour - forecast_made_at)) / 3600.0 - $6),
		id
)
SELECT
	a.forecast_for_hour,
	a.id,
	c.id,
	c.forecast_made_at,
	c.lead_hours,
	c.temperature,
	a.temperature
FROM actuals a
JOIN candidates c USING (forecast_for_hour)
ORDER BY a.forecast_for_hour`,
		locationID, start.UTC(), end.UTC(),
		int(accuracy.MinLeadHours), int(accuracy.MaxLeadHours), accuracy.NominalLeadHours)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []accuracy.Match{}
	for rows.Next() {
		m := accuracy.Match{LocationID: locationID}
		if err := rows.Scan(
			&m.ForecastForHour,
			&m.ActualReadingID,
			&m.PredictionID,
			&m.ForecastMadeAt,
			&m.LeadHours,
			&m.PredictedTemperature,
			&m.ActualTemperature,
		); err != nil {
			return nil, err
		}
		m.ForecastForHour = m.ForecastForHour.UTC()
		m.ForecastMadeAt = m.ForecastMadeAt.UTC()
		m.SignedError = m.PredictedTemperature - m.ActualTemperature
		m.AbsoluteError = m.SignedError
		if m.AbsoluteError < 0 {
			m.AbsoluteError = -m.AbsoluteError
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

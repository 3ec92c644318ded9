package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Prediction is one persisted forecast row.
type Prediction struct {
	ID              int64
	LocationID      int64
	ForecastForHour time.Time
	ForecastMadeAt  time.Time
	Temperature     float64
}

// Repository handles prediction persistence.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertBatch writes all rows in one multi-row insert. Rows already present
// under the (location_id, forecast_for_hour, forecast_made_at) constraint are
// skipped. Returns the number of rows written and the highest inserted id
// (0 when nothing was written).
func (r *Repository) InsertBatch(ctx context.Context, rows []Prediction) (int64, int64, error) {
	if r == nil || r.db == nil {
		return 0, 0, errors.New("predictions repo: nil db")
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}

	var query strings.Builder
	query.WriteString(`
INSERT INTO temperature_predictions (location_id, forecast_for_hour, forecast_made_at, temperature)
VALUES `)
	args := make([]any, 0, len(rows)*4)
	for i, row := range rows {
		if i > 0 {
			query.WriteString(", ")
		}
		base := i * 4
		fmt.Fprintf(&query, "($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4)
		args = append(args, row.LocationID, row.ForecastForHour.UTC(), row.ForecastMadeAt.UTC(), row.Temperature)
	}
	query.WriteString(`
ON CONFLICT (location_id, forecast_for_hour, forecast_made_at) DO NOTHING
RETURNING id`)

	result, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return 0, 0, err
	}
	defer result.Close()

	var inserted, lastID int64
	for result.Next() {
		var id int64
		if err := result.Scan(&id); err != nil {
			return inserted, lastID, err
		}
		inserted++
		if id > lastID {
			lastID = id
		}
	}
	if err := result.Err(); err != nil {
		return inserted, lastID, err
	}
	return inserted, lastID, nil
}

// ListRange returns predictions for a location with forecast_for_hour inside
// the inclusive [start, end] range, ordered by forecast hour then id.
func (r *Repository) ListRange(ctx context.Context, locationID int64, start, end time.Time) ([]Prediction, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("predictions repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, location_id, forecast_for_hour, forecast_made_at, temperature
FROM temperature_predictions
WHERE location_id = $1 AND forecast_for_hour BETWEEN $2 AND $3
ORDER BY forecast_for_hour, id`, locationID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Prediction
	for rows.Next() {
		var p Prediction
		if err := rows.Scan(&p.ID, &p.LocationID, &p.ForecastForHour, &p.ForecastMadeAt, &p.Temperature); err != nil {
			return nil, err
		}
		p.ForecastForHour = p.ForecastForHour.UTC()
		p.ForecastMadeAt = p.ForecastMadeAt.UTC()
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
)

// Repository handles the location dimension table.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Exists reports whether a location with the given name is present.
func (r *Repository) Exists(ctx context.Context, name string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("locations repo: nil db")
	}
	var found bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (SELECT 1 FROM locations WHERE location_name = $1)`, name).Scan(&found)
	if err != nil {
		return false, err
	}
	return found, nil
}

// Insert adds a location and returns its id. The unique constraint on
// location_name makes concurrent or repeated inserts converge on one row.
func (r *Repository) Insert(ctx context.Context, name, providerKey string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("locations repo: nil db")
	}
	if name == "" {
		return 0, errors.New("locations repo: empty name")
	}
	var locationID int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO locations (location_name, provider_key)
VALUES ($1, $2)
ON CONFLICT (location_name) DO UPDATE SET provider_key = locations.provider_key
RETURNING location_id`, name, providerKey).Scan(&locationID)
	if err != nil {
		return 0, err
	}
	return locationID, nil
}

// IDByName returns the location id for a name; ok is false when absent.
func (r *Repository) IDByName(ctx context.Context, name string) (int64, bool, error) {
	if r == nil || r.db == nil {
		return 0, false, errors.New("locations repo: nil db")
	}
	var locationID int64
	err := r.db.QueryRowContext(ctx, `
SELECT location_id FROM locations WHERE location_name = $1`, name).Scan(&locationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return locationID, true, nil
}

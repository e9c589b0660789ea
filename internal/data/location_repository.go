package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// LocationRepository handles database operations for locations.
type LocationRepository struct {
	DB *sqlx.DB
}

// NewLocationRepository creates a new LocationRepository.
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{DB: db}
}

// GetAll retrieves all locations ordered by name.
func (r *LocationRepository) GetAll(ctx context.Context) ([]*Location, error) {
	locations := []*Location{}
	if err := r.DB.SelectContext(ctx, &locations, "SELECT * FROM locations ORDER BY name"); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

// Save creates a new location and returns its ID.
func (r *LocationRepository) Save(ctx context.Context, location *Location) (int64, error) {
	location.CreatedAt = dbTime(time.Now())
	res, err := r.DB.NamedExecContext(ctx, `INSERT INTO locations (name, is_published, created_at)
VALUES (:name, :is_published, :created_at)`, location)
	if err != nil {
		return 0, fmt.Errorf("failed to save location: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	location.ID = id
	return id, nil
}

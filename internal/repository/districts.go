package repository

import (
	"context"
	"fmt"

	"github.com/teamarete/TBBAS/internal/models"
)

// DistrictRepository reads the district reference table
type DistrictRepository struct {
	db *Database
}

// ListDistricts returns every reference entry in a stable order
func (r *DistrictRepository) ListDistricts(ctx context.Context) ([]models.DistrictEntry, error) {
	query := `
		SELECT school_name, division, district
		FROM districts
		ORDER BY division, id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list districts: %w", err)
	}
	defer rows.Close()

	var entries []models.DistrictEntry
	for rows.Next() {
		var e models.DistrictEntry
		if err := rows.Scan(&e.CanonicalName, &e.Division, &e.District); err != nil {
			return nil, fmt.Errorf("failed to scan district: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating districts: %w", err)
	}

	return entries, nil
}

// Upsert inserts or updates a reference entry
func (r *DistrictRepository) Upsert(ctx context.Context, e models.DistrictEntry) error {
	query := `
		INSERT INTO districts (school_name, division, district)
		VALUES ($1, $2, $3)
		ON CONFLICT (school_name, division) DO UPDATE SET
			district = EXCLUDED.district,
			updated_at = NOW()
	`

	if _, err := r.db.Pool.Exec(ctx, query, e.CanonicalName, e.Division, e.District); err != nil {
		return fmt.Errorf("failed to upsert district: %w", err)
	}

	return nil
}

// Count returns the number of reference entries
func (r *DistrictRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM districts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count districts: %w", err)
	}
	return count, nil
}

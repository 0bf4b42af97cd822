package repository

import (
	"context"

	"github.com/rodaje/rodaje/pkg/distance"
	apperrors "github.com/rodaje/rodaje/pkg/errors"
)

// DistanceRepository stores manual distance overrides per project.
type DistanceRepository struct {
	db DB
}

// NewDistanceRepository creates the repository.
func NewDistanceRepository(db DB) *DistanceRepository {
	return &DistanceRepository{db: db}
}

// Upsert stores entries, replacing existing pairs.
func (r *DistanceRepository) Upsert(ctx context.Context, projectID string, entries []distance.PairEntry) error {
	const query = `
		INSERT INTO location_distances (project_id, location_a, location_b, distance_km, duration_minutes, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (project_id, location_a, location_b) DO UPDATE SET
			distance_km = EXCLUDED.distance_km,
			duration_minutes = EXCLUDED.duration_minutes,
			source = EXCLUDED.source,
			updated_at = now()
	`
	err := inTx(ctx, r.db, func(db DB) error {
		for _, e := range entries {
			a, b := e.A, e.B
			if b < a {
				a, b = b, a
			}
			if a == b {
				continue
			}
			source := e.Source
			if source == "" {
				source = distance.SourceManual
			}
			if _, err := db.ExecContext(ctx, query, projectID, a, b, e.DistanceKm, e.DurationMinutes, string(source)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "save distances")
	}
	return nil
}

// List returns the stored entries of projectID.
func (r *DistanceRepository) List(ctx context.Context, projectID string) ([]distance.PairEntry, error) {
	const query = `
		SELECT location_a, location_b, distance_km, duration_minutes, source
		FROM location_distances
		WHERE project_id = $1
		ORDER BY location_a, location_b
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "list distances")
	}
	defer rows.Close()

	out := []distance.PairEntry{}
	for rows.Next() {
		var e distance.PairEntry
		var source string
		if err := rows.Scan(&e.A, &e.B, &e.DistanceKm, &e.DurationMinutes, &source); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "scan distance")
		}
		e.Source = distance.Source(source)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "list distances")
	}
	return out, nil
}

// LoadInto copies the stored entries of projectID into idx and returns how many were loaded.
func (r *DistanceRepository) LoadInto(ctx context.Context, projectID string, idx *distance.Index) (int, error) {
	entries, err := r.List(ctx, projectID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if err := idx.Set(e.A, e.B, e.DistanceKm, e.DurationMinutes, e.Source); err != nil {
			continue
		}
		n++
	}
	return n, nil
}

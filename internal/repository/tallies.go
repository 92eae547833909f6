package repository

import (
	"context"
	"time"

	"spreadpool/internal/metrics"
	"spreadpool/internal/models"

	"github.com/jackc/pgx/v5"
)

// TallyRepository is the durable store tier for weekly point totals
type TallyRepository struct {
	db   *Database
	year int
}

// Name identifies the tier
func (r *TallyRepository) Name() string {
	return "store"
}

// Fetch returns the tallies of the season year for a namespaced week
func (r *TallyRepository) Fetch(ctx context.Context, week int) ([]models.Tally, error) {
	query := `
		SELECT year, week, owner, score, updated_at
		FROM tallies
		WHERE year = $1 AND week = $2
		ORDER BY owner DESC
	`

	start := time.Now()
	rows, err := r.db.Pool.Query(ctx, query, r.year, week)
	if err != nil {
		metrics.RecordDBQuery("select", "tallies", "error", time.Since(start).Seconds())
		return nil, &models.StorageError{Backend: "postgres", Op: "list tallies", Err: err}
	}
	defer rows.Close()

	var tallies []models.Tally
	for rows.Next() {
		t, err := scanTally(rows)
		if err != nil {
			return nil, &models.StorageError{Backend: "postgres", Op: "scan tally", Err: err}
		}
		tallies = append(tallies, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Backend: "postgres", Op: "list tallies", Err: err}
	}

	metrics.RecordDBQuery("select", "tallies", "success", time.Since(start).Seconds())
	return tallies, nil
}

// Save upserts one row per owner. A recount replaces the stored score.
func (r *TallyRepository) Save(ctx context.Context, week int, tallies []models.Tally) (int, error) {
	query := `
		INSERT INTO tallies (year, week, owner, score)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (year, week, owner) DO UPDATE SET
			score = EXCLUDED.score,
			updated_at = NOW()
		RETURNING year, week, owner, score, updated_at
	`

	counter := 0
	for i, t := range tallies {
		if t.Owner == "" {
			continue
		}
		year := t.Year
		if year == 0 {
			year = r.year
		}

		start := time.Now()
		persisted, err := scanTally(r.db.Pool.QueryRow(ctx, query, year, week, t.Owner, t.Score))
		if err != nil {
			metrics.RecordDBQuery("upsert", "tallies", "error", time.Since(start).Seconds())
			return counter, &models.StorageError{Backend: "postgres", Op: "upsert tally", Err: err}
		}
		metrics.RecordDBQuery("upsert", "tallies", "success", time.Since(start).Seconds())

		tallies[i] = persisted
		counter++
	}

	return counter, nil
}

func scanTally(row pgx.Row) (models.Tally, error) {
	var t models.Tally
	err := row.Scan(&t.Year, &t.Week, &t.Owner, &t.Score, &t.UpdatedAt)
	return t, err
}

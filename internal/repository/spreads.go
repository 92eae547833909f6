package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"spreadpool/internal/metrics"
	"spreadpool/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// SpreadRepository is the durable store tier for owner picks
type SpreadRepository struct {
	db   *Database
	year int
}

// Name identifies the tier
func (r *SpreadRepository) Name() string {
	return "store"
}

// Fetch returns the spreads of the season year for a namespaced week, last
// owner first
func (r *SpreadRepository) Fetch(ctx context.Context, week int) ([]models.Spread, error) {
	query := `
		SELECT year, week, owner, picks, updated_at
		FROM spreads
		WHERE year = $1 AND week = $2
		ORDER BY owner DESC
	`

	start := time.Now()
	rows, err := r.db.Pool.Query(ctx, query, r.year, week)
	if err != nil {
		metrics.RecordDBQuery("select", "spreads", "error", time.Since(start).Seconds())
		return nil, &models.StorageError{Backend: "postgres", Op: "list spreads", Err: err}
	}
	defer rows.Close()

	var spreads []models.Spread
	for rows.Next() {
		s, err := scanSpread(rows)
		if err != nil {
			return nil, &models.StorageError{Backend: "postgres", Op: "scan spread", Err: err}
		}
		spreads = append(spreads, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Backend: "postgres", Op: "list spreads", Err: err}
	}

	metrics.RecordDBQuery("select", "spreads", "success", time.Since(start).Seconds())
	return spreads, nil
}

// Save merges each spread into the stored one for the same owner, or inserts
// it under week. Picks missing from an update are kept.
func (r *SpreadRepository) Save(ctx context.Context, week int, spreads []models.Spread) (int, error) {
	if len(spreads) == 0 {
		return 0, nil
	}

	existing, err := r.Fetch(ctx, week)
	if err != nil {
		return 0, err
	}
	byOwner := make(map[string]models.Spread, len(existing))
	for _, s := range existing {
		byOwner[s.Owner] = s
	}

	counter := 0
	for i, incoming := range spreads {
		if incoming.Owner == "" {
			continue
		}

		merged := incoming
		if stored, ok := byOwner[incoming.Owner]; ok {
			merged = stored.Merge(incoming)
		} else {
			merged.Week = week
			if merged.Year == 0 {
				merged.Year = r.year
			}
		}

		persisted, err := r.upsert(ctx, merged)
		if err != nil {
			return counter, err
		}

		spreads[i] = persisted
		byOwner[persisted.Owner] = persisted
		counter++
	}

	log.Debug().Int("week", week).Int("count", counter).Msg("Spreads saved")
	return counter, nil
}

func (r *SpreadRepository) upsert(ctx context.Context, s models.Spread) (models.Spread, error) {
	picks, err := json.Marshal(s.Picks)
	if err != nil {
		return models.Spread{}, fmt.Errorf("failed to encode picks for %s: %w", s.Owner, err)
	}

	query := `
		INSERT INTO spreads (year, week, owner, picks)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (year, week, owner) DO UPDATE SET
			picks = EXCLUDED.picks,
			updated_at = NOW()
		RETURNING year, week, owner, picks, updated_at
	`

	start := time.Now()
	persisted, err := scanSpread(r.db.Pool.QueryRow(ctx, query, s.Year, s.Week, s.Owner, picks))
	if err != nil {
		metrics.RecordDBQuery("upsert", "spreads", "error", time.Since(start).Seconds())
		return models.Spread{}, &models.StorageError{Backend: "postgres", Op: "upsert spread", Err: err}
	}

	metrics.RecordDBQuery("upsert", "spreads", "success", time.Since(start).Seconds())
	return persisted, nil
}

func scanSpread(row pgx.Row) (models.Spread, error) {
	var (
		s     models.Spread
		picks []byte
	)
	if err := row.Scan(&s.Year, &s.Week, &s.Owner, &picks, &s.UpdatedAt); err != nil {
		return models.Spread{}, err
	}

	s.Picks = map[string]models.PickGroup{}
	if len(picks) > 0 {
		if err := json.Unmarshal(picks, &s.Picks); err != nil {
			return models.Spread{}, fmt.Errorf("invalid picks for %s: %w", s.Owner, err)
		}
	}
	return s, nil
}

package repository

import (
	"context"
	"time"

	"spreadpool/internal/metrics"
	"spreadpool/internal/models"
	"spreadpool/internal/season"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

const scoreColumns = `
	year, week, game_id, away_name, away_score, home_name, home_score,
	game_clock, game_day, game_status, game_tag, game_time,
	spread_margin, spread_odds, updated_at`

// ScoreRepository is the durable store tier for scores
type ScoreRepository struct {
	db         *Database
	calendar   *season.Calendar
	staleAfter time.Duration
	now        func() time.Time
}

// Name identifies the tier
func (r *ScoreRepository) Name() string {
	return "store"
}

// Fetch returns the scores stored for a namespaced week, highest game id
// first. For the current week and later, one stale row discards the whole
// week so the caller goes back to the feed.
func (r *ScoreRepository) Fetch(ctx context.Context, week int) ([]models.Score, error) {
	scores, err := r.ListByWeek(ctx, week)
	if err != nil {
		return nil, err
	}

	now := r.now()
	if season.Bare(week) >= r.calendar.DefaultWeek(now) {
		cutoff := now.Add(-r.staleAfter)
		for _, s := range scores {
			if !s.UpdatedAt.After(cutoff) {
				log.Debug().
					Int("week", week).
					Int("game_id", s.GameID).
					Time("updated_at", s.UpdatedAt).
					Msg("Stored scores are stale")
				return nil, nil
			}
		}
	}

	return scores, nil
}

// ListByWeek returns every stored score for a namespaced week, ignoring freshness
func (r *ScoreRepository) ListByWeek(ctx context.Context, week int) ([]models.Score, error) {
	query := `SELECT ` + scoreColumns + `
		FROM scores
		WHERE week = $1
		ORDER BY game_id DESC
	`

	start := time.Now()
	rows, err := r.db.Pool.Query(ctx, query, week)
	if err != nil {
		metrics.RecordDBQuery("select", "scores", "error", time.Since(start).Seconds())
		return nil, &models.StorageError{Backend: "postgres", Op: "list scores", Err: err}
	}
	defer rows.Close()

	var scores []models.Score
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, &models.StorageError{Backend: "postgres", Op: "scan score", Err: err}
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Backend: "postgres", Op: "list scores", Err: err}
	}

	metrics.RecordDBQuery("select", "scores", "success", time.Since(start).Seconds())
	return scores, nil
}

// Save merges each incoming score into the stored row with the same game id,
// or inserts it under week. When the first record names its own week, that
// week wins over the argument.
//
// Each element of scores is replaced by the row as persisted, so stored
// spread margin and odds reach the caller.
func (r *ScoreRepository) Save(ctx context.Context, week int, scores []models.Score) (int, error) {
	if len(scores) == 0 {
		return 0, nil
	}
	if scores[0].Has(models.FieldWeek) && scores[0].Week != 0 {
		week = scores[0].Week
	}

	existing, err := r.ListByWeek(ctx, week)
	if err != nil {
		return 0, err
	}
	byGame := make(map[int]models.Score, len(existing))
	for _, s := range existing {
		byGame[s.GameID] = s
	}

	counter := 0
	for i, incoming := range scores {
		merged := incoming
		if stored, ok := byGame[incoming.GameID]; ok {
			merged = stored.Merge(incoming)
		} else {
			merged.Week = week
		}

		persisted, err := r.upsert(ctx, merged)
		if err != nil {
			return counter, err
		}

		scores[i] = persisted
		byGame[persisted.GameID] = persisted
		counter++
	}

	log.Debug().Int("week", week).Int("count", counter).Msg("Scores saved")
	return counter, nil
}

func (r *ScoreRepository) upsert(ctx context.Context, s models.Score) (models.Score, error) {
	query := `
		INSERT INTO scores (
			year, week, game_id, away_name, away_score, home_name, home_score,
			game_clock, game_day, game_status, game_tag, game_time,
			spread_margin, spread_odds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (week, game_id) DO UPDATE SET
			year = EXCLUDED.year,
			away_name = EXCLUDED.away_name,
			away_score = EXCLUDED.away_score,
			home_name = EXCLUDED.home_name,
			home_score = EXCLUDED.home_score,
			game_clock = EXCLUDED.game_clock,
			game_day = EXCLUDED.game_day,
			game_status = EXCLUDED.game_status,
			game_tag = EXCLUDED.game_tag,
			game_time = EXCLUDED.game_time,
			spread_margin = EXCLUDED.spread_margin,
			spread_odds = EXCLUDED.spread_odds,
			updated_at = NOW()
		RETURNING ` + scoreColumns

	start := time.Now()
	row := r.db.Pool.QueryRow(
		ctx, query,
		s.Year, s.Week, s.GameID, s.AwayName, s.AwayScore, s.HomeName, s.HomeScore,
		s.GameClock, s.GameDay, s.GameStatus, s.GameTag, s.GameTime,
		s.SpreadMargin, s.SpreadOdds,
	)

	persisted, err := scanScore(row)
	if err != nil {
		metrics.RecordDBQuery("upsert", "scores", "error", time.Since(start).Seconds())
		return models.Score{}, &models.StorageError{Backend: "postgres", Op: "upsert score", Err: err}
	}

	metrics.RecordDBQuery("upsert", "scores", "success", time.Since(start).Seconds())
	return persisted, nil
}

func scanScore(row pgx.Row) (models.Score, error) {
	var s models.Score
	err := row.Scan(
		&s.Year, &s.Week, &s.GameID, &s.AwayName, &s.AwayScore, &s.HomeName, &s.HomeScore,
		&s.GameClock, &s.GameDay, &s.GameStatus, &s.GameTag, &s.GameTime,
		&s.SpreadMargin, &s.SpreadOdds, &s.UpdatedAt,
	)
	return s, err
}

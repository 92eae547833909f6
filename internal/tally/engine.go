// Package tally scores each owner's picks against the final results of a week.
package tally

import (
	"context"
	"strconv"
	"strings"
	"time"

	"spreadpool/internal/models"
	"spreadpool/internal/season"

	"github.com/rs/zerolog/log"
)

// ScoreSource resolves the scores of a week
type ScoreSource interface {
	Fetch(ctx context.Context, week int) ([]models.Score, error)
}

// SpreadSource resolves the spreads of a week
type SpreadSource interface {
	Fetch(ctx context.Context, week int) ([]models.Spread, error)
}

// Sink persists tallies
type Sink interface {
	Save(ctx context.Context, week int, tallies []models.Tally) (int, error)
}

// Engine recounts weekly tallies
type Engine struct {
	scores   ScoreSource
	spreads  SpreadSource
	tallies  Sink
	calendar *season.Calendar
	now      func() time.Time
}

// NewEngine creates a tally engine
func NewEngine(scores ScoreSource, spreads SpreadSource, tallies Sink, calendar *season.Calendar) *Engine {
	return &Engine{
		scores:   scores,
		spreads:  spreads,
		tallies:  tallies,
		calendar: calendar,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for the default week
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Count scores every spread of week against its games. A week of zero or
// less means the current week. Each owner's tally is saved as soon as it is
// computed; a failed save is logged and the count goes on.
func (e *Engine) Count(ctx context.Context, week int) ([]models.Tally, error) {
	if week <= 0 {
		week = e.calendar.DefaultWeek(e.now())
	}

	scores, err := e.scores.Fetch(ctx, week)
	if err != nil {
		return nil, err
	}
	spreads, err := e.spreads.Fetch(ctx, week)
	if err != nil {
		return nil, err
	}

	result := make([]models.Tally, 0, len(spreads))
	for _, spread := range spreads {
		t := models.Tally{
			Year:  spread.Year,
			Week:  spread.Week,
			Owner: spread.Owner,
			Score: Points(spread, scores),
		}

		if _, err := e.tallies.Save(ctx, week, []models.Tally{t}); err != nil {
			log.Error().Err(err).Str("owner", t.Owner).Int("week", week).Msg("Failed to save tally")
		}
		result = append(result, t)
	}

	log.Info().Int("week", week).Int("owners", len(result)).Int("games", len(scores)).Msg("Tally counted")
	return result, nil
}

// Points totals a spread over the games it picked. Games without a pick score
// nothing.
func Points(spread models.Spread, scores []models.Score) int {
	points := 0
	for _, game := range scores {
		pick, ok := spread.Picks[strconv.Itoa(game.GameID)]
		if !ok {
			continue
		}
		points += GamePoints(pick, game)
	}
	return points
}

// GamePoints scores one pick group: a point for beating the spread, a point
// for the right side of the over/under, a point for guessing the exact total
// and another for landing within three of it.
func GamePoints(pick models.PickGroup, game models.Score) int {
	points := 0

	diff := float64(game.HomeScore-game.AwayScore) + game.SpreadOdds
	switch pick.Team() {
	case game.HomeName:
		if diff > 0 {
			points++
		}
	case game.AwayName:
		if diff < 0 {
			points++
		}
	}

	overUnder, ok := pick.OverUnder()
	if !ok {
		return points
	}

	total := game.HomeScore + game.AwayScore
	weighted := float64(total) - game.SpreadMargin
	if weighted > 0 && strings.HasPrefix(overUnder, "O") {
		points++
	} else if weighted < 0 && strings.HasPrefix(overUnder, "U") {
		points++
	}

	if guess, ok := pick.Guess(); ok {
		if guess == total {
			points++
		}
		if d := total - guess; d >= -3 && d <= 3 {
			points++
		}
	}

	return points
}

// Package picks turns emailed pick sheets into spreads.
package picks

import (
	"context"
	"strconv"
	"time"

	"spreadpool/internal/models"
	"spreadpool/internal/season"

	"github.com/rs/zerolog/log"
)

// maxGroups bounds the pick groups read for one owner
const maxGroups = 1000

// ScoreFetcher resolves the scores of a week
type ScoreFetcher interface {
	Fetch(ctx context.Context, week int) ([]models.Score, error)
}

// Extractor reads pick tables and maps picked teams onto this week's games
type Extractor struct {
	scores   ScoreFetcher
	calendar *season.Calendar
	now      func() time.Time
}

// NewExtractor creates an extractor resolving teams through scores
func NewExtractor(scores ScoreFetcher, calendar *season.Calendar) *Extractor {
	return &Extractor{
		scores:   scores,
		calendar: calendar,
		now:      time.Now,
	}
}

// WithClock replaces the clock used to pick the current week
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract returns one spread per owner found in the HTML bodies, for the
// current week. Nothing to read is not an error. Any unreadable table or
// unknown team fails the whole message.
func (e *Extractor) Extract(ctx context.Context, bodies []string) ([]models.Spread, error) {
	pages, err := ParsePages(bodies)
	if err != nil {
		return nil, err
	}

	raw, err := collect(pages)
	if err != nil {
		return nil, err
	}
	if len(raw.owners) == 0 {
		return nil, nil
	}

	now := e.now()
	bare := e.calendar.DefaultWeek(now)
	teams, err := e.teamGames(ctx, bare)
	if err != nil {
		return nil, err
	}

	week := e.calendar.Namespace(bare, now)
	spreads := make([]models.Spread, 0, len(raw.owners))
	for _, owner := range raw.owners {
		spread := models.NewSpread(e.calendar.Year, week, owner)
		if err := MapPicks(&spread, raw.tokens[owner], teams); err != nil {
			return nil, err
		}
		spreads = append(spreads, spread)
	}

	log.Debug().Int("week", week).Int("owners", len(spreads)).Msg("Picks extracted")
	return spreads, nil
}

// teamGames maps every team playing in week to its game id
func (e *Extractor) teamGames(ctx context.Context, week int) (map[string]string, error) {
	scores, err := e.scores.Fetch(ctx, week)
	if err != nil {
		return nil, &models.ExtractionError{Err: err}
	}

	teams := make(map[string]string, len(scores)*2+1)
	for _, s := range scores {
		id := strconv.Itoa(s.GameID)
		teams[s.HomeName] = id
		teams[s.AwayName] = id
	}
	// The feed says ARI, pick sheets say AZ
	if id, ok := teams["ARI"]; ok {
		teams["AZ"] = id
	}
	return teams, nil
}

// MapPicks groups an owner's tokens and files each group under the game of
// the picked team. A token followed by two more, the last numeric, is a
// team/over-under/total group; anything else is a lone team pick. Skipped
// groups take no game.
func MapPicks(spread *models.Spread, tokens []string, teams map[string]string) error {
	for canary := maxGroups; len(tokens) > 0 && canary > 0; canary-- {
		size := 1
		if len(tokens) > 2 {
			if _, err := strconv.ParseFloat(tokens[2], 64); err == nil {
				size = 3
			}
		}
		group := models.PickGroup(append([]string(nil), tokens[:size]...))
		tokens = tokens[size:]

		if group.IsSkip() {
			continue
		}
		id, ok := teams[group.Team()]
		if !ok {
			return &models.MappingError{Owner: spread.Owner, Team: group.Team()}
		}
		spread.SetPick(id, group)
	}
	return nil
}

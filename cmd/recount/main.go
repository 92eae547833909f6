// Command recount recomputes a week's tallies, or resolves its scores, and
// prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"spreadpool/internal/app"
	"spreadpool/internal/config"
	"spreadpool/internal/logging"

	"github.com/rs/zerolog/log"
)

func main() {
	week := flag.Int("week", 0, "week to process; 0 means the current week")
	scoresOnly := flag.Bool("scores", false, "resolve and print the week's scores instead of recounting")
	flag.Parse()

	cfg := config.MustLoad()
	logging.Setup(cfg.AppEnv, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize backends")
	}
	defer a.Close()

	target := *week
	if target <= 0 {
		target = a.Calendar.DefaultWeek(time.Now())
	}

	var out any
	if *scoresOnly {
		scores, err := a.Scores.Fetch(ctx, target)
		if err != nil {
			log.Fatal().Err(err).Int("week", target).Msg("Failed to resolve scores")
		}
		log.Info().Int("week", a.Scores.Week(target)).Int("games", len(scores)).Msg("Scores resolved")
		out = scores
	} else {
		tallies, err := a.Tally.Count(ctx, target)
		if err != nil {
			log.Fatal().Err(err).Int("week", target).Msg("Failed to recount tally")
		}
		log.Info().Int("week", a.Tallies.Week(target)).Int("owners", len(tallies)).Msg("Tally recounted")
		out = tallies
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"spreadpool/internal/metrics"
	"spreadpool/internal/models"
	"spreadpool/internal/season"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ScoreFetcher resolves a week's scores through the score chain
type ScoreFetcher interface {
	Fetch(ctx context.Context, week int) ([]models.Score, error)
}

// Counter recounts a week's tallies
type Counter interface {
	Count(ctx context.Context, week int) ([]models.Tally, error)
}

// Config controls the background jobs
type Config struct {
	// TallyCron is a standard five-field cron expression
	TallyCron string
	// PollInterval is how often the current week's scores are resolved.
	// Zero disables polling.
	PollInterval time.Duration
}

// Scheduler manages background jobs:
// - recount the current week's tallies on a cron schedule
// - resolve the current week's scores on a ticker so the tiers stay warm while games are live
type Scheduler struct {
	cfg      Config
	calendar *season.Calendar
	scores   ScoreFetcher
	tally    Counter
	now      func() time.Time
	cron     *cron.Cron
	ticker   *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg Config, calendar *season.Calendar, scores ScoreFetcher, tally Counter) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		calendar: calendar,
		scores:   scores,
		tally:    tally,
		now:      time.Now,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
	}
}

// WithClock replaces the clock used to pick the current week
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Start registers the jobs and starts them in the background
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.TallyCron, func() {
		if err := s.RecountTally(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduled tally recount failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule tally recount: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.TallyCron).
		Msg("Tally recount scheduled")

	if s.cfg.PollInterval > 0 {
		s.ticker = time.NewTicker(s.cfg.PollInterval)
		log.Info().
			Dur("interval", s.cfg.PollInterval).
			Msg("Score polling started")

		go s.pollScores(ctx)
	}

	return nil
}

// Stop stops the scheduler. Running jobs are allowed to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		log.Info().Msg("Stopping scheduler...")

		if s.cron != nil {
			<-s.cron.Stop().Done()
		}

		if s.ticker != nil {
			s.ticker.Stop()
		}

		close(s.stopChan)
		log.Info().Msg("Scheduler stopped")
	})
}

func (s *Scheduler) pollScores(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping score polling")
			return
		case <-s.stopChan:
			log.Info().Msg("Stop signal received, stopping score polling")
			return
		case <-s.ticker.C:
			if err := s.PollScores(ctx); err != nil {
				log.Error().Err(err).Msg("Score poll failed")
			}
		}
	}
}

// PollScores resolves the current week's scores once
func (s *Scheduler) PollScores(ctx context.Context) error {
	start := time.Now()
	week := s.calendar.DefaultWeek(s.now())

	scores, err := s.scores.Fetch(ctx, week)
	if err != nil {
		metrics.RecordSync("score_poll", "error", time.Since(start).Seconds())
		return fmt.Errorf("failed to resolve scores: %w", err)
	}

	live := 0
	for _, score := range scores {
		if !score.IsFinal() {
			live++
		}
	}

	metrics.RecordSync("score_poll", "success", time.Since(start).Seconds())
	log.Debug().
		Int("week", week).
		Int("games", len(scores)).
		Int("live", live).
		Dur("duration", time.Since(start)).
		Msg("Score poll complete")

	return nil
}

// RecountTally recounts the current week's tallies once
func (s *Scheduler) RecountTally(ctx context.Context) error {
	start := time.Now()
	week := s.calendar.DefaultWeek(s.now())

	tallies, err := s.tally.Count(ctx, week)
	if err != nil {
		metrics.RecordSync("tally", "error", time.Since(start).Seconds())
		return fmt.Errorf("failed to recount tally: %w", err)
	}

	metrics.RecordSync("tally", "success", time.Since(start).Seconds())
	log.Info().
		Int("week", week).
		Int("owners", len(tallies)).
		Dur("duration", time.Since(start)).
		Msg("Tally recount complete")

	return nil
}

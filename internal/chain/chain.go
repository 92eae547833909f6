// Package chain resolves week-scoped records through an ordered list of
// storage tiers, fastest first.
package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spreadpool/internal/metrics"
	"spreadpool/internal/season"

	"github.com/rs/zerolog/log"
)

// Tier is one stage of a chain: cache, store or source
type Tier[T any] interface {
	Name() string
	Fetch(ctx context.Context, week int) ([]T, error)
	Save(ctx context.Context, week int, records []T) (int, error)
}

// Chain runs fetches and saves across its tiers. It holds no state of its
// own between calls.
type Chain[T any] struct {
	name     string
	tiers    []Tier[T]
	calendar *season.Calendar
	now      func() time.Time
}

// New creates a chain over tiers, ordered fastest first
func New[T any](name string, calendar *season.Calendar, tiers ...Tier[T]) *Chain[T] {
	return &Chain[T]{
		name:     name,
		tiers:    tiers,
		calendar: calendar,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for week namespacing
func (c *Chain[T]) WithClock(now func() time.Time) *Chain[T] {
	c.now = now
	return c
}

// Name returns the chain name used in logs and metrics
func (c *Chain[T]) Name() string {
	return c.name
}

// Week translates a caller-supplied week into its namespaced form
func (c *Chain[T]) Week(week int) int {
	return c.calendar.Namespace(week, c.now())
}

// Fetch returns the first non-empty result for week. A hit on a slower tier
// is written back to every faster tier, nearest first, before returning.
// Tier errors count as misses. No data is a nil result, not an error.
func (c *Chain[T]) Fetch(ctx context.Context, week int) ([]T, error) {
	week = c.Week(week)

	for i, tier := range c.tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := tier.Fetch(ctx, week)
		if err != nil {
			metrics.RecordTierFetch(c.name, tier.Name(), "error")
			log.Warn().
				Err(err).
				Str("chain", c.name).
				Str("tier", tier.Name()).
				Int("week", week).
				Msg("Tier fetch failed, trying next tier")
			continue
		}
		if len(records) == 0 {
			metrics.RecordTierFetch(c.name, tier.Name(), "miss")
			continue
		}
		metrics.RecordTierFetch(c.name, tier.Name(), "hit")

		for j := i - 1; j >= 0; j-- {
			c.saveTier(ctx, c.tiers[j], week, records)
		}
		return records, nil
	}

	return nil, nil
}

// Save writes records to every tier, slowest first, and returns the count
// reported by the fastest tier that succeeded. A failing tier does not stop
// the others; an error is returned only when every tier failed.
func (c *Chain[T]) Save(ctx context.Context, week int, records []T) (int, error) {
	week = c.Week(week)

	var (
		count int
		saved bool
		errs  []error
	)
	for i := len(c.tiers) - 1; i >= 0; i-- {
		tier := c.tiers[i]
		n, err := c.saveTier(ctx, tier, week, records)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tier.Name(), err))
			continue
		}
		count, saved = n, true
	}

	if !saved && len(errs) > 0 {
		return 0, errors.Join(errs...)
	}
	return count, nil
}

func (c *Chain[T]) saveTier(ctx context.Context, tier Tier[T], week int, records []T) (int, error) {
	n, err := tier.Save(ctx, week, records)
	if err != nil {
		metrics.RecordTierSaveError(c.name, tier.Name())
		log.Warn().
			Err(err).
			Str("chain", c.name).
			Str("tier", tier.Name()).
			Int("week", week).
			Msg("Tier save failed")
	}
	return n, err
}

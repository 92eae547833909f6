package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"spreadpool/internal/metrics"
	"spreadpool/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Key prefixes, one per entity
const (
	ScorePrefix  = "SCORES_"
	SpreadPrefix = "SPREAD_"
	TallyPrefix  = "TALLY_"
)

// DefaultTTL is how long a snapshot stays fresh
const DefaultTTL = 300 * time.Second

type envelope[T any] struct {
	Timestamp int64 `json:"timestamp"`
	Data      []T   `json:"data"`
}

// Snapshot is the fast cache tier for one entity. Each week is stored as a
// single JSON envelope stamped with the time it was written.
type Snapshot[T models.Record[T]] struct {
	client *redis.Client
	prefix string
	year   int
	ttl    time.Duration
	now    func() time.Time
}

// NewSnapshot creates a cache tier storing weeks of year under prefix
func NewSnapshot[T models.Record[T]](client *redis.Client, prefix string, year int, ttl time.Duration) *Snapshot[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Snapshot[T]{
		client: client,
		prefix: prefix,
		year:   year,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for freshness checks
func (s *Snapshot[T]) WithClock(now func() time.Time) *Snapshot[T] {
	s.now = now
	return s
}

// Name identifies the tier
func (s *Snapshot[T]) Name() string {
	return "cache"
}

// Key returns the cache key for a namespaced week
func (s *Snapshot[T]) Key(week int) string {
	return fmt.Sprintf("%sS%dW%02d", s.prefix, s.year, week)
}

// Fetch returns the cached records for week. A missing, stale or empty entry
// is a miss; empty entries are deleted on sight.
func (s *Snapshot[T]) Fetch(ctx context.Context, week int) ([]T, error) {
	start := time.Now()
	defer func() {
		metrics.RecordCacheOperation("get", time.Since(start).Seconds())
	}()

	data, err := s.current(ctx, s.Key(week))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		metrics.RecordCacheMiss(s.prefix)
		return nil, nil
	}

	metrics.RecordCacheHit(s.prefix)
	return data, nil
}

// current reads the fresh snapshot under key without touching the hit and
// miss counters
func (s *Snapshot[T]) current(ctx context.Context, key string) ([]T, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &models.StorageError{Backend: "redis", Op: "get", Err: err}
	}

	if raw == "" {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to evict empty cache entry")
		}
		return nil, nil
	}

	var entry envelope[T]
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Ignoring unreadable cache entry")
		return nil, nil
	}

	if s.now().Unix()-entry.Timestamp >= int64(s.ttl/time.Second) {
		return nil, nil
	}
	return entry.Data, nil
}

// Save merges records into whatever fresh snapshot exists for week and
// rewrites it with a new timestamp. The returned count is the size of the
// input, not of the merged snapshot.
func (s *Snapshot[T]) Save(ctx context.Context, week int, records []T) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	key := s.Key(week)
	current, err := s.current(ctx, key)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	defer func() {
		metrics.RecordCacheOperation("set", time.Since(start).Seconds())
	}()

	merged := records
	if len(current) > 0 {
		merged = models.MergeByIdentity(current, records)
	}

	payload, err := json.Marshal(envelope[T]{
		Timestamp: s.now().Unix(),
		Data:      merged,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return 0, &models.StorageError{Backend: "redis", Op: "set", Err: err}
	}

	return len(records), nil
}

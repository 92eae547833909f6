package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"spreadpool/internal/metrics"
	"spreadpool/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func setupSnapshot[T models.Record[T]](t *testing.T, prefix string) (*Snapshot[T], *miniredis.Miniredis, *fakeClock) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := &fakeClock{t: time.Date(2016, 11, 15, 12, 0, 0, 0, time.UTC)}
	snap := NewSnapshot[T](client, prefix, 2016, DefaultTTL).WithClock(clock.now)
	return snap, mr, clock
}

func score(params map[string]string) models.Score {
	return models.ScoreFromParams(params)
}

func TestSnapshot_Key(t *testing.T) {
	snap, _, _ := setupSnapshot[models.Score](t, ScorePrefix)

	assert.Equal(t, "SCORES_S2016W211", snap.Key(211))
	assert.Equal(t, "SCORES_S2016W05", snap.Key(5))
}

func TestSnapshot_FetchMissing(t *testing.T) {
	snap, _, _ := setupSnapshot[models.Score](t, ScorePrefix)

	got, err := snap.Fetch(context.Background(), 211)

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshot_SaveThenFetch(t *testing.T) {
	ctx := context.Background()
	snap, mr, _ := setupSnapshot[models.Score](t, ScorePrefix)

	n, err := snap.Save(ctx, 211, []models.Score{
		score(map[string]string{models.FieldGameID: "1", models.FieldHomeName: "SD"}),
		score(map[string]string{models.FieldGameID: "2", models.FieldHomeName: "NE"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := snap.Fetch(ctx, 211)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SD", got[0].HomeName)
	assert.Equal(t, "NE", got[1].HomeName)

	assert.Equal(t, DefaultTTL, mr.TTL(snap.Key(211)))
}

func TestSnapshot_EmptyEntrySelfHeals(t *testing.T) {
	ctx := context.Background()
	snap, mr, _ := setupSnapshot[models.Score](t, ScorePrefix)
	key := snap.Key(211)
	require.NoError(t, mr.Set(key, ""))

	got, err := snap.Fetch(ctx, 211)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists(key), "empty entry should be evicted")

	got, err = snap.Fetch(ctx, 211)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshot_StaleEntryIsMissButKept(t *testing.T) {
	ctx := context.Background()
	snap, mr, clock := setupSnapshot[models.Score](t, ScorePrefix)

	_, err := snap.Save(ctx, 211, []models.Score{
		score(map[string]string{models.FieldGameID: "1"}),
	})
	require.NoError(t, err)

	clock.advance(299 * time.Second)
	got, err := snap.Fetch(ctx, 211)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	clock.advance(time.Second)
	got, err = snap.Fetch(ctx, 211)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.True(t, mr.Exists(snap.Key(211)), "stale entries are left for the next save")
}

func TestSnapshot_SaveMergesWithFreshSnapshot(t *testing.T) {
	ctx := context.Background()
	snap, _, _ := setupSnapshot[models.Score](t, ScorePrefix)

	_, err := snap.Save(ctx, 211, []models.Score{
		score(map[string]string{
			models.FieldGameID:       "1",
			models.FieldAwayScore:    "7",
			models.FieldSpreadMargin: "44.5",
		}),
	})
	require.NoError(t, err)

	n, err := snap.Save(ctx, 211, []models.Score{
		score(map[string]string{models.FieldGameID: "1", models.FieldAwayScore: "14"}),
		score(map[string]string{models.FieldGameID: "2"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := snap.Fetch(ctx, 211)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 14, got[0].AwayScore)
	assert.Equal(t, 44.5, got[0].SpreadMargin, "fields missing from the update survive")
	assert.Equal(t, 2, got[1].GameID)
}

func TestSnapshot_CountIsInputSize(t *testing.T) {
	ctx := context.Background()
	snap, _, _ := setupSnapshot[models.Tally](t, TallyPrefix)

	_, err := snap.Save(ctx, 211, []models.Tally{
		{Year: 2016, Week: 211, Owner: "Alice", Score: 3},
		{Year: 2016, Week: 211, Owner: "Bob", Score: 1},
	})
	require.NoError(t, err)

	n, err := snap.Save(ctx, 211, []models.Tally{{Year: 2016, Week: 211, Owner: "Bob", Score: 4}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := snap.Fetch(ctx, 211)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Score)
	assert.Equal(t, 4, got[1].Score)
}

func TestSnapshot_SpreadPicksSurviveCache(t *testing.T) {
	ctx := context.Background()
	snap, _, _ := setupSnapshot[models.Spread](t, SpreadPrefix)

	spread := models.NewSpread(2016, 211, "Alice")
	spread.SetPick("56115", models.PickGroup{"HOU", "O", "45"})

	_, err := snap.Save(ctx, 211, []models.Spread{spread})
	require.NoError(t, err)

	got, err := snap.Fetch(ctx, 211)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].Owner)
	assert.Equal(t, models.PickGroup{"HOU", "O", "45"}, got[0].Picks["56115"])
}

func TestSnapshot_EmptySaveWritesNothing(t *testing.T) {
	snap, mr, _ := setupSnapshot[models.Score](t, ScorePrefix)

	n, err := snap.Save(context.Background(), 211, nil)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, mr.Exists(snap.Key(211)))
}

func TestSnapshot_BackendDown(t *testing.T) {
	snap, mr, _ := setupSnapshot[models.Score](t, ScorePrefix)
	mr.Close()

	_, err := snap.Fetch(context.Background(), 211)

	var storageErr *models.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "redis", storageErr.Backend)
}

func TestSnapshot_SaveDoesNotCountHitsOrMisses(t *testing.T) {
	ctx := context.Background()
	prefix := "METRICS_"
	snap, _, _ := setupSnapshot[models.Score](t, prefix)
	hits := metrics.CacheHitsTotal.WithLabelValues(prefix)
	misses := metrics.CacheMissesTotal.WithLabelValues(prefix)

	record := score(map[string]string{models.FieldGameID: "1", models.FieldHomeName: "SD"})
	_, err := snap.Save(ctx, 211, []models.Score{record})
	require.NoError(t, err)
	_, err = snap.Save(ctx, 211, []models.Score{record})
	require.NoError(t, err)

	assert.Zero(t, testutil.ToFloat64(hits))
	assert.Zero(t, testutil.ToFloat64(misses))

	_, err = snap.Fetch(ctx, 211)
	require.NoError(t, err)
	_, err = snap.Fetch(ctx, 212)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(misses))
}

//go:build integration

package repository

import (
	"testing"
	"time"

	"spreadpool/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreRepository_SaveInsertsUnderWeek(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	scores := []models.Score{
		models.ScoreFromParams(map[string]string{"game_id": "100", "home_name": "SD"}),
		models.ScoreFromParams(map[string]string{"game_id": "200", "home_name": "NE"}),
	}

	n, err := db.Scores.Save(ctx, 102, scores)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stored, err := db.Scores.ListByWeek(ctx, 102)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 200, stored[0].GameID, "Should order by game id descending")
	assert.Equal(t, 100, stored[1].GameID)
	assert.Equal(t, 102, stored[0].Week)
}

func TestScoreRepository_SaveKeepsStoredSpread(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	_, err := db.Scores.Save(ctx, 102, []models.Score{
		models.ScoreFromParams(map[string]string{
			"game_id":       "100",
			"away_score":    "7",
			"spread_margin": "44.5",
			"spread_odds":   "-3",
		}),
	})
	require.NoError(t, err)

	feed := models.ScoreFromParams(map[string]string{"game_id": "100", "away_score": "14"})
	update := []models.Score{feed}
	_, err = db.Scores.Save(ctx, 102, update)
	require.NoError(t, err)

	assert.Equal(t, 44.5, update[0].SpreadMargin, "Should reconcile the caller's record with stored spread")
	assert.Equal(t, -3.0, update[0].SpreadOdds)
	assert.Equal(t, 14, update[0].AwayScore)

	stored, err := db.Scores.ListByWeek(ctx, 102)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 14, stored[0].AwayScore)
	assert.Equal(t, 44.5, stored[0].SpreadMargin)
}

func TestScoreRepository_SaveTrustsRecordWeek(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	_, err := db.Scores.Save(ctx, 5, []models.Score{
		models.ScoreFromParams(map[string]string{"game_id": "100", "week": "103"}),
	})
	require.NoError(t, err)

	stored, err := db.Scores.ListByWeek(ctx, 103)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	other, err := db.Scores.ListByWeek(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestScoreRepository_FetchRejectsStaleLiveWeek(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	// Week 11 of the regular season
	calendar := testCalendar()
	calendar.WeekOne = time.Now().AddDate(0, 0, -7*10)
	db.Scores.calendar = calendar

	_, err := db.Scores.Save(ctx, 211, []models.Score{
		models.ScoreFromParams(map[string]string{"game_id": "100"}),
	})
	require.NoError(t, err)

	fresh, err := db.Scores.Fetch(ctx, 211)
	require.NoError(t, err)
	assert.Len(t, fresh, 1)

	db.Scores.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	stale, err := db.Scores.Fetch(ctx, 211)
	require.NoError(t, err)
	assert.Empty(t, stale, "Should reject live-week scores older than the freshness window")

	past, err := db.Scores.Fetch(ctx, 203)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestScoreRepository_FetchKeepsStalePastWeek(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	calendar := testCalendar()
	calendar.WeekOne = time.Now().AddDate(0, 0, -7*10)
	db.Scores.calendar = calendar

	_, err := db.Scores.Save(ctx, 203, []models.Score{
		models.ScoreFromParams(map[string]string{"game_id": "100"}),
	})
	require.NoError(t, err)

	db.Scores.now = func() time.Time { return time.Now().Add(time.Hour) }
	scores, err := db.Scores.Fetch(ctx, 203)
	require.NoError(t, err)
	assert.Len(t, scores, 1, "Finished weeks are never stale")
}

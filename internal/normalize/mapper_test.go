package normalize

import (
	"testing"

	"spreadpool/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapScoreboard_Regular(t *testing.T) {
	scores, err := MapScoreboard(regularFeed)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	first := scores[0]
	assert.Equal(t, "MIN", first.AwayName)
	assert.Equal(t, 16, first.AwayScore)
	assert.Equal(t, "BUF", first.HomeName)
	assert.Equal(t, 20, first.HomeScore)
	assert.Equal(t, "Fri", first.GameDay)
	assert.Equal(t, "7:00", first.GameTime)
	assert.Equal(t, "Final", first.GameStatus)
	assert.Equal(t, "", first.GameClock)
	assert.Equal(t, "REG11", first.GameTag)
	assert.Equal(t, 56115, first.GameID)
	assert.Equal(t, 2013, first.Year)
	assert.Equal(t, 211, first.Week)

	assert.Equal(t, 56116, scores[1].GameID)
	assert.Equal(t, "KC", scores[1].HomeName)
}

func TestMapScoreboard_OmitsSpreadFields(t *testing.T) {
	scores, err := MapScoreboard(regularFeed)
	require.NoError(t, err)

	assert.False(t, scores[0].Has(models.FieldSpreadMargin))
	assert.False(t, scores[0].Has(models.FieldSpreadOdds))
	assert.True(t, scores[0].Has(models.FieldHomeScore))
}

func TestMapScoreboard_Postseason(t *testing.T) {
	scores, err := MapScoreboard(postseasonFeed)
	require.NoError(t, err)
	require.Len(t, scores, 1)

	game := scores[0]
	assert.Equal(t, "BAL", game.AwayName)
	assert.Equal(t, 38, game.AwayScore)
	assert.Equal(t, "DEN", game.HomeName)
	assert.Equal(t, 35, game.HomeScore)
	assert.Equal(t, 55829, game.GameID)
	assert.Equal(t, "POST22", game.GameTag)
	assert.Equal(t, 2012, game.Year)
	assert.Equal(t, 322, game.Week)
	assert.Equal(t, "final overtime", game.GameStatus, "the mapper alone does not canonicalize")
}

func TestMapScoreboard_PreseasonTakesRegularOffset(t *testing.T) {
	scores, err := MapScoreboard(preseasonFeed)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	for _, game := range scores {
		assert.Equal(t, 202, game.Week)
	}
	assert.Equal(t, "ARI", scores[1].HomeName)
}

func TestMapScoreboard_ProBowlTakesPostseasonOffset(t *testing.T) {
	scores, err := MapScoreboard(proBowlFeed)
	require.NoError(t, err)
	require.Len(t, scores, 1)

	assert.Equal(t, 321, scores[0].Week)
	assert.Equal(t, "NPC", scores[0].HomeName)
	assert.Equal(t, 57001, scores[0].GameID)
}

func TestMapScoreboard_SentinelWeekIsNotOffset(t *testing.T) {
	scores, err := MapScoreboard(sentinelFeed)
	require.NoError(t, err)
	require.Len(t, scores, 1)

	assert.Equal(t, 1234, scores[0].Week)
}

func TestMapScoreboard_Malformed(t *testing.T) {
	tests := []struct {
		name string
		feed string
	}{
		{"not json", `{"ss":[[`},
		{"missing key", `{"games":[]}`},
		{"wrong shape", `{"ss":{"a":1}}`},
		{"short row", `{"ss":[["Fri","REG11","2013"]]}`},
		{"unknown tag", `{"ss":[["Fri","7:00","Final",0,"MIN","16","BUF","20",0,0,"56115",0,"XYZ11","2013"]]}`},
		{"tag without week", `{"ss":[["Fri","7:00","Final",0,"MIN","16","BUF","20",0,0,"56115",0,"REG","2013"]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := MapScoreboard(tt.feed)
			assert.Error(t, err)
			assert.Empty(t, scores)
		})
	}
}

func TestMapScoreboard_EmptyFeed(t *testing.T) {
	scores, err := MapScoreboard(`{"ss":[]}`)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

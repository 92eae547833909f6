//go:build integration

package repository

import (
	"testing"

	"spreadpool/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpreadRepository_SaveAndFetch(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	alice := models.NewSpread(2016, 0, "Alice")
	alice.SetPick("56115", models.PickGroup{"HOU", "O", "45"})
	bob := models.NewSpread(2016, 0, "Bob")
	bob.SetPick("56116", models.PickGroup{"NE"})

	n, err := db.Spreads.Save(ctx, 202, []models.Spread{alice, bob})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	spreads, err := db.Spreads.Fetch(ctx, 202)
	require.NoError(t, err)
	require.Len(t, spreads, 2)
	assert.Equal(t, "Bob", spreads[0].Owner, "Should order by owner descending")
	assert.Equal(t, 202, spreads[0].Week)
	assert.Equal(t, models.PickGroup{"HOU", "O", "45"}, spreads[1].Picks["56115"])
}

func TestSpreadRepository_SaveMergesPicks(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	first := models.NewSpread(2016, 202, "Alice")
	first.SetPick("56115", models.PickGroup{"HOU"})
	_, err := db.Spreads.Save(ctx, 202, []models.Spread{first})
	require.NoError(t, err)

	second := models.NewSpread(2016, 202, "Alice")
	second.SetPick("56116", models.PickGroup{"NE", "U", "38"})
	_, err = db.Spreads.Save(ctx, 202, []models.Spread{second})
	require.NoError(t, err)

	spreads, err := db.Spreads.Fetch(ctx, 202)
	require.NoError(t, err)
	require.Len(t, spreads, 1)
	assert.Len(t, spreads[0].Picks, 2, "Earlier picks should survive a partial update")
}

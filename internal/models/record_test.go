package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeByIdentity_Scores(t *testing.T) {
	existing := []Score{storedScore(), {GameID: 99, HomeName: "NE"}}

	update := ScoreFromParams(map[string]string{FieldGameID: "1234", FieldHomeScore: "45"})
	fresh := Score{GameID: 7, HomeName: "DAL"}

	merged := MergeByIdentity(existing, []Score{update, fresh})

	assert.Len(t, merged, 3)
	assert.Equal(t, 45, merged[0].HomeScore)
	assert.Equal(t, 49.5, merged[0].SpreadMargin)
	assert.Equal(t, "NE", merged[1].HomeName)
	assert.Equal(t, "DAL", merged[2].HomeName)
	assert.Equal(t, 31, existing[0].HomeScore, "inputs are not mutated")
}

func TestMergeByIdentity_DuplicateIncoming(t *testing.T) {
	first := Tally{Owner: "Reclaimer", Week: 211, Score: 3}
	second := Tally{Owner: "Reclaimer", Score: 5}

	merged := MergeByIdentity(nil, []Tally{first, second})

	assert.Len(t, merged, 1)
	assert.Equal(t, 5, merged[0].Score)
	assert.Equal(t, 211, merged[0].Week)
}

func TestIsIngestionFailure(t *testing.T) {
	assert.True(t, IsIngestionFailure(&MappingError{Owner: "Reclaimer", Team: "ZZZ"}))
	assert.True(t, IsIngestionFailure(fmt.Errorf("wrapped: %w", &ExtractionError{Err: errors.New("no tables")})))
	assert.False(t, IsIngestionFailure(&StorageError{Backend: "redis", Op: "get", Err: errors.New("down")}))
}

func TestErrorMessages(t *testing.T) {
	down := errors.New("connection refused")

	storage := &StorageError{Backend: "postgres", Op: "save scores", Err: down}
	assert.Equal(t, "postgres save scores failed: connection refused", storage.Error())
	assert.ErrorIs(t, storage, down)

	status := &SourceFetchError{URL: "http://feed", Status: 503}
	assert.Equal(t, "scoreboard fetch http://feed returned status 503", status.Error())

	assert.Contains(t, (&MappingError{Owner: "Reclaimer", Team: "ZZZ"}).Error(), `"ZZZ"`)
}

package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"spreadpool/internal/models"
	"spreadpool/internal/season"
)

// scoreboardKey holds the game list in the feed object
const scoreboardKey = "ss"

// phasePrefixes maps the first three characters of a game tag to its phase
var phasePrefixes = map[string]season.Phase{
	"PRE": season.Preseason,
	"REG": season.Regular,
	"POS": season.Postseason,
	"PRO": season.Postseason,
}

// layout is the positional column set of one feed variant
type layout struct {
	day, time, status, clock int
	awayName, awayScore      int
	homeName, homeScore      int
	gameID, tag, year        int
}

func (l layout) width() int {
	return max(l.day, l.time, l.status, l.clock, l.awayName, l.awayScore,
		l.homeName, l.homeScore, l.gameID, l.tag, l.year) + 1
}

var (
	regularLayout = layout{
		day: 0, time: 1, status: 2, clock: 3,
		awayName: 4, awayScore: 5,
		homeName: 6, homeScore: 7,
		gameID: 10, tag: 12, year: 13,
	}
	postseasonLayout = layout{
		day: 0, time: 1, status: 2, clock: 3,
		awayName: 5, awayScore: 6,
		homeName: 8, homeScore: 9,
		gameID: 12, tag: 15, year: 16,
	}
)

var errNoDigits = errors.New("game tag has no week number")

// MapScoreboard parses repaired feed text of the form {"ss": [[...], ...]}.
//
// The phase comes from the game tag, the second to last column. Postseason
// games use their own column layout and always get the postseason offset.
// Every other game uses the regular layout and the regular-season offset,
// unless its tag week is already 100 or more.
func MapScoreboard(text string) ([]models.Score, error) {
	var feed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &feed); err != nil {
		return nil, &models.NormalizationError{Stage: "decode", Err: err}
	}

	rawGames, ok := feed[scoreboardKey]
	if !ok {
		return nil, &models.NormalizationError{Stage: "decode", Err: fmt.Errorf("missing %q", scoreboardKey)}
	}

	var games [][]any
	if err := json.Unmarshal(rawGames, &games); err != nil {
		return nil, &models.NormalizationError{Stage: "decode", Err: err}
	}

	scores := make([]models.Score, 0, len(games))
	for i, game := range games {
		score, err := mapGame(game)
		if err != nil {
			return nil, &models.NormalizationError{Stage: "map", Err: fmt.Errorf("game %d: %w", i, err)}
		}
		scores = append(scores, score)
	}
	return scores, nil
}

func mapGame(game []any) (models.Score, error) {
	if len(game) < 2 {
		return models.Score{}, fmt.Errorf("row has %d columns", len(game))
	}

	tag := asString(game[len(game)-2])
	if len(tag) < 3 {
		return models.Score{}, fmt.Errorf("unreadable game tag %q", tag)
	}
	prefix := tag[:3]
	phase, ok := phasePrefixes[prefix]
	if !ok {
		return models.Score{}, fmt.Errorf("unknown game tag %q", tag)
	}

	l := regularLayout
	if prefix == "POS" {
		l = postseasonLayout
	}
	if len(game) < l.width() {
		return models.Score{}, fmt.Errorf("row has %d columns, want %d", len(game), l.width())
	}

	week, err := tagWeek(asString(game[l.tag]))
	if err != nil {
		return models.Score{}, err
	}
	switch {
	case prefix == "POS":
		week += phase.Offset()
	case week >= season.NamespaceBase:
	case phase == season.Postseason:
		// Pro Bowl rows use the regular layout but belong to the postseason.
		week += phase.Offset()
	default:
		// Preseason tags take the regular-season offset as well.
		week += season.Regular.Offset()
	}

	score := models.Score{
		Year:       asInt(game[l.year]),
		Week:       week,
		GameID:     asInt(game[l.gameID]),
		AwayName:   asString(game[l.awayName]),
		AwayScore:  asInt(game[l.awayScore]),
		HomeName:   asString(game[l.homeName]),
		HomeScore:  asInt(game[l.homeScore]),
		GameClock:  asString(game[l.clock]),
		GameDay:    asString(game[l.day]),
		GameStatus: asString(game[l.status]),
		GameTag:    asString(game[l.tag]),
		GameTime:   asString(game[l.time]),
	}
	// The feed knows nothing about the pool's line; the store owns it.
	score.Omit(models.FieldSpreadMargin, models.FieldSpreadOdds)
	return score, nil
}

// tagWeek reads the digits of a tag such as "REG11" or "POST22"
func tagWeek(tag string) (int, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, tag)
	if digits == "" {
		return 0, errNoDigits
	}
	return strconv.Atoi(digits)
}

// asString returns a feed cell as text. Falsy cells (0, null, "") become "".
func asString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == 0 {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if !val {
			return ""
		}
		return "true"
	default:
		return ""
	}
}

// asInt returns a feed cell as a number. Unreadable cells become 0.
func asInt(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		return models.CoerceInt(val)
	default:
		return 0
	}
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Score field names, shared by the JSON wire format and API parameters
const (
	FieldAwayName     = "away_name"
	FieldAwayScore    = "away_score"
	FieldGameClock    = "game_clock"
	FieldGameDay      = "game_day"
	FieldYear         = "year"
	FieldGameStatus   = "game_status"
	FieldGameTag      = "game_tag"
	FieldGameTime     = "game_time"
	FieldWeek         = "week"
	FieldHomeName     = "home_name"
	FieldHomeScore    = "home_score"
	FieldGameID       = "game_id"
	FieldSpreadMargin = "spread_margin"
	FieldSpreadOdds   = "spread_odds"
)

// Score is one game of one week.
//
// A Score remembers which fields it was given. Fields that were never supplied
// are left alone when the record is merged over a stored one, which is how
// spread margin and odds survive updates from the live feed.
type Score struct {
	Year         int       `db:"year"`
	Week         int       `db:"week"`
	GameID       int       `db:"game_id"`
	AwayName     string    `db:"away_name"`
	AwayScore    int       `db:"away_score"`
	HomeName     string    `db:"home_name"`
	HomeScore    int       `db:"home_score"`
	GameClock    string    `db:"game_clock"`
	GameDay      string    `db:"game_day"`
	GameStatus   string    `db:"game_status"`
	GameTag      string    `db:"game_tag"`
	GameTime     string    `db:"game_time"`
	SpreadMargin float64   `db:"spread_margin"`
	SpreadOdds   float64   `db:"spread_odds"`
	UpdatedAt    time.Time `db:"updated_at"`

	absent fieldSet
}

type fieldSet uint32

func (f fieldSet) has(i int) bool { return f&(1<<uint(i)) != 0 }

type scoreField struct {
	name   string
	copy   func(dst, src *Score)
	value  func(s *Score) any
	parse  func(s *Score, raw string)
	decode func(s *Score, raw json.RawMessage) error
}

func newScoreField[V any](name string, at func(*Score) *V, coerce func(string) V) scoreField {
	return scoreField{
		name:  name,
		copy:  func(dst, src *Score) { *at(dst) = *at(src) },
		value: func(s *Score) any { return *at(s) },
		parse: func(s *Score, raw string) { *at(s) = coerce(raw) },
		decode: func(s *Score, raw json.RawMessage) error {
			if err := json.Unmarshal(raw, at(s)); err != nil {
				// Form-style clients send numbers as strings.
				var text string
				if json.Unmarshal(raw, &text) != nil {
					return err
				}
				*at(s) = coerce(text)
			}
			return nil
		},
	}
}

// scoreFields is the merge and wire table for Score, in wire order.
var scoreFields = []scoreField{
	newScoreField(FieldAwayName, func(s *Score) *string { return &s.AwayName }, CoerceString),
	newScoreField(FieldAwayScore, func(s *Score) *int { return &s.AwayScore }, CoerceInt),
	newScoreField(FieldGameClock, func(s *Score) *string { return &s.GameClock }, CoerceString),
	newScoreField(FieldGameDay, func(s *Score) *string { return &s.GameDay }, CoerceString),
	newScoreField(FieldYear, func(s *Score) *int { return &s.Year }, CoerceInt),
	newScoreField(FieldGameStatus, func(s *Score) *string { return &s.GameStatus }, CoerceString),
	newScoreField(FieldGameTag, func(s *Score) *string { return &s.GameTag }, CoerceString),
	newScoreField(FieldGameTime, func(s *Score) *string { return &s.GameTime }, CoerceString),
	newScoreField(FieldWeek, func(s *Score) *int { return &s.Week }, CoerceInt),
	newScoreField(FieldHomeName, func(s *Score) *string { return &s.HomeName }, CoerceString),
	newScoreField(FieldHomeScore, func(s *Score) *int { return &s.HomeScore }, CoerceInt),
	newScoreField(FieldGameID, func(s *Score) *int { return &s.GameID }, CoerceInt),
	newScoreField(FieldSpreadMargin, func(s *Score) *float64 { return &s.SpreadMargin }, CoerceFloat),
	newScoreField(FieldSpreadOdds, func(s *Score) *float64 { return &s.SpreadOdds }, CoerceFloat),
}

var allScoreFields = fieldSet(1<<uint(len(scoreFields)) - 1)

func scoreFieldIndex(name string) int {
	for i, f := range scoreFields {
		if f.name == name {
			return i
		}
	}
	return -1
}

// ScoreFieldNames lists every Score field in wire order
func ScoreFieldNames() []string {
	names := make([]string, len(scoreFields))
	for i, f := range scoreFields {
		names[i] = f.name
	}
	return names
}

// ScoreFromParams builds a partial Score from loosely typed request
// parameters. Unknown keys are ignored; values that fail to convert become the
// zero value of the field.
func ScoreFromParams(params map[string]string) Score {
	s := Score{absent: allScoreFields}
	for i, f := range scoreFields {
		raw, ok := params[f.name]
		if !ok {
			continue
		}
		f.parse(&s, raw)
		s.absent &^= 1 << uint(i)
	}
	return s
}

// Has reports whether the named field was supplied
func (s Score) Has(name string) bool {
	i := scoreFieldIndex(name)
	return i >= 0 && !s.absent.has(i)
}

// Omit marks fields as not supplied, so a merge keeps the stored values
func (s *Score) Omit(names ...string) {
	for _, name := range names {
		if i := scoreFieldIndex(name); i >= 0 {
			s.absent |= 1 << uint(i)
		}
	}
}

// Identity returns the merge key for the record
func (s Score) Identity() string {
	return strconv.Itoa(s.GameID)
}

// Merge lays the supplied fields of incoming over s
func (s Score) Merge(incoming Score) Score {
	out := s
	for i, f := range scoreFields {
		if incoming.absent.has(i) {
			continue
		}
		f.copy(&out, &incoming)
		out.absent &^= 1 << uint(i)
	}
	if incoming.UpdatedAt.After(out.UpdatedAt) {
		out.UpdatedAt = incoming.UpdatedAt
	}
	return out
}

// MarshalJSON writes the supplied fields in table order
func (s Score) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for i, f := range scoreFields {
		if s.absent.has(i) {
			continue
		}
		value, err := json.Marshal(f.value(&s))
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", f.name, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&buf, "%q:", f.name)
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a Score, remembering which keys were present.
// Null values count as absent.
func (s *Score) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Score{absent: allScoreFields}
	for i, f := range scoreFields {
		value, ok := raw[f.name]
		if !ok || string(value) == "null" {
			continue
		}
		if err := f.decode(&out, value); err != nil {
			return fmt.Errorf("invalid %s: %w", f.name, err)
		}
		out.absent &^= 1 << uint(i)
	}

	*s = out
	return nil
}

// IsFinal returns true if the game has finished
func (s Score) IsFinal() bool {
	return strings.HasPrefix(strings.ToLower(s.GameStatus), "final")
}

package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FieldOwner is the Spread identity field
const FieldOwner = "owner"

// PickGroup is an owner's pick for one game: the team, then optionally an
// over/under token and a total score guess.
type PickGroup []string

// Team returns the picked team
func (p PickGroup) Team() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// OverUnder returns the over/under token, if one was given
func (p PickGroup) OverUnder() (string, bool) {
	if len(p) < 2 {
		return "", false
	}
	return p[1], true
}

// Guess returns the total score guess, if one was given and parses.
// Fractional guesses are truncated.
func (p PickGroup) Guess() (int, bool) {
	if len(p) < 3 {
		return 0, false
	}
	raw := strings.TrimSpace(p[2])
	if v, err := strconv.Atoi(raw); err == nil {
		return v, true
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(v), true
	}
	return 0, false
}

// IsSkip reports whether the group marks a game the owner skipped
func (p PickGroup) IsSkip() bool {
	return IsSkipToken(p.Team())
}

// IsSkipToken reports whether a token is the "X" placeholder
func IsSkipToken(token string) bool {
	return token == "X" || token == "x"
}

// Spread holds one owner's picks for a week, keyed by game id
type Spread struct {
	Year      int                  `db:"year"`
	Week      int                  `db:"week"`
	Owner     string               `db:"owner"`
	Picks     map[string]PickGroup `db:"picks"`
	UpdatedAt time.Time            `db:"updated_at"`
}

// NewSpread creates an empty Spread for an owner
func NewSpread(year, week int, owner string) Spread {
	return Spread{
		Year:  year,
		Week:  week,
		Owner: owner,
		Picks: map[string]PickGroup{},
	}
}

// SetPick records a pick group for a game. Empty and skipped groups are dropped.
func (s *Spread) SetPick(gameID string, group PickGroup) {
	if len(group) == 0 || group.IsSkip() {
		return
	}
	if s.Picks == nil {
		s.Picks = map[string]PickGroup{}
	}
	s.Picks[gameID] = group
}

// Pick returns the pick group for a game
func (s Spread) Pick(gameID int) (PickGroup, bool) {
	group, ok := s.Picks[strconv.Itoa(gameID)]
	return group, ok
}

// GameIDs returns the picked game ids in ascending order
func (s Spread) GameIDs() []string {
	ids := make([]string, 0, len(s.Picks))
	for id := range s.Picks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Identity returns the merge key for the record
func (s Spread) Identity() string {
	return s.Owner
}

// Merge lays the non-empty fields of incoming over s. Picks missing from
// incoming are kept.
func (s Spread) Merge(incoming Spread) Spread {
	out := s
	out.Picks = make(map[string]PickGroup, len(s.Picks)+len(incoming.Picks))
	for id, group := range s.Picks {
		out.Picks[id] = group
	}

	if incoming.Year != 0 {
		out.Year = incoming.Year
	}
	if incoming.Week != 0 {
		out.Week = incoming.Week
	}
	if incoming.Owner != "" {
		out.Owner = incoming.Owner
	}
	for id, group := range incoming.Picks {
		out.SetPick(id, group)
	}
	if incoming.UpdatedAt.After(out.UpdatedAt) {
		out.UpdatedAt = incoming.UpdatedAt
	}
	return out
}

// MarshalJSON flattens picks next to the named fields
func (s Spread) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(s.Picks)+3)
	for id, group := range s.Picks {
		flat[id] = group
	}
	flat[FieldYear] = s.Year
	flat[FieldWeek] = s.Week
	flat[FieldOwner] = s.Owner
	return json.Marshal(flat)
}

// UnmarshalJSON reads the flat form. Keys that are game ids become picks; list
// keys may carry a trailing "[]" from form encoders. Anything else is ignored.
func (s *Spread) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Spread{Picks: map[string]PickGroup{}}
	for key, value := range raw {
		switch key {
		case FieldYear:
			year, err := decodeLooseInt(value)
			if err != nil {
				return fmt.Errorf("invalid year: %w", err)
			}
			out.Year = year
		case FieldWeek:
			week, err := decodeLooseInt(value)
			if err != nil {
				return fmt.Errorf("invalid week: %w", err)
			}
			out.Week = week
		case FieldOwner:
			if err := json.Unmarshal(value, &out.Owner); err != nil {
				return fmt.Errorf("invalid owner: %w", err)
			}
		default:
			id := strings.TrimSuffix(key, "[]")
			if _, err := strconv.Atoi(id); err != nil {
				continue
			}
			group, err := decodePickGroup(value)
			if err != nil {
				return fmt.Errorf("invalid pick for game %s: %w", id, err)
			}
			out.SetPick(id, group)
		}
	}

	*s = out
	return nil
}

func decodeLooseInt(raw json.RawMessage) (int, error) {
	if string(raw) == "null" {
		return 0, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n), nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, err
	}
	return CoerceInt(text), nil
}

func decodePickGroup(raw json.RawMessage) (PickGroup, error) {
	if string(raw) == "null" {
		return nil, nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return PickGroup{single}, nil
	}

	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	group := make(PickGroup, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			group = append(group, v)
		case float64:
			group = append(group, strconv.FormatFloat(v, 'f', -1, 64))
		case nil:
			continue
		default:
			return nil, fmt.Errorf("unsupported pick token %v", v)
		}
	}
	return group, nil
}

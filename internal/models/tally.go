package models

import "time"

// Tally is an owner's point total for a week
type Tally struct {
	Year      int       `json:"year" db:"year"`
	Week      int       `json:"week" db:"week"`
	Owner     string    `json:"owner" db:"owner"`
	Score     int       `json:"score" db:"score"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// Identity returns the merge key for the record
func (t Tally) Identity() string {
	return t.Owner
}

// Merge replaces the score with the recomputed one
func (t Tally) Merge(incoming Tally) Tally {
	out := incoming
	if out.Year == 0 {
		out.Year = t.Year
	}
	if out.Week == 0 {
		out.Week = t.Week
	}
	if out.Owner == "" {
		out.Owner = t.Owner
	}
	if t.UpdatedAt.After(out.UpdatedAt) {
		out.UpdatedAt = t.UpdatedAt
	}
	return out
}

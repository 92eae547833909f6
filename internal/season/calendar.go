// Package season maps wall-clock time onto pool weeks.
//
// Persisted weeks are namespaced by phase: a bare week number plus an offset of
// 100 (preseason), 200 (regular season) or 300 (postseason). Anything at or
// above 100 is already namespaced.
package season

import (
	"fmt"
	"time"
)

// Phase is a part of the season. Its value is the namespace offset.
type Phase int

const (
	Preseason  Phase = 100
	Regular    Phase = 200
	Postseason Phase = 300
)

// NamespaceBase is the smallest namespaced week.
const NamespaceBase = 100

// Offset returns the additive week offset for the phase
func (p Phase) Offset() int {
	return int(p)
}

func (p Phase) String() string {
	switch p {
	case Preseason:
		return "preseason"
	case Regular:
		return "regular"
	case Postseason:
		return "postseason"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Calendar holds the season boundaries used for week arithmetic
type Calendar struct {
	Year           int
	PreseasonStart time.Time
	WeekOne        time.Time
	RegularWeeks   int
}

// ElapsedWeek returns the regular-season week containing now. Values at or
// below zero fall before week one.
func (c *Calendar) ElapsedWeek(now time.Time) int {
	return weekSince(c.WeekOne, now)
}

// Phase returns the season phase at now
func (c *Calendar) Phase(now time.Time) Phase {
	week := c.ElapsedWeek(now)
	switch {
	case week <= 0:
		return Preseason
	case week > c.RegularWeeks:
		return Postseason
	default:
		return Regular
	}
}

// DefaultWeek returns the bare week a request without a week refers to.
// Before week one the count restarts from the preseason start.
func (c *Calendar) DefaultWeek(now time.Time) int {
	week := c.ElapsedWeek(now)
	if week <= 0 {
		week = weekSince(c.PreseasonStart, now)
	}
	return week
}

// Namespace translates a bare week into the namespaced form for the phase at
// now. Weeks that are already namespaced pass through unchanged.
func (c *Calendar) Namespace(week int, now time.Time) int {
	if week < NamespaceBase {
		return week + c.Phase(now).Offset()
	}
	return week
}

// IsPostseason reports whether a week belongs to the postseason feed
func (c *Calendar) IsPostseason(week int) bool {
	if week >= NamespaceBase {
		return week/NamespaceBase == Postseason.Offset()/NamespaceBase
	}
	return week > c.RegularWeeks
}

// Bare strips the namespace offset from a week
func Bare(week int) int {
	return week % NamespaceBase
}

// weekSince counts whole weeks from start, one-based, flooring for instants
// before start.
func weekSince(start, now time.Time) int {
	days := floorDiv(int(now.Sub(start)/time.Second), 24*60*60)
	return floorDiv(days, 7) + 1
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

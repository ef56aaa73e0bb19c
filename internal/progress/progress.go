// Package progress locates a calendar date within the TTFPP programme
// timeline as a (week, day-of-week) pair. Day 1 is the programme start day,
// not Monday.
package progress

import "time"

// Position is the attendance cell a date falls into.
type Position struct {
	Week int `json:"week"`
	Day  int `json:"day"` // 1-7
}

// Compute derives the programme week and day for ref given the placement
// start date. A nil start resolves to {1, 1}, and dates before the start are
// clamped to {1, 1} so the UI always has a valid cell to fill.
func Compute(start *time.Time, ref time.Time) Position {
	if start == nil {
		return Position{Week: 1, Day: 1}
	}

	diffDays := int(startOfDay(ref).Sub(startOfDay(*start)).Hours() / 24)

	week := diffDays/7 + 1
	day := diffDays%7 + 1
	if week < 1 {
		week = 1
	}
	if day < 1 {
		day = 1
	}

	return Position{Week: week, Day: day}
}

// startOfDay collapses t to its UTC calendar date, matching how attendance
// rows are dated, so a capture near midnight in a non-UTC zone lands in the
// same week/day cell as its stored date.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

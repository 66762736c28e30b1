package timeutil

import (
	"fmt"
	"time"
)

// NaiveLayout is how instants are stored in sqlite: local wall-clock in
// the configured zone, with the zone stripped. The layout sorts
// lexicographically, so string comparison in SQL matches time order.
const NaiveLayout = "2006-01-02T15:04:05"

// FloorHour returns t with minutes, seconds and sub-seconds zeroed,
// keeping t's location.
func FloorHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// Naive formats a zone-aware instant as a naive wall-clock string.
// This is the single aware->naive boundary; storage code must not
// format timestamps any other way.
func Naive(t time.Time) string {
	return t.Format(NaiveLayout)
}

// ParseNaive is the naive->aware boundary: it reads a stored wall-clock
// string back as an instant in loc.
func ParseNaive(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(NaiveLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse naive timestamp %q: %w", s, err)
	}
	return t, nil
}

// DayStart returns midnight of t's calendar day in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

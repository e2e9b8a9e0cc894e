// internal/engine/timewindow/timewindow.go
package timewindow

import "time"

// MinutesBetween returns the signed number of whole minutes from a to b.
func MinutesBetween(a, b time.Time) int {
	return int(b.Sub(a) / time.Minute)
}

// MinutesUntil returns the signed number of whole minutes from now to t.
func MinutesUntil(now, t time.Time) int {
	return MinutesBetween(now, t)
}

// StartOfDay returns midnight of the day containing t, in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the first instant of the following day, in t's location.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}

// WithinDay reports whether instant falls in [StartOfDay(day), EndOfDay(day)).
// Zero instants never fall within a day.
func WithinDay(instant, day time.Time) bool {
	if instant.IsZero() {
		return false
	}
	start := StartOfDay(day)
	return !instant.Before(start) && instant.Before(EndOfDay(day))
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	return WithinDay(b, a)
}

package model

import "time"

// DateOnly truncates t to midnight UTC. Ledger dates carry day precision;
// comparisons must never be skewed by the time-of-day component.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from one date to another.
// Negative when 'to' precedes 'from'.
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}

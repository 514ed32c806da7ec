package utils

import "time"

// SameCalendarDate reports whether a and b fall on the same calendar day,
// ignoring the time-of-day and location components.
func SameCalendarDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

package rules

import "time"

// IsActiveHour reports whether now falls inside the submission window.
// Both ends are inclusive. A start hour greater than the end hour means
// the window wraps midnight (overnight channels).
func IsActiveHour(now time.Time, startHour, endHour int) bool {
	h := now.Hour()
	if startHour <= endHour {
		return h >= startHour && h <= endHour
	}
	return h >= startHour || h <= endHour
}

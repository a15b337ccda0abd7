package core

import "time"

// Clock abstracts wall-clock time so the next-fire computation can be tested
// without touching the system clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real local time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// NextNoon returns the next occurrence of 12:00:00 local time relative to
// now: today's noon if now is strictly before it, otherwise tomorrow's noon.
func NextNoon(now time.Time) time.Time {
	noon := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())
	if !now.Before(noon) {
		noon = noon.AddDate(0, 0, 1)
	}
	return noon
}

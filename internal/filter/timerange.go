package filter

import "time"

// TimeRange is a half-open modification-time window. A zero bound is
// unbounded on that side.
type TimeRange struct {
	After  time.Time // inclusive lower bound
	Before time.Time // exclusive upper bound
}

// Contains reports whether t falls inside the window.
func (r TimeRange) Contains(t time.Time) bool {
	if !r.After.IsZero() && t.Before(r.After) {
		return false
	}
	if !r.Before.IsZero() && !t.Before(r.Before) {
		return false
	}
	return true
}

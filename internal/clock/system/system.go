// Package system provides the wall clock used for run timestamps.
package system

import "time"

// Clock implements crawler.Clock using time.Now. Readings are UTC and
// truncated to microseconds, the resolution Postgres stores.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

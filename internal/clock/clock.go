// Package clock provides the wall clock used outside tests.
package clock

import (
	"time"
)

// System reads the real time in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Today is Now truncated to midnight UTC.
func (System) Today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Fixed always returns the same instant. Tests use it to pin "today".
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time { return f.At.UTC() }

func (f Fixed) Today() time.Time {
	y, m, d := f.At.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

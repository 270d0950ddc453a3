package core

import "time"

// Clock supplies "now" to time-dependent transition logic so it remains
// testable without wall-clock dependence.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// NewClock returns a Clock backed by the system wall clock (UTC).
func NewClock() Clock { return realClock{} }

// FixedClock returns a Clock frozen at t; for tests.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

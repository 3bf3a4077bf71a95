package clock

import "time"

// Clock allows injecting time into the reservation engine. Reservation
// dates are kept as milliseconds since epoch, so the interface exposes
// both forms.
type Clock interface {
	Now() time.Time
	NowMillis() int64
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func (systemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock that always returns the same instant (useful for tests).
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

func (f fixedClock) NowMillis() int64 {
	return f.now.UnixMilli()
}

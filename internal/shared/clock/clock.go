package clock

import "time"

// Timer is a scheduled callback that can be stopped before it fires.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the
	// call stopped the timer, false if it already fired or was stopped.
	Stop() bool
}

// Clock is the time source used by the timer registry, the toast
// scheduler and the OTP cooldown.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

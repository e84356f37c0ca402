package session

import "time"

// Timer is the part of *time.Timer the controller uses.
type Timer interface {
	Stop() bool
}

// Clock schedules the debounce and stamps activity. RealClock is used
// unless Options.Clock is set.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

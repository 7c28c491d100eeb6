package core

import "time"

// Clock abstracts time for the Store: Delay effects, envelope timestamps and
// shutdown deadlines all go through it, so a fake clock makes timing-related
// behavior deterministic in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now().UTC() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock { return systemClock{} }

package room

import "time"

// Clock abstracts time for the watchdog timers, so lifecycle tests can
// drive them deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancellable, resettable one-shot timer.
type Timer interface {
	Stop() bool
	Reset(d time.Duration) bool
}

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return systemTimer{time.AfterFunc(d, fn)}
}

type systemTimer struct{ t *time.Timer }

func (s systemTimer) Stop() bool                  { return s.t.Stop() }
func (s systemTimer) Reset(d time.Duration) bool  { return s.t.Reset(d) }

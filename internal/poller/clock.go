package poller

import "time"

// Clock abstracts wall-clock reads so Adaptive's spin-window logic can
// be driven deterministically in tests without a real sleep.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

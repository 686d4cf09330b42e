package playback

import "time"

type (
	// Timer is a pending scheduled call that may be stopped before it fires.
	Timer interface {
		Stop() bool
	}

	// Clock schedules delayed calls. The real implementation wraps time.AfterFunc;
	// tests inject a virtual clock so debounce behavior is verified without
	// wall-clock waits.
	Clock interface {
		AfterFunc(d time.Duration, f func()) Timer
	}

	realClock struct{}
)

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

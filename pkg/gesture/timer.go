package gesture

import "time"

// TimerHandle is a cancellable single-shot debounce timer. Cancel is
// idempotent and safe to call on an already-fired handle.
type TimerHandle interface {
	Cancel()
}

// TimerFactory arms a single-shot timer that calls fire after d. Tests
// substitute a manual implementation to drive the window deterministically.
type TimerFactory func(d time.Duration, fire func()) TimerHandle

type wallTimer struct {
	t *time.Timer
}

func (w wallTimer) Cancel() {
	w.t.Stop()
}

func defaultTimerFactory(d time.Duration, fire func()) TimerHandle {
	return wallTimer{t: time.AfterFunc(d, fire)}
}

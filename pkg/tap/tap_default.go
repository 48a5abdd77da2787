//go:build !darwin

package tap

import (
	"sync"
	"time"

	hook "github.com/robotn/gohook"
)

func defaultSource() Source {
	return &hookSource{}
}

// hookSource adapts the gohook global keyboard hook. It can only observe:
// gohook has no way to swallow an event, so intercept mode is rejected at
// start. System-defined events are likewise invisible to it; the watched
// modifier's own key-down/key-up stands in for flag changes.
type hookSource struct {
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func (s *hookSource) Start(opts Options) error {
	if opts.Mode == ModeIntercept {
		return ErrInterceptUnsupported
	}

	s.done = make(chan struct{})
	modifier := uint16(opts.ModifierKeycode)

	events := hook.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for ev := range events {
			select {
			case <-s.done:
				continue // drain until gohook closes the channel
			default:
			}

			out := Event{Keycode: int(ev.Rawcode), When: time.Now()}
			switch ev.Kind {
			case hook.KeyDown:
				if ev.Rawcode == modifier {
					out.Kind = KindFlagsChanged
					out.ModifierDown = true
				} else {
					out.Kind = KindKeyDown
				}
			case hook.KeyUp:
				if ev.Rawcode != modifier {
					continue
				}
				out.Kind = KindFlagsChanged
				out.ModifierDown = false
			default:
				continue
			}
			opts.Handler(out)
		}
	}()

	return nil
}

func (s *hookSource) Stop() {
	s.once.Do(func() {
		close(s.done)
		hook.End()
	})
	s.wg.Wait()
}

// Package notify fans a recognised gesture out to user-visible feedback:
// a structured log line, a system sound, or anything else implementing
// Notifier.
package notify

import (
	"log/slog"

	"github.com/offlinefirst/fnsolo/pkg/gesture"
)

// Notifier reacts to one recognised gesture. Implementations are invoked on
// the engine's dispatch goroutine and must not block.
type Notifier interface {
	GestureDetected(tr gesture.Trigger)
}

// Func adapts a plain function into a Notifier.
type Func func(gesture.Trigger)

func (f Func) GestureDetected(tr gesture.Trigger) {
	if f != nil {
		f(tr)
	}
}

// Multi fans one gesture out to several notifiers in order.
type Multi []Notifier

func (m Multi) GestureDetected(tr gesture.Trigger) {
	for _, n := range m {
		if n != nil {
			n.GestureDetected(tr)
		}
	}
}

// LogNotifier records each gesture through the structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l *LogNotifier) GestureDetected(tr gesture.Trigger) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("solo modifier gesture", "held", tr.Held, "at", tr.At)
}

// SoundNotifier plays a short system sound for each gesture. On platforms
// without a system sound API it is a no-op.
type SoundNotifier struct {
	// SoundID selects the system sound. Zero falls back to DefaultSoundID.
	SoundID int
}

// DefaultSoundID is the macOS "tink" system sound.
const DefaultSoundID = 1306

func (s *SoundNotifier) GestureDetected(gesture.Trigger) {
	id := s.SoundID
	if id == 0 {
		id = DefaultSoundID
	}
	playSystemSound(id)
}

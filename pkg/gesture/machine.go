package gesture

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/offlinefirst/fnsolo/pkg/tap"
)

// State is the machine's public classification state.
type State uint8

const (
	// StateIdle means no press record exists.
	StateIdle State = iota
	// StateWaiting means the modifier is held and no disqualifying input
	// has been seen.
	StateWaiting
	// StateCancelled means the modifier is still held but the gesture has
	// been disqualified by other input.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Trigger describes one qualifying solo gesture.
type Trigger struct {
	At   time.Time
	Held time.Duration
}

// Config assembles a machine.
type Config struct {
	// Delay is the debounce window that must elapse, uncancelled, while the
	// modifier is held before a release can trigger.
	Delay time.Duration
	// OnTrigger is invoked exactly once per qualifying gesture, on the
	// machine's execution context.
	OnTrigger func(Trigger)
	// Post re-enters the machine's execution context from the wall timer.
	// Required when Timers is left as the default.
	Post   func(func())
	Timers TimerFactory
	Clock  func() time.Time
	Logger *slog.Logger
}

// Machine classifies the normalised event stream into solo-press triggers.
// It is deliberately single-threaded: every method must be called from the
// one goroutine that owns it (in practice the Dispatcher loop), which is
// what makes its state, press record, and timer handle race-free.
type Machine struct {
	delay     time.Duration
	onTrigger func(Trigger)
	post      func(func())
	timers    TimerFactory
	clock     func() time.Time
	logger    *slog.Logger

	state      State
	pressedAt  time.Time
	elapsed    bool
	timer      TimerHandle
	generation uint64
}

// NewMachine validates config and constructs a machine in StateIdle.
func NewMachine(cfg Config) (*Machine, error) {
	if cfg.Delay <= 0 {
		return nil, errors.New("trigger delay must be positive")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	timers := cfg.Timers
	if timers == nil {
		if cfg.Post == nil {
			return nil, errors.New("default timer factory requires a post function")
		}
		timers = defaultTimerFactory
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		delay:     cfg.Delay,
		onTrigger: cfg.OnTrigger,
		post:      cfg.Post,
		timers:    timers,
		clock:     clock,
		logger:    logger,
	}, nil
}

// Handle consumes one event: it first computes the intercept verdict from
// the state as it stands, then applies the transition. The verdict is
// therefore a function of pre-transition state plus the raw event, which is
// what lets the tap callback answer before the outcome of this event is
// known.
func (m *Machine) Handle(ev tap.Event) tap.Verdict {
	verdict := m.verdict(ev)

	switch ev.Kind {
	case tap.KindFlagsChanged:
		if ev.ModifierDown {
			m.handlePress(ev)
		} else {
			m.handleRelease(ev)
		}
	case tap.KindKeyDown, tap.KindSystemDefined:
		m.handleForeignInput(ev)
	}

	return verdict
}

// verdict marks every flag change consumed while a press record exists so
// the system's own handling of the same physical press (such as an input
// source switcher) stays suppressed. Flag changes with no active press
// record, and all non-flag events, pass through.
func (m *Machine) verdict(ev tap.Event) tap.Verdict {
	if ev.Kind == tap.KindFlagsChanged && m.state != StateIdle {
		return tap.VerdictConsume
	}
	return tap.VerdictPass
}

func (m *Machine) handlePress(ev tap.Event) {
	if m.state != StateIdle {
		return
	}

	m.pressedAt = ev.When
	if m.pressedAt.IsZero() {
		m.pressedAt = m.clock()
	}
	m.elapsed = false
	m.state = StateWaiting

	m.generation++
	gen := m.generation
	m.timer = m.timers(m.delay, func() {
		if m.post != nil {
			m.post(func() { m.windowElapsed(gen) })
		} else {
			m.windowElapsed(gen)
		}
	})
	m.logger.Debug("modifier pressed", "delay", m.delay)
}

func (m *Machine) handleRelease(ev tap.Event) {
	switch m.state {
	case StateWaiting:
		fire := m.elapsed
		released := ev.When
		if released.IsZero() {
			released = m.clock()
		}
		held := released.Sub(m.pressedAt)
		m.reset()
		if fire {
			m.logger.Debug("solo gesture recognised", "held", held)
			if m.onTrigger != nil {
				m.onTrigger(Trigger{At: released, Held: held})
			}
		} else {
			m.logger.Debug("released before debounce window elapsed", "held", held)
		}
	case StateCancelled:
		m.reset()
	default:
		// Release with no recorded press: out-of-order delivery, ignore.
	}
}

func (m *Machine) handleForeignInput(ev tap.Event) {
	if m.state != StateWaiting {
		return
	}
	m.cancelTimer()
	m.elapsed = false
	m.state = StateCancelled
	m.logger.Debug("gesture cancelled by other input", "kind", ev.Kind.String())
}

// windowElapsed runs on the machine's context when the debounce timer
// fires. It never triggers and never changes the public state; it only
// records that a subsequent release qualifies. Stale fires from a
// superseded press are discarded by generation.
func (m *Machine) windowElapsed(gen uint64) {
	if gen != m.generation || m.state != StateWaiting {
		return
	}
	m.elapsed = true
}

// Reset cancels any live timer and returns the machine to StateIdle with no
// press record. It is the teardown postcondition for the owning engine.
func (m *Machine) Reset() {
	m.reset()
}

func (m *Machine) reset() {
	m.cancelTimer()
	m.state = StateIdle
	m.pressedAt = time.Time{}
	m.elapsed = false
	m.generation++
}

func (m *Machine) cancelTimer() {
	if m.timer != nil {
		m.timer.Cancel()
		m.timer = nil
	}
}

// SetDelay changes the debounce window. It takes effect on the next armed
// timer; a window already in flight keeps its original duration.
func (m *Machine) SetDelay(d time.Duration) {
	if d > 0 {
		m.delay = d
	}
}

// State reports the current classification state.
func (m *Machine) State() State {
	return m.state
}

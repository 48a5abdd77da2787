package tap

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Kind identifies the category of a normalised input event.
type Kind uint8

const (
	// KindFlagsChanged is a modifier pressed/released state change.
	KindFlagsChanged Kind = iota
	// KindKeyDown is an ordinary character key press.
	KindKeyDown
	// KindSystemDefined covers hardware media/function control events.
	KindSystemDefined
)

func (k Kind) String() string {
	switch k {
	case KindFlagsChanged:
		return "flags_changed"
	case KindKeyDown:
		return "key_down"
	case KindSystemDefined:
		return "system_defined"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Mask selects which event categories the tap listens for.
type Mask uint8

const (
	MaskFlagsChanged Mask = 1 << iota
	MaskKeyDown
	MaskSystemDefined
)

// Has reports whether every bit in other is set.
func (m Mask) Has(other Mask) bool {
	return m&other == other
}

// DefaultMask covers everything the gesture classifier needs.
func DefaultMask() Mask {
	return MaskFlagsChanged | MaskKeyDown | MaskSystemDefined
}

// Mode chooses between observing events and intercepting them.
type Mode uint8

const (
	// ModeObserve delivers events read-only; the system handles them as usual.
	ModeObserve Mode = iota
	// ModeIntercept lets the handler's verdict decide whether the original
	// event is still delivered to the rest of the system.
	ModeIntercept
)

func (m Mode) String() string {
	if m == ModeIntercept {
		return "intercept"
	}
	return "observe"
}

// ParseMode converts a config mode string into a Mode.
func ParseMode(mode string) (Mode, error) {
	switch mode {
	case "", "observe", "listen", "listen-only":
		return ModeObserve, nil
	case "intercept", "block", "block-and-pass-through":
		return ModeIntercept, nil
	default:
		return ModeObserve, fmt.Errorf("unsupported intercept mode %q", mode)
	}
}

// Verdict is the handler's per-event decision in intercept mode.
type Verdict uint8

const (
	// VerdictPass lets the original event continue to the system.
	VerdictPass Verdict = iota
	// VerdictConsume suppresses default system handling of the event.
	VerdictConsume
)

// Event is one normalised input event.
type Event struct {
	Kind Kind
	// ModifierDown reports the watched modifier's pressed state after this
	// event. Only meaningful for KindFlagsChanged.
	ModifierDown bool
	Keycode      int
	When         time.Time
}

// Handler classifies an event and returns the intercept verdict. It is
// invoked on the backend's callback context and must return promptly.
type Handler func(Event) Verdict

// Options configure a tap.
type Options struct {
	Mask            Mask
	Mode            Mode
	ModifierKeycode int
	Handler         Handler
	Logger          *slog.Logger
	Source          Source
}

// Source is a platform backend that produces the raw event stream.
type Source interface {
	// Start installs the OS hook and begins delivering events to the
	// handler. It returns once the hook is installed.
	Start(opts Options) error
	// Stop removes the hook. No handler invocation survives its return.
	Stop()
}

// Tap owns the OS listen port lifecycle: creation bound to a mask and mode,
// forced-disable recovery (handled inside the platform source), and
// deterministic teardown.
type Tap struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	started bool
}

// New validates options and constructs a tap. The platform source is chosen
// automatically unless one is injected.
func New(opts Options) (*Tap, error) {
	if opts.Handler == nil {
		return nil, errors.New("tap handler must not be nil")
	}
	if opts.Mask == 0 {
		return nil, errors.New("tap mask must select at least one event kind")
	}
	if opts.ModifierKeycode <= 0 {
		return nil, errors.New("tap modifier keycode must be positive")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Source == nil {
		opts.Source = defaultSource()
	}
	return &Tap{opts: opts, logger: opts.Logger}, nil
}

// Start creates the listen port and attaches it to the backend's event loop.
// Failures are reported as ErrTapCreationFailed (or ErrInterceptUnsupported
// when the backend cannot intercept).
func (t *Tap) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return ErrAlreadyStarted
	}

	if err := t.opts.Source.Start(t.opts); err != nil {
		if errors.Is(err, ErrInterceptUnsupported) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrTapCreationFailed, err)
	}

	t.started = true
	t.logger.Info("event tap started", "mode", t.opts.Mode.String(), "modifier_keycode", t.opts.ModifierKeycode)
	return nil
}

// Stop detaches and releases the listen port. Idempotent: calling it on an
// already-stopped tap is a no-op.
func (t *Tap) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started {
		return
	}
	t.opts.Source.Stop()
	t.started = false
	t.logger.Info("event tap stopped")
}

// Running reports whether the tap currently owns a live listen port.
func (t *Tap) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

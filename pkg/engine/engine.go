package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/offlinefirst/fnsolo/pkg/config"
	"github.com/offlinefirst/fnsolo/pkg/gesture"
	"github.com/offlinefirst/fnsolo/pkg/permissions"
	"github.com/offlinefirst/fnsolo/pkg/tap"
)

// Options assembles an engine. Gate, Source, Timers, and Clock exist so
// tests can substitute deterministic collaborators; production callers
// leave them nil.
type Options struct {
	// TriggerDelay is the debounce window a solo hold must outlast before
	// its release triggers.
	TriggerDelay time.Duration
	// Mode selects listen-only observation or block-and-pass-through
	// interception. Changing it requires a restart of the tap.
	Mode tap.Mode
	// ModifierKeycode is the virtual keycode of the watched modifier.
	ModifierKeycode int
	// OnTrigger receives every qualifying gesture. Set once here; the
	// engine never exposes a mutator for it.
	OnTrigger func(gesture.Trigger)

	Gate   permissions.Gate
	Source tap.Source
	Timers gesture.TimerFactory
	Clock  func() time.Time
	Logger *slog.Logger
}

// Engine owns the full recognition pipeline: permission gate, event tap,
// dispatcher, and state machine. Start and Stop are atomic; a failed Start
// leaves nothing running.
type Engine struct {
	mu sync.Mutex

	delay           time.Duration
	mode            tap.Mode
	modifierKeycode int
	onTrigger       func(gesture.Trigger)

	gate       permissions.Gate
	source     tap.Source
	timers     gesture.TimerFactory
	clock      func() time.Time
	logger     *slog.Logger
	controller *Controller

	tap        *tap.Tap
	dispatcher *gesture.Dispatcher
	machine    *gesture.Machine
	monitoring bool

	triggers atomic.Uint64
}

// Status is a point-in-time snapshot for diagnostics and the CLI.
type Status struct {
	Monitoring   bool
	Paused       bool
	Authorized   bool
	Provider     string
	TriggerDelay time.Duration
	Mode         tap.Mode
	Triggers     uint64
}

// New validates options and constructs a stopped engine.
func New(opts Options) (*Engine, error) {
	if opts.TriggerDelay <= 0 {
		return nil, fmt.Errorf("trigger delay must be positive, got %s", opts.TriggerDelay)
	}
	if min := config.MinTriggerDelayMS * time.Millisecond; opts.TriggerDelay < min {
		return nil, fmt.Errorf("trigger delay %s below minimum %s", opts.TriggerDelay, min)
	}
	if max := config.MaxTriggerDelayMS * time.Millisecond; opts.TriggerDelay > max {
		return nil, fmt.Errorf("trigger delay %s above maximum %s", opts.TriggerDelay, max)
	}
	keycode := opts.ModifierKeycode
	if keycode == 0 {
		keycode = config.Default().Engine.ModifierKeycode
	}
	if keycode < 0 {
		return nil, fmt.Errorf("modifier keycode must be positive, got %d", keycode)
	}
	gate := opts.Gate
	if gate == nil {
		gate = permissions.NewGate()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		delay:           opts.TriggerDelay,
		mode:            opts.Mode,
		modifierKeycode: keycode,
		onTrigger:       opts.OnTrigger,
		gate:            gate,
		source:          opts.Source,
		timers:          opts.Timers,
		clock:           opts.Clock,
		logger:          logger,
		controller:      NewController(),
	}, nil
}

// Start checks authorization and brings up the dispatcher, machine, and
// event tap in that order. Any failure tears down what was built and
// returns with the engine stopped.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.monitoring {
		return tap.ErrAlreadyStarted
	}
	if !e.gate.Check() {
		e.logger.Warn("accessibility authorization missing; not starting")
		return tap.ErrAuthorizationDenied
	}

	dispatcher := gesture.NewDispatcher()
	machine, err := gesture.NewMachine(gesture.Config{
		Delay:     e.delay,
		OnTrigger: e.deliver,
		Post:      dispatcher.Post,
		Timers:    e.timers,
		Clock:     e.clock,
		Logger:    e.logger,
	})
	if err != nil {
		dispatcher.Close()
		return err
	}

	handler := func(ev tap.Event) tap.Verdict {
		return dispatcher.Dispatch(func() tap.Verdict {
			return machine.Handle(ev)
		})
	}
	t, err := tap.New(tap.Options{
		Mask:            tap.DefaultMask(),
		Mode:            e.mode,
		ModifierKeycode: e.modifierKeycode,
		Handler:         handler,
		Logger:          e.logger,
		Source:          e.source,
	})
	if err != nil {
		dispatcher.Close()
		return err
	}
	if err := t.Start(); err != nil {
		dispatcher.Close()
		return err
	}

	e.tap = t
	e.dispatcher = dispatcher
	e.machine = machine
	e.monitoring = true
	e.logger.Info("engine started",
		"trigger_delay", e.delay,
		"mode", e.mode.String(),
		"modifier_keycode", e.modifierKeycode)
	return nil
}

// Stop detaches the tap before anything else, so no callback is in flight
// once the dispatcher drains and the machine resets. Stopping a stopped
// engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.monitoring {
		return
	}

	e.tap.Stop()
	e.dispatcher.Close()
	e.machine.Reset()

	e.tap = nil
	e.dispatcher = nil
	e.machine = nil
	e.monitoring = false
	e.logger.Info("engine stopped", "triggers", e.triggers.Load())
}

// deliver runs on the dispatcher goroutine for each qualifying gesture.
func (e *Engine) deliver(tr gesture.Trigger) {
	if e.controller.Paused() {
		e.logger.Debug("trigger suppressed while paused", "held", tr.Held)
		return
	}
	e.triggers.Add(1)
	if e.onTrigger != nil {
		e.onTrigger(tr)
	}
}

// SetTriggerDelay changes the debounce window while monitoring continues.
// A window already in flight keeps its original duration; the next press
// uses the new one.
func (e *Engine) SetTriggerDelay(d time.Duration) error {
	if d < config.MinTriggerDelayMS*time.Millisecond || d > config.MaxTriggerDelayMS*time.Millisecond {
		return fmt.Errorf("trigger delay %s outside %dms-%dms",
			d, config.MinTriggerDelayMS, config.MaxTriggerDelayMS)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.delay = d
	if e.monitoring {
		machine := e.machine
		e.dispatcher.Post(func() { machine.SetDelay(d) })
	}
	e.logger.Info("trigger delay updated", "trigger_delay", d)
	return nil
}

// SetInterceptMode records a new tap mode. The tap placement cannot change
// under a live run loop, so the mode takes effect on the next Start; the
// return value reports whether a restart is needed for it to apply.
func (e *Engine) SetInterceptMode(mode tap.Mode) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode == mode {
		return false
	}
	e.mode = mode
	if e.monitoring {
		e.logger.Info("intercept mode change staged for next start", "mode", mode.String())
		return true
	}
	return false
}

// Controller exposes the pause/resume/kill coordinator, used by the global
// toggle hotkey and the run loop.
func (e *Engine) Controller() *Controller {
	return e.controller
}

// Status reports a snapshot of the engine for diagnostics.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	env := tap.DetectEnvironment()
	return Status{
		Monitoring:   e.monitoring,
		Paused:       e.controller.Paused(),
		Authorized:   e.gate.Check(),
		Provider:     env.Provider,
		TriggerDelay: e.delay,
		Mode:         e.mode,
		Triggers:     e.triggers.Load(),
	}
}

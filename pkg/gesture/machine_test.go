package gesture

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/offlinefirst/fnsolo/pkg/tap"
)

type manualTimer struct {
	fire      func()
	cancelled bool
}

func (t *manualTimer) Cancel() { t.cancelled = true }

// manualTimers records armed timers so tests decide when the debounce
// window elapses.
type manualTimers struct {
	armed []*manualTimer
}

func (f *manualTimers) factory(_ time.Duration, fire func()) TimerHandle {
	timer := &manualTimer{fire: fire}
	f.armed = append(f.armed, timer)
	return timer
}

func (f *manualTimers) fireLatest(t *testing.T) {
	t.Helper()
	if len(f.armed) == 0 {
		t.Fatalf("no timer armed")
	}
	f.armed[len(f.armed)-1].fire()
}

type harness struct {
	machine  *Machine
	timers   *manualTimers
	triggers []Trigger
	base     time.Time
}

func newHarness(t *testing.T, delay time.Duration) *harness {
	t.Helper()
	h := &harness{
		timers: &manualTimers{},
		base:   time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC),
	}
	machine, err := NewMachine(Config{
		Delay:     delay,
		OnTrigger: func(tr Trigger) { h.triggers = append(h.triggers, tr) },
		Timers:    h.timers.factory,
		Clock:     func() time.Time { return h.base },
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	h.machine = machine
	return h
}

func (h *harness) press(offset time.Duration) tap.Verdict {
	return h.machine.Handle(tap.Event{Kind: tap.KindFlagsChanged, ModifierDown: true, Keycode: 63, When: h.base.Add(offset)})
}

func (h *harness) release(offset time.Duration) tap.Verdict {
	return h.machine.Handle(tap.Event{Kind: tap.KindFlagsChanged, ModifierDown: false, Keycode: 63, When: h.base.Add(offset)})
}

func (h *harness) keyDown(offset time.Duration) tap.Verdict {
	return h.machine.Handle(tap.Event{Kind: tap.KindKeyDown, Keycode: 4, When: h.base.Add(offset)})
}

func TestNewMachineValidation(t *testing.T) {
	if _, err := NewMachine(Config{Delay: 0}); err == nil {
		t.Fatalf("expected error for zero delay")
	}
	if _, err := NewMachine(Config{Delay: time.Second}); err == nil {
		t.Fatalf("expected error when default timers lack a post function")
	}
}

func TestReleaseBeforeWindowElapsesDoesNotTrigger(t *testing.T) {
	h := newHarness(t, 400*time.Millisecond)

	h.press(0)
	h.release(100 * time.Millisecond)

	if len(h.triggers) != 0 {
		t.Fatalf("expected 0 triggers, got %d", len(h.triggers))
	}
	if got := h.machine.State(); got != StateIdle {
		t.Fatalf("expected idle after release, got %s", got)
	}
	if !h.timers.armed[0].cancelled {
		t.Fatalf("expected the armed timer to be cancelled on release")
	}
}

func TestSoloHoldTriggersExactlyOnceAtRelease(t *testing.T) {
	h := newHarness(t, 400*time.Millisecond)

	h.press(0)
	h.timers.fireLatest(t)
	if len(h.triggers) != 0 {
		t.Fatalf("timer fire must not trigger; got %d triggers", len(h.triggers))
	}
	if got := h.machine.State(); got != StateWaiting {
		t.Fatalf("timer fire must not change state, got %s", got)
	}

	h.release(500 * time.Millisecond)
	if len(h.triggers) != 1 {
		t.Fatalf("expected exactly 1 trigger, got %d", len(h.triggers))
	}
	if held := h.triggers[0].Held; held != 500*time.Millisecond {
		t.Fatalf("expected 500ms hold, got %s", held)
	}
	if got := h.machine.State(); got != StateIdle {
		t.Fatalf("expected idle after trigger, got %s", got)
	}
}

func TestInterveningKeyDownCancelsGesture(t *testing.T) {
	h := newHarness(t, 400*time.Millisecond)

	h.press(0)
	h.keyDown(100 * time.Millisecond)
	if got := h.machine.State(); got != StateCancelled {
		t.Fatalf("expected cancelled, got %s", got)
	}
	if !h.timers.armed[0].cancelled {
		t.Fatalf("expected timer cancelled when gesture disqualified")
	}

	h.release(500 * time.Millisecond)
	if len(h.triggers) != 0 {
		t.Fatalf("expected 0 triggers, got %d", len(h.triggers))
	}
	if got := h.machine.State(); got != StateIdle {
		t.Fatalf("expected idle after cancelled release, got %s", got)
	}
}

func TestSystemDefinedEventCancelsGesture(t *testing.T) {
	h := newHarness(t, 400*time.Millisecond)

	h.press(0)
	h.machine.Handle(tap.Event{Kind: tap.KindSystemDefined, When: h.base.Add(50 * time.Millisecond)})
	h.timers.fireLatest(t) // stale: generation unchanged but state is Cancelled
	h.release(600 * time.Millisecond)

	if len(h.triggers) != 0 {
		t.Fatalf("expected 0 triggers, got %d", len(h.triggers))
	}
}

func TestConsecutiveSoloGesturesBothTrigger(t *testing.T) {
	h := newHarness(t, 400*time.Millisecond)

	h.press(0)
	h.timers.fireLatest(t)
	h.release(450 * time.Millisecond)

	h.press(time.Second)
	h.timers.fireLatest(t)
	h.release(1500 * time.Millisecond)

	if len(h.triggers) != 2 {
		t.Fatalf("expected 2 triggers, got %d", len(h.triggers))
	}
	if len(h.timers.armed) != 2 {
		t.Fatalf("expected one timer per press, got %d", len(h.timers.armed))
	}
}

func TestStaleTimerFireFromSupersededPressIsIgnored(t *testing.T) {
	h := newHarness(t, 400*time.Millisecond)

	h.press(0)
	stale := h.timers.armed[0]
	h.release(100 * time.Millisecond) // early release, no trigger

	h.press(time.Second)
	stale.fire() // old window firing late must not qualify the new press

	h.release(1100 * time.Millisecond)
	if len(h.triggers) != 0 {
		t.Fatalf("stale fire must not qualify a later press; got %d triggers", len(h.triggers))
	}
}

func TestVerdictComputedFromPreTransitionState(t *testing.T) {
	h := newHarness(t, 400*time.Millisecond)

	// The press itself sees no press record yet, so it passes through.
	if got := h.press(0); got != tap.VerdictPass {
		t.Fatalf("expected pass for initial press, got %v", got)
	}
	// Flag changes while a press record exists are consumed.
	if got := h.release(500 * time.Millisecond); got != tap.VerdictConsume {
		t.Fatalf("expected consume for release while held, got %v", got)
	}

	// Same policy in the cancelled branch.
	h.press(time.Second)
	if got := h.keyDown(1100 * time.Millisecond); got != tap.VerdictPass {
		t.Fatalf("key-down events always pass, got %v", got)
	}
	if got := h.release(1200 * time.Millisecond); got != tap.VerdictConsume {
		t.Fatalf("expected consume for cancelled release, got %v", got)
	}
}

func TestOutOfOrderReleaseIsNoOp(t *testing.T) {
	h := newHarness(t, 400*time.Millisecond)

	if got := h.release(0); got != tap.VerdictPass {
		t.Fatalf("expected pass for orphan release, got %v", got)
	}
	if got := h.machine.State(); got != StateIdle {
		t.Fatalf("expected idle, got %s", got)
	}
	if len(h.timers.armed) != 0 {
		t.Fatalf("orphan release must not arm a timer")
	}
}

func TestRepeatedPressFlagsWhileHeldAreIgnored(t *testing.T) {
	h := newHarness(t, 400*time.Millisecond)

	h.press(0)
	h.press(50 * time.Millisecond)
	if len(h.timers.armed) != 1 {
		t.Fatalf("repeat flags must not re-arm, got %d timers", len(h.timers.armed))
	}
}

func TestResetCancelsTimerAndClearsPressRecord(t *testing.T) {
	h := newHarness(t, 400*time.Millisecond)

	h.press(0)
	h.machine.Reset()

	if got := h.machine.State(); got != StateIdle {
		t.Fatalf("expected idle after reset, got %s", got)
	}
	if !h.timers.armed[0].cancelled {
		t.Fatalf("reset must cancel the live timer")
	}

	// The press that never completed leaves nothing behind.
	h.release(100 * time.Millisecond)
	if len(h.triggers) != 0 {
		t.Fatalf("expected 0 triggers after reset, got %d", len(h.triggers))
	}
}

func TestSetDelayAppliesToNextArm(t *testing.T) {
	h := newHarness(t, 400*time.Millisecond)

	var armed []time.Duration
	h.machine.timers = func(d time.Duration, fire func()) TimerHandle {
		armed = append(armed, d)
		return h.timers.factory(d, fire)
	}

	h.press(0)
	h.machine.SetDelay(800 * time.Millisecond)
	h.release(100 * time.Millisecond)
	h.press(time.Second)

	if len(armed) != 2 {
		t.Fatalf("expected 2 armed timers, got %d", len(armed))
	}
	if armed[0] != 400*time.Millisecond || armed[1] != 800*time.Millisecond {
		t.Fatalf("expected delay change on next arm, got %v", armed)
	}
}

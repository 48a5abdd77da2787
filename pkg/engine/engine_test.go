package engine

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/offlinefirst/fnsolo/pkg/gesture"
	"github.com/offlinefirst/fnsolo/pkg/permissions"
	"github.com/offlinefirst/fnsolo/pkg/tap"
)

type recordedTimer struct {
	delay     time.Duration
	fire      func()
	cancelled bool
}

func (t *recordedTimer) Cancel() { t.cancelled = true }

// recordedTimers lets tests decide when debounce windows elapse instead of
// sleeping through real wall time.
type recordedTimers struct {
	mu    sync.Mutex
	armed []*recordedTimer
}

func (f *recordedTimers) factory(d time.Duration, fire func()) gesture.TimerHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	timer := &recordedTimer{delay: d, fire: fire}
	f.armed = append(f.armed, timer)
	return timer
}

func (f *recordedTimers) fireLatest(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	require.NotEmpty(t, f.armed, "no timer armed")
	timer := f.armed[len(f.armed)-1]
	f.mu.Unlock()
	timer.fire()
}

func (f *recordedTimers) latestDelay(t *testing.T) time.Duration {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.armed, "no timer armed")
	return f.armed[len(f.armed)-1].delay
}

type fixture struct {
	engine   *Engine
	source   *tap.ReplaySource
	timers   *recordedTimers
	triggers *triggerLog
	base     time.Time
}

type triggerLog struct {
	mu   sync.Mutex
	seen []gesture.Trigger
}

func (l *triggerLog) record(tr gesture.Trigger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, tr)
}

func (l *triggerLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

func grantedGate() permissions.Gate {
	return permissions.Func{CheckFunc: func() bool { return true }}
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		source:   &tap.ReplaySource{},
		timers:   &recordedTimers{},
		triggers: &triggerLog{},
		base:     time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC),
	}
	if opts.TriggerDelay == 0 {
		opts.TriggerDelay = 400 * time.Millisecond
	}
	if opts.Gate == nil {
		opts.Gate = grantedGate()
	}
	if opts.OnTrigger == nil {
		opts.OnTrigger = f.triggers.record
	}
	opts.Source = f.source
	opts.Timers = f.timers.factory
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	engine, err := New(opts)
	require.NoError(t, err)
	f.engine = engine
	return f
}

func (f *fixture) press(offset time.Duration) tap.Verdict {
	return f.source.Emit(tap.Event{Kind: tap.KindFlagsChanged, ModifierDown: true, Keycode: 63, When: f.base.Add(offset)})
}

func (f *fixture) release(offset time.Duration) tap.Verdict {
	return f.source.Emit(tap.Event{Kind: tap.KindFlagsChanged, ModifierDown: false, Keycode: 63, When: f.base.Add(offset)})
}

func (f *fixture) gesture(t *testing.T, start, end time.Duration) {
	t.Helper()
	f.press(start)
	f.timers.fireLatest(t)
	f.release(end)
}

func TestNewValidatesTriggerDelay(t *testing.T) {
	_, err := New(Options{TriggerDelay: 0})
	require.Error(t, err)

	_, err = New(Options{TriggerDelay: 50 * time.Millisecond})
	require.Error(t, err)

	_, err = New(Options{TriggerDelay: 2 * time.Second})
	require.Error(t, err)
}

func TestStartFailsFastWithoutAuthorization(t *testing.T) {
	f := newFixture(t, Options{Gate: permissions.Func{}})

	err := f.engine.Start()
	require.ErrorIs(t, err, tap.ErrAuthorizationDenied)
	require.False(t, f.engine.Status().Monitoring)

	// Nothing was built, so events go nowhere.
	require.Equal(t, tap.VerdictPass, f.press(0))
}

func TestStartPropagatesTapCreationFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.source.FailWith(errors.New("listen port refused"))

	err := f.engine.Start()
	require.ErrorIs(t, err, tap.ErrTapCreationFailed)
	require.False(t, f.engine.Status().Monitoring)
}

func TestSoloGestureReachesCallback(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.engine.Start())
	defer f.engine.Stop()

	f.press(0)
	f.timers.fireLatest(t)
	require.Equal(t, 0, f.triggers.count(), "timer fire must not trigger")

	f.release(500 * time.Millisecond)
	require.Equal(t, 1, f.triggers.count())

	status := f.engine.Status()
	require.True(t, status.Monitoring)
	require.EqualValues(t, 1, status.Triggers)
}

func TestEarlyReleaseDoesNotTrigger(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.engine.Start())
	defer f.engine.Stop()

	f.press(0)
	f.release(100 * time.Millisecond)
	require.Equal(t, 0, f.triggers.count())
}

func TestStartWhileMonitoringFails(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.engine.Start())
	defer f.engine.Stop()

	require.ErrorIs(t, f.engine.Start(), tap.ErrAlreadyStarted)
}

func TestStopIsAtomicAndIdempotent(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.engine.Start())

	f.press(0)
	f.timers.fireLatest(t)

	f.engine.Stop()
	f.engine.Stop()

	// The armed window died with the engine; the release finds nothing.
	require.Equal(t, tap.VerdictPass, f.release(500*time.Millisecond))
	require.Equal(t, 0, f.triggers.count())
	require.True(t, f.timers.armed[0].cancelled, "pending debounce timer must be cancelled on stop")
	require.False(t, f.engine.Status().Monitoring)
}

func TestEngineRestartsAfterStop(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.engine.Start())
	f.engine.Stop()

	require.NoError(t, f.engine.Start())
	defer f.engine.Stop()

	f.gesture(t, 0, 500*time.Millisecond)
	require.Equal(t, 1, f.triggers.count())
}

func TestPauseSuppressesTriggerDelivery(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.engine.Start())
	defer f.engine.Stop()

	f.engine.Controller().Pause()
	f.gesture(t, 0, 500*time.Millisecond)
	require.Equal(t, 0, f.triggers.count())
	require.True(t, f.engine.Status().Paused)

	f.engine.Controller().Resume()
	f.gesture(t, time.Second, 1500*time.Millisecond)
	require.Equal(t, 1, f.triggers.count())
}

func TestForcedDisableRecoveryIsInvisible(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.engine.Start())
	defer f.engine.Stop()

	f.press(0)
	f.source.ForceDisable()
	f.timers.fireLatest(t)
	f.release(500 * time.Millisecond)

	require.Equal(t, 1, f.triggers.count(), "gesture in flight must survive forced disable")
	require.Equal(t, 1, f.source.Reenables())
}

func TestSetTriggerDelayAppliesToNextPress(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.engine.Start())
	defer f.engine.Stop()

	require.Error(t, f.engine.SetTriggerDelay(10*time.Millisecond))
	require.NoError(t, f.engine.SetTriggerDelay(800*time.Millisecond))

	f.press(0)
	require.Equal(t, 800*time.Millisecond, f.timers.latestDelay(t))
	require.Equal(t, 800*time.Millisecond, f.engine.Status().TriggerDelay)
}

func TestSetTriggerDelayWhileStopped(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.engine.SetTriggerDelay(250*time.Millisecond))

	require.NoError(t, f.engine.Start())
	defer f.engine.Stop()

	f.press(0)
	require.Equal(t, 250*time.Millisecond, f.timers.latestDelay(t))
}

func TestSetInterceptModeRequiresRestart(t *testing.T) {
	f := newFixture(t, Options{Mode: tap.ModeObserve})

	require.False(t, f.engine.SetInterceptMode(tap.ModeIntercept), "stopped engine applies mode immediately")
	require.Equal(t, tap.ModeIntercept, f.engine.Status().Mode)

	require.NoError(t, f.engine.Start())
	defer f.engine.Stop()

	require.True(t, f.engine.SetInterceptMode(tap.ModeObserve), "live mode change needs a restart")
	require.False(t, f.engine.SetInterceptMode(tap.ModeObserve), "no-op change needs nothing")
}

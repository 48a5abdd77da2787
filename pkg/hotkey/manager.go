//go:build darwin || linux || windows

package hotkey

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.design/x/hotkey"
)

// Manager owns one registered global chord and invokes the toggle callback
// on every keydown.
type Manager struct {
	accel    Accelerator
	onToggle func()
	logger   *slog.Logger

	mu   sync.Mutex
	hk   *hotkey.Hotkey
	done chan struct{}
	wg   sync.WaitGroup
}

// NewManager parses the accelerator and prepares a manager. Nothing is
// registered with the OS until Start.
func NewManager(accel string, onToggle func(), logger *slog.Logger) (*Manager, error) {
	parsed, err := ParseAccelerator(accel)
	if err != nil {
		return nil, err
	}
	if onToggle == nil {
		return nil, fmt.Errorf("toggle callback must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{accel: parsed, onToggle: onToggle, logger: logger}, nil
}

// Start registers the chord and begins listening for it.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hk != nil {
		return fmt.Errorf("hotkey %s already registered", m.accel)
	}

	mods := make([]hotkey.Modifier, 0, len(m.accel.Mods))
	for _, name := range m.accel.Mods {
		mod, err := platformModifier(name)
		if err != nil {
			return err
		}
		mods = append(mods, mod)
	}
	key, err := platformKey(m.accel.Key)
	if err != nil {
		return err
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("register hotkey %s: %w", m.accel, err)
	}

	m.hk = hk
	m.done = make(chan struct{})
	m.wg.Add(1)
	go m.listen(hk, m.done)
	m.logger.Info("toggle hotkey registered", "chord", m.accel.String())
	return nil
}

func (m *Manager) listen(hk *hotkey.Hotkey, done chan struct{}) {
	defer m.wg.Done()
	for {
		select {
		case <-done:
			return
		case <-hk.Keydown():
			m.onToggle()
		}
	}
}

// Stop unregisters the chord and waits for the listener to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	hk := m.hk
	done := m.done
	m.hk = nil
	m.done = nil
	m.mu.Unlock()

	if hk == nil {
		return
	}
	close(done)
	if err := hk.Unregister(); err != nil {
		m.logger.Warn("hotkey unregister failed", "error", err)
	}
	m.wg.Wait()
}

func platformKey(name string) (hotkey.Key, error) {
	r := rune(name[0])
	switch {
	case r >= 'a' && r <= 'z':
		return letterKeys[r-'a'], nil
	case r >= '0' && r <= '9':
		return digitKeys[r-'0'], nil
	default:
		return 0, fmt.Errorf("unsupported key %q", name)
	}
}

var letterKeys = [26]hotkey.Key{
	hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE,
	hotkey.KeyF, hotkey.KeyG, hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ,
	hotkey.KeyK, hotkey.KeyL, hotkey.KeyM, hotkey.KeyN, hotkey.KeyO,
	hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR, hotkey.KeyS, hotkey.KeyT,
	hotkey.KeyU, hotkey.KeyV, hotkey.KeyW, hotkey.KeyX, hotkey.KeyY,
	hotkey.KeyZ,
}

var digitKeys = [10]hotkey.Key{
	hotkey.Key0, hotkey.Key1, hotkey.Key2, hotkey.Key3, hotkey.Key4,
	hotkey.Key5, hotkey.Key6, hotkey.Key7, hotkey.Key8, hotkey.Key9,
}

//go:build !darwin && !linux && !windows

package hotkey

import (
	"errors"
	"log/slog"
)

// ErrUnsupported reports that this platform has no global hotkey backend.
var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

// Manager is a stub on platforms without a hotkey backend.
type Manager struct{}

func NewManager(accel string, onToggle func(), _ *slog.Logger) (*Manager, error) {
	if _, err := ParseAccelerator(accel); err != nil {
		return nil, err
	}
	if onToggle == nil {
		return nil, errors.New("toggle callback must not be nil")
	}
	return &Manager{}, nil
}

func (m *Manager) Start() error { return ErrUnsupported }

func (m *Manager) Stop() {}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultFileName is the config file probed when no explicit path is given.
const DefaultFileName = "fnsolo.toml"

// Trigger delay bounds in milliseconds. Values outside this range are
// rejected by Validate rather than silently clamped.
const (
	MinTriggerDelayMS = 100
	MaxTriggerDelayMS = 1000
)

// Intercept modes understood by the engine.
const (
	ModeObserve   = "observe"
	ModeIntercept = "intercept"
)

// Config captures the user-adjustable knobs for the gesture engine.
type Config struct {
	Engine  EngineConfig  `toml:"engine" yaml:"engine"`
	Hotkey  HotkeyConfig  `toml:"hotkey" yaml:"hotkey"`
	Notify  NotifyConfig  `toml:"notify" yaml:"notify"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`

	// Source indicates where the configuration originated (defaults or a file path).
	Source string `toml:"-" yaml:"-"`
}

// EngineConfig controls gesture classification and the event tap.
type EngineConfig struct {
	TriggerDelayMS  int    `toml:"trigger_delay_ms" yaml:"trigger_delay_ms"`
	InterceptMode   string `toml:"intercept_mode" yaml:"intercept_mode"`
	ModifierKeycode int    `toml:"modifier_keycode" yaml:"modifier_keycode"`
}

// TriggerDelay returns the debounce window as a duration.
func (e EngineConfig) TriggerDelay() time.Duration {
	return time.Duration(e.TriggerDelayMS) * time.Millisecond
}

// HotkeyConfig describes the optional global pause/resume toggle.
type HotkeyConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Toggle  string `toml:"toggle" yaml:"toggle"`
}

// NotifyConfig selects the trigger feedback collaborators.
type NotifyConfig struct {
	SoundEnabled bool `toml:"sound_enabled" yaml:"sound_enabled"`
	SoundID      int  `toml:"sound_id" yaml:"sound_id"`
	LogTriggers  bool `toml:"log_triggers" yaml:"log_triggers"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			TriggerDelayMS:  400,
			InterceptMode:   ModeObserve,
			ModifierKeycode: 63, // kVK_Function
		},
		Hotkey: HotkeyConfig{
			Enabled: false,
			Toggle:  "ctrl+alt+f",
		},
		Notify: NotifyConfig{
			SoundEnabled: true,
			SoundID:      1306, // macOS "tink" system sound
			LogTriggers:  true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Source: "<defaults>",
	}
}

// Validate ensures essential configuration values are present and sensible.
func (c Config) Validate() error {
	if c.Engine.TriggerDelayMS < MinTriggerDelayMS || c.Engine.TriggerDelayMS > MaxTriggerDelayMS {
		return fmt.Errorf("engine.trigger_delay_ms must be between %d and %d", MinTriggerDelayMS, MaxTriggerDelayMS)
	}
	if _, err := NormalizeInterceptMode(c.Engine.InterceptMode); err != nil {
		return err
	}
	if c.Engine.ModifierKeycode <= 0 {
		return errors.New("engine.modifier_keycode must be positive")
	}
	if c.Hotkey.Enabled && strings.TrimSpace(c.Hotkey.Toggle) == "" {
		return errors.New("hotkey.toggle must not be empty when hotkey.enabled is set")
	}
	if c.Notify.SoundID < 0 {
		return errors.New("notify.sound_id must not be negative")
	}

	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}

	return nil
}

// NormalizeInterceptMode canonicalises an intercept mode string.
func NormalizeInterceptMode(mode string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(mode))
	switch trimmed {
	case "", ModeObserve, "listen", "listen-only":
		return ModeObserve, nil
	case ModeIntercept, "block", "block-and-pass-through":
		return ModeIntercept, nil
	default:
		return "", fmt.Errorf("unsupported intercept mode %q", mode)
	}
}

// NormalizeLogLevel canonicalises a log level string.
func NormalizeLogLevel(level string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(level))
	switch trimmed {
	case "":
		return "info", nil
	case "debug", "info", "warn", "error":
		return trimmed, nil
	case "warning":
		return "warn", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat canonicalises a log output format string.
func NormalizeFormat(format string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(format))
	switch trimmed {
	case "":
		return "json", nil
	case "json", "console", "text":
		return trimmed, nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}

func (c *Config) normalize() {
	defaults := Default()

	if c.Engine.TriggerDelayMS == 0 {
		c.Engine.TriggerDelayMS = defaults.Engine.TriggerDelayMS
	}
	if mode, err := NormalizeInterceptMode(c.Engine.InterceptMode); err == nil {
		c.Engine.InterceptMode = mode
	}
	if c.Engine.ModifierKeycode == 0 {
		c.Engine.ModifierKeycode = defaults.Engine.ModifierKeycode
	}
	if strings.TrimSpace(c.Hotkey.Toggle) == "" {
		c.Hotkey.Toggle = defaults.Hotkey.Toggle
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaults.Logging.Format
	}
}

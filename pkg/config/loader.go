package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from disk if present, otherwise returning defaults.
// When path is empty, the loader attempts to read ./fnsolo.toml but tolerates
// a missing file. The file format is chosen by extension: .toml, .yaml, .yml.
func Load(path string) (Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	data, err := os.ReadFile(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return cfg, fmt.Errorf("config file %q not found", candidate)
			}
			cfg.applyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return cfg, fmt.Errorf("read config file %q: %w", candidate, err)
	}

	if err := decode(candidate, data, &cfg); err != nil {
		return cfg, err
	}
	cfg.Source = candidate
	cfg.normalize()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("parse %q: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("parse %q: unknown key %q", path, undecoded[0].String())
		}
		return nil
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse %q: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported config extension %q (expected .toml, .yaml, or .yml)", filepath.Ext(path))
	}
}

// lookupEnv is declared for swapping in tests.
var lookupEnv = os.LookupEnv

// applyEnvOverrides applies FNSOLO_* environment variables on top of the
// loaded configuration. Invalid values are ignored; Validate reports the
// resulting state either way.
func (c *Config) applyEnvOverrides() {
	if v, ok := lookupEnv("FNSOLO_TRIGGER_DELAY_MS"); ok {
		if ms, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.Engine.TriggerDelayMS = ms
		}
	}
	if v, ok := lookupEnv("FNSOLO_INTERCEPT_MODE"); ok {
		if mode, err := NormalizeInterceptMode(v); err == nil {
			c.Engine.InterceptMode = mode
		}
	}
	if v, ok := lookupEnv("FNSOLO_LOG_LEVEL"); ok {
		if level, err := NormalizeLogLevel(v); err == nil {
			c.Logging.Level = level
		}
	}
}

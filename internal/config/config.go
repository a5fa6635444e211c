// Package config loads input-subsystem settings from a YAML file with
// environment-variable overrides. Everything has a working default; a
// missing file is not an error.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/termflux/internal/input/key"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// TERMFLUX_QUIET_PERIOD=25ms.
const EnvPrefix = "TERMFLUX_"

// Config holds every tunable of the input subsystem.
type Config struct {
	// QuietPeriod is how long the decoder waits on an ambiguous escape
	// prefix before treating the buffered bytes literally.
	QuietPeriod time.Duration `yaml:"quiet_period"`

	// PageScrollLines is the Page Up/Down scroll amount.
	PageScrollLines int `yaml:"page_scroll_lines"`

	// HistoryDepth bounds the focus-restore history stack.
	HistoryDepth int `yaml:"history_depth"`

	// BlinkFrequency is the cursor blink rate in Hz.
	BlinkFrequency float64 `yaml:"blink_frequency"`

	// ExitKey is the key spec of the shortcut that terminates the
	// process, e.g. "Ctrl+c".
	ExitKey string `yaml:"exit_key"`

	// DoubleClickWindow is the maximum gap between clicks counted as a
	// multi-click.
	DoubleClickWindow time.Duration `yaml:"double_click_window"`

	// MouseEnabled controls whether mouse reporting is requested from
	// the terminal.
	MouseEnabled bool `yaml:"mouse_enabled"`

	// LogLevel selects the zap level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		QuietPeriod:       10 * time.Millisecond,
		PageScrollLines:   10,
		HistoryDepth:      10,
		BlinkFrequency:    2,
		ExitKey:           "Ctrl+c",
		DoubleClickWindow: 500 * time.Millisecond,
		MouseEnabled:      true,
		LogLevel:          "info",
	}
}

// Load reads a YAML config file over the defaults, then applies
// environment overrides. A missing file yields defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv layers TERMFLUX_* variables on top of the loaded values.
// Malformed values are ignored rather than fatal.
func (c *Config) applyEnv() {
	if v, ok := lookup("QUIET_PERIOD"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.QuietPeriod = d
		}
	}
	if v, ok := lookup("PAGE_SCROLL_LINES"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.PageScrollLines = n
		}
	}
	if v, ok := lookup("HISTORY_DEPTH"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.HistoryDepth = n
		}
	}
	if v, ok := lookup("BLINK_FREQUENCY"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.BlinkFrequency = f
		}
	}
	if v, ok := lookup("EXIT_KEY"); ok {
		c.ExitKey = v
	}
	if v, ok := lookup("DOUBLE_CLICK_WINDOW"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.DoubleClickWindow = d
		}
	}
	if v, ok := lookup("MOUSE_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.MouseEnabled = b
		}
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
}

func lookup(name string) (string, bool) {
	return os.LookupEnv(EnvPrefix + name)
}

// Validate rejects values the subsystem cannot run with.
func (c Config) Validate() error {
	if c.QuietPeriod <= 0 {
		return fmt.Errorf("quiet_period must be positive, got %v", c.QuietPeriod)
	}
	if c.PageScrollLines <= 0 {
		return fmt.Errorf("page_scroll_lines must be positive, got %d", c.PageScrollLines)
	}
	if c.HistoryDepth <= 0 {
		return fmt.Errorf("history_depth must be positive, got %d", c.HistoryDepth)
	}
	if c.BlinkFrequency <= 0 {
		return fmt.Errorf("blink_frequency must be positive, got %v", c.BlinkFrequency)
	}
	if c.DoubleClickWindow <= 0 {
		return fmt.Errorf("double_click_window must be positive, got %v", c.DoubleClickWindow)
	}
	if _, err := key.Parse(c.ExitKey); err != nil {
		return fmt.Errorf("exit_key %q: %w", c.ExitKey, err)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q: must be debug, info, warn or error", c.LogLevel)
	}
	return nil
}

// ExitChord returns the canonical chord string for the exit key. Call
// only after Validate.
func (c Config) ExitChord() string {
	ev, err := key.Parse(c.ExitKey)
	if err != nil {
		return key.MustParse(Default().ExitKey).Chord()
	}
	return ev.Chord()
}

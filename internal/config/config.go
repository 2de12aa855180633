package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile selects which persisted data file the daemon uses.
type Profile string

const (
	ProfileProduction Profile = "production"
	ProfileDev        Profile = "dev"
)

// ProfileEnv overrides the configured profile when set.
const ProfileEnv = "DESKCTX_PROFILE"

// SwitchStrategy selects how desktop switches are actuated.
type SwitchStrategy string

const (
	SwitchStep   SwitchStrategy = "step"
	SwitchDirect SwitchStrategy = "direct"
)

// SwitchConfig controls the desktop switcher's key synthesis.
type SwitchConfig struct {
	Strategy     SwitchStrategy `yaml:"strategy"`
	LeftKey      string         `yaml:"left_key"`
	RightKey     string         `yaml:"right_key"`
	JumpModifier string         `yaml:"jump_modifier"`
}

// WindowConfig is the per-monitor utility window footprint.
type WindowConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	Margin    int `yaml:"margin"`
	TopOffset int `yaml:"top_offset"`
}

// HotkeyConfig holds optional global shortcuts in xgbutil keybind syntax.
// An empty string leaves the shortcut unbound.
type HotkeyConfig struct {
	ToggleWindows string `yaml:"toggle_windows"`
	NewSession    string `yaml:"new_session"`
}

// TracingConfig configures OpenTelemetry span export.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // none, stdout, otlp
	Endpoint string `yaml:"endpoint,omitempty"`
}

// Config is the effective daemon configuration.
type Config struct {
	Profile Profile `yaml:"profile"`
	// DataDir holds notes.json; empty means $XDG_DATA_HOME/deskctx.
	DataDir  string `yaml:"data_dir,omitempty"`
	LogLevel string `yaml:"log_level"`
	// ReconcileInterval is the periodic window reconcile period in seconds.
	ReconcileInterval int           `yaml:"reconcile_interval"`
	Switch            SwitchConfig  `yaml:"switch"`
	Window            WindowConfig  `yaml:"window"`
	Hotkeys           HotkeyConfig  `yaml:"hotkeys"`
	Tracing           TracingConfig `yaml:"tracing"`
}

func DefaultConfig() *Config {
	return &Config{
		Profile:           ProfileProduction,
		LogLevel:          "info",
		ReconcileInterval: 30,
		Switch: SwitchConfig{
			Strategy:     SwitchStep,
			LeftKey:      "Control-Mod1-Left",
			RightKey:     "Control-Mod1-Right",
			JumpModifier: "Mod4",
		},
		Window: WindowConfig{
			Width:     290,
			Height:    220,
			Margin:    16,
			TopOffset: 32,
		},
		Hotkeys: HotkeyConfig{
			ToggleWindows: "Mod4-n",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Exporter: "stdout",
		},
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/deskctx/config.yaml, falling
// back to ~/.config.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "deskctx", "config.yaml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "deskctx", "config.yaml"), nil
}

// IsDev reports whether the development data file is in use.
func (c *Config) IsDev() bool {
	return c != nil && c.Profile == ProfileDev
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	if c == nil {
		return slog.LevelInfo
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Save writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Profile {
	case ProfileProduction, ProfileDev:
	default:
		return &ValidationError{Path: "profile", Err: fmt.Errorf("must be %q or %q, got %q", ProfileProduction, ProfileDev, c.Profile)}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("unknown level %q", c.LogLevel)}
	}

	if c.ReconcileInterval < 0 {
		return &ValidationError{Path: "reconcile_interval", Err: fmt.Errorf("must be >= 0")}
	}

	switch c.Switch.Strategy {
	case SwitchStep, SwitchDirect:
	default:
		return &ValidationError{Path: "switch.strategy", Err: fmt.Errorf("must be %q or %q, got %q", SwitchStep, SwitchDirect, c.Switch.Strategy)}
	}
	if strings.TrimSpace(c.Switch.LeftKey) == "" {
		return &ValidationError{Path: "switch.left_key", Err: fmt.Errorf("must not be empty")}
	}
	if strings.TrimSpace(c.Switch.RightKey) == "" {
		return &ValidationError{Path: "switch.right_key", Err: fmt.Errorf("must not be empty")}
	}
	if strings.TrimSpace(c.Switch.JumpModifier) == "" {
		return &ValidationError{Path: "switch.jump_modifier", Err: fmt.Errorf("must not be empty")}
	}

	if c.Window.Width <= 0 {
		return &ValidationError{Path: "window.width", Err: fmt.Errorf("must be > 0")}
	}
	if c.Window.Height <= 0 {
		return &ValidationError{Path: "window.height", Err: fmt.Errorf("must be > 0")}
	}
	if c.Window.Margin < 0 {
		return &ValidationError{Path: "window.margin", Err: fmt.Errorf("must be >= 0")}
	}
	if c.Window.TopOffset < 0 {
		return &ValidationError{Path: "window.top_offset", Err: fmt.Errorf("must be >= 0")}
	}

	if c.Hotkeys.ToggleWindows != "" && c.Hotkeys.ToggleWindows == c.Hotkeys.NewSession {
		return &ValidationError{Path: "hotkeys.new_session", Err: fmt.Errorf("duplicates hotkeys.toggle_windows (%q)", c.Hotkeys.NewSession)}
	}

	switch c.Tracing.Exporter {
	case "none", "stdout":
	case "otlp":
		if c.Tracing.Enabled && strings.TrimSpace(c.Tracing.Endpoint) == "" {
			return &ValidationError{Path: "tracing.endpoint", Err: fmt.Errorf("required for the otlp exporter")}
		}
	default:
		return &ValidationError{Path: "tracing.exporter", Err: fmt.Errorf("unknown exporter %q", c.Tracing.Exporter)}
	}
	return nil
}

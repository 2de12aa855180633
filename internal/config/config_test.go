package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Switch.Strategy != SwitchStep {
		t.Fatalf("expected step strategy by default, got %q", cfg.Switch.Strategy)
	}
	if cfg.Window.Width != 290 || cfg.Window.Height != 220 {
		t.Fatalf("unexpected default footprint %+v", cfg.Window)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(ProfileEnv, "")
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Profile != ProfileProduction {
		t.Fatalf("expected production profile, got %q", res.Config.Profile)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	t.Setenv(ProfileEnv, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != "info" {
		t.Fatalf("expected log_level info, got %q", res.Config.LogLevel)
	}
}

func TestLoadFromPath_OverridesAndExplain(t *testing.T) {
	t.Setenv(ProfileEnv, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, strings.Join([]string{
		"profile: dev",
		"switch:",
		"  strategy: direct",
		"  jump_modifier: Mod1",
		"window:",
		"  width: 320",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if !cfg.IsDev() {
		t.Fatalf("expected dev profile")
	}
	if cfg.Switch.Strategy != SwitchDirect || cfg.Switch.JumpModifier != "Mod1" {
		t.Fatalf("unexpected switch config %+v", cfg.Switch)
	}
	if cfg.Switch.LeftKey != "Control-Mod1-Left" {
		t.Fatalf("left_key should keep its default, got %q", cfg.Switch.LeftKey)
	}
	if cfg.Window.Width != 320 || cfg.Window.Height != 220 {
		t.Fatalf("unexpected window config %+v", cfg.Window)
	}

	val, src, err := Explain(res, "window.width")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != 320 {
		t.Fatalf("explain value = %v, want 320", val)
	}
	if src.Kind != SourceFile || src.Line != 6 {
		t.Fatalf("explain source = %+v, want file line 6", src)
	}

	_, src, err = Explain(res, "window.margin")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if src.Kind != SourceDefault {
		t.Fatalf("expected default source, got %+v", src)
	}

	if _, _, err := Explain(res, "window.depth"); err == nil {
		t.Fatalf("expected unknown path error")
	}
}

func TestLoadFromPath_ProfileEnvOverride(t *testing.T) {
	t.Setenv(ProfileEnv, "dev")
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "profile: production\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !res.Config.IsDev() {
		t.Fatalf("expected %s to win over the file", ProfileEnv)
	}
	_, src, _ := Explain(res, "profile")
	if src.Kind != SourceEnv {
		t.Fatalf("expected env source, got %+v", src)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSourceContext(t *testing.T) {
	t.Setenv(ProfileEnv, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "log_level: info\nswitch:\n  strategy: teleport\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Path != "switch.strategy" {
		t.Fatalf("path = %q, want switch.strategy", verr.Path)
	}
	if !strings.Contains(err.Error(), path+":3:") {
		t.Fatalf("expected file:line prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	t.Setenv(ProfileEnv, "")
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, filepath.Join(configD, "10-base.yaml"), "window:\n  margin: 5\n  height: 100\n")
	writeConfig(t, filepath.Join(configD, "20-override.yaml"), "window:\n  margin: 6\n")

	// Main file overrides includes.
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, strings.Join([]string{
		"include:",
		"  - config.d",
		"window:",
		"  margin: 7",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Window.Margin != 7 {
		t.Fatalf("expected margin 7, got %d", res.Config.Window.Margin)
	}
	if res.Config.Window.Height != 100 {
		t.Fatalf("expected height from include, got %d", res.Config.Window.Height)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeConfig(t, a, "include: b.yaml\n")
	writeConfig(t, b, "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad profile", func(c *Config) { c.Profile = "staging" }, "profile"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"zero width", func(c *Config) { c.Window.Width = 0 }, "window.width"},
		{"negative margin", func(c *Config) { c.Window.Margin = -1 }, "window.margin"},
		{"empty left key", func(c *Config) { c.Switch.LeftKey = " " }, "switch.left_key"},
		{"otlp without endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "otlp"
		}, "tracing.endpoint"},
		{"unknown exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }, "tracing.exporter"},
		{"duplicate hotkey", func(c *Config) { c.Hotkeys.NewSession = c.Hotkeys.ToggleWindows }, "hotkeys.new_session"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := &Config{LogLevel: in}
		if got := cfg.SlogLevel(); got != want {
			t.Fatalf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(ProfileEnv, "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Switch.Strategy = SwitchDirect
	cfg.Window.TopOffset = 48

	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Switch.Strategy != SwitchDirect || res.Config.Window.TopOffset != 48 {
		t.Fatalf("round trip lost values: %+v", res.Config)
	}
}

func TestDefaultConfigPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	got, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error: %v", err)
	}
	if want := filepath.Join(dir, "deskctx", "config.yaml"); got != want {
		t.Fatalf("DefaultConfigPath() = %q, want %q", got, want)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	t.Setenv(ProfileEnv, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "log_level: info\n")

	var mu sync.Mutex
	var got []*Config
	w, err := NewWatcher(path, nil, func(cfg *Config) {
		mu.Lock()
		got = append(got, cfg)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Close()

	writeConfig(t, path, "log_level: debug\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		var last *Config
		if n > 0 {
			last = got[n-1]
		}
		mu.Unlock()
		if last != nil && last.LogLevel == "debug" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("watcher did not deliver the reloaded config")
}

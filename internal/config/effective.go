package config

import (
	"fmt"
	"os"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies raw over the defaults, then the profile
// environment override.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Profile != nil {
		cfg.Profile = Profile(strings.ToLower(string(*raw.Profile)))
	}
	if raw.DataDir != nil {
		cfg.DataDir = *raw.DataDir
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.ReconcileInterval != nil {
		cfg.ReconcileInterval = *raw.ReconcileInterval
	}
	if raw.Switch != nil {
		if raw.Switch.Strategy != nil {
			cfg.Switch.Strategy = SwitchStrategy(strings.ToLower(string(*raw.Switch.Strategy)))
		}
		if raw.Switch.LeftKey != nil {
			cfg.Switch.LeftKey = *raw.Switch.LeftKey
		}
		if raw.Switch.RightKey != nil {
			cfg.Switch.RightKey = *raw.Switch.RightKey
		}
		if raw.Switch.JumpModifier != nil {
			cfg.Switch.JumpModifier = *raw.Switch.JumpModifier
		}
	}
	if raw.Window != nil {
		cfg.Window.Width = derefInt(raw.Window.Width, cfg.Window.Width)
		cfg.Window.Height = derefInt(raw.Window.Height, cfg.Window.Height)
		cfg.Window.Margin = derefInt(raw.Window.Margin, cfg.Window.Margin)
		cfg.Window.TopOffset = derefInt(raw.Window.TopOffset, cfg.Window.TopOffset)
	}
	if raw.Hotkeys != nil {
		if raw.Hotkeys.ToggleWindows != nil {
			cfg.Hotkeys.ToggleWindows = strings.TrimSpace(*raw.Hotkeys.ToggleWindows)
		}
		if raw.Hotkeys.NewSession != nil {
			cfg.Hotkeys.NewSession = strings.TrimSpace(*raw.Hotkeys.NewSession)
		}
	}
	if raw.Tracing != nil {
		if raw.Tracing.Enabled != nil {
			cfg.Tracing.Enabled = *raw.Tracing.Enabled
		}
		if raw.Tracing.Exporter != nil {
			cfg.Tracing.Exporter = strings.ToLower(*raw.Tracing.Exporter)
		}
		if raw.Tracing.Endpoint != nil {
			cfg.Tracing.Endpoint = *raw.Tracing.Endpoint
		}
	}

	if env := strings.TrimSpace(os.Getenv(ProfileEnv)); env != "" {
		cfg.Profile = Profile(strings.ToLower(env))
	}

	return cfg, nil
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

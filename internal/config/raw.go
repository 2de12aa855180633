package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawSwitchConfig struct {
	Strategy     *SwitchStrategy `yaml:"strategy"`
	LeftKey      *string         `yaml:"left_key"`
	RightKey     *string         `yaml:"right_key"`
	JumpModifier *string         `yaml:"jump_modifier"`
}

type RawWindowConfig struct {
	Width     *int `yaml:"width"`
	Height    *int `yaml:"height"`
	Margin    *int `yaml:"margin"`
	TopOffset *int `yaml:"top_offset"`
}

type RawHotkeyConfig struct {
	ToggleWindows *string `yaml:"toggle_windows"`
	NewSession    *string `yaml:"new_session"`
}

type RawTracingConfig struct {
	Enabled  *bool   `yaml:"enabled"`
	Exporter *string `yaml:"exporter"`
	Endpoint *string `yaml:"endpoint"`
}

// RawConfig mirrors Config with every field optional so files can be
// layered through include.
type RawConfig struct {
	Include           IncludeList       `yaml:"include"`
	Profile           *Profile          `yaml:"profile"`
	DataDir           *string           `yaml:"data_dir"`
	LogLevel          *string           `yaml:"log_level"`
	ReconcileInterval *int              `yaml:"reconcile_interval"`
	Switch            *RawSwitchConfig  `yaml:"switch"`
	Window            *RawWindowConfig  `yaml:"window"`
	Hotkeys           *RawHotkeyConfig  `yaml:"hotkeys"`
	Tracing           *RawTracingConfig `yaml:"tracing"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Profile != nil {
		out.Profile = overlay.Profile
	}
	if overlay.DataDir != nil {
		out.DataDir = overlay.DataDir
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.ReconcileInterval != nil {
		out.ReconcileInterval = overlay.ReconcileInterval
	}
	if overlay.Switch != nil {
		base := RawSwitchConfig{}
		if out.Switch != nil {
			base = *out.Switch
		}
		merged := mergeRawSwitch(base, *overlay.Switch)
		out.Switch = &merged
	}
	if overlay.Window != nil {
		base := RawWindowConfig{}
		if out.Window != nil {
			base = *out.Window
		}
		merged := mergeRawWindow(base, *overlay.Window)
		out.Window = &merged
	}
	if overlay.Hotkeys != nil {
		base := RawHotkeyConfig{}
		if out.Hotkeys != nil {
			base = *out.Hotkeys
		}
		if overlay.Hotkeys.ToggleWindows != nil {
			base.ToggleWindows = overlay.Hotkeys.ToggleWindows
		}
		if overlay.Hotkeys.NewSession != nil {
			base.NewSession = overlay.Hotkeys.NewSession
		}
		out.Hotkeys = &base
	}
	if overlay.Tracing != nil {
		base := RawTracingConfig{}
		if out.Tracing != nil {
			base = *out.Tracing
		}
		merged := mergeRawTracing(base, *overlay.Tracing)
		out.Tracing = &merged
	}

	return out
}

func mergeRawSwitch(base RawSwitchConfig, overlay RawSwitchConfig) RawSwitchConfig {
	out := base
	if overlay.Strategy != nil {
		out.Strategy = overlay.Strategy
	}
	if overlay.LeftKey != nil {
		out.LeftKey = overlay.LeftKey
	}
	if overlay.RightKey != nil {
		out.RightKey = overlay.RightKey
	}
	if overlay.JumpModifier != nil {
		out.JumpModifier = overlay.JumpModifier
	}
	return out
}

func mergeRawWindow(base RawWindowConfig, overlay RawWindowConfig) RawWindowConfig {
	out := base
	if overlay.Width != nil {
		out.Width = overlay.Width
	}
	if overlay.Height != nil {
		out.Height = overlay.Height
	}
	if overlay.Margin != nil {
		out.Margin = overlay.Margin
	}
	if overlay.TopOffset != nil {
		out.TopOffset = overlay.TopOffset
	}
	return out
}

func mergeRawTracing(base RawTracingConfig, overlay RawTracingConfig) RawTracingConfig {
	out := base
	if overlay.Enabled != nil {
		out.Enabled = overlay.Enabled
	}
	if overlay.Exporter != nil {
		out.Exporter = overlay.Exporter
	}
	if overlay.Endpoint != nil {
		out.Endpoint = overlay.Endpoint
	}
	return out
}

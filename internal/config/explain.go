package config

import (
	"fmt"
	"sort"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths:
//
//	profile
//	data_dir
//	log_level
//	reconcile_interval
//	switch.strategy
//	switch.left_key
//	switch.right_key
//	switch.jump_modifier
//	window.width
//	window.height
//	window.margin
//	window.top_offset
//	hotkeys.toggle_windows
//	hotkeys.new_session
//	tracing.enabled
//	tracing.exporter
//	tracing.endpoint
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

// Paths lists every path Explain accepts, sorted.
func Paths() []string {
	paths := make([]string, 0, len(lookups))
	for p := range lookups {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

var lookups = map[string]func(*Config) any{
	"profile":                func(c *Config) any { return string(c.Profile) },
	"data_dir":               func(c *Config) any { return c.DataDir },
	"log_level":              func(c *Config) any { return c.LogLevel },
	"reconcile_interval":     func(c *Config) any { return c.ReconcileInterval },
	"switch.strategy":        func(c *Config) any { return string(c.Switch.Strategy) },
	"switch.left_key":        func(c *Config) any { return c.Switch.LeftKey },
	"switch.right_key":       func(c *Config) any { return c.Switch.RightKey },
	"switch.jump_modifier":   func(c *Config) any { return c.Switch.JumpModifier },
	"window.width":           func(c *Config) any { return c.Window.Width },
	"window.height":          func(c *Config) any { return c.Window.Height },
	"window.margin":          func(c *Config) any { return c.Window.Margin },
	"window.top_offset":      func(c *Config) any { return c.Window.TopOffset },
	"hotkeys.toggle_windows": func(c *Config) any { return c.Hotkeys.ToggleWindows },
	"hotkeys.new_session":    func(c *Config) any { return c.Hotkeys.NewSession },
	"tracing.enabled":        func(c *Config) any { return c.Tracing.Enabled },
	"tracing.exporter":       func(c *Config) any { return c.Tracing.Exporter },
	"tracing.endpoint":       func(c *Config) any { return c.Tracing.Endpoint },
}

func lookupValue(cfg *Config, path string) (any, error) {
	fn, ok := lookups[strings.TrimSpace(path)]
	if !ok {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	return fn(cfg), nil
}

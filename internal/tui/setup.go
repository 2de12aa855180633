package tui

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/1broseidon/deskctx/internal/spaces"
)

const keepTheme = "keep"

// Themes maps a theme name to the colors assigned by canonical position.
var Themes = map[string][]string{
	"pastel": spaces.Palette,
	"ocean":  {"#1B4965", "#5FA8D3", "#62B6CB", "#BEE9E8", "#CAE9FF", "#2A6F97"},
	"forest": {"#2D6A4F", "#40916C", "#52B788", "#74C69D", "#95D5B2", "#B7E4C7"},
	"sunset": {"#F94144", "#F3722C", "#F8961E", "#F9C74F", "#90BE6D", "#43AA8B"},
	"mono":   {"#E0E0E0", "#BDBDBD", "#9E9E9E", "#757575", "#616161", "#424242"},
}

// setupValues holds the wizard's form-bound fields.
type setupValues struct {
	DesktopCount string
	Theme        string
	TimerPresets string
	NotifySystem bool
	NotifyFlash  bool
}

func themeOptions() []huh.Option[string] {
	names := make([]string, 0, len(Themes))
	for name := range Themes {
		names = append(names, name)
	}
	sort.Strings(names)

	opts := []huh.Option[string]{huh.NewOption("keep current colors", keepTheme)}
	for _, name := range names {
		opts = append(opts, huh.NewOption(name, name))
	}
	return opts
}

func validateDesktopCount(s string) error {
	_, err := parseDesktopCount(s)
	return err
}

func validatePresets(s string) error {
	_, err := parsePresets(s)
	return err
}

func parseDesktopCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 16 {
		return 0, fmt.Errorf("desktop count must be a number from 1 to 16")
	}
	return n, nil
}

// parsePresets reads a comma separated list of timer lengths in minutes.
func parsePresets(s string) ([]int, error) {
	var presets []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid timer preset %q", field)
		}
		presets = append(presets, n)
	}
	if len(presets) == 0 {
		return nil, errors.New("at least one timer preset is required")
	}
	return presets, nil
}

func formatPresets(presets []int) string {
	parts := make([]string, len(presets))
	for i, p := range presets {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}

func newSetupForm(v *setupValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("desktop_count").
				Title("Desktops").
				Description("How many desktops you work across").
				Validate(validateDesktopCount).
				Value(&v.DesktopCount),

			huh.NewSelect[string]().
				Key("theme").
				Title("Color Theme").
				Description("Assigned to desktops in order").
				Options(themeOptions()...).
				Value(&v.Theme),

			huh.NewInput().
				Key("timer_presets").
				Title("Timer Presets").
				Description("Minutes, comma separated").
				Validate(validatePresets).
				Value(&v.TimerPresets),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Key("notify_system").
				Title("System notifications when a timer ends?").
				Value(&v.NotifySystem),

			huh.NewConfirm().
				Key("notify_flash").
				Title("Flash the screen when a timer ends?").
				Value(&v.NotifyFlash),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

// applySetup writes the wizard's answers through the daemon and marks
// setup complete.
func applySetup(client Client, v setupValues) error {
	count, err := parseDesktopCount(v.DesktopCount)
	if err != nil {
		return err
	}
	presets, err := parsePresets(v.TimerPresets)
	if err != nil {
		return err
	}

	if err := client.SaveDesktopCount(count); err != nil {
		return err
	}
	if v.Theme != "" && v.Theme != keepTheme {
		colors, ok := Themes[v.Theme]
		if !ok {
			return fmt.Errorf("unknown theme %q", v.Theme)
		}
		if err := client.ApplyTheme(colors); err != nil {
			return err
		}
	}
	if err := client.SaveTimerPresets(presets); err != nil {
		return err
	}
	if err := client.SaveNotifySettings(v.NotifySystem, v.NotifyFlash); err != nil {
		return err
	}
	return client.CompleteSetup()
}

// RunSetup runs the first-run wizard, prefilled from the current settings.
func RunSetup(client Client) error {
	settings, err := client.Settings()
	if err != nil {
		return err
	}

	v := setupValues{
		DesktopCount: strconv.Itoa(settings.DesktopCount),
		Theme:        keepTheme,
		TimerPresets: formatPresets(settings.TimerPresets),
		NotifySystem: settings.NotifySystem,
		NotifyFlash:  settings.NotifyFlash,
	}
	if settings.DesktopCount <= 0 {
		v.DesktopCount = "4"
	}
	if len(settings.TimerPresets) == 0 {
		v.TimerPresets = "5, 15, 25"
	}

	if err := newSetupForm(&v).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}
	return applySetup(client, v)
}

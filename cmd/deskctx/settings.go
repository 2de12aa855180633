package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/1broseidon/deskctx/internal/tui"
)

func newSettingsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := g.client().Settings()
			if err != nil {
				return err
			}
			return emit(cmd, g, settings, func(w io.Writer) {
				printKV(w, "setup_complete", yesNo(settings.SetupComplete))
				printKV(w, "desktop_count", settings.DesktopCount)
				printKV(w, "timer_presets", joinInts(settings.TimerPresets))
				printKV(w, "notify_system", yesNo(settings.NotifySystem))
				printKV(w, "notify_flash", yesNo(settings.NotifyFlash))
				printKV(w, "hidden_panels", strings.Join(settings.HiddenPanels, ", "))
				if len(settings.CustomColors) > 0 {
					fmt.Fprintln(w, "custom_colors:")
					ids := make([]uint64, 0, len(settings.CustomColors))
					for id := range settings.CustomColors {
						ids = append(ids, id)
					}
					sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
					color := styled()
					for _, id := range ids {
						hex := settings.CustomColors[id]
						fmt.Fprintf(w, "  space %-6d %s%s\n", id, colorSwatch(hex, color), hex)
					}
				}
			})
		},
	}

	cmd.AddCommand(
		newSettingsColorCmd(g),
		newSettingsThemeCmd(g),
		&cobra.Command{
			Use:   "desktop-count <n>",
			Short: "Set how many desktops you work across",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return usageError{fmt.Sprintf("invalid desktop count %q", args[0])}
				}
				return g.client().SaveDesktopCount(n)
			},
		},
		&cobra.Command{
			Use:   "timers <minutes>...",
			Short: "Set the timer presets, e.g. 'timers 5,15,25'",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				presets, err := parseInts(args)
				if err != nil {
					return err
				}
				return g.client().SaveTimerPresets(presets)
			},
		},
		newSettingsNotifyCmd(g),
		&cobra.Command{
			Use:   "hide-panels [panel]...",
			Short: "Set which window panels are hidden; no arguments shows all",
			RunE: func(cmd *cobra.Command, args []string) error {
				panels := args
				if panels == nil {
					panels = []string{}
				}
				return g.client().SaveHiddenPanels(panels)
			},
		},
		&cobra.Command{
			Use:   "complete-setup",
			Short: "Mark first-run setup as done",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.client().CompleteSetup()
			},
		},
		newClearAllCmd(g),
		newAccessibilityCmd(g),
	)
	return cmd
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

func newSettingsColorCmd(g *globalFlags) *cobra.Command {
	var sel desktopFlags
	cmd := &cobra.Command{
		Use:   "color <#rrggbb>",
		Short: "Set a desktop's color; an empty value restores the palette default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hex := strings.TrimSpace(args[0])
			if hex != "" && !validHex(hex) {
				return usageError{fmt.Sprintf("invalid color %q: want #rrggbb", hex)}
			}
			client := g.client()
			desktop, err := resolveDesktop(client, sel.desktop, sel.display)
			if err != nil {
				return err
			}
			return client.SaveColor(desktop, strings.ToUpper(hex))
		},
	}
	sel.register(cmd)
	return cmd
}

func validHex(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	_, err := strconv.ParseUint(s[1:], 16, 32)
	return err == nil
}

func newSettingsThemeCmd(g *globalFlags) *cobra.Command {
	names := make([]string, 0, len(tui.Themes))
	for name := range tui.Themes {
		names = append(names, name)
	}
	sort.Strings(names)

	return &cobra.Command{
		Use:       "theme <name>",
		Short:     "Recolor every desktop from a theme (" + strings.Join(names, ", ") + ")",
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			colors, ok := tui.Themes[args[0]]
			if !ok {
				return usageError{fmt.Sprintf("unknown theme %q (have %s)", args[0], strings.Join(names, ", "))}
			}
			return g.client().ApplyTheme(colors)
		},
	}
}

func newSettingsNotifyCmd(g *globalFlags) *cobra.Command {
	var system, flash bool
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Choose how timer completion is signalled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := g.client()
			current, err := client.Settings()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("system") {
				system = current.NotifySystem
			}
			if !cmd.Flags().Changed("flash") {
				flash = current.NotifyFlash
			}
			return client.SaveNotifySettings(system, flash)
		},
	}
	cmd.Flags().BoolVar(&system, "system", false, "send a desktop notification")
	cmd.Flags().BoolVar(&flash, "flash", false, "flash the screen")
	return cmd
}

func newClearAllCmd(g *globalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-all",
		Short: "Erase every title, todo, color, history entry and setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return usageError{"refusing to erase all data without --yes"}
			}
			if err := g.client().ClearAllData(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all data cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm erasing all data")
	return cmd
}

func newAccessibilityCmd(g *globalFlags) *cobra.Command {
	var request bool
	cmd := &cobra.Command{
		Use:   "accessibility",
		Short: "Check whether deskctx may synthesize keyboard input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := g.client()
			var trusted bool
			var err error
			if request {
				trusted, err = client.RequestAccessibility()
			} else {
				trusted, err = client.CheckAccessibility()
			}
			if err != nil {
				return err
			}
			return emit(cmd, g, map[string]bool{"trusted": trusted}, func(w io.Writer) {
				if trusted {
					fmt.Fprintln(w, "input synthesis available")
				} else {
					fmt.Fprintln(w, "input synthesis unavailable: the X server lacks the XTEST extension")
				}
			})
		},
	}
	cmd.Flags().BoolVar(&request, "request", false, "ask for access instead of only checking")
	return cmd
}

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/1broseidon/deskctx/internal/commands"
)

func newStatusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := g.client().GetStatus()
			if err != nil {
				return err
			}
			return emit(cmd, g, status, func(w io.Writer) {
				printKV(w, "daemon_running", status.DaemonRunning)
				printKV(w, "profile", status.Profile)
				printKV(w, "data_file", status.DataFile)
				printKV(w, "switch", status.SwitchStrategy)
				printKV(w, "displays", status.Displays)
				printKV(w, "windows", status.Windows)
				printKV(w, "subscribers", status.Subscribers)
				printKV(w, "trusted", status.Trusted)
				printKV(w, "display_events", status.DisplayEvents)
				printKV(w, "uptime_seconds", status.UptimeSeconds)
			})
		},
	}
}

func newMonitorsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "monitors",
		Short: "List connected monitors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := g.client().GetMonitors()
			if err != nil {
				return err
			}
			return emit(cmd, g, data, func(w io.Writer) {
				for _, m := range data.Monitors {
					fmt.Fprintf(w, "%-10s %-10s %dx%d+%d+%d scale %.2g\n",
						m.Label, m.Name, m.Width, m.Height, m.X, m.Y, m.ScaleFactor)
				}
				if data.Hardware != len(data.Monitors) {
					fmt.Fprintf(w, "hardware reports %d monitors\n", data.Hardware)
				}
			})
		},
	}
}

func newReloadCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Ask the daemon to reload its config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.client().Reload(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config reloaded")
			return nil
		},
	}
}

func newDesktopsCmd(g *globalFlags) *cobra.Command {
	var current bool

	cmd := &cobra.Command{
		Use:   "desktops",
		Short: "List desktops grouped by display",
		Long: `List every desktop grouped by display with its title, color and number of
open todos. Positions are global: they continue across displays.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := g.client()
			if current {
				infos, err := client.CurrentDesktops()
				if err != nil {
					return err
				}
				return emit(cmd, g, infos, func(w io.Writer) {
					color := styled()
					for display, info := range infos {
						if info.SpaceID == 0 {
							fmt.Fprintf(w, "display %d: %s\n", display, muted("no desktop", color))
							continue
						}
						fmt.Fprintf(w, "display %d: %s%s (space %d)\n", display, colorSwatch(info.Color, color), info.Name, info.SpaceID)
					}
				})
			}

			groups, err := client.ListDesktopsGrouped()
			if err != nil {
				return err
			}
			return emit(cmd, g, groups, func(w io.Writer) {
				printDesktopGroups(w, groups, styled())
			})
		},
	}
	cmd.Flags().BoolVar(&current, "current", false, "show only the desktop each display is showing")
	return cmd
}

func printDesktopGroups(w io.Writer, groups []commands.DisplayGroup, color bool) {
	for i, group := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, header(fmt.Sprintf("Display %d", group.DisplayIndex), color))
		for _, d := range group.Desktops {
			line := fmt.Sprintf("  %2d. %s%-10s", d.Position+1, colorSwatch(d.Color, color), d.Name)
			if d.Title != "" {
				line += "  " + d.Title
			}
			if d.TodoCount > 0 {
				line += muted(fmt.Sprintf("  (%d open)", d.TodoCount), color)
			}
			fmt.Fprintf(w, "%s  %s\n", line, muted(fmt.Sprintf("space %d", d.SpaceID), color))
		}
	}
}

func newSwitchCmd(g *globalFlags) *cobra.Command {
	var display int

	cmd := &cobra.Command{
		Use:   "switch <space-id>",
		Short: "Switch a display to another of its desktops",
		Long: `Switch by synthesizing the window manager's desktop shortcuts. The target
must be on the given display; switching to the current desktop is a no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseSpaceID(args[0])
			if err != nil {
				return err
			}
			ok, err := g.client().SwitchDesktop(display, target)
			if err != nil {
				return err
			}
			return emit(cmd, g, map[string]bool{"switched": ok}, func(w io.Writer) {
				if ok {
					fmt.Fprintf(w, "switched to space %d\n", target)
				} else {
					fmt.Fprintf(w, "not switched: space %d is current or not on display %d\n", target, display)
				}
			})
		},
	}
	cmd.Flags().IntVar(&display, "display", 0, "display index")
	return cmd
}

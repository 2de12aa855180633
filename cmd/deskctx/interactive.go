package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/1broseidon/deskctx/internal/tui"
)

func requireTTY() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("this command requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	return nil
}

func newSetupCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Run the first-run setup wizard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireTTY(); err != nil {
				return err
			}
			return tui.RunSetup(g.client())
		},
	}
}

func newWatchCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Open the live desktop dashboard",
		Long: `Show every desktop with its title, color and open todos, refreshed as the
daemon reports changes.

Keybindings:
  j/k, ↑/↓  Navigate desktops
  Enter     Switch the desktop's display to it
  r         Refresh
  q, Esc    Quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireTTY(); err != nil {
				return err
			}
			client := g.client()
			if err := client.Ping(); err != nil {
				return err
			}
			return tui.RunWatch(cmd.Context(), client)
		},
	}
}

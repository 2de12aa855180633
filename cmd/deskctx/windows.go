package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newWindowsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "List or toggle the per-monitor context windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			labels, err := g.client().Windows()
			if err != nil {
				return err
			}
			return emit(cmd, g, labels, func(w io.Writer) {
				for _, label := range labels {
					fmt.Fprintln(w, label)
				}
			})
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show [label]",
			Short: "Show one window, or all of them",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.client().ShowWindow(optionalArg(args))
			},
		},
		&cobra.Command{
			Use:   "hide [label]",
			Short: "Hide one window, or all of them",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.client().HideWindow(optionalArg(args))
			},
		},
		&cobra.Command{
			Use:   "toggle",
			Short: "Hide every window if any is visible, otherwise show them all",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				visible, err := g.client().ToggleWindows()
				if err != nil {
					return err
				}
				if visible {
					fmt.Fprintln(cmd.OutOrStdout(), "windows shown")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "windows hidden")
				}
				return nil
			},
		},
	)
	return cmd
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

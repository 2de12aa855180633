package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1broseidon/deskctx/internal/palette"
)

func newPickCmd(g *globalFlags) *cobra.Command {
	var backendName string

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Choose a desktop from a launcher menu and switch to it",
		Long: `Show every desktop in rofi, fuzzel, wofi or dmenu and switch the chosen
desktop's display to it. Bind this to a key in your window manager for a
quick desktop jumper.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := palette.NewBackend(backendName)
			if err != nil {
				return err
			}
			item, ok, err := palette.Pick(backend, g.client())
			if errors.Is(err, palette.ErrCancelled) {
				return nil
			}
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "space %d is already current\n", item.SpaceID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&backendName, "backend", "auto", "launcher: auto, rofi, fuzzel, wofi, dmenu")
	return cmd
}

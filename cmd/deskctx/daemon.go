package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/1broseidon/deskctx/internal/daemon"
	"github.com/1broseidon/deskctx/internal/platform"
)

func newDaemonCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Start the deskctx daemon (foreground)",
		Long: `Connect to the X display, load the notes file and serve the IPC socket
until interrupted. SIGHUP reloads the config file; edits to the file are
also picked up automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), g)
		},
	}
}

func runDaemon(ctx context.Context, g *globalFlags) error {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Key bindings are replaced from the loaded config once the daemon starts.
	backend, err := platform.NewLinuxBackendFromDisplay(platform.DefaultKeyBindings, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to display: %w", err)
	}
	defer backend.Disconnect()

	logger.Info("deskctx daemon starting", "version", version)
	return daemon.Run(ctx, daemon.Options{
		ConfigPath: g.configPath,
		SocketPath: g.socketPath,
		Backend:    backend,
		Logger:     logger,
		Level:      level,
		Version:    version,
	})
}

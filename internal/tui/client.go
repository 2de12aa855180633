// Package tui holds the interactive terminal views: the live desktop
// dashboard and the first-run setup wizard.
package tui

import (
	"context"

	"github.com/1broseidon/deskctx/internal/commands"
	"github.com/1broseidon/deskctx/internal/ipc"
	"github.com/1broseidon/deskctx/internal/store"
)

// Client is the slice of the daemon IPC client the views use.
type Client interface {
	ListDesktopsGrouped() ([]commands.DisplayGroup, error)
	SwitchDesktop(display int, target uint64) (bool, error)
	Subscribe(ctx context.Context, fn func(ipc.StreamEvent)) error

	Settings() (store.Settings, error)
	SaveDesktopCount(count int) error
	ApplyTheme(colors []string) error
	SaveTimerPresets(presets []int) error
	SaveNotifySettings(system, flash bool) error
	CompleteSetup() error
}

var _ Client = (*ipc.Client)(nil)

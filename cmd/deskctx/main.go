package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/1broseidon/deskctx/internal/config"
	"github.com/1broseidon/deskctx/internal/ipc"
)

var version = "dev"

// usageError marks failures that should exit 2 like a bad flag.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

type globalFlags struct {
	configPath string
	socketPath string
	jsonOut    bool
}

func main() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var ue usageError
		if errors.As(err, &ue) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "deskctx",
		Short: "Per-desktop titles, todos and colors for X11 workspaces",
		Long: `deskctx attaches a title, a todo list and a color to every virtual
desktop, shows them in a small window on each monitor and keeps the
context in sync as you move between desktops.

Run 'deskctx daemon' once per session; every other command talks to the
running daemon over its unix socket.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file path (default: ~/.config/deskctx/config.yaml)")
	root.PersistentFlags().StringVar(&g.socketPath, "socket", "", "daemon socket path (default: $XDG_RUNTIME_DIR/deskctx.sock)")
	root.PersistentFlags().BoolVar(&g.jsonOut, "json", false, "print machine-readable JSON")

	root.AddCommand(
		newDaemonCmd(g),
		newStatusCmd(g),
		newMonitorsCmd(g),
		newReloadCmd(g),
		newDesktopsCmd(g),
		newSwitchCmd(g),
		newPickCmd(g),
		newTodosCmd(g),
		newTitleCmd(g),
		newSessionCmd(g),
		newCompletedCmd(g),
		newSettingsCmd(g),
		newWindowsCmd(g),
		newConfigCmd(g),
		newMCPCmd(g),
		newSetupCmd(g),
		newWatchCmd(g),
	)
	return root
}

func (g *globalFlags) client() *ipc.Client {
	if g.socketPath != "" {
		return ipc.NewClientWithSocket(g.socketPath)
	}
	return ipc.NewClient()
}

func (g *globalFlags) loadConfig() (*config.LoadResult, error) {
	if g.configPath == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(g.configPath)
}

// styled reports whether stdout is a terminal that can take colors.
func styled() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// parseSpaceID parses a positive space id argument.
func parseSpaceID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
	if err != nil || id == 0 {
		return 0, usageError{fmt.Sprintf("invalid desktop %q: want a space id", arg)}
	}
	return id, nil
}

// resolveDesktop turns an optional --desktop value into a space id; 0 means
// the desktop currently shown on the given display.
func resolveDesktop(client *ipc.Client, desktop uint64, display int) (uint64, error) {
	if desktop != 0 {
		return desktop, nil
	}
	info, err := client.Desktop(display)
	if err != nil {
		return 0, err
	}
	if info.SpaceID == 0 {
		return 0, fmt.Errorf("display %d has no current desktop; pass --desktop", display)
	}
	return info.SpaceID, nil
}

func parseInts(args []string) ([]int, error) {
	var out []int
	for _, arg := range args {
		for _, field := range strings.Split(arg, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			n, err := strconv.Atoi(field)
			if err != nil || n <= 0 {
				return nil, usageError{fmt.Sprintf("invalid number %q", field)}
			}
			out = append(out, n)
		}
	}
	return out, nil
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceEnv:
		if src.Name != "" {
			return "env:" + src.Name
		}
		return "env"
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}

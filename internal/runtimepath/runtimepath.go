package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	appName = "deskctx"

	dataFileName    = "notes.json"
	devDataFileName = "notes-dev.json"
)

// Dir returns the runtime directory used for the IPC socket. Priority:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
// 3) /tmp/deskctx-runtime-<uid> (created)
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	uid := os.Getuid()
	runUserDir := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return runUserDir, nil
	}

	tmpDir := fmt.Sprintf("/tmp/%s-runtime-%d", appName, uid)
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmpDir, nil
}

// SocketPath returns the daemon IPC socket path.
func SocketPath() (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, appName+".sock"), nil
}

// DataDir returns the directory holding the persisted state file:
// override when non-empty, else $XDG_DATA_HOME/deskctx, else
// ~/.local/share/deskctx. It is not created.
func DataDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// DataFile returns the state file path inside dir, notes-dev.json for the
// development profile and notes.json otherwise.
func DataFile(dir string, dev bool) string {
	if dev {
		return filepath.Join(dir, devDataFileName)
	}
	return filepath.Join(dir, dataFileName)
}

// EnsureDataFile creates the data directory and returns the state file path.
// Failure here is fatal for the daemon.
func EnsureDataFile(override string, dev bool) (string, error) {
	dir, err := DataDir(override)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return DataFile(dir, dev), nil
}

package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// stickyDesktop is the _NET_WM_DESKTOP value for windows shown on every desktop.
const stickyDesktop = 0xFFFFFFFF

// GetCurrentDesktop returns the current virtual desktop number (0-indexed).
// Uses _NET_CURRENT_DESKTOP atom. Returns 0 with an error if detection fails.
func (c *Connection) GetCurrentDesktop() (int, error) {
	desktop, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get current desktop: %w", err)
	}
	return int(desktop), nil
}

// GetDesktopCount returns the number of virtual desktops.
func (c *Connection) GetDesktopCount() (int, error) {
	count, err := ewmh.NumberOfDesktopsGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get desktop count: %w", err)
	}
	return int(count), nil
}

// GetVisibleDesktops returns the desktop shown on each monitor for window
// managers that publish _NET_VISIBLE_DESKTOPS (per-monitor workspaces).
// Returns nil when the property is missing.
func (c *Connection) GetVisibleDesktops() []int {
	visible, err := ewmh.VisibleDesktopsGet(c.XUtil)
	if err != nil || len(visible) == 0 {
		return nil
	}
	out := make([]int, len(visible))
	for i, d := range visible {
		out[i] = int(d)
	}
	return out
}

// DesktopHasFullscreenFocus reports whether the active window sits on the
// given desktop in _NET_WM_STATE_FULLSCREEN.
func (c *Connection) DesktopHasFullscreenFocus(desktop int) bool {
	active, err := ewmh.ActiveWindowGet(c.XUtil)
	if err != nil || active == 0 {
		return false
	}

	winDesktop, err := ewmh.WmDesktopGet(c.XUtil, active)
	if err == nil && winDesktop != stickyDesktop && int(winDesktop) != desktop {
		return false
	}

	return c.hasState(active, "_NET_WM_STATE_FULLSCREEN")
}

func (c *Connection) hasState(win xproto.Window, state string) bool {
	states, err := ewmh.WmStateGet(c.XUtil, win)
	if err != nil {
		return false
	}
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}

package x11

import (
	"errors"
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WindowClass is the WM_CLASS class set on every utility window.
const WindowClass = "Deskctx"

// UtilityWindow describes a top-level helper window to create.
type UtilityWindow struct {
	Label      string
	Title      string
	X, Y       int
	Width      int
	Height     int
	Background uint32
}

// PropertyError reports window-manager hints the server rejected. The window
// exists and is tracked, but may not stay on top, follow every desktop or
// stay out of the taskbar.
type PropertyError struct {
	Label string
	Err   error
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("window %q: set properties: %v", e.Label, e.Err)
}

func (e *PropertyError) Unwrap() error { return e.Err }

type propertySetter struct {
	name string
	set  func() error
}

// setProperties runs every setter and joins the failures into a
// *PropertyError.
func setProperties(label string, setters []propertySetter) error {
	var errs []error
	for _, p := range setters {
		if err := p.set(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.name, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &PropertyError{Label: label, Err: errors.Join(errs...)}
}

// CreateUtilityWindow creates an unmapped, always-on-top utility window that
// is visible on every desktop once shown and kept out of taskbars and
// pagers. The window is tracked under its label until CloseWindow. A
// *PropertyError means the window was created with some hints missing.
func (c *Connection) CreateUtilityWindow(spec UtilityWindow) error {
	c.winMu.Lock()
	defer c.winMu.Unlock()

	if _, exists := c.windows[spec.Label]; exists {
		return fmt.Errorf("window %q already exists", spec.Label)
	}

	win, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return fmt.Errorf("generate window id: %w", err)
	}

	if err := win.CreateChecked(c.Root, spec.X, spec.Y, spec.Width, spec.Height,
		xproto.CwBackPixel, spec.Background); err != nil {
		return fmt.Errorf("create window %q: %w", spec.Label, err)
	}

	// Properties must be set before mapping so the WM honors them on manage.
	xu, id := c.XUtil, win.Id
	c.windows[spec.Label] = win
	return setProperties(spec.Label, []propertySetter{
		{"_NET_WM_WINDOW_TYPE", func() error {
			return ewmh.WmWindowTypeSet(xu, id, []string{"_NET_WM_WINDOW_TYPE_UTILITY"})
		}},
		{"_NET_WM_STATE", func() error {
			return ewmh.WmStateSet(xu, id, []string{
				"_NET_WM_STATE_ABOVE",
				"_NET_WM_STATE_STICKY",
				"_NET_WM_STATE_SKIP_TASKBAR",
				"_NET_WM_STATE_SKIP_PAGER",
			})
		}},
		{"_NET_WM_DESKTOP", func() error { return ewmh.WmDesktopSet(xu, id, stickyDesktop) }},
		{"_NET_WM_NAME", func() error { return ewmh.WmNameSet(xu, id, spec.Title) }},
		{"WM_CLASS", func() error {
			return icccm.WmClassSet(xu, id, &icccm.WmClass{Instance: spec.Label, Class: WindowClass})
		}},
	})
}

// WindowLabels returns the labels of all tracked utility windows, sorted.
func (c *Connection) WindowLabels() []string {
	c.winMu.Lock()
	defer c.winMu.Unlock()

	labels := make([]string, 0, len(c.windows))
	for label := range c.windows {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// CloseWindow destroys a tracked utility window.
func (c *Connection) CloseWindow(label string) error {
	c.winMu.Lock()
	win, ok := c.windows[label]
	delete(c.windows, label)
	c.winMu.Unlock()

	if !ok {
		return fmt.Errorf("window %q not found", label)
	}
	win.Destroy()
	return nil
}

// MoveWindow repositions a tracked utility window.
func (c *Connection) MoveWindow(label string, x, y int) error {
	win, err := c.lookup(label)
	if err != nil {
		return err
	}

	// Use EWMH move for better WM compatibility
	if err := ewmh.MoveWindow(c.XUtil, win.Id, x, y); err != nil {
		// Fallback to direct window manipulation
		win.Move(x, y)
	}
	return nil
}

// ShowWindow maps a tracked utility window.
func (c *Connection) ShowWindow(label string) error {
	win, err := c.lookup(label)
	if err != nil {
		return err
	}
	win.Map()
	return nil
}

// HideWindow unmaps a tracked utility window.
func (c *Connection) HideWindow(label string) error {
	win, err := c.lookup(label)
	if err != nil {
		return err
	}
	win.Unmap()
	return nil
}

func (c *Connection) lookup(label string) (*xwindow.Window, error) {
	c.winMu.Lock()
	defer c.winMu.Unlock()

	win, ok := c.windows[label]
	if !ok {
		return nil, fmt.Errorf("window %q not found", label)
	}
	return win, nil
}

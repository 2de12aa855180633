//go:build linux

package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/1broseidon/deskctx/internal/x11"
)

// LinuxBackend wraps an X11 connection behind the platform Backend interface.
// EWMH desktops form a single managed display; space ids are desktop
// index + 1 so that 0 keeps meaning "unknown".
type LinuxBackend struct {
	conn   *x11.Connection
	logger *slog.Logger

	mu   sync.RWMutex
	keys KeyBindings
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection, keys KeyBindings, logger *slog.Logger) *LinuxBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinuxBackend{conn: conn, keys: withDefaults(keys), logger: logger}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay(keys KeyBindings, logger *slog.Logger) (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn, keys, logger), nil
}

func withDefaults(k KeyBindings) KeyBindings {
	if k.Left == "" {
		k.Left = DefaultKeyBindings.Left
	}
	if k.Right == "" {
		k.Right = DefaultKeyBindings.Right
	}
	if k.JumpModifier == "" {
		k.JumpModifier = DefaultKeyBindings.JumpModifier
	}
	return k
}

// SetKeyBindings replaces the desktop-switch shortcuts, e.g. after a config
// reload.
func (b *LinuxBackend) SetKeyBindings(keys KeyBindings) {
	b.mu.Lock()
	b.keys = withDefaults(keys)
	b.mu.Unlock()
}

func (b *LinuxBackend) bindings() KeyBindings {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.keys
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// XUtil exposes the xgbutil connection for global key bindings.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the root window key bindings attach to.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// StopEventLoop makes a running EventLoop return.
func (b *LinuxBackend) StopEventLoop() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// ManagedDisplays reports every EWMH desktop as a space of one managed
// display. Returns nil when the window manager publishes no desktops.
func (b *LinuxBackend) ManagedDisplays() []ManagedDisplay {
	conn, err := b.connection()
	if err != nil {
		return nil
	}

	count, err := conn.GetDesktopCount()
	if err != nil || count <= 0 {
		return nil
	}

	spaces := make([]RawSpace, count)
	for i := range spaces {
		spaces[i] = RawSpace{ID: uint64(i + 1), Kind: SpaceNormal}
	}
	md := ManagedDisplay{Spaces: spaces}

	current := -1
	if visible := conn.GetVisibleDesktops(); len(visible) > 0 {
		current = visible[0]
	} else if d, err := conn.GetCurrentDesktop(); err == nil {
		current = d
	}
	if current >= 0 && current < count {
		kind := SpaceNormal
		if conn.DesktopHasFullscreenFocus(current) {
			kind = SpaceFullscreen
		}
		md.Current = RawSpace{ID: uint64(current + 1), Kind: kind}
	}

	return []ManagedDisplay{md}
}

// Displays returns all active displays, primary first.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for i, m := range monitors {
		displays = append(displays, displayFromMonitor(i, m))
	}
	return displays, nil
}

// HardwareDisplayCount returns the number of connected RandR outputs.
func (b *LinuxBackend) HardwareDisplayCount() int {
	conn, err := b.connection()
	if err != nil {
		return 0
	}
	return conn.ConnectedOutputCount()
}

// StepDesktop sends the move-left or move-right desktop shortcut.
func (b *LinuxBackend) StepDesktop(dir Direction) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	keys := b.bindings()
	combo := keys.Left
	if dir == DirectionRight {
		combo = keys.Right
	}
	return conn.SendKeyCombo(combo)
}

// JumpToDesktop sends the numbered desktop shortcut for ordinals 1-9.
func (b *LinuxBackend) JumpToDesktop(ordinal int) error {
	if ordinal < 1 || ordinal > 9 {
		return fmt.Errorf("desktop ordinal %d has no numbered shortcut", ordinal)
	}
	conn, err := b.connection()
	if err != nil {
		return err
	}
	combo := b.bindings().JumpModifier + "-" + strconv.Itoa(ordinal)
	return conn.SendKeyCombo(combo)
}

// DisplayEventsAvailable reports whether RandR screen-change notifications
// can be received.
func (b *LinuxBackend) DisplayEventsAvailable() bool {
	conn, err := b.connection()
	if err != nil {
		return false
	}
	return conn.HasRandR()
}

// Trusted reports whether XTEST input synthesis is available.
func (b *LinuxBackend) Trusted() bool {
	conn, err := b.connection()
	if err != nil {
		return false
	}
	return conn.HasXTest()
}

// RequestTrust retries XTEST initialization. X11 has no permission prompt,
// so this only helps when the extension was enabled after startup.
func (b *LinuxBackend) RequestTrust() bool {
	conn, err := b.connection()
	if err != nil {
		return false
	}
	return conn.RetryXTest()
}

// Windows lists the labels of live utility windows.
func (b *LinuxBackend) Windows() []string {
	conn, err := b.connection()
	if err != nil {
		return nil
	}
	return conn.WindowLabels()
}

// CreateWindow creates a sticky, always-on-top utility window.
func (b *LinuxBackend) CreateWindow(label string, spec WindowSpec) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	err = conn.CreateUtilityWindow(x11.UtilityWindow{
		Label:      label,
		Title:      spec.Title,
		X:          spec.X,
		Y:          spec.Y,
		Width:      spec.Width,
		Height:     spec.Height,
		Background: spec.Background,
	})
	return warnOnPropertyError(b.logger, err)
}

// warnOnPropertyError logs rejected window hints and treats the window as
// created. Other errors pass through.
func warnOnPropertyError(logger *slog.Logger, err error) error {
	var propErr *x11.PropertyError
	if !errors.As(err, &propErr) {
		return err
	}
	logger.Warn("utility window created without some window manager hints",
		"label", propErr.Label, "error", propErr.Err)
	return nil
}

// CloseWindow destroys a utility window.
func (b *LinuxBackend) CloseWindow(label string) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.CloseWindow(label)
}

// MoveWindow repositions a utility window.
func (b *LinuxBackend) MoveWindow(label string, x, y int) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.MoveWindow(label, x, y)
}

// ShowWindow maps a utility window.
func (b *LinuxBackend) ShowWindow(label string) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.ShowWindow(label)
}

// HideWindow unmaps a utility window.
func (b *LinuxBackend) HideWindow(label string) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.HideWindow(label)
}

// OnSpaceChanged registers fn for EWMH desktop property changes.
func (b *LinuxBackend) OnSpaceChanged(fn func()) {
	conn, err := b.connection()
	if err != nil {
		return
	}
	if err := conn.WatchDesktops(fn); err != nil {
		b.logger.Warn("desktop change notifications unavailable", "error", err)
	}
}

// OnDisplayReconfigured registers fn for RandR notifications. X11 has no
// begin-configuration phase, so every signal is delivered with zero flags.
func (b *LinuxBackend) OnDisplayReconfigured(fn func(flags DisplayChangeFlags)) {
	conn, err := b.connection()
	if err != nil {
		return
	}
	if err := conn.WatchScreens(func() { fn(0) }); err != nil {
		b.logger.Warn("display change notifications unavailable", "error", err)
	}
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func displayFromMonitor(index int, m x11.Monitor) Display {
	return Display{
		Index: index,
		Name:  m.Name,
		Bounds: Rect{
			X:      m.X,
			Y:      m.Y,
			Width:  m.Width,
			Height: m.Height,
		},
		ScaleFactor: 1,
	}
}

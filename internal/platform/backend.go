package platform

import (
	"fmt"
)

// SpaceKind distinguishes ordinary desktops from full-screen application spaces.
type SpaceKind int

const (
	SpaceNormal SpaceKind = iota
	SpaceFullscreen
)

func (k SpaceKind) String() string {
	if k == SpaceFullscreen {
		return "fullscreen"
	}
	return "normal"
}

// RawSpace is one entry of a display's native space list.
type RawSpace struct {
	ID   uint64
	Kind SpaceKind
}

// ManagedDisplay is the native space list of one display plus the space it
// currently shows. Current.ID is 0 when the platform reports no current space.
type ManagedDisplay struct {
	Spaces  []RawSpace
	Current RawSpace
}

// Rect describes a rectangular region in physical screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Display describes a physical monitor.
type Display struct {
	Index       int
	Name        string
	Bounds      Rect
	ScaleFactor float64
}

// Label returns the stable window label for the display.
func (d Display) Label() string {
	return LabelForIndex(d.Index)
}

// Logical returns the display bounds divided by its scale factor.
func (d Display) Logical() (x, y, width, height float64) {
	scale := d.ScaleFactor
	if scale <= 0 {
		scale = 1
	}
	return float64(d.Bounds.X) / scale,
		float64(d.Bounds.Y) / scale,
		float64(d.Bounds.Width) / scale,
		float64(d.Bounds.Height) / scale
}

// MainLabel is the label of the window anchored to display 0.
const MainLabel = "main"

// LabelForIndex maps a display index to its window label.
func LabelForIndex(index int) string {
	if index <= 0 {
		return MainLabel
	}
	return fmt.Sprintf("monitor-%d", index)
}

// Direction is the direction of a single desktop step.
type Direction int

const (
	DirectionLeft Direction = iota
	DirectionRight
)

func (d Direction) String() string {
	if d == DirectionRight {
		return "right"
	}
	return "left"
}

// DisplayChangeFlags carries the phase bits of a display reconfiguration signal.
type DisplayChangeFlags uint32

// DisplayBeginConfiguration marks the signal sent before the platform starts
// updating its display list.
const DisplayBeginConfiguration DisplayChangeFlags = 1 << 0

// WindowSpec describes a utility window to create.
type WindowSpec struct {
	Title  string
	X      int
	Y      int
	Width  int
	Height int
	// Background is an 0xRRGGBB color.
	Background uint32
}

// KeyBindings are the window-manager shortcuts used to move between desktops,
// written in xgbutil keybind syntax ("Control-Mod1-Right").
type KeyBindings struct {
	Left         string
	Right        string
	JumpModifier string
}

// DefaultKeyBindings match the stock bindings of most EWMH window managers.
var DefaultKeyBindings = KeyBindings{
	Left:         "Control-Mod1-Left",
	Right:        "Control-Mod1-Right",
	JumpModifier: "Mod4",
}

// SpaceQuery reads the platform's per-display space lists. Implementations
// return nil when the platform connection is unavailable and never panic.
type SpaceQuery interface {
	ManagedDisplays() []ManagedDisplay
}

// DisplayQuery enumerates physical monitors.
type DisplayQuery interface {
	// Displays uses the public enumeration API, which can lag behind the
	// hardware right after a reconfiguration.
	Displays() ([]Display, error)
	// HardwareDisplayCount queries the lower-level display count. 0 means the
	// query is unavailable.
	HardwareDisplayCount() int
}

// InputActuator synthesizes the keyboard events that move the active desktop.
type InputActuator interface {
	StepDesktop(dir Direction) error
	// JumpToDesktop presses the numbered hotkey for a 1-based local ordinal.
	JumpToDesktop(ordinal int) error
	// Trusted reports whether the process may synthesize input.
	Trusted() bool
	// RequestTrust asks the platform for input-synthesis permission and
	// reports the resulting state.
	RequestTrust() bool
}

// WindowHost creates and manipulates the per-display utility windows.
// CreateWindow leaves the window hidden until ShowWindow.
type WindowHost interface {
	Windows() []string
	CreateWindow(label string, spec WindowSpec) error
	CloseWindow(label string) error
	MoveWindow(label string, x, y int) error
	ShowWindow(label string) error
	HideWindow(label string) error
}

// Notifier delivers asynchronous platform notifications. Callbacks run on
// the platform's own event goroutine and must not block.
type Notifier interface {
	OnSpaceChanged(fn func())
	OnDisplayReconfigured(fn func(flags DisplayChangeFlags))
}

// DisplayEventSource is implemented by notifiers that can tell whether
// display reconfiguration events are delivered at all. Without them only
// the periodic reconcile notices monitor changes.
type DisplayEventSource interface {
	DisplayEventsAvailable() bool
}

// Backend bundles every platform capability the engine needs.
type Backend interface {
	SpaceQuery
	DisplayQuery
	InputActuator
	WindowHost
	Notifier
}

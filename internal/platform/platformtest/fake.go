// Package platformtest provides an in-memory platform.Backend for tests.
package platformtest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/1broseidon/deskctx/internal/platform"
)

// Window is the fake's record of a utility window.
type Window struct {
	Spec    platform.WindowSpec
	Visible bool
}

// Fake is a scriptable platform.Backend, safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	managed  []platform.ManagedDisplay
	displays []platform.Display
	hardware int

	trusted      bool
	trustOnAsk   bool
	steps        []platform.Direction
	jumps        []int
	inputErr     error
	windows      map[string]*Window
	createErr    error
	spaceFns     []func()
	reconfigFns  []func(platform.DisplayChangeFlags)
	displayCalls int
	noEvents     bool
}

var (
	_ platform.Backend            = (*Fake)(nil)
	_ platform.DisplayEventSource = (*Fake)(nil)
)

// New returns a Fake with no spaces, no displays and input trusted.
func New() *Fake {
	return &Fake{trusted: true, windows: make(map[string]*Window)}
}

// SingleDisplay configures one managed display with the given space ids,
// the first of which is current.
func (f *Fake) SingleDisplay(ids ...uint64) *Fake {
	md := platform.ManagedDisplay{}
	for _, id := range ids {
		md.Spaces = append(md.Spaces, platform.RawSpace{ID: id})
	}
	if len(ids) > 0 {
		md.Current = platform.RawSpace{ID: ids[0]}
	}
	f.SetManaged([]platform.ManagedDisplay{md})
	return f
}

// SetManaged replaces the managed display list.
func (f *Fake) SetManaged(mds []platform.ManagedDisplay) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.managed = mds
}

// SetCurrent sets the current space of a managed display.
func (f *Fake) SetCurrent(display int, id uint64, kind platform.SpaceKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.managed[display].Current = platform.RawSpace{ID: id, Kind: kind}
}

// SetDisplays replaces the public display list and the hardware count.
func (f *Fake) SetDisplays(displays []platform.Display, hardware int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.displays = displays
	f.hardware = hardware
}

// SetDisplayEvents sets whether display reconfiguration events are reported
// as available.
func (f *Fake) SetDisplayEvents(available bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noEvents = !available
}

// SetTrusted configures input trust and whether RequestTrust grants it.
func (f *Fake) SetTrusted(trusted, grantOnRequest bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trusted = trusted
	f.trustOnAsk = grantOnRequest
}

// FailInput makes every input call return err.
func (f *Fake) FailInput(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputErr = err
}

// FailCreate makes CreateWindow return err.
func (f *Fake) FailCreate(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createErr = err
}

// Steps returns the desktop steps actuated so far.
func (f *Fake) Steps() []platform.Direction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Direction(nil), f.steps...)
}

// Jumps returns the numbered jumps actuated so far.
func (f *Fake) Jumps() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.jumps...)
}

// Window returns a copy of a window record.
func (f *Fake) Window(label string) (Window, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[label]
	if !ok {
		return Window{}, false
	}
	return *w, true
}

// DisplayCalls counts Displays invocations.
func (f *Fake) DisplayCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.displayCalls
}

// FireSpaceChanged invokes every registered space-change callback.
func (f *Fake) FireSpaceChanged() {
	f.mu.Lock()
	fns := append([]func(){}, f.spaceFns...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// FireDisplayReconfigured invokes every registered reconfiguration callback.
func (f *Fake) FireDisplayReconfigured(flags platform.DisplayChangeFlags) {
	f.mu.Lock()
	fns := append([]func(platform.DisplayChangeFlags){}, f.reconfigFns...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(flags)
	}
}

func (f *Fake) ManagedDisplays() []platform.ManagedDisplay {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]platform.ManagedDisplay, len(f.managed))
	for i, md := range f.managed {
		out[i] = platform.ManagedDisplay{
			Spaces:  append([]platform.RawSpace(nil), md.Spaces...),
			Current: md.Current,
		}
	}
	return out
}

func (f *Fake) Displays() ([]platform.Display, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.displayCalls++
	return append([]platform.Display(nil), f.displays...), nil
}

func (f *Fake) HardwareDisplayCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hardware
}

func (f *Fake) StepDesktop(dir platform.Direction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inputErr != nil {
		return f.inputErr
	}
	f.steps = append(f.steps, dir)
	return nil
}

func (f *Fake) JumpToDesktop(ordinal int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inputErr != nil {
		return f.inputErr
	}
	if ordinal < 1 || ordinal > 9 {
		return fmt.Errorf("desktop ordinal %d has no numbered shortcut", ordinal)
	}
	f.jumps = append(f.jumps, ordinal)
	return nil
}

func (f *Fake) DisplayEventsAvailable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.noEvents
}

func (f *Fake) Trusted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trusted
}

func (f *Fake) RequestTrust() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.trustOnAsk {
		f.trusted = true
	}
	return f.trusted
}

func (f *Fake) Windows() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	labels := make([]string, 0, len(f.windows))
	for label := range f.windows {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func (f *Fake) CreateWindow(label string, spec platform.WindowSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.windows[label]; ok {
		return fmt.Errorf("window %q already exists", label)
	}
	f.windows[label] = &Window{Spec: spec}
	return nil
}

func (f *Fake) CloseWindow(label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.windows[label]; !ok {
		return fmt.Errorf("window %q not found", label)
	}
	delete(f.windows, label)
	return nil
}

func (f *Fake) MoveWindow(label string, x, y int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[label]
	if !ok {
		return fmt.Errorf("window %q not found", label)
	}
	w.Spec.X, w.Spec.Y = x, y
	return nil
}

func (f *Fake) ShowWindow(label string) error {
	return f.setVisible(label, true)
}

func (f *Fake) HideWindow(label string) error {
	return f.setVisible(label, false)
}

func (f *Fake) setVisible(label string, visible bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[label]
	if !ok {
		return fmt.Errorf("window %q not found", label)
	}
	w.Visible = visible
	return nil
}

func (f *Fake) OnSpaceChanged(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spaceFns = append(f.spaceFns, fn)
}

func (f *Fake) OnDisplayReconfigured(fn func(platform.DisplayChangeFlags)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconfigFns = append(f.reconfigFns, fn)
}

// Monitors builds n side-by-side 1920x1080 displays at scale 1.
func Monitors(n int) []platform.Display {
	out := make([]platform.Display, n)
	for i := range out {
		out[i] = platform.Display{
			Index:       i,
			Name:        fmt.Sprintf("OUT-%d", i),
			Bounds:      platform.Rect{X: i * 1920, Width: 1920, Height: 1080},
			ScaleFactor: 1,
		}
	}
	return out
}

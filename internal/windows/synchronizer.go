// Package windows keeps one utility window per physical display and
// reconciles that set whenever the display list changes.
package windows

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/1broseidon/deskctx/internal/events"
	"github.com/1broseidon/deskctx/internal/platform"
	"github.com/1broseidon/deskctx/internal/tracing"
)

// State is the lifecycle state of one labelled window.
type State int

const (
	Absent State = iota
	Created
	Visible
	Hidden
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Visible:
		return "visible"
	case Hidden:
		return "hidden"
	case Closed:
		return "closed"
	default:
		return "absent"
	}
}

// Geometry is the window footprint and its anchor offsets from the
// top-right corner of a display's logical bounds.
type Geometry struct {
	Width     int
	Height    int
	Margin    int
	TopOffset int
}

// DefaultGeometry is the stock footprint.
var DefaultGeometry = Geometry{Width: 290, Height: 220, Margin: 16, TopOffset: 32}

func (g Geometry) withDefaults() Geometry {
	if g.Width <= 0 {
		g.Width = DefaultGeometry.Width
	}
	if g.Height <= 0 {
		g.Height = DefaultGeometry.Height
	}
	if g.Margin < 0 {
		g.Margin = DefaultGeometry.Margin
	}
	if g.TopOffset < 0 {
		g.TopOffset = DefaultGeometry.TopOffset
	}
	return g
}

// Anchor returns the top-left position of a window anchored to the
// top-right corner of the display.
func (g Geometry) Anchor(d platform.Display) (x, y int) {
	lx, ly, lw, _ := d.Logical()
	x = int(math.Round(lx + lw - float64(g.Width) - float64(g.Margin)))
	y = int(math.Round(ly + float64(g.TopOffset)))
	return x, y
}

// Options configures a Synchronizer.
type Options struct {
	Geometry   Geometry
	Background uint32
	Title      string
	Publisher  events.Publisher
	Logger     *slog.Logger
}

// Synchronizer reconciles utility windows against the display list.
// "main" is never closed, only moved to display 0.
type Synchronizer struct {
	host     platform.WindowHost
	displays platform.DisplayQuery
	pub      events.Publisher
	logger   *slog.Logger
	title    string
	bg       uint32

	mu         sync.Mutex
	geom       Geometry
	states     map[string]State
	mainBounds platform.Rect
	mainPlaced bool
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(host platform.WindowHost, displays platform.DisplayQuery, opts Options) *Synchronizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	title := opts.Title
	if title == "" {
		title = "deskctx"
	}
	bg := opts.Background
	if bg == 0 {
		bg = 0xF5E6A3
	}
	return &Synchronizer{
		host:     host,
		displays: displays,
		pub:      opts.Publisher,
		logger:   logger,
		title:    title,
		bg:       bg,
		geom:     opts.Geometry.withDefaults(),
		states:   make(map[string]State),
	}
}

// SetGeometry changes the footprint used for windows created from now on.
func (s *Synchronizer) SetGeometry(g Geometry) {
	s.mu.Lock()
	s.geom = g.withDefaults()
	s.mu.Unlock()
}

// ExpectedLabels returns the window labels for n displays.
func ExpectedLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = platform.LabelForIndex(i)
	}
	return labels
}

// Refresh queries the display list with the mismatch fallback and
// reconciles against it.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	monitors, err := platform.ListWithFallback(ctx, s.displays, s.logger)
	if err != nil {
		return fmt.Errorf("list displays: %w", err)
	}
	s.Reconcile(ctx, monitors)
	return nil
}

// Reconcile converges the live window set on one window per monitor:
// missing windows are created, extra non-main windows closed, and main is
// moved when display 0 changed. Publishes monitors-changed with the count.
func (s *Synchronizer) Reconcile(ctx context.Context, monitors []platform.Display) {
	_, span := tracing.Start(ctx, "windows.reconcile", attribute.Int("monitors", len(monitors)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	expected := ExpectedLabels(len(monitors))
	want := make(map[string]bool, len(expected))
	for _, label := range expected {
		want[label] = true
	}

	live := make(map[string]bool)
	for _, label := range s.host.Windows() {
		live[label] = true
	}

	for i, label := range expected {
		if live[label] {
			continue
		}
		if s.createLocked(label, monitors[i]) {
			live[label] = true
		}
	}

	for label := range live {
		if label == platform.MainLabel || want[label] {
			continue
		}
		s.logger.Info("closing window for removed monitor", "label", label)
		if err := s.host.CloseWindow(label); err != nil {
			s.logger.Warn("failed to close window", "label", label, "error", err)
			continue
		}
		s.states[label] = Closed
	}

	if live[platform.MainLabel] && len(monitors) > 0 {
		s.placeMainLocked(monitors[0])
	}

	span.SetAttributes(attribute.Int("windows", len(s.host.Windows())))
	if s.pub != nil {
		s.pub.Publish(events.MonitorsChanged, len(monitors))
	}
}

func (s *Synchronizer) createLocked(label string, d platform.Display) bool {
	x, y := s.geom.Anchor(d)
	title := s.title
	if label != platform.MainLabel {
		title = fmt.Sprintf("%s (%s)", s.title, label)
	}

	s.logger.Info("creating window for monitor", "label", label, "monitor", d.Index, "x", x, "y", y)
	err := s.host.CreateWindow(label, platform.WindowSpec{
		Title:      title,
		X:          x,
		Y:          y,
		Width:      s.geom.Width,
		Height:     s.geom.Height,
		Background: s.bg,
	})
	if err != nil {
		s.logger.Error("failed to create window", "label", label, "error", err)
		return false
	}
	s.states[label] = Created

	if err := s.host.ShowWindow(label); err != nil {
		s.logger.Warn("failed to show window", "label", label, "error", err)
	} else {
		s.states[label] = Visible
	}

	if label == platform.MainLabel {
		s.mainBounds = d.Bounds
		s.mainPlaced = true
	}
	return true
}

func (s *Synchronizer) placeMainLocked(d platform.Display) {
	if s.mainPlaced && s.mainBounds == d.Bounds {
		return
	}
	x, y := s.geom.Anchor(d)
	s.logger.Info("repositioning main window", "monitor", d.Index, "x", x, "y", y)
	if err := s.host.MoveWindow(platform.MainLabel, x, y); err != nil {
		s.logger.Warn("failed to reposition main window", "error", err)
		return
	}
	s.mainBounds = d.Bounds
	s.mainPlaced = true
}

// State returns the lifecycle state of a label.
func (s *Synchronizer) State(label string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[label]
}

// AnyVisible reports whether at least one window is mapped.
func (s *Synchronizer) AnyVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.states {
		if st == Visible {
			return true
		}
	}
	return false
}

// Labels returns the labels of live windows.
func (s *Synchronizer) Labels() []string {
	return s.host.Windows()
}

// Show maps one window.
func (s *Synchronizer) Show(label string) error {
	return s.setVisible(label, true)
}

// Hide unmaps one window.
func (s *Synchronizer) Hide(label string) error {
	return s.setVisible(label, false)
}

// ShowAll maps every live window.
func (s *Synchronizer) ShowAll() error {
	return s.setAll(true)
}

// HideAll unmaps every live window.
func (s *Synchronizer) HideAll() error {
	return s.setAll(false)
}

func (s *Synchronizer) setAll(visible bool) error {
	var firstErr error
	for _, label := range s.host.Windows() {
		if err := s.setVisible(label, visible); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Synchronizer) setVisible(label string, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	verb, next, apply := "show", Visible, s.host.ShowWindow
	if !visible {
		verb, next, apply = "hide", Hidden, s.host.HideWindow
	}
	if err := apply(label); err != nil {
		return fmt.Errorf("%s window %q: %w", verb, label, err)
	}
	s.states[label] = next
	return nil
}

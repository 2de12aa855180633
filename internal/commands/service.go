// Package commands is the request/response surface the presentation layer
// talks to. Every command answers with data: absence is a zero value or
// false, never an error.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/1broseidon/deskctx/internal/events"
	"github.com/1broseidon/deskctx/internal/spaces"
	"github.com/1broseidon/deskctx/internal/store"
	"github.com/1broseidon/deskctx/internal/switcher"
)

// Accessibility reports and requests input-synthesis permission.
type Accessibility interface {
	Trusted() bool
	RequestTrust() bool
}

// Tray shows and hides the per-display windows.
type Tray interface {
	Labels() []string
	Show(label string) error
	Hide(label string) error
	ShowAll() error
	HideAll() error
	AnyVisible() bool
}

// DesktopSummary is one row of the desktop list. TodoCount counts
// unfinished todos only.
type DesktopSummary struct {
	SpaceID   uint64 `json:"space_id"`
	Position  int    `json:"position"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Color     string `json:"color"`
	TodoCount int    `json:"todo_count"`
}

// DisplayGroup is the desktop list of one display.
type DisplayGroup struct {
	DisplayIndex int              `json:"display_index"`
	Desktops     []DesktopSummary `json:"desktops"`
}

// SpaceInfo is the settings-screen view of a space.
type SpaceInfo struct {
	SpaceID  uint64 `json:"space_id"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	Color    string `json:"color"`
}

// Deps wires a Service.
type Deps struct {
	Registry *spaces.Registry
	Store    *store.Store
	Switcher *switcher.Switcher
	Access   Accessibility
	Tray     Tray
	Events   events.Publisher
	Logger   *slog.Logger
}

// Service executes commands against the shared store and platform.
type Service struct {
	registry *spaces.Registry
	store    *store.Store
	switcher *switcher.Switcher
	access   Accessibility
	tray     Tray
	events   events.Publisher
	logger   *slog.Logger
}

// New creates a Service.
func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: d.Registry,
		store:    d.Store,
		switcher: d.Switcher,
		access:   d.Access,
		tray:     d.Tray,
		events:   d.Events,
		logger:   logger,
	}
}

// Desktop returns the space a display is showing.
func (s *Service) Desktop(display int) spaces.DesktopInfo {
	return s.registry.Describe(display, s.store.CustomColor)
}

// Desktops returns the current space of every display.
func (s *Service) Desktops() []spaces.DesktopInfo {
	return s.registry.DescribeAll(s.store.CustomColor)
}

// Todos returns the todo list of a desktop.
func (s *Service) Todos(desktop uint64) []store.TodoItem {
	return s.store.Todos(desktop)
}

// SaveTodos replaces the todo list of a desktop.
func (s *Service) SaveTodos(desktop uint64, todos []store.TodoItem) {
	s.store.SaveTodos(desktop, todos)
}

// Title returns the title of a desktop; empty when unset.
func (s *Service) Title(desktop uint64) string {
	return s.store.Title(desktop)
}

// SaveTitle stores a title; an empty title removes it.
func (s *Service) SaveTitle(desktop uint64, title string) {
	s.store.SaveTitle(desktop, title)
}

// ListAllDesktops returns every normal space in canonical order.
func (s *Service) ListAllDesktops() []DesktopSummary {
	all := s.registry.Enumerate()
	data := s.store.Snapshot()

	out := make([]DesktopSummary, 0, len(all))
	for pos, sp := range all {
		out = append(out, summarize(data, sp.ID, pos))
	}
	return out
}

// ListDesktopsGrouped returns the same rows as ListAllDesktops, grouped by
// display in ascending display order. Positions stay global.
func (s *Service) ListDesktopsGrouped() []DisplayGroup {
	all := s.registry.Enumerate()
	data := s.store.Snapshot()

	byDisplay := make(map[int][]DesktopSummary)
	for pos, sp := range all {
		byDisplay[sp.DisplayIndex] = append(byDisplay[sp.DisplayIndex], summarize(data, sp.ID, pos))
	}

	indexes := make([]int, 0, len(byDisplay))
	for idx := range byDisplay {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	groups := make([]DisplayGroup, 0, len(indexes))
	for _, idx := range indexes {
		groups = append(groups, DisplayGroup{DisplayIndex: idx, Desktops: byDisplay[idx]})
	}
	return groups
}

// ListAllSpaces returns every normal space with its title and color.
func (s *Service) ListAllSpaces() []SpaceInfo {
	all := s.registry.Enumerate()
	data := s.store.Snapshot()

	out := make([]SpaceInfo, 0, len(all))
	for pos, sp := range all {
		out = append(out, SpaceInfo{
			SpaceID:  sp.ID,
			Position: pos,
			Name:     spaces.Name(pos),
			Title:    data.Titles[sp.ID],
			Color:    colorFor(data, sp.ID, pos),
		})
	}
	return out
}

func summarize(data store.PersistData, id uint64, pos int) DesktopSummary {
	open := 0
	for _, todo := range data.Notes[id] {
		if !todo.Done {
			open++
		}
	}
	return DesktopSummary{
		SpaceID:   id,
		Position:  pos,
		Name:      spaces.Name(pos),
		Title:     data.Titles[id],
		Color:     colorFor(data, id, pos),
		TodoCount: open,
	}
}

func colorFor(data store.PersistData, id uint64, pos int) string {
	if c, ok := data.Settings.CustomColors[id]; ok {
		return c
	}
	return spaces.DefaultColor(pos)
}

// SwitchDesktop moves display to target. False when there is nothing to do
// or the switch could not be actuated.
func (s *Service) SwitchDesktop(ctx context.Context, display int, target uint64) bool {
	if s.switcher == nil {
		return false
	}
	return s.switcher.Switch(ctx, display, target)
}

// Settings returns the persisted settings.
func (s *Service) Settings() store.Settings {
	return s.store.Settings()
}

// SaveColor assigns a custom color to a desktop.
func (s *Service) SaveColor(desktop uint64, color string) {
	s.store.SaveColor(desktop, color)
}

// SaveDesktopCount stores the desktop-count hint.
func (s *Service) SaveDesktopCount(count int) {
	s.store.SaveDesktopCount(count)
}

// ApplyTheme clears custom colors and assigns colors[i] to the space at
// canonical position i.
func (s *Service) ApplyTheme(colors []string) {
	s.store.ApplyTheme(colors, s.order())
}

// SaveTimerPresets replaces the timer presets, in seconds.
func (s *Service) SaveTimerPresets(presets []int) {
	s.store.SaveTimerPresets(presets)
}

// SaveNotifySettings stores the notification preferences.
func (s *Service) SaveNotifySettings(system, flash bool) {
	s.store.SaveNotifySettings(system, flash)
}

// SaveHiddenPanels replaces the hidden panel list.
func (s *Service) SaveHiddenPanels(panels []string) {
	s.store.SaveHiddenPanels(panels)
}

// CompleteSetup marks first-run setup as done.
func (s *Service) CompleteSetup() {
	s.store.CompleteSetup()
}

// ClearAllData drops todos, titles and custom colors.
func (s *Service) ClearAllData() {
	s.store.ClearAllData()
}

// CheckAccessibility reports whether input synthesis is permitted.
func (s *Service) CheckAccessibility() bool {
	if s.access == nil {
		return false
	}
	return s.access.Trusted()
}

// RequestAccessibility asks for input-synthesis permission.
func (s *Service) RequestAccessibility() bool {
	if s.access == nil {
		return false
	}
	return s.access.RequestTrust()
}

// StartNewSession archives every desktop with content and clears the
// working set.
func (s *Service) StartNewSession() {
	s.store.StartNewSession()
}

// ContextHistory returns the saved session history of every desktop.
func (s *Service) ContextHistory() map[uint64][]store.SavedContext {
	return s.store.ContextHistory()
}

// RestoreContext brings a saved session back onto a desktop. Returns false
// when the entry does not exist.
func (s *Service) RestoreContext(desktop uint64, index int) bool {
	return s.store.RestoreContext(desktop, index)
}

// Completed returns the completed items, oldest first.
func (s *Service) Completed() []store.CompletedItem {
	return s.store.Completed()
}

// AddCompleted records a finished todo and announces it.
func (s *Service) AddCompleted(text string, desktop uint64) store.CompletedItem {
	item := s.store.AddCompleted(text, desktop)
	if s.events != nil {
		s.events.Publish(events.TodoCompleted, item)
	}
	return item
}

// ClearCompleted removes every completed item.
func (s *Service) ClearCompleted() {
	s.store.ClearCompleted()
}

// Windows returns the labels of live per-display windows.
func (s *Service) Windows() []string {
	if s.tray == nil {
		return nil
	}
	return s.tray.Labels()
}

// ShowWindow maps the window with label, or every window when label is
// empty.
func (s *Service) ShowWindow(label string) error {
	if s.tray == nil {
		return fmt.Errorf("no window host")
	}
	if label == "" {
		return s.tray.ShowAll()
	}
	return s.tray.Show(label)
}

// HideWindow unmaps the window with label, or every window when label is
// empty.
func (s *Service) HideWindow(label string) error {
	if s.tray == nil {
		return fmt.Errorf("no window host")
	}
	if label == "" {
		return s.tray.HideAll()
	}
	return s.tray.Hide(label)
}

// ToggleWindows hides every window when any is visible and shows them all
// otherwise. It reports whether the windows are visible afterwards.
func (s *Service) ToggleWindows() (bool, error) {
	if s.tray == nil {
		return false, fmt.Errorf("no window host")
	}
	if s.tray.AnyVisible() {
		return false, s.tray.HideAll()
	}
	return true, s.tray.ShowAll()
}

func (s *Service) order() []uint64 {
	all := s.registry.Enumerate()
	ids := make([]uint64, len(all))
	for i, sp := range all {
		ids[i] = sp.ID
	}
	return ids
}

// Strategy reports the active switch strategy.
func (s *Service) Strategy() switcher.Strategy {
	if s.switcher == nil {
		return switcher.StrategyStep
	}
	return s.switcher.Strategy()
}

// DisplayCount returns the number of displays with spaces.
func (s *Service) DisplayCount() int {
	return s.registry.DisplayCount()
}

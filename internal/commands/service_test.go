package commands

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/1broseidon/deskctx/internal/events"
	"github.com/1broseidon/deskctx/internal/platform"
	"github.com/1broseidon/deskctx/internal/platform/platformtest"
	"github.com/1broseidon/deskctx/internal/spaces"
	"github.com/1broseidon/deskctx/internal/store"
	"github.com/1broseidon/deskctx/internal/switcher"
	"github.com/1broseidon/deskctx/internal/windows"
)

type published struct {
	mu     sync.Mutex
	names  []string
	values []any
}

func (p *published) Publish(name string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = append(p.names, name)
	p.values = append(p.values, payload)
}

type fixture struct {
	svc    *Service
	fake   *platformtest.Fake
	store  *store.Store
	events *published
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	fake := platformtest.New()
	// Two displays: 11, 12 on display 0 and 21 on display 1.
	fake.SetManaged([]platform.ManagedDisplay{
		{Spaces: []platform.RawSpace{{ID: 11}, {ID: 12}}, Current: platform.RawSpace{ID: 11}},
		{Spaces: []platform.RawSpace{{ID: 21}, {ID: 99, Kind: platform.SpaceFullscreen}}, Current: platform.RawSpace{ID: 21}},
	})

	st := store.Open(store.FilePersister{Path: filepath.Join(t.TempDir(), "notes.json")}, store.Options{Logger: logger})
	reg := spaces.NewRegistry(fake)
	pub := &published{}
	tray := windows.NewSynchronizer(fake, fake, windows.Options{Logger: logger})

	svc := New(Deps{
		Registry: reg,
		Store:    st,
		Switcher: switcher.New(reg, fake, logger),
		Access:   fake,
		Tray:     tray,
		Events:   pub,
		Logger:   logger,
	})
	return &fixture{svc: svc, fake: fake, store: st, events: pub}
}

func TestListAllDesktops(t *testing.T) {
	f := newFixture(t)
	f.svc.SaveTodos(12, []store.TodoItem{
		{ID: "a", Text: "one", Done: false},
		{ID: "b", Text: "two", Done: true},
		{ID: "c", Text: "three", Done: false},
	})
	f.svc.SaveTitle(12, "Review")
	f.svc.SaveColor(21, "#000000")

	got := f.svc.ListAllDesktops()
	want := []DesktopSummary{
		{SpaceID: 11, Position: 0, Name: "Desktop 1", Color: spaces.Palette[0]},
		{SpaceID: 12, Position: 1, Name: "Desktop 2", Title: "Review", Color: spaces.Palette[1], TodoCount: 2},
		{SpaceID: 21, Position: 2, Name: "Desktop 3", Color: "#000000"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ListAllDesktops() = %+v\nwant %+v", got, want)
	}
}

func TestListDesktopsGrouped(t *testing.T) {
	f := newFixture(t)

	groups := f.svc.ListDesktopsGrouped()
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].DisplayIndex != 0 || len(groups[0].Desktops) != 2 {
		t.Fatalf("group 0 = %+v", groups[0])
	}
	if groups[1].DisplayIndex != 1 || len(groups[1].Desktops) != 1 {
		t.Fatalf("group 1 = %+v", groups[1])
	}
	if groups[1].Desktops[0].Position != 2 {
		t.Fatalf("positions must stay global, got %d", groups[1].Desktops[0].Position)
	}
}

func TestListAllSpaces(t *testing.T) {
	f := newFixture(t)
	f.svc.SaveTitle(21, "Mail")

	got := f.svc.ListAllSpaces()
	if len(got) != 3 {
		t.Fatalf("ListAllSpaces() len = %d, want 3", len(got))
	}
	if got[2].Title != "Mail" || got[2].Name != "Desktop 3" {
		t.Fatalf("ListAllSpaces()[2] = %+v", got[2])
	}
}

func TestDesktop(t *testing.T) {
	f := newFixture(t)
	f.fake.SetCurrent(1, 99, platform.SpaceFullscreen)

	info := f.svc.Desktop(0)
	if info.SpaceID != 11 || info.Name != "Desktop 1" || info.IsFullscreen {
		t.Fatalf("Desktop(0) = %+v", info)
	}

	info = f.svc.Desktop(1)
	if !info.IsFullscreen || info.Position != 0 {
		t.Fatalf("fullscreen space should report position 0, got %+v", info)
	}

	if n := len(f.svc.Desktops()); n != 2 {
		t.Fatalf("Desktops() len = %d, want 2", n)
	}
}

func TestApplyTheme(t *testing.T) {
	f := newFixture(t)
	f.svc.SaveColor(21, "#111111")

	f.svc.ApplyTheme([]string{"#AAAAAA", "#BBBBBB"})

	colors := f.svc.Settings().CustomColors
	want := map[uint64]string{11: "#AAAAAA", 12: "#BBBBBB"}
	if !reflect.DeepEqual(colors, want) {
		t.Fatalf("custom colors = %v, want %v", colors, want)
	}
}

func TestSwitchDesktop(t *testing.T) {
	f := newFixture(t)

	if !f.svc.SwitchDesktop(context.Background(), 0, 12) {
		t.Fatal("SwitchDesktop() = false, want true")
	}
	if got := f.fake.Steps(); !reflect.DeepEqual(got, []platform.Direction{platform.DirectionRight}) {
		t.Fatalf("steps = %v", got)
	}
	if f.svc.SwitchDesktop(context.Background(), 0, 11) {
		t.Fatal("switch to the current desktop should be a no-op")
	}
	if f.svc.SwitchDesktop(context.Background(), 0, 21) {
		t.Fatal("switch to another display's desktop should fail")
	}
}

func TestAccessibility(t *testing.T) {
	f := newFixture(t)
	f.fake.SetTrusted(false, true)

	if f.svc.CheckAccessibility() {
		t.Fatal("CheckAccessibility() = true before request")
	}
	if !f.svc.RequestAccessibility() {
		t.Fatal("RequestAccessibility() = false")
	}
	if !f.svc.CheckAccessibility() {
		t.Fatal("CheckAccessibility() = false after grant")
	}
}

func TestAddCompleted_Publishes(t *testing.T) {
	f := newFixture(t)

	item := f.svc.AddCompleted("ship it", 12)
	if item.ID == "" || item.DesktopID != 12 {
		t.Fatalf("AddCompleted() = %+v", item)
	}
	if got := f.svc.Completed(); len(got) != 1 || got[0].ID != item.ID {
		t.Fatalf("Completed() = %+v", got)
	}
	if len(f.events.names) != 1 || f.events.names[0] != events.TodoCompleted {
		t.Fatalf("events = %v", f.events.names)
	}

	f.svc.ClearCompleted()
	if got := f.svc.Completed(); len(got) != 0 {
		t.Fatalf("Completed() after clear = %+v", got)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.svc.SaveTitle(11, "Focus")
	f.svc.SaveTodos(11, []store.TodoItem{{ID: "x", Text: "write"}})

	f.svc.StartNewSession()
	if f.svc.Title(11) != "" || len(f.svc.Todos(11)) != 0 {
		t.Fatal("session start should clear the working set")
	}
	if h := f.svc.ContextHistory(); len(h[11]) != 1 {
		t.Fatalf("history = %+v", h)
	}
	if !f.svc.RestoreContext(11, 0) {
		t.Fatal("RestoreContext() = false")
	}
	if f.svc.Title(11) != "Focus" {
		t.Fatalf("Title() = %q after restore", f.svc.Title(11))
	}
	if f.svc.RestoreContext(11, 5) {
		t.Fatal("RestoreContext() out of range should be false")
	}
}

func TestClearAllData(t *testing.T) {
	f := newFixture(t)
	f.svc.SaveTitle(11, "x")
	f.svc.SaveColor(11, "#123456")
	f.svc.SaveTimerPresets([]int{30})

	f.svc.ClearAllData()

	if f.svc.Title(11) != "" {
		t.Fatal("title survived clear")
	}
	s := f.svc.Settings()
	if len(s.CustomColors) != 0 {
		t.Fatalf("colors survived clear: %v", s.CustomColors)
	}
	if !reflect.DeepEqual(s.TimerPresets, []int{30}) {
		t.Fatalf("clear should keep other settings, got %v", s.TimerPresets)
	}
}

func TestWindows(t *testing.T) {
	f := newFixture(t)
	f.fake.SetDisplays(platformtest.Monitors(2), 2)
	tray := f.svc.tray.(*windows.Synchronizer)
	if err := tray.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	if err := f.svc.HideWindow(""); err != nil {
		t.Fatalf("HideWindow(all) error: %v", err)
	}
	for _, label := range f.svc.Windows() {
		if w, _ := f.fake.Window(label); w.Visible {
			t.Fatalf("%s still visible", label)
		}
	}
	if err := f.svc.ShowWindow("main"); err != nil {
		t.Fatalf("ShowWindow(main) error: %v", err)
	}
	if w, _ := f.fake.Window("main"); !w.Visible {
		t.Fatal("main should be visible")
	}
	if err := f.svc.ShowWindow("monitor-7"); err == nil {
		t.Fatal("ShowWindow() of unknown label should fail")
	}
}

func TestToggleWindows(t *testing.T) {
	f := newFixture(t)
	f.fake.SetDisplays(platformtest.Monitors(2), 2)
	tray := f.svc.tray.(*windows.Synchronizer)
	if err := tray.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	visible, err := f.svc.ToggleWindows()
	if err != nil || visible {
		t.Fatalf("ToggleWindows() = %v, %v; want hidden", visible, err)
	}
	if tray.AnyVisible() {
		t.Fatal("windows should all be hidden")
	}

	visible, err = f.svc.ToggleWindows()
	if err != nil || !visible {
		t.Fatalf("ToggleWindows() = %v, %v; want visible", visible, err)
	}
	if w, _ := f.fake.Window("monitor-1"); !w.Visible {
		t.Fatal("monitor-1 should be visible")
	}
}

func TestNoTray(t *testing.T) {
	svc := New(Deps{})
	if svc.Windows() != nil {
		t.Fatal("Windows() without tray should be nil")
	}
	if err := svc.ShowWindow(""); err == nil {
		t.Fatal("ShowWindow() without tray should fail")
	}
	if svc.CheckAccessibility() || svc.RequestAccessibility() {
		t.Fatal("accessibility without platform should be false")
	}
	if svc.SwitchDesktop(context.Background(), 0, 1) {
		t.Fatal("SwitchDesktop() without switcher should be false")
	}
}

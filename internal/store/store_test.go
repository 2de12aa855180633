package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type memPersister struct {
	mu    sync.Mutex
	raw   []byte
	saves int
	err   error
}

func (m *memPersister) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raw == nil {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), m.raw...), nil
}

func (m *memPersister) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	m.raw = append([]byte(nil), data...)
	return nil
}

func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := cur
		cur = cur.Add(time.Minute)
		return t
	}
}

func newTestStore(t *testing.T) (*Store, FilePersister) {
	t.Helper()
	p := FilePersister{Path: filepath.Join(t.TempDir(), "notes.json")}
	return Open(p, Options{Now: fixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))}), p
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	data := Load(FilePersister{Path: filepath.Join(t.TempDir(), "absent.json")})
	if data.Version != 0 {
		t.Fatalf("Version = %d, want 0", data.Version)
	}
	if data.Settings.DesktopCount != 10 || !data.Settings.NotifySystem || !data.Settings.NotifyFlash {
		t.Fatalf("unexpected default settings: %+v", data.Settings)
	}
	if len(data.Settings.TimerPresets) != 3 || data.Settings.TimerPresets[1] != 300 {
		t.Fatalf("TimerPresets = %v", data.Settings.TimerPresets)
	}
}

func TestLoad_CorruptFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	data := Load(FilePersister{Path: path})
	if data.Notes == nil || len(data.Notes) != 0 || data.Version != 0 {
		t.Fatalf("expected fresh defaults, got %+v", data)
	}
}

func TestLoad_MissingFieldsKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.json")
	raw := `{"notes":{"7":[{"id":"a","text":"x","done":true}]},"titles":{},"settings":{"custom_colors":{},"setup_complete":true}}`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	data := Load(FilePersister{Path: path})
	if !data.Settings.SetupComplete {
		t.Fatal("setup_complete not read")
	}
	if data.Settings.DesktopCount != 10 || !data.Settings.NotifyFlash {
		t.Fatalf("defaults lost: %+v", data.Settings)
	}
	if data.ContextHistory == nil || data.Completed == nil {
		t.Fatal("absent collections should be empty, not nil")
	}
	if len(data.Notes[7]) != 1 || !data.Notes[7][0].Done {
		t.Fatalf("notes = %+v", data.Notes)
	}
}

func TestSaveTodos_SurvivesRestart(t *testing.T) {
	s, p := newTestStore(t)
	want := []TodoItem{{ID: "a", Text: "x", Done: false}}
	s.SaveTodos(100, want)

	reopened := Open(p, Options{})
	got := reopened.Todos(100)
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("Todos(100) after restart = %+v, want %+v", got, want)
	}
}

func TestPersistedKeysAreDecimalStrings(t *testing.T) {
	s, p := newTestStore(t)
	s.SaveTitle(18446744073709551615, "max")

	raw, err := os.ReadFile(p.Path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	titles := generic["titles"].(map[string]any)
	if titles["18446744073709551615"] != "max" {
		t.Fatalf("titles = %v", titles)
	}
}

func TestSaveTitle_EmptyRemoves(t *testing.T) {
	s, _ := newTestStore(t)
	s.SaveTitle(5, "Inbox")
	if got := s.Title(5); got != "Inbox" {
		t.Fatalf("Title(5) = %q", got)
	}
	s.SaveTitle(5, "")
	if _, ok := s.Titles()[5]; ok {
		t.Fatal("empty title should remove the entry")
	}
}

func TestTodosReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t)
	s.SaveTodos(1, []TodoItem{{ID: "a", Text: "x"}})
	got := s.Todos(1)
	got[0].Text = "mutated"
	if s.Todos(1)[0].Text != "x" {
		t.Fatal("Todos leaked internal state")
	}
	if todos := s.Todos(42); todos == nil || len(todos) != 0 {
		t.Fatalf("Todos(unknown) = %#v, want empty slice", todos)
	}
}

func TestApplyTheme(t *testing.T) {
	s, _ := newTestStore(t)
	s.SaveColor(999, "#111111")
	s.ApplyTheme([]string{"#AAAAAA", "#BBBBBB"}, []uint64{10, 20, 30})

	colors := s.Settings().CustomColors
	if len(colors) != 2 || colors[10] != "#AAAAAA" || colors[20] != "#BBBBBB" {
		t.Fatalf("CustomColors = %v", colors)
	}
	if _, ok := s.CustomColor(999); ok {
		t.Fatal("ApplyTheme should clear prior colors")
	}
}

func TestSettingsCommands(t *testing.T) {
	s, p := newTestStore(t)
	s.SaveDesktopCount(4)
	s.SaveTimerPresets([]int{30, 90})
	s.SaveNotifySettings(false, true)
	s.SaveHiddenPanels([]string{"timer"})
	s.CompleteSetup()

	got := Open(p, Options{}).Settings()
	if got.DesktopCount != 4 || !got.SetupComplete || got.NotifySystem || !got.NotifyFlash {
		t.Fatalf("settings = %+v", got)
	}
	if len(got.TimerPresets) != 2 || got.TimerPresets[0] != 30 {
		t.Fatalf("TimerPresets = %v", got.TimerPresets)
	}
	if len(got.HiddenPanels) != 1 || got.HiddenPanels[0] != "timer" {
		t.Fatalf("HiddenPanels = %v", got.HiddenPanels)
	}
}

func TestClearAllData(t *testing.T) {
	s, _ := newTestStore(t)
	s.SaveTodos(1, []TodoItem{{ID: "a"}})
	s.SaveTitle(1, "t")
	s.SaveColor(1, "#000000")
	s.SaveDesktopCount(3)
	s.AddCompleted("done", 1)

	s.ClearAllData()

	snap := s.Snapshot()
	if len(snap.Notes) != 0 || len(snap.Titles) != 0 || len(snap.Settings.CustomColors) != 0 {
		t.Fatalf("ClearAllData left data behind: %+v", snap)
	}
	if snap.Settings.DesktopCount != 3 || len(snap.Completed) != 1 {
		t.Fatalf("ClearAllData removed too much: %+v", snap)
	}
}

func TestStartNewSession_GlobalReset(t *testing.T) {
	s, _ := newTestStore(t)
	s.SaveTitle(100, "T")
	s.SaveTodos(100, []TodoItem{{ID: "a", Text: "x"}})
	s.SaveTodos(200, []TodoItem{})

	s.StartNewSession()

	history := s.ContextHistory()
	if len(history[100]) != 1 {
		t.Fatalf("history[100] len = %d, want 1", len(history[100]))
	}
	entry := history[100][0]
	if entry.Title != "T" || len(entry.Todos) != 1 || entry.SavedAt != "2026-01-02T03:04:05Z" {
		t.Fatalf("history[100][0] = %+v", entry)
	}
	if len(history[200]) != 0 {
		t.Fatalf("history[200] = %+v, want empty", history[200])
	}
	if len(s.Todos(100)) != 0 || len(s.Todos(200)) != 0 || s.Title(100) != "" {
		t.Fatal("StartNewSession should clear all notes and titles")
	}
}

func TestStartNewSession_HistoryCap(t *testing.T) {
	for _, rotations := range []int{1, 19, 20, 21, 45} {
		s, _ := newTestStore(t)
		for i := 0; i < rotations; i++ {
			s.SaveTitle(7, "round")
			s.SaveTodos(7, []TodoItem{{ID: "a", Text: string(rune('a' + i%26))}})
			s.StartNewSession()
		}

		history := s.ContextHistory()[7]
		want := rotations
		if want > MaxHistoryPerDesktop {
			want = MaxHistoryPerDesktop
		}
		if len(history) != want {
			t.Fatalf("rotations=%d: len = %d, want %d", rotations, len(history), want)
		}
		for i := 1; i < len(history); i++ {
			if history[i-1].SavedAt >= history[i].SavedAt {
				t.Fatalf("rotations=%d: history not ordered oldest first", rotations)
			}
		}
		// The newest snapshot is always retained.
		last := history[len(history)-1]
		if wantText := string(rune('a' + (rotations-1)%26)); last.Todos[0].Text != wantText {
			t.Fatalf("rotations=%d: newest entry text = %q, want %q", rotations, last.Todos[0].Text, wantText)
		}
	}
}

func TestRestoreContext(t *testing.T) {
	s, _ := newTestStore(t)
	s.SaveTitle(3, "Morning")
	s.SaveTodos(3, []TodoItem{{ID: "x", Text: "coffee"}})
	s.StartNewSession()
	s.SaveTitle(3, "Afternoon")

	if s.RestoreContext(3, 5) {
		t.Fatal("RestoreContext with bad index should be false")
	}
	if s.RestoreContext(99, 0) {
		t.Fatal("RestoreContext for unknown desktop should be false")
	}
	if !s.RestoreContext(3, 0) {
		t.Fatal("RestoreContext(3, 0) = false")
	}
	if s.Title(3) != "Morning" || len(s.Todos(3)) != 1 {
		t.Fatalf("restored title=%q todos=%v", s.Title(3), s.Todos(3))
	}
}

func TestRestoreContext_EmptyTitleRemoves(t *testing.T) {
	s, _ := newTestStore(t)
	s.SaveTodos(3, []TodoItem{{ID: "x"}})
	s.StartNewSession()
	s.SaveTitle(3, "later")

	if !s.RestoreContext(3, 0) {
		t.Fatal("RestoreContext = false")
	}
	if _, ok := s.Titles()[3]; ok {
		t.Fatal("empty saved title should remove current title")
	}
}

func TestCompletedItems(t *testing.T) {
	s, p := newTestStore(t)
	item := s.AddCompleted("ship it", 42)
	if item.ID == "" || item.DesktopID != 42 || item.CompletedAt != "2026-01-02T03:04:05Z" {
		t.Fatalf("AddCompleted = %+v", item)
	}
	second := s.AddCompleted("again", 42)
	if second.ID == item.ID {
		t.Fatal("completed ids should be unique")
	}

	got := Open(p, Options{}).Completed()
	if len(got) != 2 || got[0].Text != "ship it" {
		t.Fatalf("Completed() after restart = %+v", got)
	}

	s.ClearCompleted()
	if n := len(s.Completed()); n != 0 {
		t.Fatalf("Completed() after clear len = %d", n)
	}
}

func TestPersistError_ReportedAndStateKept(t *testing.T) {
	m := &memPersister{err: errors.New("disk full")}
	var reported []error
	s := Open(m, Options{OnPersistError: func(err error) { reported = append(reported, err) }})

	s.SaveTitle(1, "kept")
	if len(reported) != 1 {
		t.Fatalf("reported %d errors, want 1", len(reported))
	}
	if s.Title(1) != "kept" {
		t.Fatal("in-memory state should survive a failed write")
	}
}

func TestConcurrentMutationsKeepNewestOnDisk(t *testing.T) {
	m := &memPersister{}
	s := Open(m, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.SaveTodos(uint64(i), []TodoItem{{ID: "a"}})
		}(i)
	}
	wg.Wait()

	onDisk, err := Decode(m.raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(onDisk.Notes) != 50 {
		t.Fatalf("file holds %d desktops, want 50", len(onDisk.Notes))
	}
}

func TestRestoreMissDoesNotPersist(t *testing.T) {
	m := &memPersister{}
	s := Open(m, Options{})
	s.RestoreContext(1, 0)
	if m.saves != 0 {
		t.Fatalf("saves = %d, want 0", m.saves)
	}
}

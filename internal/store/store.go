// Package store owns the persisted per-desktop state: todos, titles,
// settings, session history and completed items.
//
// Every mutation follows the same shape: lock, mutate, serialize, unlock,
// then write the file. Writes are serialized and stamped with a generation
// so an older snapshot never lands on top of a newer one.
package store

import (
	"errors"
	"io/fs"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Options configures a Store.
type Options struct {
	Logger *slog.Logger
	// OnPersistError is called after a failed write. The in-memory state
	// stays authoritative.
	OnPersistError func(error)
	// Now overrides the clock for snapshot and completion timestamps.
	Now func() time.Time
}

// Store is the process-wide, mutex-guarded owner of PersistData.
type Store struct {
	mu   sync.Mutex
	data PersistData
	gen  uint64

	writeMu   sync.Mutex
	attempted uint64

	persister Persister
	logger    *slog.Logger
	onErr     func(error)
	now       func() time.Time
}

// Open loads the aggregate from p and returns a Store over it.
func Open(p Persister, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	data, err := load(p)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("state file unreadable, starting fresh", "error", err)
	}

	return &Store{
		data:      data,
		persister: p,
		logger:    logger,
		onErr:     opts.OnPersistError,
		now:       now,
	}
}

// mutate applies fn under the lock and persists when fn reports a change.
func (s *Store) mutate(fn func(d *PersistData) bool) bool {
	s.mu.Lock()
	if !fn(&s.data) {
		s.mu.Unlock()
		return false
	}
	s.gen++
	gen := s.gen
	raw, err := encode(&s.data)
	onErr := s.onErr
	s.mu.Unlock()

	if err != nil {
		s.reportPersistError(onErr, err)
		return true
	}
	s.write(gen, raw, onErr)
	return true
}

func (s *Store) write(gen uint64, raw []byte, onErr func(error)) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if gen <= s.attempted {
		// A newer snapshot already went to disk.
		return
	}
	s.attempted = gen
	if err := s.persister.Save(raw); err != nil {
		s.reportPersistError(onErr, err)
	}
}

func (s *Store) reportPersistError(onErr func(error), err error) {
	s.logger.Error("failed to persist state", "error", err)
	if onErr != nil {
		onErr(err)
	}
}

// Flush writes the current aggregate unconditionally.
func (s *Store) Flush() {
	s.mutate(func(*PersistData) bool { return true })
}

// Snapshot returns a deep copy of the aggregate.
func (s *Store) Snapshot() PersistData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// Version returns the schema version of the in-memory aggregate.
func (s *Store) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Version
}

// Todos returns the todo list of a desktop; empty when none was saved.
func (s *Store) Todos(sid uint64) []TodoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTodos(s.data.Notes[sid])
}

// SaveTodos replaces the todo list of a desktop.
func (s *Store) SaveTodos(sid uint64, todos []TodoItem) {
	todos = cloneTodos(todos)
	s.mutate(func(d *PersistData) bool {
		d.Notes[sid] = todos
		return true
	})
}

// Title returns the title of a desktop; empty when unset.
func (s *Store) Title(sid uint64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Titles[sid]
}

// SaveTitle sets the title of a desktop. An empty title removes the entry.
func (s *Store) SaveTitle(sid uint64, title string) {
	s.mutate(func(d *PersistData) bool {
		if title == "" {
			delete(d.Titles, sid)
		} else {
			d.Titles[sid] = title
		}
		return true
	})
}

// Titles returns a copy of every saved title.
func (s *Store) Titles() map[uint64]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uint64]string, len(s.data.Titles))
	for k, v := range s.data.Titles {
		out[k] = v
	}
	return out
}

// CustomColor returns the custom color of a desktop, if any.
func (s *Store) CustomColor(sid uint64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.Settings.CustomColors[sid]
	return c, ok
}

// Settings returns a copy of the settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSettings(s.data.Settings)
}

// SaveColor assigns a custom color to a desktop.
func (s *Store) SaveColor(sid uint64, color string) {
	s.mutate(func(d *PersistData) bool {
		d.Settings.CustomColors[sid] = color
		return true
	})
}

// SaveDesktopCount stores the desktop-count hint.
func (s *Store) SaveDesktopCount(count int) {
	s.mutate(func(d *PersistData) bool {
		d.Settings.DesktopCount = count
		return true
	})
}

// ApplyTheme clears every custom color, then assigns colors[i] to the space
// at canonical position i. order lists space ids in canonical order.
func (s *Store) ApplyTheme(colors []string, order []uint64) {
	s.mutate(func(d *PersistData) bool {
		d.Settings.CustomColors = make(map[uint64]string)
		for i, sid := range order {
			if i >= len(colors) {
				break
			}
			d.Settings.CustomColors[sid] = colors[i]
		}
		return true
	})
}

// SaveTimerPresets replaces the timer presets, in seconds.
func (s *Store) SaveTimerPresets(presets []int) {
	presets = append([]int{}, presets...)
	s.mutate(func(d *PersistData) bool {
		d.Settings.TimerPresets = presets
		return true
	})
}

// SaveNotifySettings stores the notification preferences.
func (s *Store) SaveNotifySettings(system, flash bool) {
	s.mutate(func(d *PersistData) bool {
		d.Settings.NotifySystem = system
		d.Settings.NotifyFlash = flash
		return true
	})
}

// SaveHiddenPanels replaces the hidden panel list.
func (s *Store) SaveHiddenPanels(panels []string) {
	panels = append([]string{}, panels...)
	s.mutate(func(d *PersistData) bool {
		d.Settings.HiddenPanels = panels
		return true
	})
}

// CompleteSetup marks first-run setup as done.
func (s *Store) CompleteSetup() {
	s.mutate(func(d *PersistData) bool {
		d.Settings.SetupComplete = true
		return true
	})
}

// ClearAllData removes every todo list, title and custom color. Session
// history, completed items and other settings survive.
func (s *Store) ClearAllData() {
	s.mutate(func(d *PersistData) bool {
		d.Notes = make(map[uint64][]TodoItem)
		d.Titles = make(map[uint64]string)
		d.Settings.CustomColors = make(map[uint64]string)
		return true
	})
}

// Migrate upgrades a version-0 aggregate using the current canonical space
// order and persists the result. Reports whether a migration ran.
func (s *Store) Migrate(order []uint64) bool {
	return s.mutate(func(d *PersistData) bool {
		return MigrateV0ToV1(d, order)
	})
}

// StartNewSession snapshots every desktop with a non-empty title or todo
// list into its history, then clears all current todos and titles.
func (s *Store) StartNewSession() {
	now := s.now().UTC().Format(time.RFC3339)
	s.mutate(func(d *PersistData) bool {
		for _, sid := range sessionKeys(d) {
			title := d.Titles[sid]
			todos := d.Notes[sid]
			if title == "" && len(todos) == 0 {
				continue
			}
			history := append(d.ContextHistory[sid], SavedContext{
				Title:   title,
				Todos:   cloneTodos(todos),
				SavedAt: now,
			})
			if excess := len(history) - MaxHistoryPerDesktop; excess > 0 {
				history = append([]SavedContext(nil), history[excess:]...)
			}
			d.ContextHistory[sid] = history
		}
		d.Notes = make(map[uint64][]TodoItem)
		d.Titles = make(map[uint64]string)
		return true
	})
}

func sessionKeys(d *PersistData) []uint64 {
	seen := make(map[uint64]bool, len(d.Notes)+len(d.Titles))
	for sid := range d.Notes {
		seen[sid] = true
	}
	for sid := range d.Titles {
		seen[sid] = true
	}
	keys := make([]uint64, 0, len(seen))
	for sid := range seen {
		keys = append(keys, sid)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ContextHistory returns a deep copy of every desktop's session history.
func (s *Store) ContextHistory() map[uint64][]SavedContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneHistory(s.data.ContextHistory)
}

// RestoreContext copies history entry index of a desktop back into its
// current todos and title. Returns false when the entry does not exist.
func (s *Store) RestoreContext(sid uint64, index int) bool {
	return s.mutate(func(d *PersistData) bool {
		history, ok := d.ContextHistory[sid]
		if !ok || index < 0 || index >= len(history) {
			return false
		}
		saved := history[index]
		d.Notes[sid] = cloneTodos(saved.Todos)
		if saved.Title == "" {
			delete(d.Titles, sid)
		} else {
			d.Titles[sid] = saved.Title
		}
		return true
	})
}

// Completed returns the completed items, oldest first.
func (s *Store) Completed() []CompletedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CompletedItem{}, s.data.Completed...)
}

// AddCompleted records a finished todo and returns the stored item.
func (s *Store) AddCompleted(text string, desktopID uint64) CompletedItem {
	item := CompletedItem{
		ID:          uuid.NewString(),
		Text:        text,
		DesktopID:   desktopID,
		CompletedAt: s.now().UTC().Format(time.RFC3339),
	}
	s.mutate(func(d *PersistData) bool {
		d.Completed = append(d.Completed, item)
		return true
	})
	return item
}

// ClearCompleted removes every completed item.
func (s *Store) ClearCompleted() {
	s.mutate(func(d *PersistData) bool {
		d.Completed = []CompletedItem{}
		return true
	})
}

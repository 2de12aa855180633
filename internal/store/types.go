package store

// CurrentVersion is the schema version written by this build. Version 0
// files key desktops by canonical position; version 1 keys them by space id.
const CurrentVersion = 1

// MaxHistoryPerDesktop caps context_history per desktop; the oldest
// snapshots are dropped first.
const MaxHistoryPerDesktop = 20

// TodoItem is one entry of a desktop's todo list.
type TodoItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// SavedContext is a snapshot taken when a new session starts.
type SavedContext struct {
	Title   string     `json:"title"`
	Todos   []TodoItem `json:"todos"`
	SavedAt string     `json:"saved_at"`
}

// CompletedItem records a finished todo.
type CompletedItem struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	DesktopID   uint64 `json:"desktop_id"`
	CompletedAt string `json:"completed_at"`
}

// Settings holds user preferences. Fields missing from an older file keep
// the values from DefaultSettings.
type Settings struct {
	CustomColors  map[uint64]string `json:"custom_colors"`
	SetupComplete bool              `json:"setup_complete"`
	DesktopCount  int               `json:"desktop_count"`
	TimerPresets  []int             `json:"timer_presets"`
	NotifySystem  bool              `json:"notify_system"`
	NotifyFlash   bool              `json:"notify_flash"`
	HiddenPanels  []string          `json:"hidden_panels"`
}

// PersistData is the whole persisted aggregate.
type PersistData struct {
	Notes          map[uint64][]TodoItem     `json:"notes"`
	Titles         map[uint64]string         `json:"titles"`
	Settings       Settings                  `json:"settings"`
	Version        int                       `json:"version"`
	ContextHistory map[uint64][]SavedContext `json:"context_history"`
	Completed      []CompletedItem           `json:"completed"`
}

// DefaultSettings returns first-run settings.
func DefaultSettings() Settings {
	return Settings{
		CustomColors: make(map[uint64]string),
		DesktopCount: 10,
		TimerPresets: []int{60, 300, 600},
		NotifySystem: true,
		NotifyFlash:  true,
		HiddenPanels: []string{},
	}
}

// DefaultData returns an empty version-0 aggregate.
func DefaultData() PersistData {
	return PersistData{
		Notes:          make(map[uint64][]TodoItem),
		Titles:         make(map[uint64]string),
		Settings:       DefaultSettings(),
		ContextHistory: make(map[uint64][]SavedContext),
		Completed:      []CompletedItem{},
	}
}

// normalize replaces nil collections left by explicit JSON nulls.
func (d *PersistData) normalize() {
	if d.Notes == nil {
		d.Notes = make(map[uint64][]TodoItem)
	}
	if d.Titles == nil {
		d.Titles = make(map[uint64]string)
	}
	if d.ContextHistory == nil {
		d.ContextHistory = make(map[uint64][]SavedContext)
	}
	if d.Completed == nil {
		d.Completed = []CompletedItem{}
	}
	if d.Settings.CustomColors == nil {
		d.Settings.CustomColors = make(map[uint64]string)
	}
	if d.Settings.TimerPresets == nil {
		d.Settings.TimerPresets = []int{}
	}
	if d.Settings.HiddenPanels == nil {
		d.Settings.HiddenPanels = []string{}
	}
}

func cloneTodos(in []TodoItem) []TodoItem {
	if in == nil {
		return []TodoItem{}
	}
	return append([]TodoItem(nil), in...)
}

func cloneSettings(s Settings) Settings {
	out := s
	out.CustomColors = make(map[uint64]string, len(s.CustomColors))
	for k, v := range s.CustomColors {
		out.CustomColors[k] = v
	}
	out.TimerPresets = append([]int{}, s.TimerPresets...)
	out.HiddenPanels = append([]string{}, s.HiddenPanels...)
	return out
}

func cloneHistory(in map[uint64][]SavedContext) map[uint64][]SavedContext {
	out := make(map[uint64][]SavedContext, len(in))
	for sid, entries := range in {
		copied := make([]SavedContext, len(entries))
		for i, e := range entries {
			copied[i] = SavedContext{Title: e.Title, Todos: cloneTodos(e.Todos), SavedAt: e.SavedAt}
		}
		out[sid] = copied
	}
	return out
}

// Clone returns a deep copy.
func (d PersistData) Clone() PersistData {
	out := PersistData{
		Notes:          make(map[uint64][]TodoItem, len(d.Notes)),
		Titles:         make(map[uint64]string, len(d.Titles)),
		Settings:       cloneSettings(d.Settings),
		Version:        d.Version,
		ContextHistory: cloneHistory(d.ContextHistory),
		Completed:      append([]CompletedItem{}, d.Completed...),
	}
	for k, v := range d.Notes {
		out.Notes[k] = cloneTodos(v)
	}
	for k, v := range d.Titles {
		out.Titles[k] = v
	}
	return out
}

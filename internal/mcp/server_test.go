package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/1broseidon/deskctx/internal/commands"
	"github.com/1broseidon/deskctx/internal/spaces"
	"github.com/1broseidon/deskctx/internal/store"
)

type fakeDaemon struct {
	current   spaces.DesktopInfo
	todos     map[uint64][]store.TodoItem
	titles    map[uint64]string
	completed []store.CompletedItem
	switched  []uint64
	sessions  int
	failTodos error
}

func newFakeDaemon() *fakeDaemon {
	return &fakeDaemon{
		current: spaces.DesktopInfo{SpaceID: 7, Position: 2},
		todos:   map[uint64][]store.TodoItem{},
		titles:  map[uint64]string{},
	}
}

func (f *fakeDaemon) Desktop(int) (spaces.DesktopInfo, error) { return f.current, nil }

func (f *fakeDaemon) ListDesktopsGrouped() ([]commands.DisplayGroup, error) {
	return []commands.DisplayGroup{{
		DisplayIndex: 0,
		Desktops:     []commands.DesktopSummary{{SpaceID: 7, Position: 1, Name: "Desktop 1"}},
	}}, nil
}

func (f *fakeDaemon) Todos(desktop uint64) ([]store.TodoItem, error) {
	if f.failTodos != nil {
		return nil, f.failTodos
	}
	return append([]store.TodoItem(nil), f.todos[desktop]...), nil
}

func (f *fakeDaemon) SaveTodos(desktop uint64, todos []store.TodoItem) error {
	f.todos[desktop] = todos
	return nil
}

func (f *fakeDaemon) Title(desktop uint64) (string, error) { return f.titles[desktop], nil }

func (f *fakeDaemon) SaveTitle(desktop uint64, title string) error {
	f.titles[desktop] = title
	return nil
}

func (f *fakeDaemon) SwitchDesktop(_ int, target uint64) (bool, error) {
	if target == f.current.SpaceID {
		return false, nil
	}
	f.switched = append(f.switched, target)
	return true, nil
}

func (f *fakeDaemon) StartSession() error {
	f.sessions++
	return nil
}

func (f *fakeDaemon) History() (map[uint64][]store.SavedContext, error) {
	return map[uint64][]store.SavedContext{7: {{Title: "old"}}}, nil
}

func (f *fakeDaemon) RestoreContext(desktop uint64, index int) (bool, error) {
	return desktop == 7 && index == 0, nil
}

func (f *fakeDaemon) Completed() ([]store.CompletedItem, error) { return f.completed, nil }

func (f *fakeDaemon) AddCompleted(text string, desktop uint64) (store.CompletedItem, error) {
	item := store.CompletedItem{ID: "c1", Text: text, DesktopID: desktop}
	f.completed = append(f.completed, item)
	return item, nil
}

func newTestServer(t *testing.T) (*Server, *fakeDaemon) {
	t.Helper()
	d := newFakeDaemon()
	s := NewServer(d, slog.New(slog.NewTextHandler(io.Discard, nil)))
	n := 0
	s.newID = func() string {
		n++
		return "todo-" + string(rune('0'+n))
	}
	return s, d
}

func TestCurrentDesktop(t *testing.T) {
	s, d := newTestServer(t)
	d.titles[7] = "Review"
	d.todos[7] = []store.TodoItem{{ID: "a", Text: "ship"}}

	_, out, err := s.handleCurrentDesktop(context.Background(), nil, CurrentDesktopInput{})
	if err != nil {
		t.Fatalf("handleCurrentDesktop() error: %v", err)
	}
	if out.Desktop.SpaceID != 7 || out.Title != "Review" || len(out.Todos) != 1 {
		t.Fatalf("output = %+v", out)
	}
}

func TestCurrentDesktop_NoDesktop(t *testing.T) {
	s, d := newTestServer(t)
	d.current = spaces.DesktopInfo{}

	_, out, err := s.handleCurrentDesktop(context.Background(), nil, CurrentDesktopInput{Display: 3})
	if err != nil {
		t.Fatalf("handleCurrentDesktop() error: %v", err)
	}
	if out.Desktop.SpaceID != 0 || out.Todos == nil || len(out.Todos) != 0 {
		t.Fatalf("output = %+v, want empty desktop with empty todos", out)
	}
}

func TestAddAndCompleteTodo(t *testing.T) {
	s, d := newTestServer(t)
	ctx := context.Background()

	_, added, err := s.handleAddTodo(ctx, nil, AddTodoInput{Text: "  write tests  "})
	if err != nil {
		t.Fatalf("handleAddTodo() error: %v", err)
	}
	if added.Desktop != 7 || added.Todo.ID != "todo-1" || added.Todo.Text != "write tests" {
		t.Fatalf("added = %+v", added)
	}

	_, done, err := s.handleCompleteTodo(ctx, nil, CompleteTodoInput{ID: "todo-1"})
	if err != nil {
		t.Fatalf("handleCompleteTodo() error: %v", err)
	}
	if !done.Todo.Done || !d.todos[7][0].Done {
		t.Fatalf("todo not marked done: %+v", d.todos[7])
	}
	if len(d.completed) != 1 || d.completed[0].Text != "write tests" || d.completed[0].DesktopID != 7 {
		t.Fatalf("completed = %+v", d.completed)
	}

	// Completing twice does not duplicate the completed entry.
	if _, _, err := s.handleCompleteTodo(ctx, nil, CompleteTodoInput{ID: "todo-1"}); err != nil {
		t.Fatalf("second complete error: %v", err)
	}
	if len(d.completed) != 1 {
		t.Fatalf("completed = %d entries, want 1", len(d.completed))
	}
}

func TestTodoToolErrors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		run     func(s *Server, d *fakeDaemon) error
		wantErr string
	}{
		{
			name: "empty text",
			run: func(s *Server, _ *fakeDaemon) error {
				_, _, err := s.handleAddTodo(ctx, nil, AddTodoInput{Text: "   "})
				return err
			},
			wantErr: "text is required",
		},
		{
			name: "unknown id",
			run: func(s *Server, _ *fakeDaemon) error {
				_, _, err := s.handleCompleteTodo(ctx, nil, CompleteTodoInput{Desktop: 7, ID: "missing"})
				return err
			},
			wantErr: `no todo "missing"`,
		},
		{
			name: "no current desktop",
			run: func(s *Server, d *fakeDaemon) error {
				d.current = spaces.DesktopInfo{}
				_, _, err := s.handleGetTodos(ctx, nil, DesktopInput{})
				return err
			},
			wantErr: "no current desktop",
		},
		{
			name: "daemon failure",
			run: func(s *Server, d *fakeDaemon) error {
				d.failTodos = errors.New("daemon error: boom")
				_, _, err := s.handleGetTodos(ctx, nil, DesktopInput{Desktop: 4})
				return err
			},
			wantErr: "boom",
		},
		{
			name: "switch without target",
			run: func(s *Server, _ *fakeDaemon) error {
				_, _, err := s.handleSwitchDesktop(ctx, nil, SwitchDesktopInput{})
				return err
			},
			wantErr: "target is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, d := newTestServer(t)
			err := tt.run(s, d)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSetTitleAndSwitch(t *testing.T) {
	s, d := newTestServer(t)
	ctx := context.Background()

	_, out, err := s.handleSetTitle(ctx, nil, SetTitleInput{Desktop: 9, Title: " Infra "})
	if err != nil || out.Desktop != 9 || d.titles[9] != "Infra" {
		t.Fatalf("set title = %+v, %v (titles %v)", out, err, d.titles)
	}

	_, sw, err := s.handleSwitchDesktop(ctx, nil, SwitchDesktopInput{Target: 8})
	if err != nil || !sw.Switched || len(d.switched) != 1 {
		t.Fatalf("switch = %+v, %v", sw, err)
	}
	_, sw, err = s.handleSwitchDesktop(ctx, nil, SwitchDesktopInput{Target: 7})
	if err != nil || sw.Switched {
		t.Fatalf("switch to current = %+v, %v, want false", sw, err)
	}
}

func TestSessionTools(t *testing.T) {
	s, d := newTestServer(t)
	ctx := context.Background()

	if _, out, err := s.handleStartSession(ctx, nil, EmptyInput{}); err != nil || !out.OK || d.sessions != 1 {
		t.Fatalf("start session = %+v, %v", out, err)
	}
	_, hist, err := s.handleGetHistory(ctx, nil, EmptyInput{})
	if err != nil || len(hist.History[7]) != 1 {
		t.Fatalf("history = %+v, %v", hist, err)
	}
	_, restored, err := s.handleRestoreContext(ctx, nil, RestoreContextInput{Desktop: 7, Index: 0})
	if err != nil || !restored.Restored {
		t.Fatalf("restore = %+v, %v", restored, err)
	}
	_, restored, err = s.handleRestoreContext(ctx, nil, RestoreContextInput{Desktop: 7, Index: 5})
	if err != nil || restored.Restored {
		t.Fatalf("restore out of range = %+v, %v", restored, err)
	}
}

func TestListTools(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	_, list, err := s.handleListDesktops(ctx, nil, EmptyInput{})
	if err != nil || len(list.Displays) != 1 || list.Displays[0].Desktops[0].SpaceID != 7 {
		t.Fatalf("list desktops = %+v, %v", list, err)
	}
	_, completed, err := s.handleListCompleted(ctx, nil, EmptyInput{})
	if err != nil || len(completed.Completed) != 0 {
		t.Fatalf("list completed = %+v, %v", completed, err)
	}
}

func TestNewTodoIDUnique(t *testing.T) {
	a, b := newTodoID(), newTodoID()
	if a == "" || a == b {
		t.Fatalf("newTodoID() = %q, %q", a, b)
	}
}

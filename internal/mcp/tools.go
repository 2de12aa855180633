package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/deskctx/internal/store"
)

func newTodoID() string {
	return uuid.NewString()
}

// resolveDesktop maps 0 to the desktop currently shown on display 0.
func (s *Server) resolveDesktop(desktop uint64, tool string) (uint64, error) {
	if desktop != 0 {
		return desktop, nil
	}
	info, err := s.daemon.Desktop(0)
	if err != nil {
		return 0, err
	}
	if info.SpaceID == 0 {
		return 0, fmt.Errorf("%s: no current desktop; pass desktop explicitly", tool)
	}
	return info.SpaceID, nil
}

func (s *Server) handleCurrentDesktop(_ context.Context, _ *mcpsdk.CallToolRequest, args CurrentDesktopInput) (*mcpsdk.CallToolResult, CurrentDesktopOutput, error) {
	info, err := s.daemon.Desktop(args.Display)
	if err != nil {
		return nil, CurrentDesktopOutput{}, err
	}
	out := CurrentDesktopOutput{Desktop: info, Todos: []store.TodoItem{}}
	if info.SpaceID == 0 {
		return nil, out, nil
	}

	if out.Title, err = s.daemon.Title(info.SpaceID); err != nil {
		return nil, CurrentDesktopOutput{}, err
	}
	if out.Todos, err = s.daemon.Todos(info.SpaceID); err != nil {
		return nil, CurrentDesktopOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) handleListDesktops(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListDesktopsOutput, error) {
	groups, err := s.daemon.ListDesktopsGrouped()
	if err != nil {
		return nil, ListDesktopsOutput{}, err
	}
	return nil, ListDesktopsOutput{Displays: groups}, nil
}

func (s *Server) handleGetTodos(_ context.Context, _ *mcpsdk.CallToolRequest, args DesktopInput) (*mcpsdk.CallToolResult, TodosOutput, error) {
	desktop, err := s.resolveDesktop(args.Desktop, "get_todos")
	if err != nil {
		return nil, TodosOutput{}, err
	}
	todos, err := s.daemon.Todos(desktop)
	if err != nil {
		return nil, TodosOutput{}, err
	}
	return nil, TodosOutput{Desktop: desktop, Todos: todos}, nil
}

func (s *Server) handleAddTodo(_ context.Context, _ *mcpsdk.CallToolRequest, args AddTodoInput) (*mcpsdk.CallToolResult, TodoOutput, error) {
	text := strings.TrimSpace(args.Text)
	if text == "" {
		return nil, TodoOutput{}, fmt.Errorf("add_todo: text is required")
	}
	desktop, err := s.resolveDesktop(args.Desktop, "add_todo")
	if err != nil {
		return nil, TodoOutput{}, err
	}

	todos, err := s.daemon.Todos(desktop)
	if err != nil {
		return nil, TodoOutput{}, err
	}
	item := store.TodoItem{ID: s.newID(), Text: text}
	if err := s.daemon.SaveTodos(desktop, append(todos, item)); err != nil {
		return nil, TodoOutput{}, err
	}

	s.logger.Debug("mcp add_todo", "desktop", desktop, "id", item.ID)
	return nil, TodoOutput{Desktop: desktop, Todo: item}, nil
}

func (s *Server) handleCompleteTodo(_ context.Context, _ *mcpsdk.CallToolRequest, args CompleteTodoInput) (*mcpsdk.CallToolResult, TodoOutput, error) {
	desktop, err := s.resolveDesktop(args.Desktop, "complete_todo")
	if err != nil {
		return nil, TodoOutput{}, err
	}
	todos, err := s.daemon.Todos(desktop)
	if err != nil {
		return nil, TodoOutput{}, err
	}

	idx := -1
	for i, todo := range todos {
		if todo.ID == args.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, TodoOutput{}, fmt.Errorf("complete_todo: no todo %q on desktop %d", args.ID, desktop)
	}
	if todos[idx].Done {
		return nil, TodoOutput{Desktop: desktop, Todo: todos[idx]}, nil
	}

	todos[idx].Done = true
	if err := s.daemon.SaveTodos(desktop, todos); err != nil {
		return nil, TodoOutput{}, err
	}
	if _, err := s.daemon.AddCompleted(todos[idx].Text, desktop); err != nil {
		return nil, TodoOutput{}, err
	}
	return nil, TodoOutput{Desktop: desktop, Todo: todos[idx]}, nil
}

func (s *Server) handleSetTitle(_ context.Context, _ *mcpsdk.CallToolRequest, args SetTitleInput) (*mcpsdk.CallToolResult, SetTitleOutput, error) {
	desktop, err := s.resolveDesktop(args.Desktop, "set_title")
	if err != nil {
		return nil, SetTitleOutput{}, err
	}
	title := strings.TrimSpace(args.Title)
	if err := s.daemon.SaveTitle(desktop, title); err != nil {
		return nil, SetTitleOutput{}, err
	}
	return nil, SetTitleOutput{Desktop: desktop, Title: title}, nil
}

func (s *Server) handleSwitchDesktop(_ context.Context, _ *mcpsdk.CallToolRequest, args SwitchDesktopInput) (*mcpsdk.CallToolResult, SwitchDesktopOutput, error) {
	if args.Target == 0 {
		return nil, SwitchDesktopOutput{}, fmt.Errorf("switch_desktop: target is required")
	}
	ok, err := s.daemon.SwitchDesktop(args.Display, args.Target)
	if err != nil {
		return nil, SwitchDesktopOutput{}, err
	}
	return nil, SwitchDesktopOutput{Switched: ok}, nil
}

func (s *Server) handleStartSession(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if err := s.daemon.StartSession(); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleGetHistory(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, HistoryOutput, error) {
	history, err := s.daemon.History()
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	return nil, HistoryOutput{History: history}, nil
}

func (s *Server) handleRestoreContext(_ context.Context, _ *mcpsdk.CallToolRequest, args RestoreContextInput) (*mcpsdk.CallToolResult, RestoreContextOutput, error) {
	ok, err := s.daemon.RestoreContext(args.Desktop, args.Index)
	if err != nil {
		return nil, RestoreContextOutput{}, err
	}
	return nil, RestoreContextOutput{Restored: ok}, nil
}

func (s *Server) handleListCompleted(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, CompletedOutput, error) {
	items, err := s.daemon.Completed()
	if err != nil {
		return nil, CompletedOutput{}, err
	}
	return nil, CompletedOutput{Completed: items}, nil
}

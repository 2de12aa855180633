package mcp

import (
	"github.com/1broseidon/deskctx/internal/commands"
	"github.com/1broseidon/deskctx/internal/spaces"
	"github.com/1broseidon/deskctx/internal/store"
)

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// CurrentDesktopInput is the input for the get_current_desktop tool.
type CurrentDesktopInput struct {
	Display int `json:"display,omitempty" jsonschema:"Display index (default: 0, the primary display)"`
}

// CurrentDesktopOutput is the output for the get_current_desktop tool.
type CurrentDesktopOutput struct {
	Desktop spaces.DesktopInfo `json:"desktop"`
	Title   string             `json:"title"`
	Todos   []store.TodoItem   `json:"todos"`
}

// ListDesktopsOutput is the output for the list_desktops tool.
type ListDesktopsOutput struct {
	Displays []commands.DisplayGroup `json:"displays"`
}

// DesktopInput selects a desktop by space id.
type DesktopInput struct {
	Desktop uint64 `json:"desktop,omitempty" jsonschema:"Space id of the desktop (default: the desktop currently shown on display 0)"`
}

// TodosOutput is the output for the get_todos tool.
type TodosOutput struct {
	Desktop uint64           `json:"desktop"`
	Todos   []store.TodoItem `json:"todos"`
}

// AddTodoInput is the input for the add_todo tool.
type AddTodoInput struct {
	Desktop uint64 `json:"desktop,omitempty" jsonschema:"Space id of the desktop (default: current desktop of display 0)"`
	Text    string `json:"text" jsonschema:"required,Todo text"`
}

// TodoOutput is the output for tools that touch a single todo.
type TodoOutput struct {
	Desktop uint64         `json:"desktop"`
	Todo    store.TodoItem `json:"todo"`
}

// CompleteTodoInput is the input for the complete_todo tool.
type CompleteTodoInput struct {
	Desktop uint64 `json:"desktop,omitempty" jsonschema:"Space id of the desktop (default: current desktop of display 0)"`
	ID      string `json:"id" jsonschema:"required,Id of the todo to mark done"`
}

// SetTitleInput is the input for the set_title tool.
type SetTitleInput struct {
	Desktop uint64 `json:"desktop,omitempty" jsonschema:"Space id of the desktop (default: current desktop of display 0)"`
	Title   string `json:"title" jsonschema:"New title; empty clears it"`
}

// SetTitleOutput is the output for the set_title tool.
type SetTitleOutput struct {
	Desktop uint64 `json:"desktop"`
	Title   string `json:"title"`
}

// SwitchDesktopInput is the input for the switch_desktop tool.
type SwitchDesktopInput struct {
	Display int    `json:"display,omitempty" jsonschema:"Display index (default: 0)"`
	Target  uint64 `json:"target" jsonschema:"required,Space id to switch to; must be on the same display"`
}

// SwitchDesktopOutput is the output for the switch_desktop tool.
type SwitchDesktopOutput struct {
	Switched bool `json:"switched"`
}

// HistoryOutput is the output for the get_history tool.
type HistoryOutput struct {
	History map[uint64][]store.SavedContext `json:"history"`
}

// RestoreContextInput is the input for the restore_context tool.
type RestoreContextInput struct {
	Desktop uint64 `json:"desktop" jsonschema:"required,Space id whose history entry to restore"`
	Index   int    `json:"index" jsonschema:"required,Index into the desktop's history (0 = oldest)"`
}

// RestoreContextOutput is the output for the restore_context tool.
type RestoreContextOutput struct {
	Restored bool `json:"restored"`
}

// CompletedOutput is the output for the list_completed tool.
type CompletedOutput struct {
	Completed []store.CompletedItem `json:"completed"`
}

// OKOutput is the output for tools with nothing to report.
type OKOutput struct {
	OK bool `json:"ok"`
}

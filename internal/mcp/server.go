package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/deskctx/internal/commands"
	"github.com/1broseidon/deskctx/internal/spaces"
	"github.com/1broseidon/deskctx/internal/store"
)

const (
	ServerName    = "deskctx"
	ServerVersion = "0.1.0"
)

// Daemon is the slice of the IPC client the tools forward to.
type Daemon interface {
	Desktop(display int) (spaces.DesktopInfo, error)
	ListDesktopsGrouped() ([]commands.DisplayGroup, error)
	Todos(desktop uint64) ([]store.TodoItem, error)
	SaveTodos(desktop uint64, todos []store.TodoItem) error
	Title(desktop uint64) (string, error)
	SaveTitle(desktop uint64, title string) error
	SwitchDesktop(display int, target uint64) (bool, error)
	StartSession() error
	History() (map[uint64][]store.SavedContext, error)
	RestoreContext(desktop uint64, index int) (bool, error)
	Completed() ([]store.CompletedItem, error)
	AddCompleted(text string, desktop uint64) (store.CompletedItem, error)
}

// Server is the MCP server exposing desktop context to agents.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger

	newID func() string
}

// NewServer creates an MCP server whose tools call the running daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		daemon: daemon,
		logger: logger,
		newID:  newTodoID,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_current_desktop",
		Description: "Return the desktop a display is showing, with its title and todo list. Full-screen application spaces report position 0.",
	}, s.handleCurrentDesktop)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_desktops",
		Description: "List every desktop grouped by display, with names, titles, colors and open-todo counts. Positions are global across displays.",
	}, s.handleListDesktops)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_todos",
		Description: "Return the todo list of a desktop. Unknown desktops have an empty list.",
	}, s.handleGetTodos)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "add_todo",
		Description: "Append a todo to a desktop's list and return it with its generated id.",
	}, s.handleAddTodo)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "complete_todo",
		Description: "Mark a todo done and record it in the completed list.",
	}, s.handleCompleteTodo)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_title",
		Description: "Set the title of a desktop. An empty title removes it.",
	}, s.handleSetTitle)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "switch_desktop",
		Description: "Switch a display to another of its desktops by synthesizing the window manager's shortcuts. Returns switched=false when the target is already current or not on that display.",
	}, s.handleSwitchDesktop)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "start_session",
		Description: "Archive every desktop's title and todos into its history and clear the working set.",
	}, s.handleStartSession)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_history",
		Description: "Return the archived contexts of every desktop, oldest first.",
	}, s.handleGetHistory)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restore_context",
		Description: "Restore an archived title and todo list onto a desktop.",
	}, s.handleRestoreContext)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_completed",
		Description: "List completed todos across all desktops.",
	}, s.handleListCompleted)
}

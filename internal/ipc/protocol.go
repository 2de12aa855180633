package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/deskctx/internal/store"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandReload      CommandType = "RELOAD"
	CommandGetMonitors CommandType = "GET_MONITORS"
	CommandSubscribe   CommandType = "SUBSCRIBE"

	CommandGetDesktop          CommandType = "GET_DESKTOP"
	CommandGetCurrentDesktops  CommandType = "GET_CURRENT_DESKTOPS"
	CommandListDesktops        CommandType = "LIST_DESKTOPS"
	CommandListDesktopsGrouped CommandType = "LIST_DESKTOPS_GROUPED"
	CommandListSpaces          CommandType = "LIST_SPACES"
	CommandSwitchDesktop       CommandType = "SWITCH_DESKTOP"

	CommandGetTodos  CommandType = "GET_TODOS"
	CommandSaveTodos CommandType = "SAVE_TODOS"
	CommandGetTitle  CommandType = "GET_TITLE"
	CommandSaveTitle CommandType = "SAVE_TITLE"

	CommandGetSettings        CommandType = "GET_SETTINGS"
	CommandSaveColor          CommandType = "SAVE_COLOR"
	CommandSaveDesktopCount   CommandType = "SAVE_DESKTOP_COUNT"
	CommandApplyTheme         CommandType = "APPLY_THEME"
	CommandSaveTimerPresets   CommandType = "SAVE_TIMER_PRESETS"
	CommandSaveNotifySettings CommandType = "SAVE_NOTIFY_SETTINGS"
	CommandSaveHiddenPanels   CommandType = "SAVE_HIDDEN_PANELS"
	CommandCompleteSetup      CommandType = "COMPLETE_SETUP"
	CommandClearAllData       CommandType = "CLEAR_ALL_DATA"

	CommandCheckAccessibility   CommandType = "CHECK_ACCESSIBILITY"
	CommandRequestAccessibility CommandType = "REQUEST_ACCESSIBILITY"

	CommandStartSession   CommandType = "START_SESSION"
	CommandGetHistory     CommandType = "GET_HISTORY"
	CommandRestoreContext CommandType = "RESTORE_CONTEXT"

	CommandGetCompleted   CommandType = "GET_COMPLETED"
	CommandAddCompleted   CommandType = "ADD_COMPLETED"
	CommandClearCompleted CommandType = "CLEAR_COMPLETED"

	CommandListWindows   CommandType = "LIST_WINDOWS"
	CommandShowWindow    CommandType = "SHOW_WINDOW"
	CommandHideWindow    CommandType = "HIDE_WINDOW"
	CommandToggleWindows CommandType = "TOGGLE_WINDOWS"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	UptimeSeconds  int64  `json:"uptime_seconds"`
	DaemonRunning  bool   `json:"daemon_running"`
	Profile        string `json:"profile"`
	DataFile       string `json:"data_file"`
	SwitchStrategy string `json:"switch_strategy"`
	Displays       int    `json:"displays"`
	Windows        int    `json:"windows"`
	Subscribers    int    `json:"subscribers"`
	Trusted        bool   `json:"trusted"`
	// DisplayEvents is false when monitor changes are only picked up by the
	// periodic reconcile.
	DisplayEvents  bool   `json:"display_events"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	Index       int     `json:"index"`
	Label       string  `json:"label"`
	Name        string  `json:"name"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	ScaleFactor float64 `json:"scale_factor"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
	Hardware int           `json:"hardware"`
}

type DisplayPayload struct {
	Display int `json:"display"`
}

type DesktopPayload struct {
	Desktop uint64 `json:"desktop"`
}

type SaveTodosPayload struct {
	Desktop uint64           `json:"desktop"`
	Todos   []store.TodoItem `json:"todos"`
}

type SaveTitlePayload struct {
	Desktop uint64 `json:"desktop"`
	Title   string `json:"title"`
}

type SwitchPayload struct {
	Display int    `json:"display"`
	Target  uint64 `json:"target"`
}

type SaveColorPayload struct {
	Desktop uint64 `json:"desktop"`
	Color   string `json:"color"`
}

type CountPayload struct {
	Count int `json:"count"`
}

type ThemePayload struct {
	Colors []string `json:"colors"`
}

type PresetsPayload struct {
	Presets []int `json:"presets"`
}

type NotifyPayload struct {
	System bool `json:"system"`
	Flash  bool `json:"flash"`
}

type PanelsPayload struct {
	Panels []string `json:"panels"`
}

type RestorePayload struct {
	Desktop uint64 `json:"desktop"`
	Index   int    `json:"index"`
}

type AddCompletedPayload struct {
	Text      string `json:"text"`
	DesktopID uint64 `json:"desktop_id"`
}

type WindowPayload struct {
	// Label selects one window; empty means all.
	Label string `json:"label,omitempty"`
}

// BoolData wraps boolean command results.
type BoolData struct {
	OK bool `json:"ok"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// NewRequest builds a request, marshalling payload when non-nil.
func NewRequest(cmd CommandType, payload any) (*Request, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = raw
	}
	return req, nil
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: missing command")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

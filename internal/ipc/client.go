package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/deskctx/internal/commands"
	"github.com/1broseidon/deskctx/internal/runtimepath"
	"github.com/1broseidon/deskctx/internal/spaces"
	"github.com/1broseidon/deskctx/internal/store"
	"github.com/1broseidon/deskctx/internal/switcher"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// StreamEvent is one event received from a SUBSCRIBE stream.
type StreamEvent struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client for an explicit socket path.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

func (c *Client) dial() (net.Conn, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	return conn, nil
}

func writeRequest(conn net.Conn, req *Request) error {
	reqData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return nil
}

func readResponse(reader *bufio.Reader) (*Response, error) {
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == StatusError {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	return c.sendRequestWithin(req, c.timeout)
}

// sendRequestWithin is sendRequest with an explicit deadline for the whole
// exchange.
func (c *Client) sendRequestWithin(req *Request, timeout time.Duration) (*Response, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(timeout))

	if err := writeRequest(conn, req); err != nil {
		return nil, err
	}
	return readResponse(bufio.NewReader(conn))
}

// call sends cmd with payload and decodes the response data into T.
func call[T any](c *Client, cmd CommandType, payload any) (T, error) {
	return callWithin[T](c, cmd, payload, c.timeout)
}

func callWithin[T any](c *Client, cmd CommandType, payload any, timeout time.Duration) (T, error) {
	var out T
	req, err := NewRequest(cmd, payload)
	if err != nil {
		return out, err
	}
	resp, err := c.sendRequestWithin(req, timeout)
	if err != nil {
		return out, err
	}
	if len(resp.Data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return out, fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return out, nil
}

// exec sends cmd and discards the response data.
func (c *Client) exec(cmd CommandType, payload any) error {
	req, err := NewRequest(cmd, payload)
	if err != nil {
		return err
	}
	_, err = c.sendRequest(req)
	return err
}

func (c *Client) callBool(cmd CommandType, payload any) (bool, error) {
	res, err := call[BoolData](c, cmd, payload)
	return res.OK, err
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.exec(CommandReload, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	status, err := call[StatusData](c, CommandGetStatus, nil)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// GetMonitors retrieves monitor information
func (c *Client) GetMonitors() (*MonitorsData, error) {
	monitors, err := call[MonitorsData](c, CommandGetMonitors, nil)
	if err != nil {
		return nil, err
	}
	return &monitors, nil
}

// Ping checks if the daemon is running
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}

func (c *Client) Desktop(display int) (spaces.DesktopInfo, error) {
	return call[spaces.DesktopInfo](c, CommandGetDesktop, DisplayPayload{Display: display})
}

func (c *Client) CurrentDesktops() ([]spaces.DesktopInfo, error) {
	return call[[]spaces.DesktopInfo](c, CommandGetCurrentDesktops, nil)
}

func (c *Client) ListDesktops() ([]commands.DesktopSummary, error) {
	return call[[]commands.DesktopSummary](c, CommandListDesktops, nil)
}

func (c *Client) ListDesktopsGrouped() ([]commands.DisplayGroup, error) {
	return call[[]commands.DisplayGroup](c, CommandListDesktopsGrouped, nil)
}

func (c *Client) ListSpaces() ([]commands.SpaceInfo, error) {
	return call[[]commands.SpaceInfo](c, CommandListSpaces, nil)
}

// SwitchDesktop asks the daemon to move display to target. The daemon
// answers once the switch has finished, so the deadline grows with the
// number of desktops the display could have to step across.
func (c *Client) SwitchDesktop(display int, target uint64) (bool, error) {
	timeout := c.timeout
	if groups, err := c.ListDesktopsGrouped(); err == nil {
		timeout += switchBudget(groups, display)
	}
	res, err := callWithin[BoolData](c, CommandSwitchDesktop, SwitchPayload{Display: display, Target: target}, timeout)
	return res.OK, err
}

// switchBudget is the longest a step switch on display can take: one step
// delay per desktop it holds.
func switchBudget(groups []commands.DisplayGroup, display int) time.Duration {
	for _, g := range groups {
		if g.DisplayIndex == display {
			return time.Duration(len(g.Desktops)) * switcher.StepDelay
		}
	}
	return 0
}

func (c *Client) Todos(desktop uint64) ([]store.TodoItem, error) {
	return call[[]store.TodoItem](c, CommandGetTodos, DesktopPayload{Desktop: desktop})
}

func (c *Client) SaveTodos(desktop uint64, todos []store.TodoItem) error {
	return c.exec(CommandSaveTodos, SaveTodosPayload{Desktop: desktop, Todos: todos})
}

func (c *Client) Title(desktop uint64) (string, error) {
	return call[string](c, CommandGetTitle, DesktopPayload{Desktop: desktop})
}

func (c *Client) SaveTitle(desktop uint64, title string) error {
	return c.exec(CommandSaveTitle, SaveTitlePayload{Desktop: desktop, Title: title})
}

func (c *Client) Settings() (store.Settings, error) {
	return call[store.Settings](c, CommandGetSettings, nil)
}

func (c *Client) SaveColor(desktop uint64, color string) error {
	return c.exec(CommandSaveColor, SaveColorPayload{Desktop: desktop, Color: color})
}

func (c *Client) SaveDesktopCount(count int) error {
	return c.exec(CommandSaveDesktopCount, CountPayload{Count: count})
}

func (c *Client) ApplyTheme(colors []string) error {
	return c.exec(CommandApplyTheme, ThemePayload{Colors: colors})
}

func (c *Client) SaveTimerPresets(presets []int) error {
	return c.exec(CommandSaveTimerPresets, PresetsPayload{Presets: presets})
}

func (c *Client) SaveNotifySettings(system, flash bool) error {
	return c.exec(CommandSaveNotifySettings, NotifyPayload{System: system, Flash: flash})
}

func (c *Client) SaveHiddenPanels(panels []string) error {
	return c.exec(CommandSaveHiddenPanels, PanelsPayload{Panels: panels})
}

func (c *Client) CompleteSetup() error {
	return c.exec(CommandCompleteSetup, nil)
}

func (c *Client) ClearAllData() error {
	return c.exec(CommandClearAllData, nil)
}

func (c *Client) CheckAccessibility() (bool, error) {
	return c.callBool(CommandCheckAccessibility, nil)
}

func (c *Client) RequestAccessibility() (bool, error) {
	return c.callBool(CommandRequestAccessibility, nil)
}

func (c *Client) StartSession() error {
	return c.exec(CommandStartSession, nil)
}

func (c *Client) History() (map[uint64][]store.SavedContext, error) {
	return call[map[uint64][]store.SavedContext](c, CommandGetHistory, nil)
}

func (c *Client) RestoreContext(desktop uint64, index int) (bool, error) {
	return c.callBool(CommandRestoreContext, RestorePayload{Desktop: desktop, Index: index})
}

func (c *Client) Completed() ([]store.CompletedItem, error) {
	return call[[]store.CompletedItem](c, CommandGetCompleted, nil)
}

func (c *Client) AddCompleted(text string, desktop uint64) (store.CompletedItem, error) {
	return call[store.CompletedItem](c, CommandAddCompleted, AddCompletedPayload{Text: text, DesktopID: desktop})
}

func (c *Client) ClearCompleted() error {
	return c.exec(CommandClearCompleted, nil)
}

func (c *Client) Windows() ([]string, error) {
	return call[[]string](c, CommandListWindows, nil)
}

// ShowWindow maps one window, or all of them when label is empty.
func (c *Client) ShowWindow(label string) error {
	return c.exec(CommandShowWindow, WindowPayload{Label: label})
}

// HideWindow unmaps one window, or all of them when label is empty.
func (c *Client) HideWindow(label string) error {
	return c.exec(CommandHideWindow, WindowPayload{Label: label})
}

// ToggleWindows flips window visibility and reports whether they are shown.
func (c *Client) ToggleWindows() (bool, error) {
	return c.callBool(CommandToggleWindows, nil)
}

// Subscribe opens an event stream and calls fn for every event until ctx
// is cancelled or the daemon closes the stream.
func (c *Client) Subscribe(ctx context.Context, fn func(StreamEvent)) error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))
	if err := writeRequest(conn, &Request{Command: CommandSubscribe}); err != nil {
		return err
	}
	reader := bufio.NewReader(conn)
	if _, err := readResponse(reader); err != nil {
		return err
	}
	conn.SetDeadline(time.Time{})

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("event stream closed: %w", err)
		}
		var ev StreamEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return fmt.Errorf("failed to parse event: %w", err)
		}
		fn(ev)
	}
}

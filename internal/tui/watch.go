package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/deskctx/internal/commands"
	"github.com/1broseidon/deskctx/internal/events"
	"github.com/1broseidon/deskctx/internal/ipc"
)

const maxEventLog = 8

// desktopItem implements list.Item for the desktop picker.
type desktopItem struct {
	display int
	summary commands.DesktopSummary
}

func (i desktopItem) Title() string {
	label := fmt.Sprintf("%d. %s", i.summary.Position+1, i.summary.Name)
	if i.summary.Title != "" {
		label += " · " + i.summary.Title
	}
	return swatch(i.summary.Color) + " " + label
}

func (i desktopItem) Description() string {
	todos := "no open todos"
	switch i.summary.TodoCount {
	case 0:
	case 1:
		todos = "1 open todo"
	default:
		todos = fmt.Sprintf("%d open todos", i.summary.TodoCount)
	}
	return fmt.Sprintf("display %d · %s", i.display, todos)
}

func (i desktopItem) FilterValue() string { return i.summary.Name + " " + i.summary.Title }

type desktopsMsg struct {
	groups []commands.DisplayGroup
	err    error
}

type eventMsg struct {
	event ipc.StreamEvent
}

type streamClosedMsg struct {
	err error
}

type switchedMsg struct {
	target uint64
	ok     bool
	err    error
}

type clearStatusMsg struct{}

// watchModel is the live dashboard: desktops grouped by display, with the
// daemon's event stream underneath.
type watchModel struct {
	ctx    context.Context
	cancel context.CancelFunc
	client Client
	events chan ipc.StreamEvent

	list      list.Model
	log       []string
	connected bool
	status    string
	statusErr bool

	width  int
	height int
}

func newWatchModel(ctx context.Context, client Client) watchModel {
	ctx, cancel := context.WithCancel(ctx)

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Desktops"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return watchModel{
		ctx:    ctx,
		cancel: cancel,
		client: client,
		events: make(chan ipc.StreamEvent, 16),
		list:   l,
	}
}

// Init implements tea.Model.
func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.loadDesktops(), m.stream(), m.waitForEvent())
}

func (m watchModel) loadDesktops() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		groups, err := client.ListDesktopsGrouped()
		return desktopsMsg{groups: groups, err: err}
	}
}

// stream holds the SUBSCRIBE connection open until the model's context ends.
func (m watchModel) stream() tea.Cmd {
	ctx, client, ch := m.ctx, m.client, m.events
	return func() tea.Msg {
		err := client.Subscribe(ctx, func(ev ipc.StreamEvent) {
			select {
			case ch <- ev:
			case <-ctx.Done():
			}
		})
		return streamClosedMsg{err: err}
	}
}

func (m watchModel) waitForEvent() tea.Cmd {
	ctx, ch := m.ctx, m.events
	return func() tea.Msg {
		select {
		case ev := <-ch:
			return eventMsg{event: ev}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m watchModel) switchTo(item desktopItem) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ok, err := client.SwitchDesktop(item.display, item.summary.SpaceID)
		return switchedMsg{target: item.summary.SpaceID, ok: ok, err: err}
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// Update implements tea.Model.
func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancel()
			return m, tea.Quit
		case "r":
			return m, m.loadDesktops()
		case "enter":
			item, ok := m.list.SelectedItem().(desktopItem)
			if !ok {
				return m, nil
			}
			return m, m.switchTo(item)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case desktopsMsg:
		if msg.err != nil {
			m.connected = false
			m.setStatus(fmt.Sprintf("error: %v", msg.err), true)
			return m, nil
		}
		m.connected = true
		m.list.SetItems(buildDesktopItems(msg.groups))
		return m, nil

	case eventMsg:
		m.log = appendEvent(m.log, msg.event)
		cmds := []tea.Cmd{m.waitForEvent()}
		switch msg.event.Name {
		case events.DesktopChanged, events.MonitorsChanged, events.TodoCompleted:
			cmds = append(cmds, m.loadDesktops())
		case events.PersistFailed:
			m.setStatus("warning: notes could not be saved", true)
		}
		return m, tea.Batch(cmds...)

	case streamClosedMsg:
		if msg.err != nil && m.ctx.Err() == nil {
			m.connected = false
			m.setStatus(fmt.Sprintf("event stream closed: %v", msg.err), true)
		}
		return m, nil

	case switchedMsg:
		switch {
		case msg.err != nil:
			m.setStatus(fmt.Sprintf("error: %v", msg.err), true)
		case msg.ok:
			m.setStatus(fmt.Sprintf("switched to space %d", msg.target), false)
		default:
			m.setStatus("already there, or not reachable from this display", false)
		}
		return m, clearStatusAfter(3 * time.Second)

	case clearStatusMsg:
		m.status = ""
		m.statusErr = false
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *watchModel) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *watchModel) resize() {
	// status bar, event log header plus entries, help bar
	h := m.height - 3 - (maxEventLog + 1)
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width, h)
}

func buildDesktopItems(groups []commands.DisplayGroup) []list.Item {
	var items []list.Item
	for _, g := range groups {
		for _, d := range g.Desktops {
			items = append(items, desktopItem{display: g.DisplayIndex, summary: d})
		}
	}
	return items
}

func appendEvent(log []string, ev ipc.StreamEvent) []string {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	line := at.Format("15:04:05") + "  " + ev.Name
	if payload := strings.TrimSpace(string(ev.Payload)); payload != "" && payload != "null" {
		line += "  " + payload
	}
	log = append(log, line)
	if len(log) > maxEventLog {
		log = log[len(log)-maxEventLog:]
	}
	return log
}

// View implements tea.Model.
func (m watchModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	detail := ""
	if n := len(m.list.Items()); m.connected {
		detail = fmt.Sprintf("%d desktops", n)
	}
	statusBar := renderStatusBar(m.connected, detail, m.width)

	lines := []string{titleStyle.Render("Events")}
	if len(m.log) == 0 {
		lines = append(lines, dimStyle.Render("  waiting for events"))
	}
	for _, l := range m.log {
		lines = append(lines, eventStyle.Render("  "+truncate(l, m.width-2)))
	}
	eventLog := strings.Join(lines, "\n")

	help := "enter: switch  r: refresh  q: quit"
	if m.status != "" {
		style := okStyle
		if m.statusErr {
			style = errStyle
		}
		help = style.Render(m.status) + "  " + help
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		m.list.View(),
		eventLog,
		renderHelpBar(help, m.width),
	)
}

// RunWatch opens the dashboard and blocks until the user quits.
func RunWatch(ctx context.Context, client Client) error {
	m := newWatchModel(ctx, client)
	defer m.cancel()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

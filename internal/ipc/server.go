package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/1broseidon/deskctx/internal/commands"
	"github.com/1broseidon/deskctx/internal/events"
	"github.com/1broseidon/deskctx/internal/platform"
	"github.com/1broseidon/deskctx/internal/runtimepath"
	"github.com/1broseidon/deskctx/internal/tracing"
)

const (
	subscriberBuffer = 64
	writeTimeout     = 5 * time.Second
)

// ServerConfig wires a Server.
type ServerConfig struct {
	// SocketPath defaults to runtimepath.SocketPath().
	SocketPath string
	Service    *commands.Service
	Events     *events.Bus
	Displays   platform.DisplayQuery
	// Reload re-reads the config file; nil disables RELOAD.
	Reload   func() error
	Profile  string
	DataFile string
	Logger   *slog.Logger
}

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	listener   net.Listener
	service    *commands.Service
	events     *events.Bus
	displays   platform.DisplayQuery
	reload     func() error
	profile    string
	dataFile   string
	logger     *slog.Logger
	startTime  time.Time

	ctx    context.Context
	cancel context.CancelFunc

	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a new IPC server
func NewServer(cfg ServerConfig) (*Server, error) {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		p, err := runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
		socketPath = p
	}
	if cfg.Service == nil {
		return nil, fmt.Errorf("ipc server requires a command service")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		service:    cfg.Service,
		events:     cfg.Events,
		displays:   cfg.Displays,
		reload:     cfg.Reload,
		profile:    cfg.Profile,
		dataFile:   cfg.DataFile,
		logger:     logger,
		startTime:  time.Now(),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	// Accept connections
	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	conn.SetReadDeadline(time.Now().Add(writeTimeout))

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}
	if len(data) == 0 {
		return
	}

	// Parse request
	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	if req.Command == CommandSubscribe {
		conn.SetReadDeadline(time.Time{})
		s.handleSubscribe(conn, reader)
		return
	}

	// A client that hangs up cancels its command, so an abandoned switch
	// stops stepping.
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	conn.SetReadDeadline(time.Time{})
	go func() {
		io.Copy(io.Discard, reader)
		cancel()
	}()

	s.send(conn, s.handleCommand(ctx, req))
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	ctx, span := tracing.Start(ctx, "ipc.command", attribute.String("ipc.command", string(req.Command)))

	data, err := s.dispatch(ctx, req)
	tracing.End(span, err)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, req *Request) (any, error) {
	svc := s.service

	switch req.Command {
	case CommandGetStatus:
		return s.status(), nil
	case CommandReload:
		return nil, s.handleReload()
	case CommandGetMonitors:
		return s.monitors(ctx)

	case CommandGetDesktop:
		p, err := decodeOptional[DisplayPayload](req)
		if err != nil {
			return nil, err
		}
		return svc.Desktop(p.Display), nil
	case CommandGetCurrentDesktops:
		return svc.Desktops(), nil
	case CommandListDesktops:
		return svc.ListAllDesktops(), nil
	case CommandListDesktopsGrouped:
		return svc.ListDesktopsGrouped(), nil
	case CommandListSpaces:
		return svc.ListAllSpaces(), nil
	case CommandSwitchDesktop:
		p, err := decode[SwitchPayload](req)
		if err != nil {
			return nil, err
		}
		return BoolData{OK: svc.SwitchDesktop(ctx, p.Display, p.Target)}, nil

	case CommandGetTodos:
		p, err := decode[DesktopPayload](req)
		if err != nil {
			return nil, err
		}
		return svc.Todos(p.Desktop), nil
	case CommandSaveTodos:
		p, err := decode[SaveTodosPayload](req)
		if err != nil {
			return nil, err
		}
		svc.SaveTodos(p.Desktop, p.Todos)
		return nil, nil
	case CommandGetTitle:
		p, err := decode[DesktopPayload](req)
		if err != nil {
			return nil, err
		}
		return svc.Title(p.Desktop), nil
	case CommandSaveTitle:
		p, err := decode[SaveTitlePayload](req)
		if err != nil {
			return nil, err
		}
		svc.SaveTitle(p.Desktop, p.Title)
		return nil, nil

	case CommandGetSettings:
		return svc.Settings(), nil
	case CommandSaveColor:
		p, err := decode[SaveColorPayload](req)
		if err != nil {
			return nil, err
		}
		svc.SaveColor(p.Desktop, p.Color)
		return nil, nil
	case CommandSaveDesktopCount:
		p, err := decode[CountPayload](req)
		if err != nil {
			return nil, err
		}
		svc.SaveDesktopCount(p.Count)
		return nil, nil
	case CommandApplyTheme:
		p, err := decode[ThemePayload](req)
		if err != nil {
			return nil, err
		}
		svc.ApplyTheme(p.Colors)
		return nil, nil
	case CommandSaveTimerPresets:
		p, err := decode[PresetsPayload](req)
		if err != nil {
			return nil, err
		}
		svc.SaveTimerPresets(p.Presets)
		return nil, nil
	case CommandSaveNotifySettings:
		p, err := decode[NotifyPayload](req)
		if err != nil {
			return nil, err
		}
		svc.SaveNotifySettings(p.System, p.Flash)
		return nil, nil
	case CommandSaveHiddenPanels:
		p, err := decode[PanelsPayload](req)
		if err != nil {
			return nil, err
		}
		svc.SaveHiddenPanels(p.Panels)
		return nil, nil
	case CommandCompleteSetup:
		svc.CompleteSetup()
		return nil, nil
	case CommandClearAllData:
		svc.ClearAllData()
		return nil, nil

	case CommandCheckAccessibility:
		return BoolData{OK: svc.CheckAccessibility()}, nil
	case CommandRequestAccessibility:
		return BoolData{OK: svc.RequestAccessibility()}, nil

	case CommandStartSession:
		svc.StartNewSession()
		return nil, nil
	case CommandGetHistory:
		return svc.ContextHistory(), nil
	case CommandRestoreContext:
		p, err := decode[RestorePayload](req)
		if err != nil {
			return nil, err
		}
		return BoolData{OK: svc.RestoreContext(p.Desktop, p.Index)}, nil

	case CommandGetCompleted:
		return svc.Completed(), nil
	case CommandAddCompleted:
		p, err := decode[AddCompletedPayload](req)
		if err != nil {
			return nil, err
		}
		return svc.AddCompleted(p.Text, p.DesktopID), nil
	case CommandClearCompleted:
		svc.ClearCompleted()
		return nil, nil

	case CommandListWindows:
		return svc.Windows(), nil
	case CommandShowWindow:
		p, err := decodeOptional[WindowPayload](req)
		if err != nil {
			return nil, err
		}
		return nil, svc.ShowWindow(p.Label)
	case CommandHideWindow:
		p, err := decodeOptional[WindowPayload](req)
		if err != nil {
			return nil, err
		}
		return nil, svc.HideWindow(p.Label)
	case CommandToggleWindows:
		visible, err := svc.ToggleWindows()
		if err != nil {
			return nil, err
		}
		return BoolData{OK: visible}, nil

	default:
		return nil, fmt.Errorf("Unknown command: %s", req.Command)
	}
}

func decode[T any](req *Request) (T, error) {
	var v T
	if len(req.Payload) == 0 {
		return v, fmt.Errorf("Invalid %s payload: missing", req.Command)
	}
	if err := json.Unmarshal(req.Payload, &v); err != nil {
		return v, fmt.Errorf("Invalid %s payload: %v", req.Command, err)
	}
	return v, nil
}

func decodeOptional[T any](req *Request) (T, error) {
	var v T
	if len(req.Payload) == 0 {
		return v, nil
	}
	return decode[T](req)
}

// handleReload reloads the configuration
func (s *Server) handleReload() error {
	s.logger.Info("IPC: received RELOAD command")
	if s.reload == nil {
		return fmt.Errorf("reload is not supported")
	}
	if err := s.reload(); err != nil {
		return fmt.Errorf("Failed to reload config: %v", err)
	}
	return nil
}

// status returns current daemon status
func (s *Server) status() StatusData {
	subscribers := 0
	if s.events != nil {
		subscribers = s.events.Subscribers()
	}
	return StatusData{
		UptimeSeconds:  int64(time.Since(s.startTime).Seconds()),
		DaemonRunning:  true,
		Profile:        s.profile,
		DataFile:       s.dataFile,
		SwitchStrategy: string(s.service.Strategy()),
		Displays:       s.service.DisplayCount(),
		Windows:        len(s.service.Windows()),
		Subscribers:    subscribers,
		Trusted:        s.service.CheckAccessibility(),
		DisplayEvents:  s.displayEvents(),
	}
}

func (s *Server) displayEvents() bool {
	src, ok := s.displays.(platform.DisplayEventSource)
	return ok && src.DisplayEventsAvailable()
}

// monitors returns information about all monitors
func (s *Server) monitors(ctx context.Context) (MonitorsData, error) {
	if s.displays == nil {
		return MonitorsData{}, fmt.Errorf("no display query available")
	}
	displays, err := platform.ListWithFallback(ctx, s.displays, s.logger)
	if err != nil {
		return MonitorsData{}, fmt.Errorf("Failed to get monitors: %v", err)
	}

	infos := make([]MonitorInfo, len(displays))
	for i, d := range displays {
		infos[i] = MonitorInfo{
			Index:       d.Index,
			Label:       d.Label(),
			Name:        d.Name,
			X:           d.Bounds.X,
			Y:           d.Bounds.Y,
			Width:       d.Bounds.Width,
			Height:      d.Bounds.Height,
			ScaleFactor: d.ScaleFactor,
		}
	}
	return MonitorsData{Monitors: infos, Hardware: s.displays.HardwareDisplayCount()}, nil
}

// handleSubscribe acknowledges the request, then streams events as JSON
// lines until the client hangs up or the server stops.
func (s *Server) handleSubscribe(conn net.Conn, reader *bufio.Reader) {
	if s.events == nil {
		s.send(conn, NewErrorResponse("event stream unavailable"))
		return
	}

	ch, unsubscribe := s.events.Subscribe(subscriberBuffer)
	defer unsubscribe()

	ack, _ := NewOKResponse(nil)
	if !s.send(conn, ack) {
		return
	}
	s.logger.Debug("IPC subscriber attached")

	hangup := make(chan struct{})
	go func() {
		io.Copy(io.Discard, reader)
		close(hangup)
	}()

	enc := json.NewEncoder(conn)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-hangup:
			s.logger.Debug("IPC subscriber detached")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := enc.Encode(ev); err != nil {
				s.logger.Debug("IPC subscriber write failed", "error", err)
				return
			}
		}
	}
}

// send writes one response line.
func (s *Server) send(conn net.Conn, resp *Response) bool {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return false
	}
	data = append(data, '\n')
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("failed to send response", "error", err)
		return false
	}
	return true
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}

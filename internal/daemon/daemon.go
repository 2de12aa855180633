package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/1broseidon/deskctx/internal/commands"
	"github.com/1broseidon/deskctx/internal/config"
	"github.com/1broseidon/deskctx/internal/events"
	"github.com/1broseidon/deskctx/internal/hotkeys"
	"github.com/1broseidon/deskctx/internal/ipc"
	"github.com/1broseidon/deskctx/internal/platform"
	"github.com/1broseidon/deskctx/internal/runtimepath"
	"github.com/1broseidon/deskctx/internal/spaces"
	"github.com/1broseidon/deskctx/internal/store"
	"github.com/1broseidon/deskctx/internal/switcher"
	"github.com/1broseidon/deskctx/internal/tracing"
	"github.com/1broseidon/deskctx/internal/windows"
)

// shutdownTimeout bounds span export on exit.
const shutdownTimeout = 5 * time.Second

// eventLooper is implemented by backends that need a blocking event loop
// to deliver notifications.
type eventLooper interface {
	EventLoop()
	StopEventLoop()
}

// keyBinder is implemented by backends that synthesize configurable keys.
type keyBinder interface {
	SetKeyBindings(keys platform.KeyBindings)
}

// Options configures Run.
type Options struct {
	// ConfigPath defaults to config.DefaultConfigPath().
	ConfigPath string
	// SocketPath defaults to runtimepath.SocketPath().
	SocketPath string
	Backend    platform.Backend
	Logger     *slog.Logger
	// Level is adjusted on config reloads when set.
	Level   *slog.LevelVar
	Version string
}

// Daemon owns every long-lived component of a running deskctx process.
type Daemon struct {
	opts    Options
	backend platform.Backend
	logger  *slog.Logger

	mu  sync.Mutex
	cfg *config.Config

	bus      *events.Bus
	store    *store.Store
	registry *spaces.Registry
	switcher *switcher.Switcher
	tray     *windows.Synchronizer
	service  *commands.Service
	hotkeys  *hotkeys.Handler

	reconciler *Reconciler
}

// Run loads configuration, wires the application and serves until ctx is
// cancelled or the process receives SIGINT/SIGTERM. SIGHUP reloads the
// config file.
func Run(ctx context.Context, opts Options) error {
	if opts.Backend == nil {
		return fmt.Errorf("daemon requires a platform backend")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path := opts.ConfigPath
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	opts.ConfigPath = path

	res, err := config.LoadFromPath(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := res.Config
	if opts.Level != nil {
		opts.Level.Set(cfg.SlogLevel())
	}
	logger.Info("configuration loaded", "path", path, "profile", cfg.Profile, "strategy", cfg.Switch.Strategy)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	provider, err := tracing.Setup(ctx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ExporterType: tracing.ExporterType(cfg.Tracing.Exporter),
		OTLPEndpoint: cfg.Tracing.Endpoint,
		ServiceName:  "deskctx",
		Version:      opts.Version,
		Output:       os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		if err := provider.Shutdown(sctx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	// The data directory must be usable before anything reads state.
	dataFile, err := runtimepath.EnsureDataFile(cfg.DataDir, cfg.IsDev())
	if err != nil {
		return fmt.Errorf("failed to prepare data file: %w", err)
	}

	d := &Daemon{opts: opts, backend: opts.Backend, logger: logger, cfg: cfg}
	d.build(dataFile)
	defer d.store.Flush()

	// Config reloads from RELOAD and the file watcher rebind shortcuts, so
	// the handler exists before either can run.
	d.hotkeys = hotkeys.NewHandler(opts.Backend, logger)
	d.bindHotkeys(cfg)

	// The application cell is filled before listeners attach so the first
	// signal already sees a complete app.
	bridge := NewBridge(logger)
	bridge.SetApp(&App{
		Registry: d.registry,
		Colors:   d.store.CustomColor,
		Windows:  d.tray,
		Events:   d.bus,
	})
	bridge.Attach(ctx, opts.Backend)
	defer bridge.Stop()

	if err := d.tray.Refresh(ctx); err != nil {
		logger.Warn("initial window reconciliation failed", "error", err)
	}

	server, err := ipc.NewServer(ipc.ServerConfig{
		SocketPath: opts.SocketPath,
		Service:    d.service,
		Events:     d.bus,
		Displays:   opts.Backend,
		Reload:     d.Reload,
		Profile:    string(cfg.Profile),
		DataFile:   dataFile,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create IPC server: %w", err)
	}
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start IPC server: %w", err)
	}
	defer server.Stop()

	go d.reconciler.Run(ctx)

	watcher, err := config.NewWatcher(path, logger, d.apply)
	if err != nil {
		logger.Warn("config watcher unavailable", "error", err)
	} else if err := watcher.Start(ctx); err != nil {
		logger.Warn("config watcher unavailable", "error", err)
		watcher.Close()
	} else {
		defer watcher.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	if looper, ok := opts.Backend.(eventLooper); ok {
		go looper.EventLoop()
		defer looper.StopEventLoop()
	}

	logger.Info("deskctx daemon started", "data_file", dataFile, "socket", server.SocketPath())

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down deskctx daemon")
			return nil
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Info("received SIGHUP, reloading config")
				if err := d.Reload(); err != nil {
					logger.Warn("config reload failed", "error", err)
				}
				continue
			}
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		}
	}
}

// build constructs the shared store and everything that reads it.
func (d *Daemon) build(dataFile string) {
	d.bus = events.NewBus(d.logger)
	d.store = store.Open(store.FilePersister{Path: dataFile}, store.Options{
		Logger: d.logger,
		OnPersistError: func(err error) {
			d.logger.Error("failed to persist data", "path", dataFile, "error", err)
			d.bus.Publish(events.PersistFailed, err.Error())
		},
	})

	d.registry = spaces.NewRegistry(d.backend)
	if d.store.Migrate(spaceOrder(d.registry)) {
		d.logger.Info("migrated data file to space-id keys", "path", dataFile)
	}

	d.switcher = switcher.New(d.registry, d.backend, d.logger)
	d.tray = windows.NewSynchronizer(d.backend, d.backend, windows.Options{
		Publisher: d.bus,
		Logger:    d.logger,
	})
	d.reconciler = NewReconciler(ReconcilerConfig{Logger: d.logger}, d.tray)
	d.applyComponents(d.cfg)

	d.service = commands.New(commands.Deps{
		Registry: d.registry,
		Store:    d.store,
		Switcher: d.switcher,
		Access:   d.backend,
		Tray:     d.tray,
		Events:   d.bus,
		Logger:   d.logger,
	})
}

func spaceOrder(reg *spaces.Registry) []uint64 {
	all := reg.Enumerate()
	ids := make([]uint64, len(all))
	for i, sp := range all {
		ids[i] = sp.ID
	}
	return ids
}

// Reload re-reads the config file and applies it. The previous config stays
// active when loading fails.
func (d *Daemon) Reload() error {
	res, err := config.LoadFromPath(d.opts.ConfigPath)
	if err != nil {
		return err
	}
	d.apply(res.Config)
	return nil
}

// apply pushes the reloadable parts of cfg into running components. Profile,
// data directory and tracing need a restart.
func (d *Daemon) apply(cfg *config.Config) {
	d.mu.Lock()
	prev := d.cfg
	d.cfg = cfg
	d.mu.Unlock()

	if prev != nil && (prev.Profile != cfg.Profile || prev.DataDir != cfg.DataDir) {
		d.logger.Warn("profile and data_dir changes take effect after a restart")
	}

	d.applyComponents(cfg)
	d.bindHotkeys(cfg)

	if err := d.tray.Refresh(context.Background()); err != nil {
		d.logger.Warn("window reconciliation after reload failed", "error", err)
	}
	d.logger.Info("config reloaded", "strategy", cfg.Switch.Strategy, "log_level", cfg.LogLevel)
}

func (d *Daemon) applyComponents(cfg *config.Config) {
	if d.opts.Level != nil {
		d.opts.Level.Set(cfg.SlogLevel())
	}

	strategy, err := switcher.ParseStrategy(string(cfg.Switch.Strategy))
	if err != nil {
		d.logger.Warn("invalid switch strategy, keeping step", "error", err)
		strategy = switcher.StrategyStep
	}
	d.switcher.SetStrategy(strategy)

	if kb, ok := d.backend.(keyBinder); ok {
		kb.SetKeyBindings(platform.KeyBindings{
			Left:         cfg.Switch.LeftKey,
			Right:        cfg.Switch.RightKey,
			JumpModifier: cfg.Switch.JumpModifier,
		})
	}

	if d.reconciler != nil {
		d.reconciler.SetInterval(time.Duration(cfg.ReconcileInterval) * time.Second)
	}

	d.tray.SetGeometry(windows.Geometry{
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		Margin:    cfg.Window.Margin,
		TopOffset: cfg.Window.TopOffset,
	})
}

func (d *Daemon) bindHotkeys(cfg *config.Config) {
	if d.hotkeys == nil || !d.hotkeys.Available() {
		return
	}
	// Callbacks run on the X event goroutine; keep it free.
	err := d.hotkeys.Bind(cfg.Hotkeys, hotkeys.Actions{
		ToggleWindows: func() {
			go func() {
				if _, err := d.service.ToggleWindows(); err != nil {
					d.logger.Warn("toggle windows failed", "error", err)
				}
			}()
		},
		NewSession: func() {
			go func() {
				d.service.StartNewSession()
				d.logger.Info("new session started from hotkey")
			}()
		},
	})
	if err != nil {
		d.logger.Warn("some hotkeys could not be registered", "error", err)
	}
}

package daemon

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/deskctx/internal/events"
	"github.com/1broseidon/deskctx/internal/platform"
	"github.com/1broseidon/deskctx/internal/spaces"
	"github.com/1broseidon/deskctx/internal/tracing"
)

// Refresher re-queries the display list and reconciles windows against it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// App is the set of components the platform listeners act on.
type App struct {
	Registry *spaces.Registry
	Colors   spaces.ColorLookup
	Windows  Refresher
	Events   events.Publisher
}

// Bridge turns platform notifications into published events and debounced
// window reconciliation. Listeners are registered once with plain callbacks
// that read the application cell, so they can be attached before the
// application is fully built.
type Bridge struct {
	app    atomic.Pointer[App]
	logger *slog.Logger
	settle time.Duration

	mu      sync.Mutex
	ctx     context.Context
	timer   *time.Timer
	pending int
	// gen identifies the armed timer; a callback from an older timer that
	// lost the race with Stop or a re-arm finds a newer value and bails.
	gen uint64
}

// NewBridge creates a Bridge with the standard settle delay.
func NewBridge(logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		logger: logger,
		settle: platform.DisplaySettleDelay,
		ctx:    context.Background(),
	}
}

// SetApp fills the application cell. Only the first call takes effect.
func (b *Bridge) SetApp(app *App) bool {
	if app == nil {
		return false
	}
	return b.app.CompareAndSwap(nil, app)
}

// Attach registers the space and display listeners with n. Reconciliations
// scheduled afterwards run under ctx and are dropped once it ends.
func (b *Bridge) Attach(ctx context.Context, n platform.Notifier) {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	n.OnSpaceChanged(b.spaceChanged)
	n.OnDisplayReconfigured(b.displayReconfigured)
}

func (b *Bridge) spaceChanged() {
	app := b.app.Load()
	if app == nil {
		return
	}
	infos := app.Registry.DescribeAll(app.Colors)
	if len(infos) > 0 {
		b.logger.Debug("desktop changed", "space_id", infos[0].SpaceID, "position", infos[0].Position)
	}
	if app.Events != nil {
		app.Events.Publish(events.DesktopChanged, infos)
	}
}

func (b *Bridge) displayReconfigured(flags platform.DisplayChangeFlags) {
	if flags&platform.DisplayBeginConfiguration != 0 {
		return
	}
	if b.app.Load() == nil {
		return
	}
	b.schedule()
}

// schedule (re)arms the delayed reconciliation. Signals arriving inside the
// settle window push it back.
func (b *Bridge) schedule() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx.Err() != nil {
		return
	}
	b.pending++
	if b.timer != nil {
		b.timer.Stop()
	}
	b.gen++
	ctx, gen := b.ctx, b.gen
	b.timer = time.AfterFunc(b.settle, func() { b.fire(ctx, gen) })
}

func (b *Bridge) fire(ctx context.Context, gen uint64) {
	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return
	}
	signals := b.pending
	b.pending = 0
	b.timer = nil
	b.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	app := b.app.Load()
	if app == nil || app.Windows == nil {
		return
	}

	ctx, span := tracing.Start(ctx, "daemon.display_reconfigured")
	b.logger.Info("display configuration settled, reconciling windows", "signals", signals)
	err := app.Windows.Refresh(ctx)
	if err != nil {
		b.logger.Warn("window reconciliation failed", "error", err)
	}
	tracing.End(span, err)
}

// Stop cancels a pending reconciliation.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
	b.pending = 0
}

package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	// Interval between passes; zero pauses the reconciler.
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically re-runs window reconciliation so a missed display
// signal cannot leave the window set stale for long. The interval can be
// changed while Run is active.
type Reconciler struct {
	windows Refresher
	logger  *slog.Logger

	mu       sync.Mutex
	interval time.Duration
	changed  chan struct{}
}

func NewReconciler(cfg ReconcilerConfig, windows Refresher) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.Interval
	if interval < 0 {
		interval = 0
	}
	return &Reconciler{
		windows:  windows,
		logger:   logger,
		interval: interval,
		changed:  make(chan struct{}, 1),
	}
}

// Interval returns the current period, zero when paused.
func (r *Reconciler) Interval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}

// SetInterval changes the period. A running loop restarts its ticker.
func (r *Reconciler) SetInterval(d time.Duration) {
	if d < 0 {
		d = 0
	}
	r.mu.Lock()
	same := r.interval == d
	r.interval = d
	r.mu.Unlock()
	if same {
		return
	}
	select {
	case r.changed <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	var ticker *time.Ticker
	var tick <-chan time.Time
	restart := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		interval := r.Interval()
		if interval > 0 {
			ticker = time.NewTicker(interval)
			tick = ticker.C
		}
		r.logger.Debug("reconciler interval set", "interval", interval)
	}
	restart()
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.changed:
			restart()
		case <-tick:
			r.reconcile(ctx)
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context) {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	if err := r.windows.Refresh(ctx); err != nil {
		r.logger.Warn("periodic window reconciliation failed", "error", err)
	}
}

// ReconcileNow runs one pass on the caller's goroutine.
func (r *Reconciler) ReconcileNow(ctx context.Context) {
	r.reconcile(ctx)
}

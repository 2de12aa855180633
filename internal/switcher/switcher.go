// Package switcher moves a display to a target desktop by synthesizing the
// window manager's desktop shortcuts.
package switcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/deskctx/internal/platform"
	"github.com/1broseidon/deskctx/internal/spaces"
)

// StepDelay separates consecutive step shortcuts so the window manager
// finishes each transition before the next one arrives.
const StepDelay = 300 * time.Millisecond

// Strategy selects how a switch is actuated.
type Strategy string

const (
	// StrategyStep presses move-left/move-right once per desktop of distance.
	StrategyStep Strategy = "step"
	// StrategyDirect presses one numbered shortcut. Only ordinals 1-9 have
	// one; other targets fall back to stepping.
	StrategyDirect Strategy = "direct"
)

// ParseStrategy maps a config value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyStep:
		return StrategyStep, nil
	case StrategyDirect:
		return StrategyDirect, nil
	default:
		return "", fmt.Errorf("unknown switch strategy %q (want step or direct)", s)
	}
}

// Switcher computes the distance between the current and target desktop on
// a display and actuates it.
type Switcher struct {
	registry *spaces.Registry
	input    platform.InputActuator
	logger   *slog.Logger
	delay    time.Duration

	mu       sync.Mutex
	strategy Strategy
}

// New creates a Switcher using the step strategy.
func New(registry *spaces.Registry, input platform.InputActuator, logger *slog.Logger) *Switcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Switcher{
		registry: registry,
		input:    input,
		logger:   logger,
		delay:    StepDelay,
		strategy: StrategyStep,
	}
}

// SetStrategy changes the actuation strategy.
func (s *Switcher) SetStrategy(strategy Strategy) {
	s.mu.Lock()
	s.strategy = strategy
	s.mu.Unlock()
}

// Strategy returns the active actuation strategy.
func (s *Switcher) Strategy() Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy
}

// Switch moves display to the target space. It returns false without
// actuating when the target is not on that display or is already current,
// and false when actuation fails or ctx ends mid-way.
func (s *Switcher) Switch(ctx context.Context, display int, target uint64) bool {
	current, _ := s.registry.ActiveSpace(display)
	onDisplay := s.registry.OnDisplay(display)

	curPos, tgtPos := -1, -1
	for i, sp := range onDisplay {
		if sp.ID == current {
			curPos = i
		}
		if sp.ID == target {
			tgtPos = i
		}
	}
	if curPos < 0 || tgtPos < 0 || curPos == tgtPos {
		s.logger.Debug("switch is a no-op",
			"display", display,
			"current", current,
			"target", target,
			"on_display", curPos >= 0 && tgtPos >= 0)
		return false
	}

	if s.Strategy() == StrategyDirect {
		ordinal := onDisplay[tgtPos].Ordinal
		if ordinal >= 1 && ordinal <= 9 {
			if err := s.input.JumpToDesktop(ordinal); err != nil {
				s.logger.Warn("direct desktop jump failed", "ordinal", ordinal, "error", err)
				return false
			}
			s.logger.Debug("jumped to desktop", "display", display, "ordinal", ordinal)
			return true
		}
		s.logger.Debug("ordinal has no numbered shortcut, stepping instead", "ordinal", ordinal)
	}

	return s.step(ctx, tgtPos-curPos)
}

func (s *Switcher) step(ctx context.Context, steps int) bool {
	dir := platform.DirectionRight
	if steps < 0 {
		dir = platform.DirectionLeft
		steps = -steps
	}

	for i := 0; i < steps; i++ {
		if i > 0 {
			timer := time.NewTimer(s.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				s.logger.Info("desktop switch cancelled", "completed_steps", i, "steps", steps)
				return false
			case <-timer.C:
			}
		}
		if err := s.input.StepDesktop(dir); err != nil {
			s.logger.Warn("desktop step failed", "direction", dir, "step", i+1, "error", err)
			return false
		}
	}

	s.logger.Debug("stepped desktops", "direction", dir, "steps", steps)
	return true
}

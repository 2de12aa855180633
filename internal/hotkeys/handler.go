package hotkeys

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/deskctx/internal/config"
)

// Actions are the callbacks global shortcuts trigger. Nil actions are not
// bound.
type Actions struct {
	ToggleWindows func()
	NewSession    func()
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	logger *slog.Logger

	mu    sync.Mutex
	bound []string
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler. Backends without an X11
// connection produce a Handler whose registrations fail.
func NewHandler(backend any, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	var xu *xgbutil.XUtil
	var root xproto.Window
	if accessor, ok := backend.(x11Accessor); ok {
		xu = accessor.XUtil()
		root = accessor.RootWindow()
	}

	if xu != nil {
		ignoreModsOnce.Do(func() {
			configureIgnoreMods(xu)
		})
	}

	return &Handler{xu: xu, root: root, logger: logger}
}

// Available reports whether shortcuts can be grabbed.
func (h *Handler) Available() bool {
	return h.xu != nil
}

type binding struct {
	name     string
	sequence string
	action   func()
}

// bindings pairs configured sequences with their actions, skipping empty
// sequences and nil actions.
func bindings(cfg config.HotkeyConfig, actions Actions) []binding {
	all := []binding{
		{name: "toggle_windows", sequence: cfg.ToggleWindows, action: actions.ToggleWindows},
		{name: "new_session", sequence: cfg.NewSession, action: actions.NewSession},
	}
	out := all[:0]
	for _, b := range all {
		if b.sequence == "" || b.action == nil {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Bind replaces every shortcut registered by a previous Bind with the ones
// in cfg. A shortcut that cannot be grabbed is logged and skipped; the
// returned error reports the first such failure.
func (h *Handler) Bind(cfg config.HotkeyConfig, actions Actions) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.Available() {
		return fmt.Errorf("global shortcuts need an X11 connection")
	}

	if len(h.bound) > 0 {
		keybind.Detach(h.xu, h.root)
		h.bound = nil
	}

	var firstErr error
	for _, b := range bindings(cfg, actions) {
		if err := h.registerFunc(b.sequence, b.action); err != nil {
			h.logger.Warn("failed to register hotkey", "name", b.name, "keys", b.sequence, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("hotkeys.%s: %w", b.name, err)
			}
			continue
		}
		h.bound = append(h.bound, b.sequence)
		h.logger.Info("hotkey registered", "name", b.name, "keys", b.sequence)
	}
	return firstErr
}

// Bound returns the sequences currently grabbed.
func (h *Handler) Bound() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.bound...)
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	if !h.Available() {
		return fmt.Errorf("global shortcuts need an X11 connection")
	}
	return h.registerFunc(keySequence, callback)
}

func (h *Handler) registerFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}

package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// desktopAtoms are the root-window properties whose change means the
// visible desktop set may have moved.
var desktopAtoms = map[string]bool{
	"_NET_CURRENT_DESKTOP":    true,
	"_NET_VISIBLE_DESKTOPS":   true,
	"_NET_NUMBER_OF_DESKTOPS": true,
}

// WatchDesktops invokes fn whenever one of the EWMH desktop properties on the
// root window changes. fn runs on the event loop goroutine.
func (c *Connection) WatchDesktops(fn func()) error {
	if err := xwindow.New(c.XUtil, c.Root).Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("listen for root property changes: %w", err)
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil || !desktopAtoms[name] {
			return
		}
		fn()
	}).Connect(c.XUtil, c.Root)
	return nil
}

// WatchScreens invokes fn for RandR screen, CRTC and output notifications.
// A single reconfiguration produces a burst of these; callers debounce.
// fn runs on the event loop goroutine.
func (c *Connection) WatchScreens(fn func()) error {
	if !c.randrOK {
		return fmt.Errorf("randr extension unavailable")
	}

	mask := uint16(randr.NotifyMaskScreenChange | randr.NotifyMaskCrtcChange | randr.NotifyMaskOutputChange)
	if err := randr.SelectInputChecked(c.XUtil.Conn(), c.Root, mask).Check(); err != nil {
		return fmt.Errorf("select randr input: %w", err)
	}

	xevent.HookFun(func(xu *xgbutil.XUtil, event interface{}) bool {
		switch event.(type) {
		case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
			fn()
		}
		return true
	}).Connect(c.XUtil)
	return nil
}

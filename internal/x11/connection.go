package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	randrOK bool
	xtestOK bool

	winMu   sync.Mutex
	windows map[string]*xwindow.Window
}

// NewConnection establishes a connection to the X11 server and initializes
// the RandR and XTEST extensions. Missing extensions are recorded rather than
// treated as fatal; the corresponding queries degrade to empty answers.
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}

	// Required for keysym -> keycode lookups when synthesizing key combos.
	keybind.Initialize(xu)

	c := &Connection{
		XUtil:   xu,
		Root:    xu.RootWin(),
		windows: make(map[string]*xwindow.Window),
	}
	c.randrOK = randr.Init(xu.Conn()) == nil
	c.xtestOK = xtest.Init(xu.Conn()) == nil
	return c, nil
}

// HasRandR reports whether the RandR extension is available.
func (c *Connection) HasRandR() bool { return c.randrOK }

// HasXTest reports whether the XTEST extension is available.
func (c *Connection) HasXTest() bool { return c.xtestOK }

// RetryXTest re-runs XTEST initialization, for servers where the extension
// was enabled after connect. Reports the resulting availability.
func (c *Connection) RetryXTest() bool {
	if !c.xtestOK {
		c.xtestOK = xtest.Init(c.XUtil.Conn()) == nil
	}
	return c.xtestOK
}

// EventLoop starts the main X11 event loop (blocking)
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Quit stops a running EventLoop.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}

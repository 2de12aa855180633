package x11

import (
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil/keybind"
)

// keyGap is the pause between synthesized press and release events. Window
// managers that grab on KeyPress sometimes miss a combo sent in one burst.
const keyGap = 10 * time.Millisecond

// modifier masks paired with the keysym pressed to produce them.
var modifierKeys = []struct {
	mask   uint16
	keysym string
}{
	{xproto.ModMaskControl, "Control_L"},
	{xproto.ModMaskShift, "Shift_L"},
	{xproto.ModMask1, "Alt_L"},
	{xproto.ModMask4, "Super_L"},
}

// SendKeyCombo synthesizes a key combo such as "Control-Mod1-Right" through
// XTEST: modifiers go down in order, the key is tapped, then modifiers are
// released in reverse order.
func (c *Connection) SendKeyCombo(combo string) error {
	if !c.xtestOK {
		return fmt.Errorf("xtest extension unavailable")
	}

	mods, keycodes, err := keybind.ParseString(c.XUtil, combo)
	if err != nil {
		return fmt.Errorf("parse key combo %q: %w", combo, err)
	}

	var held []xproto.Keycode
	for _, m := range modifierKeys {
		if mods&m.mask == 0 {
			continue
		}
		codes := keybind.StrToKeycodes(c.XUtil, m.keysym)
		if len(codes) == 0 {
			return fmt.Errorf("no keycode for modifier %s", m.keysym)
		}
		held = append(held, codes[0])
	}

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			_ = c.fakeKey(xproto.KeyRelease, held[i])
		}
	}

	for _, kc := range held {
		if err := c.fakeKey(xproto.KeyPress, kc); err != nil {
			release()
			return err
		}
	}
	time.Sleep(keyGap)

	if err := c.fakeKey(xproto.KeyPress, keycodes[0]); err != nil {
		release()
		return err
	}
	time.Sleep(keyGap)
	if err := c.fakeKey(xproto.KeyRelease, keycodes[0]); err != nil {
		release()
		return err
	}

	release()
	c.XUtil.Sync()
	return nil
}

func (c *Connection) fakeKey(eventType byte, kc xproto.Keycode) error {
	err := xtest.FakeInputChecked(c.XUtil.Conn(), eventType, byte(kc), 0, c.Root, 0, 0, 0).Check()
	if err != nil {
		return fmt.Errorf("fake input (type %d, keycode %d): %w", eventType, kc, err)
	}
	return nil
}

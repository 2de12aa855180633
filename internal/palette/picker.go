package palette

import (
	"fmt"

	"github.com/1broseidon/deskctx/internal/commands"
	"github.com/1broseidon/deskctx/internal/spaces"
)

// Daemon is what the picker needs from the IPC client.
type Daemon interface {
	ListDesktopsGrouped() ([]commands.DisplayGroup, error)
	CurrentDesktops() ([]spaces.DesktopInfo, error)
	SwitchDesktop(display int, target uint64) (bool, error)
}

// Items builds the menu rows: a heading per display when there is more than
// one, then its desktops in canonical order.
func Items(groups []commands.DisplayGroup, current []spaces.DesktopInfo) []Item {
	showing := make(map[uint64]bool, len(current))
	for _, info := range current {
		if info.SpaceID != 0 {
			showing[info.SpaceID] = true
		}
	}

	var items []Item
	for _, g := range groups {
		if len(groups) > 1 {
			items = append(items, Item{Label: fmt.Sprintf("Display %d", g.DisplayIndex), Display: g.DisplayIndex, IsHeader: true})
		}
		for _, d := range g.Desktops {
			label := fmt.Sprintf("%d  %s", d.Position+1, d.Name)
			if d.Title != "" {
				label += "  " + d.Title
			}
			if d.TodoCount > 0 {
				label += fmt.Sprintf("  (%d)", d.TodoCount)
			}
			items = append(items, Item{
				Label:    label,
				Display:  g.DisplayIndex,
				SpaceID:  d.SpaceID,
				IsActive: showing[d.SpaceID],
			})
		}
	}
	return items
}

// Pick shows the desktop menu and switches to the chosen desktop. It returns
// the chosen item and whether the switch happened.
func Pick(backend Backend, daemon Daemon) (Item, bool, error) {
	groups, err := daemon.ListDesktopsGrouped()
	if err != nil {
		return Item{}, false, err
	}
	current, err := daemon.CurrentDesktops()
	if err != nil {
		return Item{}, false, err
	}

	items := Items(groups, current)
	if len(items) == 0 {
		return Item{}, false, fmt.Errorf("no desktops to pick from")
	}

	choice, err := backend.Show("desktop", items)
	if err != nil {
		return Item{}, false, err
	}
	ok, err := daemon.SwitchDesktop(choice.Display, choice.SpaceID)
	return choice, ok, err
}

// Package spaces turns the platform's raw per-display space lists into the
// canonical ordering used for naming, default colors and legacy migration.
package spaces

import (
	"fmt"

	"github.com/1broseidon/deskctx/internal/platform"
)

// Palette holds the default desktop colors, indexed by canonical position.
var Palette = []string{
	"#F5E6A3", // yellow
	"#F2B8A0", // coral
	"#A8CCE0", // blue
	"#A8D8B0", // green
	"#C8A8D8", // purple
	"#F0C8A0", // orange
	"#A0D8D0", // teal
	"#E0B8C8", // pink
}

// Space is one normal desktop in canonical order.
type Space struct {
	ID           uint64 `json:"space_id"`
	DisplayIndex int    `json:"display_index"`
	// Ordinal is the 1-based position among spaces on the same display.
	Ordinal int `json:"local_ordinal"`
}

// DesktopInfo describes the space a display is currently showing.
type DesktopInfo struct {
	SpaceID      uint64 `json:"space_id"`
	Position     int    `json:"position"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	IsFullscreen bool   `json:"is_fullscreen"`
}

// Registry answers space questions by re-querying the platform on every
// call. Nothing is cached: the space set can change between any two calls.
type Registry struct {
	query platform.SpaceQuery
}

// NewRegistry creates a Registry over the given platform query.
func NewRegistry(query platform.SpaceQuery) *Registry {
	return &Registry{query: query}
}

// Enumerate returns every normal space ordered by display index, then by
// the platform's native order within the display.
func (r *Registry) Enumerate() []Space {
	var out []Space
	for displayIndex, md := range r.query.ManagedDisplays() {
		ordinal := 0
		for _, s := range md.Spaces {
			if s.Kind != platform.SpaceNormal {
				continue
			}
			ordinal++
			out = append(out, Space{
				ID:           s.ID,
				DisplayIndex: displayIndex,
				Ordinal:      ordinal,
			})
		}
	}
	return out
}

// ActiveSpace returns the space a display is showing. Out-of-range display
// indexes clamp to 0; an unavailable platform yields (0, SpaceNormal).
func (r *Registry) ActiveSpace(display int) (uint64, platform.SpaceKind) {
	mds := r.query.ManagedDisplays()
	if len(mds) == 0 {
		return 0, platform.SpaceNormal
	}
	if display < 0 || display >= len(mds) {
		display = 0
	}
	cur := mds[display].Current
	return cur.ID, cur.Kind
}

// Position returns the canonical position of a space, or 0 when it is not
// currently enumerable.
func (r *Registry) Position(id uint64) int {
	return positionIn(r.Enumerate(), id)
}

func positionIn(spaces []Space, id uint64) int {
	for i, s := range spaces {
		if s.ID == id {
			return i
		}
	}
	return 0
}

// OnDisplay returns the spaces hosted by one display, in canonical order.
func (r *Registry) OnDisplay(display int) []Space {
	var out []Space
	for _, s := range r.Enumerate() {
		if s.DisplayIndex == display {
			out = append(out, s)
		}
	}
	return out
}

// DisplayCount returns the highest display index hosting a space plus one,
// and never less than 1.
func (r *Registry) DisplayCount() int {
	return displayCount(r.Enumerate())
}

func displayCount(spaces []Space) int {
	n := 1
	for _, s := range spaces {
		if s.DisplayIndex+1 > n {
			n = s.DisplayIndex + 1
		}
	}
	return n
}

// DefaultColor returns the palette color for a canonical position.
func DefaultColor(position int) string {
	if position < 0 {
		position = 0
	}
	return Palette[position%len(Palette)]
}

// Name returns the display name for a canonical position.
func Name(position int) string {
	return fmt.Sprintf("Desktop %d", position+1)
}

// ColorLookup returns the custom color assigned to a space, if any.
type ColorLookup func(id uint64) (string, bool)

// Describe builds the DesktopInfo for the space active on a display.
func (r *Registry) Describe(display int, custom ColorLookup) DesktopInfo {
	return r.describe(r.Enumerate(), display, custom)
}

// DescribeAll builds one DesktopInfo per display.
func (r *Registry) DescribeAll(custom ColorLookup) []DesktopInfo {
	all := r.Enumerate()
	n := displayCount(all)
	infos := make([]DesktopInfo, 0, n)
	for display := 0; display < n; display++ {
		infos = append(infos, r.describe(all, display, custom))
	}
	return infos
}

func (r *Registry) describe(all []Space, display int, custom ColorLookup) DesktopInfo {
	id, kind := r.ActiveSpace(display)
	position := positionIn(all, id)

	color := DefaultColor(position)
	if custom != nil {
		if c, ok := custom(id); ok {
			color = c
		}
	}

	return DesktopInfo{
		SpaceID:      id,
		Position:     position,
		Name:         Name(position),
		Color:        color,
		IsFullscreen: kind == platform.SpaceFullscreen,
	}
}

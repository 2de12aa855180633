package hotkeys

import (
	"testing"

	"github.com/1broseidon/deskctx/internal/config"
)

func TestBindings(t *testing.T) {
	noop := func() {}

	tests := []struct {
		name    string
		cfg     config.HotkeyConfig
		actions Actions
		want    []string
	}{
		{
			name:    "both bound",
			cfg:     config.HotkeyConfig{ToggleWindows: "Mod4-n", NewSession: "Mod4-Shift-n"},
			actions: Actions{ToggleWindows: noop, NewSession: noop},
			want:    []string{"toggle_windows", "new_session"},
		},
		{
			name:    "empty sequence skipped",
			cfg:     config.HotkeyConfig{ToggleWindows: "Mod4-n"},
			actions: Actions{ToggleWindows: noop, NewSession: noop},
			want:    []string{"toggle_windows"},
		},
		{
			name:    "nil action skipped",
			cfg:     config.HotkeyConfig{ToggleWindows: "Mod4-n", NewSession: "Mod4-Shift-n"},
			actions: Actions{NewSession: noop},
			want:    []string{"new_session"},
		},
		{
			name: "nothing configured",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bindings(tt.cfg, tt.actions)
			if len(got) != len(tt.want) {
				t.Fatalf("bindings() = %d entries, want %d", len(got), len(tt.want))
			}
			for i, b := range got {
				if b.name != tt.want[i] {
					t.Fatalf("bindings()[%d] = %q, want %q", i, b.name, tt.want[i])
				}
			}
		})
	}
}

func TestHandlerWithoutX11(t *testing.T) {
	h := NewHandler(struct{}{}, nil)
	if h.Available() {
		t.Fatal("Available() = true without an X11 backend")
	}
	if err := h.Bind(config.DefaultConfig().Hotkeys, Actions{ToggleWindows: func() {}}); err == nil {
		t.Fatal("Bind() without X11 should fail")
	}
	if err := h.RegisterFunc("Mod4-n", func() {}); err == nil {
		t.Fatal("RegisterFunc() without X11 should fail")
	}
	if len(h.Bound()) != 0 {
		t.Fatalf("Bound() = %v, want empty", h.Bound())
	}
}

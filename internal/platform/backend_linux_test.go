package platform

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/1broseidon/deskctx/internal/x11"
)

func TestWarnOnPropertyError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	propErr := &x11.PropertyError{Label: "main", Err: errors.New("_NET_WM_STATE: BadAtom")}
	if err := warnOnPropertyError(logger, fmt.Errorf("create: %w", propErr)); err != nil {
		t.Fatalf("warnOnPropertyError(property error) = %v, want nil", err)
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "label=main") || !strings.Contains(out, "BadAtom") {
		t.Fatalf("log output = %q", out)
	}

	buf.Reset()
	fatal := errors.New("create window \"main\": BadAlloc")
	if err := warnOnPropertyError(logger, fatal); err != fatal {
		t.Fatalf("warnOnPropertyError(other) = %v, want it returned unchanged", err)
	}
	if err := warnOnPropertyError(logger, nil); err != nil {
		t.Fatalf("warnOnPropertyError(nil) = %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("unexpected log output: %q", buf.String())
	}
}

package windows

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"testing"

	"github.com/1broseidon/deskctx/internal/platform"
	"github.com/1broseidon/deskctx/internal/platform/platformtest"
)

type recorder struct {
	mu     sync.Mutex
	counts []int
}

func (r *recorder) Publish(name string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := payload.(int); ok {
		r.counts = append(r.counts, n)
	}
}

func newSync(f *platformtest.Fake, rec *recorder) *Synchronizer {
	return NewSynchronizer(f, f, Options{
		Publisher: rec,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

// expectedWith returns the labels for n monitors plus main, which
// outlives its display.
func expectedWith(n int) []string {
	labels := ExpectedLabels(n)
	if n == 0 {
		labels = append(labels, platform.MainLabel)
	}
	sort.Strings(labels)
	return labels
}

func TestAnchor(t *testing.T) {
	tests := []struct {
		name  string
		d     platform.Display
		wantX int
		wantY int
	}{
		{
			"scale 1",
			platform.Display{Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, ScaleFactor: 1},
			1920 - 290 - 16, 32,
		},
		{
			"scale 2 offset",
			platform.Display{Bounds: platform.Rect{X: 2880, Y: 200, Width: 2880, Height: 1800}, ScaleFactor: 2},
			1440 + 1440 - 290 - 16, 100 + 32,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := DefaultGeometry.Anchor(tt.d)
			if x != tt.wantX || y != tt.wantY {
				t.Fatalf("Anchor() = %d,%d want %d,%d", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestReconcile_CreatesPerMonitor(t *testing.T) {
	f := platformtest.New()
	rec := &recorder{}
	s := newSync(f, rec)

	s.Reconcile(context.Background(), platformtest.Monitors(3))

	if got, want := f.Windows(), []string{"main", "monitor-1", "monitor-2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Windows() = %v, want %v", got, want)
	}
	w, _ := f.Window("monitor-2")
	if w.Spec.X != 2*1920+1920-290-16 || w.Spec.Y != 32 || w.Spec.Width != 290 || w.Spec.Height != 220 {
		t.Fatalf("monitor-2 spec = %+v", w.Spec)
	}
	if !w.Visible || s.State("monitor-2") != Visible {
		t.Fatalf("monitor-2 visible=%v state=%v", w.Visible, s.State("monitor-2"))
	}
	if !reflect.DeepEqual(rec.counts, []int{3}) {
		t.Fatalf("monitors-changed payloads = %v, want [3]", rec.counts)
	}
}

func TestReconcile_ClosesRemovedButKeepsMain(t *testing.T) {
	f := platformtest.New()
	s := newSync(f, &recorder{})
	ctx := context.Background()

	s.Reconcile(ctx, platformtest.Monitors(3))
	s.Reconcile(ctx, platformtest.Monitors(1))
	if got := f.Windows(); !reflect.DeepEqual(got, []string{"main"}) {
		t.Fatalf("Windows() = %v, want [main]", got)
	}
	if s.State("monitor-2") != Closed {
		t.Fatalf("monitor-2 state = %v, want closed", s.State("monitor-2"))
	}

	s.Reconcile(ctx, nil)
	if got := f.Windows(); !reflect.DeepEqual(got, []string{"main"}) {
		t.Fatalf("main must survive with no monitors, got %v", got)
	}
}

func TestReconcile_RepositionsMain(t *testing.T) {
	f := platformtest.New()
	s := newSync(f, &recorder{})
	ctx := context.Background()

	s.Reconcile(ctx, platformtest.Monitors(2))

	moved := platformtest.Monitors(1)
	moved[0].Bounds = platform.Rect{X: 1920, Y: 0, Width: 2560, Height: 1440}
	s.Reconcile(ctx, moved)

	w, _ := f.Window("main")
	if w.Spec.X != 1920+2560-290-16 || w.Spec.Y != 32 {
		t.Fatalf("main at %d,%d after display 0 changed", w.Spec.X, w.Spec.Y)
	}
}

func TestReconcile_Convergence(t *testing.T) {
	snapshots := [][]int{{1}, {3}, {2}, {0}, {4}, {1}, {2, 2}}
	f := platformtest.New()
	s := newSync(f, &recorder{})
	ctx := context.Background()

	for _, snap := range snapshots {
		for _, n := range snap {
			s.Reconcile(ctx, platformtest.Monitors(n))
			if got, want := f.Windows(), expectedWith(n); !reflect.DeepEqual(got, want) {
				t.Fatalf("after %d monitors: Windows() = %v, want %v", n, got, want)
			}
		}
	}
}

func TestReconcile_CreateFailureRetriedNextTime(t *testing.T) {
	f := platformtest.New()
	s := newSync(f, &recorder{})
	ctx := context.Background()

	f.FailCreate(errors.New("no server"))
	s.Reconcile(ctx, platformtest.Monitors(2))
	if n := len(f.Windows()); n != 0 {
		t.Fatalf("Windows() len = %d, want 0", n)
	}

	f.FailCreate(nil)
	s.Reconcile(ctx, platformtest.Monitors(2))
	if n := len(f.Windows()); n != 2 {
		t.Fatalf("Windows() len = %d, want 2", n)
	}
}

func TestRefresh_UsesDisplayQuery(t *testing.T) {
	f := platformtest.New()
	f.SetDisplays(platformtest.Monitors(2), 2)
	rec := &recorder{}
	s := newSync(f, rec)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if got := f.Windows(); len(got) != 2 {
		t.Fatalf("Windows() = %v", got)
	}
	if f.DisplayCalls() != 1 {
		t.Fatalf("DisplayCalls() = %d, want 1", f.DisplayCalls())
	}
}

func TestShowHide(t *testing.T) {
	f := platformtest.New()
	s := newSync(f, &recorder{})
	s.Reconcile(context.Background(), platformtest.Monitors(2))

	if err := s.HideAll(); err != nil {
		t.Fatalf("HideAll() error: %v", err)
	}
	for _, label := range []string{"main", "monitor-1"} {
		w, _ := f.Window(label)
		if w.Visible || s.State(label) != Hidden {
			t.Fatalf("%s visible=%v state=%v after HideAll", label, w.Visible, s.State(label))
		}
	}

	if err := s.Show("monitor-1"); err != nil {
		t.Fatalf("Show() error: %v", err)
	}
	if w, _ := f.Window("monitor-1"); !w.Visible {
		t.Fatal("monitor-1 should be visible")
	}
	if err := s.Show("monitor-9"); err == nil {
		t.Fatal("Show() of unknown label should fail")
	}
	if s.State("monitor-9") != Absent {
		t.Fatalf("unknown label state = %v", s.State("monitor-9"))
	}
}

package events

import (
	"io"
	"log/slog"
	"testing"
)

func quietBus() *Bus {
	return NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	b := quietBus()
	a, cancelA := b.Subscribe(4)
	defer cancelA()
	c, cancelC := b.Subscribe(4)
	defer cancelC()

	b.Publish(MonitorsChanged, 2)

	for i, ch := range []<-chan Event{a, c} {
		ev := <-ch
		if ev.Name != MonitorsChanged || ev.Payload != 2 {
			t.Fatalf("subscriber %d got %+v", i, ev)
		}
		if ev.At.IsZero() {
			t.Fatalf("subscriber %d: event has no timestamp", i)
		}
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := quietBus()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Publish(DesktopChanged, 1)
	b.Publish(DesktopChanged, 2)

	if ev := <-ch; ev.Payload != 1 {
		t.Fatalf("first event payload = %v, want 1", ev.Payload)
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected buffered event %+v", ev)
	default:
	}
}

func TestCancelClosesAndUnregisters(t *testing.T) {
	b := quietBus()
	ch, cancel := b.Subscribe(1)
	if b.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", b.Subscribers())
	}
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after cancel")
	}
	if b.Subscribers() != 0 {
		t.Fatalf("Subscribers() = %d, want 0", b.Subscribers())
	}
	b.Publish(PersistFailed, "late")
}

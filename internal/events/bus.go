// Package events fans state-change notifications out to subscribers such as
// IPC SUBSCRIBE streams.
package events

import (
	"log/slog"
	"sync"
	"time"
)

// Event names.
const (
	DesktopChanged  = "desktop-changed"
	MonitorsChanged = "monitors-changed"
	PersistFailed   = "persist-failed"
	TodoCompleted   = "todo-completed"
)

// Event is one published notification.
type Event struct {
	Name    string    `json:"event"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// Publisher is the sending side of the bus.
type Publisher interface {
	Publish(name string, payload any)
}

// Bus delivers events to buffered subscriber channels. A subscriber that
// falls behind loses events rather than blocking the publisher.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	logger *slog.Logger
}

var _ Publisher = (*Bus)(nil)

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{subs: make(map[int]chan Event), logger: logger}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// cancel function unregisters it and closes the channel; it is safe to call
// more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish sends an event to every current subscriber without blocking.
func (b *Bus) Publish(name string, payload any) {
	ev := Event{Name: name, Payload: payload, At: time.Now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Debug("dropping event for slow subscriber", "event", name, "subscriber", id)
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

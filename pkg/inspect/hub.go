package inspect

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// EventType identifies an engine event.
type EventType string

const (
	EventTrack    EventType = "track"
	EventTrigger  EventType = "trigger"
	EventRun      EventType = "run"
	EventReadonly EventType = "readonly"
)

// Event is one engine event as sent to subscribers.
type Event struct {
	Type      EventType `json:"type"`
	Time      time.Time `json:"time"`
	Effect    uint64    `json:"effect,omitempty"`
	Name      string    `json:"name,omitempty"`
	Object    uint64    `json:"object,omitempty"`
	Key       string    `json:"key,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Effects   []uint64  `json:"effects,omitempty"`
	Op        string    `json:"op,omitempty"`
	ElapsedMs float64   `json:"elapsedMs,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithTrackEvents enables broadcasting of track events. They are the most
// frequent events and are off by default.
func WithTrackEvents(enabled bool) HubOption {
	return func(h *Hub) {
		h.tracks = enabled
	}
}

// WithClock sets the time source for event timestamps.
func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) {
		h.now = now
	}
}

// Hub is a reactive.Observer that broadcasts engine events as JSON to its
// subscribers.
//
// Observer callbacks run while the Runtime holds its lock, so delivery never
// blocks: a subscriber whose buffer is full misses the event and the drop is
// counted.
type Hub struct {
	mu      sync.RWMutex
	clients map[*subscriber]struct{}
	closed  bool

	tracks  bool
	now     func() time.Time
	dropped atomic.Uint64
}

type subscriber struct {
	ch   chan []byte
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// NewHub creates an event hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients: make(map[*subscriber]struct{}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a subscriber with the given buffer size and returns
// its message channel and a cancel function. The channel is closed by
// cancel or by Close.
func (h *Hub) Subscribe(buffer int) (<-chan []byte, func()) {
	if buffer < 1 {
		buffer = 1
	}
	s := &subscriber{ch: make(chan []byte, buffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		s.close()
		return s.ch, func() {}
	}
	h.clients[s] = struct{}{}
	h.mu.Unlock()

	return s.ch, func() {
		h.mu.Lock()
		delete(h.clients, s)
		h.mu.Unlock()
		s.close()
	}
}

// ClientCount returns the number of subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns the number of messages lost to full subscriber buffers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close disconnects every subscriber. Later subscribers are closed
// immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for s := range h.clients {
		s.close()
		delete(h.clients, s)
	}
}

// Publish sends ev to every subscriber.
func (h *Hub) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = h.now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.clients {
		select {
		case s.ch <- data:
		default:
			h.dropped.Add(1)
		}
	}
}

// Track implements reactive.Observer.
func (h *Hub) Track(e *reactive.Effect, target *reactive.Object, key reactive.TrackedKey) {
	if !h.tracks {
		return
	}
	h.Publish(Event{
		Type:   EventTrack,
		Effect: e.ID(),
		Name:   e.Name(),
		Object: target.ID(),
		Key:    key.String(),
	})
}

// Trigger implements reactive.Observer.
func (h *Hub) Trigger(target *reactive.Object, key reactive.Key, kind reactive.ChangeKind, effects []*reactive.Effect) {
	ids := make([]uint64, len(effects))
	for i, e := range effects {
		ids[i] = e.ID()
	}
	h.Publish(Event{
		Type:    EventTrigger,
		Object:  target.ID(),
		Key:     string(key),
		Kind:    kind.String(),
		Effects: ids,
	})
}

// EffectRun implements reactive.Observer.
func (h *Hub) EffectRun(e *reactive.Effect, elapsed time.Duration, err error) {
	ev := Event{
		Type:      EventRun,
		Effect:    e.ID(),
		Name:      e.Name(),
		ElapsedMs: float64(elapsed) / float64(time.Millisecond),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	h.Publish(ev)
}

// ReadonlyViolation implements reactive.Observer.
func (h *Hub) ReadonlyViolation(target *reactive.Object, key reactive.Key, op string) {
	h.Publish(Event{
		Type:   EventReadonly,
		Object: target.ID(),
		Key:    string(key),
		Op:     op,
	})
}

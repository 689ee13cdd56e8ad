// Package events fans bridge activity out to observers such as the ops API.
package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Kind names an event type.
type Kind string

const (
	ConnectionOpened Kind = "connection.opened"
	ConnectionClosed Kind = "connection.closed"

	CommandEnqueued  Kind = "command.enqueued"
	CommandRejected  Kind = "command.rejected"
	CommandCompleted Kind = "command.completed"
	CommandTimeout   Kind = "command.timeout"
	CommandCancelled Kind = "command.cancelled"
	CommandDiscarded Kind = "command.discarded"
	CommandSkipped   Kind = "command.skipped"

	BridgeTick Kind = "bridge.tick"
)

// Event is one published record. Data is the JSON-encoded payload.
type Event struct {
	ID   int64           `json:"id"`
	Type Kind            `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

// Publisher is what producers depend on. A nil *Hub is a valid no-op Publisher.
type Publisher interface {
	Publish(kind Kind, data any)
}

const subscriberBuffer = 128

// Hub is an in-memory pub/sub with a ring buffer for late subscribers.
type Hub struct {
	nextID atomic.Int64

	mu    sync.Mutex
	ring  []Event
	start int
	size  int

	subs      map[int]chan Event
	nextSubID int
}

// NewHub returns a Hub retaining the last capacity events (default 100).
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 100
	}
	return &Hub{
		ring: make([]Event, capacity),
		subs: make(map[int]chan Event),
	}
}

// Publish records an event and offers it to every subscriber.
// Subscribers that are not keeping up miss the event rather than block the bridge.
func (h *Hub) Publish(kind Kind, data any) {
	if h == nil {
		return
	}
	payload := json.RawMessage("{}")
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			payload = b
		}
	}

	h.mu.Lock()
	// IDs are assigned under the lock so ring and subscribers see them in order.
	ev := Event{ID: h.nextID.Add(1), Type: kind, At: time.Now().UTC(), Data: payload}
	h.pushLocked(ev)
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	h.mu.Unlock()
}

// Subscribe returns a live event channel and a cancel func that closes it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			close(ch)
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// SnapshotSince returns buffered events with ID > lastID, oldest first.
func (h *Hub) SnapshotSince(lastID int64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Event, 0, h.size)
	for i := 0; i < h.size; i++ {
		ev := h.ring[(h.start+i)%len(h.ring)]
		if ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

func (h *Hub) pushLocked(ev Event) {
	capacity := len(h.ring)
	if h.size < capacity {
		h.ring[(h.start+h.size)%capacity] = ev
		h.size++
		return
	}
	h.ring[h.start] = ev
	h.start = (h.start + 1) % capacity
}

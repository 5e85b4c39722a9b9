package feed

import (
	"sync"
)

// Topics carried by the hub. Store topics are named after their tables.
const (
	TopicTimeEntries   = "time_entries"
	TopicLeaveRequests = "leave_requests"
	TopicSessions      = "sessions"
)

// Ops seen on the hub.
const (
	OpInsert       = "INSERT"
	OpUpdate       = "UPDATE"
	OpDelete       = "DELETE"
	OpSessionEnded = "SESSION_ENDED"
)

// Event is a change notification. It names what changed, not the new value;
// subscribers re-read the store.
type Event struct {
	Topic  string `json:"collection"`
	Op     string `json:"op"`
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

// AllUsers subscribes to every event of a topic regardless of its user.
const AllUsers = ""

type subscriptionKey struct {
	topic  string
	userID string
}

// Hub fans events out to subscribers keyed by topic and user
type Hub struct {
	mu          sync.RWMutex
	subscribers map[subscriptionKey]map[chan Event]struct{}
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[subscriptionKey]map[chan Event]struct{}),
	}
}

// Subscribe registers a new subscriber for one user's events on a topic, or
// for the whole topic with AllUsers. It returns the event channel and a
// cleanup function. Cleanup closes the channel and may be called more than
// once.
func (h *Hub) Subscribe(topic, userID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := subscriptionKey{topic: topic, userID: userID}
	ch := make(chan Event, 10)

	if h.subscribers[key] == nil {
		h.subscribers[key] = make(map[chan Event]struct{})
	}
	h.subscribers[key][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[key], ch)
			close(ch)
			if len(h.subscribers[key]) == 0 {
				delete(h.subscribers, key)
			}
		})
	}

	return ch, cleanup
}

// Publish sends an event to the subscribers of its user and to the
// topic-wide subscribers. A subscriber whose buffer is full misses the
// event; everything still queued for it matches its own key, and each
// delivered event makes it re-read the store.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.deliver(subscriptionKey{topic: event.Topic, userID: event.UserID}, event)
	if event.UserID != AllUsers {
		h.deliver(subscriptionKey{topic: event.Topic, userID: AllUsers}, event)
	}
}

func (h *Hub) deliver(key subscriptionKey, event Event) {
	for ch := range h.subscribers[key] {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers for a topic
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for key, subs := range h.subscribers {
		if key.topic == topic {
			total += len(subs)
		}
	}
	return total
}

// TotalSubscribers returns the total number of active subscribers across all topics
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}

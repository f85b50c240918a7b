// Package events carries entry change notifications between views. A typed
// hub replaces the ambient string-keyed event bus of the original client:
// controllers publish after every confirmed write, and each subscriber (the
// SSE stream of one signed-in browser tab) receives events scoped to its
// owner id. Events carry the entry id plus only the fields that changed, and
// merging the same event twice is safe (last value wins per field).
package events

import "sync"

// Type identifies what happened to an entry.
type Type string

const (
	EntryCreated  Type = "created"
	EntryUpdated  Type = "updated"
	EntryDeleted  Type = "deleted"
	EntryRestored Type = "restored"
	EntryPurged   Type = "purged"
)

// EntryEvent is one change notification for one entry.
type EntryEvent struct {
	Type    Type           `json:"type"`
	EntryID string         `json:"entry_id"`
	UserID  uint           `json:"-"`
	Fields  map[string]any `json:"fields,omitempty"`
}

const subscriberBuffer = 16

// Hub fan-outs entry events to per-user subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[uint]map[chan EntryEvent]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint]map[chan EntryEvent]struct{})}
}

// Subscribe registers a listener for one user's entry events. The returned
// cancel func must be called on unmount; it closes the channel.
func (h *Hub) Subscribe(userID uint) (<-chan EntryEvent, func()) {
	ch := make(chan EntryEvent, subscriberBuffer)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan EntryEvent]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[userID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, userID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of its owner. Delivery is
// non-blocking: a subscriber that cannot keep up loses the event rather than
// stalling the writer. Lost events are tolerable because consumers reconcile
// by entry id on the next fetch.
func (h *Hub) Publish(ev EntryEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[ev.UserID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount reports how many listeners a user currently has.
func (h *Hub) SubscriberCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

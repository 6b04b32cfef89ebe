// internal/events/hub.go
//
// Per-session fan-out of game events.
// HTTP handlers publish whatever a session operation returned; every live
// WebSocket watching that session receives it. Slow subscribers lose events
// rather than block the publisher.

package events

import (
	"sync"

	"github.com/robalobadob/wordsearch/internal/game"
)

const subscriberBuffer = 32

// Subscriber receives events for one session on C.
type Subscriber struct {
	C         <-chan game.Event
	ch        chan game.Event
	sessionID string
}

// Hub manages subscribers grouped by session.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscriber]struct{})}
}

// Register adds a subscriber for sessionID.
func (h *Hub) Register(sessionID string) *Subscriber {
	ch := make(chan game.Event, subscriberBuffer)
	s := &Subscriber{C: ch, ch: ch, sessionID: sessionID}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unregister removes s and closes its channel. Safe to call twice.
func (h *Hub) Unregister(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
}

// Publish delivers evs, in order, to every subscriber of sessionID.
// It returns how many deliveries were dropped on full buffers.
func (h *Hub) Publish(sessionID string, evs ...game.Event) (dropped int) {
	if len(evs) == 0 {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if s.sessionID != sessionID {
			continue
		}
		for _, ev := range evs {
			select {
			case s.ch <- ev:
			default:
				dropped++
			}
		}
	}
	return dropped
}

// Count returns the number of subscribers for sessionID.
func (h *Hub) Count(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for s := range h.subs {
		if s.sessionID == sessionID {
			n++
		}
	}
	return n
}

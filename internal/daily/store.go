// internal/daily/store.go
//
// Registry of today's sessions per player.
// A player asking for the daily puzzle twice on the same date gets the same
// session back instead of a fresh one. Entries from earlier dates are dropped
// lazily whenever a new date is seen.

package daily

import "sync"

// Registry maps player|date to a session ID. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	date     string
	sessions map[string]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]string)}
}

// Lookup returns the session registered for player on date.
func (r *Registry) Lookup(player, date string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roll(date)
	id, ok := r.sessions[player+"|"+date]
	return id, ok
}

// Remember records sessionID as player's puzzle for date.
func (r *Registry) Remember(player, date, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roll(date)
	r.sessions[player+"|"+date] = sessionID
}

// Forget drops player's entry for date (e.g. when the session vanished).
func (r *Registry) Forget(player, date string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, player+"|"+date)
}

// Len reports how many sessions are registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// roll clears the map when date moves past the current one.
func (r *Registry) roll(date string) {
	if date > r.date {
		if r.date != "" {
			r.sessions = make(map[string]string)
		}
		r.date = date
	}
}

// internal/store/memory.go
//
// In-memory implementation of Store.
//
// Characteristics:
//   - Keeps live *game.Session pointers keyed by ID; callers share them.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Save and Update stamp the session; Sweep drops stale stamps.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"
	"time"

	"github.com/robalobadob/wordsearch/internal/game"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex             // guards sessions and touched
	sessions map[string]*game.Session // keyed by Session.ID()
	touched  map[string]time.Time     // last Save/Update per ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		sessions: make(map[string]*game.Session),
		touched:  make(map[string]time.Time),
	}
}

func (m *memory) Save(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s
	m.touched[s.ID()] = time.Now()
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

// Update runs fn on the live session; the session's own lock orders
// concurrent callers.
func (m *memory) Update(ctx context.Context, id string, fn func(*game.Session) error) error {
	s, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	m.mu.Lock()
	if _, ok := m.sessions[id]; ok {
		m.touched[id] = time.Now()
	}
	m.mu.Unlock()
	return nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, at := range m.touched {
		if at.Before(cutoff) {
			delete(m.sessions, id)
			delete(m.touched, id)
			n++
		}
	}
	return n, nil
}

func (m *memory) Close() error { return nil }

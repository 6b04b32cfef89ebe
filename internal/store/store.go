// internal/store/store.go
//
// Persistence interface for puzzle sessions.
// Two implementations live in this package:
//   - memory: a map of live *game.Session values (default).
//   - sqlite: compressed JSON snapshots, restored on every Get.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/wordsearch/internal/game"
)

// ErrNotFound is returned when no session has the requested ID.
var ErrNotFound = errors.New("store: session not found")

// Store defines the persistence interface for puzzle sessions.
type Store interface {
	// Save persists or updates a session.
	Save(ctx context.Context, s *game.Session) error

	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Update loads the session, runs fn on it and saves the result.
	// Updates of the same session never interleave.
	Update(ctx context.Context, id string, fn func(*game.Session) error) error

	// Sweep removes sessions last saved or updated before cutoff and
	// reports how many went.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases the backing resources.
	Close() error
}

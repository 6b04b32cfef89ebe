// internal/game/types.go
//
// Core type definitions for the word-search game engine.
// Defines:
//   - EventKind / Event: what a gesture or word edit produced.
//   - View: a render-ready snapshot of a session.
//   - State: the serializable form of a session (used by stores).

package game

import (
	"time"

	"github.com/robalobadob/wordsearch/internal/puzzle"
	"github.com/robalobadob/wordsearch/internal/words"
)

// EventKind names an outcome the presentation layer reacts to.
type EventKind string

const (
	EventWordFound      EventKind = "word_found"
	EventNoMatch        EventKind = "no_match"
	EventPuzzleComplete EventKind = "puzzle_complete"
	EventRegenerated    EventKind = "regenerated"
)

// Event is emitted by gesture ends and word list changes.
type Event struct {
	Kind       EventKind      `json:"type"`
	Word       string         `json:"word,omitempty"`
	Marker     string         `json:"marker,omitempty"`
	Cells      []puzzle.Coord `json:"cells,omitempty"`
	Generation uint64         `json:"generation"`
}

// FoundCell is a cell credited to a found word.
type FoundCell struct {
	Cell puzzle.Coord `json:"cell"`
	Word string       `json:"word"`
}

// WordView is one row of the word list as the player sees it.
type WordView struct {
	Word   string `json:"word"`
	Marker string `json:"marker"`
	Found  bool   `json:"found"`
}

// View is everything needed to render a session.
type View struct {
	ID         string         `json:"id"`
	Size       int            `json:"size"`
	Generation uint64         `json:"generation"`
	Rows       []string       `json:"rows"`
	Words      []WordView     `json:"words"`
	Found      int            `json:"found"`
	Total      int            `json:"total"`
	Complete   bool           `json:"complete"`
	FoundCells []FoundCell    `json:"foundCells"`
	Selection  []puzzle.Coord `json:"selection"`
}

// State is a session at rest. It round-trips through Restore.
type State struct {
	ID         string             `json:"id"`
	Seed       uint64             `json:"seed"`
	Size       int                `json:"size"`
	Generation uint64             `json:"generation"`
	Words      []words.Entry      `json:"words"`
	Rows       []string           `json:"rows"`
	Placed     []puzzle.Placement `json:"placed"`
	Unplaced   []string           `json:"unplaced,omitempty"`
	Found      []string           `json:"found"`
	FoundCells []FoundCell        `json:"foundCells"`
	Selecting  bool               `json:"selecting"`
	Selection  []puzzle.Coord     `json:"selection"`
	CreatedAt  time.Time          `json:"createdAt"`
}

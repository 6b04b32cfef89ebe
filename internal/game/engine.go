// internal/game/engine.go
//
// Core game engine for a single word-search session.
// Responsibilities:
//   - Own the grid, word list, found set and in-progress selection.
//   - Track gestures (begin → continue… → end) and evaluate the run on release.
//   - Apply word list additions/edits and regenerate the grid after each one.
//
// Notes:
//   - Every public method takes the session lock; one session behaves like
//     a single-threaded event loop no matter how many requests reach it.
//   - Generation g draws from puzzle.NewRand(seed, g) unless Options.Source
//     overrides it, so a (seed, generation) pair always yields the same grid.
//   - Regeneration clears found words and the selection.
package game

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"lukechampine.com/frand"

	"github.com/robalobadob/wordsearch/internal/puzzle"
	"github.com/robalobadob/wordsearch/internal/words"
)

// DefaultSize is the grid dimension used when Options.Size is zero.
const DefaultSize = 12

// MaxSize bounds the grid dimension a session accepts.
const MaxSize = 64

// SourceFunc returns the random source for one generation of a session.
type SourceFunc func(seed, generation uint64) puzzle.Rand

// Options tune a new or restored session.
type Options struct {
	Size   int        // grid dimension; DefaultSize when 0
	Seed   uint64     // 0 draws a fresh random seed
	Source SourceFunc // puzzle.NewRand when nil
}

// Session is one player's puzzle.
type Session struct {
	mu sync.Mutex

	id        string
	seed      uint64
	size      int
	gen       uint64
	source    SourceFunc
	createdAt time.Time

	list     *words.List
	grid     *puzzle.Grid
	placed   []puzzle.Placement
	unplaced []string
	found    map[string]bool
	owner    map[puzzle.Coord]string
	sel      selection
}

// New creates a session for entries and generates its first grid.
func New(entries []words.Entry, opts Options) (*Session, error) {
	size := opts.Size
	if size == 0 {
		size = DefaultSize
	}
	if size < 0 || size > MaxSize {
		return nil, fmt.Errorf("game: invalid grid size %d", size)
	}
	list, err := words.NewList(size, entries)
	if err != nil {
		return nil, err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = frand.Uint64n(math.MaxUint64) + 1
	}
	s := &Session{
		id:        uuid.NewString(),
		seed:      seed,
		size:      size,
		source:    sourceOr(opts.Source),
		createdAt: time.Now().UTC(),
		list:      list,
	}
	if err := s.regenerate(); err != nil {
		return nil, err
	}
	return s, nil
}

func sourceOr(f SourceFunc) SourceFunc {
	if f != nil {
		return f
	}
	return puzzle.NewRand
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Seed returns the seed the session's grids derive from.
func (s *Session) Seed() uint64 { return s.seed }

// regenerate replaces the grid and clears per-generation state.
// Callers hold s.mu (or own s exclusively).
func (s *Session) regenerate() error {
	s.gen++
	res, err := puzzle.Generate(s.list.Words(), s.size, s.source(s.seed, s.gen))
	if err != nil {
		return fmt.Errorf("generate grid: %w", err)
	}
	s.grid = res.Grid
	s.placed = res.Placed
	s.unplaced = res.Unplaced
	s.found = make(map[string]bool)
	s.owner = make(map[puzzle.Coord]string)
	s.sel.reset()
	return nil
}

func (s *Session) regenerated() []Event {
	return []Event{{Kind: EventRegenerated, Generation: s.gen}}
}

// ----------------------------- gestures ------------------------------------

// Begin starts a gesture at c, discarding any stale run first.
// Found or off-grid cells start nothing.
func (s *Session) Begin(c puzzle.Coord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begin(c)
}

// Continue extends the gesture in progress with c.
func (s *Session) Continue(c puzzle.Coord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extend(c)
}

// Cancel drops the gesture in progress without evaluating it.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.reset()
}

// End finishes the gesture and evaluates its run.
// Without a gesture in progress it returns no events.
func (s *Session) End() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.end()
}

// Select plays a whole run as one gesture: Begin on the first cell,
// Continue on the rest, then End.
func (s *Session) Select(cells []puzzle.Coord) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.reset()
	for i, c := range cells {
		if i == 0 {
			s.begin(c)
			continue
		}
		s.extend(c)
	}
	return s.end()
}

func (s *Session) begin(c puzzle.Coord) {
	s.sel.reset()
	if s.selectable(c) {
		s.sel.start(c)
	}
}

func (s *Session) extend(c puzzle.Coord) {
	if s.sel.active && s.selectable(c) {
		s.sel.add(c)
	}
}

func (s *Session) selectable(c puzzle.Coord) bool {
	if !s.grid.InBounds(c) {
		return false
	}
	_, taken := s.owner[c]
	return !taken
}

func (s *Session) end() []Event {
	if !s.sel.active {
		return nil
	}
	run := s.sel.cells()
	s.sel.reset()
	return s.evaluate(run)
}

// evaluate matches the run forwards, then backwards, against unfound words.
func (s *Session) evaluate(run []puzzle.Coord) []Event {
	forward := s.grid.Read(run)
	backward := string(lo.Reverse([]byte(forward)))

	word := ""
	switch {
	case s.matchable(forward):
		word = forward
	case s.matchable(backward):
		word = backward
	default:
		return []Event{{Kind: EventNoMatch, Cells: run, Generation: s.gen}}
	}

	s.found[word] = true
	for _, c := range run {
		s.owner[c] = word
	}
	events := []Event{{
		Kind:       EventWordFound,
		Word:       word,
		Marker:     s.list.Marker(word),
		Cells:      run,
		Generation: s.gen,
	}}
	if s.complete() {
		events = append(events, Event{Kind: EventPuzzleComplete, Generation: s.gen})
	}
	return events
}

func (s *Session) matchable(w string) bool {
	return w != "" && s.list.Contains(w) && !s.found[w]
}

func (s *Session) complete() bool {
	return s.list.Len() > 0 && len(s.found) == s.list.Len()
}

// ----------------------------- word list -----------------------------------

// AddWord appends raw to the word list and regenerates the grid.
// Invalid input returns a *words.RejectedError and changes nothing.
func (s *Session) AddWord(raw string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.list.Add(raw); err != nil {
		return nil, err
	}
	if err := s.regenerate(); err != nil {
		return nil, err
	}
	return s.regenerated(), nil
}

// EditWord replaces the word at index and regenerates the grid.
// The entry keeps its marker; found status does not survive the new grid.
func (s *Session) EditWord(index int, raw string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.list.Edit(index, raw); err != nil {
		return nil, err
	}
	if err := s.regenerate(); err != nil {
		return nil, err
	}
	return s.regenerated(), nil
}

// Regenerate deals a new grid for the same words.
func (s *Session) Regenerate() ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.regenerate(); err != nil {
		return nil, err
	}
	return s.regenerated(), nil
}

// ------------------------------ reading ------------------------------------

// View returns a render-ready snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:         s.id,
		Size:       s.size,
		Generation: s.gen,
		Rows:       s.grid.Rows(),
		Found:      len(s.found),
		Total:      s.list.Len(),
		Complete:   s.complete(),
		FoundCells: s.foundCells(),
		Selection:  s.sel.cells(),
	}
	for _, e := range s.list.Entries() {
		v.Words = append(v.Words, WordView{Word: e.Word, Marker: e.Marker, Found: s.found[e.Word]})
	}
	return v
}

// foundCells lists credited cells in row-major order.
func (s *Session) foundCells() []FoundCell {
	out := []FoundCell{}
	for r := 0; r < s.size; r++ {
		for c := 0; c < s.size; c++ {
			cell := puzzle.Coord{Row: r, Col: c}
			if w, ok := s.owner[cell]; ok {
				out = append(out, FoundCell{Cell: cell, Word: w})
			}
		}
	}
	return out
}

// Placements returns where the current generation's words were written.
func (s *Session) Placements() []puzzle.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]puzzle.Placement(nil), s.placed...)
}

// Unplaced returns the words the current generation could not fit.
func (s *Session) Unplaced() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.unplaced...)
}

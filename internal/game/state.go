package game

import (
	"errors"
	"fmt"

	"github.com/robalobadob/wordsearch/internal/puzzle"
	"github.com/robalobadob/wordsearch/internal/words"
)

var errCorruptState = errors.New("game: corrupt state")

// State captures the session for a store.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]string, 0, len(s.found))
	for _, w := range s.list.Words() {
		if s.found[w] {
			found = append(found, w)
		}
	}
	return State{
		ID:         s.id,
		Seed:       s.seed,
		Size:       s.size,
		Generation: s.gen,
		Words:      s.list.Entries(),
		Rows:       s.grid.Rows(),
		Placed:     append([]puzzle.Placement(nil), s.placed...),
		Unplaced:   append([]string(nil), s.unplaced...),
		Found:      found,
		FoundCells: s.foundCells(),
		Selecting:  s.sel.active,
		Selection:  s.sel.cells(),
		CreatedAt:  s.createdAt,
	}
}

// Restore rebuilds a session from st. Only opts.Source is consulted;
// size and seed come from the state.
func Restore(st State, opts Options) (*Session, error) {
	if st.ID == "" || st.Size <= 0 || len(st.Rows) != st.Size {
		return nil, fmt.Errorf("%w: id=%q size=%d rows=%d", errCorruptState, st.ID, st.Size, len(st.Rows))
	}
	grid, ok := puzzle.GridFromRows(st.Rows)
	if !ok {
		return nil, fmt.Errorf("%w: bad grid rows", errCorruptState)
	}
	list, err := words.NewList(st.Size, st.Words)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptState, err)
	}

	s := &Session{
		id:        st.ID,
		seed:      st.Seed,
		size:      st.Size,
		gen:       st.Generation,
		source:    sourceOr(opts.Source),
		createdAt: st.CreatedAt,
		list:      list,
		grid:      grid,
		placed:    append([]puzzle.Placement(nil), st.Placed...),
		unplaced:  append([]string(nil), st.Unplaced...),
		found:     make(map[string]bool, len(st.Found)),
		owner:     make(map[puzzle.Coord]string, len(st.FoundCells)),
	}
	for _, w := range st.Found {
		if !list.Contains(w) {
			return nil, fmt.Errorf("%w: found word %q not in list", errCorruptState, w)
		}
		s.found[w] = true
	}
	for _, fc := range st.FoundCells {
		if !grid.InBounds(fc.Cell) || !s.found[fc.Word] {
			return nil, fmt.Errorf("%w: bad found cell %+v", errCorruptState, fc)
		}
		s.owner[fc.Cell] = fc.Word
	}
	if st.Selecting && len(st.Selection) > 0 {
		s.sel.start(st.Selection[0])
		for _, c := range st.Selection[1:] {
			s.sel.add(c)
		}
	}
	return s, nil
}

package game

import "github.com/robalobadob/wordsearch/internal/puzzle"

// selection is the run of cells visited by the gesture in progress.
type selection struct {
	active bool
	run    []puzzle.Coord
}

func (s *selection) reset() {
	s.active = false
	s.run = nil
}

func (s *selection) start(c puzzle.Coord) {
	s.active = true
	s.run = []puzzle.Coord{c}
}

// add appends c unless it is already part of the run.
func (s *selection) add(c puzzle.Coord) {
	for _, x := range s.run {
		if x == c {
			return
		}
	}
	s.run = append(s.run, c)
}

func (s *selection) cells() []puzzle.Coord {
	return append([]puzzle.Coord(nil), s.run...)
}

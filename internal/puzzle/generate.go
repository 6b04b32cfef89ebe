// internal/puzzle/generate.go
//
// Word placement and filler for a single grid generation.
//
// Algorithm:
//   - For each word, up to MaxAttempts tries: draw a direction, a start row and
//     a start column; accept when every cell of the span is on the grid and is
//     empty or already holds the same letter.
//   - Words that never fit are left out (reported in Result.Unplaced).
//   - Remaining empty cells are filled row-major with random letters.

package puzzle

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog/log"
)

// MaxAttempts is the per-word placement budget.
const MaxAttempts = 100

// Rand is the random source the generator draws from.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// NewRand returns the production source for one generation of a session.
func NewRand(seed, generation uint64) Rand {
	return rand.New(rand.NewPCG(seed, generation))
}

// Result is the outcome of one generation.
type Result struct {
	Grid     *Grid
	Placed   []Placement
	Unplaced []string
}

var errNoFit = errors.New("word does not fit")

// Generate builds a size×size grid holding as many of words as fit.
// Words are expected to be normalized (uppercase A–Z).
func Generate(words []string, size int, rng Rand) (*Result, error) {
	if size <= 0 {
		return nil, fmt.Errorf("puzzle: invalid grid size %d", size)
	}
	res := &Result{Grid: NewGrid(size)}

	for _, w := range words {
		p, ok := place(res.Grid, w, rng)
		if !ok {
			log.Debug().Str("word", w).Int("size", size).Msg("placement budget exhausted")
			res.Unplaced = append(res.Unplaced, w)
			continue
		}
		res.Placed = append(res.Placed, p)
	}

	fill(res.Grid, rng)
	return res, nil
}

// place tries to lay w on g within the attempt budget.
func place(g *Grid, w string, rng Rand) (Placement, bool) {
	var placed Placement
	err := retry.Do(
		func() error {
			p := Placement{Word: w, Dir: Directions[rng.IntN(len(Directions))]}
			p.Start = Coord{Row: rng.IntN(g.Size), Col: rng.IntN(g.Size)}
			if !fits(g, p) {
				return errNoFit
			}
			for i, c := range p.Cells() {
				g.set(c, w[i])
			}
			placed = p
			return nil
		},
		retry.Attempts(MaxAttempts),
		retry.DelayType(func(uint, error, *retry.Config) time.Duration { return 0 }),
		retry.LastErrorOnly(true),
	)
	return placed, err == nil
}

// fits reports whether p can be written without leaving the grid or
// contradicting a letter already there.
func fits(g *Grid, p Placement) bool {
	if p.Word == "" {
		return false
	}
	for i, c := range p.Cells() {
		if !g.InBounds(c) {
			return false
		}
		if l := g.At(c); l != 0 && l != p.Word[i] {
			return false
		}
	}
	return true
}

func fill(g *Grid, rng Rand) {
	for r := 0; r < g.Size; r++ {
		for c := 0; c < g.Size; c++ {
			if g.cells[r][c] == 0 {
				g.cells[r][c] = Alphabet[rng.IntN(len(Alphabet))]
			}
		}
	}
}

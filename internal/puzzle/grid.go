// internal/puzzle/grid.go
//
// Grid primitives for the word-search generator.
// Defines:
//   - Coord: a (row, col) cell address.
//   - Direction: one of the four placement directions.
//   - Grid: an N×N letter matrix (0 marks an empty cell during generation).
//   - Placement: a word laid along a direction from a start cell.

package puzzle

import "strings"

// Alphabet is the filler alphabet; every finished cell holds one of these.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Coord addresses a single cell.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Step returns the cell i steps away from c along d.
func (c Coord) Step(d Direction, i int) Coord {
	return Coord{Row: c.Row + d.DRow*i, Col: c.Col + d.DCol*i}
}

// Direction is a unit step between consecutive letters of a placed word.
type Direction struct {
	Name string `json:"name"`
	DRow int    `json:"dRow"`
	DCol int    `json:"dCol"`
}

// Directions lists the allowed placement directions.
// Index order matters: the generator draws an index into this slice.
var Directions = []Direction{
	{Name: "east", DRow: 0, DCol: 1},
	{Name: "south", DRow: 1, DCol: 0},
	{Name: "southeast", DRow: 1, DCol: 1},
	{Name: "northeast", DRow: -1, DCol: 1},
}

// Grid is a square letter matrix.
type Grid struct {
	Size  int
	cells [][]byte
}

// NewGrid returns an empty size×size grid.
func NewGrid(size int) *Grid {
	cells := make([][]byte, size)
	for i := range cells {
		cells[i] = make([]byte, size)
	}
	return &Grid{Size: size, cells: cells}
}

// GridFromRows rebuilds a grid from its row strings (see Rows).
// It returns false if the rows do not form a square of letters.
func GridFromRows(rows []string) (*Grid, bool) {
	g := NewGrid(len(rows))
	for r, row := range rows {
		if len(row) != len(rows) {
			return nil, false
		}
		for c := 0; c < len(row); c++ {
			if !isLetter(row[c]) {
				return nil, false
			}
			g.cells[r][c] = row[c]
		}
	}
	return g, true
}

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Row < g.Size && c.Col >= 0 && c.Col < g.Size
}

// At returns the letter at c, or 0 when c is empty or off the grid.
func (g *Grid) At(c Coord) byte {
	if !g.InBounds(c) {
		return 0
	}
	return g.cells[c.Row][c.Col]
}

func (g *Grid) set(c Coord, b byte) { g.cells[c.Row][c.Col] = b }

// Rows renders the grid as one string per row.
func (g *Grid) Rows() []string {
	out := make([]string, g.Size)
	for r := range g.cells {
		out[r] = string(g.cells[r])
	}
	return out
}

// Read concatenates the letters at the given cells, in order.
func (g *Grid) Read(cells []Coord) string {
	var b strings.Builder
	b.Grow(len(cells))
	for _, c := range cells {
		if l := g.At(c); l != 0 {
			b.WriteByte(l)
		}
	}
	return b.String()
}

// Placement records where a word was written.
type Placement struct {
	Word  string    `json:"word"`
	Start Coord     `json:"start"`
	Dir   Direction `json:"dir"`
}

// Cells lists the cells covered by the placement, first letter first.
func (p Placement) Cells() []Coord {
	out := make([]Coord, len(p.Word))
	for i := range out {
		out[i] = p.Start.Step(p.Dir, i)
	}
	return out
}

func isLetter(b byte) bool { return b >= 'A' && b <= 'Z' }

package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/robalobadob/wordsearch/internal/game"
	"github.com/robalobadob/wordsearch/internal/puzzle"
	"github.com/robalobadob/wordsearch/internal/words"
)

type styles struct {
	found  lipgloss.Style
	header lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	faint  lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		found:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		header: lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		ok:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		err:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		faint:  lipgloss.NewStyle().Faint(true),
	}
}

// shell runs prompt commands against one session.
type shell struct {
	sess   *game.Session
	out    io.Writer
	copy   func(string) error
	styles styles
}

func newShell(sess *game.Session, out io.Writer, copyFn func(string) error) *shell {
	return &shell{sess: sess, out: out, copy: copyFn, styles: defaultStyles()}
}

type command struct {
	name  string
	usage string
	run   func(sh *shell, args []string) (quit bool, err error)
}

var commands []command

func init() {
	commands = []command{
		{"help", "help                      this list", (*shell).cmdHelp},
		{"show", "show                      draw the grid and word list", (*shell).cmdShow},
		{"select", "select R,C R,C ...        play a run of cells", (*shell).cmdSelect},
		{"line", "line R C DIR N            play N cells from R,C (east|south|southeast|northeast)", (*shell).cmdLine},
		{"add", "add WORD                  add a word and deal a new grid", (*shell).cmdAdd},
		{"edit", "edit INDEX WORD           replace word INDEX (1-based)", (*shell).cmdEdit},
		{"new", "new                       deal a new grid", (*shell).cmdNew},
		{"reveal", "reveal                    list where every word is", (*shell).cmdReveal},
		{"copy", "copy                      put the grid on the clipboard", (*shell).cmdCopy},
		{"quit", "quit                      leave", func(*shell, []string) (bool, error) { return true, nil }},
	}
}

var errUsage = errors.New("usage")

// exec runs one prompt line.
func (sh *shell) exec(line string) (bool, error) {
	args, err := shellquote.Split(line)
	if err != nil {
		return false, fmt.Errorf("parse: %w", err)
	}
	if len(args) == 0 {
		return false, nil
	}
	name := strings.ToLower(args[0])
	if name == "exit" {
		name = "quit"
	}
	cmd, ok := lo.Find(commands, func(c command) bool { return c.name == name })
	if !ok {
		return false, fmt.Errorf("unknown command %q (try help)", args[0])
	}
	quit, err := cmd.run(sh, args[1:])
	if errors.Is(err, errUsage) {
		return quit, fmt.Errorf("usage: %s", strings.Join(strings.Fields(cmd.usage), " "))
	}
	var rej *words.RejectedError
	if errors.As(err, &rej) {
		return quit, errors.New(rej.Message)
	}
	return quit, err
}

func (sh *shell) cmdHelp([]string) (bool, error) {
	for _, c := range commands {
		fmt.Fprintln(sh.out, "  "+c.usage)
	}
	return false, nil
}

func (sh *shell) cmdShow([]string) (bool, error) {
	sh.show()
	return false, nil
}

func (sh *shell) cmdSelect(args []string) (bool, error) {
	if len(args) == 0 {
		return false, errUsage
	}
	cells := make([]puzzle.Coord, 0, len(args))
	for _, a := range args {
		c, err := parseCoord(a)
		if err != nil {
			return false, err
		}
		cells = append(cells, c)
	}
	sh.report(sh.sess.Select(cells))
	return false, nil
}

func (sh *shell) cmdLine(args []string) (bool, error) {
	if len(args) != 4 {
		return false, errUsage
	}
	nums, err := atois(args[0], args[1], args[3])
	if err != nil {
		return false, err
	}
	if n := nums[2]; n < 1 || n > sh.sess.View().Size {
		return false, errUsage
	}
	dir, ok := lo.Find(puzzle.Directions, func(d puzzle.Direction) bool { return d.Name == strings.ToLower(args[2]) })
	if !ok {
		return false, fmt.Errorf("unknown direction %q", args[2])
	}
	start := puzzle.Coord{Row: nums[0], Col: nums[1]}
	cells := lo.Times(nums[2], func(i int) puzzle.Coord { return start.Step(dir, i) })
	sh.report(sh.sess.Select(cells))
	return false, nil
}

func (sh *shell) cmdAdd(args []string) (bool, error) {
	if len(args) != 1 {
		return false, errUsage
	}
	evs, err := sh.sess.AddWord(args[0])
	if err != nil {
		return false, err
	}
	sh.report(evs)
	return false, nil
}

func (sh *shell) cmdEdit(args []string) (bool, error) {
	if len(args) != 2 {
		return false, errUsage
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return false, errUsage
	}
	evs, err := sh.sess.EditWord(i-1, args[1])
	if err != nil {
		return false, err
	}
	sh.report(evs)
	return false, nil
}

func (sh *shell) cmdNew([]string) (bool, error) {
	evs, err := sh.sess.Regenerate()
	if err != nil {
		return false, err
	}
	sh.report(evs)
	return false, nil
}

func (sh *shell) cmdReveal([]string) (bool, error) {
	for _, p := range sh.sess.Placements() {
		fmt.Fprintf(sh.out, "  %-12s %d,%d %s\n", p.Word, p.Start.Row, p.Start.Col, p.Dir.Name)
	}
	for _, w := range sh.sess.Unplaced() {
		fmt.Fprintf(sh.out, "  %-12s %s\n", w, sh.styles.faint.Render("(did not fit)"))
	}
	return false, nil
}

func (sh *shell) cmdCopy([]string) (bool, error) {
	if err := sh.copy(strings.Join(sh.sess.View().Rows, "\n")); err != nil {
		return false, fmt.Errorf("clipboard: %w", err)
	}
	fmt.Fprintln(sh.out, "grid copied")
	return false, nil
}

// report prints events and redraws after anything that changed the board.
func (sh *shell) report(evs []game.Event) {
	redraw := false
	for _, ev := range evs {
		switch ev.Kind {
		case game.EventWordFound:
			fmt.Fprintln(sh.out, sh.styles.ok.Render(fmt.Sprintf("found %s %s", ev.Word, ev.Marker)))
			redraw = true
		case game.EventNoMatch:
			fmt.Fprintln(sh.out, "no match")
		case game.EventPuzzleComplete:
			fmt.Fprintln(sh.out, sh.styles.ok.Render("puzzle complete!"))
		case game.EventRegenerated:
			fmt.Fprintf(sh.out, "new grid (#%d)\n", ev.Generation)
			redraw = true
		}
	}
	if redraw {
		sh.show()
	}
}

// show draws the grid with found cells highlighted, then the word list.
func (sh *shell) show() {
	v := sh.sess.View()
	found := lo.Associate(v.FoundCells, func(fc game.FoundCell) (puzzle.Coord, bool) { return fc.Cell, true })

	var b strings.Builder
	b.WriteString("    ")
	for c := 0; c < v.Size; c++ {
		b.WriteString(sh.styles.header.Render(fmt.Sprintf("%2d", c)))
	}
	b.WriteByte('\n')
	for r, row := range v.Rows {
		b.WriteString(sh.styles.header.Render(fmt.Sprintf("%2d  ", r)))
		for c := range row {
			letter := " " + string(row[c])
			if found[puzzle.Coord{Row: r, Col: c}] {
				letter = sh.styles.found.Render(letter)
			}
			b.WriteString(letter)
		}
		b.WriteByte('\n')
	}
	fmt.Fprint(sh.out, b.String())

	for i, w := range v.Words {
		line := fmt.Sprintf("%2d. %s %s", i+1, w.Marker, w.Word)
		if w.Found {
			line = sh.styles.found.Render(line + " ✓")
		}
		fmt.Fprintln(sh.out, line)
	}
	fmt.Fprintf(sh.out, "%d/%d found\n", v.Found, v.Total)
}

func parseCoord(s string) (puzzle.Coord, error) {
	r, c, ok := strings.Cut(s, ",")
	if !ok {
		return puzzle.Coord{}, fmt.Errorf("bad cell %q (want ROW,COL)", s)
	}
	nums, err := atois(r, c)
	if err != nil {
		return puzzle.Coord{}, fmt.Errorf("bad cell %q (want ROW,COL)", s)
	}
	return puzzle.Coord{Row: nums[0], Col: nums[1]}, nil
}

func atois(ss ...string) ([]int, error) {
	out := make([]int, len(ss))
	for i, s := range ss {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", s)
		}
		out[i] = n
	}
	return out, nil
}

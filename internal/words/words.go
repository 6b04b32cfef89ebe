// internal/words/words.go
//
// Word list management for a word-search session.
//
// Responsibilities:
//   - Normalize raw user input (trim, strip diacritics, uppercase).
//   - Validate additions and edits against the list and the grid size.
//   - Keep each word's display marker alongside it.
//
// Constraints:
//   • Words are unique, non-empty, letters A–Z only, at most Max letters.
//   • Rejections never change the list.

package words

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMarker is shown next to words added without one.
const DefaultMarker = "🦓"

// Entry is one target word and its display marker.
type Entry struct {
	Word   string `json:"word" yaml:"word"`
	Marker string `json:"marker" yaml:"marker"`
}

var (
	ErrEmpty      = errors.New("empty word")
	ErrDuplicate  = errors.New("duplicate word")
	ErrTooLong    = errors.New("word too long")
	ErrNotLetters = errors.New("word has non-letters")
	ErrIndex      = errors.New("index out of range")
)

// RejectedError is returned for invalid additions and edits.
// Message is safe to show to the player.
type RejectedError struct {
	Word    string
	Message string
	Err     error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("words: rejected %q: %s", e.Word, e.Message)
}

func (e *RejectedError) Unwrap() error { return e.Err }

func reject(word string, err error, max int) *RejectedError {
	msg := map[error]string{
		ErrEmpty:      "the word must not be empty",
		ErrDuplicate:  "this word is already in the list",
		ErrTooLong:    fmt.Sprintf("the word must have %d letters or fewer", max),
		ErrNotLetters: "the word may only contain the letters A-Z",
		ErrIndex:      "there is no word at that position",
	}[err]
	return &RejectedError{Word: word, Message: msg, Err: err}
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize trims, folds accents (LEÓN → LEON) and uppercases raw input.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	return cases.Upper(language.Und).String(s)
}

func isLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// List is an ordered set of entries bounded by the grid dimension.
type List struct {
	max     int
	entries []Entry
}

// NewList builds a list for a grid of dimension max from seed entries.
// Seed words are normalized and validated like additions; missing markers
// default to DefaultMarker.
func NewList(max int, seed []Entry) (*List, error) {
	l := &List{max: max}
	for _, e := range seed {
		if _, err := l.add(e.Word, e.Marker); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Max is the longest word the list accepts.
func (l *List) Max() int { return l.max }

// Len reports the number of words.
func (l *List) Len() int { return len(l.entries) }

// Entries returns a copy of the entries in order.
func (l *List) Entries() []Entry { return append([]Entry(nil), l.entries...) }

// Words returns the words in order.
func (l *List) Words() []string {
	return lo.Map(l.entries, func(e Entry, _ int) string { return e.Word })
}

// Contains reports whether word (already normalized) is in the list.
func (l *List) Contains(word string) bool {
	return l.indexOf(word) >= 0
}

// Marker returns the marker of word, or "" when absent.
func (l *List) Marker(word string) string {
	if i := l.indexOf(word); i >= 0 {
		return l.entries[i].Marker
	}
	return ""
}

func (l *List) indexOf(word string) int {
	_, i, ok := lo.FindIndexOf(l.entries, func(e Entry) bool { return e.Word == word })
	if !ok {
		return -1
	}
	return i
}

// Add appends raw with the default marker.
func (l *List) Add(raw string) (Entry, error) {
	return l.add(raw, DefaultMarker)
}

func (l *List) add(raw, marker string) (Entry, error) {
	w := Normalize(raw)
	if err := l.check(w); err != nil {
		return Entry{}, err
	}
	if l.Contains(w) {
		return Entry{}, reject(w, ErrDuplicate, l.max)
	}
	if marker == "" {
		marker = DefaultMarker
	}
	e := Entry{Word: w, Marker: marker}
	l.entries = append(l.entries, e)
	return e, nil
}

// Edit replaces the word at index i, keeping its marker.
// Replacing a word with itself is allowed.
func (l *List) Edit(i int, raw string) (Entry, error) {
	w := Normalize(raw)
	if i < 0 || i >= len(l.entries) {
		return Entry{}, reject(w, ErrIndex, l.max)
	}
	if err := l.check(w); err != nil {
		return Entry{}, err
	}
	if j := l.indexOf(w); j >= 0 && j != i {
		return Entry{}, reject(w, ErrDuplicate, l.max)
	}
	l.entries[i].Word = w
	return l.entries[i], nil
}

// check validates a normalized word on its own.
func (l *List) check(w string) error {
	switch {
	case w == "":
		return reject(w, ErrEmpty, l.max)
	case !isLetters(w):
		return reject(w, ErrNotLetters, l.max)
	case len(w) > l.max:
		return reject(w, ErrTooLong, l.max)
	}
	return nil
}

package words

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatoList(t *testing.T) *List {
	t.Helper()
	l, err := NewList(12, []Entry{{Word: "GATO", Marker: "🐱"}, {Word: "OSO", Marker: "🐻"}})
	require.NoError(t, err)
	return l
}

func requireRejected(t *testing.T, err error, want error) *RejectedError {
	t.Helper()
	require.Error(t, err)
	var rej *RejectedError
	require.True(t, errors.As(err, &rej), "want *RejectedError, got %T", err)
	require.ErrorIs(t, err, want)
	assert.NotEmpty(t, rej.Message)
	return rej
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"gato ":  "GATO",
		"  León": "LEON",
		"tigre":  "TIGRE",
		"":       "",
		" \t ":   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestAddAppendsWithDefaultMarker(t *testing.T) {
	l := gatoList(t)
	e, err := l.Add(" lobo")
	require.NoError(t, err)

	assert.Equal(t, Entry{Word: "LOBO", Marker: DefaultMarker}, e)
	assert.Equal(t, []string{"GATO", "OSO", "LOBO"}, l.Words())
}

func TestAddRejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"duplicate after normalization", "gato ", ErrDuplicate},
		{"empty", "   ", ErrEmpty},
		{"too long", "SUPERCALIFRAGILISTICO", ErrTooLong},
		{"digits", "GAT0", ErrNotLetters},
		{"inner space", "OSO PARDO", ErrNotLetters},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := gatoList(t)
			_, err := l.Add(tc.raw)
			requireRejected(t, err, tc.want)
			assert.Equal(t, []string{"GATO", "OSO"}, l.Words(), "list must not change")
		})
	}
}

func TestAddAcceptsExactlyMaxLetters(t *testing.T) {
	l := gatoList(t)
	_, err := l.Add(strings.Repeat("A", 12))
	require.NoError(t, err)
	assert.Equal(t, 3, l.Len())
}

func TestEditKeepsMarker(t *testing.T) {
	l := gatoList(t)
	e, err := l.Edit(0, "leon")
	require.NoError(t, err)

	assert.Equal(t, Entry{Word: "LEON", Marker: "🐱"}, e)
	assert.Equal(t, []string{"LEON", "OSO"}, l.Words())
	assert.False(t, l.Contains("GATO"))
}

func TestEditSameWordIsAllowed(t *testing.T) {
	l := gatoList(t)
	_, err := l.Edit(0, " gato")
	require.NoError(t, err)
	assert.Equal(t, []string{"GATO", "OSO"}, l.Words())
}

func TestEditRejections(t *testing.T) {
	tests := []struct {
		name  string
		index int
		raw   string
		want  error
	}{
		{"duplicate elsewhere", 0, "oso", ErrDuplicate},
		{"too long", 1, "SUPERCALIFRAGILISTICO", ErrTooLong},
		{"empty", 1, "", ErrEmpty},
		{"negative index", -1, "LOBO", ErrIndex},
		{"index past end", 2, "LOBO", ErrIndex},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := gatoList(t)
			_, err := l.Edit(tc.index, tc.raw)
			requireRejected(t, err, tc.want)
			assert.Equal(t, []string{"GATO", "OSO"}, l.Words())
		})
	}
}

func TestNewListValidatesSeed(t *testing.T) {
	_, err := NewList(4, []Entry{{Word: "GATO"}, {Word: "gato"}})
	requireRejected(t, err, ErrDuplicate)

	l, err := NewList(4, []Entry{{Word: "oso"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultMarker, l.Marker("OSO"))
}

func TestDefaultList(t *testing.T) {
	entries, err := Default()
	require.NoError(t, err)

	l, err := NewList(12, entries)
	require.NoError(t, err)
	assert.Equal(t, []string{"PERRO", "GATO", "LEON", "TIGRE", "OSO", "LOBO"}, l.Words())
	assert.Equal(t, "🐱", l.Marker("GATO"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.yaml")
	require.NoError(t, os.WriteFile(path, []byte("words:\n  - word: zorro\n  - word: puma\n    marker: \"🐆\"\n"), 0o644))

	entries, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Word: "zorro"}, {Word: "puma", Marker: "🐆"}}, entries)

	_, err = Load(strings.NewReader("words: []\n"))
	require.Error(t, err)
	_, err = Load(strings.NewReader("animals:\n  - GATO\n"))
	require.Error(t, err)
}

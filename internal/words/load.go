// internal/words/load.go
//
// Word list files.
// Format (YAML):
//
//	words:
//	  - word: GATO
//	    marker: "🐱"
//
// The built-in list is parsed lazily, once, from the embedded assets.

package words

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/wordsearch/assets"
)

type file struct {
	Words []Entry `yaml:"words"`
}

var (
	defaultOnce    sync.Once
	defaultEntries []Entry
	defaultErr     error
)

// Default returns the built-in word list.
func Default() ([]Entry, error) {
	defaultOnce.Do(func() {
		raw, err := assets.DefaultWordList()
		if err != nil {
			defaultErr = err
			return
		}
		defaultEntries, defaultErr = Load(bytes.NewReader(raw))
	})
	return append([]Entry(nil), defaultEntries...), defaultErr
}

// Load parses a YAML word list. Entries are returned as written;
// validation happens when they seed a List.
func Load(r io.Reader) ([]Entry, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode word list: %w", err)
	}
	if len(f.Words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return f.Words, nil
}

// LoadFile reads a YAML word list from path.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

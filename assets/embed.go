// Package assets holds files compiled into the binaries.
package assets

import "embed"

//go:embed words.yaml
var FS embed.FS

// DefaultWordList returns the raw YAML of the built-in word list.
func DefaultWordList() ([]byte, error) {
	return FS.ReadFile("words.yaml")
}

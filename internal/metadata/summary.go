package metadata

import (
	"errors"

	"github.com/rivo/uniseg"
)

var errNoTextExporter = errors.New("no text exporter configured")

// Segments splits s at Unicode word boundaries. Whitespace and punctuation
// runs are segments of their own, so joining the result yields s again.
func Segments(s string) []string {
	var out []string
	state := -1
	for len(s) > 0 {
		var word string
		word, s, state = uniseg.FirstWordInString(s, state)
		out = append(out, word)
	}
	return out
}

// Summarize returns the first n word-boundary segments of s concatenated.
// The result is always a prefix of s.
func Summarize(s string, n int) string {
	if n <= 0 {
		return ""
	}
	rest := s
	state := -1
	for i := 0; i < n && len(rest) > 0; i++ {
		_, rest, state = uniseg.FirstWordInString(rest, state)
	}
	return s[:len(s)-len(rest)]
}

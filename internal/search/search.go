// Package search implements the normalized substring matcher over a
// cached library. Matching is a filter, not a ranking: results keep the
// scrape order of the cache entry.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/halvdan/backshelf/internal/library"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// Normalize produces the comparison surface for titles and queries:
// lowercase, diacritics decomposed and dropped, everything outside
// [a-z0-9 ] stripped, whitespace collapsed. Idempotent.
func Normalize(s string) string {
	s = strings.ToLower(s)

	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Search filters the entry's games by query. A multi-word query matches
// titles containing every term as a substring, in any order. A single
// word matches as one plain substring. An empty query matches nothing.
func Search(query string, entry library.CacheEntry) []library.Game {
	q := Normalize(query)
	if q == "" {
		return nil
	}

	terms := strings.Fields(q)
	if len(terms) == 1 {
		terms = []string{q}
	}

	var out []library.Game
	for _, g := range entry.Games {
		if matches(Normalize(g.Title), terms) {
			out = append(out, g)
		}
	}

	return out
}

func matches(title string, terms []string) bool {
	if title == "" {
		return false
	}

	for _, t := range terms {
		if !strings.Contains(title, t) {
			return false
		}
	}

	return true
}

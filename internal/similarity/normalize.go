// Package similarity provides the string and text similarity primitives used
// by duplicate detection.
package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Process prepares a string for fuzzy comparison by:
//  1. Folding diacritics (é -> e)
//  2. Lowercasing
//  3. Replacing every non letter/digit rune with a space
//  4. Collapsing whitespace
func Process(s string) string {
	if s == "" {
		return ""
	}

	// Transformers and casers carry state, so they are built per call.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	folded = cases.Lower(language.Und).String(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens returns the processed whitespace-separated tokens of s.
func Tokens(s string) []string {
	return strings.Fields(Process(s))
}

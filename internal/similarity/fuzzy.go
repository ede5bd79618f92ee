package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// indel weights a substitution as a deletion plus an insertion, so the
// distance counts the characters that are not part of a common alignment.
var indel = levenshtein.NewParams().SubCost(2)

// Ratio returns the 0-100 similarity of two already-processed strings:
// 100 * (len(a)+len(b) - indelDistance) / (len(a)+len(b)), rounded half to even.
// Either side empty yields 0.
func Ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	lensum := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	dist := levenshtein.Distance(a, b, indel)
	r := float64(lensum-dist) / float64(lensum)
	return int(math.RoundToEven(100 * r))
}

// TokenSetRatio compares two strings as sets of tokens, so word order,
// repeated words and punctuation do not matter. The intersection of the two
// token sets is compared against each side's intersection+remainder and the
// best of the three pairwise ratios wins. Returns 0-100; 0 if either side has
// no tokens.
func TokenSetRatio(a, b string) int {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for t := range ta {
		if tb[t] {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if !ta[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(common, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	return max(
		Ratio(sect, combinedA),
		Ratio(sect, combinedB),
		Ratio(combinedA, combinedB),
	)
}

func tokenSet(s string) map[string]bool {
	tokens := Tokens(s)
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

package similarity

import "math"

// Semantic estimates meaning overlap between two free-text passages.
// Implementations return a value in [0,1] and 0 when either text is empty.
type Semantic interface {
	Similarity(a, b string) float64
}

// stopwords are dropped before comparing term vectors.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "have": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"or": true, "our": true, "that": true, "the": true, "their": true, "this": true,
	"to": true, "was": true, "we": true, "were": true, "with": true, "which": true,
}

// BagOfWords scores texts by the cosine of their term-frequency vectors.
type BagOfWords struct{}

// NewBagOfWords returns the default Semantic implementation.
func NewBagOfWords() *BagOfWords { return &BagOfWords{} }

// Similarity implements Semantic.
func (BagOfWords) Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	fa, fb := withoutStopwords(ta), withoutStopwords(tb)
	if len(fa) > 0 && len(fb) > 0 {
		ta, tb = fa, fb
	}

	return CosineSimilarity(termFrequencies(ta), termFrequencies(tb))
}

// CosineSimilarity is the cosine of two sparse term vectors, clamped to
// [0,1]. It is 0 when either vector is empty.
func CosineSimilarity(va, vb map[string]float64) float64 {
	var dot, na, nb float64
	for t, ca := range va {
		na += ca * ca
		dot += ca * vb[t]
	}
	for _, cb := range vb {
		nb += cb * cb
	}
	if na == 0 || nb == 0 {
		return 0
	}

	// Counts are integral, so sqrt(na*nb) is exact when the vectors match.
	sim := dot / math.Sqrt(na*nb)
	return math.Max(0, math.Min(1, sim))
}

func withoutStopwords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !stopwords[t] {
			out = append(out, t)
		}
	}
	return out
}

func termFrequencies(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

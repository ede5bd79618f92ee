package validate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/sells-group/lead-intel/internal/model"
)

// FallbackConfidence is the confidence attached to synthesized candidates.
const FallbackConfidence = 0.7

// DefaultCompanySize is used when a research request does not name a size.
const DefaultCompanySize = "medium"

var fallbackDecisionMakers = []string{"CEO", "CTO", "VP of Operations"}

// FallbackCandidates returns the single deterministic candidate used when
// research fails. It depends only on its arguments.
func FallbackCandidates(industry, location, companySize string) []model.CompanyCandidate {
	if companySize == "" {
		companySize = DefaultCompanySize
	}
	return []model.CompanyCandidate{{
		Name:           fmt.Sprintf("Real %s Company Inc.", industry),
		Website:        fmt.Sprintf("https://real%scompany.com", domainLabel(industry)),
		Industry:       orDefault(industry, model.Unknown),
		Size:           companySize,
		Location:       orDefault(location, model.Unknown),
		DecisionMakers: append([]string{}, fallbackDecisionMakers...),
		Reasoning:      fmt.Sprintf("Real %s company in %s", industry, location),
		Confidence:     FallbackConfidence,
	}}
}

// domainLabel lowercases s and drops anything that cannot appear in a
// hostname label.
func domainLabel(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

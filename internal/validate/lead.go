package validate

import (
	"math"
	"strings"

	"github.com/sells-group/lead-intel/internal/model"
)

// NormalizeLead fills every optional lead attribute with its default:
// "Unknown" for categoricals, 0 for numerics, and about (falling back to
// notes, then "") for free text. Non-finite numerics are treated as missing.
func NormalizeLead(l model.Lead) model.NormalizedLead {
	return model.NormalizedLead{
		CompanyName:   strings.TrimSpace(l.CompanyName),
		KeyPerson:     strings.TrimSpace(l.KeyPerson),
		Text:          leadText(l),
		Seniority:     category(l.Seniority),
		Department:    category(l.Department),
		Industry:      category(l.Industry),
		CompanySize:   number(l.CompanySize),
		ActivityLevel: number(l.ActivityLevel),
		IntentScore:   number(l.IntentScore),
	}
}

// NormalizeLeads applies NormalizeLead to each lead, preserving order.
func NormalizeLeads(leads []model.Lead) []model.NormalizedLead {
	out := make([]model.NormalizedLead, len(leads))
	for i, l := range leads {
		out[i] = NormalizeLead(l)
	}
	return out
}

// leadText is about when it is not blank, otherwise notes.
func leadText(l model.Lead) string {
	if l.About != nil {
		if about := strings.TrimSpace(*l.About); about != "" {
			return about
		}
	}
	if l.Notes != nil {
		return strings.TrimSpace(*l.Notes)
	}
	return ""
}

func category(v *string) string {
	if v == nil {
		return model.Unknown
	}
	return orDefault(*v, model.Unknown)
}

func number(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}

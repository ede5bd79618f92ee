// Package validate normalizes lead and candidate records at the core's
// boundary and synthesizes fallback candidates when upstream data is unusable.
package validate

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/lead-intel/internal/model"
)

// Candidate field defaults.
const (
	DefaultWebsite    = "N/A"
	DefaultReasoning  = "AI research"
	DefaultConfidence = 0.8
)

// NormalizeCandidates validates raw decoded array elements. Elements that are
// not objects or lack a non-empty string name are dropped; every other field
// is defaulted. The result is never nil.
func NormalizeCandidates(elems []any) []model.CompanyCandidate {
	out := make([]model.CompanyCandidate, 0, len(elems))
	for _, e := range elems {
		raw, ok := e.(map[string]any)
		if !ok {
			continue
		}
		c, ok := NormalizeCandidate(raw)
		if !ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

// NormalizeCandidate converts one decoded JSON object into a candidate.
// It reports false when the required name is missing.
func NormalizeCandidate(raw map[string]any) (model.CompanyCandidate, bool) {
	name, _ := raw["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return model.CompanyCandidate{}, false
	}

	c := model.CompanyCandidate{
		Name:           name,
		Website:        stringField(raw, "website", DefaultWebsite),
		Industry:       stringField(raw, "industry", model.Unknown),
		Size:           stringField(raw, "size", model.Unknown),
		Location:       stringField(raw, "location", model.Unknown),
		DecisionMakers: stringSlice(raw["decision_makers"]),
		Reasoning:      stringField(raw, "reasoning", DefaultReasoning),
		Confidence:     DefaultConfidence,
	}
	if conf, ok := toFloat64(raw["confidence"]); ok {
		c.Confidence = clamp01(conf)
	}
	return c, true
}

func stringField(raw map[string]any, key, def string) string {
	switch v := raw[key].(type) {
	case string:
		return orDefault(v, def)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return def
	}
}

func stringSlice(v any) []string {
	out := []string{}
	switch items := v.(type) {
	case []any:
		for _, item := range items {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		if s := strings.TrimSpace(items); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// toFloat64 attempts to convert a decoded JSON value to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

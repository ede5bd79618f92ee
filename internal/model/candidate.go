// Package model defines the records exchanged with the lead intelligence core.
package model

// CompanyCandidate is a company proposed by AI research or synthesized by the
// fallback generator. Candidates leaving the core are always normalized.
type CompanyCandidate struct {
	Name           string   `json:"name"`
	Website        string   `json:"website"`
	Industry       string   `json:"industry"`
	Size           string   `json:"size"`
	Location       string   `json:"location"`
	DecisionMakers []string `json:"decision_makers"`
	Reasoning      string   `json:"reasoning"`
	Confidence     float64  `json:"confidence"`
}

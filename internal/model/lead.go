package model

// Unknown is the categorical value substituted for missing lead attributes.
const Unknown = "Unknown"

// Lead is a caller-supplied sales lead. Optional attributes are pointers so
// that an absent field is distinct from an explicit zero value.
type Lead struct {
	CompanyName   string   `json:"company_name" yaml:"company_name"`
	KeyPerson     string   `json:"key_person,omitempty" yaml:"key_person,omitempty"`
	About         *string  `json:"about,omitempty" yaml:"about,omitempty"`
	Notes         *string  `json:"notes,omitempty" yaml:"notes,omitempty"`
	Seniority     *string  `json:"seniority,omitempty" yaml:"seniority,omitempty"`
	Department    *string  `json:"department,omitempty" yaml:"department,omitempty"`
	CompanySize   *float64 `json:"company_size,omitempty" yaml:"company_size,omitempty"`
	Industry      *string  `json:"industry,omitempty" yaml:"industry,omitempty"`
	ActivityLevel *float64 `json:"activity_level,omitempty" yaml:"activity_level,omitempty"`
	IntentScore   *float64 `json:"intent_score,omitempty" yaml:"intent_score,omitempty"`
}

// LabeledLead pairs a lead with its training label (true = valuable).
type LabeledLead struct {
	Lead  `yaml:",inline"`
	Label bool `json:"label" yaml:"label"`
}

// NormalizedLead is a Lead with every default applied. It is produced once
// at ingestion and consumed by the duplicate detector and the scorer.
type NormalizedLead struct {
	CompanyName   string
	KeyPerson     string
	Text          string // about, falling back to notes
	Seniority     string
	Department    string
	Industry      string
	CompanySize   float64
	ActivityLevel float64
	IntentScore   float64
}

// String returns a pointer to s. Handy for building leads in code.
func String(s string) *string { return &s }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

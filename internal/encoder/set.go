package encoder

import (
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-intel/internal/model"
)

// Categorical lead attributes with an encoder in a Set.
const (
	Seniority  = "seniority"
	Department = "department"
	Industry   = "industry"
)

// Set holds the encoders for the three categorical lead attributes.
type Set struct {
	Seniority  *LabelEncoder `json:"seniority"`
	Department *LabelEncoder `json:"department"`
	Industry   *LabelEncoder `json:"industry"`

	Policy Policy `json:"-"`
}

// NewSet returns a Set of unfitted encoders using policy p.
func NewSet(p Policy) *Set {
	return &Set{
		Seniority:  &LabelEncoder{},
		Department: &LabelEncoder{},
		Industry:   &LabelEncoder{},
		Policy:     p,
	}
}

// Fit rebuilds all three vocabularies from leads.
func (s *Set) Fit(leads []model.NormalizedLead) {
	sen := make([]string, len(leads))
	dep := make([]string, len(leads))
	ind := make([]string, len(leads))
	for i, l := range leads {
		sen[i] = l.Seniority
		dep[i] = l.Department
		ind[i] = l.Industry
	}
	s.encoder(Seniority).Fit(sen)
	s.encoder(Department).Fit(dep)
	s.encoder(Industry).Fit(ind)
}

// Encode returns the code for value in the named category.
func (s *Set) Encode(category, value string) (int, error) {
	enc := s.encoder(category)
	if enc == nil {
		return 0, eris.Errorf("encoder: unknown category %q", category)
	}
	code, err := enc.Encode(value, s.Policy)
	if err != nil {
		var uce *UnknownCategoryError
		if errors.As(err, &uce) {
			uce.Category = category
		}
		return 0, err
	}
	return code, nil
}

// Fitted reports whether every encoder in the set has a vocabulary.
func (s *Set) Fitted() bool {
	for _, e := range []*LabelEncoder{s.Seniority, s.Department, s.Industry} {
		if e == nil || !e.Fitted() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	return &Set{
		Seniority:  cloneOrEmpty(s.Seniority),
		Department: cloneOrEmpty(s.Department),
		Industry:   cloneOrEmpty(s.Industry),
		Policy:     s.Policy,
	}
}

func (s *Set) encoder(category string) *LabelEncoder {
	var enc **LabelEncoder
	switch category {
	case Seniority:
		enc = &s.Seniority
	case Department:
		enc = &s.Department
	case Industry:
		enc = &s.Industry
	default:
		return nil
	}
	if *enc == nil {
		*enc = &LabelEncoder{}
	}
	return *enc
}

func cloneOrEmpty(e *LabelEncoder) *LabelEncoder {
	if e == nil {
		return &LabelEncoder{}
	}
	return e.Clone()
}

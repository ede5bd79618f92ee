// Package encoder maps categorical lead attributes to integer codes.
package encoder

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/rotisserie/eris"
)

// UnknownCode is returned for unseen values under the Reserved policy.
const UnknownCode = -1

// Policy controls how Encode treats a value outside the fitted vocabulary.
type Policy string

// Unknown-category policies.
const (
	Strict   Policy = "strict"
	Reserved Policy = "reserved"
)

// ParsePolicy converts a config value to a Policy. Empty selects Strict.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case Strict, "":
		return Strict, nil
	case Reserved:
		return Reserved, nil
	}
	return "", eris.Errorf("encoder: unknown policy %q", s)
}

// UnknownCategoryError reports a value that was not part of the fitted
// vocabulary of an encoder.
type UnknownCategoryError struct {
	Category string
	Value    string
}

func (e *UnknownCategoryError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("encoder: unknown value %q", e.Value)
	}
	return fmt.Sprintf("encoder: unknown %s %q", e.Category, e.Value)
}

// LabelEncoder assigns codes 0..n-1 to the sorted unique values it was
// fitted on. The zero value is an unfitted encoder with an empty vocabulary.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// NewLabelEncoder returns an encoder fitted on values.
func NewLabelEncoder(values []string) *LabelEncoder {
	e := &LabelEncoder{}
	e.Fit(values)
	return e
}

// Fit rebuilds the vocabulary from scratch.
func (e *LabelEncoder) Fit(values []string) {
	classes := slices.Clone(values)
	slices.Sort(classes)
	e.setClasses(slices.Compact(classes))
}

func (e *LabelEncoder) setClasses(classes []string) {
	e.classes = classes
	e.index = make(map[string]int, len(classes))
	for i, c := range classes {
		e.index[c] = i
	}
}

// Fitted reports whether the encoder has a non-empty vocabulary.
func (e *LabelEncoder) Fitted() bool { return len(e.classes) > 0 }

// Classes returns a copy of the vocabulary in code order.
func (e *LabelEncoder) Classes() []string { return slices.Clone(e.classes) }

// Lookup returns the code for value and whether it is in the vocabulary.
func (e *LabelEncoder) Lookup(value string) (int, bool) {
	code, ok := e.index[value]
	return code, ok
}

// Encode returns the code for value under policy p.
func (e *LabelEncoder) Encode(value string, p Policy) (int, error) {
	if code, ok := e.Lookup(value); ok {
		return code, nil
	}
	if p == Reserved {
		return UnknownCode, nil
	}
	return 0, &UnknownCategoryError{Value: value}
}

// Decode returns the value for code.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", eris.Errorf("encoder: code %d out of range [0, %d)", code, len(e.classes))
	}
	return e.classes[code], nil
}

// Clone returns an independent copy of the encoder.
func (e *LabelEncoder) Clone() *LabelEncoder {
	c := &LabelEncoder{}
	c.setClasses(slices.Clone(e.classes))
	return c
}

// MarshalJSON encodes the encoder as its class list.
func (e *LabelEncoder) MarshalJSON() ([]byte, error) {
	classes := e.classes
	if classes == nil {
		classes = []string{}
	}
	return json.Marshal(classes)
}

// UnmarshalJSON restores the encoder from a class list. The list must be
// sorted and free of duplicates.
func (e *LabelEncoder) UnmarshalJSON(data []byte) error {
	var classes []string
	if err := json.Unmarshal(data, &classes); err != nil {
		return eris.Wrap(err, "encoder: decode classes")
	}
	for i := 1; i < len(classes); i++ {
		if classes[i-1] >= classes[i] {
			return eris.Errorf("encoder: classes not sorted and unique at %d", i)
		}
	}
	e.setClasses(classes)
	return nil
}

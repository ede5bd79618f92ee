// Package dedup collapses near-duplicate leads using a weighted mix of fuzzy
// name matching and free-text similarity.
package dedup

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-intel/internal/bundle"
	"github.com/sells-group/lead-intel/internal/model"
	"github.com/sells-group/lead-intel/internal/similarity"
	"github.com/sells-group/lead-intel/internal/validate"
)

const (
	// DefaultThreshold is used when no bundle has been persisted.
	DefaultThreshold = 85.0

	// BundleName is the store key of the dedup bundle.
	BundleName = "dedup"
)

// Bundle is the persisted detector state.
type Bundle struct {
	Threshold float64 `json:"threshold"`
}

// Weighting selects how components without evidence are combined.
type Weighting string

// Weighting modes.
const (
	// Renormalize drops a component when neither lead has a value for it
	// and divides by the remaining weight.
	Renormalize Weighting = "renormalize"
	// Fixed always divides by the full weight; missing values score 0.
	Fixed Weighting = "fixed"
)

// ParseWeighting converts a config value to a Weighting. Empty selects
// Renormalize.
func ParseWeighting(s string) (Weighting, error) {
	switch Weighting(s) {
	case Renormalize, "":
		return Renormalize, nil
	case Fixed:
		return Fixed, nil
	}
	return "", eris.Errorf("dedup: unknown weighting %q", s)
}

// Weights are the relative contributions of each component.
type Weights struct {
	Name      float64
	KeyPerson float64
	Text      float64
}

// DefaultWeights weigh the company name at 50, the key person at 30 and the
// free text at 20.
var DefaultWeights = Weights{Name: 50, KeyPerson: 30, Text: 20}

// Breakdown is the per-component comparison of two leads. Component scores
// and Combined are on a 0-100 scale.
type Breakdown struct {
	Name      int     `json:"name"`
	KeyPerson int     `json:"key_person"`
	Text      float64 `json:"text"`
	Combined  float64 `json:"combined"`
}

// Option configures a Detector.
type Option func(*Detector)

// WithStore persists the threshold to st.
func WithStore(st bundle.Store) Option {
	return func(d *Detector) { d.store = st }
}

// WithSemantic overrides the free-text similarity model.
func WithSemantic(s similarity.Semantic) Option {
	return func(d *Detector) { d.semantic = s }
}

// WithWeighting sets the weighting mode.
func WithWeighting(w Weighting) Option {
	return func(d *Detector) { d.weighting = w }
}

// WithWeights overrides DefaultWeights.
func WithWeights(w Weights) Option {
	return func(d *Detector) { d.weights = w }
}

// WithDefaultThreshold sets the threshold used until a bundle is loaded or
// retrained.
func WithDefaultThreshold(t float64) Option {
	return func(d *Detector) {
		if validThreshold(t) {
			d.threshold = t
		}
	}
}

// Detector decides whether two leads describe the same contact.
type Detector struct {
	mu        sync.RWMutex
	threshold float64

	store     bundle.Store
	semantic  similarity.Semantic
	weighting Weighting
	weights   Weights
	log       *zap.Logger
}

// New returns a Detector at DefaultThreshold.
func New(opts ...Option) *Detector {
	d := &Detector{
		threshold: DefaultThreshold,
		semantic:  similarity.NewBagOfWords(),
		weighting: Renormalize,
		weights:   DefaultWeights,
		log:       zap.L().With(zap.String("component", "dedup")),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Load replaces the threshold with the persisted one. A missing, corrupt or
// out-of-range bundle keeps the current threshold and is logged.
func (d *Detector) Load(ctx context.Context) {
	if d.store == nil {
		return
	}
	var b Bundle
	meta, err := bundle.LoadJSON(ctx, d.store, BundleName, &b)
	switch {
	case errors.Is(err, bundle.ErrNotFound):
		d.log.Warn("dedup: no persisted bundle, using default threshold",
			zap.Float64("threshold", d.Threshold()))
		return
	case err != nil:
		d.log.Warn("dedup: bundle load failed, using default threshold",
			zap.Float64("threshold", d.Threshold()), zap.Error(err))
		return
	case !validThreshold(b.Threshold):
		d.log.Warn("dedup: persisted threshold out of range, using default threshold",
			zap.Float64("persisted", b.Threshold), zap.Float64("threshold", d.Threshold()))
		return
	}

	d.mu.Lock()
	d.threshold = b.Threshold
	d.mu.Unlock()

	d.log.Info("dedup: loaded bundle",
		zap.String("version", meta.Version),
		zap.Float64("threshold", b.Threshold),
	)
}

// Threshold returns the live decision threshold.
func (d *Detector) Threshold() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.threshold
}

// Retrain replaces the decision threshold. It must be in (0, 100]. The new
// value is persisted before it becomes live.
func (d *Detector) Retrain(ctx context.Context, threshold float64) error {
	if !validThreshold(threshold) {
		return eris.Errorf("dedup: threshold must be in (0, 100], got %g", threshold)
	}
	if d.store != nil {
		if _, err := bundle.SaveJSON(ctx, d.store, BundleName, Bundle{Threshold: threshold}); err != nil {
			return eris.Wrap(err, "dedup: persist bundle")
		}
	}

	d.mu.Lock()
	prev := d.threshold
	d.threshold = threshold
	d.mu.Unlock()

	d.log.Info("dedup: threshold retrained",
		zap.Float64("previous", prev),
		zap.Float64("threshold", threshold),
	)
	return nil
}

// Score compares a and b.
func (d *Detector) Score(a, b model.Lead) Breakdown {
	return d.score(validate.NormalizeLead(a), validate.NormalizeLead(b))
}

func (d *Detector) score(a, b model.NormalizedLead) Breakdown {
	bd := Breakdown{
		Name:      similarity.TokenSetRatio(a.CompanyName, b.CompanyName),
		KeyPerson: similarity.TokenSetRatio(a.KeyPerson, b.KeyPerson),
	}
	textA, textB := hasTokens(a.Text), hasTokens(b.Text)
	if textA && textB {
		bd.Text = d.semantic.Similarity(a.Text, b.Text) * 100
	}

	w := d.weights
	if d.weighting == Renormalize {
		// A component with no tokens on either side carries no evidence.
		if !hasTokens(a.CompanyName) && !hasTokens(b.CompanyName) {
			w.Name = 0
		}
		if !hasTokens(a.KeyPerson) && !hasTokens(b.KeyPerson) {
			w.KeyPerson = 0
		}
		if !textA && !textB {
			w.Text = 0
		}
	}
	total := w.Name + w.KeyPerson + w.Text
	switch {
	case total > 0:
		bd.Combined = (w.Name*float64(bd.Name) + w.KeyPerson*float64(bd.KeyPerson) + w.Text*bd.Text) / total
	case a == b:
		// Nothing comparable on either side: only identical records match.
		bd.Combined = 100
	}
	return bd
}

func hasTokens(s string) bool {
	return len(similarity.Tokens(s)) > 0
}

// IsDuplicate reports whether a and b match at the live threshold.
func (d *Detector) IsDuplicate(a, b model.Lead) bool {
	return d.IsDuplicateAt(a, b, d.Threshold())
}

// IsDuplicateAt reports whether the combined score of a and b reaches
// threshold.
func (d *Detector) IsDuplicateAt(a, b model.Lead, threshold float64) bool {
	return d.Score(a, b).Combined >= threshold
}

// Dedupe removes duplicates at the live threshold.
func (d *Detector) Dedupe(leads []model.Lead) []model.Lead {
	return d.DedupeAt(leads, d.Threshold())
}

// DedupeAt keeps the first lead of every duplicate group, in input order.
// Each lead is compared only against the leads already kept.
func (d *Detector) DedupeAt(leads []model.Lead, threshold float64) []model.Lead {
	out := make([]model.Lead, 0, len(leads))
	kept := make([]model.NormalizedLead, 0, len(leads))

	for _, l := range leads {
		n := validate.NormalizeLead(l)
		dup := false
		for _, k := range kept {
			if d.score(k, n).Combined >= threshold {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		kept = append(kept, n)
		out = append(out, l)
	}

	d.log.Debug("dedup: deduplicated leads",
		zap.Int("input", len(leads)),
		zap.Int("unique", len(out)),
		zap.Float64("threshold", threshold),
	)
	return out
}

func validThreshold(t float64) bool {
	return !math.IsNaN(t) && t > 0 && t <= 100
}

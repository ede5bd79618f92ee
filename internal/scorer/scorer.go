package scorer

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-intel/internal/bundle"
	"github.com/sells-group/lead-intel/internal/encoder"
	"github.com/sells-group/lead-intel/internal/model"
	"github.com/sells-group/lead-intel/internal/validate"
)

// BundleName is the store key of the scoring bundle.
const BundleName = "scoring"

// Bundle is the persisted scoring state: the fitted encoders and the
// classifier trained on their codes. The two are only ever replaced together.
type Bundle struct {
	Version    string       `json:"version"`
	TrainedAt  time.Time    `json:"trained_at"`
	Encoders   *encoder.Set `json:"encoders"`
	Classifier Classifier   `json:"classifier"`
}

func untrainedBundle(p encoder.Policy) *Bundle {
	return &Bundle{Encoders: encoder.NewSet(p)}
}

// Ranked is a lead with its score. Leads that could not be scored keep
// Scored false and carry the reason in Error.
type Ranked struct {
	Lead   model.Lead `json:"lead"`
	Score  float64    `json:"score"`
	Scored bool       `json:"scored"`
	Error  string     `json:"error,omitempty"`
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithStore persists bundles to st. Without a store, Fit only updates memory.
func WithStore(st bundle.Store) Option {
	return func(s *Scorer) { s.store = st }
}

// WithPolicy sets the unknown-category policy.
func WithPolicy(p encoder.Policy) Option {
	return func(s *Scorer) { s.policy = p }
}

// WithTrainOptions overrides DefaultTrainOptions.
func WithTrainOptions(o TrainOptions) Option {
	return func(s *Scorer) { s.opts = o }
}

// Scorer owns the scoring bundle. Score and Rank may run concurrently with
// each other and with Fit.
type Scorer struct {
	mu     sync.RWMutex
	bundle *Bundle

	fitMu  sync.Mutex
	store  bundle.Store
	policy encoder.Policy
	opts   TrainOptions
	log    *zap.Logger
}

// New returns a Scorer holding an untrained bundle.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		policy: encoder.Strict,
		opts:   DefaultTrainOptions(),
		log:    zap.L().With(zap.String("component", "scorer")),
	}
	for _, o := range opts {
		o(s)
	}
	s.bundle = untrainedBundle(s.policy)
	return s
}

// Load replaces the live bundle with the persisted one. A missing or corrupt
// bundle leaves the scorer untrained and is logged, not returned.
func (s *Scorer) Load(ctx context.Context) {
	if s.store == nil {
		return
	}
	var b Bundle
	meta, err := bundle.LoadJSON(ctx, s.store, BundleName, &b)
	switch {
	case errors.Is(err, bundle.ErrNotFound):
		s.log.Warn("scorer: no persisted bundle, using untrained classifier")
		return
	case err != nil:
		s.log.Warn("scorer: bundle load failed, using untrained classifier", zap.Error(err))
		return
	}
	if b.Encoders == nil {
		b.Encoders = encoder.NewSet(s.policy)
	}
	if b.Classifier.Trained && !b.Encoders.Fitted() {
		s.log.Warn("scorer: trained bundle has unfitted encoders, using untrained classifier",
			zap.String("version", meta.Version),
		)
		return
	}
	b.Encoders.Policy = s.policy

	s.mu.Lock()
	s.bundle = &b
	s.mu.Unlock()

	s.log.Info("scorer: loaded bundle",
		zap.String("version", meta.Version),
		zap.Bool("trained", b.Classifier.Trained),
	)
}

// Trained reports whether the live classifier has been fitted.
func (s *Scorer) Trained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bundle.Classifier.Trained
}

// Bundle returns a copy of the live bundle.
func (s *Scorer) Bundle() Bundle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := *s.bundle
	b.Encoders = s.bundle.Encoders.Clone()
	return b
}

// Score returns the probability in [0, 1] that lead is valuable. An untrained
// scorer returns 0.5 without encoding the lead.
func (s *Scorer) Score(lead model.Lead) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.bundle.Classifier.Trained {
		s.log.Debug("scorer: untrained, returning default probability",
			zap.String("company", lead.CompanyName))
		return 0.5, nil
	}
	x, err := features(s.bundle.Encoders, validate.NormalizeLead(lead))
	if err != nil {
		return 0, err
	}
	return s.bundle.Classifier.PredictProba(x), nil
}

// Features returns the feature vector for lead under the live encoders.
func (s *Scorer) Features(lead model.Lead) (FeatureVector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return features(s.bundle.Encoders, validate.NormalizeLead(lead))
}

func features(enc *encoder.Set, l model.NormalizedLead) (FeatureVector, error) {
	sen, err := enc.Encode(encoder.Seniority, l.Seniority)
	if err != nil {
		return FeatureVector{}, err
	}
	dep, err := enc.Encode(encoder.Department, l.Department)
	if err != nil {
		return FeatureVector{}, err
	}
	ind, err := enc.Encode(encoder.Industry, l.Industry)
	if err != nil {
		return FeatureVector{}, err
	}
	return FeatureVector{
		float64(sen),
		float64(dep),
		l.CompanySize,
		float64(ind),
		l.ActivityLevel,
		l.IntentScore,
	}, nil
}

// Fit trains new encoders and a new classifier on leads and labels, persists
// them, and only then makes them live. On any error the live bundle is
// unchanged.
func (s *Scorer) Fit(ctx context.Context, leads []model.Lead, labels []bool) error {
	if len(leads) != len(labels) {
		return eris.Errorf("scorer: %d leads but %d labels", len(leads), len(labels))
	}
	var pos, neg int
	for _, l := range labels {
		if l {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return eris.Errorf("scorer: training needs both classes, got %d positive and %d negative", pos, neg)
	}

	s.fitMu.Lock()
	defer s.fitMu.Unlock()

	norm := validate.NormalizeLeads(leads)
	enc := encoder.NewSet(s.policy)
	enc.Fit(norm)

	xs := make([]FeatureVector, len(norm))
	for i, l := range norm {
		x, err := features(enc, l)
		if err != nil {
			return eris.Wrap(err, "scorer: encode training lead")
		}
		xs[i] = x
	}

	clf, err := Train(xs, labels, s.opts)
	if err != nil {
		return err
	}

	staged := &Bundle{
		Version:    uuid.NewString(),
		TrainedAt:  time.Now().UTC(),
		Encoders:   enc,
		Classifier: clf,
	}

	if s.store != nil {
		if _, err := bundle.SaveJSON(ctx, s.store, BundleName, staged); err != nil {
			return eris.Wrap(err, "scorer: persist bundle")
		}
	}

	s.mu.Lock()
	s.bundle = staged
	s.mu.Unlock()

	s.log.Info("scorer: fitted bundle",
		zap.String("version", staged.Version),
		zap.Int("examples", len(leads)),
		zap.Int("positive", pos),
	)
	return nil
}

// Rank scores every lead and sorts them by descending score. Ties keep input
// order. Leads that fail to score are placed last in input order.
func (s *Scorer) Rank(leads []model.Lead) []Ranked {
	out := make([]Ranked, len(leads))
	for i, l := range leads {
		out[i] = Ranked{Lead: l}
		score, err := s.Score(l)
		if err != nil {
			s.log.Warn("scorer: lead not scored",
				zap.String("company", l.CompanyName),
				zap.Error(err),
			)
			out[i].Error = err.Error()
			continue
		}
		out[i].Score = score
		out[i].Scored = true
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Scored != out[j].Scored {
			return out[i].Scored
		}
		return out[i].Score > out[j].Score
	})
	return out
}

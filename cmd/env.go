package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-intel/internal/bundle"
	"github.com/sells-group/lead-intel/internal/config"
	"github.com/sells-group/lead-intel/internal/dedup"
	"github.com/sells-group/lead-intel/internal/encoder"
	"github.com/sells-group/lead-intel/internal/pipeline"
	"github.com/sells-group/lead-intel/internal/research"
	"github.com/sells-group/lead-intel/internal/scorer"
)

// coreEnv holds the bundle store and the components built on it.
type coreEnv struct {
	Store    bundle.Store
	Dedup    *dedup.Detector
	Scorer   *scorer.Scorer
	Research *research.Client
	Pipeline *pipeline.Pipeline
}

// errNoStore is returned by commands that must persist bundles when the
// store could not be opened.
var errNoStore = eris.New("bundle store unavailable")

// requireStore fails when models cannot be persisted.
func (e *coreEnv) requireStore() error {
	if e.Store == nil {
		return errNoStore
	}
	return nil
}

// Close releases the bundle store.
func (e *coreEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initCore opens the bundle store, loads both model bundles and builds the
// research client and pipeline. Callers should defer env.Close().
func initCore(ctx context.Context, c *config.Config) (*coreEnv, error) {
	if err := c.Validate("models"); err != nil {
		return nil, err
	}
	if err := c.Validate("research"); err != nil {
		// Research still answers with fallback candidates.
		zap.L().Warn("research config incomplete, requests will fall back", zap.Error(err))
	}

	weighting, err := dedup.ParseWeighting(c.Dedup.Weighting)
	if err != nil {
		return nil, err
	}
	policy, err := encoder.ParsePolicy(c.Scoring.UnknownCategory)
	if err != nil {
		return nil, err
	}
	trainOpts := scorer.TrainOptionsFromConfig(c.Scoring)
	if err := scorer.ValidateTrainOptions(trainOpts); err != nil {
		return nil, err
	}

	rc, err := research.NewFromConfig(c)
	if err != nil {
		return nil, err
	}

	dedupOpts := []dedup.Option{
		dedup.WithWeighting(weighting),
		dedup.WithDefaultThreshold(c.Dedup.DefaultThreshold),
	}
	scorerOpts := []scorer.Option{
		scorer.WithPolicy(policy),
		scorer.WithTrainOptions(trainOpts),
	}

	st, err := bundle.Open(ctx, bundle.Options{
		Driver:      c.Bundles.Driver,
		Dir:         c.Bundles.Dir,
		DatabaseURL: c.Bundles.DatabaseURL,
	})
	if err != nil {
		// Models fall back to the default threshold and an untrained
		// classifier; only training needs the store.
		zap.L().Warn("bundle store unavailable, using default models",
			zap.String("driver", c.Bundles.Driver),
			zap.Error(err),
		)
		st = nil
	} else {
		dedupOpts = append(dedupOpts, dedup.WithStore(st))
		scorerOpts = append(scorerOpts, scorer.WithStore(st))
	}

	d := dedup.New(dedupOpts...)
	d.Load(ctx)

	s := scorer.New(scorerOpts...)
	s.Load(ctx)

	return &coreEnv{
		Store:    st,
		Dedup:    d,
		Scorer:   s,
		Research: rc,
		Pipeline: pipeline.New(rc, d, s),
	}, nil
}

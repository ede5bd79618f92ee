// Package scorer ranks leads by a learned probability of being valuable.
package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-intel/internal/config"
)

// TrainOptions controls classifier fitting.
type TrainOptions struct {
	Iterations   int
	LearningRate float64
	C            float64 // inverse L2 regularisation strength
}

// DefaultTrainOptions returns the fitting defaults: 500 full-batch gradient
// steps at rate 0.5 with C = 1.0.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Iterations:   500,
		LearningRate: 0.5,
		C:            1.0,
	}
}

// TrainOptionsFromConfig builds TrainOptions from the scoring config section,
// keeping defaults for unset values.
func TrainOptionsFromConfig(c config.ScoringConfig) TrainOptions {
	opts := DefaultTrainOptions()
	if c.Iterations != 0 {
		opts.Iterations = c.Iterations
	}
	if c.LearningRate != 0 {
		opts.LearningRate = c.LearningRate
	}
	if c.C != 0 {
		opts.C = c.C
	}
	return opts
}

// ValidateTrainOptions checks that TrainOptions can drive a fit.
func ValidateTrainOptions(o TrainOptions) error {
	var errs []string

	if o.Iterations <= 0 {
		errs = append(errs, fmt.Sprintf("iterations must be > 0, got %d", o.Iterations))
	}
	if o.LearningRate <= 0 {
		errs = append(errs, fmt.Sprintf("learning_rate must be > 0, got %g", o.LearningRate))
	}
	if o.C <= 0 {
		errs = append(errs, fmt.Sprintf("c must be > 0, got %g", o.C))
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

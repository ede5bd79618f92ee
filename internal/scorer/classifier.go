package scorer

import (
	"math"

	"github.com/rotisserie/eris"
)

// NumFeatures is the width of a FeatureVector.
const NumFeatures = 6

var featureNames = [NumFeatures]string{
	"seniority", "department", "company_size", "industry", "activity_level", "intent_score",
}

// FeatureVector is the model input for one lead, in order: seniority code,
// department code, company size, industry code, activity level, intent score.
type FeatureVector [NumFeatures]float64

// Classifier is an L2-regularised logistic regression over standardised
// features. An untrained classifier predicts 0.5 for every input.
type Classifier struct {
	Weights [NumFeatures]float64 `json:"weights"`
	Bias    float64              `json:"bias"`
	Means   [NumFeatures]float64 `json:"means"`
	Scales  [NumFeatures]float64 `json:"scales"`
	Trained bool                 `json:"trained"`
}

// PredictProba returns the positive-class probability for x.
func (c *Classifier) PredictProba(x FeatureVector) float64 {
	if !c.Trained {
		return 0.5
	}
	p := sigmoid(c.logit(c.standardize(x)))
	if math.IsNaN(p) {
		return 0.5
	}
	return math.Min(1, math.Max(0, p))
}

func (c *Classifier) standardize(x FeatureVector) FeatureVector {
	var z FeatureVector
	for j := range x {
		scale := c.Scales[j]
		if scale == 0 {
			scale = 1
		}
		z[j] = (x[j] - c.Means[j]) / scale
	}
	return z
}

func (c *Classifier) logit(z FeatureVector) float64 {
	s := c.Bias
	for j := range z {
		s += c.Weights[j] * z[j]
	}
	return s
}

// Train fits a classifier on xs with labels ys by full-batch gradient descent
// on the mean log-loss plus ||w||²/(2·C·n). The result depends only on the
// inputs and opts.
func Train(xs []FeatureVector, ys []bool, opts TrainOptions) (Classifier, error) {
	if err := ValidateTrainOptions(opts); err != nil {
		return Classifier{}, err
	}
	if len(xs) != len(ys) {
		return Classifier{}, eris.Errorf("scorer: %d feature vectors but %d labels", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return Classifier{}, eris.New("scorer: no training data")
	}

	c := Classifier{Trained: true}
	n := float64(len(xs))

	for j := 0; j < NumFeatures; j++ {
		var sum float64
		for _, x := range xs {
			sum += x[j]
		}
		c.Means[j] = sum / n

		var ss float64
		for _, x := range xs {
			d := x[j] - c.Means[j]
			ss += d * d
		}
		c.Scales[j] = math.Sqrt(ss / n)
		if c.Scales[j] == 0 {
			c.Scales[j] = 1
		}
		if !finite(c.Means[j]) || !finite(c.Scales[j]) {
			return Classifier{}, eris.Errorf("scorer: %s values are too large to standardise", featureNames[j])
		}
	}

	zs := make([]FeatureVector, len(xs))
	for i, x := range xs {
		zs[i] = c.standardize(x)
	}

	lambda := 1 / (opts.C * n)
	for it := 0; it < opts.Iterations; it++ {
		var gw FeatureVector
		var gb float64
		for i, z := range zs {
			diff := sigmoid(c.logit(z))
			if ys[i] {
				diff--
			}
			for j := range z {
				gw[j] += diff * z[j]
			}
			gb += diff
		}
		for j := range c.Weights {
			c.Weights[j] -= opts.LearningRate * (gw[j]/n + lambda*c.Weights[j])
		}
		c.Bias -= opts.LearningRate * gb / n
	}

	if !finite(c.Bias) {
		return Classifier{}, eris.New("scorer: training diverged")
	}
	for _, w := range c.Weights {
		if !finite(w) {
			return Classifier{}, eris.New("scorer: training diverged")
		}
	}
	return c, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

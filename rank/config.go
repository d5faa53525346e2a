package rank

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
)

// weightSumEpsilon is the tolerance when checking that weights sum to 1.
const weightSumEpsilon = 1e-9

// Weights are the relative contributions of the seven ranking signals.
// They must each lie in [0,1] and sum to exactly 1.
type Weights struct {
	TFIDF           float64
	LinkAuthority   float64
	DomainAuthority float64
	Recency         float64
	KeywordDensity  float64
	LinkStructure   float64
	Locale          float64
}

// DefaultWeights returns the standard signal weighting.
func DefaultWeights() Weights {
	return Weights{
		TFIDF:           0.25,
		LinkAuthority:   0.20,
		DomainAuthority: 0.15,
		Recency:         0.15,
		KeywordDensity:  0.10,
		LinkStructure:   0.10,
		Locale:          0.05,
	}
}

func (w Weights) sum() float64 {
	return w.TFIDF + w.LinkAuthority + w.DomainAuthority + w.Recency +
		w.KeywordDensity + w.LinkStructure + w.Locale
}

// Validate checks that each weight is in [0,1] and that they sum to 1.
func (w Weights) Validate() error {
	var result *multierror.Error

	for _, field := range []struct {
		name  string
		value float64
	}{
		{"tfidf", w.TFIDF},
		{"link authority", w.LinkAuthority},
		{"domain authority", w.DomainAuthority},
		{"recency", w.Recency},
		{"keyword density", w.KeywordDensity},
		{"link structure", w.LinkStructure},
		{"locale", w.Locale},
	} {
		if field.value < 0 || field.value > 1 {
			result = multierror.Append(result, fmt.Errorf("%s weight must be in [0,1], got %g", field.name, field.value))
		}
	}

	if sum := w.sum(); math.Abs(sum-1.0) > weightSumEpsilon {
		result = multierror.Append(result, fmt.Errorf("weights must sum to 1, got %g", sum))
	}

	return result.ErrorOrNil()
}

// Config holds the ranking parameters.
type Config struct {
	// Weights are the signal weights; see DefaultWeights.
	Weights Weights

	// Damping is the link-authority damping factor.
	Damping float64

	// MaxIterations bounds the link-authority fixed-point iteration.
	MaxIterations int

	// ConvergenceEpsilon stops the iteration early once the total score
	// movement between iterations falls below it.
	ConvergenceEpsilon float64

	// RecencyHalfLifeDays controls how fast the recency signal decays.
	RecencyHalfLifeDays float64

	// DensityCap bounds the keyword-density signal so stuffed pages gain
	// nothing past it.
	DensityCap float64

	// LocalTLDs lists top-level domains granted the locale boost.
	LocalTLDs []string

	// PerDomainCap is the maximum results per domain after diversification.
	PerDomainCap int

	// ScoreEpsilon is the score difference under which two documents are
	// considered tied and ordered by document ID.
	ScoreEpsilon float64
}

// DefaultConfig returns the standard ranking configuration.
func DefaultConfig() *Config {
	return &Config{
		Weights:             DefaultWeights(),
		Damping:             0.85,
		MaxIterations:       50,
		ConvergenceEpsilon:  1e-6,
		RecencyHalfLifeDays: 30,
		DensityCap:          0.1,
		LocalTLDs:           []string{"se"},
		PerDomainCap:        3,
		ScoreEpsilon:        1e-9,
	}
}

// Validate checks the configuration bounds, accumulating all violations.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := c.Weights.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Damping <= 0 || c.Damping >= 1 {
		result = multierror.Append(result, fmt.Errorf("damping must be in (0,1), got %g", c.Damping))
	}
	if c.MaxIterations < 1 {
		result = multierror.Append(result, fmt.Errorf("max iterations must be at least 1, got %d", c.MaxIterations))
	}
	if c.ConvergenceEpsilon <= 0 {
		result = multierror.Append(result, fmt.Errorf("convergence epsilon must be positive, got %g", c.ConvergenceEpsilon))
	}
	if c.RecencyHalfLifeDays <= 0 {
		result = multierror.Append(result, fmt.Errorf("recency half-life must be positive, got %g", c.RecencyHalfLifeDays))
	}
	if c.DensityCap <= 0 || c.DensityCap > 1 {
		result = multierror.Append(result, fmt.Errorf("density cap must be in (0,1], got %g", c.DensityCap))
	}
	if c.PerDomainCap < 1 {
		result = multierror.Append(result, fmt.Errorf("per-domain cap must be at least 1, got %d", c.PerDomainCap))
	}
	if c.ScoreEpsilon <= 0 {
		result = multierror.Append(result, fmt.Errorf("score epsilon must be positive, got %g", c.ScoreEpsilon))
	}

	return result.ErrorOrNil()
}

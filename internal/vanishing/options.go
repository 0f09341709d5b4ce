package vanishing

import (
	"fmt"
	"math"
)

// MinimalSampleSize is the number of lines needed to hypothesize a vanishing point.
const MinimalSampleSize = 2

// minWorkingSet is the smallest working set a round will run on.
const minWorkingSet = 3

// Options tunes the MSAC estimator.
type Options struct {
	// NoiseThreshold is the squared angular residual below which a line is an inlier.
	NoiseThreshold float64 `json:"noise_threshold"`

	// MinIters is the number of trials always run before adaptive stopping applies.
	MinIters int `json:"min_iters"`

	// MaxIters is the hard ceiling on trials per round.
	MaxIters int `json:"max_iters"`

	// Epsilon is the accepted probability of never drawing an all-inlier sample.
	Epsilon float64 `json:"epsilon"`

	// NumVanishingPoints is how many sequential models to extract.
	NumVanishingPoints int `json:"num_vanishing_points"`

	// MaxNoUpdates stops a round after this many consecutive rejected
	// hypotheses once MinIters has passed. Zero disables the check.
	MaxNoUpdates int `json:"max_no_updates"`
}

// DefaultOptions returns the estimator defaults.
func DefaultOptions() Options {
	return Options{
		NoiseThreshold:     0.01623 * 2,
		MinIters:           5,
		MaxIters:           10000,
		Epsilon:            1e-6,
		NumVanishingPoints: 2,
		MaxNoUpdates:       0,
	}
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	switch {
	case o.NumVanishingPoints <= 0:
		return fmt.Errorf("%w: num_vanishing_points must be positive, got %d", ErrInvalidOptions, o.NumVanishingPoints)
	case !(o.NoiseThreshold > 0) || math.IsInf(o.NoiseThreshold, 0):
		return fmt.Errorf("%w: noise_threshold must be positive and finite, got %g", ErrInvalidOptions, o.NoiseThreshold)
	case o.MinIters < 0:
		return fmt.Errorf("%w: min_iters must not be negative, got %d", ErrInvalidOptions, o.MinIters)
	case o.MaxIters <= 0:
		return fmt.Errorf("%w: max_iters must be positive, got %d", ErrInvalidOptions, o.MaxIters)
	case o.MinIters > o.MaxIters:
		return fmt.Errorf("%w: min_iters (%d) exceeds max_iters (%d)", ErrInvalidOptions, o.MinIters, o.MaxIters)
	case !(o.Epsilon > 0 && o.Epsilon < 1):
		return fmt.Errorf("%w: epsilon must be in (0, 1), got %g", ErrInvalidOptions, o.Epsilon)
	case o.MaxNoUpdates < 0:
		return fmt.Errorf("%w: max_no_updates must not be negative, got %d", ErrInvalidOptions, o.MaxNoUpdates)
	}
	return nil
}

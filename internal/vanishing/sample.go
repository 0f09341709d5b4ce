package vanishing

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// degenerateNorm is the cross product norm below which two lines are treated
// as the same great circle.
const degenerateNorm = 1e-12

// Source supplies uniform random integers. *math/rand.Rand satisfies it.
type Source interface {
	// Intn returns a value in [0, n). n is always positive.
	Intn(n int) int
}

// drawPair picks two distinct positions in [0, n) without replacement.
func drawPair(rng Source, n int) (int, int, error) {
	if n < MinimalSampleSize {
		return 0, 0, fmt.Errorf("%w: %d candidates, need %d", ErrInsufficientData, n, MinimalSampleSize)
	}
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	return i, j, nil
}

// intersect returns the unit vanishing point shared by two calibrated lines.
func intersect(a, b r3.Vector) (r3.Vector, error) {
	vp := a.Cross(b)
	n := vp.Norm()
	if n < degenerateNorm {
		return r3.Vector{}, ErrDegenerateHypothesis
	}
	return vp.Mul(1 / n), nil
}

// Hypothesis is a minimal-sample vanishing point candidate.
type Hypothesis struct {
	// Sample holds the two working-set line indices the hypothesis came from.
	Sample [MinimalSampleSize]int
	// Point is the calibrated unit vector.
	Point r3.Vector
}

// Hypothesize draws two distinct candidate lines and intersects them.
// candidates lists the working-set indices eligible for sampling.
func Hypothesize(rng Source, lines []r3.Vector, candidates []int) (Hypothesis, error) {
	i, j, err := drawPair(rng, len(candidates))
	if err != nil {
		return Hypothesis{}, err
	}
	a, b := candidates[i], candidates[j]
	vp, err := intersect(lines[a], lines[b])
	if err != nil {
		return Hypothesis{}, fmt.Errorf("lines %d and %d: %w", a, b, err)
	}
	return Hypothesis{Sample: [MinimalSampleSize]int{a, b}, Point: vp}, nil
}

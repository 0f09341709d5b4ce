package vanishing

import (
	"math"

	"github.com/golang/geo/r3"
)

// Consensus is the outcome of scoring one hypothesis against the working set.
type Consensus struct {
	// Cost is the MSAC cost: truncated residual sum divided by Count.
	Cost float64
	// Count is the number of inliers.
	Count int
	// Labels maps each working-set line to the model it supports or Unassigned.
	Labels []int
	// Residuals holds the squared residual of each working-set line. Lines
	// outside the candidate set are NaN.
	Residuals []float64
}

// Inliers returns the working-set indices labelled with model, in ascending order.
func (c *Consensus) Inliers(model int) []int {
	out := make([]int, 0, c.Count)
	for i, l := range c.Labels {
		if l == model {
			out = append(out, i)
		}
	}
	return out
}

// residual is the squared cosine between a hypothesis and a line normal.
// It is zero when the line passes exactly through the vanishing point.
func residual(vp, line r3.Vector) float64 {
	d := vp.Norm() * line.Norm()
	if d == 0 {
		return math.Inf(1)
	}
	c := vp.Dot(line) / d
	return c * c
}

// Evaluate scores vp against the candidate lines with the Torr MSAC cost.
//
// Inliers (residual <= threshold) add their residual, every other candidate
// adds threshold. Lines not listed in candidates are left Unassigned and do not
// contribute. A hypothesis without inliers returns ErrZeroConsensus and an
// infinite cost.
func Evaluate(vp r3.Vector, lines []r3.Vector, candidates []int, threshold float64, model int) (*Consensus, error) {
	c := &Consensus{
		Labels:    make([]int, len(lines)),
		Residuals: make([]float64, len(lines)),
	}
	for i := range c.Labels {
		c.Labels[i] = Unassigned
		c.Residuals[i] = math.NaN()
	}

	var sum float64
	for _, i := range candidates {
		e := residual(vp, lines[i])
		c.Residuals[i] = e
		if e <= threshold {
			c.Labels[i] = model
			c.Count++
			sum += e
		} else {
			sum += threshold
		}
	}

	if c.Count == 0 {
		c.Cost = math.Inf(1)
		return c, ErrZeroConsensus
	}
	c.Cost = sum / float64(c.Count)
	return c, nil
}

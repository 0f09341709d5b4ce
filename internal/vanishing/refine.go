package vanishing

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// infinityTolerance is the relative size of the homogeneous coordinate below
// which a de-calibrated point is treated as lying at infinity.
const infinityTolerance = 1e-12

// Refine re-estimates a vanishing point from all of its inliers.
//
// With exactly MinimalSampleSize inliers the result is their cross product.
// Otherwise it is the eigenvector of the smallest eigenvalue of the weighted
// scatter matrix A = LᵀWᵀWL, taken as the last right singular vector of A.
func Refine(lines []r3.Vector, weights []float64, inliers []int) (r3.Vector, error) {
	switch {
	case len(inliers) < MinimalSampleSize:
		return r3.Vector{}, fmt.Errorf("%w: %d inliers, need %d", ErrInsufficientData, len(inliers), MinimalSampleSize)
	case len(inliers) == MinimalSampleSize:
		return intersect(lines[inliers[0]], lines[inliers[1]])
	}

	a := mat.NewSymDense(3, nil)
	for _, i := range inliers {
		l := lines[i]
		w2 := weights[i] * weights[i]
		a.SymRankOne(a, w2, mat.NewVecDense(3, []float64{l.X, l.Y, l.Z}))
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return r3.Vector{}, ErrDecompositionFailure
	}
	if values := svd.Values(nil); len(values) < 3 {
		return r3.Vector{}, fmt.Errorf("%w: %d singular values", ErrDecompositionFailure, len(values))
	}
	var v mat.Dense
	svd.VTo(&v)
	if r, c := v.Dims(); r < 3 || c < 3 {
		return r3.Vector{}, fmt.Errorf("%w: V is %dx%d", ErrDecompositionFailure, r, c)
	}

	vp := normalize(r3.Vector{X: v.At(0, 2), Y: v.At(1, 2), Z: v.At(2, 2)})
	if vp.Norm() == 0 || math.IsNaN(vp.X) || math.IsNaN(vp.Y) || math.IsNaN(vp.Z) {
		return r3.Vector{}, fmt.Errorf("%w: null eigenvector", ErrDecompositionFailure)
	}
	return vp, nil
}

// Decalibrate maps a calibrated unit vector back to pixel space with K.
//
// A point whose homogeneous coordinate vanishes lies at infinity. It keeps
// its calibrated form and is reported as KindInfinite.
func Decalibrate(vp r3.Vector, k mat.Matrix) VanishingPoint {
	p := transform(k, vp)
	if math.Abs(p.Z) > infinityTolerance*p.Norm() {
		return VanishingPoint{
			Kind:       KindFinite,
			Position:   r3.Vector{X: p.X / p.Z, Y: p.Y / p.Z, Z: 1},
			Calibrated: vp,
		}
	}
	return VanishingPoint{Kind: KindInfinite, Position: vp, Calibrated: vp}
}

package vanishing

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// DefaultCalibration builds the calibration matrix used when none is supplied:
// focal lengths equal to the image width and height, principal point at the
// image center.
func DefaultCalibration(width, height int) *mat.Dense {
	w, h := float64(width), float64(height)
	return mat.NewDense(3, 3, []float64{
		w, 0, w / 2,
		0, h, h / 2,
		0, 0, 1,
	})
}

// invertCalibration checks the shape of k and returns its inverse.
func invertCalibration(k mat.Matrix) (*mat.Dense, error) {
	if r, c := k.Dims(); r != 3 || c != 3 {
		return nil, fmt.Errorf("%w: want 3x3, got %dx%d", ErrInvalidCalibration, r, c)
	}
	var inv mat.Dense
	if err := inv.Inverse(k); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalibration, err)
	}
	return &inv, nil
}

// Calibrate converts pixel segments into unit great-circle normals and length
// weights.
//
// Both endpoints are homogenized, mapped through K⁻¹ and crossed. Weights are
// pixel lengths divided by their sum over segments, so they sum to one unless
// every segment has zero length, in which case they are all zero. A zero-length
// segment yields the zero vector, which no hypothesis can accept as an inlier.
func Calibrate(segments []Segment, k mat.Matrix) ([]r3.Vector, []float64, error) {
	kinv, err := invertCalibration(k)
	if err != nil {
		return nil, nil, err
	}
	lines := make([]r3.Vector, len(segments))
	weights := make([]float64, len(segments))

	var sum float64
	for i, s := range segments {
		length := s.Length()
		weights[i] = length
		sum += length

		a := transform(kinv, r3.Vector{X: s.A.X, Y: s.A.Y, Z: 1})
		b := transform(kinv, r3.Vector{X: s.B.X, Y: s.B.Y, Z: 1})
		lines[i] = normalize(a.Cross(b))
	}
	if sum > 0 {
		for i := range weights {
			weights[i] /= sum
		}
	}
	return lines, weights, nil
}

// transform multiplies a 3x3 matrix by a homogeneous vector.
func transform(m mat.Matrix, v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z,
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z,
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z,
	}
}

// normalize scales v to unit norm. The zero vector stays zero.
func normalize(v r3.Vector) r3.Vector {
	n := v.Norm()
	if n == 0 {
		return r3.Vector{}
	}
	return v.Mul(1 / n)
}

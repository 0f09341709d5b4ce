package vanishing

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRefine_MinimalSampleMatchesCrossProduct(t *testing.T) {
	lines, weights, err := Calibrate(convergingScene(), DefaultCalibration(testWidth, testHeight))
	require.NoError(t, err)

	for _, pair := range [][]int{{0, 1}, {2, 7}, {3, 9}} {
		want, err := intersect(lines[pair[0]], lines[pair[1]])
		require.NoError(t, err)

		got, err := Refine(lines, weights, pair)
		require.NoError(t, err)
		assert.InDelta(t, want.X, got.X, 1e-12)
		assert.InDelta(t, want.Y, got.Y, 1e-12)
		assert.InDelta(t, want.Z, got.Z, 1e-12)
	}
}

func TestRefine_LeastSquaresRecoversPoint(t *testing.T) {
	k := DefaultCalibration(testWidth, testHeight)
	lines, weights, err := Calibrate(convergingScene(), k)
	require.NoError(t, err)

	vp, err := Refine(lines, weights, []int{0, 1, 2, 3, 4, 5, 6, 7})
	require.NoError(t, err)
	assert.InDelta(t, 1, vp.Norm(), 1e-12)

	p, ok := Decalibrate(vp, k).Pixel()
	require.True(t, ok)
	assert.InDelta(t, 1200, p.X, 10)
	assert.InDelta(t, 200, p.Y, 2)
}

func TestRefine_ExactPencil(t *testing.T) {
	k := DefaultCalibration(testWidth, testHeight)
	vp := Point{X: -150, Y: 900}
	var segs []Segment
	for _, a := range []Point{{X: 10, Y: 10}, {X: 600, Y: 40}, {X: 300, Y: 200}, {X: 500, Y: 470}, {X: 80, Y: 300}} {
		segs = append(segs, Segment{A: a, B: Point{X: a.X + 0.4*(vp.X-a.X), Y: a.Y + 0.4*(vp.Y-a.Y)}})
	}
	lines, weights, err := Calibrate(segs, k)
	require.NoError(t, err)

	got, err := Refine(lines, weights, allIndices(len(segs)))
	require.NoError(t, err)

	p, ok := Decalibrate(got, k).Pixel()
	require.True(t, ok)
	assert.InDelta(t, vp.X, p.X, 1e-6)
	assert.InDelta(t, vp.Y, p.Y, 1e-6)
}

func TestRefine_TooFewInliers(t *testing.T) {
	lines, weights, err := Calibrate(pencilScene(), DefaultCalibration(testWidth, testHeight))
	require.NoError(t, err)

	_, err = Refine(lines, weights, []int{1})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestDecalibrate_Finite(t *testing.T) {
	k := DefaultCalibration(testWidth, testHeight)
	var kinv mat.Dense
	require.NoError(t, kinv.Inverse(k))
	vp := normalize(transform(&kinv, r3.Vector{X: 100, Y: 50, Z: 1}))

	for _, v := range []r3.Vector{vp, vp.Mul(-1)} {
		got := Decalibrate(v, k)
		assert.Equal(t, KindFinite, got.Kind)
		assert.InDelta(t, 100, got.Position.X, 1e-9)
		assert.InDelta(t, 50, got.Position.Y, 1e-9)
		assert.Equal(t, 1.0, got.Position.Z)
		assert.Equal(t, v, got.Calibrated)
	}
}

func TestDecalibrate_Infinite(t *testing.T) {
	vp := normalize(r3.Vector{X: 3, Y: 4})

	got := Decalibrate(vp, DefaultCalibration(testWidth, testHeight))
	assert.Equal(t, KindInfinite, got.Kind)
	assert.Equal(t, vp, got.Position)
	_, ok := got.Pixel()
	assert.False(t, ok)
}

// Two exactly parallel segments: the hypothesis lies at infinity and the
// pipeline must not produce NaN anywhere.
func TestParallelPairBoundary(t *testing.T) {
	k := DefaultCalibration(testWidth, testHeight)
	segs := []Segment{
		{A: Point{X: 0, Y: 100}, B: Point{X: 600, Y: 100}},
		{A: Point{X: 0, Y: 300}, B: Point{X: 600, Y: 300}},
	}
	lines, weights, err := Calibrate(segs, k)
	require.NoError(t, err)

	h, err := Hypothesize(&seqSource{vals: []int{0}}, lines, allIndices(2))
	require.NoError(t, err)

	c, err := Evaluate(h.Point, lines, allIndices(2), 0.01, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Count)
	assert.InDelta(t, 0, c.Cost, 1e-12)

	vp, err := Refine(lines, weights, c.Inliers(0))
	require.NoError(t, err)
	got := Decalibrate(vp, k)
	assert.Equal(t, KindInfinite, got.Kind)
	assert.False(t, math.IsNaN(got.Position.X) || math.IsNaN(got.Position.Y) || math.IsNaN(got.Position.Z))
	assert.InDelta(t, 1, math.Abs(got.Position.X), 1e-12)
}

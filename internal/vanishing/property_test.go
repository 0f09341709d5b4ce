package vanishing

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func propertyParameters() *gopter.TestParameters {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 30
	return params
}

// TestExtract_BestStateIsMonotone verifies J_best never rises and N_I_best
// never falls within a round.
func TestExtract_BestStateIsMonotone(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("best cost non-increasing, best inliers non-decreasing", prop.ForAll(
		func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			segs := append(randomScene(r, 12, 8), randomScene(r, 8, 4)...)

			e, err := NewEstimator(DefaultOptions(), rand.New(rand.NewSource(seed)), nil)
			if err != nil {
				return false
			}
			ok := true
			last := map[int]State{}
			e.onIteration = func(model int, s State) {
				if prev, seen := last[model]; seen {
					if s.Cost > prev.Cost || s.Inliers < prev.Inliers {
						ok = false
					}
				}
				last[model] = s
			}
			if _, err := e.Extract(Input{Segments: segs, Width: testWidth, Height: testHeight}); err != nil {
				return false
			}
			return ok
		},
		gen.Int64Range(1, 1<<40),
	))

	properties.TestingRun(t)
}

// TestExtract_InliersWithinThreshold verifies every stored consensus labels a
// line as inlier exactly when its residual is at most the threshold.
func TestExtract_InliersWithinThreshold(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("labels agree with residuals", prop.ForAll(
		func(seed int64, threshold float64) bool {
			r := rand.New(rand.NewSource(seed))
			segs := randomScene(r, 15, 10)

			opts := DefaultOptions()
			opts.NoiseThreshold = threshold
			e, err := NewEstimator(opts, rand.New(rand.NewSource(seed)), nil)
			if err != nil {
				return false
			}
			ok := true
			e.onIteration = func(model int, s State) {
				if s.Consensus == nil {
					return
				}
				for i, label := range s.Consensus.Labels {
					res := s.Consensus.Residuals[i]
					if math.IsNaN(res) {
						continue
					}
					if (label == model) != (res <= threshold) {
						ok = false
					}
				}
			}
			if _, err := e.Extract(Input{Segments: segs, Width: testWidth, Height: testHeight}); err != nil {
				return false
			}
			return ok
		},
		gen.Int64Range(1, 1<<40),
		gen.Float64Range(1e-4, 0.1),
	))

	properties.TestingRun(t)
}

// TestExtract_ClaimsAreDisjoint verifies no segment supports two points.
func TestExtract_ClaimsAreDisjoint(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("clusters are disjoint and sized by inliers", prop.ForAll(
		func(seed int64, numVP int) bool {
			r := rand.New(rand.NewSource(seed))
			segs := append(randomScene(r, 10, 3), randomScene(r, 10, 3)...)

			opts := DefaultOptions()
			opts.NumVanishingPoints = numVP
			e, err := NewEstimator(opts, rand.New(rand.NewSource(seed)), nil)
			if err != nil {
				return false
			}
			res, err := e.Extract(Input{Segments: segs, Width: testWidth, Height: testHeight})
			if err != nil || len(res.Points) > numVP {
				return false
			}
			seen := make(map[int]bool)
			for i, cluster := range res.Clusters {
				if len(cluster) != res.Inliers[i] || len(cluster) < MinimalSampleSize {
					return false
				}
				for _, idx := range cluster {
					if seen[idx] || idx < 0 || idx >= len(segs) {
						return false
					}
					seen[idx] = true
				}
			}
			return true
		},
		gen.Int64Range(1, 1<<40),
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t)
}

// TestRefine_MinimalSampleMatchesHypothesis verifies refinement of exactly two
// inliers reproduces the sampled intersection.
func TestRefine_MinimalSampleMatchesHypothesis(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("two-line refinement equals the cross product", prop.ForAll(
		func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			lines, weights, err := Calibrate(randomScene(r, 0, 4), DefaultCalibration(testWidth, testHeight))
			if err != nil {
				return false
			}
			h, err := Hypothesize(r, lines, allIndices(len(lines)))
			if err != nil {
				return true
			}
			inliers := []int{h.Sample[0], h.Sample[1]}
			if inliers[0] > inliers[1] {
				inliers[0], inliers[1] = inliers[1], inliers[0]
			}
			vp, err := Refine(lines, weights, inliers)
			if err != nil {
				return false
			}
			return vp.Sub(h.Point).Norm() < 1e-9 || vp.Add(h.Point).Norm() < 1e-9
		},
		gen.Int64Range(1, 1<<40),
	))

	properties.TestingRun(t)
}

// TestDecalibrate_RoundTrip verifies finite pixels survive calibration and back.
func TestDecalibrate_RoundTrip(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())
	k := DefaultCalibration(testWidth, testHeight)
	kinv, err := invertCalibration(k)
	if err != nil {
		t.Fatal(err)
	}

	properties.Property("pixel to sphere and back", prop.ForAll(
		func(x, y float64) bool {
			v := normalize(transform(kinv, r3.Vector{X: x, Y: y, Z: 1}))
			vp := Decalibrate(v, k)
			p, ok := vp.Pixel()
			return ok && math.Abs(p.X-x) < 1e-6 && math.Abs(p.Y-y) < 1e-6
		},
		gen.Float64Range(-5000, 5000),
		gen.Float64Range(-5000, 5000),
	))

	properties.TestingRun(t)
}

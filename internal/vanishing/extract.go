package vanishing

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
)

// parallelCost is the best cost that marks a two-line fit of parallel
// segments. Such fits are emitted without refinement.
const parallelCost = 1.0

// Input is one extraction request.
type Input struct {
	// Segments is the detected line segments. It is never modified.
	Segments []Segment
	// Width and Height give the image size used for the default calibration.
	Width  int
	Height int
	// Calibration overrides the default calibration matrix when non-nil.
	Calibration mat.Matrix
}

// Round reports how one extraction round went.
type Round struct {
	Model      int     `json:"model"`
	WorkingSet int     `json:"working_set"`
	Candidates int     `json:"candidates"`
	Iterations int     `json:"iterations"`
	Trials     int     `json:"trials"`
	// Cost is the best MSAC cost, zero when nothing was accepted.
	Cost       float64 `json:"cost"`
	Inliers    int     `json:"inliers"`
	Refined    bool    `json:"refined"`
	Emitted    bool    `json:"emitted"`
	Error      string  `json:"error,omitempty"`

	// Err is the round-level failure, if any. Round failures never fail Extract.
	Err error `json:"-"`
}

// Result holds the extracted vanishing points. Points, Inliers and Clusters
// are parallel slices in extraction order.
type Result struct {
	Points []VanishingPoint `json:"points"`
	// Inliers is the consensus size of each point.
	Inliers []int `json:"inliers"`
	// Clusters lists, for each point, the original indices of its inlier segments.
	Clusters [][]int `json:"clusters"`
	Rounds   []Round `json:"rounds"`
}

// Pair returns the first two vanishing points, the input a ground-plane
// rectifier expects. ok is false when fewer than two were found.
func (r *Result) Pair() (first, second VanishingPoint, ok bool) {
	if len(r.Points) < 2 {
		return VanishingPoint{}, VanishingPoint{}, false
	}
	return r.Points[0], r.Points[1], true
}

// Estimator extracts vanishing points with MSAC.
type Estimator struct {
	opts   Options
	rng    Source
	logger *slog.Logger

	// onIteration observes controller states. Used by tests.
	onIteration func(model int, s State)
}

// NewEstimator validates opts and returns an estimator drawing samples from rng.
func NewEstimator(opts Options, rng Source, logger *slog.Logger) (*Estimator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidOptions)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{opts: opts, rng: rng, logger: logger}, nil
}

// Options returns the estimator configuration.
func (e *Estimator) Options() Options {
	return e.opts
}

// Extract runs up to NumVanishingPoints sequential MSAC rounds.
//
// Each round works on the segments not yet removed by an earlier round.
// Inliers of an accepted point are claimed so no later round samples or
// scores them again; they leave the working set only when there are more of
// them than the minimal sample size. Round failures end up in Result.Rounds
// and yield fewer points than requested. Only an unusable calibration or
// image size fails the call.
func (e *Estimator) Extract(in Input) (*Result, error) {
	k := in.Calibration
	if k == nil {
		if in.Width <= 0 || in.Height <= 0 {
			return nil, fmt.Errorf("%w: image size %dx%d", ErrInvalidCalibration, in.Width, in.Height)
		}
		k = DefaultCalibration(in.Width, in.Height)
	}
	if _, err := invertCalibration(k); err != nil {
		return nil, err
	}

	// working holds original segment indices in ascending order.
	working := make([]int, len(in.Segments))
	for i := range working {
		working[i] = i
	}
	claimed := make([]bool, len(in.Segments))

	ctl := &controller{opts: e.opts, rng: e.rng}
	res := &Result{}
	for model := 0; model < e.opts.NumVanishingPoints; model++ {
		if e.onIteration != nil {
			m := model
			ctl.onIteration = func(s State) { e.onIteration(m, s) }
		}

		round, inliers, err := e.round(ctl, in.Segments, working, claimed, k, model, res)
		if err != nil {
			round.Err = err
			round.Error = err.Error()
		}
		res.Rounds = append(res.Rounds, round)

		if err != nil && !round.Emitted {
			e.logger.Debug("vanishing point round failed", "model", model, "working_set", round.WorkingSet, "err", err)
			if errors.Is(err, ErrInsufficientData) {
				break
			}
			continue
		}
		if len(inliers) > MinimalSampleSize {
			working = removePositions(working, inliers)
		}
	}
	return res, nil
}

// round runs one extraction round and appends its point to res. It returns
// the working-set positions of the accepted inliers.
func (e *Estimator) round(ctl *controller, segments []Segment, working []int, claimed []bool, k mat.Matrix, model int, res *Result) (Round, []int, error) {
	round := Round{Model: model, WorkingSet: len(working)}

	segs := make([]Segment, len(working))
	candidates := make([]int, 0, len(working))
	for p, idx := range working {
		segs[p] = segments[idx]
		if !claimed[idx] {
			candidates = append(candidates, p)
		}
	}
	round.Candidates = len(candidates)
	if len(working) < minWorkingSet || len(candidates) < MinimalSampleSize {
		return round, nil, fmt.Errorf("%w: %d segments, %d unclaimed", ErrInsufficientData, len(working), len(candidates))
	}

	lines, weights, err := Calibrate(segs, k)
	if err != nil {
		return round, nil, err
	}

	state, err := ctl.run(lines, candidates, model)
	if state != nil {
		round.Iterations = state.Iteration
		round.Trials = state.Trials
		if state.Best != nil {
			round.Cost = state.Cost
		}
	}
	if err != nil {
		return round, nil, err
	}

	inliers := state.Consensus.Inliers(model)
	vp := state.Best.Point
	var roundErr error
	switch {
	case len(inliers) == MinimalSampleSize && math.Abs(state.Cost-parallelCost) < 1e-6:
		e.logger.Debug("parallel two-line fit, skipping refinement", "model", model)
	default:
		refined, err := Refine(lines, weights, inliers)
		if err != nil {
			// Keep the minimal-sample hypothesis.
			e.logger.Warn("refinement failed, using minimal-sample hypothesis", "model", model, "err", err)
			roundErr = err
			break
		}
		vp = refined
		round.Refined = len(inliers) > MinimalSampleSize
	}

	point := Decalibrate(vp, k)
	cluster := make([]int, len(inliers))
	for i, p := range inliers {
		cluster[i] = working[p]
		claimed[working[p]] = true
	}

	res.Points = append(res.Points, point)
	res.Inliers = append(res.Inliers, len(inliers))
	res.Clusters = append(res.Clusters, cluster)

	round.Inliers = len(inliers)
	round.Emitted = true
	e.logger.Debug("vanishing point extracted",
		"model", model,
		"kind", point.Kind,
		"inliers", len(inliers),
		"iterations", state.Iteration,
		"cost", state.Cost)
	return round, inliers, roundErr
}

// removePositions drops the given ascending positions from working.
func removePositions(working, positions []int) []int {
	out := make([]int, 0, len(working)-len(positions))
	next := 0
	for p, idx := range working {
		if next < len(positions) && positions[next] == p {
			next++
			continue
		}
		out = append(out, idx)
	}
	return out
}

package vanishing

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// State is the adaptive RANSAC state of one extraction round. A fresh State
// is built for every round.
type State struct {
	// Iteration counts drawn hypotheses, degenerate ones included.
	Iteration int
	// Trials is the adaptive trial count T_iter.
	Trials int
	// Cost is the best MSAC cost seen, +Inf until a hypothesis is accepted.
	Cost float64
	// Inliers is the best inlier count. It starts at MinimalSampleSize and only grows.
	Inliers int
	// NoUpdates counts consecutive rejected hypotheses.
	NoUpdates int
	// Accepted counts accepted hypotheses.
	Accepted int

	// Best is the accepted minimal-sample hypothesis, nil until one is accepted.
	Best *Hypothesis
	// Consensus is the consensus set of Best.
	Consensus *Consensus
}

func newState(candidates int, epsilon float64) *State {
	return &State{
		Cost:    math.Inf(1),
		Inliers: MinimalSampleSize,
		Trials:  trialCount(MinimalSampleSize, candidates, epsilon),
	}
}

// trialCount is the number of trials needed to draw an all-inlier minimal
// sample with probability 1-epsilon when inliers of total lines are inliers.
func trialCount(inliers, total int, epsilon float64) int {
	q := 1.0
	if inliers != total {
		for j := 0; j < MinimalSampleSize; j++ {
			q *= float64(inliers-j) / float64(total-j)
		}
	}
	if 1-q <= 1e-12 {
		return 0
	}
	t := math.Ceil(math.Log(epsilon) / math.Log(1-q))
	if t > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(t)
}

// accepts applies the MSAC update rule to a scored hypothesis.
func (s *State) accepts(c *Consensus) bool {
	return (c.Count >= MinimalSampleSize && c.Cost < s.Cost) ||
		(c.Cost == s.Cost && c.Count > s.Inliers)
}

// update stores an accepted hypothesis and re-estimates the trial count when
// the inlier count grew.
func (s *State) update(h Hypothesis, c *Consensus, candidates int, epsilon float64) {
	s.Cost = c.Cost
	s.Best = &h
	s.Consensus = c
	s.Accepted++
	s.NoUpdates = 0
	if c.Count > s.Inliers {
		s.Inliers = c.Count
		s.Trials = trialCount(s.Inliers, candidates, epsilon)
	}
}

// running reports whether the loop condition still holds before the next trial.
func (s *State) running(o Options) bool {
	if s.Iteration <= o.MinIters {
		return true
	}
	if o.MaxNoUpdates > 0 && s.NoUpdates > o.MaxNoUpdates {
		return false
	}
	return s.Iteration <= s.Trials && s.Iteration <= o.MaxIters
}

// controller drives the hypothesize / evaluate / update loop of one round.
type controller struct {
	opts Options
	rng  Source

	// onIteration, when set, observes the state after every trial.
	onIteration func(State)
}

// run executes one round over the candidate lines and labels inliers with model.
//
// lines is the calibrated working set. candidates lists the working-set
// indices still unclaimed by earlier models. The returned state has a nil Best
// when no hypothesis was accepted, in which case the error says why.
func (c *controller) run(lines []r3.Vector, candidates []int, model int) (*State, error) {
	if len(lines) < minWorkingSet {
		return nil, fmt.Errorf("%w: working set has %d lines, need %d", ErrInsufficientData, len(lines), minWorkingSet)
	}
	if len(candidates) < MinimalSampleSize {
		return nil, fmt.Errorf("%w: %d unclaimed lines, need %d", ErrInsufficientData, len(candidates), MinimalSampleSize)
	}

	s := newState(len(candidates), c.opts.Epsilon)
	var lastErr error
	for s.running(c.opts) && s.Iteration < c.opts.MaxIters {
		s.Iteration++

		h, err := Hypothesize(c.rng, lines, candidates)
		if err != nil {
			if !errors.Is(err, ErrDegenerateHypothesis) {
				return s, err
			}
			lastErr = err
			s.NoUpdates++
			c.observe(s)
			continue
		}

		cs, err := Evaluate(h.Point, lines, candidates, c.opts.NoiseThreshold, model)
		switch {
		case err != nil:
			lastErr = err
			s.NoUpdates++
		case s.accepts(cs):
			s.update(h, cs, len(candidates), c.opts.Epsilon)
		default:
			s.NoUpdates++
		}
		c.observe(s)

		if s.Inliers == len(candidates) {
			break
		}
	}

	if s.Best == nil {
		if lastErr == nil {
			lastErr = ErrZeroConsensus
		}
		return s, lastErr
	}
	return s, nil
}

func (c *controller) observe(s *State) {
	if c.onIteration != nil {
		c.onIteration(*s)
	}
}

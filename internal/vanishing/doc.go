// Package vanishing estimates multiple vanishing points from 2D line segments.
//
// The estimator is an MSAC (M-estimator sample consensus) variant of RANSAC.
// Each extraction round draws pairs of calibrated lines, scores the resulting
// hypothesis with a truncated quadratic cost, adapts the number of trials to
// the observed inlier ratio and finally refines the winner with a weighted
// total least squares fit over its consensus set. Rounds run sequentially and
// every accepted direction claims its inliers so that later rounds look for a
// different direction.
//
// # Calibrated Representation
//
// Segment endpoints are mapped through the inverse calibration matrix K⁻¹ and
// joined by a cross product. The resulting unit vector is the normal of the
// great circle the segment spans on the unit sphere. A vanishing point is a
// unit vector orthogonal to all lines that converge to it, so the residual of
// a line against a hypothesis is the squared cosine between the two vectors.
//
// # Finite and Infinite Points
//
// Results are de-calibrated with K. When the homogeneous coordinate vanishes
// the point lies at infinity and is reported in calibrated form instead, see
// [Kind]. Callers must not mix the two representations.
//
// # Reproducibility
//
// The only source of non-determinism is the sampler. [NewEstimator] takes a
// [Source]; a seeded *rand.Rand gives a fixed extraction trace.
//
// An [Estimator] owns its random source and is not safe for concurrent use.
// Create one per goroutine.
package vanishing

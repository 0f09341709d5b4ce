package vanishing

import "errors"

var (
	// ErrInsufficientData is returned when a round has too few lines to form a hypothesis.
	ErrInsufficientData = errors.New("insufficient line segments")

	// ErrDegenerateHypothesis is returned when a minimal sample spans a single
	// great circle and the cross product has no direction.
	ErrDegenerateHypothesis = errors.New("degenerate hypothesis")

	// ErrZeroConsensus is returned when no line supports a hypothesis.
	ErrZeroConsensus = errors.New("hypothesis has no inliers")

	// ErrDecompositionFailure is returned when the refinement SVD cannot be computed.
	ErrDecompositionFailure = errors.New("scatter matrix decomposition failed")

	// ErrInvalidOptions is returned for configurations rejected before extraction.
	ErrInvalidOptions = errors.New("invalid options")

	// ErrInvalidCalibration is returned for a calibration matrix that is not 3x3 or is singular.
	ErrInvalidCalibration = errors.New("invalid calibration matrix")
)

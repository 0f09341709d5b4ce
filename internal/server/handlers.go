package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/vanishing-point-mcp/internal/config"
	"github.com/ironsheep/vanishing-point-mcp/internal/detection"
	"github.com/ironsheep/vanishing-point-mcp/internal/imaging"
	"github.com/ironsheep/vanishing-point-mcp/internal/vanishing"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_vanishing_points").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// argumentError marks a tool failure caused by the caller's arguments.
type argumentError struct {
	err error
}

func (e *argumentError) Error() string { return e.err.Error() }
func (e *argumentError) Unwrap() error { return e.err }

func invalidArgs(format string, args ...interface{}) error {
	return &argumentError{err: fmt.Errorf(format, args...)}
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Bad arguments and unknown tools return -32602, any other tool failure -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.CallTool(params.Name, params.Arguments)
	if err != nil {
		if IsArgumentError(err) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailure, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// CallTool runs the named tool with JSON arguments and records call metrics.
// The CLI uses it to run tools outside the JSON-RPC loop.
func (s *Server) CallTool(name string, args json.RawMessage) (interface{}, error) {
	label := name
	if !isKnownTool(label) {
		label = "unknown"
	}

	start := time.Now()
	result, err := s.executeTool(name, args)
	toolCallDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if err != nil {
		toolCallsTotal.WithLabelValues(label, "error").Inc()
		s.logger.Warn("tool call failed", "tool", name, "err", err)
		return nil, err
	}
	toolCallsTotal.WithLabelValues(label, "ok").Inc()
	s.logger.Debug("tool call done", "tool", name, "duration", time.Since(start))
	return result, nil
}

// IsArgumentError reports whether err was caused by invalid tool arguments.
func IsArgumentError(err error) bool {
	var argErr *argumentError
	return errors.As(err, &argErr)
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_evict":
		return s.handleImageEvict(args)

	// Line Segments
	case "image_detect_segments":
		return s.handleImageDetectSegments(args)

	// Vanishing Points
	case "image_vanishing_points":
		return s.handleImageVanishingPoints(args)
	case "vanishing_points_from_segments":
		return s.handleVanishingPointsFromSegments(args)

	default:
		return nil, invalidArgs("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments; absent arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &argumentError{err: err}
	}
	return nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (a imageLoadArgs) validate() error {
	if a.Path == "" {
		return invalidArgs("path is required")
	}
	return nil
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageEvictArgs struct {
	Path string `json:"path"`
	All  bool   `json:"all"`
}

type evictResult struct {
	Evicted      string `json:"evicted,omitempty"`
	Cleared      bool   `json:"cleared,omitempty"`
	CachedImages int    `json:"cached_images"`
}

func (s *Server) handleImageEvict(args json.RawMessage) (interface{}, error) {
	var a imageEvictArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.All {
		s.cache.Clear()
		return evictResult{Cleared: true, CachedImages: s.cache.Len()}, nil
	}
	if a.Path == "" {
		return nil, invalidArgs("path is required unless all is set")
	}
	s.cache.Evict(a.Path)
	return evictResult{Evicted: a.Path, CachedImages: s.cache.Len()}, nil
}

// === Line Segment Handlers ===

// detectArgs overrides the configured detection settings for one call.
type detectArgs struct {
	Path            string `json:"path"`
	ProcessingWidth *int   `json:"processing_width"`
	Threshold       *int   `json:"threshold"`
	MinLength       *int   `json:"min_length"`
	MaxGap          *int   `json:"max_gap"`
	MaxSegments     *int   `json:"max_segments"`
}

func (a detectArgs) apply(d config.DetectionConfig) config.DetectionConfig {
	if a.ProcessingWidth != nil {
		d.ProcessingWidth = *a.ProcessingWidth
	}
	if a.Threshold != nil {
		d.Threshold = *a.Threshold
	}
	if a.MinLength != nil {
		d.MinLength = *a.MinLength
	}
	if a.MaxGap != nil {
		d.MaxGap = *a.MaxGap
	}
	if a.MaxSegments != nil {
		d.MaxSegments = *a.MaxSegments
	}
	return d
}

type segmentsToolResult struct {
	Segments         []detection.Segment `json:"segments"`
	Count            int                 `json:"count"`
	Threshold        int                 `json:"threshold"`
	ProcessingWidth  int                 `json:"processing_width"`
	ProcessingHeight int                 `json:"processing_height"`
	Scale            float64             `json:"scale"`
}

func (s *Server) handleImageDetectSegments(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	frame, det, err := s.detect(a)
	if err != nil {
		return nil, err
	}

	segments := make([]detection.Segment, len(det.Segments))
	for i, seg := range det.Segments {
		segments[i] = scaleSegment(seg, frame)
	}
	return &segmentsToolResult{
		Segments:         segments,
		Count:            det.Count,
		Threshold:        det.Threshold,
		ProcessingWidth:  frame.Width(),
		ProcessingHeight: frame.Height(),
		Scale:            frame.Scale,
	}, nil
}

// detect loads the processing frame for a.Path and finds its line segments.
// Segment coordinates are in the processing frame.
func (s *Server) detect(a detectArgs) (*imaging.Frame, *detection.SegmentsResult, error) {
	if a.Path == "" {
		return nil, nil, invalidArgs("path is required")
	}
	d := a.apply(s.cfg.Detection)
	if d.ProcessingWidth < 0 {
		return nil, nil, invalidArgs("processing_width must not be negative")
	}
	opts := d.SegmentOptions()
	if err := opts.Validate(); err != nil {
		return nil, nil, &argumentError{err: err}
	}

	frame, err := s.cache.LoadFrame(a.Path, d.ProcessingWidth)
	if err != nil {
		return nil, nil, err
	}
	det, err := detection.DetectSegments(frame.Image, opts)
	if err != nil {
		return nil, nil, err
	}
	segmentsDetected.Observe(float64(det.Count))
	return frame, det, nil
}

// scaleSegment maps a processing-frame segment onto the original image.
func scaleSegment(seg detection.Segment, frame *imaging.Frame) detection.Segment {
	if frame.Scale == 1 {
		return seg
	}
	p := func(pt detection.Point) detection.Point {
		x, y := frame.ToOriginal(float64(pt.X), float64(pt.Y))
		return detection.Point{X: int(math.Round(x)), Y: int(math.Round(y))}
	}
	seg.Start = p(seg.Start)
	seg.End = p(seg.End)
	seg.Length = math.Round(seg.Length*frame.Scale*10) / 10
	return seg
}

func toVanishingSegments(segs []detection.Segment) []vanishing.Segment {
	out := make([]vanishing.Segment, len(segs))
	for i, seg := range segs {
		out[i] = vanishing.Segment{
			A: vanishing.Point{X: float64(seg.Start.X), Y: float64(seg.Start.Y)},
			B: vanishing.Point{X: float64(seg.End.X), Y: float64(seg.End.Y)},
		}
	}
	return out
}

// === Vanishing Point Handlers ===

// estimateArgs overrides the configured MSAC settings for one call.
type estimateArgs struct {
	NumVanishingPoints *int     `json:"num_vanishing_points"`
	NoiseThreshold     *float64 `json:"noise_threshold"`
	MaxIters           *int     `json:"max_iters"`
	Seed               *int64   `json:"seed"`
}

func (a estimateArgs) apply(m config.MSACConfig) config.MSACConfig {
	if a.NumVanishingPoints != nil {
		m.NumVanishingPoints = *a.NumVanishingPoints
	}
	if a.NoiseThreshold != nil {
		m.NoiseThreshold = *a.NoiseThreshold
	}
	if a.MaxIters != nil {
		m.MaxIters = *a.MaxIters
	}
	if a.Seed != nil {
		m.Seed = *a.Seed
	}
	return m
}

// vanishingPointResult is one vanishing point in the tool output.
type vanishingPointResult struct {
	Kind string `json:"kind"`
	// Pixel is set for finite points, in original image coordinates.
	Pixel *vanishing.Point `json:"pixel,omitempty"`
	// Direction is the unit vector on the calibrated sphere.
	Direction [3]float64 `json:"direction"`
	Inliers   int        `json:"inliers"`
	// Segments are the indices of the supporting segments.
	Segments []int `json:"segments"`
}

type vanishingPointsToolResult struct {
	VanishingPoints []vanishingPointResult `json:"vanishing_points"`
	Count           int                    `json:"count"`
	SegmentCount    int                    `json:"segment_count"`
	// HasPair is true when two points were found, the input of a
	// ground-plane rectification.
	HasPair  bool                `json:"has_pair"`
	Rounds   []vanishing.Round   `json:"rounds"`
	Detected []detection.Segment `json:"detected_segments,omitempty"`
}

// newVanishingPointsResult converts res for output. Finite points are mapped
// through frame when it is non-nil.
func newVanishingPointsResult(res *vanishing.Result, segmentCount int, frame *imaging.Frame) *vanishingPointsToolResult {
	out := &vanishingPointsToolResult{
		VanishingPoints: make([]vanishingPointResult, len(res.Points)),
		Count:           len(res.Points),
		SegmentCount:    segmentCount,
		Rounds:          res.Rounds,
	}
	_, _, out.HasPair = res.Pair()

	for i, vp := range res.Points {
		r := vanishingPointResult{
			Kind:      vp.Kind.String(),
			Direction: [3]float64{vp.Calibrated.X, vp.Calibrated.Y, vp.Calibrated.Z},
			Inliers:   res.Inliers[i],
			Segments:  res.Clusters[i],
		}
		if p, ok := vp.Pixel(); ok {
			if frame != nil {
				p.X, p.Y = frame.ToOriginal(p.X, p.Y)
			}
			r.Pixel = &p
		}
		out.VanishingPoints[i] = r
	}
	return out
}

type imageVanishingPointsArgs struct {
	detectArgs
	estimateArgs
	IncludeSegments bool `json:"include_segments"`
}

func (s *Server) handleImageVanishingPoints(args json.RawMessage) (interface{}, error) {
	var a imageVanishingPointsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	frame, det, err := s.detect(a.detectArgs)
	if err != nil {
		return nil, err
	}

	msac := a.estimateArgs.apply(s.cfg.MSAC)
	in := vanishing.Input{
		Segments: toVanishingSegments(det.Segments),
		Width:    frame.Width(),
		Height:   frame.Height(),
	}
	res, err := s.estimate(in, msac)
	if err != nil {
		return nil, err
	}

	out := newVanishingPointsResult(res, det.Count, frame)
	if a.IncludeSegments {
		out.Detected = make([]detection.Segment, len(det.Segments))
		for i, seg := range det.Segments {
			out.Detected[i] = scaleSegment(seg, frame)
		}
	}
	return out, nil
}

type segmentArg struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type fromSegmentsArgs struct {
	estimateArgs
	Segments    []segmentArg `json:"segments"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Calibration [][]float64  `json:"calibration"`
}

func (s *Server) handleVanishingPointsFromSegments(args json.RawMessage) (interface{}, error) {
	var a fromSegmentsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	in := vanishing.Input{
		Segments: make([]vanishing.Segment, len(a.Segments)),
		Width:    a.Width,
		Height:   a.Height,
	}
	for i, seg := range a.Segments {
		in.Segments[i] = vanishing.Segment{
			A: vanishing.Point{X: seg.X1, Y: seg.Y1},
			B: vanishing.Point{X: seg.X2, Y: seg.Y2},
		}
	}
	if a.Calibration != nil {
		k, err := calibrationMatrix(a.Calibration)
		if err != nil {
			return nil, err
		}
		in.Calibration = k
	} else if a.Width <= 0 || a.Height <= 0 {
		return nil, invalidArgs("width and height are required without a calibration matrix")
	}

	res, err := s.estimate(in, a.estimateArgs.apply(s.cfg.MSAC))
	if err != nil {
		return nil, err
	}
	return newVanishingPointsResult(res, len(in.Segments), nil), nil
}

// calibrationMatrix builds K from a row-major 3x3 array.
func calibrationMatrix(rows [][]float64) (*mat.Dense, error) {
	if len(rows) != 3 {
		return nil, invalidArgs("calibration must have 3 rows, got %d", len(rows))
	}
	data := make([]float64, 0, 9)
	for i, row := range rows {
		if len(row) != 3 {
			return nil, invalidArgs("calibration row %d must have 3 columns, got %d", i, len(row))
		}
		data = append(data, row...)
	}
	return mat.NewDense(3, 3, data), nil
}

// estimate runs sequential MSAC extraction and records estimation metrics.
// Each call seeds its own source, so equal requests get equal answers.
func (s *Server) estimate(in vanishing.Input, msac config.MSACConfig) (*vanishing.Result, error) {
	est, err := vanishing.NewEstimator(msac.Options(), rand.New(rand.NewSource(msac.Seed)), s.logger)
	if err != nil {
		return nil, &argumentError{err: err}
	}
	res, err := est.Extract(in)
	if err != nil {
		if errors.Is(err, vanishing.ErrInvalidCalibration) {
			return nil, &argumentError{err: err}
		}
		return nil, err
	}

	for _, r := range res.Rounds {
		if r.Iterations > 0 {
			ransacIterations.Observe(float64(r.Iterations))
		}
		if !r.Emitted && r.Err != nil {
			roundFailuresTotal.WithLabelValues(failureReason(r.Err)).Inc()
		}
	}
	vanishingPointsFound.Observe(float64(len(res.Points)))
	return res, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, vanishing.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, vanishing.ErrDegenerateHypothesis):
		return "degenerate_hypothesis"
	case errors.Is(err, vanishing.ErrZeroConsensus):
		return "zero_consensus"
	case errors.Is(err, vanishing.ErrDecompositionFailure):
		return "decomposition_failure"
	default:
		return "other"
	}
}

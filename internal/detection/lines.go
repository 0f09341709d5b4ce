package detection

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"
)

const (
	numAngles = 180

	// smallImageArea is the pixel area below which the vote threshold is
	// scaled to two thirds.
	smallImageArea = 400 * 400

	// thresholdStep is added to the vote threshold while too many peaks qualify.
	thresholdStep = 10

	// lineTolerance is the distance in pixels within which an edge pixel
	// belongs to a peak line.
	lineTolerance = 2.0
)

// ErrEmptyImage is returned for images without pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// SegmentOptions tunes DetectSegments.
type SegmentOptions struct {
	// Threshold is the minimum number of Hough votes for a line.
	Threshold int `json:"threshold"`
	// MinLength is the minimum segment length in pixels.
	MinLength int `json:"min_length"`
	// MaxGap is the largest gap in pixels bridged within one segment.
	MaxGap int `json:"max_gap"`
	// MaxSegments caps the number of qualifying peaks and returned segments.
	MaxSegments int `json:"max_segments"`
	// EdgeThreshold is the Sobel magnitude above which a pixel is an edge.
	EdgeThreshold uint8 `json:"edge_threshold"`
	// BlurRadius is the Gaussian blur radius applied before edge detection.
	BlurRadius float64 `json:"blur_radius"`
}

// DefaultSegmentOptions returns the detector defaults.
func DefaultSegmentOptions() SegmentOptions {
	return SegmentOptions{
		Threshold:     120,
		MinLength:     80,
		MaxGap:        60,
		MaxSegments:   200,
		EdgeThreshold: 100,
		BlurRadius:    1,
	}
}

// Validate reports options the detector cannot run with.
func (o SegmentOptions) Validate() error {
	switch {
	case o.Threshold <= 0:
		return fmt.Errorf("threshold must be positive, got %d", o.Threshold)
	case o.MinLength < 1:
		return fmt.Errorf("min_length must be at least 1, got %d", o.MinLength)
	case o.MaxGap < 0:
		return fmt.Errorf("max_gap must not be negative, got %d", o.MaxGap)
	case o.MaxSegments <= 0:
		return fmt.Errorf("max_segments must be positive, got %d", o.MaxSegments)
	case o.BlurRadius < 0:
		return fmt.Errorf("blur_radius must not be negative, got %g", o.BlurRadius)
	}
	return nil
}

// Segment represents a detected line segment
type Segment struct {
	Start        Point   `json:"start"`
	End          Point   `json:"end"`
	Length       float64 `json:"length"`
	AngleDegrees float64 `json:"angle_degrees"`
	Votes        int     `json:"votes"`
	Color        string  `json:"color"`
}

// SegmentsResult contains detected segments
type SegmentsResult struct {
	Segments []Segment `json:"segments"`
	Count    int       `json:"count"`
	// Threshold is the vote threshold the segments were found with.
	Threshold int `json:"threshold"`
	Width     int `json:"width"`
	Height    int `json:"height"`
}

type peak struct {
	rho   int
	theta int
	votes int
}

// DetectSegments finds straight line segments in an image using a Hough transform
func DetectSegments(img image.Image, opts SegmentOptions) (*SegmentsResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyImage
	}

	edges := EdgeMap(img, opts.BlurRadius, opts.EdgeThreshold)
	points := edgePoints(edges)

	maxDist := int(math.Ceil(math.Hypot(float64(width), float64(height))))
	accumulator := vote(points, maxDist)

	threshold := opts.Threshold
	if width*height < smallImageArea {
		threshold = threshold * 2 / 3
	}
	peaks := findPeaks(accumulator, maxDist, threshold)
	for len(peaks) > opts.MaxSegments {
		threshold += thresholdStep
		peaks = findPeaks(accumulator, maxDist, threshold)
	}

	segments := make([]Segment, 0)
	used := make([]bool, len(points))
	for _, pk := range peaks {
		if len(segments) >= opts.MaxSegments {
			break
		}
		for _, run := range traceRuns(points, used, pk, opts) {
			if len(segments) >= opts.MaxSegments {
				break
			}
			segments = append(segments, newSegment(img, run, pk.votes))
		}
	}

	return &SegmentsResult{
		Segments:  segments,
		Count:     len(segments),
		Threshold: threshold,
		Width:     width,
		Height:    height,
	}, nil
}

// vote fills the Hough accumulator, indexed [rho+maxDist][theta].
func vote(points []Point, maxDist int) [][]int {
	accumulator := make([][]int, maxDist*2)
	for i := range accumulator {
		accumulator[i] = make([]int, numAngles)
	}
	cos, sin := trigTables()
	for _, p := range points {
		for theta := 0; theta < numAngles; theta++ {
			rho := float64(p.X)*cos[theta] + float64(p.Y)*sin[theta]
			rhoIdx := int(math.Round(rho)) + maxDist
			if rhoIdx >= 0 && rhoIdx < maxDist*2 {
				accumulator[rhoIdx][theta]++
			}
		}
	}
	return accumulator
}

func trigTables() (cos, sin [numAngles]float64) {
	for theta := 0; theta < numAngles; theta++ {
		angle := float64(theta) * math.Pi / 180.0
		cos[theta] = math.Cos(angle)
		sin[theta] = math.Sin(angle)
	}
	return cos, sin
}

// findPeaks returns the local maxima at or above threshold, strongest first.
func findPeaks(accumulator [][]int, maxDist, threshold int) []peak {
	peaks := make([]peak, 0)
	for rhoIdx := range accumulator {
		for theta := 0; theta < numAngles; theta++ {
			votes := accumulator[rhoIdx][theta]
			if votes < threshold || !isLocalMax(accumulator, rhoIdx, theta) {
				continue
			}
			peaks = append(peaks, peak{rho: rhoIdx - maxDist, theta: theta, votes: votes})
		}
	}
	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].votes > peaks[j].votes
	})
	return peaks
}

// isLocalMax checks a 5x5 neighbourhood; theta wraps around.
func isLocalMax(accumulator [][]int, rhoIdx, theta int) bool {
	v := accumulator[rhoIdx][theta]
	for dr := -2; dr <= 2; dr++ {
		nr := rhoIdx + dr
		if nr < 0 || nr >= len(accumulator) {
			continue
		}
		for dt := -2; dt <= 2; dt++ {
			if dr == 0 && dt == 0 {
				continue
			}
			nt := (theta + dt + numAngles) % numAngles
			if accumulator[nr][nt] > v {
				return false
			}
		}
	}
	return true
}

// traceRuns collects unused edge pixels near the peak line, orders them along
// it and splits them into runs at gaps wider than MaxGap. Pixels of accepted
// runs are marked used, together with the parallel edge band alongside them
// so the other flank of the same stroke is not reported again.
func traceRuns(points []Point, used []bool, pk peak, opts SegmentOptions) [][]Point {
	angle := float64(pk.theta) * math.Pi / 180.0
	cosA, sinA := math.Cos(angle), math.Sin(angle)
	rho := float64(pk.rho)

	type onLine struct {
		idx int
		t   float64
	}
	near := make([]onLine, 0)
	band := make([]onLine, 0)
	for i, p := range points {
		if used[i] {
			continue
		}
		d := math.Abs(float64(p.X)*cosA + float64(p.Y)*sinA - rho)
		t := -float64(p.X)*sinA + float64(p.Y)*cosA
		switch {
		case d < lineTolerance:
			near = append(near, onLine{idx: i, t: t})
		case d < 2*lineTolerance:
			band = append(band, onLine{idx: i, t: t})
		}
	}
	if len(near) < 2 {
		return nil
	}
	sort.Slice(near, func(i, j int) bool { return near[i].t < near[j].t })

	runs := make([][]Point, 0)
	spans := make([][2]float64, 0)
	start := 0
	flush := func(end int) {
		if near[end-1].t-near[start].t < float64(opts.MinLength) {
			return
		}
		run := make([]Point, 0, end-start)
		for _, n := range near[start:end] {
			used[n.idx] = true
			run = append(run, points[n.idx])
		}
		runs = append(runs, run)
		spans = append(spans, [2]float64{near[start].t, near[end-1].t})
	}
	for i := 1; i < len(near); i++ {
		if near[i].t-near[i-1].t > float64(opts.MaxGap) {
			flush(i)
			start = i
		}
	}
	flush(len(near))

	for _, b := range band {
		for _, span := range spans {
			if b.t >= span[0] && b.t <= span[1] {
				used[b.idx] = true
				break
			}
		}
	}
	return runs
}

// newSegment builds a segment from a run ordered along its line.
func newSegment(img image.Image, run []Point, votes int) Segment {
	bounds := img.Bounds()
	start, end := run[0], run[len(run)-1]

	dx := float64(end.X - start.X)
	dy := float64(end.Y - start.Y)
	length := math.Sqrt(dx*dx + dy*dy)
	angleDeg := math.Atan2(dy, dx) * 180 / math.Pi

	midX := (start.X + end.X) / 2
	midY := (start.Y + end.Y) / 2

	return Segment{
		Start:        Point{X: start.X + bounds.Min.X, Y: start.Y + bounds.Min.Y},
		End:          Point{X: end.X + bounds.Min.X, Y: end.Y + bounds.Min.Y},
		Length:       math.Round(length*10) / 10,
		AngleDegrees: math.Round(angleDeg*10) / 10,
		Votes:        votes,
		Color:        sampleColorHex(img, midX+bounds.Min.X, midY+bounds.Min.Y),
	}
}

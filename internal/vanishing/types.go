package vanishing

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Point is a pixel-space position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a line segment in pixel space, as produced by a line detector.
type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Length returns the Euclidean pixel length of the segment.
func (s Segment) Length() float64 {
	return math.Hypot(s.B.X-s.A.X, s.B.Y-s.A.Y)
}

// Kind tells which representation a vanishing point is expressed in.
type Kind int

const (
	// KindFinite points are de-calibrated pixel coordinates with Z == 1.
	KindFinite Kind = iota
	// KindInfinite points lie at infinity and stay as calibrated unit vectors.
	KindInfinite
)

func (k Kind) String() string {
	switch k {
	case KindFinite:
		return "finite"
	case KindInfinite:
		return "infinite"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText encodes the kind as its name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// VanishingPoint is one extracted direction.
//
// For KindFinite, Position holds pixel coordinates (x, y, 1). For KindInfinite,
// Position holds the unit direction in calibrated coordinates.
type VanishingPoint struct {
	Kind     Kind      `json:"kind"`
	Position r3.Vector `json:"position"`

	// Calibrated is the unit-sphere vector the point was de-calibrated from.
	Calibrated r3.Vector `json:"calibrated"`
}

// Pixel returns the pixel coordinates of a finite point.
// ok is false for points at infinity.
func (v VanishingPoint) Pixel() (Point, bool) {
	if v.Kind != KindFinite {
		return Point{}, false
	}
	return Point{X: v.Position.X, Y: v.Position.Y}, true
}

// Unassigned labels a line that supports no vanishing point.
const Unassigned = -1

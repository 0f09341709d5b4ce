package detection

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// EdgeMap returns a binary edge map of img indexed as edges[y][x].
//
// The image is blurred with a Gaussian of the given radius (no blur when
// radius <= 0), converted to grayscale and passed through a Sobel filter.
// Pixels whose gradient magnitude exceeds threshold are edges. Pixels within
// the filter margin of the border are never edges since the kernels have no
// full neighbourhood there.
func EdgeMap(img image.Image, radius float64, threshold uint8) [][]bool {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var src image.Image = img
	margin := 1
	if radius > 0 {
		src = blur.Gaussian(src, radius)
		margin += int(math.Ceil(3 * radius))
	}
	var gray image.Image = effect.Grayscale(src)
	var magnitude image.Image = effect.Sobel(gray)
	mb := magnitude.Bounds()

	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		if y < margin || y >= height-margin {
			continue
		}
		for x := margin; x < width-margin; x++ {
			g := color.GrayModel.Convert(magnitude.At(mb.Min.X+x, mb.Min.Y+y)).(color.Gray)
			edges[y][x] = g.Y > threshold
		}
	}
	return edges
}

// edgePoints lists the edge pixels in row-major order.
func edgePoints(edges [][]bool) []Point {
	points := make([]Point, 0)
	for y, row := range edges {
		for x, e := range row {
			if e {
				points = append(points, Point{X: x, Y: y})
			}
		}
	}
	return points
}

// sampleColorHex returns the hex color (#rrggbb) of a pixel.
// Fully transparent pixels report black.
func sampleColorHex(img image.Image, x, y int) string {
	c, ok := colorful.MakeColor(img.At(x, y))
	if !ok {
		return "#000000"
	}
	return c.Hex()
}

package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// Frame is an image prepared for line detection, together with the factor
// that maps its pixel coordinates back onto the original image.
type Frame struct {
	Image image.Image

	// Scale is original width over processing width. It is 1 when the image
	// was not resized.
	Scale float64

	OriginalWidth  int
	OriginalHeight int
}

// Width returns the processing width in pixels.
func (f *Frame) Width() int { return f.Image.Bounds().Dx() }

// Height returns the processing height in pixels.
func (f *Frame) Height() int { return f.Image.Bounds().Dy() }

// ToOriginal maps a processing-frame pixel position onto the original image.
func (f *Frame) ToOriginal(x, y float64) (float64, float64) {
	return x * f.Scale, y * f.Scale
}

// NewFrame downsizes img to width pixels, keeping the aspect ratio.
//
// A width that is not positive, or not smaller than the image, leaves the
// image untouched. Resampling uses a Lanczos filter so straight edges stay
// sharp after shrinking.
func NewFrame(img image.Image, width int) *Frame {
	bounds := img.Bounds()
	f := &Frame{
		Image:          img,
		Scale:          1,
		OriginalWidth:  bounds.Dx(),
		OriginalHeight: bounds.Dy(),
	}
	if width <= 0 || width >= bounds.Dx() {
		return f
	}

	f.Image = Resize(img, width)
	f.Scale = float64(bounds.Dx()) / float64(f.Image.Bounds().Dx())
	return f
}

// Resize scales img to the given width. The height follows the aspect ratio.
func Resize(img image.Image, width int) *image.NRGBA {
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

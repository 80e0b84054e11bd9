package imaging

import (
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// ErrInvalidImage is returned when an image is missing, has a zero dimension,
// or cannot be decoded. It is the only error that aborts a whole analysis run.
var ErrInvalidImage = errors.New("invalid image")

// Luminance weights (ITU-R BT.601) used for every colour-to-gray reduction.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Raster is an immutable single-channel intensity buffer.
//
// Samples are stored row-major, one byte per pixel, with (0,0) at the top-left
// corner. A Raster has no exported mutators; functions that transform it
// always return a new Raster.
type Raster struct {
	width  int
	height int
	pix    []uint8
}

// NewRaster builds a Raster from row-major samples. The slice is copied.
//
// Returns an error wrapping ErrInvalidImage if a dimension is not positive or
// len(pix) != width*height.
func NewRaster(width, height int, pix []uint8) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, width, height)
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("%w: %d samples for %dx%d raster", ErrInvalidImage, len(pix), width, height)
	}
	cp := make([]uint8, len(pix))
	copy(cp, pix)
	return &Raster{width: width, height: height, pix: cp}, nil
}

// newRasterOwned wraps pix without copying. Callers must not retain pix.
func newRasterOwned(width, height int, pix []uint8) *Raster {
	return &Raster{width: width, height: height, pix: pix}
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int { return r.width }

// Height returns the raster height in pixels.
func (r *Raster) Height() int { return r.height }

// At returns the sample at (x, y). Coordinates outside the raster are clamped
// to the nearest edge sample.
func (r *Raster) At(x, y int) uint8 {
	x = clamp(x, 0, r.width-1)
	y = clamp(y, 0, r.height-1)
	return r.pix[y*r.width+x]
}

// Pix returns a copy of the row-major samples.
func (r *Raster) Pix() []uint8 {
	cp := make([]uint8, len(r.pix))
	copy(cp, r.pix)
	return cp
}

// Gray returns the raster as a new *image.Gray with bounds (0,0)-(w,h).
func (r *Raster) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, r.width, r.height))
	copy(g.Pix, r.pix)
	return g
}

// Grayscale converts any decoded image into a Raster.
//
// *image.Gray inputs are copied sample for sample. Every other colour model is
// reduced with the BT.601 weighted sum 0.299R + 0.587G + 0.114B, rounded to
// the nearest integer. The same policy applies to all detection methods.
// Alpha is ignored: colour channels are read unpremultiplied and weighted as
// if the pixel were opaque.
//
// Returns an error wrapping ErrInvalidImage for a nil or empty image.
func Grayscale(img image.Image) (*Raster, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image", ErrInvalidImage)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, width, height)
	}

	pix := make([]uint8, width*height)

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < height; y++ {
			row := g.Pix[(y+bounds.Min.Y-g.Rect.Min.Y)*g.Stride+(bounds.Min.X-g.Rect.Min.X):]
			copy(pix[y*width:(y+1)*width], row[:width])
		}
		return newRasterOwned(width, height, pix), nil
	}

	// Clone yields straight NRGBA; forcing alpha opaque keeps the weighting
	// from seeing premultiplied channels.
	straight := imaging.Clone(img)
	for i := 3; i < len(straight.Pix); i += 4 {
		straight.Pix[i] = 0xff
	}
	rgba := effect.GrayscaleWithWeights(straight, lumaR, lumaG, lumaB)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pix[y*width+x] = rgba.Pix[y*rgba.Stride+x*4]
		}
	}
	return newRasterOwned(width, height, pix), nil
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution and gradient operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

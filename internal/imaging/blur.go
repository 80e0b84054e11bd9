package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
)

// DefaultSigma returns the standard deviation conventionally paired with an
// odd kernel size k when none is given: 0.3*((k-1)/2 - 1) + 0.8.
//
// For k=5 this is 1.1, for k=9 it is 1.7 and for k=11 it is 2.0.
func DefaultSigma(k int) float64 {
	return 0.3*(float64(k-1)*0.5-1) + 0.8
}

// GaussianKernel returns a normalised one-dimensional Gaussian kernel of odd
// length k. A sigma <= 0 is replaced by DefaultSigma(k).
func GaussianKernel(k int, sigma float64) ([]float64, error) {
	if k < 1 || k%2 == 0 {
		return nil, fmt.Errorf("kernel size must be a positive odd number, got %d", k)
	}
	if sigma <= 0 {
		sigma = DefaultSigma(k)
	}

	weights := make([]float64, k)
	half := k / 2
	var sum float64
	for i := range weights {
		d := float64(i - half)
		weights[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights, nil
}

// GaussianBlur smooths a raster with a separable k×k Gaussian kernel.
//
// Parameters:
//   - r: Source raster. It is not modified.
//   - k: Kernel size. Must be odd; k=1 returns an identical copy.
//   - sigma: Standard deviation in pixels. Values <= 0 use DefaultSigma(k).
//
// # Algorithm
//
// The kernel is applied as two one-dimensional passes, horizontal (1×k) then
// vertical (k×1), each rounded back to 8 bits. Samples beyond the raster edge
// replicate the nearest edge sample. Border handling only affects intensities
// within k/2 pixels of the frame, a band the border gate excludes from counting
// anyway.
func GaussianBlur(r *Raster, k int, sigma float64) (*Raster, error) {
	weights, err := GaussianKernel(k, sigma)
	if err != nil {
		return nil, err
	}
	if k == 1 {
		return newRasterOwned(r.width, r.height, r.Pix()), nil
	}

	horizontal := convolution.NewKernel(k, 1)
	copy(horizontal.Matrix, weights)

	// Bias of one half turns bild's truncation into round-to-nearest.
	opts := &convolution.Options{Bias: 0.5, Wrap: false, KeepAlpha: true}

	pass := convolution.Convolve(r.Gray(), horizontal, opts)
	pass = convolution.Convolve(pass, horizontal.Transposed(), opts)

	pix := make([]uint8, r.width*r.height)
	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			pix[y*r.width+x] = pass.Pix[y*pass.Stride+x*4]
		}
	}
	return newRasterOwned(r.width, r.height, pix), nil
}

// Preprocess converts an image to grayscale and optionally smooths it.
//
// A kernel size of 0 or 1 skips smoothing. This is the shared first stage of
// every detection method.
func Preprocess(img image.Image, k int, sigma float64) (*Raster, error) {
	gray, err := Grayscale(img)
	if err != nil {
		return nil, err
	}
	if k <= 1 {
		return gray, nil
	}
	return GaussianBlur(gray, k, sigma)
}

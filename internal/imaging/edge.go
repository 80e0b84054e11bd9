package imaging

import (
	"fmt"
	"math"
)

// EdgeMap is the output of Canny edge detection.
//
// Edges marks thinned edge pixels. DX and DY hold the raw Sobel gradient of
// the source raster for every pixel, which the circle detector uses to cast
// votes along the gradient direction.
type EdgeMap struct {
	Width  int
	Height int
	Edges  []bool
	DX     []float64
	DY     []float64
}

// IsEdge reports whether (x, y) is an edge pixel. Out-of-range coordinates
// are never edges.
func (e *EdgeMap) IsEdge(x, y int) bool {
	if x < 0 || y < 0 || x >= e.Width || y >= e.Height {
		return false
	}
	return e.Edges[y*e.Width+x]
}

// Count returns the number of edge pixels.
func (e *EdgeMap) Count() int {
	n := 0
	for _, v := range e.Edges {
		if v {
			n++
		}
	}
	return n
}

var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// Canny performs Canny edge detection on an already smoothed raster.
//
// Parameters:
//   - r: Source raster, typically Gaussian-blurred.
//   - low: Hysteresis low threshold on the L1 gradient magnitude.
//   - high: Hysteresis high threshold. Must be >= low.
//
// # Algorithm
//
//  1. Gradient computation: 3×3 Sobel operators on 8-bit intensities,
//     magnitude = |Gx| + |Gy|, edge samples replicated at the border
//
//  2. Non-maximum suppression: keep a pixel only if its magnitude is not
//     smaller than both neighbours along the quantised gradient direction
//
//  3. Hysteresis: pixels above high seed edges; pixels above low are kept
//     when 8-connected to a seed, transitively
//
// The one-pixel frame of the image is never marked as an edge.
func Canny(r *Raster, low, high float64) (*EdgeMap, error) {
	if low < 0 || high < low {
		return nil, fmt.Errorf("invalid hysteresis thresholds: low=%g high=%g", low, high)
	}

	width, height := r.width, r.height
	n := width * height
	dx := make([]float64, n)
	dy := make([]float64, n)
	magnitude := make([]float64, n)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := float64(r.At(x+kx, y+ky))
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			i := y*width + x
			dx[i] = gx
			dy[i] = gy
			magnitude[i] = math.Abs(gx) + math.Abs(gy)
		}
	}

	// Non-maximum suppression
	suppressed := make([]float64, n)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag <= low {
				continue
			}

			angle := math.Atan2(dy[i], dx[i])

			// Determine neighbors to compare based on gradient direction
			var n1, n2 float64
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			} else {
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
			}

			// Ties on one side only, so a flat ridge keeps a single line.
			if mag > n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	// Edge tracking by hysteresis
	edges := make([]bool, n)
	stack := make([]int, 0, 64)
	for i, v := range suppressed {
		if v > high && !edges[i] {
			edges[i] = true
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		for ky := -1; ky <= 1; ky++ {
			for kx := -1; kx <= 1; kx++ {
				nx, ny := x+kx, y+ky
				if nx < 1 || ny < 1 || nx >= width-1 || ny >= height-1 {
					continue
				}
				j := ny*width + nx
				if !edges[j] && suppressed[j] > low {
					edges[j] = true
					stack = append(stack, j)
				}
			}
		}
	}

	return &EdgeMap{
		Width:  width,
		Height: height,
		Edges:  edges,
		DX:     dx,
		DY:     dy,
	}, nil
}

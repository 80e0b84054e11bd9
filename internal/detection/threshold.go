package detection

import (
	"fmt"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/anthonynsimon/bild/parallel"

	"github.com/sahibnoorsingh009/nuclei-counter/internal/imaging"
)

// Strategy selects how a raster is binarised.
type Strategy string

const (
	// StrategyOtsu picks a global threshold that maximises between-class
	// variance.
	StrategyOtsu Strategy = "otsu"
	// StrategyFixed uses a constant global threshold.
	StrategyFixed Strategy = "fixed"
	// StrategyAdaptive compares each pixel to its Gaussian-weighted
	// neighbourhood mean.
	StrategyAdaptive Strategy = "adaptive"
)

// ThresholdParams configures Threshold.
type ThresholdParams struct {
	Strategy Strategy `yaml:"strategy" json:"strategy"`

	// Level is the cut-off for StrategyFixed.
	Level int `yaml:"level,omitempty" json:"level,omitempty"`

	// BlockSize is the odd neighbourhood size for StrategyAdaptive.
	BlockSize int `yaml:"block_size,omitempty" json:"block_size,omitempty"`

	// C is subtracted from the local mean for StrategyAdaptive.
	C int `yaml:"c,omitempty" json:"c,omitempty"`
}

// Threshold binarises r with the configured strategy.
//
// The returned level is the global threshold that was applied, or -1 for the
// adaptive strategy and for a degenerate Otsu split. A degenerate split is not
// an error: the mask is returned all background.
func Threshold(r *imaging.Raster, p ThresholdParams) (*Mask, int, error) {
	switch p.Strategy {
	case StrategyOtsu:
		t, ok := OtsuThreshold(r)
		if !ok {
			return NewMask(r.Width(), r.Height()), -1, nil
		}
		return FixedThreshold(r, t), t, nil
	case StrategyFixed:
		if p.Level < 0 || p.Level > 255 {
			return nil, -1, fmt.Errorf("fixed threshold level %d out of range [0,255]", p.Level)
		}
		return FixedThreshold(r, p.Level), p.Level, nil
	case StrategyAdaptive:
		m, err := AdaptiveThreshold(r, p.BlockSize, p.C)
		return m, -1, err
	default:
		return nil, -1, fmt.Errorf("unknown threshold strategy %q", p.Strategy)
	}
}

// OtsuThreshold computes Otsu's global threshold for r.
//
// Class 0 holds samples below t and class 1 samples at or above t. The
// returned t maximises w0·w1·(μ0−μ1)² over t in [1,255]; ties go to the
// lowest t. ok is false when no split separates two non-empty classes with
// distinct means, which happens exactly when every sample has the same value.
//
// # Algorithm
//
//  1. Build a 256-bin histogram in one pass over the samples
//  2. Walk t upward keeping running counts and intensity sums for class 0;
//     class 1 is the complement of the totals
//  3. Evaluate the between-class variance from those sums in O(1) per t
func OtsuThreshold(r *imaging.Raster) (int, bool) {
	hist := histogram.NewRGBAHistogram(r.Gray()).R.Bins

	var total, sumAll float64
	for i, n := range hist {
		total += float64(n)
		sumAll += float64(i * n)
	}

	var count0, sum0, best float64
	bestT := -1
	for t := 1; t < 256; t++ {
		count0 += float64(hist[t-1])
		sum0 += float64((t - 1) * hist[t-1])

		count1 := total - count0
		if count0 == 0 || count1 == 0 {
			continue
		}
		w0 := count0 / total
		w1 := count1 / total
		mu0 := sum0 / count0
		mu1 := (sumAll - sum0) / count1
		d := mu0 - mu1
		between := w0 * w1 * d * d
		if between > best {
			best = between
			bestT = t
		}
	}
	if bestT < 0 {
		return 0, false
	}
	return bestT, true
}

// FixedThreshold marks every sample >= level as foreground.
func FixedThreshold(r *imaging.Raster, level int) *Mask {
	width, height := r.Width(), r.Height()
	pix := r.Pix()
	m := NewMask(width, height)
	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			for i := y * width; i < (y+1)*width; i++ {
				m.Pix[i] = int(pix[i]) >= level
			}
		}
	})
	return m
}

// AdaptiveThreshold marks a pixel as foreground when its sample is at least
// the Gaussian-weighted mean of its blockSize×blockSize neighbourhood minus c.
//
// The local mean is the raster smoothed by imaging.GaussianBlur with
// σ = imaging.DefaultSigma(blockSize), rounded to 8 bits; borders replicate
// edge samples. Cost is O(pixels·blockSize) thanks to the separable kernel.
func AdaptiveThreshold(r *imaging.Raster, blockSize, c int) (*Mask, error) {
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, fmt.Errorf("adaptive block size must be odd and >= 3, got %d", blockSize)
	}
	mean, err := imaging.GaussianBlur(r, blockSize, imaging.DefaultSigma(blockSize))
	if err != nil {
		return nil, fmt.Errorf("local mean: %w", err)
	}

	width, height := r.Width(), r.Height()
	pix := r.Pix()
	local := mean.Pix()
	m := NewMask(width, height)
	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			for i := y * width; i < (y+1)*width; i++ {
				m.Pix[i] = int(pix[i]) >= int(local[i])-c
			}
		}
	})
	return m, nil
}

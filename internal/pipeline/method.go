package pipeline

import (
	"fmt"
	"image"

	"github.com/sahibnoorsingh009/nuclei-counter/internal/config"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/detection"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/imaging"
)

// Overlay drawing parameters.
const (
	strokeWidth = 2
	labelMargin = 3
)

// runMethod executes the stages of one method on the shared grayscale
// raster. It is synchronous and allocates every intermediate itself.
func (o *Orchestrator) runMethod(gray *imaging.Raster, m config.MethodConfig) outcome {
	smoothed := gray
	if m.Blur.KernelSize > 1 {
		var err error
		smoothed, err = imaging.GaussianBlur(gray, m.Blur.KernelSize, m.Blur.Sigma)
		if err != nil {
			return outcome{err: fmt.Errorf("blur: %w", err)}
		}
	}

	var cands []detection.Candidate
	threshold := -1

	switch m.Detector {
	case config.DetectorContours:
		mask, level, err := detection.Threshold(smoothed, m.Threshold)
		if err != nil {
			return outcome{err: fmt.Errorf("threshold: %w", err)}
		}
		threshold = level

		cleaned := detection.Open(mask)
		if o.maskHook != nil {
			cleaned = o.maskHook(m.ID, cleaned)
		}

		regions, err := detection.ExtractRegions(cleaned)
		if err != nil {
			return outcome{err: fmt.Errorf("regions: %w", err)}
		}
		cands = make([]detection.Candidate, len(regions))
		for i, r := range regions {
			cands[i] = r
		}

	case config.DetectorCircles:
		circles, err := detection.DetectCircles(smoothed, m.Circles)
		if err != nil {
			return outcome{err: fmt.Errorf("circles: %w", err)}
		}
		cands = make([]detection.Candidate, len(circles))
		for i, c := range circles {
			cands[i] = c
		}

	default:
		return outcome{err: fmt.Errorf("unknown detector %q", m.Detector)}
	}

	kept, rejected := detection.Filter(cands, gray.Width(), gray.Height(), m.Filter)

	overlay, err := annotate(gray, kept, m.Color)
	if err != nil {
		return outcome{err: fmt.Errorf("overlay: %w", err)}
	}

	return outcome{
		count:     len(kept),
		rejected:  rejected,
		threshold: threshold,
		overlay:   overlay,
	}
}

// annotate draws the accepted candidates and a count label over the
// grayscale raster.
func annotate(gray *imaging.Raster, kept []detection.Candidate, hex string) (*image.NRGBA, error) {
	c, err := imaging.ParseColor(hex)
	if err != nil {
		return nil, err
	}

	o := imaging.NewOverlay(gray)
	for _, cand := range kept {
		switch v := cand.(type) {
		case detection.Region:
			path := make([]image.Point, len(v.Boundary))
			for i, p := range v.Boundary {
				path[i] = image.Point{X: p.X, Y: p.Y}
			}
			o.DrawPath(path, c, strokeWidth)
		case detection.Circle:
			o.DrawCircle(v.X, v.Y, v.Radius, c, strokeWidth)
		}
	}
	o.DrawLabel(labelMargin, labelMargin, fmt.Sprintf("n=%d", len(kept)), c)
	return o.Image(), nil
}

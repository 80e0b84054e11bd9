package detection

import (
	"fmt"
	"math"
	"sort"

	"github.com/sahibnoorsingh009/nuclei-counter/internal/imaging"
)

// Circle is a circle found by DetectCircles. The centre is in pixel-index
// coordinates: the centre of pixel (x, y) is at (x, y).
type Circle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`

	// Votes is the accumulator score of the centre. It only orders
	// candidates inside the detector.
	Votes int `json:"votes"`
}

// HoughParams configures DetectCircles.
type HoughParams struct {
	// DP is the inverse accumulator resolution: 1 means one accumulator cell
	// per pixel, 2 means half resolution.
	DP float64 `yaml:"dp" json:"dp"`

	// MinDist is the minimum distance between accepted centres.
	MinDist float64 `yaml:"min_dist" json:"min_dist"`

	// EdgeThresholdHigh is the upper Canny threshold; the lower one is half
	// of it.
	EdgeThresholdHigh float64 `yaml:"edge_threshold_high" json:"edge_threshold_high"`

	// AccumulatorThreshold is the number of edge-pixel votes a centre must
	// exceed.
	AccumulatorThreshold int `yaml:"accumulator_threshold" json:"accumulator_threshold"`

	MinRadius int `yaml:"min_radius" json:"min_radius"`
	MaxRadius int `yaml:"max_radius" json:"max_radius"`

	// MinSupport is the fraction of the circumference 2πr that must be
	// covered by edge pixels at the estimated radius.
	MinSupport float64 `yaml:"min_support" json:"min_support"`
}

const (
	// minSupportPixels is the absolute floor on radius support, so tiny
	// circles still need a handful of edge pixels.
	minSupportPixels = 8

	// windowVotes is how many cells of a 3×3 window a ray through its
	// centre crosses. Centre scores are 3×3 sums, so the threshold is
	// scaled by it to stay in units of supporting edge pixels.
	windowVotes = 3

	// minAlignment is the smallest |cos| between an edge pixel's gradient
	// and the direction to a candidate centre for the pixel to support it.
	minAlignment = 0.9
)

// edgePoint is an edge pixel with its unit gradient direction.
type edgePoint struct {
	x, y   int
	ux, uy float64
}

// DefaultHoughParams returns the tuned defaults of the circle method. They
// were calibrated empirically and are meant to be adjusted per data set.
func DefaultHoughParams() HoughParams {
	return HoughParams{
		DP:                   1,
		MinDist:              20,
		EdgeThresholdHigh:    50,
		AccumulatorThreshold: 30,
		MinRadius:            5,
		MaxRadius:            50,
		MinSupport:           0.25,
	}
}

// Validate checks that the parameters describe a searchable space.
func (p HoughParams) Validate() error {
	switch {
	case p.DP < 1:
		return fmt.Errorf("dp must be >= 1, got %g", p.DP)
	case p.MinDist <= 0:
		return fmt.Errorf("min_dist must be positive, got %g", p.MinDist)
	case p.EdgeThresholdHigh <= 0:
		return fmt.Errorf("edge_threshold_high must be positive, got %g", p.EdgeThresholdHigh)
	case p.AccumulatorThreshold < 0:
		return fmt.Errorf("accumulator_threshold must not be negative, got %d", p.AccumulatorThreshold)
	case p.MinRadius < 1 || p.MaxRadius < p.MinRadius:
		return fmt.Errorf("invalid radius range [%d,%d]", p.MinRadius, p.MaxRadius)
	case p.MinSupport < 0 || p.MinSupport > 1:
		return fmt.Errorf("min_support must be in [0,1], got %g", p.MinSupport)
	}
	return nil
}

// DetectCircles finds circles in a smoothed raster with the Hough gradient
// method.
//
// Parameters:
//   - r: Source raster, normally Gaussian-blurred beforehand.
//   - p: Search parameters; see DefaultHoughParams.
//
// Returns:
//   - []Circle: Accepted circles, strongest centre first.
//   - error: Non-nil only for invalid parameters.
//
// # Algorithm
//
//  1. Edge detection: imaging.Canny with thresholds high/2 and high
//  2. Centre voting: every edge pixel votes along its gradient direction,
//     both ways, at each distance in [MinRadius, MaxRadius]
//  3. Peak detection: each accumulator cell is scored by the sum of its 3×3
//     neighbourhood; local maxima whose score exceeds AccumulatorThreshold
//     times the three cells a ray crosses in the window are candidates
//  4. Suppression: candidates closer than MinDist to an accepted circle are
//     dropped, strongest first
//  5. Radius estimation: distances from the centre of edge pixels whose
//     gradient points towards or away from it are binned in 1-pixel steps;
//     the radius maximising support/r wins if its support (bins r-1..r+1)
//     covers MinSupport of the circumference
//
// # Limitations
//
// Circles whose centres lie closer than MinDist are reported once. Touching
// blobs that a threshold-based method merges into one region may come back as
// separate circles here.
func DetectCircles(r *imaging.Raster, p HoughParams) ([]Circle, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	edges, err := imaging.Canny(r, p.EdgeThresholdHigh/2, p.EdgeThresholdHigh)
	if err != nil {
		return nil, err
	}

	width, height := edges.Width, edges.Height
	aw := int(math.Floor(float64(width-1)/p.DP)) + 1
	ah := int(math.Floor(float64(height-1)/p.DP)) + 1
	acc := make([]int, aw*ah)

	points := make([]edgePoint, 0, 256)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if !edges.Edges[i] {
				continue
			}
			gx, gy := edges.DX[i], edges.DY[i]
			mag := math.Hypot(gx, gy)
			if mag == 0 {
				continue
			}
			ux, uy := gx/mag, gy/mag
			points = append(points, edgePoint{x: x, y: y, ux: ux, uy: uy})
			for _, sign := range [2]float64{1, -1} {
				for d := p.MinRadius; d <= p.MaxRadius; d++ {
					ax := int(math.Round((float64(x) + sign*float64(d)*ux) / p.DP))
					ay := int(math.Round((float64(y) + sign*float64(d)*uy) / p.DP))
					// A ray that has left the accumulator never re-enters it.
					if ax < 0 || ay < 0 || ax >= aw || ay >= ah {
						break
					}
					acc[ay*aw+ax]++
				}
			}
		}
	}

	centres := findCentres(acc, aw, ah, p.AccumulatorThreshold*windowVotes)

	circles := make([]Circle, 0)
	minDist2 := p.MinDist * p.MinDist
	for _, c := range centres {
		cx := float64(c.index%aw) * p.DP
		cy := float64(c.index/aw) * p.DP

		crowded := false
		for _, k := range circles {
			dx, dy := k.X-cx, k.Y-cy
			if dx*dx+dy*dy < minDist2 {
				crowded = true
				break
			}
		}
		if crowded {
			continue
		}

		radius, ok := estimateRadius(points, cx, cy, p)
		if !ok {
			continue
		}
		circles = append(circles, Circle{X: cx, Y: cy, Radius: radius, Votes: c.score})
	}

	return circles, nil
}

type centre struct {
	index int
	score int
}

// findCentres returns accumulator cells whose 3×3 neighbourhood score
// exceeds threshold and is a local maximum, sorted by score descending and
// then by raster index. A plateau resolves to its top-left cell.
func findCentres(acc []int, aw, ah, threshold int) []centre {
	score := make([]int, len(acc))
	for y := 0; y < ah; y++ {
		for x := 0; x < aw; x++ {
			s := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= aw || ny >= ah {
						continue
					}
					s += acc[ny*aw+nx]
				}
			}
			score[y*aw+x] = s
		}
	}

	centres := make([]centre, 0)
	for y := 0; y < ah; y++ {
		for x := 0; x < aw; x++ {
			i := y*aw + x
			s := score[i]
			if s <= threshold {
				continue
			}
			if x > 0 && score[i-1] >= s {
				continue
			}
			if y > 0 && score[i-aw] >= s {
				continue
			}
			if x < aw-1 && score[i+1] > s {
				continue
			}
			if y < ah-1 && score[i+aw] > s {
				continue
			}
			centres = append(centres, centre{index: i, score: s})
		}
	}

	sort.SliceStable(centres, func(a, b int) bool {
		return centres[a].score > centres[b].score
	})
	return centres
}

// estimateRadius picks the radius best supported by edge pixels around
// (cx, cy). Only pixels whose gradient is radial with respect to the centre
// count, so the edge of a larger object passing near the centre does not.
// The returned radius is the mean distance of the supporting pixels.
func estimateRadius(points []edgePoint, cx, cy float64, p HoughParams) (float64, bool) {
	bins := make([]int, p.MaxRadius+2)
	sums := make([]float64, p.MaxRadius+2)
	for _, pt := range points {
		dx, dy := float64(pt.x)-cx, float64(pt.y)-cy
		d := math.Hypot(dx, dy)
		b := int(math.Round(d))
		if d == 0 || b < p.MinRadius-1 || b > p.MaxRadius+1 {
			continue
		}
		if math.Abs(dx*pt.ux+dy*pt.uy)/d < minAlignment {
			continue
		}
		bins[b]++
		sums[b] += d
	}

	bestR, bestSupport := 0, 0
	bestRatio := 0.0
	for r := p.MinRadius; r <= p.MaxRadius; r++ {
		support := bins[r-1] + bins[r] + bins[r+1]
		ratio := float64(support) / float64(r)
		if ratio > bestRatio {
			bestR, bestSupport, bestRatio = r, support, ratio
		}
	}
	if bestR == 0 {
		return 0, false
	}

	need := math.Max(minSupportPixels, p.MinSupport*2*math.Pi*float64(bestR))
	if float64(bestSupport) < need {
		return 0, false
	}

	sum := sums[bestR-1] + sums[bestR] + sums[bestR+1]
	return sum / float64(bestSupport), true
}

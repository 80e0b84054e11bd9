package detection

import "math"

// Extent is an axis-aligned bounding extent in pixel units. Unlike Bounds it
// may be fractional, since circles have real-valued centres and radii.
type Extent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Candidate is a detected object awaiting the area and border gates.
// Region and Circle implement it.
type Candidate interface {
	// Area is the object's area in square pixels.
	Area() float64
	// Extent is the object's bounding extent.
	Extent() Extent
}

// Area returns the filled pixel area of the region.
func (r Region) Area() float64 { return float64(r.FilledArea) }

// Extent returns the region's bounding box.
func (r Region) Extent() Extent {
	return Extent{
		X:      float64(r.Box.X),
		Y:      float64(r.Box.Y),
		Width:  float64(r.Box.Width),
		Height: float64(r.Box.Height),
	}
}

// Area returns π·r².
func (c Circle) Area() float64 { return math.Pi * c.Radius * c.Radius }

// Extent returns the square circumscribing the circle.
func (c Circle) Extent() Extent {
	return Extent{
		X:      c.X - c.Radius,
		Y:      c.Y - c.Radius,
		Width:  2 * c.Radius,
		Height: 2 * c.Radius,
	}
}

// FilterParams configures the candidate gates.
type FilterParams struct {
	MinArea      float64 `yaml:"min_area" json:"min_area"`
	MaxArea      float64 `yaml:"max_area" json:"max_area"`
	BorderMargin float64 `yaml:"border_margin" json:"border_margin"`
}

// DefaultFilterParams returns the gates shared by every method: area in
// [30, 2000] and a 10-pixel border margin.
func DefaultFilterParams() FilterParams {
	return FilterParams{MinArea: 30, MaxArea: 2000, BorderMargin: 10}
}

// AreaGate reports whether c's area lies within [p.MinArea, p.MaxArea].
func AreaGate(c Candidate, p FilterParams) bool {
	a := c.Area()
	return a >= p.MinArea && a <= p.MaxArea
}

// BorderGate reports whether c's extent stays clear of a margin-wide band
// along every edge of a width×height image.
func BorderGate(c Candidate, width, height int, margin float64) bool {
	e := c.Extent()
	if e.X < margin || e.Y < margin {
		return false
	}
	if e.X+e.Width > float64(width)-margin || e.Y+e.Height > float64(height)-margin {
		return false
	}
	return true
}

// Filter applies AreaGate and BorderGate to every candidate. It returns the
// accepted candidates in input order and the number rejected.
func Filter(cands []Candidate, width, height int, p FilterParams) ([]Candidate, int) {
	kept := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if AreaGate(c, p) && BorderGate(c, width, height, p.BorderMargin) {
			kept = append(kept, c)
		}
	}
	return kept, len(cands) - len(kept)
}

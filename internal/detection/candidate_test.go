package detection

import (
	"math"
	"testing"
)

func TestCircle_Candidate(t *testing.T) {
	c := Circle{X: 50, Y: 40, Radius: 10}

	if got, want := c.Area(), math.Pi*100; math.Abs(got-want) > 1e-9 {
		t.Errorf("Area: got %f, want %f", got, want)
	}
	if got, want := c.Extent(), (Extent{X: 40, Y: 30, Width: 20, Height: 20}); got != want {
		t.Errorf("Extent: got %+v, want %+v", got, want)
	}
}

func TestRegion_Candidate(t *testing.T) {
	r := Region{Box: Bounds{X: 3, Y: 4, Width: 5, Height: 6}, FilledArea: 27, PixelCount: 20}

	if r.Area() != 27 {
		t.Errorf("Area: got %f, want 27 (filled area)", r.Area())
	}
	if got, want := r.Extent(), (Extent{X: 3, Y: 4, Width: 5, Height: 6}); got != want {
		t.Errorf("Extent: got %+v, want %+v", got, want)
	}
}

func TestAreaGate(t *testing.T) {
	p := DefaultFilterParams()

	tests := []struct {
		area float64
		want bool
	}{
		{0, false},
		{9, false},
		{29.9, false},
		{30, true},
		{201, true},
		{1257, true},
		{2000, true},
		{2000.1, false},
	}

	for _, tt := range tests {
		got := AreaGate(areaCandidate(tt.area), p)
		if got != tt.want {
			t.Errorf("area %.1f: got %v, want %v", tt.area, got, tt.want)
		}
	}
}

func TestBorderGate(t *testing.T) {
	tests := []struct {
		name   string
		circle Circle
		want   bool
	}{
		{"centred", Circle{X: 50, Y: 50, Radius: 20}, true},
		{"touching left margin", Circle{X: 18, Y: 50, Radius: 8}, true},
		{"inside left margin", Circle{X: 17.5, Y: 50, Radius: 8}, false},
		{"inside top margin", Circle{X: 50, Y: 12, Radius: 8}, false},
		{"touching right margin", Circle{X: 82, Y: 50, Radius: 8}, true},
		{"inside right margin", Circle{X: 82.5, Y: 50, Radius: 8}, false},
		{"inside bottom margin", Circle{X: 50, Y: 85, Radius: 8}, false},
		{"shifted 15 px inward", Circle{X: 27, Y: 50, Radius: 8}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BorderGate(tt.circle, 100, 100, 10); got != tt.want {
				t.Errorf("got %v, want %v (extent %+v)", got, tt.want, tt.circle.Extent())
			}
		})
	}
}

func TestFilter(t *testing.T) {
	cands := []Candidate{
		Circle{X: 50, Y: 50, Radius: 8}, // kept
		Circle{X: 50, Y: 50, Radius: 2}, // too small
		Circle{X: 5, Y: 50, Radius: 8},  // at the border
		Region{Box: Bounds{X: 30, Y: 30, Width: 9, Height: 9}, FilledArea: 60},     // kept
		Region{Box: Bounds{X: 10, Y: 10, Width: 80, Height: 80}, FilledArea: 6000}, // too large
	}

	kept, rejected := Filter(cands, 100, 100, DefaultFilterParams())
	if len(kept) != 2 || rejected != 3 {
		t.Fatalf("got %d kept and %d rejected, want 2 and 3", len(kept), rejected)
	}
	if _, ok := kept[0].(Circle); !ok {
		t.Error("kept candidates should preserve input order")
	}
	if _, ok := kept[1].(Region); !ok {
		t.Error("kept candidates should preserve input order")
	}
}

// areaCandidate is a centred candidate with a fixed area.
type areaCandidate float64

func (a areaCandidate) Area() float64 { return float64(a) }

func (a areaCandidate) Extent() Extent { return Extent{X: 40, Y: 40, Width: 20, Height: 20} }

package detection

import (
	"math"
	"testing"

	"github.com/sahibnoorsingh009/nuclei-counter/internal/imaging"
)

// blurred smooths r the way the circle method does before detection.
func blurred(t *testing.T, r *imaging.Raster) *imaging.Raster {
	t.Helper()
	out, err := imaging.GaussianBlur(r, 9, 2)
	if err != nil {
		t.Fatalf("GaussianBlur failed: %v", err)
	}
	return out
}

func TestDefaultHoughParams(t *testing.T) {
	p := DefaultHoughParams()
	if p.DP != 1 || p.MinDist != 20 || p.EdgeThresholdHigh != 50 ||
		p.AccumulatorThreshold != 30 || p.MinRadius != 5 || p.MaxRadius != 50 {
		t.Errorf("unexpected defaults: %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestHoughParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*HoughParams)
	}{
		{"dp below one", func(p *HoughParams) { p.DP = 0.5 }},
		{"zero min dist", func(p *HoughParams) { p.MinDist = 0 }},
		{"zero edge threshold", func(p *HoughParams) { p.EdgeThresholdHigh = 0 }},
		{"negative accumulator threshold", func(p *HoughParams) { p.AccumulatorThreshold = -1 }},
		{"zero min radius", func(p *HoughParams) { p.MinRadius = 0 }},
		{"inverted radius range", func(p *HoughParams) { p.MinRadius, p.MaxRadius = 20, 10 }},
		{"support above one", func(p *HoughParams) { p.MinSupport = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultHoughParams()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("Validate should fail")
			}
			if _, err := DetectCircles(createRaster(t, 10, 10, func(x, y int) uint8 { return 0 }), p); err == nil {
				t.Error("DetectCircles should reject invalid parameters")
			}
		})
	}
}

func TestDetectCircles_SingleDisk(t *testing.T) {
	r := blurred(t, createDiskRaster(t, 100, 100, 20, 220, disk{50, 50, 15}))

	circles, err := DetectCircles(r, DefaultHoughParams())
	if err != nil {
		t.Fatalf("DetectCircles failed: %v", err)
	}
	if len(circles) != 1 {
		t.Fatalf("got %d circles, want 1: %+v", len(circles), circles)
	}

	c := circles[0]
	if math.Hypot(c.X-50, c.Y-50) > 1.5 {
		t.Errorf("centre: got (%.1f, %.1f), want near (50, 50)", c.X, c.Y)
	}
	if math.Abs(c.Radius-15) > 2 {
		t.Errorf("radius: got %.2f, want near 15", c.Radius)
	}
	if c.Votes <= DefaultHoughParams().AccumulatorThreshold {
		t.Errorf("votes %d should exceed the accumulator threshold", c.Votes)
	}
}

func TestDetectCircles_SingleDiskSizes(t *testing.T) {
	for radius := 16; radius <= 35; radius++ {
		r := blurred(t, createDiskRaster(t, 120, 120, 20, 220, disk{60, 60, radius}))

		circles, err := DetectCircles(r, DefaultHoughParams())
		if err != nil {
			t.Fatalf("radius %d: DetectCircles failed: %v", radius, err)
		}
		if len(circles) != 1 {
			t.Errorf("radius %d: got %d circles, want 1: %+v", radius, len(circles), circles)
			continue
		}
		c := circles[0]
		if math.Hypot(c.X-60, c.Y-60) > 1.5 {
			t.Errorf("radius %d: centre (%.1f, %.1f), want near (60, 60)", radius, c.X, c.Y)
		}
		if math.Abs(c.Radius-float64(radius)) > 2 {
			t.Errorf("radius %d: got radius %.2f", radius, c.Radius)
		}
	}
}

func TestDetectCircles_SeparatedDisks(t *testing.T) {
	disks := []disk{{30, 30, 10}, {90, 30, 10}, {60, 85, 12}}
	r := blurred(t, createDiskRaster(t, 120, 120, 30, 200, disks...))

	circles, err := DetectCircles(r, DefaultHoughParams())
	if err != nil {
		t.Fatalf("DetectCircles failed: %v", err)
	}
	if len(circles) != len(disks) {
		t.Fatalf("got %d circles, want %d: %+v", len(circles), len(disks), circles)
	}

	for _, d := range disks {
		found := false
		for _, c := range circles {
			if math.Hypot(c.X-float64(d.x), c.Y-float64(d.y)) <= 2 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no circle found near (%d, %d)", d.x, d.y)
		}
	}
}

func TestDetectCircles_Uniform(t *testing.T) {
	r := createRaster(t, 80, 80, func(x, y int) uint8 { return 128 })

	circles, err := DetectCircles(r, DefaultHoughParams())
	if err != nil {
		t.Fatalf("DetectCircles failed: %v", err)
	}
	if len(circles) != 0 {
		t.Errorf("uniform raster: got %d circles, want 0", len(circles))
	}
}

func TestDetectCircles_MinDist(t *testing.T) {
	r := blurred(t, createDiskRaster(t, 100, 100, 20, 220, disk{50, 50, 15}))

	// Every centre within 200 px of the first is suppressed, so at most one
	// circle can be reported.
	p := DefaultHoughParams()
	p.MinDist = 200
	circles, err := DetectCircles(r, p)
	if err != nil {
		t.Fatalf("DetectCircles failed: %v", err)
	}
	if len(circles) > 1 {
		t.Errorf("got %d circles, want at most 1", len(circles))
	}
}

func TestDetectCircles_Deterministic(t *testing.T) {
	r := blurred(t, createDiskRaster(t, 100, 100, 20, 220, disk{25, 25, 8}, disk{75, 75, 8}))

	a, err := DetectCircles(r, DefaultHoughParams())
	if err != nil {
		t.Fatalf("DetectCircles failed: %v", err)
	}
	b, err := DetectCircles(r, DefaultHoughParams())
	if err != nil {
		t.Fatalf("DetectCircles failed: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("run lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("circle %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

package imaging

import (
	"testing"
)

// createSquareRaster creates a raster with a bright square on a dark background.
func createSquareRaster(t *testing.T, size, x0, y0, x1, y1 int) *Raster {
	t.Helper()
	pix := make([]uint8, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if x >= x0 && x < x1 && y >= y0 && y < y1 {
				pix[y*size+x] = 200
			} else {
				pix[y*size+x] = 20
			}
		}
	}
	r, err := NewRaster(size, size, pix)
	if err != nil {
		t.Fatalf("NewRaster failed: %v", err)
	}
	return r
}

func TestCanny_Square(t *testing.T) {
	r := createSquareRaster(t, 50, 15, 15, 35, 35)

	edges, err := Canny(r, 25, 50)
	if err != nil {
		t.Fatalf("Canny failed: %v", err)
	}
	if edges.Width != 50 || edges.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", edges.Width, edges.Height)
	}

	// The step between x=14 and x=15 produces a vertical edge there.
	if !edges.IsEdge(14, 25) && !edges.IsEdge(15, 25) {
		t.Error("expected an edge on the left side of the square")
	}
	if edges.IsEdge(25, 25) {
		t.Error("interior of the square should not be an edge")
	}
	if edges.IsEdge(5, 5) {
		t.Error("flat background should not be an edge")
	}

	// Non-maximum suppression leaves a one-pixel line across the step.
	if edges.IsEdge(14, 25) && edges.IsEdge(15, 25) {
		t.Error("edge is thicker than one pixel")
	}

	// Sobel gradient points from dark to bright.
	if edges.DX[25*50+14] <= 0 {
		t.Errorf("DX at the left edge: got %f, want positive", edges.DX[25*50+14])
	}
}

func TestCanny_Uniform(t *testing.T) {
	r := createSquareRaster(t, 30, 0, 0, 0, 0)

	edges, err := Canny(r, 25, 50)
	if err != nil {
		t.Fatalf("Canny failed: %v", err)
	}
	if n := edges.Count(); n != 0 {
		t.Errorf("uniform raster: got %d edge pixels, want 0", n)
	}
}

func TestCanny_Thresholds(t *testing.T) {
	r := createSquareRaster(t, 40, 10, 10, 30, 30)

	tests := []struct {
		name      string
		low, high float64
		wantErr   bool
		wantEdges bool
	}{
		{"typical", 25, 50, false, true},
		{"high above every gradient", 5000, 10000, false, false},
		{"inverted", 50, 25, true, false},
		{"negative low", -1, 50, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges, err := Canny(r, tt.low, tt.high)
			if tt.wantErr {
				if err == nil {
					t.Error("Canny should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("Canny failed: %v", err)
			}
			if got := edges.Count() > 0; got != tt.wantEdges {
				t.Errorf("has edges: got %v, want %v", got, tt.wantEdges)
			}
		})
	}
}

func TestCanny_FrameNeverEdge(t *testing.T) {
	// The square touches the frame, so the gradient is strong there.
	r := createSquareRaster(t, 20, 0, 0, 10, 20)

	edges, err := Canny(r, 25, 50)
	if err != nil {
		t.Fatalf("Canny failed: %v", err)
	}
	for i := 0; i < 20; i++ {
		if edges.IsEdge(i, 0) || edges.IsEdge(i, 19) || edges.IsEdge(0, i) || edges.IsEdge(19, i) {
			t.Fatalf("frame pixel at index %d marked as edge", i)
		}
	}
	if edges.Count() == 0 {
		t.Error("expected the vertical step to produce edges")
	}
	if edges.IsEdge(-1, 5) || edges.IsEdge(5, 25) {
		t.Error("out-of-range coordinates should not be edges")
	}
}

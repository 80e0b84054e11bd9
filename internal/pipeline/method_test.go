package pipeline

import (
	"image"
	"image/color"
	"testing"

	"github.com/sahibnoorsingh009/nuclei-counter/internal/detection"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/imaging"
)

func blackRaster(t *testing.T, width, height int) *imaging.Raster {
	t.Helper()
	r, err := imaging.NewRaster(width, height, make([]uint8, width*height))
	if err != nil {
		t.Fatalf("NewRaster failed: %v", err)
	}
	return r
}

func isColor(img *image.NRGBA, x, y int, c color.NRGBA) bool {
	return img.NRGBAAt(x, y) == c
}

func TestAnnotate(t *testing.T) {
	red := color.NRGBA{255, 0, 0, 255}
	gray := blackRaster(t, 80, 80)

	kept := []detection.Candidate{
		detection.Circle{X: 20, Y: 50, Radius: 8},
		detection.Region{
			Boundary: []detection.Point{{X: 50, Y: 50}, {X: 51, Y: 50}, {X: 52, Y: 50}},
			Box:      detection.Bounds{X: 50, Y: 50, Width: 3, Height: 1},
		},
	}

	img, err := annotate(gray, kept, "#FF0000")
	if err != nil {
		t.Fatalf("annotate failed: %v", err)
	}

	if !isColor(img, 28, 50, red) {
		t.Error("circle outline not drawn")
	}
	if isColor(img, 20, 50, red) {
		t.Error("circle centre should not be painted")
	}
	if !isColor(img, 51, 50, red) {
		t.Error("region boundary not drawn")
	}

	// The count label sits in the top-left corner.
	found := false
	for y := labelMargin; y < labelMargin+15 && !found; y++ {
		for x := labelMargin; x < labelMargin+30; x++ {
			if isColor(img, x, y, red) {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("count label not drawn")
	}
}

func TestAnnotate_InvalidColor(t *testing.T) {
	if _, err := annotate(blackRaster(t, 10, 10), nil, "red"); err == nil {
		t.Error("annotate should reject an invalid colour")
	}
}

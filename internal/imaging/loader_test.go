package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/tiff"
)

// createTestImage writes a solid colour PNG into a temp directory and
// returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-image.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, createInMemoryImage(width, height, c)); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := createTestImage(t, 100, 60, color.RGBA{255, 0, 0, 255})

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 60 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x60", bounds.Dx(), bounds.Dy())
	}
}

func TestLoad_NonExistent(t *testing.T) {
	_, err := Load("/nonexistent/path/to/image.png")
	if err == nil {
		t.Fatal("Load should fail for non-existent file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want an os.ErrNotExist error", err)
	}
}

func TestLoad_InvalidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-an-image.png")
	if err := os.WriteFile(path, []byte("this is not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := Load(path); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("got %v, want ErrInvalidImage", err)
	}
}

func TestDecode_Formats(t *testing.T) {
	src := createInMemoryImage(16, 8, color.RGBA{40, 80, 120, 255})

	tests := []struct {
		name   string
		encode func(*bytes.Buffer) error
	}{
		{"png", func(b *bytes.Buffer) error { return png.Encode(b, src) }},
		{"jpeg", func(b *bytes.Buffer) error { return jpeg.Encode(b, src, nil) }},
		{"tiff", func(b *bytes.Buffer) error { return tiff.Encode(b, src, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.encode(&buf); err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			img, err := Decode(&buf)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
				t.Errorf("dimensions: got %v, want 16x8", img.Bounds())
			}
		})
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode(strings.NewReader("GIF89a but not really"))
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("got %v, want ErrInvalidImage", err)
	}
}

func TestCheckDimensions(t *testing.T) {
	if err := checkDimensions(image.NewGray(image.Rect(0, 0, 5, 0))); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("zero height: got %v, want ErrInvalidImage", err)
	}
	if err := checkDimensions(nil); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("nil: got %v, want ErrInvalidImage", err)
	}
	if err := checkDimensions(image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Errorf("1x1: unexpected error %v", err)
	}
}

func TestLoadImageInfo(t *testing.T) {
	path := createTestImage(t, 200, 150, color.RGBA{0, 255, 0, 255})

	img, info, err := LoadImageInfo(path)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}
	if img == nil {
		t.Fatal("LoadImageInfo returned nil image")
	}
	if info.Name != "test-image.png" {
		t.Errorf("Name: got %s, want test-image.png", info.Name)
	}
	if info.Width != 200 || info.Height != 150 {
		t.Errorf("dimensions: got %dx%d, want 200x150", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.ColorModel != "color" {
		t.Errorf("ColorModel: got %s, want color", info.ColorModel)
	}
	if info.ColorDepth != "8-bit" {
		t.Errorf("ColorDepth: got %s, want 8-bit", info.ColorDepth)
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("FileSizeBytes: got %d, want > 0", info.FileSizeBytes)
	}
}

func TestLoadImageInfo_Gray16(t *testing.T) {
	g := image.NewGray16(image.Rect(0, 0, 10, 10))
	path := filepath.Join(t.TempDir(), "stack.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := png.Encode(f, g); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	f.Close()

	_, info, err := LoadImageInfo(path)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}
	if info.ColorModel != "gray" || info.ColorDepth != "16-bit" {
		t.Errorf("got %s/%s, want gray/16-bit", info.ColorModel, info.ColorDepth)
	}
}

package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder (common for microscopy)
)

// Decode reads and decodes an image from r.
//
// Supported formats are PNG, JPEG, GIF, TIFF and BMP. JPEG EXIF orientation
// tags are applied so that the returned image is upright.
//
// # Errors
//
//   - Returns an error wrapping ErrInvalidImage if the data is not a
//     supported image or decodes to a zero-sized image
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %v", ErrInvalidImage, err)
	}
	if err := checkDimensions(img); err != nil {
		return nil, err
	}
	return img, nil
}

// Load opens and decodes the image file at path.
//
// The image is read fresh on every call; nothing is cached between runs.
//
// # Errors
//
//   - Returns the underlying *fs.PathError if the file cannot be opened
//   - Returns an error wrapping ErrInvalidImage if the file is not a valid image
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

func checkDimensions(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: no image", ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, b.Dx(), b.Dy())
	}
	return nil
}

// ImageInfo contains metadata about a loaded image file.
//
// This struct provides essential information about an image without requiring
// the caller to analyze the image data directly.
type ImageInfo struct {
	// Name is the base name of the file, as reported in exports.
	Name string `json:"name"`

	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the detected image format: "png", "jpeg", "gif", "tiff",
	// "bmp", or "unknown". Detection is based on file extension.
	Format string `json:"format"`

	// ColorModel is "gray" for single-channel images and "color" otherwise.
	ColorModel string `json:"color_model"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image and returns metadata about it.
//
// Parameters:
//   - path: Path to the image file.
//
// Returns:
//   - image.Image: The decoded image, so callers do not decode twice.
//   - *ImageInfo: Metadata about the image.
//   - error: Non-nil if the image cannot be loaded or the file cannot be stat'd.
//
// # Color Depth Detection
//
// Color depth is determined by the Go image type:
//   - *image.RGBA64, *image.NRGBA64, *image.Gray16 -> "16-bit"
//   - All other types -> "8-bit"
//
// 16-bit microscopy images are reduced to 8 bits by Grayscale.
func LoadImageInfo(path string) (image.Image, *ImageInfo, error) {
	img, err := Load(path)
	if err != nil {
		return nil, nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(f.String())
	}

	colorModel := "color"
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.Gray:
		colorModel = "gray"
	case *image.Gray16:
		colorModel = "gray"
		colorDepth = "16-bit"
	case *image.RGBA64, *image.NRGBA64:
		colorDepth = "16-bit"
	}

	bounds := img.Bounds()
	return img, &ImageInfo{
		Name:          filepath.Base(path),
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		ColorModel:    colorModel,
		ColorDepth:    colorDepth,
		FileSizeBytes: stat.Size(),
	}, nil
}

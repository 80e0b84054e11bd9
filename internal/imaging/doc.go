// Package imaging provides the raster layer shared by every nuclei detection
// method: decoding, grayscale conversion, Gaussian smoothing, Canny edges and
// the RGB overlay used to visualise accepted candidates.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Rasters are stored row-major, index = y*width + x
//
// # Immutability
//
// A Raster never changes after construction. Every transformation returns a
// new Raster, so one grayscale buffer can be shared read-only by detection
// methods running on different goroutines without locking.
//
// # Grayscale Policy
//
// Colour images are reduced with the ITU-R BT.601 luminance weights
// (0.299*R + 0.587*G + 0.114*B). Images that are already 8-bit gray are
// copied unchanged.
//
// # Border Handling
//
// Convolutions (Gaussian blur, Sobel) replicate the nearest edge sample for
// coordinates outside the image. This only affects pixels within half a
// kernel of the frame.
//
// # Error Handling
//
// Functions return errors wrapping ErrInvalidImage for missing, undecodable
// or zero-sized images. Parameter errors (even kernel sizes, inverted
// thresholds) are returned as plain errors.
package imaging

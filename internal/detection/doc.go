// Package detection turns a grayscale raster into counted nuclei candidates.
//
// It provides the stages that sit between preprocessing and counting:
//
//   - Thresholding: global Otsu, fixed level, or Gaussian-weighted local
//     adaptive threshold, each producing a Mask
//   - Cleanup: morphological opening with a 3×3 elliptical element
//   - Region extraction: 8-connected components with outer boundary,
//     bounding box and filled area
//   - Circle detection: a Hough gradient search that works on the smoothed
//     raster directly and skips the three stages above
//   - Filtering: area and border gates shared by regions and circles
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounds hold the top-left pixel plus a width and height in pixels
//
// Circle centres are real-valued; the centre of pixel (x, y) is (x, y).
//
// # Determinism
//
// Every function is a pure function of its inputs. Running the same stage
// twice on the same input yields identical output, and no stage keeps state
// between calls. Masks and rasters passed in are never modified.
//
// # Performance Considerations
//
// Thresholding and morphology split rows across CPUs with bild's parallel
// helper. Region extraction is linear in the number of pixels plus the summed
// bounding-box area of the regions. The circle search costs
// O(edges × (MaxRadius − MinRadius)) for voting plus O(centres × edges) for
// radius estimation.
package detection

// Package pipeline runs the configured detection methods over one image and
// collects a result per method.
//
// # Execution Model
//
// The input image is converted to grayscale once. Every selected method then
// runs as an independent task on a bounded worker pool and receives the same
// read-only raster; all intermediates (smoothed raster, mask, regions) belong
// to that task alone. Each method moves through
//
//	Pending → Running → Succeeded | Failed
//
// A method fails when a stage returns an error, panics, exceeds the
// per-method timeout, or the run's context is cancelled. A failure is recorded
// in that method's result and never affects its siblings.
//
// # Errors
//
// Run returns an error only for problems with the input itself:
//   - ErrInvalidInput for a nil, empty or undecodable image
//   - ErrNoMethods for an empty selection
//   - ErrUnknownMethod for a selection naming an unconfigured method
//
// # Determinism
//
// No stage uses randomness or shared state, so running the same method twice
// on the same image gives the same count and a pixel-identical overlay.
package pipeline

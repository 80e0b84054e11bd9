// Package config holds the per-method pipeline parameters and the run-level
// settings, loaded from YAML with environment overrides.
package config

import (
	"time"

	"github.com/sahibnoorsingh009/nuclei-counter/internal/detection"
)

// Method identifiers. They are stable and used as map keys in results.
const (
	MethodOtsu     = "otsu"
	MethodFixed    = "fixed"
	MethodCircles  = "circles"
	MethodAdaptive = "adaptive"
)

// Detector selects the extraction path of a method.
type Detector string

const (
	// DetectorContours thresholds, opens and extracts regions.
	DetectorContours Detector = "contours"
	// DetectorCircles runs the Hough circle search on the smoothed raster.
	DetectorCircles Detector = "circles"
)

// Config is the complete run configuration.
type Config struct {
	LogLevel string         `yaml:"log_level"` // Logging level (debug, info, warn, error, off).
	Workers  int            `yaml:"workers"`   // Concurrent methods; 0 runs every selected method at once.
	Timeout  time.Duration  `yaml:"timeout"`   // Per-method wall-clock budget; 0 disables it.
	Methods  []MethodConfig `yaml:"methods"`   // Methods in presentation order.
}

// BlurConfig is the Gaussian smoothing applied before detection. A kernel
// size of 0 or 1 disables smoothing.
type BlurConfig struct {
	KernelSize int     `yaml:"kernel_size"`
	Sigma      float64 `yaml:"sigma"`
}

// MethodConfig holds the fixed parameters of one detection method.
type MethodConfig struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Color    string   `yaml:"color"` // Overlay colour as #RRGGBB.
	Detector Detector `yaml:"detector"`

	Blur      BlurConfig                `yaml:"blur"`
	Threshold detection.ThresholdParams `yaml:"threshold"` // Used by DetectorContours.
	Circles   detection.HoughParams     `yaml:"circles"`   // Used by DetectorCircles.
	Filter    detection.FilterParams    `yaml:"filter"`
}

// Default returns the built-in configuration: four methods with the tuned
// parameters, info logging and a 30 second budget per method.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Workers:  0,
		Timeout:  30 * time.Second,
		Methods:  DefaultMethods(),
	}
}

// DefaultMethods returns the four built-in methods in presentation order.
func DefaultMethods() []MethodConfig {
	ids := []string{MethodOtsu, MethodFixed, MethodCircles, MethodAdaptive}
	methods := make([]MethodConfig, 0, len(ids))
	for _, id := range ids {
		m, _ := DefaultMethod(id)
		methods = append(methods, m)
	}
	return methods
}

// DefaultMethod returns the built-in parameters for id. ok is false for an
// unknown id.
func DefaultMethod(id string) (m MethodConfig, ok bool) {
	m = MethodConfig{
		ID:       id,
		Detector: DetectorContours,
		Blur:     BlurConfig{KernelSize: 5, Sigma: 1.0},
		Filter:   detection.DefaultFilterParams(),
	}

	switch id {
	case MethodOtsu:
		m.Name = "Otsu + Watershed"
		m.Color = "#00FF00"
		m.Threshold = detection.ThresholdParams{Strategy: detection.StrategyOtsu}
	case MethodFixed:
		m.Name = "Simple Thresholding"
		m.Color = "#FF0000"
		m.Threshold = detection.ThresholdParams{Strategy: detection.StrategyFixed, Level: 80}
	case MethodCircles:
		m.Name = "Blob Detection"
		m.Color = "#0000FF"
		m.Detector = DetectorCircles
		m.Blur = BlurConfig{KernelSize: 9, Sigma: 2.0}
		m.Circles = detection.DefaultHoughParams()
	case MethodAdaptive:
		m.Name = "Adaptive Thresholding"
		m.Color = "#FFFF00"
		m.Threshold = detection.ThresholdParams{Strategy: detection.StrategyAdaptive, BlockSize: 11, C: 2}
	default:
		return MethodConfig{}, false
	}
	return m, true
}

// Method returns the configured method with the given id.
func (c *Config) Method(id string) (MethodConfig, bool) {
	for _, m := range c.Methods {
		if m.ID == id {
			return m, true
		}
	}
	return MethodConfig{}, false
}

// IDs returns the configured method identifiers in order.
func (c *Config) IDs() []string {
	ids := make([]string, len(c.Methods))
	for i, m := range c.Methods {
		ids[i] = m.ID
	}
	return ids
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sahibnoorsingh009/nuclei-counter/internal/detection"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/imaging"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/logging"
)

// Environment variables that override file and default values.
const (
	EnvWorkers = "NUCLEI_WORKERS"
	EnvTimeout = "NUCLEI_TIMEOUT"
)

// Load reads the configuration at path on top of Default. An empty path uses
// the defaults alone. Environment overrides are applied last, then the
// result is validated.
//
// A method entry in the file is merged over the built-in method with the same
// id, so a file only needs to list the parameters it changes. Entries with
// an unknown id start from a contour method with the default filter. When the
// file lists methods, only those methods are configured, in file order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	var doc struct {
		LogLevel *string        `yaml:"log_level"`
		Workers  *int           `yaml:"workers"`
		Timeout  *time.Duration `yaml:"timeout"`
		Methods  []yaml.Node    `yaml:"methods"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}

	if doc.LogLevel != nil {
		c.LogLevel = *doc.LogLevel
	}
	if doc.Workers != nil {
		c.Workers = *doc.Workers
	}
	if doc.Timeout != nil {
		c.Timeout = *doc.Timeout
	}
	if doc.Methods == nil {
		return nil
	}

	methods := make([]MethodConfig, 0, len(doc.Methods))
	for i := range doc.Methods {
		node := &doc.Methods[i]
		var head struct {
			ID string `yaml:"id"`
		}
		if err := node.Decode(&head); err != nil {
			return fmt.Errorf("methods[%d]: %w", i, err)
		}

		m, ok := DefaultMethod(head.ID)
		if !ok {
			m = MethodConfig{
				ID:       head.ID,
				Name:     head.ID,
				Color:    "#FFFFFF",
				Detector: DetectorContours,
				Blur:     BlurConfig{KernelSize: 5, Sigma: 1.0},
				Circles:  detection.DefaultHoughParams(),
				Filter:   detection.DefaultFilterParams(),
			}
		}
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("methods[%d] (%s): %w", i, head.ID, err)
		}
		methods = append(methods, m)
	}
	c.Methods = methods
	return nil
}

// applyEnvOverrides applies NUCLEI_LOG_LEVEL, NUCLEI_WORKERS and
// NUCLEI_TIMEOUT when they are set.
func (c *Config) applyEnvOverrides() error {
	if val, ok := os.LookupEnv(logging.EnvLevel); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv(EnvWorkers); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if val, ok := os.LookupEnv(EnvTimeout); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// Validate checks the run settings and every method.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if len(c.Methods) == 0 {
		return errors.New("no methods configured")
	}

	seen := make(map[string]bool, len(c.Methods))
	names := make(map[string]bool, len(c.Methods))
	for i := range c.Methods {
		m := &c.Methods[i]
		if m.ID == "" {
			return fmt.Errorf("methods[%d]: id is required", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("methods[%d]: duplicate id %q", i, m.ID)
		}
		seen[m.ID] = true
		if names[m.Name] {
			return fmt.Errorf("methods[%d]: duplicate name %q", i, m.Name)
		}
		names[m.Name] = true
		if err := m.Validate(); err != nil {
			return fmt.Errorf("method %s: %w", m.ID, err)
		}
	}
	return nil
}

// Validate checks one method's parameters.
func (m *MethodConfig) Validate() error {
	if _, err := imaging.ParseColor(m.Color); err != nil {
		return err
	}

	if k := m.Blur.KernelSize; k < 0 || (k > 1 && k%2 == 0) {
		return fmt.Errorf("blur.kernel_size must be 0 or a positive odd number, got %d", k)
	}
	if m.Blur.Sigma < 0 {
		return fmt.Errorf("blur.sigma must not be negative, got %g", m.Blur.Sigma)
	}

	switch m.Detector {
	case DetectorContours:
		t := m.Threshold
		switch t.Strategy {
		case detection.StrategyOtsu:
		case detection.StrategyFixed:
			if t.Level < 0 || t.Level > 255 {
				return fmt.Errorf("threshold.level must be in [0,255], got %d", t.Level)
			}
		case detection.StrategyAdaptive:
			if t.BlockSize < 3 || t.BlockSize%2 == 0 {
				return fmt.Errorf("threshold.block_size must be odd and >= 3, got %d", t.BlockSize)
			}
		default:
			return fmt.Errorf("unknown threshold strategy %q", t.Strategy)
		}
	case DetectorCircles:
		if err := m.Circles.Validate(); err != nil {
			return fmt.Errorf("circles: %w", err)
		}
	default:
		return fmt.Errorf("unknown detector %q", m.Detector)
	}

	f := m.Filter
	if f.MinArea < 0 || f.MaxArea < f.MinArea {
		return fmt.Errorf("invalid area range [%g,%g]", f.MinArea, f.MaxArea)
	}
	if f.BorderMargin < 0 {
		return fmt.Errorf("filter.border_margin must not be negative, got %g", f.BorderMargin)
	}
	return nil
}

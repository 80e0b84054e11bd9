package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sahibnoorsingh009/nuclei-counter/internal/config"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/detection"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/imaging"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/logging"
)

var (
	// ErrInvalidInput is returned when the image is missing, empty, or not an
	// image. It aborts the whole run.
	ErrInvalidInput = errors.New("invalid input image")

	// ErrNoMethods is returned when no method is selected.
	ErrNoMethods = errors.New("no methods selected")

	// ErrUnknownMethod is returned when the selection names a method that is
	// not configured.
	ErrUnknownMethod = errors.New("unknown method")
)

// State is the lifecycle state of one method run.
type State int

const (
	Pending State = iota
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MethodResult is the outcome of one method. It is not modified after Run
// returns.
type MethodResult struct {
	Method string
	Name   string
	State  State

	// Count is the number of candidates that passed the filter.
	Count int

	// Rejected is the number of candidates the filter dropped.
	Rejected int

	// Threshold is the global threshold applied, or -1 when the method has
	// none (adaptive, circles, degenerate Otsu).
	Threshold int

	Elapsed time.Duration

	// Overlay is the grayscale input rendered in RGB with accepted
	// candidates drawn in the method's colour. Nil when the method failed.
	Overlay *image.NRGBA

	// Err describes the failure; empty on success.
	Err string
}

// Succeeded reports whether the method completed.
func (r MethodResult) Succeeded() bool { return r.State == Succeeded }

// ResultSet holds the results of one run in configured method order.
type ResultSet struct {
	Width   int
	Height  int
	Results []MethodResult
}

// ByID returns the result of the method with the given id.
func (rs *ResultSet) ByID(id string) (MethodResult, bool) {
	for _, r := range rs.Results {
		if r.Method == id {
			return r, true
		}
	}
	return MethodResult{}, false
}

// Orchestrator runs configured methods against images. It holds no per-run
// state and is safe for concurrent use.
type Orchestrator struct {
	cfg *config.Config
	log zerolog.Logger

	// maskHook, when set, replaces the cleaned mask of contour methods
	// before region extraction.
	maskHook func(method string, m *detection.Mask) *detection.Mask
}

// New validates cfg and returns an orchestrator for it.
func New(cfg *config.Config, log zerolog.Logger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("nil configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Orchestrator{
		cfg: cfg,
		log: logging.Component(log, "pipeline"),
	}, nil
}

// Methods returns the configured methods in presentation order.
func (o *Orchestrator) Methods() []config.MethodConfig {
	out := make([]config.MethodConfig, len(o.cfg.Methods))
	copy(out, o.cfg.Methods)
	return out
}

// RunAll runs every configured method.
func (o *Orchestrator) RunAll(ctx context.Context, img image.Image) (*ResultSet, error) {
	return o.Run(ctx, img, o.cfg.IDs()...)
}

// Run executes the selected methods against img.
//
// Results come back in configured order regardless of the order of ids;
// repeated ids run once. Method failures are reported in the result set and
// do not produce an error.
func (o *Orchestrator) Run(ctx context.Context, img image.Image, ids ...string) (*ResultSet, error) {
	if len(ids) == 0 {
		return nil, ErrNoMethods
	}
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := o.cfg.Method(id); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, id)
		}
		selected[id] = true
	}

	gray, err := imaging.Grayscale(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	methods := make([]config.MethodConfig, 0, len(selected))
	for _, m := range o.cfg.Methods {
		if selected[m.ID] {
			methods = append(methods, m)
		}
	}

	results := make([]MethodResult, len(methods))
	for i, m := range methods {
		results[i] = MethodResult{Method: m.ID, Name: m.Name, State: Pending, Threshold: -1}
	}

	workers := o.cfg.Workers
	if workers <= 0 || workers > len(methods) {
		workers = len(methods)
	}

	o.log.Debug().
		Int("width", gray.Width()).
		Int("height", gray.Height()).
		Int("methods", len(methods)).
		Int("workers", workers).
		Msg("run started")

	var g errgroup.Group
	g.SetLimit(workers)
	for i, m := range methods {
		i, m := i, m
		g.Go(func() error {
			results[i] = o.execute(ctx, gray, m, results[i])
			return nil
		})
	}
	// Tasks never return errors; failures live in the results.
	_ = g.Wait()

	return &ResultSet{
		Width:   gray.Width(),
		Height:  gray.Height(),
		Results: results,
	}, nil
}

type outcome struct {
	count     int
	rejected  int
	threshold int
	overlay   *image.NRGBA
	err       error
}

// execute runs one method under the per-method budget.
func (o *Orchestrator) execute(ctx context.Context, gray *imaging.Raster, m config.MethodConfig, res MethodResult) MethodResult {
	log := o.log.With().Str("method", m.ID).Logger()

	if err := ctx.Err(); err != nil {
		res.State = Failed
		res.Err = err.Error()
		log.Warn().Err(err).Msg("method not started")
		return res
	}

	res.State = Running
	log.Debug().Msg("method started")
	start := time.Now()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		done <- o.runMethod(gray, m)
	}()

	var timeout <-chan time.Time
	if o.cfg.Timeout > 0 {
		timer := time.NewTimer(o.cfg.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var out outcome
	select {
	case out = <-done:
	case <-timeout:
		out.err = fmt.Errorf("timeout after %s", o.cfg.Timeout)
	case <-ctx.Done():
		out.err = ctx.Err()
	}
	res.Elapsed = time.Since(start)

	if out.err != nil {
		res.State = Failed
		res.Err = out.err.Error()
		log.Error().Err(out.err).Dur("elapsed", res.Elapsed).Msg("method failed")
		return res
	}

	res.State = Succeeded
	res.Count = out.count
	res.Rejected = out.rejected
	res.Threshold = out.threshold
	res.Overlay = out.overlay
	log.Info().
		Int("count", res.Count).
		Int("rejected", res.Rejected).
		Float64("elapsed_ms", float64(res.Elapsed.Microseconds())/1000).
		Msg("method finished")
	return res
}

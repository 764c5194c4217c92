// Package pipeline chains boundary detection, perspective rectification and
// enhancement into a single scan operation.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/docscan/internal/detector"
	"github.com/MeKo-Tech/docscan/internal/enhance"
	"github.com/MeKo-Tech/docscan/internal/rectify"
)

// Config holds configuration for the scan pipeline and its components.
type Config struct {
	Detector      detector.Config
	Rectification rectify.Config
	Enhance       enhance.Options
	SkipRectify   bool    // detect only; ScanResult.Output stays nil
	MinConfidence float64 // results below this are flagged for manual review

	Parallel ParallelConfig
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Detector:      detector.DefaultConfig(),
		Rectification: rectify.DefaultConfig(),
		Enhance:       enhance.DefaultOptions(),
		MinConfidence: 0.5,
		Parallel:      DefaultParallelConfig(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// NewBuilderFromConfig starts from an existing configuration.
func NewBuilderFromConfig(cfg Config) *Builder { return &Builder{cfg: cfg} }

// WithDetectorConfig replaces the detector configuration.
func (b *Builder) WithDetectorConfig(cfg detector.Config) *Builder {
	b.cfg.Detector = cfg
	return b
}

// WithMaxDimension sets the analysis size of the detector.
func (b *Builder) WithMaxDimension(n int) *Builder {
	if n > 0 {
		b.cfg.Detector.MaxDimension = n
	}
	return b
}

// WithDimensionMode sets how the output size is derived.
func (b *Builder) WithDimensionMode(mode rectify.DimensionMode) *Builder {
	if mode != "" {
		b.cfg.Rectification.Mode = mode
	}
	return b
}

// WithRectification toggles the rectify stage.
func (b *Builder) WithRectification(enabled bool) *Builder {
	b.cfg.SkipRectify = !enabled
	return b
}

// WithEnhance sets the enhancement options applied after rectification.
func (b *Builder) WithEnhance(opts enhance.Options) *Builder {
	b.cfg.Enhance = opts
	return b
}

// WithMinConfidence sets the review threshold.
func (b *Builder) WithMinConfidence(c float64) *Builder {
	b.cfg.MinConfidence = c
	return b
}

// WithDebugDir makes detector and rectifier dump debug images into dir.
func (b *Builder) WithDebugDir(dir string) *Builder {
	b.cfg.Detector.DebugDir = dir
	b.cfg.Rectification.DebugDir = dir
	return b
}

// WithParallelWorkers sets the number of parallel workers.
func (b *Builder) WithParallelWorkers(workers int) *Builder {
	if workers > 0 {
		b.cfg.Parallel.MaxWorkers = workers
	}
	return b
}

// WithProgressCallback sets the progress callback for parallel processing.
func (b *Builder) WithProgressCallback(callback ProgressCallback) *Builder {
	b.cfg.Parallel.ProgressCallback = callback
	return b
}

// Config returns the current builder configuration.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks the builder configuration.
func (b *Builder) Validate() error {
	var errs []error
	if err := b.cfg.Detector.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("detector: %w", err))
	}
	if err := b.cfg.Rectification.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rectify: %w", err))
	}
	if err := b.cfg.Enhance.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("enhance: %w", err))
	}
	if b.cfg.MinConfidence < 0 || b.cfg.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("min confidence must be within [0,1], got %g", b.cfg.MinConfidence))
	}
	return errors.Join(errs...)
}

// Pipeline runs detection, rectification and enhancement on images.
// It is safe for concurrent use.
type Pipeline struct {
	Detector  *detector.Detector
	Rectifier *rectify.Rectifier
	cfg       Config
}

// Build validates the configuration and constructs the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	det, err := detector.New(b.cfg.Detector)
	if err != nil {
		return nil, err
	}
	rect, err := rectify.New(b.cfg.Rectification)
	if err != nil {
		return nil, err
	}
	slog.Debug("Pipeline built",
		"max_dimension", b.cfg.Detector.MaxDimension,
		"mode", b.cfg.Rectification.Mode,
		"filter", b.cfg.Enhance.Filter,
		"skip_rectify", b.cfg.SkipRectify)
	return &Pipeline{Detector: det, Rectifier: rect, cfg: b.cfg}, nil
}

// New is shorthand for NewBuilderFromConfig(cfg).Build().
func New(cfg Config) (*Pipeline, error) {
	return NewBuilderFromConfig(cfg).Build()
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Info summarises the pipeline configuration for logs and the health endpoint.
func (p *Pipeline) Info() map[string]interface{} {
	return map[string]interface{}{
		"detector": map[string]interface{}{
			"max_dimension":      p.cfg.Detector.MaxDimension,
			"max_contour_points": p.cfg.Detector.MaxContourPoints,
			"morphology":         p.cfg.Detector.Morphology.Operation.String(),
		},
		"rectify": map[string]interface{}{
			"enabled": !p.cfg.SkipRectify,
			"mode":    string(p.cfg.Rectification.Mode),
		},
		"enhance": map[string]interface{}{
			"filter": string(p.cfg.Enhance.Filter),
		},
		"min_confidence": p.cfg.MinConfidence,
		"max_workers":    p.cfg.Parallel.MaxWorkers,
	}
}

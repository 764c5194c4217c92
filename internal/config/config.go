package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/batch"
	"github.com/MeKo-Tech/docscan/internal/detector"
	"github.com/MeKo-Tech/docscan/internal/enhance"
	"github.com/MeKo-Tech/docscan/internal/pipeline"
	"github.com/MeKo-Tech/docscan/internal/rectify"
	"github.com/MeKo-Tech/docscan/internal/utils"
)

const infoLevel = "info"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	bc := batch.DefaultConfig()
	return Config{
		LogLevel: infoLevel,
		Detector: defaultDetectorConfig(),
		Rectify:  defaultRectifyConfig(),
		Enhance:  EnhanceConfig{Options: enhance.DefaultOptions()},
		Output: OutputConfig{
			Format:       batch.FormatText,
			ImageFormat:  bc.OutputFormat,
			JPEGQuality:  bc.JPEGQuality,
			OverlayColor: "#00c853",
			ReviewColor:  "#ff9100",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				RequestsPerHour:   1000,
				MaxRequestsPerDay: 10000,
				MaxDataPerDayMB:   1024,
			},
		},
		Batch: BatchConfig{
			Workers:   bc.Workers,
			ChunkSize: bc.ChunkSize,
			Suffix:    bc.Suffix,
		},
	}
}

func defaultDetectorConfig() DetectorConfig {
	cfg := detector.DefaultConfig()
	return DetectorConfig{
		MaxDimension:       cfg.MaxDimension,
		MinContourPoints:   cfg.MinContourPoints,
		MaxContourPoints:   cfg.MaxContourPoints,
		HighThresholdRatio: cfg.HighThresholdRatio,
		LowThresholdRatio:  cfg.LowThresholdRatio,
		Morphology:         cfg.Morphology.Operation.String(),
		KernelSize:         cfg.Morphology.KernelSize,
		MorphIterations:    cfg.Morphology.Iterations,
		MinConfidence:      pipeline.DefaultConfig().MinConfidence,
	}
}

func defaultRectifyConfig() RectifyConfig {
	cfg := rectify.DefaultConfig()
	return RectifyConfig{
		Enabled:         true,
		Mode:            string(cfg.Mode),
		MinQuadArea:     cfg.MinQuadArea,
		CollinearTol:    cfg.CollinearTol,
		MaxOutputPixels: cfg.MaxOutputPixels,
	}
}

// Validate validates the configuration and returns the first error found.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", infoLevel, "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if !batch.IsValidFormat(c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: text, json, yaml, csv)", c.Output.Format)
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("invalid jpeg quality: %d (must be between 1 and 100)", c.Output.JPEGQuality)
	}
	for name, hex := range map[string]string{
		"output.overlay_color": c.Output.OverlayColor,
		"output.review_color":  c.Output.ReviewColor,
	} {
		if _, err := utils.ParseHexColor(hex); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if err := validateThreshold(c.Detector.MinConfidence, "detector.min_confidence"); err != nil {
		return err
	}
	dc, err := c.toDetectorConfig()
	if err != nil {
		return err
	}
	if err := dc.Validate(); err != nil {
		return fmt.Errorf("invalid detector settings: %w", err)
	}

	rc, err := c.toRectificationConfig()
	if err != nil {
		return err
	}
	if err := rc.Validate(); err != nil {
		return fmt.Errorf("invalid rectify settings: %w", err)
	}

	opts, err := c.toEnhanceOptions()
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid enhance settings: %w", err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if rl := c.Server.RateLimit; rl.RequestsPerMinute < 0 || rl.RequestsPerHour < 0 || rl.MaxRequestsPerDay < 0 || rl.MaxDataPerDayMB < 0 {
		return errors.New("invalid rate limit: limits must not be negative")
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("invalid batch workers: %d (must not be negative)", c.Batch.Workers)
	}
	if c.Batch.ChunkSize < 0 {
		return fmt.Errorf("invalid batch chunk size: %d (must not be negative)", c.Batch.ChunkSize)
	}

	return nil
}

// ToPipelineConfig converts the config to the scan pipeline configuration.
func (c *Config) ToPipelineConfig() (pipeline.Config, error) {
	dc, err := c.toDetectorConfig()
	if err != nil {
		return pipeline.Config{}, err
	}
	rc, err := c.toRectificationConfig()
	if err != nil {
		return pipeline.Config{}, err
	}
	opts, err := c.toEnhanceOptions()
	if err != nil {
		return pipeline.Config{}, err
	}
	cfg := pipeline.DefaultConfig()
	cfg.Detector = dc
	cfg.Rectification = rc
	cfg.Enhance = opts
	cfg.SkipRectify = !c.Rectify.Enabled
	cfg.MinConfidence = c.Detector.MinConfidence
	if c.Batch.Workers > 0 {
		cfg.Parallel.MaxWorkers = c.Batch.Workers
	}
	return cfg, nil
}

// ToBatchConfig converts the batch and output sections to batch settings.
func (c *Config) ToBatchConfig() *batch.Config {
	cfg := batch.DefaultConfig()
	cfg.Workers = c.Batch.Workers
	cfg.ChunkSize = c.Batch.ChunkSize
	cfg.Recursive = c.Batch.Recursive
	cfg.OutputDir = c.Batch.OutputDir
	cfg.Suffix = c.Batch.Suffix
	cfg.PDFFile = c.Batch.PDFFile
	cfg.ContinueOnError = c.Batch.ContinueOnError
	cfg.OutputFormat = c.Output.ImageFormat
	cfg.JPEGQuality = c.Output.JPEGQuality
	cfg.OverlayDir = c.Output.OverlayDir
	cfg.Format = c.Output.Format
	cfg.OutputFile = c.Output.File
	if colors, err := c.OverlayColors(); err == nil {
		cfg.OverlayColors = colors
	}
	return cfg
}

// OverlayColors parses the overlay colours of the output section.
func (c *Config) OverlayColors() (pipeline.OverlayColors, error) {
	detected, err := utils.ParseHexColor(c.Output.OverlayColor)
	if err != nil {
		return pipeline.OverlayColors{}, err
	}
	review, err := utils.ParseHexColor(c.Output.ReviewColor)
	if err != nil {
		return pipeline.OverlayColors{}, err
	}
	return pipeline.OverlayColors{Detected: detected, Review: review}, nil
}

func (c *Config) toDetectorConfig() (detector.Config, error) {
	cfg := detector.DefaultConfig()
	cfg.MaxDimension = c.Detector.MaxDimension
	cfg.MinContourPoints = c.Detector.MinContourPoints
	cfg.MaxContourPoints = c.Detector.MaxContourPoints
	cfg.HighThresholdRatio = c.Detector.HighThresholdRatio
	cfg.LowThresholdRatio = c.Detector.LowThresholdRatio
	cfg.DebugDir = c.Detector.DebugDir
	cfg.OverlayColor = c.Output.OverlayColor

	op, err := detector.ParseMorphologicalOp(c.Detector.Morphology)
	if err != nil {
		return detector.Config{}, fmt.Errorf("invalid detector.morphology: %w", err)
	}
	cfg.Morphology = detector.MorphConfig{
		Operation:  op,
		KernelSize: c.Detector.KernelSize,
		Iterations: c.Detector.MorphIterations,
	}
	return cfg, nil
}

func (c *Config) toRectificationConfig() (rectify.Config, error) {
	cfg := rectify.DefaultConfig()
	mode, err := rectify.ParseDimensionMode(c.Rectify.Mode)
	if err != nil {
		return rectify.Config{}, fmt.Errorf("invalid rectify.mode: %w", err)
	}
	cfg.Mode = mode
	cfg.MinQuadArea = c.Rectify.MinQuadArea
	cfg.CollinearTol = c.Rectify.CollinearTol
	cfg.MaxOutputPixels = c.Rectify.MaxOutputPixels
	cfg.DebugDir = c.Rectify.DebugDir
	return cfg, nil
}

func (c *Config) toEnhanceOptions() (enhance.Options, error) {
	if c.Enhance.Preset != "" {
		opts, err := enhance.Preset(c.Enhance.Preset)
		if err != nil {
			return enhance.Options{}, fmt.Errorf("invalid enhance.preset: %w", err)
		}
		return opts, nil
	}
	opts := c.Enhance.Options
	filter, err := enhance.ParseFilter(string(opts.Filter))
	if err != nil {
		return enhance.Options{}, fmt.Errorf("invalid enhance.filter: %w", err)
	}
	opts.Filter = filter
	return opts, nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}

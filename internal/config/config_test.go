package config

import (
	"testing"

	"github.com/MeKo-Tech/docscan/internal/detector"
	"github.com/MeKo-Tech/docscan/internal/enhance"
	"github.com/MeKo-Tech/docscan/internal/rectify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, infoLevel, cfg.LogLevel)
	assert.Equal(t, 800, cfg.Detector.MaxDimension)
	assert.Equal(t, "closing", cfg.Detector.Morphology)
	assert.InDelta(t, 0.5, cfg.Detector.MinConfidence, 1e-12)
	assert.True(t, cfg.Rectify.Enabled)
	assert.Equal(t, "average", cfg.Rectify.Mode)
	assert.Equal(t, enhance.FilterNone, cfg.Enhance.Filter)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "_scan", cfg.Batch.Suffix)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"output format", func(c *Config) { c.Output.Format = "xml" }, "invalid output format"},
		{"jpeg quality", func(c *Config) { c.Output.JPEGQuality = 0 }, "invalid jpeg quality"},
		{"overlay color", func(c *Config) { c.Output.OverlayColor = "green" }, "output.overlay_color"},
		{"min confidence", func(c *Config) { c.Detector.MinConfidence = 1.5 }, "detector.min_confidence"},
		{"morphology", func(c *Config) { c.Detector.Morphology = "blur" }, "detector.morphology"},
		{"even kernel", func(c *Config) { c.Detector.KernelSize = 4 }, "invalid detector settings"},
		{"high threshold", func(c *Config) { c.Detector.HighThresholdRatio = 0 }, "invalid detector settings"},
		{"rectify mode", func(c *Config) { c.Rectify.Mode = "stretch" }, "rectify.mode"},
		{"rectify area", func(c *Config) { c.Rectify.MinQuadArea = -1 }, "invalid rectify settings"},
		{"preset", func(c *Config) { c.Enhance.Preset = "neon" }, "enhance.preset"},
		{"filter", func(c *Config) { c.Enhance.Filter = "neon" }, "enhance.filter"},
		{"contrast", func(c *Config) { c.Enhance.Contrast = 3 }, "invalid enhance settings"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"upload", func(c *Config) { c.Server.MaxUploadMB = 0 }, "invalid max upload size"},
		{"rate limit", func(c *Config) { c.Server.RateLimit.RequestsPerHour = -1 }, "invalid rate limit"},
		{"timeout", func(c *Config) { c.Server.TimeoutSec = 0 }, "invalid timeout"},
		{"workers", func(c *Config) { c.Batch.Workers = -2 }, "invalid batch workers"},
		{"chunk", func(c *Config) { c.Batch.ChunkSize = -1 }, "invalid batch chunk size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToPipelineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detector.MaxDimension = 640
	cfg.Detector.Morphology = "dilate"
	cfg.Detector.MinConfidence = 0.8
	cfg.Rectify.Mode = "max"
	cfg.Rectify.Enabled = false
	cfg.Rectify.DebugDir = "/tmp/rect"
	cfg.Enhance.Filter = "gray"
	cfg.Batch.Workers = 3

	pc, err := cfg.ToPipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, 640, pc.Detector.MaxDimension)
	assert.Equal(t, detector.MorphDilate, pc.Detector.Morphology.Operation)
	assert.InDelta(t, 0.8, pc.MinConfidence, 1e-12)
	assert.Equal(t, rectify.ModeMaximum, pc.Rectification.Mode)
	assert.Equal(t, "/tmp/rect", pc.Rectification.DebugDir)
	assert.True(t, pc.SkipRectify)
	assert.Equal(t, enhance.FilterGrayscale, pc.Enhance.Filter)
	assert.Equal(t, 3, pc.Parallel.MaxWorkers)
}

func TestToPipelineConfig_PresetWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enhance.Preset = "bw-document"
	cfg.Enhance.Brightness = 50

	pc, err := cfg.ToPipelineConfig()
	require.NoError(t, err)
	want, err := enhance.Preset("bw-document")
	require.NoError(t, err)
	assert.Equal(t, want, pc.Enhance)
}

func TestToPipelineConfig_Errors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rectify.Mode = "bogus"
	_, err := cfg.ToPipelineConfig()
	require.ErrorIs(t, err, rectify.ErrUnknownMode)
}

func TestToBatchConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Batch.Workers = 2
	cfg.Batch.Recursive = true
	cfg.Batch.OutputDir = "out"
	cfg.Batch.PDFFile = "scan.pdf"
	cfg.Output.ImageFormat = "png"
	cfg.Output.Format = "csv"
	cfg.Output.OverlayDir = "ov"

	bc := cfg.ToBatchConfig()
	require.NoError(t, bc.Validate())
	assert.Equal(t, 2, bc.Workers)
	assert.True(t, bc.Recursive)
	assert.Equal(t, "out", bc.OutputDir)
	assert.Equal(t, "scan.pdf", bc.PDFFile)
	assert.Equal(t, "png", bc.OutputFormat)
	assert.Equal(t, "csv", bc.Format)
	assert.Equal(t, "ov", bc.OverlayDir)
	assert.Equal(t, "_scan", bc.Suffix)
}

func TestOverlayColors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.OverlayColor = "#ff0000"
	colors, err := cfg.OverlayColors()
	require.NoError(t, err)
	r, g, b, _ := colors.Detected.RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0}, []uint32{r, g, b})

	cfg.Output.ReviewColor = "nope"
	_, err = cfg.OverlayColors()
	require.Error(t, err)
}

func TestValidateThreshold(t *testing.T) {
	require.NoError(t, validateThreshold(0, "x"))
	require.NoError(t, validateThreshold(1, "x"))
	require.Error(t, validateThreshold(-0.01, "x"))
	assert.True(t, contains([]string{"a", "b"}, "b"))
	assert.False(t, contains(nil, "a"))
}

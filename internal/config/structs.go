//nolint:lll
package config

import "github.com/MeKo-Tech/docscan/internal/enhance"

// Config represents the complete configuration for docscan. It covers all
// commands (detect, rectify, batch, serve) and is loaded from configuration
// files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Detector DetectorConfig `mapstructure:"detector" yaml:"detector" json:"detector"`
	Rectify  RectifyConfig  `mapstructure:"rectify" yaml:"rectify" json:"rectify"`
	Enhance  EnhanceConfig  `mapstructure:"enhance" yaml:"enhance" json:"enhance"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
	Batch    BatchConfig    `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// DetectorConfig contains boundary detection settings.
type DetectorConfig struct {
	MaxDimension       int     `mapstructure:"max_dimension" yaml:"max_dimension" json:"max_dimension"`
	MinContourPoints   int     `mapstructure:"min_contour_points" yaml:"min_contour_points" json:"min_contour_points"`
	MaxContourPoints   int     `mapstructure:"max_contour_points" yaml:"max_contour_points" json:"max_contour_points"`
	HighThresholdRatio float64 `mapstructure:"high_threshold_ratio" yaml:"high_threshold_ratio" json:"high_threshold_ratio"`
	LowThresholdRatio  float64 `mapstructure:"low_threshold_ratio" yaml:"low_threshold_ratio" json:"low_threshold_ratio"`
	Morphology         string  `mapstructure:"morphology" yaml:"morphology" json:"morphology"`
	KernelSize         int     `mapstructure:"kernel_size" yaml:"kernel_size" json:"kernel_size"`
	MorphIterations    int     `mapstructure:"morph_iterations" yaml:"morph_iterations" json:"morph_iterations"`
	MinConfidence      float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
	DebugDir           string  `mapstructure:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
}

// RectifyConfig contains perspective correction settings.
type RectifyConfig struct {
	Enabled         bool    `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Mode            string  `mapstructure:"mode" yaml:"mode" json:"mode"`
	MinQuadArea     float64 `mapstructure:"min_quad_area" yaml:"min_quad_area" json:"min_quad_area"`
	CollinearTol    float64 `mapstructure:"collinear_tolerance" yaml:"collinear_tolerance" json:"collinear_tolerance"`
	MaxOutputPixels int     `mapstructure:"max_output_pixels" yaml:"max_output_pixels" json:"max_output_pixels"`
	DebugDir        string  `mapstructure:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
}

// EnhanceConfig selects a preset and/or individual post-processing options.
// A preset replaces the individual options.
type EnhanceConfig struct {
	Preset          string `mapstructure:"preset" yaml:"preset" json:"preset"`
	enhance.Options `mapstructure:",squash" yaml:",inline"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format       string `mapstructure:"format" yaml:"format" json:"format"`
	File         string `mapstructure:"file" yaml:"file" json:"file"`
	ImageFormat  string `mapstructure:"image_format" yaml:"image_format" json:"image_format"`
	JPEGQuality  int    `mapstructure:"jpeg_quality" yaml:"jpeg_quality" json:"jpeg_quality"`
	OverlayDir   string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
	OverlayColor string `mapstructure:"overlay_color" yaml:"overlay_color" json:"overlay_color"`
	ReviewColor  string `mapstructure:"review_color" yaml:"review_color" json:"review_color"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig contains per-client request limits for the server. Zero
// disables an individual limit.
type RateLimitConfig struct {
	Enabled           bool  `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int   `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int   `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDayMB   int64 `mapstructure:"max_data_per_day_mb" yaml:"max_data_per_day_mb" json:"max_data_per_day_mb"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	ChunkSize       int    `mapstructure:"chunk_size" yaml:"chunk_size" json:"chunk_size"`
	Recursive       bool   `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	OutputDir       string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	Suffix          string `mapstructure:"suffix" yaml:"suffix" json:"suffix"`
	PDFFile         string `mapstructure:"pdf_file" yaml:"pdf_file" json:"pdf_file"`
	ContinueOnError bool   `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

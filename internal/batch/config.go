package batch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/MeKo-Tech/docscan/internal/common"
	"github.com/MeKo-Tech/docscan/internal/pipeline"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Parallel processing settings
	Workers   int
	ChunkSize int // images decoded and held in memory at once

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Output settings
	OutputDir    string
	Suffix       string
	OutputFormat string // jpg, png, tiff or bmp; empty keeps the input format
	JPEGQuality  int
	OverlayDir   string
	PDFFile      string
	Format       string
	OutputFile   string

	// OverlayColors outline the detected page in overlays; zero selects
	// pipeline.DefaultOverlayColors.
	OverlayColors pipeline.OverlayColors

	// Progress settings
	ShowProgress     bool
	Quiet            bool
	ProgressInterval time.Duration
	ProgressWriter   io.Writer

	ContinueOnError bool
}

// DefaultConfig returns the batch defaults used by the CLI.
func DefaultConfig() *Config {
	return &Config{
		Workers:          0,
		ChunkSize:        16,
		Suffix:           "_scan",
		OutputFormat:     "jpg",
		JPEGQuality:      90,
		Format:           "text",
		ShowProgress:     true,
		ProgressInterval: 100 * time.Millisecond,
	}
}

var outputFormats = map[string]bool{"jpg": true, "jpeg": true, "png": true, "tif": true, "tiff": true, "bmp": true}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("chunk size must be >= 0, got %d", c.ChunkSize))
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg quality must be within [0,100], got %d", c.JPEGQuality))
	}
	format := normalizeExt(c.OutputFormat)
	if format != "" && !outputFormats[format] {
		errs = append(errs, fmt.Errorf("unsupported output format %q", c.OutputFormat))
	}
	if c.PDFFile != "" && format == "bmp" {
		errs = append(errs, errors.New("bmp pages cannot be embedded in a PDF"))
	}
	if !IsValidFormat(c.Format) {
		errs = append(errs, fmt.Errorf("unsupported result format %q", c.Format))
	}
	return errors.Join(errs...)
}

// Failure records an input that could not be processed.
type Failure struct {
	File  string `json:"file"  yaml:"file"`
	Error string `json:"error" yaml:"error"`
}

// Result holds the result of batch processing.
type Result struct {
	Results     []*pipeline.ScanResult
	ImagePaths  []string
	Failures    []Failure
	PDFFile     string
	Duration    time.Duration
	WorkerCount int
	Memory      common.MemoryStats
}

// Stats summarizes a batch run.
type Stats struct {
	TotalImages      int
	ProcessedImages  int
	FailedImages     int
	DetectedPages    int
	NeedsReview      int
	TotalDuration    time.Duration
	AveragePerImage  time.Duration
	ThroughputPerSec float64
}

// Stats computes processing statistics.
func (r *Result) Stats() Stats {
	s := Stats{
		TotalImages:   len(r.ImagePaths),
		FailedImages:  len(r.Failures),
		TotalDuration: r.Duration,
	}
	for _, res := range r.Results {
		if res == nil {
			continue
		}
		s.ProcessedImages++
		if res.Detected {
			s.DetectedPages++
		}
		if res.NeedsReview {
			s.NeedsReview++
		}
	}
	if s.ProcessedImages > 0 {
		s.AveragePerImage = r.Duration / time.Duration(s.ProcessedImages)
	}
	if secs := r.Duration.Seconds(); secs > 0 {
		s.ThroughputPerSec = float64(s.ProcessedImages) / secs
	}
	return s
}

// FormatResults formats the batch processing results in the specified format.
func (r *Result) FormatResults(format string) (string, error) {
	return FormatResults(r.Results, format)
}

// SaveResults writes the formatted results to outputFile, or to w when no
// file is given.
func (r *Result) SaveResults(w io.Writer, format, outputFile string, quiet bool) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(w, "Results written to %s\n", outputFile)
		}
		return nil
	}
	_, _ = fmt.Fprint(w, output)
	if !strings.HasSuffix(output, "\n") {
		_, _ = fmt.Fprintln(w)
	}
	return nil
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(w io.Writer, quiet bool) {
	if quiet {
		return
	}
	stats := r.Stats()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total images: %d\n", stats.TotalImages)
	_, _ = fmt.Fprintf(w, "  Processed: %d\n", stats.ProcessedImages)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", stats.FailedImages)
	_, _ = fmt.Fprintf(w, "  Detected: %d\n", stats.DetectedPages)
	_, _ = fmt.Fprintf(w, "  Needs review: %d\n", stats.NeedsReview)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", r.WorkerCount)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", stats.TotalDuration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Avg per image: %v\n", stats.AveragePerImage.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Throughput: %.1f images/sec\n", stats.ThroughputPerSec)
	_, _ = fmt.Fprintf(w, "  Memory: %s\n", r.Memory)
	if r.PDFFile != "" {
		_, _ = fmt.Fprintf(w, "  PDF: %s\n", r.PDFFile)
	}
}

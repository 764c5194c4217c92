package cmd

import (
	"fmt"
	"runtime"
	"time"

	"github.com/MeKo-Tech/docscan/internal/batch"
	"github.com/spf13/cobra"
)

// batchCmd represents the batch command for parallel page scanning.
var batchCmd = &cobra.Command{
	Use:   "batch [files...]",
	Short: "Scan many photos in parallel and optionally merge them into a PDF",
	Long: `Detect, rectify and enhance every image found in the given files and
directories. Rectified pages are written next to their inputs (or into
--output-dir) with a suffix, and can be combined into a single PDF.

Images are decoded in chunks so memory stays bounded for large folders.

Supported formats: JPEG, PNG, BMP, TIFF

Examples:
  docscan batch *.jpg
  docscan batch photos/ --recursive --workers 8 --output-dir scans
  docscan batch photos/ --pdf scans.pdf --preset document
  docscan batch photos/ --format json -o results.json --stats`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatchCommand,
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	pcfg, err := cfg.ToPipelineConfig()
	if err != nil {
		return fmt.Errorf("invalid pipeline configuration: %w", err)
	}
	pcfg.SkipRectify = false

	config := cfg.ToBatchConfig()
	config.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	config.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	config.Quiet, _ = cmd.Flags().GetBool("quiet")
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	config.ShowProgress = !noProgress
	config.ProgressInterval, _ = cmd.Flags().GetDuration("progress-interval")
	config.ProgressWriter = cmd.ErrOrStderr()

	result, err := batch.ProcessBatch(cmd.Context(), args, pcfg, config)
	if err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}
	reportFailures(cmd, result)

	if err := result.SaveResults(cmd.OutOrStdout(), config.Format, config.OutputFile, config.Quiet); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		result.PrintStats(cmd.ErrOrStderr(), config.Quiet)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addDetectorFlags(batchCmd)
	addScanFlags(batchCmd)
	addOutputFlags(batchCmd)

	flags := batchCmd.Flags()

	// Parallel processing flags
	flags.IntP("workers", "w", 0, fmt.Sprintf("number of parallel workers (default: %d)", runtime.NumCPU()))
	flags.Int("chunk-size", 16, "images decoded and held in memory at once")
	flags.Bool("continue-on-error", false, "skip images that fail instead of stopping")
	bindFlag(flags, "workers", "batch.workers")
	bindFlag(flags, "chunk-size", "batch.chunk_size")
	bindFlag(flags, "continue-on-error", "batch.continue_on_error")

	// Page output flags
	flags.StringP("output-dir", "d", "", "directory for rectified pages (default: next to each input)")
	flags.String("suffix", "_scan", "suffix added to rectified page names")
	flags.String("image-format", "jpg", "rectified page format: jpg, png, tiff, bmp")
	flags.Int("jpeg-quality", 90, "JPEG quality (1-100)")
	flags.String("pdf", "", "combine all rectified pages into this PDF")
	bindFlag(flags, "output-dir", "batch.output_dir")
	bindFlag(flags, "suffix", "batch.suffix")
	bindFlag(flags, "image-format", "output.image_format")
	bindFlag(flags, "jpeg-quality", "output.jpeg_quality")
	bindFlag(flags, "pdf", "batch.pdf_file")

	// File discovery flags
	flags.BoolP("recursive", "r", false, "recursively scan directories")
	flags.StringSlice("include", []string{}, "file patterns to include (e.g. *.jpg)")
	flags.StringSlice("exclude", []string{}, "file patterns to exclude")
	bindFlag(flags, "recursive", "batch.recursive")

	// Progress and monitoring flags
	flags.BoolP("quiet", "q", false, "suppress progress and status output")
	flags.Bool("no-progress", false, "disable the progress bar")
	flags.Bool("stats", false, "show processing statistics")
	flags.Duration("progress-interval", 100*time.Millisecond, "progress update interval")
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/docscan/internal/batch"
	"github.com/MeKo-Tech/docscan/internal/config"
	"github.com/spf13/cobra"
)

// detectCmd represents the detect command.
var detectCmd = &cobra.Command{
	Use:   "detect [images...]",
	Short: "Detect document boundaries in images",
	Long: `Find the page outline in one or more photos and report its corners.

Corners are printed in top-left, top-right, bottom-right, bottom-left order
in source pixels, together with a confidence score. Results below the
minimum confidence are flagged for review; when no page is found a default
crop inset 5% from the image border is reported instead.

Supported formats: JPEG, PNG, BMP, TIFF

Examples:
  docscan detect photo.jpg
  docscan detect photos/ --recursive --format json
  docscan detect photo.jpg --overlay-dir overlays --format csv -o corners.csv`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files provided")
		}
		cfg := GetConfig()

		pcfg, err := cfg.ToPipelineConfig()
		if err != nil {
			return fmt.Errorf("invalid pipeline configuration: %w", err)
		}
		pcfg.SkipRectify = true

		bcfg := cfg.ToBatchConfig()
		bcfg.PDFFile = ""
		bcfg.ShowProgress = false

		result, err := batch.ProcessBatch(cmd.Context(), args, pcfg, bcfg)
		if err != nil {
			return err
		}
		reportFailures(cmd, result)
		return result.SaveResults(cmd.OutOrStdout(), bcfg.Format, bcfg.OutputFile, false)
	},
}

// addDetectorFlags registers the boundary detection flags shared by all
// scanning commands.
func addDetectorFlags(cmd *cobra.Command) {
	d := config.DefaultConfig().Detector
	flags := cmd.Flags()
	flags.Float64("min-confidence", d.MinConfidence, "results below this confidence are flagged for review (0.0-1.0)")
	flags.Int("max-dimension", d.MaxDimension, "longest image side used for detection")
	flags.String("morphology", d.Morphology, "edge cleanup before contour tracing: none, dilate, erode, opening, closing")
	flags.String("debug-dir", "", "directory for detector debug images")
	bindFlag(flags, "min-confidence", "detector.min_confidence")
	bindFlag(flags, "max-dimension", "detector.max_dimension")
	bindFlag(flags, "morphology", "detector.morphology")
	bindFlag(flags, "debug-dir", "detector.debug_dir")
}

// addOutputFlags registers result formatting flags.
func addOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("format", "f", batch.FormatText, "result format: text, json, yaml, csv")
	flags.String("output-file", "", "write results to this file instead of stdout")
	flags.String("overlay-dir", "", "directory to save overlay images showing the detected outline")
	bindFlag(flags, "format", "output.format")
	bindFlag(flags, "output-file", "output.file")
	bindFlag(flags, "overlay-dir", "output.overlay_dir")
}

// reportFailures lists images skipped with --continue-on-error.
func reportFailures(cmd *cobra.Command, result *batch.Result) {
	for _, f := range result.Failures {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s: %s\n", f.File, f.Error)
	}
}

func init() {
	rootCmd.AddCommand(detectCmd)

	addDetectorFlags(detectCmd)
	addOutputFlags(detectCmd)
	detectCmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	detectCmd.Flags().IntP("workers", "w", 0, "number of parallel workers (default: number of CPUs)")
	detectCmd.Flags().Bool("continue-on-error", false, "skip images that fail instead of stopping")
	bindFlag(detectCmd.Flags(), "recursive", "batch.recursive")
	bindFlag(detectCmd.Flags(), "workers", "batch.workers")
	bindFlag(detectCmd.Flags(), "continue-on-error", "batch.continue_on_error")
}

package cmd

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/batch"
	"github.com/MeKo-Tech/docscan/internal/enhance"
	"github.com/MeKo-Tech/docscan/internal/pdf"
	"github.com/MeKo-Tech/docscan/internal/pipeline"
	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/spf13/cobra"
)

var rectifyCmd = &cobra.Command{
	Use:   "rectify [image]",
	Short: "Flatten the document page in an image",
	Long: `Detect the page in a photo (or use the given corners) and warp it into
a front-facing rectangle. Optional filters are applied afterwards.

Corners are given as eight numbers in top-left, top-right, bottom-right,
bottom-left order. With --normalized they are fractions of the image size.

Examples:
  docscan rectify photo.jpg
  docscan rectify photo.jpg -o page.png --preset document
  docscan rectify photo.jpg --pdf page.pdf
  docscan rectify photo.jpg --corners "120,80 900,95 940,1300 90,1280"
  docscan rectify photo.jpg --corners 0.1,0.1,0.9,0.1,0.9,0.9,0.1,0.9 --normalized`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runRectify,
}

func runRectify(cmd *cobra.Command, args []string) error {
	input := args[0]
	cfg := GetConfig()

	pcfg, err := cfg.ToPipelineConfig()
	if err != nil {
		return fmt.Errorf("invalid pipeline configuration: %w", err)
	}
	pcfg.SkipRectify = false
	pl, err := pipeline.New(pcfg)
	if err != nil {
		return fmt.Errorf("failed to create scan pipeline: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = batch.OutputPath(input, "", cfg.Batch.Suffix, cfg.Output.ImageFormat)
	}
	if sameFile(output, input) {
		return errors.New("refusing to overwrite the input image")
	}

	img, _, err := utils.LoadImage(input)
	if err != nil {
		return err
	}

	var res *pipeline.ScanResult
	rawCorners, _ := cmd.Flags().GetString("corners")
	if rawCorners != "" {
		q, err := utils.ParseCorners(rawCorners)
		if err != nil {
			return err
		}
		if normalized, _ := cmd.Flags().GetBool("normalized"); normalized {
			b := img.Bounds()
			q = q.Denormalize(b.Dx(), b.Dy())
		}
		res, err = pl.ProcessImageWithCorners(cmd.Context(), img, q)
		if err != nil {
			return err
		}
	} else {
		res, err = pl.ProcessImage(cmd.Context(), img)
		if err != nil {
			return err
		}
	}
	res.Source = input

	if cfg.Output.OverlayDir != "" {
		colors, err := cfg.OverlayColors()
		if err != nil {
			colors = pipeline.DefaultOverlayColors()
		}
		ovPath := batch.OverlayPath(input, cfg.Output.OverlayDir)
		if err := utils.SaveImage(ovPath, pipeline.RenderOverlay(img, res, colors), 0); err != nil {
			return fmt.Errorf("failed to save overlay: %w", err)
		}
	}

	if err := utils.SaveImage(output, res.Output, cfg.Output.JPEGQuality); err != nil {
		return err
	}
	if pdfFile, _ := cmd.Flags().GetString("pdf"); pdfFile != "" {
		if err := pdf.WritePages([]image.Image{res.Output}, pdfFile, cfg.Output.JPEGQuality); err != nil {
			return err
		}
	}
	res.OutputPath = output
	res.Output = nil

	if res.NeedsReview {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(),
			"Warning: low confidence (%.2f), check the page outline of %s\n", res.Confidence, input)
	}

	text, err := batch.FormatResults([]*pipeline.ScanResult{res}, cfg.Output.Format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), text)
	return err
}

func sameFile(a, b string) bool {
	aa, errA := filepath.Abs(a)
	bb, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
	}
	return strings.EqualFold(aa, bb)
}

// addScanFlags registers the rectification and enhancement flags.
func addScanFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("mode", "", "output size mode: average, maximum")
	flags.String("filter", "", "post-processing filter: none, grayscale, bw, sepia, auto")
	flags.String("preset", "", "enhancement preset, replaces individual options: "+strings.Join(enhance.PresetNames(), ", "))
	bindFlag(flags, "mode", "rectify.mode")
	bindFlag(flags, "filter", "enhance.filter")
	bindFlag(flags, "preset", "enhance.preset")
}

func init() {
	rootCmd.AddCommand(rectifyCmd)

	addDetectorFlags(rectifyCmd)
	addScanFlags(rectifyCmd)

	flags := rectifyCmd.Flags()
	flags.StringP("output", "o", "", "output image path (default: <input>_scan.<ext> next to the input)")
	flags.String("corners", "", "page corners as x1,y1,...,x4,y4 (top-left, top-right, bottom-right, bottom-left)")
	flags.Bool("normalized", false, "corners are fractions of the image size in [0,1]")
	flags.String("pdf", "", "also write the page as a single-page PDF")
	flags.StringP("format", "f", batch.FormatText, "result format: text, json, yaml, csv")
	flags.String("image-format", "", "output image format when -o is not given: jpg, png, tiff, bmp")
	flags.Int("jpeg-quality", 90, "JPEG quality (1-100)")
	flags.String("overlay-dir", "", "directory to save an overlay image showing the page outline")
	bindFlag(flags, "format", "output.format")
	bindFlag(flags, "image-format", "output.image_format")
	bindFlag(flags, "jpeg-quality", "output.jpeg_quality")
	bindFlag(flags, "overlay-dir", "output.overlay_dir")
}

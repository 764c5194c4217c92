// Package batch scans many page photos at once: it discovers inputs,
// runs them through the scan pipeline in parallel chunks, writes the
// rectified pages and optional overlays, and can bind the result into a
// PDF.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"github.com/MeKo-Tech/docscan/internal/common"
	"github.com/MeKo-Tech/docscan/internal/pipeline"
	"github.com/MeKo-Tech/docscan/internal/utils"
)

// ErrNoImages is returned when discovery finds nothing to process.
var ErrNoImages = errors.New("no image files found")

// ProcessBatch scans every image found under imagePaths.
func ProcessBatch(ctx context.Context, imagePaths []string, pcfg pipeline.Config, config *Config) (*Result, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch config: %w", err)
	}

	files, err := discoverImageFiles(imagePaths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	pl, err := pipeline.NewBuilderFromConfig(pcfg).WithParallelWorkers(config.Workers).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scan pipeline: %w", err)
	}
	workers := pl.Config().Parallel.MaxWorkers

	var progress pipeline.ProgressCallback = pipeline.NewLogProgressCallback(nil, slog.LevelDebug)
	if config.ShowProgress && !config.Quiet {
		w := config.ProgressWriter
		if w == nil {
			w = os.Stderr
		}
		progress = pipeline.NewConsoleProgressCallback(w, "Scanning: ").WithUpdateInterval(config.ProgressInterval)
	}

	r := &runner{
		pl:       pl,
		config:   config,
		workers:  workers,
		progress: progress,
		total:    len(files),
		results:  make([]*pipeline.ScanResult, len(files)),
	}

	slog.Info("Batch started", "images", len(files), "workers", workers)
	start := time.Now()
	progress.OnStart(len(files))
	err = r.run(ctx, files)
	progress.OnComplete()
	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}

	res := &Result{
		Results:     r.results,
		ImagePaths:  files,
		Failures:    r.failures,
		WorkerCount: workers,
	}

	if config.PDFFile != "" {
		if len(r.pages) == 0 {
			return nil, errors.New("no rectified pages to export")
		}
		if err := ExportPDF(r.pages, config.PDFFile); err != nil {
			return nil, err
		}
		res.PDFFile = config.PDFFile
	}

	res.Duration = time.Since(start)
	res.Memory = common.GetMemoryStats()
	slog.Info("Batch completed", "processed", len(files)-len(r.failures),
		"failed", len(r.failures), "duration", res.Duration)
	return res, nil
}

type runner struct {
	pl       *pipeline.Pipeline
	config   *Config
	workers  int
	progress pipeline.ProgressCallback
	total    int

	results  []*pipeline.ScanResult
	failures []Failure
	pages    []string
	done     int
}

func (r *runner) run(ctx context.Context, files []string) error {
	chunk := r.config.ChunkSize
	if chunk <= 0 {
		chunk = len(files)
	}
	for offset := 0; offset < len(files); offset += chunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(offset+chunk, len(files))
		if err := r.runChunk(ctx, files[offset:end], offset); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) runChunk(ctx context.Context, files []string, offset int) error {
	imgs := make([]image.Image, 0, len(files))
	index := make([]int, 0, len(files))     // position in files for each loaded image
	positions := make([]int, 0, len(files)) // position in the whole batch
	for i, path := range files {
		img, _, err := utils.LoadImage(path)
		if err != nil {
			r.done++
			r.progress.OnError(offset+i, err)
			r.progress.OnProgress(r.done, r.total)
			if err := r.fail(offset+i, path, fmt.Errorf("failed to load %s: %w", path, err)); err != nil {
				return err
			}
			continue
		}
		imgs = append(imgs, img)
		index = append(index, i)
		positions = append(positions, offset+i)
	}
	if len(imgs) == 0 {
		return nil
	}

	var stopErrs []error
	pcfg := pipeline.ParallelConfig{
		MaxWorkers: r.workers,
		ProgressCallback: &chunkProgress{
			parent:    r.progress,
			done:      r.done,
			total:     r.total,
			positions: positions,
		},
		ErrorHandler: func(i int, _ image.Image, err error) {
			fi := index[i]
			if ferr := r.fail(offset+fi, files[fi], err); ferr != nil {
				stopErrs = append(stopErrs, ferr)
			}
		},
	}
	results, err := r.pl.ProcessImagesParallel(ctx, imgs, pcfg)
	r.done += len(imgs)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if len(stopErrs) > 0 {
		return stopErrs[0]
	}
	if err != nil && !r.config.ContinueOnError {
		return err
	}

	for i, res := range results {
		if res == nil {
			continue
		}
		fi := index[i]
		path := files[fi]
		res.Source = path
		if err := r.writeOutputs(imgs[i], res); err != nil {
			if ferr := r.fail(offset+fi, path, err); ferr != nil {
				return ferr
			}
			continue
		}
		r.results[offset+fi] = res
	}
	return nil
}

func (r *runner) writeOutputs(src image.Image, res *pipeline.ScanResult) error {
	if r.config.OverlayDir != "" {
		colors := r.config.OverlayColors
		if colors.Detected == nil || colors.Review == nil {
			colors = pipeline.DefaultOverlayColors()
		}
		ov := pipeline.RenderOverlay(src, res, colors)
		if err := utils.SaveImage(OverlayPath(res.Source, r.config.OverlayDir), ov, 0); err != nil {
			return fmt.Errorf("failed to save overlay: %w", err)
		}
	}
	if res.Output == nil {
		return nil
	}
	out := OutputPath(res.Source, r.config.OutputDir, r.config.Suffix, r.config.OutputFormat)
	if err := utils.SaveImage(out, res.Output, r.config.JPEGQuality); err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}
	res.OutputPath = out
	res.Output = nil
	r.pages = append(r.pages, out)
	return nil
}

// fail records a failed input and returns an error when the batch must
// stop.
func (r *runner) fail(index int, path string, err error) error {
	slog.Warn("Scan failed", "file", path, "error", err)
	r.failures = append(r.failures, Failure{File: path, Error: err.Error()})
	if r.config.ContinueOnError {
		return nil
	}
	return fmt.Errorf("image %d (%s): %w", index, path, err)
}

// chunkProgress maps per-chunk progress onto the whole batch.
type chunkProgress struct {
	parent    pipeline.ProgressCallback
	done      int
	total     int
	positions []int
}

func (c *chunkProgress) OnStart(int) {}
func (c *chunkProgress) OnComplete() {}

func (c *chunkProgress) OnProgress(current, _ int) {
	c.parent.OnProgress(c.done+current, c.total)
}

func (c *chunkProgress) OnError(index int, err error) {
	c.parent.OnError(c.positions[index], err)
}

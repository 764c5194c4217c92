package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/docscan/internal/common"
	"github.com/MeKo-Tech/docscan/internal/enhance"
	"github.com/MeKo-Tech/docscan/internal/utils"
)

var errNotInitialized = errors.New("pipeline not initialized")

// ProcessImage detects the document, rectifies it and applies the
// configured enhancement. Invalid images are the only error source of the
// detection stage; a missing document yields the fallback corners flagged
// for review.
func (p *Pipeline) ProcessImage(ctx context.Context, img image.Image) (*ScanResult, error) {
	if p == nil || p.Detector == nil || p.Rectifier == nil {
		return nil, errNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	total := common.NewNamedTimer("total")

	detTimer := common.NewNamedTimer("detect")
	det, err := p.Detector.DetectWithConfidence(img)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	b := img.Bounds()
	res := &ScanResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		Corners:     det.Corners,
		Flat:        det.Flat(),
		Confidence:  det.Confidence,
		Detected:    det.Detected,
		NeedsReview: det.Confidence < p.cfg.MinConfidence,
		AreaRatio:   det.AreaRatio,
	}
	res.Processing.DetectionNs = detTimer.Stop().Nanoseconds()

	if !p.cfg.SkipRectify {
		if err := p.rectifyAndEnhance(img, res); err != nil {
			return nil, err
		}
	}
	res.Processing.TotalNs = total.Stop().Nanoseconds()

	slog.Debug("Scan finished",
		"width", res.Width, "height", res.Height,
		"confidence", res.Confidence,
		"needs_review", res.NeedsReview,
		"output", fmt.Sprintf("%dx%d", res.OutputWidth, res.OutputHeight),
		"detect", detTimer,
		"total", total)
	return res, nil
}

// ProcessImageWithCorners skips detection and rectifies the region given by
// user supplied corners, as after a manual correction.
func (p *Pipeline) ProcessImageWithCorners(ctx context.Context, img image.Image, corners utils.Quad) (*ScanResult, error) {
	if p == nil || p.Rectifier == nil {
		return nil, errNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := utils.ValidateImage("scan", img); err != nil {
		return nil, err
	}
	total := common.NewNamedTimer("total")
	b := img.Bounds()
	q := corners.Ordered()
	res := &ScanResult{
		Width:      b.Dx(),
		Height:     b.Dy(),
		Corners:    q,
		Flat:       q.Flatten(),
		Confidence: 1,
		Manual:     true,
		AreaRatio:  q.Area() / float64(b.Dx()*b.Dy()),
	}
	if err := p.rectifyAndEnhance(img, res); err != nil {
		return nil, err
	}
	res.Processing.TotalNs = total.Stop().Nanoseconds()
	return res, nil
}

// ProcessImages processes images sequentially. The context is checked
// between images only.
func (p *Pipeline) ProcessImages(ctx context.Context, images []image.Image) ([]*ScanResult, error) {
	if p == nil || p.Detector == nil || p.Rectifier == nil {
		return nil, errNotInitialized
	}
	out := make([]*ScanResult, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := p.ProcessImage(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		out[i] = res
	}
	return out, nil
}

func (p *Pipeline) rectifyAndEnhance(img image.Image, res *ScanResult) error {
	rectTimer := common.NewNamedTimer("rectify")
	page, err := p.Rectifier.RectifyQuad(img, res.Corners, p.cfg.Rectification.Mode)
	if err != nil {
		return fmt.Errorf("rectify: %w", err)
	}
	res.Processing.RectifyNs = rectTimer.Stop().Nanoseconds()

	if !p.cfg.Enhance.IsIdentity() {
		enhTimer := common.NewNamedTimer("enhance")
		page = enhance.Apply(page, p.cfg.Enhance)
		res.Processing.EnhanceNs = enhTimer.Stop().Nanoseconds()
	}
	res.Output = page
	res.OutputWidth = page.Rect.Dx()
	res.OutputHeight = page.Rect.Dy()
	return nil
}

package detector

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/docscan/internal/utils"
)

// Detector finds the quadrilateral outline of a document in a photo.
// A Detector holds no mutable state and is safe for concurrent use.
type Detector struct {
	config Config
}

// Analysis exposes the intermediate products of one detection run, in
// analysis (downscaled) coordinates.
type Analysis struct {
	Scale      float64
	Width      int
	Height     int
	Edges      Mask
	Contours   []Contour
	Candidates []QuadCandidate
}

// New creates a detector after validating cfg.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}
	if _, err := utils.ParseHexColor(cfg.OverlayColor); err != nil && cfg.OverlayColor != "" {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}
	return &Detector{config: cfg}, nil
}

// NewDefault creates a detector with DefaultConfig.
func NewDefault() *Detector {
	return &Detector{config: DefaultConfig()}
}

// Config returns a copy of the detector configuration.
func (d *Detector) Config() Config { return d.config }

// Detect returns the ordered corners (TL, TR, BR, BL) of the document.
func (d *Detector) Detect(img image.Image) (utils.Quad, error) {
	res, err := d.DetectWithConfidence(img)
	if err != nil {
		return utils.Quad{}, err
	}
	return res.Corners, nil
}

// DetectWithConfidence returns the corners together with a confidence
// derived from the page area ratio. When no plausible quadrilateral exists
// the inset fallback rectangle is returned with confidence 0; only nil or
// empty images produce an error.
func (d *Detector) DetectWithConfidence(img image.Image) (res Result, err error) {
	if err := utils.ValidateImage("detect", img); err != nil {
		return Result{}, err
	}
	start := time.Now()
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Document detection panicked, using default corners", "panic", r)
			res, err = fallbackResult(w, h, d.config.DefaultInset), nil
		}
	}()

	analysis := d.analyze(img)
	res = d.choose(analysis, w, h)

	slog.Debug("Document detection finished",
		"width", w, "height", h,
		"scale", analysis.Scale,
		"contours", len(analysis.Contours),
		"candidates", len(analysis.Candidates),
		"detected", res.Detected,
		"score", res.Score,
		"confidence", res.Confidence,
		"duration", time.Since(start))

	if d.config.DebugDir != "" {
		d.writeDebugOverlay(img, analysis, res)
	}
	return res, nil
}

// Analyze runs the pipeline up to candidate scoring.
func (d *Detector) Analyze(img image.Image) (*Analysis, error) {
	if err := utils.ValidateImage("analyze", img); err != nil {
		return nil, err
	}
	return d.analyze(img), nil
}

// Candidates returns every scored candidate with corners mapped back to
// the coordinates of img.
func (d *Detector) Candidates(img image.Image) ([]QuadCandidate, error) {
	a, err := d.Analyze(img)
	if err != nil {
		return nil, err
	}
	out := make([]QuadCandidate, len(a.Candidates))
	for i, c := range a.Candidates {
		c.Quad = c.Quad.Scale(1 / a.Scale)
		out[i] = c
	}
	return out, nil
}

func (d *Detector) analyze(img image.Image) *Analysis {
	b := img.Bounds()
	scale := utils.DownscaleFactor(b.Dx(), b.Dy(), d.config.MaxDimension)
	small := utils.Downscale(img, scale)
	sw, sh := small.Rect.Dx(), small.Rect.Dy()

	gray := ToGrayscale(small)
	edges := DetectEdges(gray, d.config)
	contours := TraceContours(edges, d.config.MinContourPoints, d.config.MaxContourPoints)
	return &Analysis{
		Scale:      scale,
		Width:      sw,
		Height:     sh,
		Edges:      edges,
		Contours:   contours,
		Candidates: FindCandidates(contours, sw, sh, d.config),
	}
}

func (d *Detector) choose(a *Analysis, w, h int) Result {
	best, ok := SelectBest(a.Candidates)
	if !ok {
		slog.Debug("No document candidate found")
		return fallbackResult(w, h, d.config.DefaultInset)
	}
	if best.AreaRatio < d.config.MinFinalAreaRatio || best.AreaRatio > d.config.MaxFinalAreaRatio {
		slog.Debug("Best candidate failed final area gate", "area_ratio", best.AreaRatio, "score", best.Score)
		return fallbackResult(w, h, d.config.DefaultInset)
	}

	corners := best.Quad.Scale(1 / a.Scale).Ordered()
	ratio := corners.Area() / float64(w*h)
	return Result{
		Corners:    corners,
		Confidence: ConfidenceForAreaRatio(ratio),
		Detected:   true,
		AreaRatio:  ratio,
		Score:      best.Score,
	}
}

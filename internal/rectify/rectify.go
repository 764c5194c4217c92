package rectify

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/disintegration/imaging"
)

// Rectifier warps a quadrilateral region of an image into an upright
// rectangle.
type Rectifier struct {
	cfg Config
}

// New creates a new Rectifier after validating cfg.
func New(cfg Config) (*Rectifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rectifier config: %w", err)
	}
	cfg.Mode, _ = ParseDimensionMode(string(cfg.Mode))
	return &Rectifier{cfg: cfg}, nil
}

// NewDefault creates a Rectifier with DefaultConfig.
func NewDefault() *Rectifier {
	return &Rectifier{cfg: DefaultConfig()}
}

// Config returns the rectifier configuration.
func (r *Rectifier) Config() Config { return r.cfg }

// Plan describes a rectification before any pixels are touched.
type Plan struct {
	Quad       utils.Quad
	Width      int
	Height     int
	Homography Homography
}

// Apply rectifies using the configured default dimension mode.
func (r *Rectifier) Apply(img image.Image, corners []utils.Point) (*image.NRGBA, error) {
	return r.Rectify(img, corners, r.cfg.Mode)
}

// RectifyQuad is Rectify for a Quad.
func (r *Rectifier) RectifyQuad(img image.Image, q utils.Quad, mode DimensionMode) (*image.NRGBA, error) {
	return r.Rectify(img, q.Points(), mode)
}

// Rectify maps the region bounded by corners (TL, TR, BR, BL, relative to
// the image origin) onto a rectangle whose size follows mode.
func (r *Rectifier) Rectify(img image.Image, corners []utils.Point, mode DimensionMode) (*image.NRGBA, error) {
	if err := utils.ValidateImage("rectify", img); err != nil {
		return nil, &TransformError{Op: "validate", Err: fmt.Errorf("%w: %w", ErrInvalidImage, err)}
	}
	plan, err := r.Plan(corners, mode)
	if err != nil {
		return nil, err
	}

	src := asNRGBA(img)
	if r.cfg.DebugDir != "" {
		if err := dumpOverlayPNG(r.cfg.DebugDir, src, plan.Quad); err != nil {
			slog.Warn("Failed to write rectify overlay", "dir", r.cfg.DebugDir, "error", err)
		}
	}

	out := warpPerspective(src, plan.Homography, plan.Width, plan.Height)
	slog.Debug("Rectified document",
		"source", fmt.Sprintf("%dx%d", src.Rect.Dx(), src.Rect.Dy()),
		"output", fmt.Sprintf("%dx%d", plan.Width, plan.Height),
		"mode", mode)

	if r.cfg.DebugDir != "" {
		if err := dumpComparePNG(r.cfg.DebugDir, src, plan.Quad, out); err != nil {
			slog.Warn("Failed to write rectify comparison", "dir", r.cfg.DebugDir, "error", err)
		}
	}
	return out, nil
}

// Plan validates corners and mode and computes the output size and the
// homography from the output rectangle into the source.
func (r *Rectifier) Plan(corners []utils.Point, mode DimensionMode) (Plan, error) {
	switch {
	case len(corners) < 4:
		return Plan{}, &TransformError{Op: "validate", Err: fmt.Errorf("%w: %d", ErrTooFewCorners, len(corners))}
	case len(corners) > 4:
		return Plan{}, &TransformError{Op: "validate", Err: fmt.Errorf("%w: %d", ErrTooManyCorners, len(corners))}
	}
	if mode == "" {
		mode = r.cfg.Mode
	}
	mode, err := ParseDimensionMode(string(mode))
	if err != nil {
		return Plan{}, &TransformError{Op: "validate", Err: err}
	}

	q, _ := utils.QuadFromPoints(corners)
	if r.cfg.OrderCorners {
		q = q.Ordered()
	}
	if err := checkQuad(q, r.cfg); err != nil {
		return Plan{}, &TransformError{Op: "degeneracy", Err: err}
	}

	w, h, err := TargetSize(q, mode)
	if err != nil {
		return Plan{}, &TransformError{Op: "size", Err: err}
	}
	if r.cfg.MaxOutputPixels > 0 && w*h > r.cfg.MaxOutputPixels {
		return Plan{}, &TransformError{
			Op:  "size",
			Err: fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrOutputTooLarge, w, h, r.cfg.MaxOutputPixels),
		}
	}

	hm, err := ComputeHomography(destinationQuad(w, h), q, r.cfg.MaxCondition)
	if err != nil {
		return Plan{}, &TransformError{Op: "homography", Err: err}
	}
	if det := hm.Det(); math.Abs(det) < r.cfg.MinDeterminant {
		return Plan{}, &TransformError{
			Op:  "homography",
			Err: fmt.Errorf("%w: |det| %.3g below %.3g", ErrSingularTransform, math.Abs(det), r.cfg.MinDeterminant),
		}
	}
	return Plan{Quad: q, Width: w, Height: h, Homography: hm}, nil
}

func asNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

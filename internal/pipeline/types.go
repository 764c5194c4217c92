package pipeline

import (
	"image"

	"github.com/MeKo-Tech/docscan/internal/utils"
)

// ScanResult is the per-image output of the scan pipeline. Corners are in
// source image pixels, ordered TL, TR, BR, BL.
type ScanResult struct {
	Source      string     `json:"source,omitempty"       yaml:"source,omitempty"`
	Width       int        `json:"width"                  yaml:"width"`
	Height      int        `json:"height"                 yaml:"height"`
	Corners     utils.Quad `json:"corners"                yaml:"corners"`
	Flat        [8]float64 `json:"flat_corners"           yaml:"flat_corners"`
	Confidence  float64    `json:"confidence"             yaml:"confidence"`
	Detected    bool       `json:"detected"               yaml:"detected"`
	Manual      bool       `json:"manual,omitempty"       yaml:"manual,omitempty"`
	NeedsReview bool       `json:"needs_review"           yaml:"needs_review"`
	AreaRatio   float64    `json:"area_ratio,omitempty"   yaml:"area_ratio,omitempty"`

	// Output is the rectified and enhanced page, nil when rectification is
	// disabled.
	Output       *image.NRGBA `json:"-"                       yaml:"-"`
	OutputWidth  int          `json:"output_width,omitempty"  yaml:"output_width,omitempty"`
	OutputHeight int          `json:"output_height,omitempty" yaml:"output_height,omitempty"`
	OutputPath   string       `json:"output_path,omitempty"   yaml:"output_path,omitempty"`

	Processing struct {
		DetectionNs int64 `json:"detection_ns" yaml:"detection_ns"`
		RectifyNs   int64 `json:"rectify_ns"   yaml:"rectify_ns"`
		EnhanceNs   int64 `json:"enhance_ns"   yaml:"enhance_ns"`
		TotalNs     int64 `json:"total_ns"     yaml:"total_ns"`
	} `json:"processing" yaml:"processing"`
}

// NormalizedCorners returns the corners relative to the source size.
func (r *ScanResult) NormalizedCorners() utils.Quad {
	return r.Corners.Normalize(r.Width, r.Height)
}

package detector

import "github.com/MeKo-Tech/docscan/internal/utils"

// Result is the outcome of a detection run. When Detected is false the
// corners are the inset fallback rectangle and Confidence is 0.
type Result struct {
	Corners    utils.Quad `json:"corners"`
	Confidence float64    `json:"confidence"`
	Detected   bool       `json:"detected"`
	AreaRatio  float64    `json:"area_ratio,omitempty"`
	Score      float64    `json:"score,omitempty"`
}

// Flat returns the corners in storage form.
func (r Result) Flat() [8]float64 { return r.Corners.Flatten() }

// ConfidenceForAreaRatio maps the page area ratio of a detection to a
// confidence value.
func ConfidenceForAreaRatio(r float64) float64 {
	switch {
	case r >= 0.25 && r <= 0.85:
		return 1.0
	case r >= 0.15 && r <= 0.95:
		return 0.7
	default:
		return 0.4
	}
}

func fallbackResult(w, h int, inset float64) Result {
	return Result{Corners: utils.InsetQuad(w, h, inset)}
}

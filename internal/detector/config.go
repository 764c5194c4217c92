package detector

import "fmt"

// Config holds the tuning constants of the boundary detector.
type Config struct {
	MaxDimension     int // larger side is downscaled to this before analysis
	MinContourPoints int // shorter contours are dropped as noise
	MaxContourPoints int // flood fill stops after this many points

	HighThresholdRatio float64 // strong edge threshold relative to the max magnitude
	LowThresholdRatio  float64 // weak edge threshold relative to the high threshold

	Morphology MorphConfig // closing applied to the edge mask

	MinCandidateAreaRatio float64 // early gate before scoring
	MaxCandidateAreaRatio float64
	MinFinalAreaRatio     float64 // gate re-checked on the winner
	MaxFinalAreaRatio     float64

	DefaultInset float64 // fallback rectangle inset as a fraction of each side

	DebugDir     string // when set, overlays are written here
	OverlayColor string // hex colour for contour overlays
}

// DefaultConfig returns the detector defaults.
func DefaultConfig() Config {
	return Config{
		MaxDimension:          800,
		MinContourPoints:      20,
		MaxContourPoints:      5000,
		HighThresholdRatio:    0.15,
		LowThresholdRatio:     0.40,
		Morphology:            DefaultMorphConfig(),
		MinCandidateAreaRatio: 0.08,
		MaxCandidateAreaRatio: 0.99,
		MinFinalAreaRatio:     0.10,
		MaxFinalAreaRatio:     0.98,
		DefaultInset:          0.05,
		OverlayColor:          "#00ff00",
	}
}

// Validate checks the configuration for values the pipeline cannot use.
func (c Config) Validate() error {
	if c.MaxDimension < 5 {
		return fmt.Errorf("max dimension must be at least 5, got %d", c.MaxDimension)
	}
	if c.MinContourPoints < 1 || c.MaxContourPoints < c.MinContourPoints {
		return fmt.Errorf("invalid contour point limits %d..%d", c.MinContourPoints, c.MaxContourPoints)
	}
	if c.HighThresholdRatio <= 0 || c.HighThresholdRatio > 1 {
		return fmt.Errorf("high threshold ratio must be in (0,1], got %f", c.HighThresholdRatio)
	}
	if c.LowThresholdRatio < 0 || c.LowThresholdRatio > 1 {
		return fmt.Errorf("low threshold ratio must be in [0,1], got %f", c.LowThresholdRatio)
	}
	if c.MinCandidateAreaRatio < 0 || c.MaxCandidateAreaRatio > 1 || c.MinCandidateAreaRatio >= c.MaxCandidateAreaRatio {
		return fmt.Errorf("invalid candidate area range [%f,%f]", c.MinCandidateAreaRatio, c.MaxCandidateAreaRatio)
	}
	if c.MinFinalAreaRatio < 0 || c.MaxFinalAreaRatio > 1 || c.MinFinalAreaRatio >= c.MaxFinalAreaRatio {
		return fmt.Errorf("invalid final area range [%f,%f]", c.MinFinalAreaRatio, c.MaxFinalAreaRatio)
	}
	if c.DefaultInset < 0 || c.DefaultInset >= 0.5 {
		return fmt.Errorf("default inset must be in [0,0.5), got %f", c.DefaultInset)
	}
	return c.Morphology.Validate()
}

package rectify

import (
	"errors"
	"fmt"
	"strings"
)

// DimensionMode selects how the output size is derived from opposing sides.
type DimensionMode string

const (
	// ModeAverage averages opposing sides, keeping proportions for
	// imperfect quads.
	ModeAverage DimensionMode = "average"
	// ModeMaximum takes the longer of opposing sides, keeping the most
	// source resolution.
	ModeMaximum DimensionMode = "maximum"
)

// ParseDimensionMode parses a mode name; empty selects ModeAverage.
func ParseDimensionMode(s string) (DimensionMode, error) {
	switch DimensionMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAverage:
		return ModeAverage, nil
	case ModeMaximum, "max":
		return ModeMaximum, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Config holds configuration for the rectification process.
type Config struct {
	Mode            DimensionMode // default mode used by Apply
	OrderCorners    bool          // sort incoming corners into TL, TR, BR, BL first
	MinQuadArea     float64       // quads below this area in px² are degenerate
	CollinearTol    float64       // relative tolerance for three collinear corners
	MaxCondition    float64       // largest accepted condition number of the 8x8 system
	MinDeterminant  float64       // smallest accepted |det(H)|
	MaxOutputPixels int           // guards against runaway output sizes (0 = unlimited)
	DebugDir        string        // if non-empty, writes overlay and compare PNGs here
}

// DefaultConfig returns sensible defaults for rectification.
func DefaultConfig() Config {
	return Config{
		Mode:            ModeAverage,
		OrderCorners:    true,
		MinQuadArea:     1.0,
		CollinearTol:    1e-3,
		MaxCondition:    1e12,
		MinDeterminant:  1e-12,
		MaxOutputPixels: 100_000_000,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, err := ParseDimensionMode(string(c.Mode)); err != nil {
		return err
	}
	if c.MinQuadArea < 0 || c.CollinearTol < 0 || c.MinDeterminant < 0 {
		return errors.New("degeneracy tolerances cannot be negative")
	}
	if c.MaxCondition <= 1 {
		return fmt.Errorf("max condition number must exceed 1, got %g", c.MaxCondition)
	}
	if c.MaxOutputPixels < 0 {
		return errors.New("max output pixels cannot be negative")
	}
	return nil
}

package detector

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestCompositeScore_ConvexityMonotone verifies raising convexity never
// lowers the score when area and aspect stay fixed.
func TestCompositeScore_ConvexityMonotone(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("higher convexity scores at least as high", prop.ForAll(
		func(area, aspect, c1, c2 float64) bool {
			lo, hi := min(c1, c2), max(c1, c2)
			return CompositeScore(area, aspect, hi) >= CompositeScore(area, aspect, lo)
		},
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 4),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
	))

	properties.Property("0.7 to 0.96 never decreases", prop.ForAll(
		func(area, aspect float64) bool {
			return CompositeScore(area, aspect, 0.96) >= CompositeScore(area, aspect, 0.7)
		},
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 4),
	))

	properties.TestingRun(t)
}

// TestScores_Bounded verifies every partial score stays in [0.1, 1].
func TestScores_Bounded(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("scores are bounded", prop.ForAll(
		func(v float64) bool {
			for _, s := range []float64{AreaScore(v), AspectScore(v * 4), ConvexityScore(v)} {
				if s < 0.1-1e-9 || s > 1+1e-9 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}

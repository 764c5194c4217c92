package detector

import (
	"testing"

	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAreaScore(t *testing.T) {
	tests := []struct {
		ratio float64
		want  float64
	}{
		{0.25, 1.0},
		{0.5, 1.0},
		{0.85, 1.0},
		{0.15, 0.7},
		{0.20, 0.85},
		{0.90, 0.85},
		{0.95, 0.7},
		{0.10, 0.4},
		{0.12, 0.52},
		{0.05, 0.2},
		{0.97, 0.2},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, AreaScore(tt.ratio), 1e-9, "ratio %v", tt.ratio)
	}
}

func TestAspectScore(t *testing.T) {
	tests := []struct {
		aspect float64
		want   float64
	}{
		{1.0, 1.0},
		{0.7, 1.0},
		{1.5, 1.0},
		{0.6, 0.7},
		{2.0, 0.7},
		{0.3, 0.4},
		{2.5, 0.4},
		{3.0, 0.4},
		{0.2, 0.1},
		{3.5, 0.1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, AspectScore(tt.aspect), 1e-9, "aspect %v", tt.aspect)
	}
}

func TestConvexityScore(t *testing.T) {
	assert.InDelta(t, 1.0, ConvexityScore(0.96), 1e-9)
	assert.InDelta(t, 0.8, ConvexityScore(0.95), 1e-9)
	assert.InDelta(t, 0.5, ConvexityScore(0.85), 1e-9)
	assert.InDelta(t, 0.2, ConvexityScore(0.8), 1e-9)
	assert.InDelta(t, 0.2, ConvexityScore(0.7), 1e-9)
}

func TestCompositeScore(t *testing.T) {
	assert.InDelta(t, 1.0, CompositeScore(0.5, 1.0, 1.0), 1e-9)
	assert.InDelta(t, 0.4*0.2+0.3*0.1+0.3*0.2, CompositeScore(0.01, 10, 0.1), 1e-9)
}

func TestAspectRatio(t *testing.T) {
	q := utils.Quad{{0, 0}, {200, 0}, {200, 100}, {0, 100}}
	assert.InDelta(t, 2.0, AspectRatio(q), 1e-9)

	shuffled := utils.Quad{q[2], q[0], q[3], q[1]}
	assert.InDelta(t, 2.0, AspectRatio(shuffled), 1e-9)

	flat := utils.Quad{{0, 0}, {10, 0}, {10, 0}, {0, 0}}
	assert.Zero(t, AspectRatio(flat))
}

func TestConvexity(t *testing.T) {
	square := utils.Quad{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	assert.InDelta(t, 1.0, Convexity(square), 1e-9)

	dart := utils.Quad{{0, 0}, {10, 5}, {0, 10}, {3, 5}}
	c := Convexity(dart)
	assert.Greater(t, c, 0.0)
	assert.Less(t, c, 1.0)

	assert.Zero(t, Convexity(utils.Quad{{0, 0}, {1, 1}, {2, 2}, {3, 3}}))
}

func TestSelectBest_FirstMaxWins(t *testing.T) {
	cands := []QuadCandidate{
		{Score: 0.5, Area: 1},
		{Score: 0.9, Area: 2},
		{Score: 0.9, Area: 3},
		{Score: 0.1, Area: 4},
	}
	best, ok := SelectBest(cands)
	require.True(t, ok)
	assert.InDelta(t, 2.0, best.Area, 1e-9)

	_, ok = SelectBest(nil)
	assert.False(t, ok)
}

func TestNewCandidate(t *testing.T) {
	q := utils.Quad{{100, 100}, {300, 100}, {300, 300}, {100, 300}}
	c := NewCandidate(q, 400, 400)
	assert.InDelta(t, 40000.0, c.Area, 1e-9)
	assert.InDelta(t, 0.25, c.AreaRatio, 1e-9)
	assert.InDelta(t, 1.0, c.AspectRatio, 1e-9)
	assert.InDelta(t, 1.0, c.Convexity, 1e-9)
	assert.InDelta(t, 1.0, c.Score, 1e-9)
}

func TestFindCandidates_AreaGate(t *testing.T) {
	cfg := DefaultConfig()
	small := squareContour(10, 10, 20)  // 4%
	page := squareContour(10, 10, 60)   // 36%
	whole := squareContour(0, 0, 99.99) // ~100%

	cands := FindCandidates([]Contour{small, page, whole}, 100, 100, cfg)
	require.Len(t, cands, 1)
	assert.InDelta(t, 0.36, cands[0].AreaRatio, 1e-9)
}

func TestQuadFromContour_Triangle(t *testing.T) {
	tri := Contour{{0, 0}, {10, 0}, {5, 10}, {5, 3}, {4, 2}}
	_, ok := quadFromContour(tri)
	assert.False(t, ok)
}

func TestQuadFromContour_PivotOnEdgeIsNotACorner(t *testing.T) {
	// The first top-edge point becomes the hull pivot but lies midway along
	// the edge; the real corners must win.
	c := Contour{{50, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}, {50, 50}, {25, 0}}
	poly, ok := quadFromContour(c)
	require.True(t, ok)
	assert.ElementsMatch(t, []utils.Point{{0, 0}, {100, 0}, {100, 100}, {0, 100}}, poly)
}

// squareContour returns the outline points of an axis aligned square.
func squareContour(x0, y0, side float64) Contour {
	var c Contour
	for i := 0.0; i < side; i++ {
		c = append(c,
			utils.Point{X: x0 + i, Y: y0},
			utils.Point{X: x0 + side, Y: y0 + i},
			utils.Point{X: x0 + side - i, Y: y0 + side},
			utils.Point{X: x0, Y: y0 + side - i},
		)
	}
	return c
}

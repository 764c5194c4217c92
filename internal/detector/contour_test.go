package detector

import (
	"testing"

	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ringMask(w, h, x0, y0, x1, y1 int) Mask {
	m := NewMask(w, h)
	for x := x0; x <= x1; x++ {
		m.Pix[y0*w+x] = true
		m.Pix[y1*w+x] = true
	}
	for y := y0; y <= y1; y++ {
		m.Pix[y*w+x0] = true
		m.Pix[y*w+x1] = true
	}
	return m
}

func TestTraceContours_Ring(t *testing.T) {
	m := ringMask(40, 40, 5, 5, 30, 30)
	contours := TraceContours(m, 20, 5000)

	require.Len(t, contours, 1)
	assert.Len(t, contours[0], m.Count())
	assert.Equal(t, utils.Point{X: 5, Y: 5}, contours[0][0], "fill starts at the first pixel in raster order")
}

func TestTraceContours_DropsShortComponents(t *testing.T) {
	m := ringMask(60, 60, 5, 5, 40, 40)
	// A 3x3 blob far from the ring.
	for y := 50; y < 53; y++ {
		for x := 50; x < 53; x++ {
			m.Pix[y*60+x] = true
		}
	}
	contours := TraceContours(m, 20, 5000)
	require.Len(t, contours, 1)

	contours = TraceContours(m, 5, 5000)
	assert.Len(t, contours, 2)
}

func TestTraceContours_CapsPoints(t *testing.T) {
	m := NewMask(100, 100)
	for i := range m.Pix {
		m.Pix[i] = true
	}
	contours := TraceContours(m, 20, 5000)
	require.NotEmpty(t, contours)
	assert.Len(t, contours[0], 5000)
	for _, c := range contours {
		assert.LessOrEqual(t, len(c), 5000)
	}
}

func TestTraceContours_Deterministic(t *testing.T) {
	m := ringMask(50, 50, 3, 7, 44, 41)
	a := TraceContours(m, 20, 5000)
	b := TraceContours(m, 20, 5000)
	assert.Equal(t, a, b)
}

func TestTraceContours_EightConnected(t *testing.T) {
	m := NewMask(30, 30)
	for i := range 25 {
		m.Pix[(i+2)*30+i+2] = true
	}
	contours := TraceContours(m, 20, 5000)
	require.Len(t, contours, 1)
	assert.Len(t, contours[0], 25)
}

func TestTraceContours_Empty(t *testing.T) {
	assert.Empty(t, TraceContours(NewMask(10, 10), 20, 5000))
}

func TestFloodFill_VisitsOnlyCollectedPixels(t *testing.T) {
	m := NewMask(100, 100)
	for i := range m.Pix {
		m.Pix[i] = true
	}
	visited := make([]bool, len(m.Pix))
	c := floodFill(m, visited, 0, 0, 300)
	require.Len(t, c, 300)

	marked := 0
	for _, v := range visited {
		if v {
			marked++
		}
	}
	assert.Equal(t, len(c), marked, "pixels beyond the cap stay free for later contours")
	for _, p := range c {
		assert.True(t, visited[int(p.Y)*m.Width+int(p.X)])
	}
}

func TestFloodFill_BreadthFirstOrder(t *testing.T) {
	m := NewMask(5, 1)
	for i := range m.Pix {
		m.Pix[i] = true
	}
	c := floodFill(m, make([]bool, 5), 2, 0, 10)
	assert.Equal(t, Contour{{X: 2}, {X: 1}, {X: 3}, {X: 0}, {X: 4}}, c)
}

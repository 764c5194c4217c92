package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepGray returns a w x h buffer that is 0 left of column split and v from
// there on.
func stepGray(w, h, split int, v uint8) Gray {
	g := NewGray(w, h)
	for y := range h {
		for x := split; x < w; x++ {
			g.Pix[y*w+x] = v
		}
	}
	return g
}

func TestGaussianBlur_Uniform(t *testing.T) {
	g := NewGray(9, 9)
	for i := range g.Pix {
		g.Pix[i] = 120
	}
	out := GaussianBlur(g)
	for _, v := range out.Pix {
		assert.Equal(t, uint8(120), v)
	}
}

func TestGaussianBlur_BorderCopied(t *testing.T) {
	g := NewGray(7, 7)
	for i := range g.Pix {
		g.Pix[i] = uint8(i * 3)
	}
	out := GaussianBlur(g)
	for y := range 7 {
		for x := range 7 {
			if x < 2 || y < 2 || x >= 5 || y >= 5 {
				assert.Equal(t, g.At(x, y), out.At(x, y), "border pixel (%d,%d)", x, y)
			}
		}
	}
	assert.Equal(t, uint8(0), g.Pix[0], "input untouched")
}

func TestGaussianBlur_CenterImpulse(t *testing.T) {
	g := NewGray(5, 5)
	g.Pix[2*5+2] = 159
	out := GaussianBlur(g)
	assert.Equal(t, uint8(15), out.At(2, 2))
}

func TestQuantizeDirection(t *testing.T) {
	tests := []struct {
		deg  float64
		want Direction
	}{
		{0, DirHorizontal},
		{22.4, DirHorizontal},
		{180, DirHorizontal},
		{-170, DirHorizontal},
		{45, DirDiagonalDown},
		{-135, DirDiagonalDown},
		{90, DirVertical},
		{-90, DirVertical},
		{135, DirDiagonalUp},
		{-45, DirDiagonalUp},
		{157.5, DirHorizontal},
		{-157.5, DirDiagonalDown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quantizeDirection(tt.deg), "angle %v", tt.deg)
	}
}

func TestSobelGradients_VerticalStep(t *testing.T) {
	g := stepGray(6, 5, 3, 100)
	grad := SobelGradients(g)

	// Columns 2 and 3 straddle the step: gx = 4*100.
	assert.Equal(t, 400, grad.Magnitude[2*6+2])
	assert.Equal(t, 400, grad.Magnitude[2*6+3])
	assert.Equal(t, DirHorizontal, grad.Direction[2*6+2])
	assert.Equal(t, 0, grad.Magnitude[2*6+1])
	// Border stays zero.
	assert.Equal(t, 0, grad.Magnitude[0])
	assert.Equal(t, 0, grad.Magnitude[2*6+5])
}

func TestNonMaxSuppression(t *testing.T) {
	grad := Gradients{
		Width:     5,
		Height:    3,
		Magnitude: []int{0, 0, 0, 0, 0, 0, 10, 30, 20, 0, 0, 0, 0, 0, 0},
		Direction: make([]Direction, 15),
	}
	out := NonMaxSuppression(grad)
	assert.Equal(t, 0, out[6])
	assert.Equal(t, 30, out[7])
	assert.Equal(t, 0, out[8])
}

func TestNonMaxSuppression_KeepsTies(t *testing.T) {
	grad := Gradients{
		Width:     4,
		Height:    3,
		Magnitude: []int{0, 0, 0, 0, 0, 50, 50, 0, 0, 0, 0, 0},
		Direction: make([]Direction, 12),
	}
	out := NonMaxSuppression(grad)
	assert.Equal(t, 50, out[5])
	assert.Equal(t, 50, out[6])
}

func TestNonMaxSuppression_Directions(t *testing.T) {
	// 3x3 grid, centre index 4. Each direction compares exactly one pair of
	// opposite neighbours.
	tests := []struct {
		name     string
		dir      Direction
		compared [2]int
	}{
		{"horizontal", DirHorizontal, [2]int{3, 5}},
		{"vertical", DirVertical, [2]int{1, 7}},
		{"diagonal down", DirDiagonalDown, [2]int{0, 8}},
		{"diagonal up", DirDiagonalUp, [2]int{2, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grad := Gradients{
				Width:     3,
				Height:    3,
				Magnitude: make([]int, 9),
				Direction: make([]Direction, 9),
			}
			grad.Direction[4] = tt.dir
			for i := range grad.Magnitude {
				if i != tt.compared[0] && i != tt.compared[1] {
					grad.Magnitude[i] = 90
				}
			}
			grad.Magnitude[4] = 20
			assert.Equal(t, 20, NonMaxSuppression(grad)[4], "other neighbours must not suppress")

			for _, n := range tt.compared {
				grad.Magnitude[n] = 30
				assert.Equal(t, 0, NonMaxSuppression(grad)[4], "neighbour %d must suppress", n)
				grad.Magnitude[n] = 0
			}
		})
	}
}

func TestThresholds(t *testing.T) {
	high, low := Thresholds(400, 0.15, 0.40)
	assert.Equal(t, 60, high)
	assert.Equal(t, 24, low)
}

func TestHysteresis(t *testing.T) {
	const w, h = 7, 3
	sup := make([]int, w*h)
	sup[1*w+1] = 100 // strong, max => high=15 low=6
	sup[1*w+2] = 10  // weak next to strong
	sup[1*w+3] = 10  // weak next to weak only
	sup[1*w+5] = 3   // below low

	m := Hysteresis(sup, w, h, 0.15, 0.40)
	assert.True(t, m.At(1, 1))
	assert.True(t, m.At(2, 1))
	assert.False(t, m.At(3, 1), "weak chains are not followed")
	assert.False(t, m.At(5, 1))
	assert.Equal(t, 2, m.Count())
}

func TestHysteresis_FlatInputIsEmpty(t *testing.T) {
	m := Hysteresis(make([]int, 25), 5, 5, 0.15, 0.40)
	assert.Zero(t, m.Count())
}

func TestHysteresis_LowMaxDoesNotMarkZeros(t *testing.T) {
	sup := make([]int, 25)
	sup[12] = 3 // high threshold truncates to 0
	m := Hysteresis(sup, 5, 5, 0.15, 0.40)
	assert.Equal(t, 1, m.Count())
	assert.True(t, m.At(2, 2))
}

func TestDetectEdges_TinyBufferIsEmpty(t *testing.T) {
	m := DetectEdges(stepGray(4, 4, 2, 255), DefaultConfig())
	require.Len(t, m.Pix, 16)
	assert.Zero(t, m.Count())
}

func TestDetectEdges_StepProducesVerticalLine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Morphology.Operation = MorphNone
	m := DetectEdges(stepGray(20, 20, 10, 255), cfg)

	for y := 3; y < 17; y++ {
		assert.True(t, m.At(9, y) || m.At(10, y), "row %d has an edge at the step", y)
		assert.False(t, m.At(4, y))
		assert.False(t, m.At(15, y))
	}
}

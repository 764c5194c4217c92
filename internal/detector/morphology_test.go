package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maskFrom(rows ...string) Mask {
	m := NewMask(len(rows[0]), len(rows))
	for y, r := range rows {
		for x, c := range r {
			m.Pix[y*m.Width+x] = c == '#'
		}
	}
	return m
}

func TestDefaultMorphConfig(t *testing.T) {
	config := DefaultMorphConfig()

	assert.Equal(t, MorphClosing, config.Operation)
	assert.Equal(t, 5, config.KernelSize)
	assert.Equal(t, 1, config.Iterations)
	require.NoError(t, config.Validate())
}

func TestMorphConfig_Validate(t *testing.T) {
	assert.Error(t, MorphConfig{Operation: MorphClosing, KernelSize: 4, Iterations: 1}.Validate())
	assert.Error(t, MorphConfig{Operation: MorphDilate, KernelSize: 3, Iterations: 0}.Validate())
	assert.NoError(t, MorphConfig{Operation: MorphNone}.Validate())
}

func TestParseMorphologicalOp(t *testing.T) {
	op, err := ParseMorphologicalOp("closing")
	require.NoError(t, err)
	assert.Equal(t, MorphClosing, op)

	_, err = ParseMorphologicalOp("tophat")
	assert.Error(t, err)
}

func TestDilate_SinglePixel(t *testing.T) {
	m := NewMask(9, 9)
	m.Pix[4*9+4] = true

	out := Dilate(m, 5)
	for y := range 9 {
		for x := range 9 {
			want := x >= 2 && x <= 6 && y >= 2 && y <= 6
			assert.Equal(t, want, out.At(x, y), "(%d,%d)", x, y)
		}
	}
	assert.Equal(t, 1, m.Count(), "input untouched")
}

func TestDilate_BorderStaysClear(t *testing.T) {
	m := NewMask(7, 7)
	for i := range m.Pix {
		m.Pix[i] = true
	}
	out := Dilate(m, 5)
	assert.False(t, out.At(0, 3))
	assert.False(t, out.At(1, 3))
	assert.True(t, out.At(2, 3))
	assert.Equal(t, 9, out.Count())
}

func TestErode_RequiresFullWindow(t *testing.T) {
	m := NewMask(9, 9)
	for y := 1; y < 8; y++ {
		for x := 1; x < 8; x++ {
			m.Pix[y*9+x] = true
		}
	}
	out := Erode(m, 5)
	assert.True(t, out.At(4, 4))
	assert.True(t, out.At(3, 3))
	assert.False(t, out.At(2, 2))
	assert.Equal(t, 9, out.Count())
}

func TestClosing_BridgesGap(t *testing.T) {
	m := maskFrom(
		"...............",
		"...............",
		"...............",
		"...............",
		"...............",
		"...............",
		"...............",
		"..#####.#####..",
		"...............",
		"...............",
		"...............",
		"...............",
		"...............",
		"...............",
		"...............",
	)
	out := ApplyMorphologicalOperation(m, DefaultMorphConfig())
	for x := 4; x <= 10; x++ {
		assert.True(t, out.At(x, 7), "x=%d", x)
	}
	assert.False(t, m.At(7, 7), "input untouched")
}

func TestApplyMorphologicalOperation_None(t *testing.T) {
	m := maskFrom("#..", ".#.", "..#")
	out := ApplyMorphologicalOperation(m, MorphConfig{Operation: MorphNone, KernelSize: 5, Iterations: 1})
	assert.Equal(t, m, out)
}

func TestMorphologicalOp_StringRoundTrip(t *testing.T) {
	for _, op := range []MorphologicalOp{MorphNone, MorphDilate, MorphErode, MorphOpening, MorphClosing} {
		parsed, err := ParseMorphologicalOp(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, parsed)
	}
}

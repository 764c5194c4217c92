package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderCorners(t *testing.T) {
	want := Quad{{10, 10}, {90, 12}, {88, 95}, {8, 90}}

	tests := []struct {
		name string
		in   Quad
	}{
		{"already ordered", want},
		{"reversed", Quad{want[3], want[2], want[1], want[0]}},
		{"shuffled", Quad{want[2], want[0], want[3], want[1]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, want, OrderCorners(tt.in))
		})
	}
}

func TestOrderCorners_DoesNotMutateInput(t *testing.T) {
	in := Quad{{5, 9}, {1, 1}, {9, 1}, {1, 9}}
	orig := in
	_ = in.Ordered()
	assert.Equal(t, orig, in)
}

func TestQuadFlattenRoundTrip(t *testing.T) {
	q := Quad{{1, 2}, {3, 4}, {5, 6}, {7, 8}}
	flat := q.Flatten()
	assert.Equal(t, [8]float64{1, 2, 3, 4, 5, 6, 7, 8}, flat)

	back, err := QuadFromFlat(flat[:])
	require.NoError(t, err)
	assert.Equal(t, q, back)
}

func TestQuadFromFlat_Invalid(t *testing.T) {
	_, err := QuadFromFlat([]float64{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidCorners)
}

func TestQuadNormalize(t *testing.T) {
	q := Quad{{0, 0}, {200, 0}, {200, 100}, {0, 100}}
	n := q.Normalize(200, 100)
	assert.Equal(t, Quad{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, n)
	assert.Equal(t, q, n.Denormalize(200, 100))
}

func TestInsetQuad(t *testing.T) {
	q := InsetQuad(1000, 500, 0.05)
	assert.Equal(t, Quad{{50, 25}, {950, 25}, {950, 475}, {50, 475}}, q)
}

func TestSideLengths(t *testing.T) {
	q := Quad{{0, 0}, {100, 0}, {120, 50}, {-20, 50}}
	top, bottom, left, right := q.SideLengths()
	assert.InDelta(t, 100.0, top, 1e-9)
	assert.InDelta(t, 140.0, bottom, 1e-9)
	assert.InDelta(t, Distance(Point{0, 0}, Point{-20, 50}), left, 1e-9)
	assert.InDelta(t, left, right, 1e-9)
}

func TestBoundingBox(t *testing.T) {
	b := BoundingBox([]Point{{3, 4}, {-1, 8}, {5, 2}})
	assert.Equal(t, Box{MinX: -1, MinY: 2, MaxX: 5, MaxY: 8}, b)
	assert.InDelta(t, 6.0, b.Width(), 1e-9)
	assert.InDelta(t, 6.0, b.Height(), 1e-9)
	assert.Equal(t, Box{}, BoundingBox(nil))
}

func TestParseCorners(t *testing.T) {
	q, err := ParseCorners("[1, 2, 3, 4, 5, 6, 7, 8]")
	require.NoError(t, err)
	assert.Equal(t, Point{X: 7, Y: 8}, q[3])

	q, err = ParseCorners("1 2\t3 4\n5 6 7 8")
	require.NoError(t, err)
	assert.Equal(t, Point{X: 3, Y: 4}, q[1])

	_, err = ParseCorners("1,2,3,4,5,6,7,NaN")
	require.Error(t, err)

	_, err = ParseCorners("1,2,x,4,5,6,7,8")
	require.ErrorIs(t, err, ErrInvalidCorners)

	_, err = ParseCorners("")
	require.ErrorIs(t, err, ErrInvalidCorners)
}

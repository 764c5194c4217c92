package detector

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGrayscale_Weights(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{G: 255, A: 255})
	img.Set(2, 0, color.NRGBA{B: 255, A: 255})

	g := ToGrayscale(img)
	require.Equal(t, 3, g.Width)
	require.Equal(t, 1, g.Height)
	assert.Equal(t, []uint8{76, 149, 29}, g.Pix)
}

func TestToGrayscale_SinglePixel(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 100, G: 100, B: 100, A: 255})

	g := ToGrayscale(img)
	require.Len(t, g.Pix, 1)
	assert.InDelta(t, 100, int(g.Pix[0]), 1)
}

func TestToGrayscale_OffsetBounds(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	base.Set(5, 5, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	sub := base.SubImage(image.Rect(5, 5, 8, 8))

	g := ToGrayscale(sub)
	assert.Equal(t, 3, g.Width)
	assert.GreaterOrEqual(t, g.At(0, 0), uint8(254))
	assert.Equal(t, uint8(0), g.At(1, 1))
}

func TestToGrayscale_DoesNotModifyInput(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	before := append([]uint8(nil), img.Pix...)

	_ = ToGrayscale(img)
	assert.Equal(t, before, img.Pix)
}

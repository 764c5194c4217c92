package utils

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkerboard(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			if (x/4+y/4)%2 == 0 {
				img.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			} else {
				img.Set(x, y, color.NRGBA{A: 255})
			}
		}
	}
	return img
}

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("scan.JPG"))
	assert.True(t, IsSupportedImage("page.tiff"))
	assert.False(t, IsSupportedImage("doc.pdf"))
}

func TestSaveAndLoadImage(t *testing.T) {
	dir := t.TempDir()
	src := checkerboard(16, 8)

	for _, ext := range []string{".png", ".bmp", ".tiff"} {
		path := filepath.Join(dir, "nested", "img"+ext)
		require.NoError(t, SaveImage(path, src, 0))

		img, meta, err := LoadImage(path)
		require.NoError(t, err, ext)
		assert.Equal(t, 16, meta.Width)
		assert.Equal(t, 8, meta.Height)
		assert.InDelta(t, 2.0, meta.AspectRatio, 1e-9)
		assert.Positive(t, meta.SizeBytes)

		r, _, _, _ := img.At(0, 0).RGBA()
		assert.Equal(t, uint32(0xffff), r, ext)
	}
}

func TestLoadImage_Errors(t *testing.T) {
	_, _, err := LoadImage("")
	require.Error(t, err)

	_, _, err = LoadImage("file.gif")
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "load", ipe.Operation)

	_, _, err = LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
}

func TestDecodeImage_Garbage(t *testing.T) {
	_, _, err := DecodeImage(bytes.NewReader([]byte("not an image")))
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "decode", ipe.Operation)
}

func TestEncodeImage_UnknownFormat(t *testing.T) {
	_, err := EncodeImageBytes(checkerboard(4, 4), "webp", 0)
	require.Error(t, err)
}

func TestValidateImage(t *testing.T) {
	require.ErrorIs(t, ValidateImage("detect", nil), ErrEmptyImage)
	require.ErrorIs(t, ValidateImage("detect", image.NewNRGBA(image.Rect(0, 0, 0, 5))), ErrEmptyImage)
	require.NoError(t, ValidateImage("detect", image.NewNRGBA(image.Rect(0, 0, 1, 1))))

	err := ValidateImage("detect", nil)
	assert.True(t, errors.Is(err, ErrEmptyImage))
	assert.Contains(t, err.Error(), "image processing error in detect")
}

func TestDownscale(t *testing.T) {
	assert.InDelta(t, 1.0, DownscaleFactor(640, 480, 800), 1e-12)
	assert.InDelta(t, 0.8, DownscaleFactor(1000, 600, 800), 1e-12)
	assert.InDelta(t, 0.5, DownscaleFactor(300, 1600, 800), 1e-12)

	small := Downscale(checkerboard(20, 10), 1.0)
	assert.Equal(t, image.Rect(0, 0, 20, 10), small.Bounds())

	half := Downscale(checkerboard(20, 10), 0.5)
	assert.Equal(t, image.Rect(0, 0, 10, 5), half.Bounds())
}

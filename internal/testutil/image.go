package testutil

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test image sizes.
	SmallSize  = ImageSize{320, 240}
	MediumSize = ImageSize{640, 480}
	LargeSize  = ImageSize{1000, 1000}
)

// DocumentConfig describes a synthetic photo of a page on a background.
type DocumentConfig struct {
	Size       ImageSize
	Background color.Color
	Page       color.Color
	Ink        color.Color
	Corners    utils.Quad // page outline, TL, TR, BR, BL
	TextLines  int        // lines of filler text printed on the page
}

// DefaultDocumentConfig returns a white 600x600 page centred on a black
// 1000x1000 background.
func DefaultDocumentConfig() DocumentConfig {
	return DocumentConfig{
		Size:       LargeSize,
		Background: color.Black,
		Page:       color.White,
		Ink:        color.NRGBA{R: 30, G: 30, B: 30, A: 255},
		Corners:    CenteredSquare(1000, 1000, 600),
	}
}

// CenteredSquare returns the corners of a side x side square centred in a
// w x h image.
func CenteredSquare(w, h, side int) utils.Quad {
	x0 := float64(w-side) / 2
	y0 := float64(h-side) / 2
	x1 := x0 + float64(side)
	y1 := y0 + float64(side)
	return utils.Quad{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

// SolidImage returns a w x h image filled with c.
func SolidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// InsideQuad reports whether p lies inside the convex quad.
func InsideQuad(q utils.Quad, p utils.Point) bool {
	sign := 0.0
	for i := range q {
		c := utils.Cross(q[i], q[(i+1)%4], p)
		if c == 0 {
			continue
		}
		if sign == 0 {
			sign = math.Copysign(1, c)
		} else if math.Copysign(1, c) != sign {
			return false
		}
	}
	return true
}

// FillQuad paints every pixel whose centre lies inside q.
func FillQuad(img *image.NRGBA, q utils.Quad, c color.Color) {
	b := utils.BoundingBox(q[:])
	rect := image.Rect(int(math.Floor(b.MinX)), int(math.Floor(b.MinY)),
		int(math.Ceil(b.MaxX))+1, int(math.Ceil(b.MaxY))+1).Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if InsideQuad(q, utils.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}) {
				img.Set(x, y, c)
			}
		}
	}
}

// GenerateDocumentImage renders the configured page, with optional text
// clipped to the page outline.
func GenerateDocumentImage(cfg DocumentConfig) *image.NRGBA {
	img := SolidImage(cfg.Size.Width, cfg.Size.Height, cfg.Background)
	FillQuad(img, cfg.Corners, cfg.Page)
	if cfg.TextLines <= 0 {
		return img
	}

	layer := image.NewAlpha(img.Bounds())
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: layer, Src: image.Opaque, Face: face}
	box := utils.BoundingBox(cfg.Corners[:])
	lineHeight := face.Metrics().Height.Ceil() * 2
	x := int(box.MinX + box.Width()*0.15)
	y := int(box.MinY+box.Height()*0.15) + lineHeight
	for i := range cfg.TextLines {
		if float64(y) > box.MaxY-box.Height()*0.15 {
			break
		}
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(fmt.Sprintf("Line %02d of the quarterly report", i+1))
		y += lineHeight
	}
	for py := range cfg.Size.Height {
		for px := range cfg.Size.Width {
			if layer.AlphaAt(px, py).A == 0 {
				continue
			}
			if InsideQuad(cfg.Corners, utils.Point{X: float64(px) + 0.5, Y: float64(py) + 0.5}) {
				img.Set(px, py, cfg.Ink)
			}
		}
	}
	return img
}

// SaveImage saves an image to the specified path as PNG.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)))

	file, err := os.Create(path) //nolint:gosec // G304: Test file creation with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}

// LoadImage loads an image from the specified path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	img, _, err := utils.LoadImage(path)
	require.NoError(t, err, "Failed to load image %s", path)
	return img
}

// MeanAbsDiff returns the mean absolute per-channel difference of two
// equally sized images in 8-bit units, or +Inf when sizes differ.
func MeanAbsDiff(img1, img2 image.Image) float64 {
	b1, b2 := img1.Bounds(), img2.Bounds()
	if b1.Dx() != b2.Dx() || b1.Dy() != b2.Dy() {
		return math.Inf(1)
	}
	var total float64
	for y := range b1.Dy() {
		for x := range b1.Dx() {
			r1, g1, bl1, _ := img1.At(b1.Min.X+x, b1.Min.Y+y).RGBA()
			r2, g2, bl2, _ := img2.At(b2.Min.X+x, b2.Min.Y+y).RGBA()
			total += math.Abs(float64(r1>>8)-float64(r2>>8)) +
				math.Abs(float64(g1>>8)-float64(g2>>8)) +
				math.Abs(float64(bl1>>8)-float64(bl2>>8))
		}
	}
	return total / float64(3*b1.Dx()*b1.Dy())
}

package detector

import (
	"image"

	"github.com/disintegration/imaging"
)

// Gray is a single channel 8-bit luminance buffer.
type Gray struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewGray allocates a zeroed buffer.
func NewGray(w, h int) Gray {
	return Gray{Width: w, Height: h, Pix: make([]uint8, w*h)}
}

// At returns the value at (x, y).
func (g Gray) At(x, y int) uint8 { return g.Pix[y*g.Width+x] }

// Clone returns a deep copy.
func (g Gray) Clone() Gray {
	return Gray{Width: g.Width, Height: g.Height, Pix: append([]uint8(nil), g.Pix...)}
}

// ToGrayscale converts img with luminosity weights 0.299, 0.587, 0.114,
// truncating the result. Alpha is ignored.
func ToGrayscale(img image.Image) Gray {
	src, ok := img.(*image.NRGBA)
	if !ok || src.Rect.Min != (image.Point{}) {
		src = imaging.Clone(img)
	}
	w, h := src.Rect.Dx(), src.Rect.Dy()
	g := NewGray(w, h)
	for y := range h {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := range w {
			r := float64(row[x*4])
			gg := float64(row[x*4+1])
			b := float64(row[x*4+2])
			g.Pix[y*w+x] = uint8(0.299*r + 0.587*gg + 0.114*b)
		}
	}
	return g
}

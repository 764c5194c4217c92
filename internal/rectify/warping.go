package rectify

import (
	"image"
	"math"

	"github.com/MeKo-Tech/docscan/internal/utils"
)

// warpPerspective fills a dstW x dstH image by mapping every output pixel
// centre through h into src and sampling bilinearly. Source coordinates are
// clamped to the image, so out-of-quad samples repeat the border.
func warpPerspective(src *image.NRGBA, h Homography, dstW, dstH int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	for y := range dstH {
		row := out.Pix[y*out.Stride:]
		for x := range dstW {
			p, ok := h.Apply(utils.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5})
			if !ok {
				p = utils.Point{}
			}
			r, g, b, a := bilinearSample(src, p.X-0.5, p.Y-0.5)
			i := 4 * x
			row[i+0] = r
			row[i+1] = g
			row[i+2] = b
			row[i+3] = a
		}
	}
	return out
}

// bilinearSample interpolates src at (x, y) where integer coordinates hit
// pixel centres. src must have its origin at (0, 0).
func bilinearSample(src *image.NRGBA, x, y float64) (uint8, uint8, uint8, uint8) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	x = clamp(x, 0, float64(w-1))
	y = clamp(y, 0, float64(h-1))

	x0, y0 := int(x), int(y)
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	fx, fy := x-float64(x0), y-float64(y0)

	p00 := src.PixOffset(x0, y0)
	p10 := src.PixOffset(x1, y0)
	p01 := src.PixOffset(x0, y1)
	p11 := src.PixOffset(x1, y1)

	var c [4]uint8
	for k := range 4 {
		top := lerp(float64(src.Pix[p00+k]), float64(src.Pix[p10+k]), fx)
		bottom := lerp(float64(src.Pix[p01+k]), float64(src.Pix[p11+k]), fx)
		c[k] = uint8(clamp(lerp(top, bottom, fy)+0.5, 0, 255))
	}
	return c[0], c[1], c[2], c[3]
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

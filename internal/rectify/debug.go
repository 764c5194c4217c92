package rectify

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/docscan/internal/utils"
)

var (
	quadColor   = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
	cornerColor = color.NRGBA{R: 0, G: 160, B: 255, A: 255}
)

func dumpOverlayPNG(dir string, src *image.NRGBA, q utils.Quad) error {
	canvas := image.NewNRGBA(src.Rect)
	draw.Draw(canvas, canvas.Rect, src, image.Point{}, draw.Src)
	drawQuad(canvas, q)
	path := filepath.Join(dir, fmt.Sprintf("rect_overlay_%d.png", time.Now().UnixNano()))
	return utils.SaveImage(path, canvas, 0)
}

// dumpComparePNG writes the annotated source and the rectified output side
// by side, both scaled to a common height.
func dumpComparePNG(dir string, src *image.NRGBA, q utils.Quad, dst *image.NRGBA) error {
	const height = 512
	left := image.NewNRGBA(src.Rect)
	draw.Draw(left, left.Rect, src, image.Point{}, draw.Src)
	drawQuad(left, q)

	l := utils.ResizeToFit(left, 4*height, height)
	r := utils.ResizeToFit(dst, 4*height, height)
	lb, rb := l.Bounds(), r.Bounds()

	canvas := image.NewNRGBA(image.Rect(0, 0, lb.Dx()+rb.Dx(), max(lb.Dy(), rb.Dy())))
	draw.Draw(canvas, canvas.Rect, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, lb.Dx(), lb.Dy()), l, lb.Min, draw.Src)
	draw.Draw(canvas, image.Rect(lb.Dx(), 0, lb.Dx()+rb.Dx(), rb.Dy()), r, rb.Min, draw.Src)

	path := filepath.Join(dir, fmt.Sprintf("rect_compare_%d.png", time.Now().UnixNano()))
	return utils.SaveImage(path, canvas, 0)
}

func drawQuad(dst draw.Image, q utils.Quad) {
	utils.DrawPolygon(dst, q[:], quadColor, 3)
	for i, p := range q {
		utils.DrawMarker(dst, p, cornerColor, 4)
		utils.DrawLabel(dst, int(p.X)+6, int(p.Y)-6, fmt.Sprint(i), cornerColor)
	}
}

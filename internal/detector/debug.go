package detector

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/disintegration/imaging"
)

// overlayShare is the minimum contour size, relative to the largest
// contour, that is painted on a debug overlay.
const overlayShare = 0.20

var quadOutlineColor = color.NRGBA{R: 255, G: 40, B: 40, A: 255}

// DebugOverlay paints the traced contours (those with at least 20% of the
// points of the largest one) and the chosen quadrilateral on a copy of img.
func (d *Detector) DebugOverlay(img image.Image) (*image.NRGBA, Result, error) {
	if err := utils.ValidateImage("overlay", img); err != nil {
		return nil, Result{}, err
	}
	b := img.Bounds()
	a := d.analyze(img)
	res := d.choose(a, b.Dx(), b.Dy())
	return d.renderOverlay(img, a, res), res, nil
}

func (d *Detector) renderOverlay(img image.Image, a *Analysis, res Result) *image.NRGBA {
	out := imaging.Clone(img)
	fill, err := utils.ParseHexColor(d.config.OverlayColor)
	if err != nil {
		fill = color.NRGBA{G: 255, A: 255}
	}

	largest := 0
	for _, c := range a.Contours {
		largest = max(largest, len(c))
	}
	threshold := int(float64(largest) * overlayShare)
	radius := max(0, int(math.Ceil(1/a.Scale))/2)
	drawn := 0
	for _, c := range a.Contours {
		if len(c) < threshold {
			continue
		}
		drawn++
		for _, p := range c {
			cx := int(p.X / a.Scale)
			cy := int(p.Y / a.Scale)
			for y := cy - radius; y <= cy+radius; y++ {
				for x := cx - radius; x <= cx+radius; x++ {
					utils.BlendPixel(out, x, y, fill, 0.5)
				}
			}
		}
	}

	thickness := max(2, out.Rect.Dx()/300)
	utils.DrawPolygon(out, res.Corners[:], quadOutlineColor, thickness)
	for _, p := range res.Corners {
		utils.DrawMarker(out, p, quadOutlineColor, thickness*2)
	}
	label := fmt.Sprintf("contours=%d drawn=%d confidence=%.2f", len(a.Contours), drawn, res.Confidence)
	utils.DrawLabel(out, 8, 20, label, quadOutlineColor)
	return out
}

func (d *Detector) writeDebugOverlay(img image.Image, a *Analysis, res Result) {
	if err := os.MkdirAll(d.config.DebugDir, 0o750); err != nil {
		slog.Warn("Cannot create debug directory", "dir", d.config.DebugDir, "error", err)
		return
	}
	name := fmt.Sprintf("detect_%d.png", time.Now().UnixNano())
	path := filepath.Join(d.config.DebugDir, name)
	if err := utils.SaveImage(path, d.renderOverlay(img, a, res), 0); err != nil {
		slog.Warn("Cannot write debug overlay", "path", path, "error", err)
		return
	}
	slog.Debug("Wrote detection overlay", "path", path)
}

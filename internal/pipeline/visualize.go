package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/MeKo-Tech/docscan/internal/utils"
)

// OverlayColors selects the outline colour by review state.
type OverlayColors struct {
	Detected color.Color
	Review   color.Color
}

// DefaultOverlayColors returns green for confident and orange for flagged
// results.
func DefaultOverlayColors() OverlayColors {
	return OverlayColors{
		Detected: utils.MustParseHexColor("#00c853"),
		Review:   utils.MustParseHexColor("#ff9100"),
	}
}

// RenderOverlay draws the detected quad with corner handles and the
// confidence onto a copy of img.
func RenderOverlay(img image.Image, res *ScanResult, colors OverlayColors) *image.NRGBA {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	if res == nil {
		return dst
	}

	col := colors.Detected
	if res.NeedsReview {
		col = colors.Review
	}
	thickness := max(2, min(b.Dx(), b.Dy())/200)
	utils.DrawPolygon(dst, res.Corners[:], col, thickness)
	for _, c := range res.Corners {
		utils.DrawMarker(dst, c, col, 2*thickness)
	}
	label := fmt.Sprintf("confidence %.2f", res.Confidence)
	if res.NeedsReview {
		label += " (review)"
	}
	utils.DrawLabel(dst, 8, 20, label, col)
	return dst
}

// Package enhance applies the post-rectification colour filters and
// adjustments offered to users before a page is saved.
package enhance

import (
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// bwLevel makes luminosity above 128 white.
const bwLevel = 129

// Apply runs the enabled steps in order: rotation, flips, filter,
// brightness, contrast, saturation (skipped for grayscale and bw),
// sharpen and auto enhance (only without a filter). The input is never
// modified.
func Apply(img image.Image, opts Options) *image.NRGBA {
	if opts.Filter == "" {
		opts.Filter = FilterNone
	}
	if opts.IsIdentity() {
		return imaging.Clone(img)
	}

	var out image.Image = img
	if opts.Rotation != 0 {
		out = imaging.Rotate(out, -opts.Rotation, color.White)
	}
	if opts.FlipH {
		out = imaging.FlipH(out)
	}
	if opts.FlipV {
		out = imaging.FlipV(out)
	}

	switch opts.Filter {
	case FilterGrayscale:
		out = effect.Grayscale(out)
	case FilterBlackWhite:
		out = segment.Threshold(out, bwLevel)
	case FilterSepia:
		out = effect.Sepia(out)
	case FilterAuto:
		out = Stretch(out)
	}

	if opts.Brightness != 0 {
		out = Brightness(out, opts.Brightness)
	}
	if opts.Contrast != 0 {
		out = adjust.Contrast(out, opts.Contrast)
	}
	if opts.Saturation != 1 && opts.Filter != FilterGrayscale && opts.Filter != FilterBlackWhite {
		out = adjust.Saturation(out, opts.Saturation-1)
	}
	if opts.Sharpen > 0 {
		out = imaging.Sharpen(out, 3*opts.Sharpen)
	}
	if opts.AutoEnhance && opts.Filter == FilterNone {
		out = Stretch(out)
	}

	slog.Debug("Enhanced image", "filter", opts.Filter, "rotation", opts.Rotation,
		"brightness", opts.Brightness, "contrast", opts.Contrast, "saturation", opts.Saturation)
	return imaging.Clone(out)
}

// Brightness adds delta to every colour channel.
func Brightness(img image.Image, delta float64) image.Image {
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		return color.RGBA{
			R: clampChannel(float64(c.R) + delta),
			G: clampChannel(float64(c.G) + delta),
			B: clampChannel(float64(c.B) + delta),
			A: c.A,
		}
	})
}

// Stretch maps the darkest mean channel brightness to 0 and the brightest
// to 255. Images with a single brightness are returned unchanged.
func Stretch(img image.Image) image.Image {
	lo, hi := brightnessRange(img)
	if hi <= lo {
		return img
	}
	scale := 255 / float64(hi-lo)
	offset := -float64(lo) * scale
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		return color.RGBA{
			R: clampChannel(float64(c.R)*scale + offset),
			G: clampChannel(float64(c.G)*scale + offset),
			B: clampChannel(float64(c.B)*scale + offset),
			A: c.A,
		}
	})
}

func brightnessRange(img image.Image) (lo, hi int) {
	n := imaging.Clone(img)
	lo, hi = 255, 0
	for i := 0; i+3 < len(n.Pix); i += 4 {
		v := (int(n.Pix[i]) + int(n.Pix[i+1]) + int(n.Pix[i+2])) / 3
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

func clampChannel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}

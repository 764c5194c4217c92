package detector

import (
	"log/slog"
	"math"

	"github.com/MeKo-Tech/docscan/internal/mempool"
)

// Direction is a gradient direction quantized to 45 degree bins.
type Direction uint8

const (
	DirHorizontal   Direction = iota // gradient along x, edge runs vertically
	DirDiagonalDown                  // gradient along "\" (down-right / up-left)
	DirVertical                      // gradient along y, edge runs horizontally
	DirDiagonalUp                    // gradient along "/" (up-right / down-left)
)

var gaussianKernel = [5][5]int{
	{2, 4, 5, 4, 2},
	{4, 9, 12, 9, 4},
	{5, 12, 15, 12, 5},
	{4, 9, 12, 9, 4},
	{2, 4, 5, 4, 2},
}

const gaussianKernelSum = 159

// Gradients holds Sobel magnitudes and quantized directions.
type Gradients struct {
	Width     int
	Height    int
	Magnitude []int
	Direction []Direction
}

// GaussianBlur smooths g with the fixed 5x5 integer kernel. The 2 pixel
// border where the kernel does not fit is copied from the input.
func GaussianBlur(g Gray) Gray {
	out := g.Clone()
	w, h := g.Width, g.Height
	for y := 2; y < h-2; y++ {
		for x := 2; x < w-2; x++ {
			sum := 0
			for ky := -2; ky <= 2; ky++ {
				row := (y + ky) * w
				for kx := -2; kx <= 2; kx++ {
					sum += int(g.Pix[row+x+kx]) * gaussianKernel[ky+2][kx+2]
				}
			}
			out.Pix[y*w+x] = uint8(sum / gaussianKernelSum)
		}
	}
	return out
}

// quantizeDirection maps an atan2 angle in degrees to its bin.
func quantizeDirection(deg float64) Direction {
	switch {
	case deg >= -22.5 && deg < 22.5, deg >= 157.5 || deg < -157.5:
		return DirHorizontal
	case deg >= 67.5 && deg < 112.5, deg >= -112.5 && deg < -67.5:
		return DirVertical
	case deg >= 22.5 && deg < 67.5, deg >= -157.5 && deg < -112.5:
		return DirDiagonalDown
	default:
		return DirDiagonalUp
	}
}

// SobelGradients computes 3x3 Sobel magnitudes (truncated) and directions on
// the interior. Border pixels keep magnitude 0.
func SobelGradients(g Gray) Gradients {
	w, h := g.Width, g.Height
	grad := Gradients{
		Width:     w,
		Height:    h,
		Magnitude: make([]int, w*h),
		Direction: make([]Direction, w*h),
	}
	p := func(x, y int) int { return int(g.Pix[y*w+x]) }
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -p(x-1, y-1) + p(x+1, y-1) -
				2*p(x-1, y) + 2*p(x+1, y) -
				p(x-1, y+1) + p(x+1, y+1)
			gy := -p(x-1, y-1) - 2*p(x, y-1) - p(x+1, y-1) +
				p(x-1, y+1) + 2*p(x, y+1) + p(x+1, y+1)

			i := y*w + x
			grad.Magnitude[i] = int(math.Sqrt(float64(gx*gx + gy*gy)))
			grad.Direction[i] = quantizeDirection(math.Atan2(float64(gy), float64(gx)) * 180 / math.Pi)
		}
	}
	return grad
}

// NonMaxSuppression keeps a magnitude only when it is at least as large as
// both neighbours along its gradient direction.
func NonMaxSuppression(grad Gradients) []int {
	out := make([]int, grad.Width*grad.Height)
	nonMaxSuppressionInto(grad, out)
	return out
}

// nonMaxSuppressionInto writes interior results into out, which must be
// zeroed and hold Width*Height values.
func nonMaxSuppressionInto(grad Gradients, out []int) {
	w, h := grad.Width, grad.Height
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			var a, b int
			switch grad.Direction[i] {
			case DirHorizontal:
				a, b = i-1, i+1
			case DirDiagonalDown:
				a, b = i-w-1, i+w+1
			case DirVertical:
				a, b = i-w, i+w
			case DirDiagonalUp:
				a, b = i-w+1, i+w-1
			}
			m := grad.Magnitude[i]
			if m >= grad.Magnitude[a] && m >= grad.Magnitude[b] {
				out[i] = m
			}
		}
	}
}

// Thresholds returns the high and low hysteresis thresholds for a maximum
// magnitude.
func Thresholds(maxMagnitude int, highRatio, lowRatio float64) (high, low int) {
	high = int(float64(maxMagnitude) * highRatio)
	low = int(float64(high) * lowRatio)
	return high, low
}

// Hysteresis classifies suppressed magnitudes into an edge mask. Strong
// pixels are always edges; weak pixels become edges only when one of their
// 8 immediate neighbours is strong. This is a single local pass, weak chains
// are not followed. Zero magnitudes are never edges.
func Hysteresis(suppressed []int, w, h int, highRatio, lowRatio float64) Mask {
	mask := NewMask(w, h)
	maxMag := 0
	for _, v := range suppressed {
		maxMag = max(maxMag, v)
	}
	if maxMag == 0 {
		return mask
	}
	high, low := Thresholds(maxMag, highRatio, lowRatio)
	slog.Debug("Hysteresis thresholds", "max", maxMag, "high", high, "low", low)

	strong := mempool.GetBool(w * h)
	defer mempool.PutBool(strong)
	for i, v := range suppressed {
		if v > 0 && v >= high {
			strong[i] = true
			mask.Pix[i] = true
		}
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			v := suppressed[y*w+x]
			if v <= 0 || v < low || v >= high {
				continue
			}
		neighbours:
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if strong[(y+dy)*w+x+dx] {
						mask.Pix[y*w+x] = true
						break neighbours
					}
				}
			}
		}
	}
	return mask
}

// DetectEdges runs blur, gradients, suppression, hysteresis and the
// configured morphology. Buffers smaller than 5x5 give an empty mask.
func DetectEdges(g Gray, cfg Config) Mask {
	if g.Width < 5 || g.Height < 5 {
		return NewMask(g.Width, g.Height)
	}
	blurred := GaussianBlur(g)
	grad := SobelGradients(blurred)
	suppressed := mempool.GetInt(g.Width * g.Height)
	defer mempool.PutInt(suppressed)
	nonMaxSuppressionInto(grad, suppressed)
	edges := Hysteresis(suppressed, g.Width, g.Height, cfg.HighThresholdRatio, cfg.LowThresholdRatio)
	return ApplyMorphologicalOperation(edges, cfg.Morphology)
}

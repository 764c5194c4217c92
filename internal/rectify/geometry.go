package rectify

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/docscan/internal/utils"
)

// TargetSize derives the output width and height from the side lengths of
// an ordered quad. Both dimensions are at least 1.
func TargetSize(q utils.Quad, mode DimensionMode) (int, int, error) {
	top, bottom, left, right := q.SideLengths()
	var w, h int
	switch mode {
	case ModeAverage, "":
		w = int((top + bottom) / 2)
		h = int((left + right) / 2)
	case ModeMaximum:
		w = int(math.Max(top, bottom))
		h = int(math.Max(left, right))
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return max(w, 1), max(h, 1), nil
}

// checkQuad rejects quads that cannot define a perspective transform.
func checkQuad(q utils.Quad, cfg Config) error {
	for _, p := range q {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("%w: corner (%v,%v) is not finite", ErrDegenerateQuad, p.X, p.Y)
		}
	}
	if area := q.Area(); area < cfg.MinQuadArea {
		return fmt.Errorf("%w: area %.3f px² below %.3f", ErrDegenerateQuad, area, cfg.MinQuadArea)
	}

	span := 0.0
	for i := range q {
		for j := i + 1; j < 4; j++ {
			span = math.Max(span, utils.Distance(q[i], q[j]))
		}
	}
	for i := range 4 {
		for j := i + 1; j < 4; j++ {
			for k := j + 1; k < 4; k++ {
				if math.Abs(utils.Cross(q[i], q[j], q[k])) <= cfg.CollinearTol*span*span {
					return fmt.Errorf("%w: corners %d, %d and %d are collinear", ErrDegenerateQuad, i, j, k)
				}
			}
		}
	}
	return nil
}

// destinationQuad returns the output rectangle corners (0,0), (W,0), (W,H), (0,H).
func destinationQuad(w, h int) utils.Quad {
	fw, fh := float64(w), float64(h)
	return utils.Quad{{X: 0, Y: 0}, {X: fw, Y: 0}, {X: fw, Y: fh}, {X: 0, Y: fh}}
}

package rectify

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/docscan/internal/utils"
	"gonum.org/v1/gonum/mat"
)

// Homography is a 3x3 projective transform in row-major order with h[8] = 1.
type Homography [9]float64

// Apply maps p through the transform. It reports false when p maps to the
// line at infinity.
func (h Homography) Apply(p utils.Point) (utils.Point, bool) {
	denom := h[6]*p.X + h[7]*p.Y + h[8]
	if denom == 0 {
		return utils.Point{}, false
	}
	return utils.Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / denom,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / denom,
	}, true
}

// Det returns the determinant of the transform.
func (h Homography) Det() float64 {
	return mat.Det(mat.NewDense(3, 3, h[:]))
}

// ComputeHomography solves the transform mapping from[i] to to[i]. Both
// point sets are normalised (centroid at the origin, mean distance sqrt(2))
// before the 8x8 system is solved, and the system is rejected when its
// condition number exceeds maxCond.
func ComputeHomography(from, to utils.Quad, maxCond float64) (Homography, error) {
	tFrom, err := normalizer(from)
	if err != nil {
		return Homography{}, err
	}
	tTo, err := normalizer(to)
	if err != nil {
		return Homography{}, err
	}
	fn := transformQuad(tFrom, from)
	tn := transformQuad(tTo, to)

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := range 4 {
		X, Y := fn[i].X, fn[i].Y
		x, y := tn[i].X, tn[i].Y
		r := 2 * i
		a.SetRow(r, []float64{X, Y, 1, 0, 0, 0, -X * x, -Y * x})
		b.SetVec(r, x)
		a.SetRow(r+1, []float64{0, 0, 0, X, Y, 1, -X * y, -Y * y})
		b.SetVec(r+1, y)
	}

	var lu mat.LU
	lu.Factorize(a)
	if cond := lu.Cond(); math.IsInf(cond, 0) || math.IsNaN(cond) || cond > maxCond {
		return Homography{}, fmt.Errorf("%w: condition number %.3g", ErrSingularTransform, cond)
	}
	var sol mat.VecDense
	if err := lu.SolveVecTo(&sol, false, b); err != nil {
		return Homography{}, fmt.Errorf("%w: %w", ErrSingularTransform, err)
	}

	hn := mat.NewDense(3, 3, []float64{
		sol.AtVec(0), sol.AtVec(1), sol.AtVec(2),
		sol.AtVec(3), sol.AtVec(4), sol.AtVec(5),
		sol.AtVec(6), sol.AtVec(7), 1,
	})

	// H = inv(tTo) * Hn * tFrom
	var tmp, full mat.Dense
	tmp.Mul(hn, tFrom)
	full.Mul(invertNormalizer(tTo), &tmp)

	scale := full.At(2, 2)
	if scale == 0 || math.IsNaN(scale) {
		return Homography{}, fmt.Errorf("%w: transform maps the origin to infinity", ErrSingularTransform)
	}
	var h Homography
	for i := range 9 {
		v := full.At(i/3, i%3) / scale
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Homography{}, fmt.Errorf("%w: non-finite coefficient", ErrSingularTransform)
		}
		h[i] = v
	}
	return h, nil
}

// normalizer returns the similarity transform moving the centroid of q to
// the origin with mean distance sqrt(2).
func normalizer(q utils.Quad) (*mat.Dense, error) {
	var cx, cy float64
	for _, p := range q {
		cx += p.X
		cy += p.Y
	}
	cx /= 4
	cy /= 4
	mean := 0.0
	for _, p := range q {
		mean += math.Hypot(p.X-cx, p.Y-cy)
	}
	mean /= 4
	if mean == 0 || math.IsNaN(mean) {
		return nil, fmt.Errorf("%w: all corners coincide", ErrDegenerateQuad)
	}
	s := math.Sqrt2 / mean
	return mat.NewDense(3, 3, []float64{
		s, 0, -s * cx,
		0, s, -s * cy,
		0, 0, 1,
	}), nil
}

func invertNormalizer(t *mat.Dense) *mat.Dense {
	s := t.At(0, 0)
	return mat.NewDense(3, 3, []float64{
		1 / s, 0, -t.At(0, 2) / s,
		0, 1 / s, -t.At(1, 2) / s,
		0, 0, 1,
	})
}

func transformQuad(t *mat.Dense, q utils.Quad) utils.Quad {
	var out utils.Quad
	for i, p := range q {
		out[i] = utils.Point{
			X: t.At(0, 0)*p.X + t.At(0, 1)*p.Y + t.At(0, 2),
			Y: t.At(1, 0)*p.X + t.At(1, 1)*p.Y + t.At(1, 2),
		}
	}
	return out
}

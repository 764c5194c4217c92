package detector

import "github.com/MeKo-Tech/docscan/internal/utils"

// Score weights; they sum to 1.
const (
	areaWeight      = 0.4
	aspectWeight    = 0.3
	convexityWeight = 0.3
)

// QuadCandidate is a 4-point polygon with the metrics used to rank it.
type QuadCandidate struct {
	Quad        utils.Quad
	Area        float64
	AreaRatio   float64
	AspectRatio float64
	Convexity   float64
	Score       float64
}

// AspectRatio returns mean width over mean height of the ordered quad, or 0
// when the height is 0.
func AspectRatio(q utils.Quad) float64 {
	top, bottom, left, right := q.Ordered().SideLengths()
	height := (left + right) / 2
	if height == 0 {
		return 0
	}
	return ((top + bottom) / 2) / height
}

// Convexity returns the quad area divided by the area of its convex hull.
func Convexity(q utils.Quad) float64 {
	hullArea := utils.PolygonArea(utils.ConvexHull(q[:]))
	if hullArea == 0 {
		return 0
	}
	return q.Area() / hullArea
}

// AreaScore rates the fraction of the image covered by a candidate.
func AreaScore(r float64) float64 {
	switch {
	case r >= 0.25 && r <= 0.85:
		return 1.0
	case r >= 0.15 && r < 0.25:
		return 0.7 + (r-0.15)*3
	case r > 0.85 && r <= 0.95:
		return 1.0 - (r-0.85)*3
	case r >= 0.10 && r < 0.15:
		return 0.4 + (r-0.10)*6
	default:
		return 0.2
	}
}

// AspectScore rates how page-like a width/height ratio is.
func AspectScore(a float64) float64 {
	switch {
	case a >= 0.7 && a <= 1.5:
		return 1.0
	case (a >= 0.5 && a < 0.7) || (a > 1.5 && a <= 2.0):
		return 0.7
	case (a >= 0.3 && a < 0.5) || (a > 2.0 && a <= 3.0):
		return 0.4
	default:
		return 0.1
	}
}

// ConvexityScore rates the candidate convexity.
func ConvexityScore(c float64) float64 {
	switch {
	case c > 0.95:
		return 1.0
	case c > 0.9:
		return 0.8
	case c > 0.8:
		return 0.5
	default:
		return 0.2
	}
}

// CompositeScore combines the three partial scores.
func CompositeScore(areaRatio, aspect, convexity float64) float64 {
	return areaWeight*AreaScore(areaRatio) + aspectWeight*AspectScore(aspect) + convexityWeight*ConvexityScore(convexity)
}

// NewCandidate measures q against an image of w x h pixels.
func NewCandidate(q utils.Quad, w, h int) QuadCandidate {
	area := q.Area()
	c := QuadCandidate{
		Quad:        q,
		Area:        area,
		AreaRatio:   area / float64(w*h),
		AspectRatio: AspectRatio(q),
		Convexity:   Convexity(q),
	}
	c.Score = CompositeScore(c.AreaRatio, c.AspectRatio, c.Convexity)
	return c
}

// SelectBest returns the highest scoring candidate. The first of equal
// scores wins.
func SelectBest(cands []QuadCandidate) (QuadCandidate, bool) {
	if len(cands) == 0 {
		return QuadCandidate{}, false
	}
	best := 0
	for i := 1; i < len(cands); i++ {
		if cands[i].Score > cands[best].Score {
			best = i
		}
	}
	return cands[best], true
}

// quadFromContour reduces a contour to its convex hull and keeps the 4
// sharpest hull vertices.
func quadFromContour(c Contour) ([]utils.Point, bool) {
	if len(c) < 4 {
		return nil, false
	}
	hull := utils.ConvexHull(c)
	poly := utils.SimplifyToQuad(hull)
	return poly, len(poly) == 4
}

// FindCandidates turns contours into scored candidates that pass the early
// area gate, in contour order.
func FindCandidates(contours []Contour, w, h int, cfg Config) []QuadCandidate {
	var out []QuadCandidate
	for _, c := range contours {
		poly, ok := quadFromContour(c)
		if !ok {
			continue
		}
		q, _ := utils.QuadFromPoints(poly)
		cand := NewCandidate(q, w, h)
		if cand.AreaRatio < cfg.MinCandidateAreaRatio || cand.AreaRatio > cfg.MaxCandidateAreaRatio {
			continue
		}
		out = append(out, cand)
	}
	return out
}

package utils

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Quad is a quadrilateral given by four corners. Detector output is always
// ordered top-left, top-right, bottom-right, bottom-left.
type Quad [4]Point

// ErrInvalidCorners is returned when a flat corner list cannot form a Quad.
var ErrInvalidCorners = errors.New("corners must contain exactly 8 coordinates")

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// ScalePoint scales a point by sx, sy.
func ScalePoint(p Point, sx, sy float64) Point {
	return Point{X: p.X * sx, Y: p.Y * sy}
}

// OrderCorners sorts corners by y, then orders the top pair by ascending x
// and the bottom pair by descending x. The result is TL, TR, BR, BL.
func OrderCorners(q Quad) Quad {
	pts := q
	sort.SliceStable(pts[:], func(i, j int) bool { return pts[i].Y < pts[j].Y })
	top := pts[:2]
	bottom := pts[2:]
	sort.SliceStable(top, func(i, j int) bool { return top[i].X < top[j].X })
	sort.SliceStable(bottom, func(i, j int) bool { return bottom[i].X > bottom[j].X })
	return pts
}

// QuadFromPoints builds a Quad from a slice of exactly four points.
func QuadFromPoints(pts []Point) (Quad, error) {
	if len(pts) != 4 {
		return Quad{}, fmt.Errorf("expected 4 corners, got %d", len(pts))
	}
	return Quad{pts[0], pts[1], pts[2], pts[3]}, nil
}

// Ordered returns the corners in TL, TR, BR, BL order.
func (q Quad) Ordered() Quad { return OrderCorners(q) }

// Points returns the corners as a slice.
func (q Quad) Points() []Point { return append([]Point(nil), q[:]...) }

// Area returns the shoelace area of the quad in its stored order.
func (q Quad) Area() float64 { return PolygonArea(q[:]) }

// Scale multiplies every corner coordinate by s.
func (q Quad) Scale(s float64) Quad {
	var out Quad
	for i, p := range q {
		out[i] = ScalePoint(p, s, s)
	}
	return out
}

// SideLengths returns top, bottom, left and right side lengths, assuming
// the quad is ordered TL, TR, BR, BL.
func (q Quad) SideLengths() (top, bottom, left, right float64) {
	top = Distance(q[0], q[1])
	bottom = Distance(q[3], q[2])
	left = Distance(q[0], q[3])
	right = Distance(q[1], q[2])
	return top, bottom, left, right
}

// Flatten returns the storage form [x1,y1,...,x4,y4].
func (q Quad) Flatten() [8]float64 {
	var out [8]float64
	for i, p := range q {
		out[2*i] = p.X
		out[2*i+1] = p.Y
	}
	return out
}

// QuadFromFlat parses the storage form produced by Flatten.
func QuadFromFlat(v []float64) (Quad, error) {
	if len(v) != 8 {
		return Quad{}, fmt.Errorf("%w: got %d", ErrInvalidCorners, len(v))
	}
	var q Quad
	for i := range q {
		x, y := v[2*i], v[2*i+1]
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return Quad{}, fmt.Errorf("corner %d is not finite", i)
		}
		q[i] = Point{X: x, Y: y}
	}
	return q, nil
}

// ParseCorners parses "x1,y1,...,x4,y4" as accepted on the command line
// and in form fields. Values may be separated by commas or whitespace and
// the list may be wrapped in brackets.
func ParseCorners(raw string) (Quad, error) {
	raw = strings.Trim(strings.TrimSpace(raw), "[]")
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Quad{}, fmt.Errorf("%w: %q is not a number", ErrInvalidCorners, f)
		}
		values = append(values, v)
	}
	return QuadFromFlat(values)
}

// Normalize maps pixel coordinates into [0,1] relative to a w x h image.
func (q Quad) Normalize(w, h int) Quad {
	if w <= 0 || h <= 0 {
		return q
	}
	var out Quad
	for i, p := range q {
		out[i] = ScalePoint(p, 1/float64(w), 1/float64(h))
	}
	return out
}

// Denormalize maps [0,1] coordinates back into pixel space.
func (q Quad) Denormalize(w, h int) Quad {
	var out Quad
	for i, p := range q {
		out[i] = ScalePoint(p, float64(w), float64(h))
	}
	return out
}

// InsetQuad returns the axis-aligned rectangle inset by fraction of the
// width and height on each side, ordered TL, TR, BR, BL.
func InsetQuad(w, h int, fraction float64) Quad {
	px := float64(w) * fraction
	py := float64(h) * fraction
	return Quad{
		{X: px, Y: py},
		{X: float64(w) - px, Y: py},
		{X: float64(w) - px, Y: float64(h) - py},
		{X: px, Y: float64(h) - py},
	}
}

// Box represents an axis-aligned bounding box in float coordinates.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// BoundingBox returns the axis-aligned bounding box for a set of points.
func BoundingBox(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Box{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

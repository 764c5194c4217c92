package utils

import (
	"math"
	"sort"
)

// PolygonArea returns the absolute shoelace area of a polygon.
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// Cross returns the z component of (a-o) x (b-o).
func Cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// ConvexHull computes the convex hull with a Graham scan. The pivot is the
// point with the lowest y (first one in input order on ties); the others are
// swept in polar angle order around it, equal angles nearest first, keeping
// only strict left turns. Inputs with fewer than 3 points are returned as is.
func ConvexHull(pts []Point) []Point {
	if len(pts) < 3 {
		return append([]Point(nil), pts...)
	}

	pivotIdx := 0
	for i, p := range pts {
		if p.Y < pts[pivotIdx].Y {
			pivotIdx = i
		}
	}
	pivot := pts[pivotIdx]

	type polar struct {
		p     Point
		angle float64
		dist  float64
	}
	rest := make([]polar, 0, len(pts)-1)
	for i, p := range pts {
		if i == pivotIdx {
			continue
		}
		rest = append(rest, polar{
			p:     p,
			angle: math.Atan2(p.Y-pivot.Y, p.X-pivot.X),
			dist:  Distance(pivot, p),
		})
	}
	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].angle != rest[j].angle {
			return rest[i].angle < rest[j].angle
		}
		return rest[i].dist < rest[j].dist
	})

	hull := make([]Point, 0, len(pts))
	hull = append(hull, pivot)
	for _, r := range rest {
		for len(hull) >= 2 && Cross(hull[len(hull)-2], hull[len(hull)-1], r.p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, r.p)
	}
	return hull
}

// TurnAngle returns how far the polygon turns at vertex i, that is pi minus
// the interior angle formed with its neighbours. Straight runs give 0.
func TurnAngle(pts []Point, i int) float64 {
	n := len(pts)
	prev := pts[(i-1+n)%n]
	cur := pts[i]
	next := pts[(i+1)%n]
	v1x, v1y := prev.X-cur.X, prev.Y-cur.Y
	v2x, v2y := next.X-cur.X, next.Y-cur.Y
	interior := math.Atan2(math.Abs(v1x*v2y-v1y*v2x), v1x*v2x+v1y*v2y)
	return math.Pi - interior
}

// SimplifyToQuad reduces a polygon to its 4 sharpest corners, keeping their
// original order. Polygons with 4 points are returned unchanged and polygons
// with fewer cannot form a quad and are returned as is.
func SimplifyToQuad(pts []Point) []Point {
	if len(pts) <= 4 {
		return append([]Point(nil), pts...)
	}
	idx := make([]int, len(pts))
	turns := make([]float64, len(pts))
	for i := range pts {
		idx[i] = i
		turns[i] = TurnAngle(pts, i)
	}
	sort.SliceStable(idx, func(a, b int) bool { return turns[idx[a]] > turns[idx[b]] })
	best := idx[:4]
	sort.Ints(best)
	out := make([]Point, 4)
	for i, k := range best {
		out[i] = pts[k]
	}
	return out
}

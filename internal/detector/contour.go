package detector

import (
	"github.com/MeKo-Tech/docscan/internal/mempool"
	"github.com/MeKo-Tech/docscan/internal/utils"
)

// Contour is the point set of one connected edge component in flood fill
// discovery order.
type Contour []utils.Point

// TraceContours scans the mask in raster order and flood fills every
// unvisited edge pixel over its 8-connected edge neighbours (FIFO order).
// A fill stops once maxPoints points are collected; components shorter than
// minPoints are dropped.
func TraceContours(m Mask, minPoints, maxPoints int) []Contour {
	visited := mempool.GetBool(len(m.Pix))
	defer mempool.PutBool(visited)
	var contours []Contour
	for y := range m.Height {
		for x := range m.Width {
			i := y*m.Width + x
			if !m.Pix[i] || visited[i] {
				continue
			}
			c := floodFill(m, visited, x, y, maxPoints)
			if len(c) >= minPoints {
				contours = append(contours, c)
			}
		}
	}
	return contours
}

// floodFill marks pixels visited as they are queued and stops queueing at
// maxPoints, so every queued pixel ends up in the contour. Pixels left
// unqueued stay unvisited and may seed a later contour.
func floodFill(m Mask, visited []bool, sx, sy, maxPoints int) Contour {
	start := sy*m.Width + sx
	visited[start] = true
	queue := make([]int, 1, min(maxPoints, 64))
	queue[0] = start

	contour := make(Contour, 0, cap(queue))
	for head := 0; head < len(queue); head++ {
		i := queue[head]
		x, y := i%m.Width, i/m.Width
		contour = append(contour, utils.Point{X: float64(x), Y: float64(y)})

		for dy := -1; dy <= 1 && len(queue) < maxPoints; dy++ {
			for dx := -1; dx <= 1 && len(queue) < maxPoints; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= m.Width || ny >= m.Height {
					continue
				}
				n := ny*m.Width + nx
				if m.Pix[n] && !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
	}
	return contour
}

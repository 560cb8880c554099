package geometry

import (
	"image"
	"math"
)

// arcLength is the perimeter of the closed polyline through pts.
func arcLength(pts []image.Point) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var total float64
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		total += math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
	}
	return total
}

// lineDistance is the distance from p to the line through a and b, or to a
// when the two coincide.
func lineDistance(p, a, b image.Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	px, py := float64(p.X-a.X), float64(p.Y-a.Y)
	l := math.Hypot(dx, dy)
	if l == 0 {
		return math.Hypot(px, py)
	}
	return math.Abs(dx*py-dy*px) / l
}

// approxPolygon simplifies a closed contour with Douglas-Peucker. The curve is
// split at the vertex farthest from the first point and each half is
// simplified independently, then vertices within epsilon of the line through
// their neighbours are dropped.
func approxPolygon(pts []image.Point, epsilon float64) []image.Point {
	n := len(pts)
	if n <= 2 {
		out := make([]image.Point, n)
		copy(out, pts)
		return out
	}

	far, farDist := 0, -1.0
	for i := 1; i < n; i++ {
		d := math.Hypot(float64(pts[i].X-pts[0].X), float64(pts[i].Y-pts[0].Y))
		if d > farDist {
			far, farDist = i, d
		}
	}

	closed := make([]image.Point, n+1)
	copy(closed, pts)
	closed[n] = pts[0]

	keep := make([]bool, n+1)
	keep[0], keep[far], keep[n] = true, true, true
	simplify(closed, 0, far, epsilon, keep)
	simplify(closed, far, n, epsilon, keep)

	out := make([]image.Point, 0, 8)
	for i := 0; i < n; i++ {
		if keep[i] {
			out = append(out, closed[i])
		}
	}
	return pruneCollinear(out, epsilon)
}

func simplify(pts []image.Point, first, last int, epsilon float64, keep []bool) {
	if last-first < 2 {
		return
	}
	idx, maxDist := -1, -1.0
	for i := first + 1; i < last; i++ {
		d := lineDistance(pts[i], pts[first], pts[last])
		if d > maxDist {
			idx, maxDist = i, d
		}
	}
	if maxDist <= epsilon {
		return
	}
	keep[idx] = true
	simplify(pts, first, idx, epsilon, keep)
	simplify(pts, idx, last, epsilon, keep)
}

func pruneCollinear(poly []image.Point, epsilon float64) []image.Point {
	for len(poly) > 3 {
		removed := false
		for i := 0; i < len(poly) && len(poly) > 3; i++ {
			n := len(poly)
			prev, next := poly[(i+n-1)%n], poly[(i+1)%n]
			if lineDistance(poly[i], prev, next) <= epsilon {
				poly = append(poly[:i], poly[i+1:]...)
				removed = true
				i--
			}
		}
		if !removed {
			break
		}
	}
	return poly
}

// boundingBox returns the inclusive pixel extent of pts.
func boundingBox(pts []image.Point) (x, y, w, h int) {
	if len(pts) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return minX, minY, maxX - minX + 1, maxY - minY + 1
}

package geometry

import "image"

// Eight neighbour offsets in clockwise order (y grows downward), starting east.
var ring = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

const dirWest = 4

func ringIndex(d image.Point) int {
	for i, p := range ring {
		if p == d {
			return i
		}
	}
	return -1
}

// externalContours returns the outer borders of every edge component that
// touches the background region connected to the image frame. Components
// sitting inside a hole of another component are skipped. Contours come out
// in raster order of each component's first pixel and are chain compressed.
func externalContours(e *edgeMap) [][]image.Point {
	if e.w == 0 || e.h == 0 {
		return nil
	}
	outside := outerBackground(e)

	label := make([]int32, e.w*e.h)
	var next int32
	var contours [][]image.Point
	queue := make([]int, 0, 256)

	for y := 0; y < e.h; y++ {
		for x := 0; x < e.w; x++ {
			i := y*e.w + x
			if e.pix[i] == 0 || label[i] != 0 {
				continue
			}
			next++
			label[i] = next
			queue = append(queue[:0], i)
			external := false
			for len(queue) > 0 {
				j := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				jx, jy := j%e.w, j/e.w
				if !external && touchesOutside(outside, e.w, e.h, jx, jy) {
					external = true
				}
				for _, d := range ring {
					nx, ny := jx+d.X, jy+d.Y
					if !e.at(nx, ny) {
						continue
					}
					k := ny*e.w + nx
					if label[k] == 0 {
						label[k] = next
						queue = append(queue, k)
					}
				}
			}
			if external {
				contours = append(contours, compressChain(traceBorder(e, image.Pt(x, y))))
			}
		}
	}
	return contours
}

// outerBackground floods non-edge pixels 4-connected to a one pixel frame
// around the image. The frame itself is implicit.
func outerBackground(e *edgeMap) []bool {
	outside := make([]bool, e.w*e.h)
	stack := make([]int, 0, 2*(e.w+e.h))
	push := func(x, y int) {
		if x < 0 || y < 0 || x >= e.w || y >= e.h {
			return
		}
		i := y*e.w + x
		if outside[i] || e.pix[i] != 0 {
			return
		}
		outside[i] = true
		stack = append(stack, i)
	}
	for x := 0; x < e.w; x++ {
		push(x, 0)
		push(x, e.h-1)
	}
	for y := 0; y < e.h; y++ {
		push(0, y)
		push(e.w-1, y)
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%e.w, i/e.w
		push(x+1, y)
		push(x-1, y)
		push(x, y+1)
		push(x, y-1)
	}
	return outside
}

func touchesOutside(outside []bool, w, h, x, y int) bool {
	if x == 0 || y == 0 || x == w-1 || y == h-1 {
		return true
	}
	return outside[y*w+x+1] || outside[y*w+x-1] || outside[(y+1)*w+x] || outside[(y-1)*w+x]
}

// traceBorder follows the outer border clockwise with Moore-neighbour tracing,
// starting at the component's top-left-most pixel. It stops when the start pixel
// is about to be left in the same direction as the first move.
func traceBorder(e *edgeMap, start image.Point) []image.Point {
	limit := 4*e.w*e.h + 8
	p := start
	back := dirWest
	var second image.Point
	started := false
	var pts []image.Point

	for len(pts) < limit {
		d := -1
		for i := 1; i <= 8; i++ {
			c := (back + i) % 8
			if e.at(p.X+ring[c].X, p.Y+ring[c].Y) {
				d = c
				break
			}
		}
		if d < 0 {
			return []image.Point{start}
		}
		q := p.Add(ring[d])
		if started && p == start && q == second {
			break
		}
		if !started {
			second = q
			started = true
		}
		pts = append(pts, p)

		prev := p.Add(ring[(d+7)%8])
		back = ringIndex(prev.Sub(q))
		p = q
	}
	return pts
}

// compressChain keeps only the points where the chain changes direction.
func compressChain(pts []image.Point) []image.Point {
	n := len(pts)
	if n < 3 {
		return pts
	}
	out := make([]image.Point, 0, n/4+4)
	for i := 0; i < n; i++ {
		prev := pts[(i+n-1)%n]
		cur := pts[i]
		next := pts[(i+1)%n]
		if cur.Sub(prev) != next.Sub(cur) {
			out = append(out, cur)
		}
	}
	if len(out) == 0 {
		return pts[:1]
	}
	return out
}

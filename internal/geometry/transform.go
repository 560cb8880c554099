package geometry

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

// OrderPoints assigns four points to corners by coordinate extrema:
// min(x+y) top-left, max(x+y) bottom-right, min(y-x) top-right and
// max(y-x) bottom-left. Ties resolve to the smaller (x, y), so the result
// does not depend on input order. A square rotated by 45 degrees ties on
// both keys and gets the same point as top-left and bottom-left; such a quad
// is rejected by the warp and the image passes through.
func OrderPoints(pts [4]models.Point) models.Quadrilateral {
	sum := func(p models.Point) float64 { return p.X + p.Y }
	diff := func(p models.Point) float64 { return p.Y - p.X }

	return models.Quadrilateral{
		TopLeft:     extreme(pts, sum, false),
		TopRight:    extreme(pts, diff, false),
		BottomRight: extreme(pts, sum, true),
		BottomLeft:  extreme(pts, diff, true),
	}
}

func extreme(pts [4]models.Point, key func(models.Point) float64, wantMax bool) models.Point {
	best := pts[0]
	for _, p := range pts[1:] {
		kp, kb := key(p), key(best)
		better := kp < kb
		if wantMax {
			better = kp > kb
		}
		if better || (kp == kb && lessPoint(p, best)) {
			best = p
		}
	}
	return best
}

func lessPoint(a, b models.Point) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// Homography is a 3x3 projective transform with h[8] fixed to 1.
type Homography [9]float64

// Apply maps p through the transform.
func (h Homography) Apply(p models.Point) models.Point {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		return models.Point{X: math.Inf(1), Y: math.Inf(1)}
	}
	return models.Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// PerspectiveTransform solves the 8x8 system mapping each src corner onto
// the matching dst corner.
func PerspectiveTransform(src, dst [4]models.Point) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return Homography{}, fmt.Errorf("degenerate quadrilateral: %w", err)
	}

	var h Homography
	for i := 0; i < 8; i++ {
		h[i] = sol.AtVec(i)
		if math.IsNaN(h[i]) || math.IsInf(h[i], 0) {
			return Homography{}, fmt.Errorf("degenerate quadrilateral")
		}
	}
	h[8] = 1
	return h, nil
}

// canonicalRect returns the corners of a w x h frame in TL, TR, BR, BL order.
func canonicalRect(w, h int) [4]models.Point {
	fw, fh := float64(w-1), float64(h-1)
	return [4]models.Point{{X: 0, Y: 0}, {X: fw, Y: 0}, {X: fw, Y: fh}, {X: 0, Y: fh}}
}

// warpPerspective renders the quad of src into a w x h image. Each output
// pixel is mapped back through the inverse transform and sampled bilinearly.
// Samples that land outside src are black.
func warpPerspective(src image.Image, quad models.Quadrilateral, w, h int) (*image.RGBA, error) {
	if hasDuplicateCorner(quad) {
		return nil, fmt.Errorf("degenerate quadrilateral: corners %v are not distinct", quad.Corners())
	}
	inverse, err := PerspectiveTransform(canonicalRect(w, h), quad.Corners())
	if err != nil {
		return nil, err
	}

	sb := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for v := 0; v < h; v++ {
		for u := 0; u < w; u++ {
			p := inverse.Apply(models.Point{X: float64(u), Y: float64(v)})
			out.SetRGBA(u, v, bilinear(src, sb, p.X, p.Y))
		}
	}
	return out, nil
}

func bilinear(src image.Image, b image.Rectangle, x, y float64) color.RGBA {
	if math.IsInf(x, 0) || math.IsNaN(x) || math.IsInf(y, 0) || math.IsNaN(y) {
		return color.RGBA{A: 0xff}
	}
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)

	var acc [4]float64
	for _, tap := range [4]struct {
		dx, dy int
		w      float64
	}{
		{0, 0, (1 - fx) * (1 - fy)},
		{1, 0, fx * (1 - fy)},
		{0, 1, (1 - fx) * fy},
		{1, 1, fx * fy},
	} {
		if tap.w == 0 {
			continue
		}
		px, py := b.Min.X+ix+tap.dx, b.Min.Y+iy+tap.dy
		if px < b.Min.X || py < b.Min.Y || px >= b.Max.X || py >= b.Max.Y {
			acc[3] += tap.w * 0xffff
			continue
		}
		r, g, bl, a := src.At(px, py).RGBA()
		acc[0] += tap.w * float64(r)
		acc[1] += tap.w * float64(g)
		acc[2] += tap.w * float64(bl)
		acc[3] += tap.w * float64(a)
	}
	return color.RGBA{
		R: uint8(math.Round(acc[0]) / 257),
		G: uint8(math.Round(acc[1]) / 257),
		B: uint8(math.Round(acc[2]) / 257),
		A: uint8(math.Round(acc[3]) / 257),
	}
}

func hasDuplicateCorner(q models.Quadrilateral) bool {
	c := q.Corners()
	for i := 0; i < len(c); i++ {
		for j := i + 1; j < len(c); j++ {
			if c[i] == c[j] {
				return true
			}
		}
	}
	return false
}

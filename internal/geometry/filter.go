package geometry

import (
	"image"
	"image/draw"
	"math"
)

// toGray converts any image to an 8-bit grayscale buffer anchored at (0,0).
func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}

// gaussianKernel5 is the fixed 5-tap kernel for a 5x5 blur with derived sigma (1.1).
var gaussianKernel5 = [5]float64{1.0 / 16, 4.0 / 16, 6.0 / 16, 4.0 / 16, 1.0 / 16}

// reflect101 maps an out-of-range index back into [0,n) mirroring around the
// edge pixel without repeating it (dcb|abcd|cba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*n - 2 - i
		}
	}
	return i
}

// gaussianBlur applies the separable 5x5 kernel with reflect-101 borders.
func gaussianBlur(gray *image.Gray) *image.Gray {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			var acc float64
			for k := -2; k <= 2; k++ {
				acc += gaussianKernel5[k+2] * float64(row[reflect101(x+k, w)])
			}
			tmp[y*w+x] = acc
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k := -2; k <= 2; k++ {
				acc += gaussianKernel5[k+2] * tmp[reflect101(y+k, h)*w+x]
			}
			out.Pix[y*out.Stride+x] = clampUint8(acc)
		}
	}
	return out
}

func clampUint8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// grayAt reads with replicated borders.
func grayAt(gray *image.Gray, x, y int) int {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	if x < 0 {
		x = 0
	} else if x >= w {
		x = w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= h {
		y = h - 1
	}
	return int(gray.Pix[y*gray.Stride+x])
}

// sobelX computes the horizontal 3x3 Sobel gradient at (x, y)
func sobelX(gray *image.Gray, x, y int) int {
	return -1*grayAt(gray, x-1, y-1) + 1*grayAt(gray, x+1, y-1) +
		-2*grayAt(gray, x-1, y) + 2*grayAt(gray, x+1, y) +
		-1*grayAt(gray, x-1, y+1) + 1*grayAt(gray, x+1, y+1)
}

// sobelY computes the vertical 3x3 Sobel gradient at (x, y)
func sobelY(gray *image.Gray, x, y int) int {
	return -1*grayAt(gray, x-1, y-1) - 2*grayAt(gray, x, y-1) - 1*grayAt(gray, x+1, y-1) +
		1*grayAt(gray, x-1, y+1) + 2*grayAt(gray, x, y+1) + 1*grayAt(gray, x+1, y+1)
}

// edgeMap is a binary edge image; non-zero entries are edge pixels.
type edgeMap struct {
	w, h int
	pix  []uint8
}

func (e *edgeMap) at(x, y int) bool {
	if x < 0 || y < 0 || x >= e.w || y >= e.h {
		return false
	}
	return e.pix[y*e.w+x] != 0
}

// tan(22.5°) and tan(67.5°) used to bucket the gradient angle.
const (
	tan22 = 0.41421356237309503
	tan67 = 2.414213562373095
)

const (
	cannyNone uint8 = iota
	cannyWeak
	cannyStrong
)

// canny runs Sobel gradients, non-maximum suppression and hysteresis on a
// smoothed grayscale image. Pixels with magnitude above high seed edges, those
// above low extend them through 8-connectivity.
func canny(gray *image.Gray, low, high float64) *edgeMap {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	if low > high {
		low, high = high, low
	}

	mag := make([]float64, w*h)
	gxs := make([]int, w*h)
	gys := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := sobelX(gray, x, y)
			gy := sobelY(gray, x, y)
			i := y*w + x
			gxs[i], gys[i] = gx, gy
			mag[i] = math.Abs(float64(gx)) + math.Abs(float64(gy))
		}
	}

	magAt := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	class := make([]uint8, w*h)
	stack := make([]int, 0, 1024)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}
			ax := math.Abs(float64(gxs[i]))
			ay := math.Abs(float64(gys[i]))

			var keep bool
			switch {
			case ay < ax*tan22:
				keep = m > magAt(x-1, y) && m >= magAt(x+1, y)
			case ay > ax*tan67:
				keep = m > magAt(x, y-1) && m >= magAt(x, y+1)
			default:
				s := 1
				if (gxs[i] < 0) != (gys[i] < 0) {
					s = -1
				}
				keep = m > magAt(x-s, y-1) && m > magAt(x+s, y+1)
			}
			if !keep {
				continue
			}
			if m > high {
				class[i] = cannyStrong
				stack = append(stack, i)
			} else {
				class[i] = cannyWeak
			}
		}
	}

	edges := &edgeMap{w: w, h: h, pix: make([]uint8, w*h)}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if edges.pix[i] != 0 {
			continue
		}
		edges.pix[i] = 255
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if class[j] != cannyNone && edges.pix[j] == 0 {
					stack = append(stack, j)
				}
			}
		}
	}
	return edges
}

package geometry

import (
	"image"

	"gonum.org/v1/gonum/stat"
)

// DefaultBlurThreshold is the Laplacian variance under which an output frame
// is reported as blurry.
const DefaultBlurThreshold = 100.0

// Sharpness returns the variance of the 4-neighbour Laplacian of img.
// Images smaller than 3x3 report 0.
func Sharpness(img image.Image) float64 {
	return laplacianVariance(toGray(img))
}

func laplacianVariance(gray *image.Gray) float64 {
	width, height := gray.Rect.Dx(), gray.Rect.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	data := make([]float64, 0, (width-2)*(height-2))
	// Laplacian kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)

			data = append(data, -4*center+top+bottom+left+right)
		}
	}
	return stat.Variance(data, nil)
}

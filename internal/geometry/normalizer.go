// Package geometry finds the display panel in a photo and rectifies it to a
// frontal view.
package geometry

import (
	"context"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

// approxFraction is the share of the contour perimeter used as the polygon
// approximation tolerance.
const approxFraction = 0.1

// Result is the outcome of one normalization call.
type Result struct {
	Image     image.Image
	Rectified bool
	Quad      *models.Quadrilateral
	Sharpness float64
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(n *Normalizer) { n.log = logger.OrDefault(l) }
}

// WithDebugSink persists every chosen output under the source name.
func WithDebugSink(s DebugSink) Option {
	return func(n *Normalizer) { n.debug = s }
}

// WithBlurThreshold overrides DefaultBlurThreshold.
func WithBlurThreshold(v float64) Option {
	return func(n *Normalizer) { n.blurThreshold = v }
}

// Normalizer detects a panel quadrilateral and warps it to an axis-aligned frame.
type Normalizer struct {
	log           logrus.FieldLogger
	debug         DebugSink
	blurThreshold float64
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		log:           logger.Logger,
		blurThreshold: DefaultBlurThreshold,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize rectifies the first 4-vertex contour whose bounding box matches
// the profile. When none matches, img itself is returned untouched.
func (n *Normalizer) Normalize(img image.Image, profile models.DisplayProfile) Result {
	if img == nil {
		return Result{}
	}
	if err := profile.Validate(); err != nil {
		n.log.WithError(err).Warn("Invalid display profile, passing image through")
		return Result{Image: img}
	}

	quad, w, h, ok := n.detect(img, profile)
	if !ok {
		return Result{Image: img, Sharpness: Sharpness(img)}
	}

	warped, err := warpPerspective(img, quad, w, h)
	if err != nil {
		n.log.WithError(err).Warn("Perspective transform failed, passing image through")
		return Result{Image: img, Sharpness: Sharpness(img)}
	}
	return Result{
		Image:     warped,
		Rectified: true,
		Quad:      &quad,
		Sharpness: Sharpness(warped),
	}
}

// NormalizeSource runs Normalize and stores the chosen output in the debug
// sink as <name>_processed or <name>_original. Sink errors are only logged.
func (n *Normalizer) NormalizeSource(ctx context.Context, name string, img image.Image, profile models.DisplayProfile) Result {
	res := n.Normalize(img, profile)
	if res.Image == nil {
		return res
	}

	fields := logrus.Fields{
		"source":    name,
		"rectified": res.Rectified,
		"width":     res.Image.Bounds().Dx(),
		"height":    res.Image.Bounds().Dy(),
		"sharpness": res.Sharpness,
	}
	n.log.WithFields(fields).Info("Image normalized")
	if res.Sharpness < n.blurThreshold {
		n.log.WithFields(fields).Warn("Normalized image looks blurry")
	}

	if n.debug != nil {
		key := name + "_original"
		if res.Rectified {
			key = name + "_processed"
		}
		if err := n.debug.Save(ctx, key, res.Image); err != nil {
			n.log.WithError(err).WithField("source", name).Warn("Failed to save debug image")
		}
	}
	return res
}

func (n *Normalizer) detect(img image.Image, profile models.DisplayProfile) (models.Quadrilateral, int, int, bool) {
	gray := gaussianBlur(toGray(img))
	edges := canny(gray, profile.MinThresh, profile.MaxThresh)

	wMin, wMax := profile.WidthRange()
	hMin, hMax := profile.HeightRange()

	for _, contour := range externalContours(edges) {
		poly := approxPolygon(contour, approxFraction*arcLength(contour))
		if len(poly) != 4 {
			continue
		}
		_, _, w, h := boundingBox(poly)
		fw, fh := float64(w), float64(h)
		if !(wMin < fw && fw < wMax && hMin < fh && fh < hMax) {
			continue
		}

		// Points are relative to img.Bounds().Min; the warp adds the offset back.
		var pts [4]models.Point
		for i, p := range poly {
			pts[i] = models.Point{X: float64(p.X), Y: float64(p.Y)}
		}
		n.log.WithFields(logrus.Fields{"width": w, "height": h}).Debug("Panel quadrilateral found")
		return OrderPoints(pts), w, h, true
	}
	return models.Quadrilateral{}, 0, 0, false
}

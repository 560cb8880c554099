package models

import "fmt"

// DisplayProfile describes where to look for a panel in a photo of one system.
type DisplayProfile struct {
	MinThresh    float64 `json:"min_thresh"`
	MaxThresh    float64 `json:"max_thresh"`
	WidthDef     float64 `json:"width_def"`
	HeightDef    float64 `json:"height_def"`
	DimTolerance float64 `json:"dim_tolerance"`
}

// Validate checks the profile invariants.
func (p DisplayProfile) Validate() error {
	if p.WidthDef <= 0 || p.HeightDef <= 0 {
		return fmt.Errorf("width_def and height_def must be positive (got %vx%v)", p.WidthDef, p.HeightDef)
	}
	if p.DimTolerance < 0 || p.DimTolerance >= 1 {
		return fmt.Errorf("dim_tolerance must be in [0,1) (got %v)", p.DimTolerance)
	}
	if p.MinThresh < 0 || p.MaxThresh < p.MinThresh {
		return fmt.Errorf("thresholds must satisfy 0 <= min_thresh <= max_thresh (got %v, %v)", p.MinThresh, p.MaxThresh)
	}
	return nil
}

// WidthRange returns the open interval of accepted panel widths.
func (p DisplayProfile) WidthRange() (float64, float64) {
	return p.WidthDef * (1 - p.DimTolerance), p.WidthDef * (1 + p.DimTolerance)
}

// HeightRange returns the open interval of accepted panel heights.
func (p DisplayProfile) HeightRange() (float64, float64) {
	return p.HeightDef * (1 - p.DimTolerance), p.HeightDef * (1 + p.DimTolerance)
}

// Point is a 2-D coordinate in image space.
type Point struct {
	X, Y float64
}

// Quadrilateral holds four corners ordered clockwise from the top left.
type Quadrilateral struct {
	TopLeft     Point `json:"top_left"`
	TopRight    Point `json:"top_right"`
	BottomRight Point `json:"bottom_right"`
	BottomLeft  Point `json:"bottom_left"`
}

// Corners returns the corners as TL, TR, BR, BL.
func (q Quadrilateral) Corners() [4]Point {
	return [4]Point{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
}

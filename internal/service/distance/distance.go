// Package distance turns a bounding box width into a rough distance using a
// single-reference pinhole approximation. It is not a calibrated measurement.
package distance

import (
	"math"
	"strconv"
)

const (
	// FocalLength is the assumed camera focal length in pixels.
	FocalLength = 700
	// ReferenceWidth is the assumed real-world object width in meters, used for every class.
	ReferenceWidth = 0.5
)

// Estimator computes distance ≈ ReferenceWidth * FocalLength / pixelWidth.
type Estimator struct {
	FocalLength    float64
	ReferenceWidth float64
}

// Default uses the hardcoded focal length and reference width.
var Default = Estimator{FocalLength: FocalLength, ReferenceWidth: ReferenceWidth}

// Estimate returns the distance in meters rounded to two decimals, or 0 when
// the width is not positive.
func (e Estimator) Estimate(pixelWidth int) float64 {
	if pixelWidth <= 0 {
		return 0
	}
	return round2(e.ReferenceWidth * e.FocalLength / float64(pixelWidth))
}

// round2 rounds the exact binary value of v to two decimals, breaking exact
// ties to even. Scaling by 100 first would turn 0.17499999... into 17.5.
func round2(v float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}

// Estimate uses Default.
func Estimate(pixelWidth int) float64 {
	return Default.Estimate(pixelWidth)
}

// Format renders a distance for the status text: whole values keep one
// decimal ("7.0"), others use the shortest form ("0.58"), and the degenerate
// zero is printed bare ("0").
func Format(meters float64) string {
	if meters == 0 {
		return "0"
	}
	if meters == math.Trunc(meters) {
		return strconv.FormatFloat(meters, 'f', 1, 64)
	}
	return strconv.FormatFloat(meters, 'f', -1, 64)
}

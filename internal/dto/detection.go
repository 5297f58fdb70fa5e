package dto

import "image"

// Detection is one object reported by the detector for a single frame.
// Box spans (x1,y1)-(x2,y2) in pixel coordinates.
type Detection struct {
	Label      string
	Confidence float64
	Box        image.Rectangle
}

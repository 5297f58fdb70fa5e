package cv

import (
	"fmt"
	"image"
	"image/color"
	"visionserver/internal/service/pipeline"

	"gocv.io/x/gocv"
)

// Overlay draws boxes and labels onto frames in place.
type Overlay struct {
	Color     color.RGBA
	Thickness int
	FontScale float64
}

// NewOverlay returns the green, thickness 2 style used for every detection.
func NewOverlay() Overlay {
	return Overlay{
		Color:     color.RGBA{R: 0, G: 255, B: 0, A: 0},
		Thickness: 2,
		FontScale: 0.6,
	}
}

func (o Overlay) Rectangle(frame pipeline.Frame, box image.Rectangle) error {
	mat, err := matOf(frame)
	if err != nil {
		return err
	}
	if err := gocv.Rectangle(mat, box, o.Color, o.Thickness); err != nil {
		return fmt.Errorf("failed to draw rectangle: %w", err)
	}
	return nil
}

func (o Overlay) Text(frame pipeline.Frame, text string, origin image.Point) error {
	mat, err := matOf(frame)
	if err != nil {
		return err
	}
	if err := gocv.PutText(mat, text, origin, gocv.FontHersheySimplex, o.FontScale, o.Color, o.Thickness); err != nil {
		return fmt.Errorf("failed to draw text: %w", err)
	}
	return nil
}

package cv

import (
	"fmt"
	"visionserver/internal/service/pipeline"

	"gocv.io/x/gocv"
)

// Frame carries a BGR image read from the camera.
type Frame struct {
	Mat gocv.Mat
}

func (f *Frame) Close() error {
	return f.Mat.Close()
}

// matOf unwraps a pipeline frame produced by this package.
func matOf(frame pipeline.Frame) (*gocv.Mat, error) {
	f, ok := frame.(*Frame)
	if !ok {
		return nil, fmt.Errorf("unsupported frame type %T", frame)
	}
	if f.Mat.Empty() {
		return nil, fmt.Errorf("frame is empty")
	}
	return &f.Mat, nil
}

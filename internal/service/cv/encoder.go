package cv

import (
	"fmt"
	"visionserver/internal/service/pipeline"

	"gocv.io/x/gocv"
)

// Encoder compresses frames to JPEG.
type Encoder struct {
	Quality int
}

func NewEncoder(quality int) Encoder {
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	return Encoder{Quality: quality}
}

// Encode returns a copy of the JPEG bytes; the native buffer is released before returning.
func (e Encoder) Encode(frame pipeline.Frame) ([]byte, error) {
	mat, err := matOf(frame)
	if err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *mat, []int{int(gocv.IMWriteJpegQuality), e.Quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	encoded := make([]byte, buf.Len())
	copy(encoded, buf.GetBytes())
	return encoded, nil
}

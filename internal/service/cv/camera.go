package cv

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"visionserver/internal/logger"
	"visionserver/internal/service/pipeline"

	"gocv.io/x/gocv"
)

// Camera reads frames from a local device or a stream URL.
type Camera struct {
	device  string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	logger  *logger.Logger
}

// OpenCamera opens the capture device. Numeric devices ("0") are treated as
// device indexes, anything else as a file path or URL.
func OpenCamera(device string, logger *logger.Logger) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(parseDevice(device))
	if err != nil {
		return nil, fmt.Errorf("error opening video capture device %s: %w", device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video capture device %s is not available", device)
	}

	logger.Info("Camera %s opened", device)
	return &Camera{
		device:  device,
		capture: capture,
		logger:  logger,
	}, nil
}

func parseDevice(device string) interface{} {
	if id, err := strconv.Atoi(device); err == nil {
		return id
	}
	return device
}

// Next reads one frame. A failed read or an empty frame ends the stream with io.EOF.
func (c *Camera) Next() (pipeline.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, io.EOF
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		c.logger.Warning("Camera %s returned no frame", c.device)
		return nil, io.EOF
	}
	return &Frame{Mat: mat}, nil
}

// Close releases the capture device. It is safe to call more than once.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	c.logger.Info("Camera %s released", c.device)
	return err
}

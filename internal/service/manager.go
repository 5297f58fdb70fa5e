package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"visionserver/internal/logger"
	"visionserver/internal/service/pipeline"
	"visionserver/internal/service/status"

	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"
)

// ErrCameraBusy is returned when another viewer is already reading the camera.
var ErrCameraBusy = errors.New("camera is busy")

// SourceOpener opens the camera for one stream.
type SourceOpener func() (pipeline.Source, error)

// Manager owns the camera and hands out one pipeline at a time.
type Manager struct {
	openSource SourceOpener
	detector   pipeline.Detector
	overlay    pipeline.Overlay
	encoder    pipeline.Encoder
	status     *status.Status
	options    []pipeline.Option
	logger     *logger.Logger

	camera  *semaphore.Weighted
	streams atomic.Int64 // Streams opened since start
}

func NewManager(openSource SourceOpener, detector pipeline.Detector, overlay pipeline.Overlay, encoder pipeline.Encoder,
	st *status.Status, logger *logger.Logger, options ...pipeline.Option) *Manager {
	manager := &Manager{
		openSource: openSource,
		detector:   detector,
		overlay:    overlay,
		encoder:    encoder,
		status:     st,
		options:    append([]pipeline.Option{pipeline.WithLogger(logger)}, options...),
		logger:     logger,
		camera:     semaphore.NewWeighted(1),
	}

	manager.logger.Info("Manager started")
	return manager
}

// Stream is one viewer's pipeline. Close releases the camera for the next viewer.
type Stream struct {
	*pipeline.Pipeline
	id      int64
	release func()
	once    sync.Once
}

func (s *Stream) ID() int64 {
	return s.id
}

func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		err = s.Pipeline.Close()
		s.release()
	})
	return err
}

// OpenStream claims the camera without waiting. It fails with ErrCameraBusy
// while another stream is open.
func (m *Manager) OpenStream() (*Stream, error) {
	if !m.camera.TryAcquire(1) {
		return nil, ErrCameraBusy
	}

	source, err := m.openSource()
	if err != nil {
		m.camera.Release(1)
		return nil, fmt.Errorf("failed to open camera: %w", err)
	}

	id := m.streams.Add(1)
	m.logger.Info("Stream %d opened", id)

	stream := &Stream{
		Pipeline: pipeline.New(source, m.detector, m.overlay, m.encoder, m.status, m.options...),
		id:       id,
	}
	stream.release = func() {
		m.logger.Info("Stream %d closed after %d frames", id, stream.Frames())
		m.camera.Release(1)
	}
	return stream, nil
}

func (m *Manager) GetStatus() *status.Status {
	return m.status
}

// Close waits for the active stream to finish (or ctx to expire) and then
// releases the detector and encoder if they hold resources.
func (m *Manager) Close(ctx context.Context) error {
	var err error
	if acquireErr := m.camera.Acquire(ctx, 1); acquireErr != nil {
		err = multierr.Append(err, fmt.Errorf("active stream did not finish: %w", acquireErr))
	} else {
		defer m.camera.Release(1)
	}

	for _, resource := range []interface{}{m.detector, m.overlay, m.encoder} {
		if closer, ok := resource.(io.Closer); ok {
			err = multierr.Append(err, closer.Close())
		}
	}

	m.logger.Info("Manager stopped")
	return err
}

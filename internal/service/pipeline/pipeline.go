// Package pipeline turns camera frames into annotated multipart JPEG chunks
// and feeds qualifying detections into the shared status text.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"io"
	"iter"
	"visionserver/internal/dto"
	"visionserver/internal/logger"
	"visionserver/internal/service/distance"
	"visionserver/internal/service/status"

	"github.com/benbjohnson/clock"
)

const (
	// DefaultConfidenceThreshold is inclusive: 0.6 passes, 0.5999 does not.
	DefaultConfidenceThreshold = 0.6
	// labelOffset lifts the label above the top-left corner of its box.
	labelOffset = 10
)

var (
	ErrDetection = errors.New("detection failed")
	ErrEncoding  = errors.New("encoding failed")
	ErrDrawing   = errors.New("drawing failed")
)

// Frame is an opaque camera frame. It is closed once its chunk is produced.
type Frame interface {
	Close() error
}

// Source yields frames until it returns an error; io.EOF marks a clean end.
type Source interface {
	Next() (Frame, error)
	Close() error
}

// Detector returns the detections for a frame in model order.
type Detector interface {
	Detect(frame Frame) ([]dto.Detection, error)
}

// Overlay draws onto a frame in place.
type Overlay interface {
	Rectangle(frame Frame, box image.Rectangle) error
	Text(frame Frame, text string, origin image.Point) error
}

// Encoder compresses a frame to JPEG.
type Encoder interface {
	Encode(frame Frame) ([]byte, error)
}

// Pipeline is a pull-based iterator over annotated frames. It is not safe for
// concurrent use; one viewer drives one pipeline.
type Pipeline struct {
	source    Source
	detector  Detector
	overlay   Overlay
	encoder   Encoder
	status    *status.Status
	estimator distance.Estimator
	threshold float64
	clock     clock.Clock
	logger    *logger.Logger

	frames int
	done   bool
}

type Option func(*Pipeline)

// WithClock replaces the wall clock used to time status updates.
func WithClock(c clock.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithConfidenceThreshold changes the minimum confidence a detection needs.
func WithConfidenceThreshold(threshold float64) Option {
	return func(p *Pipeline) { p.threshold = threshold }
}

func WithEstimator(e distance.Estimator) Option {
	return func(p *Pipeline) { p.estimator = e }
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New builds a pipeline. Defaults: real clock, threshold 0.6, distance.Default.
func New(source Source, detector Detector, overlay Overlay, encoder Encoder, st *status.Status, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:    source,
		detector:  detector,
		overlay:   overlay,
		encoder:   encoder,
		status:    st,
		estimator: distance.Default,
		threshold: DefaultConfidenceThreshold,
		clock:     clock.New(),
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Next produces the chunk for the next camera frame. It returns io.EOF once the
// source is exhausted or fails. Detection, drawing and encoding failures are
// returned once and end the sequence; every later call returns io.EOF.
func (p *Pipeline) Next() ([]byte, error) {
	if p.done {
		return nil, io.EOF
	}

	frame, err := p.source.Next()
	if err != nil {
		p.done = true
		if !errors.Is(err, io.EOF) {
			p.logger.Warning("Frame acquisition failed after %d frames: %v", p.frames, err)
		}
		return nil, io.EOF
	}
	defer frame.Close()

	jpeg, err := p.process(frame)
	if err != nil {
		p.done = true
		return nil, err
	}

	p.frames++
	return Chunk(jpeg), nil
}

// Chunks ranges over Next until the sequence ends. A terminal error other than
// io.EOF is yielded as the last element.
func (p *Pipeline) Chunks() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			chunk, err := p.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}

// Frames returns how many chunks were produced so far.
func (p *Pipeline) Frames() int {
	return p.frames
}

// Close releases the frame source.
func (p *Pipeline) Close() error {
	p.done = true
	return p.source.Close()
}

func (p *Pipeline) process(frame Frame) ([]byte, error) {
	detections, err := p.detector.Detect(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetection, err)
	}

	now := p.clock.Now()

	for _, detection := range detections {
		if detection.Confidence < p.threshold {
			continue
		}

		box := detection.Box
		meters := p.estimator.Estimate(box.Max.X - box.Min.X)

		text := fmt.Sprintf("%s detected - %s meters", detection.Label, distance.Format(meters))
		if p.status.Offer(text, now) {
			p.logger.Info("Status updated: %s", text)
		}

		if err := p.overlay.Rectangle(frame, box); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDrawing, err)
		}
		origin := image.Pt(box.Min.X, box.Min.Y-labelOffset)
		if err := p.overlay.Text(frame, detection.Label, origin); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDrawing, err)
		}
	}

	jpeg, err := p.encoder.Encode(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return jpeg, nil
}

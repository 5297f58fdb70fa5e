// Package status holds the latest detection summary shared between the frame
// pipeline (single writer) and the HTTP handlers (readers).
package status

import (
	"sync"
	"time"
	"visionserver/internal/dto"
)

const (
	// Placeholder is served until the first qualifying detection.
	Placeholder = "Waiting for detection..."
	// DefaultInterval is the minimum time between two accepted updates.
	DefaultInterval = 1500 * time.Millisecond

	subscriberBuffer = 8
)

// Status is a synchronized text cell updated at most once per interval.
type Status struct {
	mu          sync.RWMutex
	text        string
	updated     time.Time
	interval    time.Duration
	subscribers map[chan dto.StatusSnapshot]struct{}
}

// New creates a Status holding the placeholder. A non-positive interval
// falls back to DefaultInterval.
func New(interval time.Duration) *Status {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Status{
		text:        Placeholder,
		interval:    interval,
		subscribers: make(map[chan dto.StatusSnapshot]struct{}),
	}
}

// Offer replaces the text if at least one interval has passed since the last
// accepted update (or nothing was accepted yet) and reports whether it did.
// Within one window only the first offer wins.
func (s *Status) Offer(text string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.updated.IsZero() && now.Sub(s.updated) < s.interval {
		return false
	}
	s.text = text
	s.updated = now

	snapshot := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Subscriber is behind; it catches up on the next update.
		}
	}
	return true
}

// Text returns the current status text.
func (s *Status) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

// Snapshot returns text, last update time and whether anything was reported yet.
func (s *Status) Snapshot() dto.StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Status) snapshotLocked() dto.StatusSnapshot {
	return dto.StatusSnapshot{
		Text:      s.text,
		UpdatedAt: s.updated,
		Reporting: !s.updated.IsZero(),
	}
}

// Subscribe returns a channel receiving every accepted update and a function
// that cancels the subscription. Slow receivers miss updates instead of
// blocking the writer.
func (s *Status) Subscribe() (<-chan dto.StatusSnapshot, func()) {
	ch := make(chan dto.StatusSnapshot, subscriberBuffer)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

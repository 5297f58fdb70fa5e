package status

import (
	"testing"
	"time"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestStatus_Placeholder(t *testing.T) {
	s := New(0)

	if s.Text() != Placeholder {
		t.Errorf("Expected placeholder, got %q", s.Text())
	}
	snap := s.Snapshot()
	if snap.Reporting {
		t.Error("Expected placeholder state")
	}
	if !snap.UpdatedAt.IsZero() {
		t.Errorf("Expected zero update time, got %v", snap.UpdatedAt)
	}
}

func TestStatus_FirstOfferAlwaysAccepted(t *testing.T) {
	s := New(DefaultInterval)

	if !s.Offer("cup detected - 7.0 meters", base) {
		t.Fatal("Expected first offer to be accepted")
	}
	snap := s.Snapshot()
	if snap.Text != "cup detected - 7.0 meters" || !snap.Reporting || !snap.UpdatedAt.Equal(base) {
		t.Errorf("Unexpected snapshot %+v", snap)
	}
}

func TestStatus_ThrottleWindow(t *testing.T) {
	tests := []struct {
		name     string
		elapsed  time.Duration
		accepted bool
	}{
		{"same instant", 0, false},
		{"1.4 seconds", 1400 * time.Millisecond, false},
		{"just under", 1500*time.Millisecond - time.Nanosecond, false},
		{"exactly 1.5 seconds", 1500 * time.Millisecond, true},
		{"later", 3 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(DefaultInterval)
			s.Offer("first", base)

			if got := s.Offer("second", base.Add(tt.elapsed)); got != tt.accepted {
				t.Errorf("Offer after %v = %v, expected %v", tt.elapsed, got, tt.accepted)
			}
			expected := "first"
			if tt.accepted {
				expected = "second"
			}
			if s.Text() != expected {
				t.Errorf("Expected %q, got %q", expected, s.Text())
			}
		})
	}
}

func TestStatus_FirstInWindowWins(t *testing.T) {
	s := New(DefaultInterval)
	s.Offer("old", base)

	now := base.Add(2 * time.Second)
	if !s.Offer("first", now) {
		t.Fatal("Expected first offer in the new window to win")
	}
	if s.Offer("second", now) {
		t.Fatal("Expected second offer with the same timestamp to be suppressed")
	}
	if s.Text() != "first" {
		t.Errorf("Expected first, got %q", s.Text())
	}
}

func TestStatus_WindowMeasuredFromLastAcceptedUpdate(t *testing.T) {
	s := New(DefaultInterval)
	s.Offer("a", base)
	s.Offer("b", base.Add(time.Second)) // suppressed, does not move the window

	if !s.Offer("c", base.Add(1500*time.Millisecond)) {
		t.Error("Expected window to be measured from the last accepted update")
	}
}

func TestStatus_Subscribe(t *testing.T) {
	s := New(DefaultInterval)
	updates, cancel := s.Subscribe()
	defer cancel()

	s.Offer("person detected - 2.5 meters", base)
	s.Offer("suppressed", base.Add(time.Second))

	select {
	case snap := <-updates:
		if snap.Text != "person detected - 2.5 meters" {
			t.Errorf("Unexpected update %q", snap.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected an update")
	}

	select {
	case snap := <-updates:
		t.Errorf("Did not expect suppressed update, got %q", snap.Text)
	default:
	}
}

func TestStatus_CancelClosesChannel(t *testing.T) {
	s := New(DefaultInterval)
	updates, cancel := s.Subscribe()

	cancel()
	cancel()

	if _, ok := <-updates; ok {
		t.Error("Expected closed channel")
	}
	// Offering after cancel must not panic on the closed channel.
	s.Offer("after cancel", base)
}

func TestStatus_SlowSubscriberDoesNotBlock(t *testing.T) {
	s := New(time.Nanosecond)
	_, cancel := s.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			s.Offer("x", base.Add(time.Duration(i)*time.Second))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Offer blocked on a slow subscriber")
	}
}

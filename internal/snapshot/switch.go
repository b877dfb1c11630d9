package snapshot

import (
	"sync"
	"time"
)

// Switch trips after a threshold of requests inside a rolling window. Pausing
// persistence is disruptive enough that a single stray request should not do
// it; callers must repeat the request within the window.
type Switch struct {
	mu        sync.Mutex
	threshold int
	window    time.Duration
	requests  []time.Time
}

// NewSwitch creates a switch with the given threshold and window.
func NewSwitch(threshold int, window time.Duration) *Switch {
	return &Switch{threshold: threshold, window: window}
}

// Register records a request at now and reports whether the switch tripped.
// A trip resets the window.
func (s *Switch) Register(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.window)
	filtered := s.requests[:0]
	for _, t := range s.requests {
		if t.After(cutoff) {
			filtered = append(filtered, t)
		}
	}
	s.requests = append(filtered, now)

	if len(s.requests) >= s.threshold {
		s.requests = s.requests[:0]
		return true
	}
	return false
}

// Pending returns how many requests are currently inside the window.
func (s *Switch) Pending(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.window)
	count := 0
	for _, t := range s.requests {
		if t.After(cutoff) {
			count++
		}
	}
	return count
}

// Threshold returns the number of requests needed to trip the switch.
func (s *Switch) Threshold() int {
	return s.threshold
}

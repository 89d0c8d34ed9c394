package calib

import "sync"

// StateStore holds the currently active thresholds and a completeness
// flag. It is the single piece of state shared between the per-frame
// processing path (reads at camera rate) and the calibration path
// (writes once per finished session): a reader-writer lock around a
// value snapshot guarantees readers never observe a torn write and the
// hot path never waits on calibration UI cadence.
type StateStore struct {
	mu         sync.RWMutex
	thresholds Thresholds
	complete   bool
}

// NewStateStore creates a store seeded with the default thresholds and
// completeness false.
func NewStateStore() *StateStore {
	return &StateStore{thresholds: DefaultThresholds()}
}

// Current returns a snapshot of the active thresholds and whether they
// came from a completed calibration.
func (s *StateStore) Current() (Thresholds, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds, s.complete
}

// Apply atomically replaces the active thresholds.
func (s *StateStore) Apply(t Thresholds, complete bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds = t
	s.complete = complete
}

// Clear resets to the default thresholds, uncalibrated.
func (s *StateStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds = DefaultThresholds()
	s.complete = false
}

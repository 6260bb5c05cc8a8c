package model

import "sync"

// StateManager tracks an estimator's fitted state and the data dimensions
// it was trained on. Estimators compose it as a public field so gob
// serialization captures the state alongside the learned parameters:
//
//	type Ridge struct {
//		State *model.StateManager // public for gob encoding
//		...
//	}
//
// All methods are safe for concurrent use; the zero value of the exported
// fields describes an unfitted estimator.
type StateManager struct {
	mu sync.RWMutex

	// Fitted reports whether Fit completed successfully. Public for gob.
	Fitted bool
	// NumFeatures is the column count seen at fit time. Public for gob.
	NumFeatures int
	// NumSamples is the row count seen at fit time. Public for gob.
	NumSamples int
}

// NewStateManager creates an unfitted StateManager.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted reports whether the estimator has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the estimator as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset returns the estimator to the unfitted state and clears the
// recorded dimensions.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NumFeatures = 0
	s.NumSamples = 0
}

// SetDimensions records the feature and sample counts seen at fit time.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NumFeatures = nFeatures
	s.NumSamples = nSamples
}

// Dimensions returns the recorded (features, samples) counts.
func (s *StateManager) Dimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NumFeatures, s.NumSamples
}

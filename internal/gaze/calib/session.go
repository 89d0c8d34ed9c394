package calib

import (
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/monitoring"
)

// RecordStore persists completed calibration sessions. Implemented by
// the sqlite-backed store; nil disables persistence.
type RecordStore interface {
	// SaveSession persists a finished session. Implementations must
	// write the whole record or nothing.
	SaveSession(sessionID string, data *SessionData) error
}

// Manager runs at most one calibration session at a time, gluing the
// flow controller, sample collection, threshold derivation, the active
// state store and persistence. All methods are safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	flow    *FlowController
	data    *SessionData
	store   *StateStore
	records RecordStore

	sessionID      string
	active         bool
	strictOrdering bool
}

// Status is a point-in-time snapshot of the session for the API.
type Status struct {
	Active          bool        `json:"active"`
	SessionID       string      `json:"session_id,omitempty"`
	CurrentStep     *Step       `json:"current_step,omitempty"`
	Collecting      bool        `json:"collecting"`
	CollectedInStep int         `json:"collected_in_step"`
	SamplesPerStep  int         `json:"samples_per_step"`
	Progress        float64     `json:"progress"`
	Calibrated      bool        `json:"calibrated"`
	Thresholds      *Thresholds `json:"thresholds,omitempty"`
}

// NewManager creates a session manager writing finished thresholds into
// store and, when records is non-nil, persisting completed sessions.
func NewManager(store *StateStore, records RecordStore) *Manager {
	return &Manager{store: store, records: records}
}

// Start begins a fresh session, discarding any session in progress.
// sessionID identifies the session in persistence; strictOrdering selects
// the ordered-bounds validity check for the derived thresholds.
func (m *Manager) Start(sessionID string, samplesPerStep int, strictOrdering bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		monitoring.Logf("[calib] discarding in-progress session %s", m.sessionID)
	}
	m.flow = NewFlowController(samplesPerStep)
	m.flow.Start()
	m.data = NewSessionData()
	m.sessionID = sessionID
	m.active = true
	m.strictOrdering = strictOrdering
}

// StartCollecting enables sample collection for the current step.
func (m *Manager) StartCollecting() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return fmt.Errorf("no calibration session active")
	}
	m.flow.StartCollectingSamples()
	return nil
}

// SubmitSample records one sample against the active step. Returns
// whether the step just completed and whether the whole session finished
// (in which case thresholds have been derived and applied).
func (m *Manager) SubmitSample(s gaze.Sample) (stepComplete, sessionComplete bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return false, false, fmt.Errorf("no calibration session active")
	}
	step, ok := m.flow.CurrentStep()
	if !ok {
		return false, false, fmt.Errorf("calibration sequence already finished")
	}
	if !m.flow.Collecting() {
		return false, false, fmt.Errorf("step %s is not collecting samples", step)
	}

	m.data.AddSample(step, s)
	if !m.flow.MarkSampleCollected() {
		return false, false, nil
	}
	if m.flow.AdvanceToNextStep() {
		return true, false, nil
	}
	m.finishLocked()
	return true, true, nil
}

// Skip advances past the current step regardless of collected samples.
// Returns true when skipping finished the session.
func (m *Manager) Skip() (sessionComplete bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return false, fmt.Errorf("no calibration session active")
	}
	if _, ok := m.flow.CurrentStep(); !ok {
		return false, fmt.Errorf("calibration sequence already finished")
	}
	if m.flow.SkipStep() {
		return false, nil
	}
	m.finishLocked()
	return true, nil
}

// Cancel discards the session without persisting anything.
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return
	}
	monitoring.Logf("[calib] session %s cancelled after %.0f%%", m.sessionID, m.flow.Progress()*100)
	m.flow.Stop()
	m.data = nil
	m.active = false
}

// Status returns a snapshot of the session and active thresholds.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	thresholds, calibrated := m.store.Current()
	st := Status{
		Calibrated: calibrated,
		Thresholds: &thresholds,
	}
	if !m.active {
		return st
	}
	st.Active = true
	st.SessionID = m.sessionID
	st.Collecting = m.flow.Collecting()
	st.CollectedInStep = m.flow.CollectedInStep()
	st.SamplesPerStep = m.flow.SamplesPerStep()
	st.Progress = m.flow.Progress()
	if step, ok := m.flow.CurrentStep(); ok {
		st.CurrentStep = &step
	}
	return st
}

// finishLocked derives thresholds, applies them to the state store and
// persists the completed session. Called with m.mu held.
func (m *Manager) finishLocked() {
	t := ComputeThresholds(m.data)
	if !t.Valid(m.strictOrdering) {
		monitoring.Logf("[calib] derived thresholds failed validity check (strict=%v); applying defaults",
			m.strictOrdering)
		t = DefaultThresholds()
		m.store.Apply(t, false)
	} else {
		m.store.Apply(t, true)
	}

	m.data.Thresholds = &t
	m.data.CalibratedAt = time.Now()
	m.data.Complete = true

	if m.records != nil {
		if err := m.records.SaveSession(m.sessionID, m.data); err != nil {
			monitoring.Logf("[calib] failed to persist session %s: %v", m.sessionID, err)
		}
	}

	monitoring.Logf("[calib] session %s complete: H=[%.3f %.3f] V=[%.3f %.3f] refWidth=%.4f",
		m.sessionID, t.LookRight, t.LookLeft, t.LookUp, t.LookDown, t.ReferenceFaceWidth)

	m.flow.Stop()
	m.active = false
}

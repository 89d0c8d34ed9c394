package calib

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

type fakeRecordStore struct {
	saved   map[string]*SessionData
	saveErr error
	saveCnt int
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{saved: make(map[string]*SessionData)}
}

func (f *fakeRecordStore) SaveSession(sessionID string, data *SessionData) error {
	f.saveCnt++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[sessionID] = data
	return nil
}

func runFullCalibration(t *testing.T, m *Manager, samplesPerStep int) {
	t.Helper()
	for i := 0; i < StepCount(); i++ {
		require.NoError(t, m.StartCollecting())
		for j := 0; j < samplesPerStep; j++ {
			h, v := 0.5, 0.5
			_, _, err := m.SubmitSample(gaze.NewSample(&h, &h, &v, &v, nil, 0))
			require.NoError(t, err)
		}
	}
}

func TestManagerFullSession(t *testing.T) {
	store := NewStateStore()
	records := newFakeRecordStore()
	m := NewManager(store, records)

	m.Start("session-1", 2, false)

	st := m.Status()
	require.True(t, st.Active)
	require.NotNil(t, st.CurrentStep)
	assert.Equal(t, StepCenter, *st.CurrentStep)
	assert.False(t, st.Collecting)

	require.NoError(t, m.StartCollecting())
	assert.True(t, m.Status().Collecting)

	h, v := 0.5, 0.5
	sample := gaze.NewSample(&h, &h, &v, &v, nil, 0)

	stepDone, sessionDone, err := m.SubmitSample(sample)
	require.NoError(t, err)
	assert.False(t, stepDone)
	assert.False(t, sessionDone)

	stepDone, sessionDone, err = m.SubmitSample(sample)
	require.NoError(t, err)
	assert.True(t, stepDone, "second sample should complete the 2-sample step")
	assert.False(t, sessionDone)

	// Remaining ten steps.
	for i := 1; i < StepCount(); i++ {
		require.NoError(t, m.StartCollecting())
		_, _, err := m.SubmitSample(sample)
		require.NoError(t, err)
		stepDone, sessionDone, err = m.SubmitSample(sample)
		require.NoError(t, err)
		assert.True(t, stepDone)
	}
	assert.True(t, sessionDone, "last sample of the last step should finish the session")

	st = m.Status()
	assert.False(t, st.Active)
	assert.True(t, st.Calibrated)

	_, calibrated := store.Current()
	assert.True(t, calibrated, "finished session must apply thresholds to the store")

	require.Len(t, records.saved, 1)
	saved := records.saved["session-1"]
	require.NotNil(t, saved)
	assert.True(t, saved.Complete)
	require.NotNil(t, saved.Thresholds)
	assert.False(t, saved.CalibratedAt.IsZero())
	assert.Equal(t, 2, saved.SampleCount(StepCenter))
}

func TestManagerRequiresActiveSession(t *testing.T) {
	m := NewManager(NewStateStore(), nil)

	assert.Error(t, m.StartCollecting())

	_, _, err := m.SubmitSample(gaze.Sample{})
	assert.Error(t, err)

	_, err = m.Skip()
	assert.Error(t, err)
}

func TestManagerRequiresCollecting(t *testing.T) {
	m := NewManager(NewStateStore(), nil)
	m.Start("s", 1, false)

	_, _, err := m.SubmitSample(gaze.Sample{})
	assert.Error(t, err, "samples before StartCollecting must be rejected")
}

func TestManagerSkipToCompletion(t *testing.T) {
	store := NewStateStore()
	records := newFakeRecordStore()
	m := NewManager(store, records)
	m.Start("skipped", 5, false)

	for i := 0; i < StepCount()-1; i++ {
		done, err := m.Skip()
		require.NoError(t, err)
		assert.False(t, done)
	}
	done, err := m.Skip()
	require.NoError(t, err)
	assert.True(t, done, "skipping the last step finishes the session")

	assert.Equal(t, 1, records.saveCnt, "a finished session persists even with no samples")
}

func TestManagerSkippedSessionAppliesDefaults(t *testing.T) {
	store := NewStateStore()
	m := NewManager(store, nil)
	m.Start("all-skipped", 1, false)

	for {
		done, err := m.Skip()
		require.NoError(t, err)
		if done {
			break
		}
	}

	got, _ := store.Current()
	assert.Equal(t, DefaultThresholds(), got)
}

func TestManagerCancelDiscardsSession(t *testing.T) {
	store := NewStateStore()
	records := newFakeRecordStore()
	m := NewManager(store, records)

	m.Start("cancelled", 1, false)
	require.NoError(t, m.StartCollecting())
	h := 0.5
	_, _, err := m.SubmitSample(gaze.NewSample(&h, &h, &h, &h, nil, 0))
	require.NoError(t, err)

	m.Cancel()

	st := m.Status()
	assert.False(t, st.Active)
	assert.Equal(t, 0, records.saveCnt, "cancelled sessions must not persist")
	_, calibrated := store.Current()
	assert.False(t, calibrated)
}

func TestManagerRestartDiscardsInProgress(t *testing.T) {
	m := NewManager(NewStateStore(), nil)
	m.Start("first", 3, false)
	require.NoError(t, m.StartCollecting())

	m.Start("second", 3, false)
	st := m.Status()
	assert.Equal(t, "second", st.SessionID)
	assert.False(t, st.Collecting)
	assert.Equal(t, 0, st.CollectedInStep)
}

func TestManagerPersistenceFailureDoesNotBlockCompletion(t *testing.T) {
	store := NewStateStore()
	records := newFakeRecordStore()
	records.saveErr = fmt.Errorf("disk full")
	m := NewManager(store, records)

	m.Start("doomed", 1, false)
	runFullCalibration(t, m, 1)

	// Thresholds still apply even when the write failed.
	_, calibrated := store.Current()
	assert.True(t, calibrated)
	assert.False(t, m.Status().Active)
}

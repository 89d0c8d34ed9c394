package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gaze.report/internal/db"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/calib"
)

func testStore(t *testing.T) *CalibrationStore {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewCalibrationStore(database.DB)
}

func completedSession(calibratedAt time.Time) *calib.SessionData {
	data := calib.NewSessionData()
	h, v, w := 0.5, 0.5, 0.2
	data.AddSample(calib.StepCenter, gaze.NewSample(&h, &h, &v, &v, &w, calibratedAt.UnixNano()))
	t := calib.DefaultThresholds()
	t.ReferenceFaceWidth = 0.2
	data.Thresholds = &t
	data.CalibratedAt = calibratedAt
	data.Complete = true
	return data
}

func TestSaveAndLoadSession(t *testing.T) {
	store := testStore(t)
	calibratedAt := time.Now().Truncate(time.Millisecond)

	require.NoError(t, store.SaveSession("session-a", completedSession(calibratedAt)))

	loaded, sessionID, err := store.LoadLatest()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "session-a", sessionID)
	assert.True(t, loaded.Complete)
	assert.Equal(t, calibratedAt.UnixNano(), loaded.CalibratedAt.UnixNano())

	require.NotNil(t, loaded.Thresholds)
	assert.InDelta(t, 0.80, loaded.Thresholds.LookLeft, 1e-9)
	assert.InDelta(t, 0.2, loaded.Thresholds.ReferenceFaceWidth, 1e-9)

	assert.Equal(t, 1, loaded.SampleCount(calib.StepCenter))
	sample := loaded.SamplesByStep[calib.StepCenter][0]
	require.NotNil(t, sample.LeftRatio)
	assert.InDelta(t, 0.5, *sample.LeftRatio, 1e-9)
}

func TestLoadLatestEmpty(t *testing.T) {
	store := testStore(t)
	loaded, sessionID, err := store.LoadLatest()
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.Empty(t, sessionID)
}

func TestLoadLatestPrefersMostRecent(t *testing.T) {
	store := testStore(t)
	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	require.NoError(t, store.SaveSession("old", completedSession(older)))
	require.NoError(t, store.SaveSession("new", completedSession(newer)))

	_, sessionID, err := store.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, "new", sessionID)
}

func TestSaveSessionGeneratesID(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.SaveSession("", completedSession(time.Now())))

	_, sessionID, err := store.LoadLatest()
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID, "empty session IDs get a generated UUID")
}

func TestSaveSessionReplacesExisting(t *testing.T) {
	store := testStore(t)
	first := completedSession(time.Now())
	require.NoError(t, store.SaveSession("same-id", first))

	second := completedSession(time.Now().Add(time.Minute))
	second.Thresholds.LookLeft = 0.95
	require.NoError(t, store.SaveSession("same-id", second))

	loaded, _, err := store.LoadLatest()
	require.NoError(t, err)
	assert.InDelta(t, 0.95, loaded.Thresholds.LookLeft, 1e-9)
}

func TestSaveSessionRejectsNil(t *testing.T) {
	store := testStore(t)
	assert.Error(t, store.SaveSession("x", nil))
}

func TestDeleteSession(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.SaveSession("gone", completedSession(time.Now())))
	require.NoError(t, store.DeleteSession("gone"))

	loaded, _, err := store.LoadLatest()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

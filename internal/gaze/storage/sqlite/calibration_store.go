// Package sqlite persists calibration sessions. A session is stored as a
// single row: the raw samples as a JSON blob plus the derived threshold
// columns, written only once the session has completed so a crash can
// never leave a partial session behind.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/gaze.report/internal/gaze/calib"
	"github.com/banshee-data/gaze.report/internal/monitoring"
)

// CalibrationStore provides persistence for calibration sessions.
type CalibrationStore struct {
	db *sql.DB
}

// NewCalibrationStore creates a store over an open database.
func NewCalibrationStore(db *sql.DB) *CalibrationStore {
	return &CalibrationStore{db: db}
}

// SaveSession persists a finished session in one statement. If sessionID
// is empty a new UUID is generated. Implements calib.RecordStore.
func (s *CalibrationStore) SaveSession(sessionID string, data *calib.SessionData) error {
	if data == nil {
		return fmt.Errorf("nil session data")
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	samplesJSON, err := json.Marshal(data.SamplesByStep)
	if err != nil {
		return fmt.Errorf("marshal samples: %w", err)
	}

	calibratedAt := data.CalibratedAt
	if calibratedAt.IsZero() {
		calibratedAt = time.Now()
	}

	var lookLeft, lookRight, lookUp, lookDown sql.NullFloat64
	var screenLeft, screenRight, screenTop, screenBottom, refWidth sql.NullFloat64
	if t := data.Thresholds; t != nil {
		lookLeft = sql.NullFloat64{Float64: t.LookLeft, Valid: true}
		lookRight = sql.NullFloat64{Float64: t.LookRight, Valid: true}
		lookUp = sql.NullFloat64{Float64: t.LookUp, Valid: true}
		lookDown = sql.NullFloat64{Float64: t.LookDown, Valid: true}
		screenLeft = sql.NullFloat64{Float64: t.ScreenLeft, Valid: true}
		screenRight = sql.NullFloat64{Float64: t.ScreenRight, Valid: true}
		screenTop = sql.NullFloat64{Float64: t.ScreenTop, Valid: true}
		screenBottom = sql.NullFloat64{Float64: t.ScreenBottom, Valid: true}
		refWidth = sql.NullFloat64{Float64: t.ReferenceFaceWidth, Valid: true}
	}

	query := `
		INSERT OR REPLACE INTO calibration_sessions (
			session_id, samples_json,
			look_left, look_right, look_up, look_down,
			screen_left, screen_right, screen_top, screen_bottom,
			reference_face_width, calibrated_at_ns, is_complete
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		sessionID,
		samplesJSON,
		lookLeft, lookRight, lookUp, lookDown,
		screenLeft, screenRight, screenTop, screenBottom,
		refWidth,
		calibratedAt.UnixNano(),
		boolToInt(data.Complete),
	)
	if err != nil {
		return fmt.Errorf("insert calibration session: %w", err)
	}

	return nil
}

// LoadLatest returns the most recently completed session, or nil when
// none exists. A corrupt or undecodable record is treated as absent (with
// a log line) so startup proceeds uncalibrated instead of failing.
func (s *CalibrationStore) LoadLatest() (*calib.SessionData, string, error) {
	query := `
		SELECT session_id, samples_json,
		       look_left, look_right, look_up, look_down,
		       screen_left, screen_right, screen_top, screen_bottom,
		       reference_face_width, calibrated_at_ns
		FROM calibration_sessions
		WHERE is_complete = 1
		ORDER BY calibrated_at_ns DESC
		LIMIT 1
	`

	var sessionID string
	var samplesJSON []byte
	var lookLeft, lookRight, lookUp, lookDown sql.NullFloat64
	var screenLeft, screenRight, screenTop, screenBottom, refWidth sql.NullFloat64
	var calibratedAtNs int64

	err := s.db.QueryRow(query).Scan(
		&sessionID, &samplesJSON,
		&lookLeft, &lookRight, &lookUp, &lookDown,
		&screenLeft, &screenRight, &screenTop, &screenBottom,
		&refWidth, &calibratedAtNs,
	)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("load calibration session: %w", err)
	}

	data := calib.NewSessionData()
	if err := json.Unmarshal(samplesJSON, &data.SamplesByStep); err != nil {
		monitoring.Logf("[storage] calibration session %s has corrupt samples blob, treating as absent: %v",
			sessionID, err)
		return nil, "", nil
	}
	data.CalibratedAt = time.Unix(0, calibratedAtNs)
	data.Complete = true

	if lookLeft.Valid {
		data.Thresholds = &calib.Thresholds{
			LookLeft:           lookLeft.Float64,
			LookRight:          lookRight.Float64,
			LookUp:             lookUp.Float64,
			LookDown:           lookDown.Float64,
			ScreenLeft:         screenLeft.Float64,
			ScreenRight:        screenRight.Float64,
			ScreenTop:          screenTop.Float64,
			ScreenBottom:       screenBottom.Float64,
			ReferenceFaceWidth: refWidth.Float64,
		}
	}

	return data, sessionID, nil
}

// DeleteSession removes a stored session, used when a user clears their
// calibration.
func (s *CalibrationStore) DeleteSession(sessionID string) error {
	_, err := s.db.Exec("DELETE FROM calibration_sessions WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("delete calibration session: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

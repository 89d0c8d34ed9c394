// Package db owns the sqlite database holding calibration sessions and
// engine events, including its schema and migrations.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the sql handle so stores and migrations share one connection.
type DB struct {
	*sql.DB
}

// schema is the baseline schema, applied idempotently at open so a fresh
// database works without running migrations. Migrations evolve it from
// here.
const schema = `
	CREATE TABLE IF NOT EXISTS calibration_sessions (
		session_id           TEXT PRIMARY KEY,
		samples_json         BLOB NOT NULL,
		look_left            DOUBLE,
		look_right           DOUBLE,
		look_up              DOUBLE,
		look_down            DOUBLE,
		screen_left          DOUBLE,
		screen_right         DOUBLE,
		screen_top           DOUBLE,
		screen_bottom        DOUBLE,
		reference_face_width DOUBLE,
		calibrated_at_ns     BIGINT NOT NULL,
		is_complete          INTEGER NOT NULL DEFAULT 0,
		created_at           TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_calibration_sessions_calibrated_at
		ON calibration_sessions(calibrated_at_ns DESC);
	CREATE TABLE IF NOT EXISTS engine_events (
		event_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		details    TEXT,
		timestamp  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
`

// NewDB opens (creating if necessary) the sqlite database at path and
// ensures the baseline schema and pragmas.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("apply baseline schema: %w", err)
	}

	return &DB{sqlDB}, nil
}

// RecordEvent appends an engine lifecycle event (startup, tracking
// restart, calibration fallback) for later inspection.
func (db *DB) RecordEvent(eventType, details string) error {
	_, err := db.Exec(
		"INSERT INTO engine_events (event_type, details) VALUES (?, ?)",
		eventType, details,
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

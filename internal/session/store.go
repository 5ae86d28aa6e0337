package session

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"visual-vertical/internal/estimator"

	_ "modernc.org/sqlite"
)

// schema.sql defines the session and per-frame result tables.
//
//go:embed schema.sql
var schemaSQL string

// Store persists results in a SQLite database.
type Store struct {
	*sql.DB
}

// OpenStore opens (or creates) the database at path and applies the schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db}, nil
}

// StartSession records a run.
func (s *Store) StartSession(m *Manifest) error {
	_, err := s.Exec(`
		INSERT INTO vv_sessions (session_id, source, camera, started_unix_nanos)
		VALUES (?, ?, ?, ?)
	`, m.ID, m.Source, m.Camera, m.Created.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// RecordResults stores results in frame order in one transaction.
func (s *Store) RecordResults(sessionID string, results []estimator.Result) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("begin results tx: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO vv_results (session_id, frame, acc_x, acc_y, angle_rad, angle_deg)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare results insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err := stmt.Exec(sessionID, i, r.AccX(), r.AccY(), r.AngleRad(), r.Angle()); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert frame %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results tx: %w", err)
	}
	return nil
}

// Results returns the stored results of a session in frame order.
func (s *Store) Results(sessionID string) ([]estimator.Result, error) {
	rows, err := s.Query(`
		SELECT angle_deg FROM vv_results WHERE session_id = ? ORDER BY frame
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []estimator.Result
	for rows.Next() {
		var angle float64
		if err := rows.Scan(&angle); err != nil {
			return nil, err
		}
		out = append(out, estimator.NewResult(angle))
	}
	return out, rows.Err()
}

// SessionStarted returns when a session was recorded.
func (s *Store) SessionStarted(sessionID string) (time.Time, error) {
	var nanos int64
	err := s.QueryRow(`SELECT started_unix_nanos FROM vv_sessions WHERE session_id = ?`, sessionID).Scan(&nanos)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, nanos), nil
}

package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/formsense/formsense/models"
	"github.com/formsense/formsense/pkg/corrections"
)

// LoadCorrections implements corrections.Persister.
func (db *DB) LoadCorrections() (corrections.State, error) {
	var state corrections.State

	rows, err := db.Query(`
		SELECT signature, detected_type, corrected_type, signals_json, created_at
		FROM user_corrections
	`)
	if err != nil {
		return state, fmt.Errorf("failed to load corrections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCorrection(rows)
		if err != nil {
			return state, err
		}
		state.Corrections = append(state.Corrections, c)
	}
	if err := rows.Err(); err != nil {
		return state, fmt.Errorf("failed to read corrections: %w", err)
	}

	logRows, err := db.Query(`
		SELECT signature, detected_type, corrected_type, signals_json, created_at
		FROM learning_log ORDER BY entry_id
	`)
	if err != nil {
		return state, fmt.Errorf("failed to load learning log: %w", err)
	}
	defer logRows.Close()
	for logRows.Next() {
		c, err := scanCorrection(logRows)
		if err != nil {
			return state, err
		}
		state.LearningLog = append(state.LearningLog, c)
	}
	if err := logRows.Err(); err != nil {
		return state, fmt.Errorf("failed to read learning log: %w", err)
	}

	return state, nil
}

// SaveCorrections implements corrections.Persister by replacing both tables
// with the in-memory snapshot. The store is small (hundreds of rows) so a
// full rewrite in one transaction beats diffing.
func (db *DB) SaveCorrections(state corrections.State) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM user_corrections"); err != nil {
		return fmt.Errorf("failed to clear corrections: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM learning_log"); err != nil {
		return fmt.Errorf("failed to clear learning log: %w", err)
	}

	for _, c := range state.Corrections {
		signalsJSON, err := json.Marshal(c.Signals)
		if err != nil {
			return fmt.Errorf("failed to marshal signals: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO user_corrections (signature, detected_type, corrected_type, signals_json, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, c.Signature, string(c.DetectedType), string(c.CorrectedType), string(signalsJSON), c.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to insert correction: %w", err)
		}
	}

	for _, c := range state.LearningLog {
		signalsJSON, err := json.Marshal(c.Signals)
		if err != nil {
			return fmt.Errorf("failed to marshal signals: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO learning_log (signature, detected_type, corrected_type, signals_json, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, c.Signature, string(c.DetectedType), string(c.CorrectedType), string(signalsJSON), c.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to insert log entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCorrection(row rowScanner) (models.Correction, error) {
	var c models.Correction
	var detected, corrected, signalsJSON string
	var createdAt time.Time
	if err := row.Scan(&c.Signature, &detected, &corrected, &signalsJSON, &createdAt); err != nil {
		return c, fmt.Errorf("failed to scan correction: %w", err)
	}
	c.DetectedType = models.FieldType(detected)
	c.CorrectedType = models.FieldType(corrected)
	c.Timestamp = createdAt
	if err := json.Unmarshal([]byte(signalsJSON), &c.Signals); err != nil {
		// Unreadable signals degrade to an empty bundle; the signature
		// and types are still usable for boosts.
		c.Signals = models.SignalBundle{}
	}
	return c, nil
}

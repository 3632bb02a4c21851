package store

import (
	"database/sql"
	"fmt"
)

// SetOverride inserts or replaces the manual override for o.Kind. The test
// is marked for re-analysis.
func (db *DB) SetOverride(o *Override) error {
	if o.Kind != "LT1" && o.Kind != "LT2" {
		return fmt.Errorf("invalid threshold kind %q", o.Kind)
	}
	if err := db.requireTest(o.TestID); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO manual_overrides (test_id, kind, lactate, intensity, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(test_id, kind) DO UPDATE SET
			lactate = excluded.lactate,
			intensity = excluded.intensity,
			updated_at = CURRENT_TIMESTAMP
	`, o.TestID, o.Kind, o.Lactate, o.Intensity)
	if err != nil {
		return fmt.Errorf("saving override: %w", err)
	}
	if err := markStale(tx, o.TestID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetOverrides returns the overrides stored for a test, LT1 first
func (db *DB) GetOverrides(testID string) ([]Override, error) {
	if err := db.requireTest(testID); err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT test_id, kind, lactate, intensity, updated_at
		FROM manual_overrides
		WHERE test_id = ?
		ORDER BY kind
	`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []Override
	for rows.Next() {
		var o Override
		var updatedAt string
		if err := rows.Scan(&o.TestID, &o.Kind, &o.Lactate, &o.Intensity, &updatedAt); err != nil {
			return nil, err
		}
		o.UpdatedAt = parseTimestamp(updatedAt)
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// ClearOverride removes the override for kind and marks the test for
// re-analysis
func (db *DB) ClearOverride(testID, kind string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM manual_overrides WHERE test_id = ? AND kind = ?`, testID, kind)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrOverrideNotFound
	}
	if err := markStale(tx, testID); err != nil {
		return err
	}
	return tx.Commit()
}

func markStale(tx *sql.Tx, testID string) error {
	if _, err := tx.Exec(`UPDATE stage_tests SET analyzed_at = NULL WHERE id = ?`, testID); err != nil {
		return fmt.Errorf("marking test %s for re-analysis: %w", testID, err)
	}
	return nil
}

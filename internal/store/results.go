package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Analysis is everything SaveAnalysis persists for one test
type Analysis struct {
	Profile    string
	Warnings   []string
	Thresholds []Threshold
	Zones      *ZoneResult
}

// SaveAnalysis replaces the stored thresholds and zones of a test in one
// transaction
func (db *DB) SaveAnalysis(testID string, a *Analysis) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := tx.Exec(`
		UPDATE stage_tests
		SET profile = ?, warnings = ?, analyzed_at = ?
		WHERE id = ?
	`, a.Profile, strings.Join(a.Warnings, "\n"), now, testID)
	if err != nil {
		return fmt.Errorf("updating test: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return err
	} else if rows == 0 {
		return ErrTestNotFound
	}

	if _, err := tx.Exec(`DELETE FROM thresholds WHERE test_id = ?`, testID); err != nil {
		return fmt.Errorf("clearing thresholds: %w", err)
	}
	for _, th := range a.Thresholds {
		_, err := tx.Exec(`
			INSERT INTO thresholds (
				test_id, kind, heart_rate, value, unit, lactate,
				percent_of_max, method, confidence, computed_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, testID, th.Kind, th.HeartRate, th.Value, th.Unit, th.Lactate,
			th.PercentOfMax, th.Method, th.Confidence, now)
		if err != nil {
			return fmt.Errorf("inserting %s threshold: %w", th.Kind, err)
		}
	}

	// Zones cascade with their result row
	if _, err := tx.Exec(`DELETE FROM zone_results WHERE test_id = ?`, testID); err != nil {
		return fmt.Errorf("clearing zones: %w", err)
	}
	if z := a.Zones; z != nil {
		_, err := tx.Exec(`
			INSERT INTO zone_results (test_id, max_hr, confidence, method, warning, computed_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, testID, z.MaxHR, z.Confidence, z.Method, z.Warning, now)
		if err != nil {
			return fmt.Errorf("inserting zone result: %w", err)
		}
		for _, zone := range z.Zones {
			_, err := tx.Exec(`
				INSERT INTO zones (
					test_id, zone, name, intensity, hr_min, hr_max, percent_min, percent_max,
					speed_min, speed_max, power_min, power_max, pace_min, pace_max, effect
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, testID, zone.Zone, zone.Name, zone.Intensity, zone.HRMin, zone.HRMax,
				zone.PercentMin, zone.PercentMax, zone.SpeedMin, zone.SpeedMax,
				zone.PowerMin, zone.PowerMax, zone.PaceMin, zone.PaceMax, zone.Effect)
			if err != nil {
				return fmt.Errorf("inserting zone %d: %w", zone.Zone, err)
			}
		}
	}

	return tx.Commit()
}

// GetThresholds returns the stored thresholds of a test, LT1 first
func (db *DB) GetThresholds(testID string) ([]Threshold, error) {
	if err := db.requireTest(testID); err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT test_id, kind, heart_rate, value, unit, lactate,
			percent_of_max, method, confidence, computed_at
		FROM thresholds
		WHERE test_id = ?
		ORDER BY kind
	`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var thresholds []Threshold
	for rows.Next() {
		var th Threshold
		var computedAt string
		err := rows.Scan(
			&th.TestID, &th.Kind, &th.HeartRate, &th.Value, &th.Unit, &th.Lactate,
			&th.PercentOfMax, &th.Method, &th.Confidence, &computedAt,
		)
		if err != nil {
			return nil, err
		}
		th.ComputedAt = parseTimestamp(computedAt)
		thresholds = append(thresholds, th)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(thresholds) == 0 {
		return nil, ErrNoAnalysis
	}
	return thresholds, nil
}

// GetZoneResult returns the stored zone table of a test
func (db *DB) GetZoneResult(testID string) (*ZoneResult, error) {
	if err := db.requireTest(testID); err != nil {
		return nil, err
	}

	var z ZoneResult
	var computedAt string
	err := db.QueryRow(`
		SELECT test_id, max_hr, confidence, method, warning, computed_at
		FROM zone_results
		WHERE test_id = ?
	`, testID).Scan(&z.TestID, &z.MaxHR, &z.Confidence, &z.Method, &z.Warning, &computedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoAnalysis
	}
	if err != nil {
		return nil, err
	}
	z.ComputedAt = parseTimestamp(computedAt)

	rows, err := db.Query(`
		SELECT zone, name, intensity, hr_min, hr_max, percent_min, percent_max,
			speed_min, speed_max, power_min, power_max, pace_min, pace_max, effect
		FROM zones
		WHERE test_id = ?
		ORDER BY zone
	`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var zone Zone
		err := rows.Scan(
			&zone.Zone, &zone.Name, &zone.Intensity, &zone.HRMin, &zone.HRMax,
			&zone.PercentMin, &zone.PercentMax, &zone.SpeedMin, &zone.SpeedMax,
			&zone.PowerMin, &zone.PowerMax, &zone.PaceMin, &zone.PaceMax, &zone.Effect,
		)
		if err != nil {
			return nil, err
		}
		z.Zones = append(z.Zones, zone)
	}
	return &z, rows.Err()
}

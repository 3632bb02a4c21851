package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateTest inserts a test and its stages in one transaction and returns the
// test ID. An empty ID is replaced with a new UUID, a zero TestedAt with now.
func (db *DB) CreateTest(t *StageTest, stages []Stage) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.TestedAt.IsZero() {
		t.TestedAt = time.Now().UTC()
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO stage_tests (id, athlete, sport, tested_at, notes, source)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.Athlete, t.Sport, t.TestedAt.UTC().Format(time.RFC3339), t.Notes, t.Source)
	if err != nil {
		return "", fmt.Errorf("inserting test: %w", err)
	}

	for _, s := range stages {
		_, err := tx.Exec(`
			INSERT INTO stages (test_id, seq, heart_rate, lactate, speed, power, pace)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, t.ID, s.Seq, s.HeartRate, s.Lactate, s.Speed, s.Power, s.Pace)
		if err != nil {
			return "", fmt.Errorf("inserting stage %d: %w", s.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing test: %w", err)
	}
	return t.ID, nil
}

const testColumns = `
	t.id, t.athlete, t.sport, t.tested_at, t.notes, t.source,
	t.profile, t.warnings, t.analyzed_at, t.created_at,
	(SELECT COUNT(*) FROM stages s WHERE s.test_id = t.id)`

// GetTest retrieves a test by ID
func (db *DB) GetTest(id string) (*StageTest, error) {
	row := db.QueryRow(`SELECT `+testColumns+` FROM stage_tests t WHERE t.id = ?`, id)

	t, err := scanTest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTestNotFound
	}
	return t, err
}

// ListTests returns tests ordered by test date descending
func (db *DB) ListTests(limit, offset int) ([]StageTest, error) {
	rows, err := db.Query(`
		SELECT `+testColumns+`
		FROM stage_tests t
		ORDER BY t.tested_at DESC, t.created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []StageTest
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, *t)
	}
	return tests, rows.Err()
}

// GetTestsNeedingAnalysis returns tests never analyzed or whose overrides
// changed since, oldest first
func (db *DB) GetTestsNeedingAnalysis(limit int) ([]StageTest, error) {
	rows, err := db.Query(`
		SELECT `+testColumns+`
		FROM stage_tests t
		WHERE t.analyzed_at IS NULL
		ORDER BY t.tested_at ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []StageTest
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, *t)
	}
	return tests, rows.Err()
}

// CountTests returns the total number of tests
func (db *DB) CountTests() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM stage_tests").Scan(&count)
	return count, err
}

// GetStages returns the stages of a test ordered by sequence
func (db *DB) GetStages(testID string) ([]Stage, error) {
	if err := db.requireTest(testID); err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT test_id, seq, heart_rate, lactate, speed, power, pace
		FROM stages
		WHERE test_id = ?
		ORDER BY seq
	`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []Stage
	for rows.Next() {
		var s Stage
		if err := rows.Scan(&s.TestID, &s.Seq, &s.HeartRate, &s.Lactate, &s.Speed, &s.Power, &s.Pace); err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

// DeleteTest removes a test with its stages, overrides and results
func (db *DB) DeleteTest(id string) error {
	result, err := db.Exec(`DELETE FROM stage_tests WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTestNotFound
	}
	return nil
}

func (db *DB) requireTest(id string) error {
	var exists int
	err := db.QueryRow(`SELECT 1 FROM stage_tests WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTestNotFound
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

// scanTest scans a test selected with testColumns
func scanTest(row scanner) (*StageTest, error) {
	var t StageTest
	var testedAt, createdAt string
	var profile, warnings, analyzedAt *string

	err := row.Scan(
		&t.ID, &t.Athlete, &t.Sport, &testedAt, &t.Notes, &t.Source,
		&profile, &warnings, &analyzedAt, &createdAt, &t.StageCount,
	)
	if err != nil {
		return nil, err
	}

	var parseErr error
	t.TestedAt, parseErr = time.Parse(time.RFC3339, testedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing tested_at %q: %w", testedAt, parseErr)
	}
	t.CreatedAt = parseTimestamp(createdAt)

	if profile != nil {
		t.Profile = *profile
	}
	if warnings != nil && *warnings != "" {
		t.Warnings = strings.Split(*warnings, "\n")
	}
	if analyzedAt != nil {
		at, parseErr := time.Parse(time.RFC3339, *analyzedAt)
		if parseErr != nil {
			return nil, fmt.Errorf("parsing analyzed_at %q: %w", *analyzedAt, parseErr)
		}
		t.AnalyzedAt = &at
	}

	return &t, nil
}

// parseTimestamp reads SQLite CURRENT_TIMESTAMP values, falling back to
// RFC3339. Unparseable values yield the zero time.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Stage tests (one incremental lactate test per row)
		`CREATE TABLE IF NOT EXISTS stage_tests (
			id TEXT PRIMARY KEY,
			athlete TEXT NOT NULL DEFAULT '',
			sport TEXT NOT NULL DEFAULT '',
			tested_at TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			profile TEXT,
			warnings TEXT,
			analyzed_at TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_stage_tests_tested_at ON stage_tests(tested_at)`,

		// Stages as entered; exactly one intensity column is expected per row
		`CREATE TABLE IF NOT EXISTS stages (
			test_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			heart_rate REAL NOT NULL,
			lactate REAL NOT NULL,
			speed REAL,
			power REAL,
			pace REAL,
			PRIMARY KEY (test_id, seq),
			FOREIGN KEY (test_id) REFERENCES stage_tests(id) ON DELETE CASCADE
		)`,

		// Tester-supplied thresholds
		`CREATE TABLE IF NOT EXISTS manual_overrides (
			test_id TEXT NOT NULL,
			kind TEXT NOT NULL CHECK (kind IN ('LT1', 'LT2')),
			lactate REAL NOT NULL,
			intensity REAL NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (test_id, kind),
			FOREIGN KEY (test_id) REFERENCES stage_tests(id) ON DELETE CASCADE
		)`,

		// Latest analysis results
		`CREATE TABLE IF NOT EXISTS thresholds (
			test_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			heart_rate INTEGER NOT NULL,
			value REAL NOT NULL,
			unit TEXT NOT NULL,
			lactate REAL NOT NULL,
			percent_of_max INTEGER NOT NULL,
			method TEXT NOT NULL,
			confidence TEXT NOT NULL,
			computed_at TEXT DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (test_id, kind),
			FOREIGN KEY (test_id) REFERENCES stage_tests(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS zone_results (
			test_id TEXT PRIMARY KEY,
			max_hr INTEGER NOT NULL,
			confidence TEXT NOT NULL,
			method TEXT NOT NULL,
			warning TEXT NOT NULL DEFAULT '',
			computed_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (test_id) REFERENCES stage_tests(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS zones (
			test_id TEXT NOT NULL,
			zone INTEGER NOT NULL,
			name TEXT NOT NULL,
			intensity TEXT NOT NULL,
			hr_min INTEGER NOT NULL,
			hr_max INTEGER NOT NULL,
			percent_min INTEGER NOT NULL,
			percent_max INTEGER NOT NULL,
			speed_min REAL,
			speed_max REAL,
			power_min REAL,
			power_max REAL,
			pace_min REAL,
			pace_max REAL,
			effect TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (test_id, zone),
			FOREIGN KEY (test_id) REFERENCES zone_results(test_id) ON DELETE CASCADE
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

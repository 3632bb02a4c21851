package store

import "time"

// StageTest is one incremental lactate test
type StageTest struct {
	ID       string    `db:"id"`
	Athlete  string    `db:"athlete"`
	Sport    string    `db:"sport"`
	TestedAt time.Time `db:"tested_at"`
	Notes    string    `db:"notes"`
	Source   string    `db:"source"` // "csv", "fit", "api" or "manual"

	// Set by SaveAnalysis
	Profile    string     `db:"profile"`
	Warnings   []string   `db:"warnings"` // stored newline-separated
	AnalyzedAt *time.Time `db:"analyzed_at"`

	CreatedAt  time.Time `db:"created_at"`
	StageCount int       // computed
}

// Stage is one stage record as entered
type Stage struct {
	TestID    string   `db:"test_id"`
	Seq       int      `db:"seq"`
	HeartRate float64  `db:"heart_rate"` // bpm
	Lactate   float64  `db:"lactate"`    // mmol/L
	Speed     *float64 `db:"speed"`      // km/h, nullable
	Power     *float64 `db:"power"`      // W, nullable
	Pace      *float64 `db:"pace"`       // min/km, nullable
}

// Override is a tester-supplied threshold for one kind ("LT1" or "LT2")
type Override struct {
	TestID    string    `db:"test_id"`
	Kind      string    `db:"kind"`
	Lactate   float64   `db:"lactate"`
	Intensity float64   `db:"intensity"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Threshold is a persisted LT1 or LT2 estimate
type Threshold struct {
	TestID       string    `db:"test_id"`
	Kind         string    `db:"kind"`
	HeartRate    int       `db:"heart_rate"`
	Value        float64   `db:"value"`
	Unit         string    `db:"unit"`
	Lactate      float64   `db:"lactate"`
	PercentOfMax int       `db:"percent_of_max"`
	Method       string    `db:"method"`
	Confidence   string    `db:"confidence"`
	ComputedAt   time.Time `db:"computed_at"`
}

// ZoneResult is a persisted five-zone table
type ZoneResult struct {
	TestID     string    `db:"test_id"`
	MaxHR      int       `db:"max_hr"`
	Confidence string    `db:"confidence"`
	Method     string    `db:"method"`
	Warning    string    `db:"warning"`
	ComputedAt time.Time `db:"computed_at"`
	Zones      []Zone
}

// Zone is one row of a zone table. Intensity bounds are nil when the test
// did not use that measure.
type Zone struct {
	Zone       int      `db:"zone"`
	Name       string   `db:"name"`
	Intensity  string   `db:"intensity"`
	HRMin      int      `db:"hr_min"`
	HRMax      int      `db:"hr_max"`
	PercentMin int      `db:"percent_min"`
	PercentMax int      `db:"percent_max"`
	SpeedMin   *float64 `db:"speed_min"`
	SpeedMax   *float64 `db:"speed_max"`
	PowerMin   *float64 `db:"power_min"`
	PowerMax   *float64 `db:"power_max"`
	PaceMin    *float64 `db:"pace_min"`
	PaceMax    *float64 `db:"pace_max"`
	Effect     string   `db:"effect"`
}

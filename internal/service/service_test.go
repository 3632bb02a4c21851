package service

import (
	"testing"
	"time"

	"lactest/internal/analysis"
	"lactest/internal/config"
	"lactest/internal/store"
)

// standardCurve is a nine-stage treadmill test: {km/h, bpm, mmol/L}
var standardCurve = [][3]float64{
	{8, 120, 1.1},
	{9, 128, 1.2},
	{10, 136, 1.4},
	{11, 143, 1.8},
	{12, 150, 2.4},
	{13, 157, 3.3},
	{14, 164, 4.6},
	{15, 171, 6.5},
	{16, 177, 9.0},
}

// openTestDB creates an in-memory database with migrations applied
func openTestDB(t *testing.T) *store.DB {
	t.Helper()

	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func ptr(v float64) *float64 {
	return &v
}

func speedRaw(rows [][3]float64) []analysis.RawStage {
	raw := make([]analysis.RawStage, len(rows))
	for i, r := range rows {
		raw[i] = analysis.RawStage{
			Seq:       i + 1,
			Speed:     ptr(r[0]),
			HeartRate: r[1],
			Lactate:   r[2],
		}
	}
	return raw
}

func newTestService(t *testing.T, athlete config.AthleteConfig) (*AnalysisService, *store.DB) {
	t.Helper()
	db := openTestDB(t)
	cfg := config.DefaultConfig()
	cfg.Athlete = athlete
	return NewAnalysisService(db, &cfg), db
}

// importStandard stores the standard curve and returns its ID
func importStandard(t *testing.T, svc *AnalysisService, testedAt time.Time) string {
	t.Helper()
	id, err := svc.ImportTest(&store.StageTest{
		Athlete:  "Test Runner",
		Sport:    "run",
		TestedAt: testedAt,
		Source:   SourceManual,
	}, speedRaw(standardCurve))
	if err != nil {
		t.Fatalf("ImportTest() error: %v", err)
	}
	return id
}

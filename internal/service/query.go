package service

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"lactest/internal/analysis"
	"lactest/internal/store"
)

// QueryService provides read-only views for the TUI, API and reports
type QueryService struct {
	store    *store.DB
	paceUnit string // "min/km" or "min/mi"
}

// NewQueryService creates a new query service
func NewQueryService(store *store.DB, paceUnit string) *QueryService {
	if paceUnit == "" {
		paceUnit = "min/km"
	}
	return &QueryService{store: store, paceUnit: paceUnit}
}

// TestSummary is one row of the test list
type TestSummary struct {
	Test store.StageTest
	LT1  *store.Threshold // nil until analyzed
	LT2  *store.Threshold
	When string // "3 days ago"
}

// TestDetail contains everything stored for a single test
type TestDetail struct {
	Test      store.StageTest
	Stages    []store.Stage
	Overrides []store.Override
	LT1       *store.Threshold
	LT2       *store.Threshold
	Zones     *store.ZoneResult
	Unit      string

	// For charts, in stage order
	Intensities []float64
	Lactates    []float64
	HeartRates  []float64
}

// Stale reports whether the stored results predate the current inputs
func (d *TestDetail) Stale() bool {
	return d.Test.AnalyzedAt == nil
}

// ListTests returns a page of tests with their thresholds and the total count
func (q *QueryService) ListTests(limit, offset int) ([]TestSummary, int, error) {
	if limit <= 0 || limit > TestListLimit {
		limit = TestListLimit
	}

	total, err := q.store.CountTests()
	if err != nil {
		return nil, 0, fmt.Errorf("counting tests: %w", err)
	}
	tests, err := q.store.ListTests(limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing tests: %w", err)
	}

	summaries := make([]TestSummary, len(tests))
	for i, t := range tests {
		summaries[i] = TestSummary{
			Test: t,
			When: RelativeDate(t.TestedAt),
		}
		thresholds, err := q.store.GetThresholds(t.ID)
		if errors.Is(err, store.ErrNoAnalysis) {
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("loading thresholds for %s: %w", t.ID, err)
		}
		summaries[i].LT1, summaries[i].LT2 = splitThresholds(thresholds)
	}
	return summaries, total, nil
}

// GetTestDetail returns a test with its stages, overrides and stored results.
// Results are nil when the test was never analyzed.
func (q *QueryService) GetTestDetail(id string) (*TestDetail, error) {
	test, err := q.store.GetTest(id)
	if err != nil {
		return nil, err
	}
	stages, err := q.store.GetStages(id)
	if err != nil {
		return nil, err
	}
	overrides, err := q.store.GetOverrides(id)
	if err != nil {
		return nil, err
	}

	detail := &TestDetail{
		Test:      *test,
		Stages:    stages,
		Overrides: overrides,
	}

	thresholds, err := q.store.GetThresholds(id)
	switch {
	case errors.Is(err, store.ErrNoAnalysis):
	case err != nil:
		return nil, err
	default:
		detail.LT1, detail.LT2 = splitThresholds(thresholds)
	}

	zones, err := q.store.GetZoneResult(id)
	switch {
	case errors.Is(err, store.ErrNoAnalysis):
	case err != nil:
		return nil, err
	default:
		detail.Zones = zones
	}

	detail.buildSeries()
	return detail, nil
}

// buildSeries collects the chart series in the unit of the first stage
// carrying an intensity, which is the unit the engine uses
func (d *TestDetail) buildSeries() {
	for _, s := range d.Stages {
		if _, unit, ok := StageIntensity(s); ok {
			d.Unit = unit
			break
		}
	}
	for _, s := range d.Stages {
		v, unit, ok := StageIntensity(s)
		if !ok || unit != d.Unit {
			continue
		}
		d.Intensities = append(d.Intensities, v)
		d.Lactates = append(d.Lactates, s.Lactate)
		d.HeartRates = append(d.HeartRates, s.HeartRate)
	}
}

func splitThresholds(thresholds []store.Threshold) (lt1, lt2 *store.Threshold) {
	for i := range thresholds {
		switch analysis.Kind(thresholds[i].Kind) {
		case analysis.LT1:
			lt1 = &thresholds[i]
		case analysis.LT2:
			lt2 = &thresholds[i]
		}
	}
	return lt1, lt2
}

// StageIntensity returns the intensity a stage was recorded with
func StageIntensity(s store.Stage) (float64, string, bool) {
	switch {
	case s.Speed != nil:
		return *s.Speed, string(analysis.UnitSpeed), true
	case s.Power != nil:
		return *s.Power, string(analysis.UnitPower), true
	case s.Pace != nil:
		return *s.Pace, string(analysis.UnitPace), true
	}
	return 0, "", false
}

// FormatIntensity renders an intensity for display. Pace is stored in
// min/km and shown in the configured pace unit.
func (q *QueryService) FormatIntensity(v float64, unit string) string {
	return FormatIntensity(v, unit, q.paceUnit)
}

// FormatIntensity renders an intensity, converting pace to paceUnit
func FormatIntensity(v float64, unit, paceUnit string) string {
	switch analysis.IntensityUnit(unit) {
	case analysis.UnitSpeed:
		return fmt.Sprintf("%.1f km/h", v)
	case analysis.UnitPower:
		return fmt.Sprintf("%.0f W", v)
	case analysis.UnitPace:
		if paceUnit == "min/mi" {
			return formatPace(int(math.Round(v*KmPerMile*SecondsPerMinute))) + " /mi"
		}
		return formatPace(int(math.Round(v*SecondsPerMinute))) + " /km"
	}
	return fmt.Sprintf("%.2f", v)
}

// RelativeDate renders a test date as "3 days ago"
func RelativeDate(t time.Time) string {
	return humanize.Time(t)
}

func formatPace(seconds int) string {
	mins := seconds / SecondsPerMinute
	secs := seconds % SecondsPerMinute
	return fmt.Sprintf("%d:%02d", mins, secs)
}

func testLabel(athlete string, at time.Time) string {
	if athlete == "" {
		return at.Format("2 Jan 2006")
	}
	return fmt.Sprintf("%s, %s", athlete, at.Format("2 Jan 2006"))
}

package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"lactest/internal/analysis"
	"lactest/internal/config"
	"lactest/internal/metrics"
	"lactest/internal/store"
)

// ErrInvalidOverride is returned for an override with an unknown kind or
// non-positive values
var ErrInvalidOverride = errors.New("invalid override")

// AnalysisService runs the threshold engine on stored or submitted tests
type AnalysisService struct {
	store     *store.DB
	athlete   config.AthleteConfig
	detection config.DetectionConfig
}

// NewAnalysisService creates a new analysis service. store may be nil for
// stateless use.
func NewAnalysisService(store *store.DB, cfg *config.Config) *AnalysisService {
	if cfg == nil {
		d := config.DefaultConfig()
		cfg = &d
	}
	return &AnalysisService{
		store:     store,
		athlete:   cfg.Athlete,
		detection: cfg.Detection,
	}
}

// Result is the full outcome of analyzing one test
type Result struct {
	TestID   string
	Stages   []analysis.Stage
	Unit     analysis.IntensityUnit
	Analysis *analysis.Analysis
	Zones    analysis.ZoneCalculationResult
	Warnings []string // engine and zone warnings together
}

// AnalyzeStages runs normalize, detect and zone calculation on raw stages
// without touching the store
func (s *AnalysisService) AnalyzeStages(raw []analysis.RawStage, overrides map[analysis.Kind]analysis.ManualOverride) (*Result, error) {
	timer := prometheus.NewTimer(metrics.AnalysisLatency)
	defer timer.ObserveDuration()

	stages, unit, err := analysis.NormalizeStages(raw)
	if err != nil {
		metrics.RecordAnalysis(metrics.OutcomeNoStages, "", "", false)
		return nil, err
	}

	a, err := analysis.Analyze(stages, s.options(overrides))
	if err != nil {
		metrics.RecordAnalysis(metrics.OutcomeFailed, "", "", false)
		return nil, fmt.Errorf("analyzing stages: %w", err)
	}

	zones := analysis.CalculateZones(s.zoneInput(a))

	res := &Result{
		Stages:   stages,
		Unit:     unit,
		Analysis: a,
		Zones:    zones,
	}
	res.Warnings = append(res.Warnings, a.Warnings...)
	if zones.Warning != "" {
		res.Warnings = append(res.Warnings, zones.Warning)
	}

	metrics.RecordAnalysis(metrics.OutcomeOK, string(a.LT1.Method), string(a.LT2.Method), len(a.Warnings) > 0)
	return res, nil
}

// AnalyzeTest analyzes a stored test with its overrides and persists the
// thresholds and zones
func (s *AnalysisService) AnalyzeTest(id string) (*Result, error) {
	if s.store == nil {
		return nil, errors.New("analysis service has no store")
	}

	rows, err := s.store.GetStages(id)
	if err != nil {
		return nil, fmt.Errorf("loading stages: %w", err)
	}
	overrides, err := s.store.GetOverrides(id)
	if err != nil {
		return nil, fmt.Errorf("loading overrides: %w", err)
	}

	res, err := s.AnalyzeStages(rawStages(rows), overrideMap(overrides))
	if err != nil {
		return nil, fmt.Errorf("test %s: %w", id, err)
	}
	res.TestID = id

	for _, w := range res.Warnings {
		log.Printf("warning: test %s: %s", id, w)
	}

	saved := &store.Analysis{
		Profile:  string(res.Analysis.Profile.Type),
		Warnings: res.Warnings,
		Thresholds: []store.Threshold{
			storeThreshold(analysis.LT1, res.Analysis.LT1),
			storeThreshold(analysis.LT2, res.Analysis.LT2),
		},
		Zones: storeZoneResult(res.Zones, res.Unit),
	}
	if err := s.store.SaveAnalysis(id, saved); err != nil {
		return nil, fmt.Errorf("saving analysis: %w", err)
	}

	return res, nil
}

// CompareMethods runs every detector individually on a stored test
func (s *AnalysisService) CompareMethods(id string) ([]analysis.MethodResult, error) {
	if s.store == nil {
		return nil, errors.New("analysis service has no store")
	}
	rows, err := s.store.GetStages(id)
	if err != nil {
		return nil, fmt.Errorf("loading stages: %w", err)
	}
	stages, _, err := analysis.NormalizeStages(rawStages(rows))
	if err != nil {
		return nil, err
	}
	return analysis.CompareMethods(stages, s.options(nil)), nil
}

// ImportTest stores a new test and returns its ID
func (s *AnalysisService) ImportTest(test *store.StageTest, raw []analysis.RawStage) (string, error) {
	if s.store == nil {
		return "", errors.New("analysis service has no store")
	}
	// Reject input the engine could never use
	if _, _, err := analysis.NormalizeStages(raw); err != nil {
		return "", err
	}
	return s.store.CreateTest(test, storeStages(raw))
}

// SetOverride stores a manual threshold. kind is "LT1" or "LT2" in any case.
func (s *AnalysisService) SetOverride(id, kind string, lactate, intensity float64) error {
	if s.store == nil {
		return errors.New("analysis service has no store")
	}
	kind = strings.ToUpper(kind)
	if kind != string(analysis.LT1) && kind != string(analysis.LT2) {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOverride, kind)
	}
	if lactate <= 0 || intensity <= 0 {
		return fmt.Errorf("%w: needs positive lactate and intensity, got %v and %v", ErrInvalidOverride, lactate, intensity)
	}
	return s.store.SetOverride(&store.Override{
		TestID:    id,
		Kind:      kind,
		Lactate:   lactate,
		Intensity: intensity,
	})
}

// ClearOverride removes a manual threshold
func (s *AnalysisService) ClearOverride(id, kind string) error {
	if s.store == nil {
		return errors.New("analysis service has no store")
	}
	return s.store.ClearOverride(id, strings.ToUpper(kind))
}

// DeleteTest removes a stored test with everything derived from it
func (s *AnalysisService) DeleteTest(id string) error {
	if s.store == nil {
		return errors.New("analysis service has no store")
	}
	return s.store.DeleteTest(id)
}

// EstimateZones returns %HRmax zones from the athlete settings alone
func (s *AnalysisService) EstimateZones() analysis.ZoneCalculationResult {
	return analysis.CalculateZones(analysis.ZoneInput{
		MaxHR:   s.athlete.MaxHR,
		Athlete: s.athleteInput(),
		Fitness: s.fitnessInput(),
	})
}

func (s *AnalysisService) options(overrides map[analysis.Kind]analysis.ManualOverride) analysis.Options {
	return analysis.Options{
		MaxHR:          s.athlete.MaxHR,
		Overrides:      overrides,
		RiseDelta:      s.detection.RiseDelta,
		DickhuthOffset: s.detection.DickhuthOffset,
	}
}

// zoneInput uses the configured max HR, else the peak heart rate of the
// test itself
func (s *AnalysisService) zoneInput(a *analysis.Analysis) analysis.ZoneInput {
	lt1, lt2 := a.LT1, a.LT2
	return analysis.ZoneInput{
		MaxHR:   a.MaxHR,
		LT1:     &lt1,
		LT2:     &lt2,
		Athlete: s.athleteInput(),
		Fitness: s.fitnessInput(),
	}
}

func (s *AnalysisService) athleteInput() *analysis.Athlete {
	if s.athlete.Age <= 0 {
		return nil
	}
	return &analysis.Athlete{
		Age:    s.athlete.Age,
		Gender: analysis.Gender(s.athlete.Gender),
	}
}

func (s *AnalysisService) fitnessInput() *analysis.FitnessEstimate {
	if s.athlete.FitnessLevel == "" && s.athlete.LT1Pct == 0 && s.athlete.LT2Pct == 0 {
		return nil
	}
	return &analysis.FitnessEstimate{
		Level:           analysis.FitnessLevel(s.athlete.FitnessLevel),
		LT1PercentHRmax: s.athlete.LT1Pct,
		LT2PercentHRmax: s.athlete.LT2Pct,
	}
}

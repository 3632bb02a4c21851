package api

import (
	"time"

	"lactest/internal/analysis"
	"lactest/internal/service"
	"lactest/internal/store"
)

// StageJSON is one stage in request bodies
type StageJSON struct {
	Stage     int      `json:"stage"`
	HeartRate float64  `json:"hr"`
	Lactate   float64  `json:"lactate"`
	Speed     *float64 `json:"speed,omitempty"`
	Power     *float64 `json:"power,omitempty"`
	Pace      *float64 `json:"pace,omitempty"`
}

// OverrideJSON is a manual threshold
type OverrideJSON struct {
	Lactate   float64 `json:"lactate"`
	Intensity float64 `json:"intensity"`
}

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Stages    []StageJSON             `json:"stages"`
	Overrides map[string]OverrideJSON `json:"overrides,omitempty"`
}

// CreateTestRequest is the body of POST /api/tests
type CreateTestRequest struct {
	Athlete  string      `json:"athlete"`
	Sport    string      `json:"sport"`
	TestedAt *time.Time  `json:"tested_at,omitempty"`
	Notes    string      `json:"notes"`
	Stages   []StageJSON `json:"stages"`
}

// ThresholdJSON is an LT1 or LT2 estimate
type ThresholdJSON struct {
	HeartRate    int     `json:"hr"`
	Value        float64 `json:"value"`
	Unit         string  `json:"unit"`
	Lactate      float64 `json:"lactate"`
	PercentOfMax int     `json:"percent_of_max"`
	Method       string  `json:"method"`
	Confidence   string  `json:"confidence"`
}

// ZoneJSON is one training zone. Intensity bounds appear only for the
// measure the test used.
type ZoneJSON struct {
	Zone       int      `json:"zone"`
	Name       string   `json:"name"`
	Intensity  string   `json:"intensity"`
	HRMin      int      `json:"hr_min"`
	HRMax      int      `json:"hr_max"`
	PercentMin int      `json:"percent_min"`
	PercentMax int      `json:"percent_max"`
	SpeedMin   *float64 `json:"speed_min,omitempty"`
	SpeedMax   *float64 `json:"speed_max,omitempty"`
	PowerMin   *float64 `json:"power_min,omitempty"`
	PowerMax   *float64 `json:"power_max,omitempty"`
	PaceMin    *float64 `json:"pace_min,omitempty"`
	PaceMax    *float64 `json:"pace_max,omitempty"`
	Effect     string   `json:"effect"`
}

// ZonesJSON is a full zone table
type ZonesJSON struct {
	MaxHR      int        `json:"max_hr"`
	Confidence string     `json:"confidence"`
	Method     string     `json:"method"`
	Warning    string     `json:"warning,omitempty"`
	Zones      []ZoneJSON `json:"zones"`
}

// AnalysisResponse is returned by both analyze endpoints
type AnalysisResponse struct {
	TestID   string        `json:"test_id,omitempty"`
	Unit     string        `json:"unit"`
	Profile  string        `json:"profile"`
	LT1      ThresholdJSON `json:"lt1"`
	LT2      ThresholdJSON `json:"lt2"`
	Zones    ZonesJSON     `json:"zones"`
	Warnings []string      `json:"warnings"`
}

// TestJSON is a stored test with its latest results
type TestJSON struct {
	ID         string                  `json:"id"`
	Athlete    string                  `json:"athlete"`
	Sport      string                  `json:"sport"`
	TestedAt   time.Time               `json:"tested_at"`
	Notes      string                  `json:"notes,omitempty"`
	Source     string                  `json:"source"`
	StageCount int                     `json:"stage_count"`
	AnalyzedAt *time.Time              `json:"analyzed_at,omitempty"`
	Profile    string                  `json:"profile,omitempty"`
	Warnings   []string                `json:"warnings,omitempty"`
	LT1        *ThresholdJSON          `json:"lt1,omitempty"`
	LT2        *ThresholdJSON          `json:"lt2,omitempty"`
	Stages     []StageJSON             `json:"stages,omitempty"`
	Overrides  map[string]OverrideJSON `json:"overrides,omitempty"`
	Zones      *ZonesJSON              `json:"zones,omitempty"`
}

// TestListResponse is returned by GET /api/tests
type TestListResponse struct {
	Total int        `json:"total"`
	Tests []TestJSON `json:"tests"`
}

// MethodJSON is one row of the method comparison
type MethodJSON struct {
	Kind      string         `json:"kind"`
	Method    string         `json:"method"`
	OK        bool           `json:"ok"`
	Threshold *ThresholdJSON `json:"threshold,omitempty"`
}

func rawFromJSON(stages []StageJSON) []analysis.RawStage {
	raw := make([]analysis.RawStage, len(stages))
	for i, s := range stages {
		seq := s.Stage
		if seq == 0 {
			seq = i + 1
		}
		raw[i] = analysis.RawStage{
			Seq:       seq,
			HeartRate: s.HeartRate,
			Lactate:   s.Lactate,
			Speed:     s.Speed,
			Power:     s.Power,
			Pace:      s.Pace,
		}
	}
	return raw
}

func overridesFromJSON(in map[string]OverrideJSON) (map[analysis.Kind]analysis.ManualOverride, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[analysis.Kind]analysis.ManualOverride, len(in))
	for k, o := range in {
		kind, err := parseKind(k)
		if err != nil {
			return nil, err
		}
		out[kind] = analysis.ManualOverride{Lactate: o.Lactate, Intensity: o.Intensity}
	}
	return out, nil
}

func thresholdJSON(t analysis.Threshold) ThresholdJSON {
	return ThresholdJSON{
		HeartRate:    t.HeartRate,
		Value:        t.Value,
		Unit:         string(t.Unit),
		Lactate:      t.Lactate,
		PercentOfMax: t.PercentOfMax,
		Method:       string(t.Method),
		Confidence:   string(t.Confidence),
	}
}

func storedThresholdJSON(t *store.Threshold) *ThresholdJSON {
	if t == nil {
		return nil
	}
	return &ThresholdJSON{
		HeartRate:    t.HeartRate,
		Value:        t.Value,
		Unit:         t.Unit,
		Lactate:      t.Lactate,
		PercentOfMax: t.PercentOfMax,
		Method:       t.Method,
		Confidence:   t.Confidence,
	}
}

func zonesJSON(z analysis.ZoneCalculationResult, unit analysis.IntensityUnit) ZonesJSON {
	out := ZonesJSON{
		MaxHR:      z.MaxHR,
		Confidence: string(z.Confidence),
		Method:     string(z.Method),
		Warning:    z.Warning,
	}
	for _, zone := range z.Zones {
		row := ZoneJSON{
			Zone:       zone.Zone,
			Name:       zone.Name,
			Intensity:  zone.Intensity,
			HRMin:      zone.HRMin,
			HRMax:      zone.HRMax,
			PercentMin: zone.PercentMin,
			PercentMax: zone.PercentMax,
			Effect:     zone.Effect,
		}
		if z.Method != analysis.ZoneMethodEstimated {
			switch unit {
			case analysis.UnitSpeed:
				row.SpeedMin, row.SpeedMax = floatPtr(zone.SpeedMin), floatPtr(zone.SpeedMax)
			case analysis.UnitPower:
				row.PowerMin, row.PowerMax = floatPtr(zone.PowerMin), floatPtr(zone.PowerMax)
			case analysis.UnitPace:
				row.PaceMin, row.PaceMax = floatPtr(zone.PaceMin), floatPtr(zone.PaceMax)
			}
		}
		out.Zones = append(out.Zones, row)
	}
	return out
}

func storedZonesJSON(z *store.ZoneResult) *ZonesJSON {
	if z == nil {
		return nil
	}
	out := &ZonesJSON{
		MaxHR:      z.MaxHR,
		Confidence: z.Confidence,
		Method:     z.Method,
		Warning:    z.Warning,
	}
	for _, zone := range z.Zones {
		out.Zones = append(out.Zones, ZoneJSON{
			Zone:       zone.Zone,
			Name:       zone.Name,
			Intensity:  zone.Intensity,
			HRMin:      zone.HRMin,
			HRMax:      zone.HRMax,
			PercentMin: zone.PercentMin,
			PercentMax: zone.PercentMax,
			SpeedMin:   zone.SpeedMin,
			SpeedMax:   zone.SpeedMax,
			PowerMin:   zone.PowerMin,
			PowerMax:   zone.PowerMax,
			PaceMin:    zone.PaceMin,
			PaceMax:    zone.PaceMax,
			Effect:     zone.Effect,
		})
	}
	return out
}

func analysisResponse(res *service.Result) AnalysisResponse {
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return AnalysisResponse{
		TestID:   res.TestID,
		Unit:     string(res.Unit),
		Profile:  string(res.Analysis.Profile.Type),
		LT1:      thresholdJSON(res.Analysis.LT1),
		LT2:      thresholdJSON(res.Analysis.LT2),
		Zones:    zonesJSON(res.Zones, res.Unit),
		Warnings: warnings,
	}
}

func testJSON(t store.StageTest) TestJSON {
	return TestJSON{
		ID:         t.ID,
		Athlete:    t.Athlete,
		Sport:      t.Sport,
		TestedAt:   t.TestedAt,
		Notes:      t.Notes,
		Source:     t.Source,
		StageCount: t.StageCount,
		AnalyzedAt: t.AnalyzedAt,
		Profile:    t.Profile,
		Warnings:   t.Warnings,
	}
}

func detailJSON(d *service.TestDetail) TestJSON {
	out := testJSON(d.Test)
	out.LT1 = storedThresholdJSON(d.LT1)
	out.LT2 = storedThresholdJSON(d.LT2)
	out.Zones = storedZonesJSON(d.Zones)
	for _, s := range d.Stages {
		out.Stages = append(out.Stages, StageJSON{
			Stage:     s.Seq,
			HeartRate: s.HeartRate,
			Lactate:   s.Lactate,
			Speed:     s.Speed,
			Power:     s.Power,
			Pace:      s.Pace,
		})
	}
	if len(d.Overrides) > 0 {
		out.Overrides = make(map[string]OverrideJSON, len(d.Overrides))
		for _, o := range d.Overrides {
			out.Overrides[o.Kind] = OverrideJSON{Lactate: o.Lactate, Intensity: o.Intensity}
		}
	}
	return out
}

func floatPtr(f float64) *float64 {
	return &f
}

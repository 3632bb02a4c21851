package service

import (
	"lactest/internal/analysis"
	"lactest/internal/store"
)

// rawStages converts stored stage rows into engine input
func rawStages(rows []store.Stage) []analysis.RawStage {
	raw := make([]analysis.RawStage, len(rows))
	for i, r := range rows {
		raw[i] = analysis.RawStage{
			Seq:       r.Seq,
			HeartRate: r.HeartRate,
			Lactate:   r.Lactate,
			Speed:     r.Speed,
			Power:     r.Power,
			Pace:      r.Pace,
		}
	}
	return raw
}

// storeStages converts engine input into rows for CreateTest
func storeStages(raw []analysis.RawStage) []store.Stage {
	rows := make([]store.Stage, len(raw))
	for i, r := range raw {
		rows[i] = store.Stage{
			Seq:       r.Seq,
			HeartRate: r.HeartRate,
			Lactate:   r.Lactate,
			Speed:     r.Speed,
			Power:     r.Power,
			Pace:      r.Pace,
		}
	}
	return rows
}

func overrideMap(rows []store.Override) map[analysis.Kind]analysis.ManualOverride {
	if len(rows) == 0 {
		return nil
	}
	m := make(map[analysis.Kind]analysis.ManualOverride, len(rows))
	for _, o := range rows {
		m[analysis.Kind(o.Kind)] = analysis.ManualOverride{Lactate: o.Lactate, Intensity: o.Intensity}
	}
	return m
}

func storeThreshold(kind analysis.Kind, t analysis.Threshold) store.Threshold {
	return store.Threshold{
		Kind:         string(kind),
		HeartRate:    t.HeartRate,
		Value:        t.Value,
		Unit:         string(t.Unit),
		Lactate:      t.Lactate,
		PercentOfMax: t.PercentOfMax,
		Method:       string(t.Method),
		Confidence:   string(t.Confidence),
	}
}

func storeZoneResult(z analysis.ZoneCalculationResult, unit analysis.IntensityUnit) *store.ZoneResult {
	res := &store.ZoneResult{
		MaxHR:      z.MaxHR,
		Confidence: string(z.Confidence),
		Method:     string(z.Method),
		Warning:    z.Warning,
	}
	for _, zone := range z.Zones {
		row := store.Zone{
			Zone:       zone.Zone,
			Name:       zone.Name,
			Intensity:  zone.Intensity,
			HRMin:      zone.HRMin,
			HRMax:      zone.HRMax,
			PercentMin: zone.PercentMin,
			PercentMax: zone.PercentMax,
			Effect:     zone.Effect,
		}
		// Only the test's own measure carries intensity bounds
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
		res.Zones = append(res.Zones, row)
	}
	return res
}

func floatPtr(f float64) *float64 {
	return &f
}

package analysis

import (
	"errors"
	"math"
	"sort"
)

// ErrNoStages is returned when no usable stage remains after normalization
var ErrNoStages = errors.New("no usable stages")

// IntensityUnit tags the single intensity measure shared by a whole test
type IntensityUnit string

const (
	UnitSpeed IntensityUnit = "km/h"
	UnitPower IntensityUnit = "W"
	UnitPace  IntensityUnit = "min/km"
)

// RawStage is one stage record as entered by the tester.
// Exactly one of Speed, Power or Pace is expected to be set.
type RawStage struct {
	Seq       int
	HeartRate float64  // bpm
	Lactate   float64  // mmol/L
	Speed     *float64 // km/h
	Power     *float64 // W
	Pace      *float64 // min/km
}

// Stage is a normalized datapoint of an incremental test
type Stage struct {
	Seq       int
	HeartRate float64
	Lactate   float64
	Intensity float64 // in Unit
	Unit      IntensityUnit
}

// Effort returns the intensity on an axis where larger always means harder.
// Pace is converted to km/h; speed and power pass through.
func (s Stage) Effort() float64 {
	return toEffort(s.Intensity, s.Unit)
}

func toEffort(v float64, unit IntensityUnit) float64 {
	if unit == UnitPace {
		if v <= 0 {
			return 0
		}
		return 60 / v
	}
	return v
}

func fromEffort(x float64, unit IntensityUnit) float64 {
	if unit == UnitPace {
		if x <= 0 {
			return 0
		}
		return 60 / x
	}
	return x
}

// NormalizeStages orders raw records by sequence and tags them with the
// intensity unit of the first complete record. Records missing heart rate,
// lactate or that unit's measure are dropped.
func NormalizeStages(raw []RawStage) ([]Stage, IntensityUnit, error) {
	sorted := make([]RawStage, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Seq < sorted[j].Seq
	})

	var unit IntensityUnit
	for _, r := range sorted {
		if !validReading(r) {
			continue
		}
		if u, ok := rawUnit(r); ok {
			unit = u
			break
		}
	}
	if unit == "" {
		return nil, "", ErrNoStages
	}

	stages := make([]Stage, 0, len(sorted))
	for _, r := range sorted {
		if !validReading(r) {
			continue
		}
		v, ok := rawIntensity(r, unit)
		if !ok {
			continue
		}
		stages = append(stages, Stage{
			Seq:       r.Seq,
			HeartRate: r.HeartRate,
			Lactate:   r.Lactate,
			Intensity: v,
			Unit:      unit,
		})
	}

	if len(stages) == 0 {
		return nil, "", ErrNoStages
	}
	return stages, unit, nil
}

func validReading(r RawStage) bool {
	if r.HeartRate <= 0 || r.HeartRate > 250 {
		return false
	}
	return r.Lactate > 0 && r.Lactate < 30 && !math.IsNaN(r.Lactate)
}

func rawUnit(r RawStage) (IntensityUnit, bool) {
	switch {
	case positive(r.Speed):
		return UnitSpeed, true
	case positive(r.Power):
		return UnitPower, true
	case positive(r.Pace):
		return UnitPace, true
	}
	return "", false
}

func rawIntensity(r RawStage, unit IntensityUnit) (float64, bool) {
	var p *float64
	switch unit {
	case UnitSpeed:
		p = r.Speed
	case UnitPower:
		p = r.Power
	case UnitPace:
		p = r.Pace
	}
	if !positive(p) {
		return 0, false
	}
	return *p, true
}

func positive(p *float64) bool {
	return p != nil && *p > 0 && !math.IsNaN(*p) && !math.IsInf(*p, 0)
}

// interpolateAtEffort returns heart rate and lactate at an effort value,
// linearly between the bracketing stages and clamped to the end stages.
// Stages must be ordered by effort.
func interpolateAtEffort(stages []Stage, x float64) (hr, lactate float64) {
	n := len(stages)
	if n == 0 {
		return 0, 0
	}
	if x <= stages[0].Effort() {
		return stages[0].HeartRate, stages[0].Lactate
	}
	if x >= stages[n-1].Effort() {
		return stages[n-1].HeartRate, stages[n-1].Lactate
	}
	for i := 1; i < n; i++ {
		x0, x1 := stages[i-1].Effort(), stages[i].Effort()
		if x > x1 {
			continue
		}
		if x1 == x0 {
			return stages[i].HeartRate, stages[i].Lactate
		}
		f := (x - x0) / (x1 - x0)
		hr = lerp(stages[i-1].HeartRate, stages[i].HeartRate, f)
		lactate = lerp(stages[i-1].Lactate, stages[i].Lactate, f)
		return hr, lactate
	}
	return stages[n-1].HeartRate, stages[n-1].Lactate
}

// byEffort returns a copy of stages ordered by effort
func byEffort(stages []Stage) []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Effort() < out[j].Effort()
	})
	return out
}

func lerp(a, b, f float64) float64 {
	return a + f*(b-a)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

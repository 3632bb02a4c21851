package importer

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/tormoder/fit"

	"lactest/internal/analysis"
)

// ErrNoLaps is returned when a FIT activity has no lap messages
var ErrNoLaps = errors.New("activity has no laps")

// Lap is the per-lap summary used to build a stage. Zero means not recorded.
type Lap struct {
	AvgHeartRate float64 // bpm
	SpeedKmh     float64
	AvgPower     float64 // W
}

// FITTest is a stage test recovered from a FIT activity
type FITTest struct {
	Start  time.Time
	Sport  string
	Laps   []Lap
	Stages []analysis.RawStage
}

// ReadFIT decodes the FIT activity at path and pairs its laps with the
// lactate samples taken at the end of each stage
func ReadFIT(path string, lactates []float64) (*FITTest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeFIT(f, lactates)
}

// DecodeFIT is ReadFIT on an open reader
func DecodeFIT(r io.Reader, lactates []float64) (*FITTest, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}
	if len(activity.Laps) == 0 {
		return nil, ErrNoLaps
	}

	test := &FITTest{}
	cycling := false
	if len(activity.Sessions) > 0 {
		s := activity.Sessions[0]
		test.Start = validTimeOrZero(s.StartTime)
		test.Sport = sportName(s.Sport)
		cycling = s.Sport == fit.SportCycling
	}

	for _, lap := range activity.Laps {
		if lap == nil {
			continue
		}
		if test.Start.IsZero() {
			test.Start = validTimeOrZero(lap.StartTime)
		}
		test.Laps = append(test.Laps, lapSummary(lap))
	}

	// Cycling tests are power based; everything else uses speed
	test.Stages = StagesFromLaps(test.Laps, lactates, cycling)
	return test, nil
}

// StagesFromLaps builds one stage per lap that has a lactate sample. A zero
// or missing lactate skips the lap, which is how warm-up and cool-down laps
// are left out.
func StagesFromLaps(laps []Lap, lactates []float64, preferPower bool) []analysis.RawStage {
	var stages []analysis.RawStage
	for i, lap := range laps {
		if i >= len(lactates) || lactates[i] <= 0 {
			continue
		}
		s := analysis.RawStage{
			Seq:       len(stages) + 1,
			HeartRate: lap.AvgHeartRate,
			Lactate:   lactates[i],
		}
		switch {
		case preferPower && lap.AvgPower > 0:
			s.Power = floatPtr(lap.AvgPower)
		case lap.SpeedKmh > 0:
			s.Speed = floatPtr(lap.SpeedKmh)
		case lap.AvgPower > 0:
			s.Power = floatPtr(lap.AvgPower)
		}
		stages = append(stages, s)
	}
	return stages
}

func sportName(s fit.Sport) string {
	switch s {
	case fit.SportRunning:
		return "run"
	case fit.SportCycling:
		return "bike"
	case fit.SportRowing:
		return "row"
	}
	return "other"
}

func lapSummary(lap *fit.LapMsg) Lap {
	out := Lap{
		AvgHeartRate: float64(validUint8(lap.AvgHeartRate)),
		AvgPower:     float64(validUint16(lap.AvgPower)),
	}

	// Speed from distance over timer time, else the recorded average
	distM := float64(validUint32(lap.TotalDistance)) / 100
	timerS := float64(validUint32(lap.TotalTimerTime)) / 1000
	if distM > 0 && timerS > 0 {
		out.SpeedKmh = round2(distM / timerS * 3.6)
	} else if v := validUint32(lap.EnhancedAvgSpeed); v > 0 {
		out.SpeedKmh = round2(float64(v) / 1000 * 3.6)
	} else if v := validUint16(lap.AvgSpeed); v > 0 {
		out.SpeedKmh = round2(float64(v) / 1000 * 3.6)
	}
	return out
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t.UTC()
}

func validUint8(v uint8) uint8 {
	if v == math.MaxUint8 {
		return 0
	}
	return v
}

func validUint16(v uint16) uint16 {
	if v == math.MaxUint16 {
		return 0
	}
	return v
}

func validUint32(v uint32) uint32 {
	if v == math.MaxUint32 {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func floatPtr(f float64) *float64 {
	return &f
}

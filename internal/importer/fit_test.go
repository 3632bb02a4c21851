package importer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/tormoder/fit"
)

// buildStageFIT encodes a running activity with one lap per row of
// {km/h, bpm}. Each lap lasts three minutes.
func buildStageFIT(t *testing.T, rows [][2]float64) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		t.Fatalf("new fit file: %v", err)
	}
	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("activity accessor: %v", err)
	}

	start := time.Date(2024, 5, 4, 8, 0, 0, 0, time.UTC)
	const lapSeconds = 180
	for i, r := range rows {
		lap := fit.NewLapMsg()
		lap.StartTime = start.Add(time.Duration(i*lapSeconds) * time.Second)
		lap.Timestamp = lap.StartTime.Add(lapSeconds * time.Second)
		lap.TotalTimerTime = lapSeconds * 1000
		lap.TotalDistance = uint32(r[0] / 3.6 * lapSeconds * 100)
		lap.AvgHeartRate = uint8(r[1])
		activity.Laps = append(activity.Laps, lap)
	}

	session := fit.NewSessionMsg()
	session.StartTime = start
	session.Timestamp = start.Add(time.Duration(len(rows)*lapSeconds) * time.Second)
	session.Sport = fit.SportRunning
	activity.Sessions = append(activity.Sessions, session)

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeFIT(t *testing.T) {
	data := buildStageFIT(t, [][2]float64{
		{6, 105}, // warm-up
		{10, 136},
		{12, 150},
		{14, 164},
	})

	test, err := DecodeFIT(bytes.NewReader(data), []float64{0, 1.4, 2.4, 4.6})
	if err != nil {
		t.Fatalf("DecodeFIT() error: %v", err)
	}
	if len(test.Laps) != 4 {
		t.Fatalf("got %d laps, want 4", len(test.Laps))
	}
	if !test.Start.Equal(time.Date(2024, 5, 4, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v", test.Start)
	}
	if test.Sport != "run" {
		t.Errorf("Sport = %q, want run", test.Sport)
	}

	if len(test.Stages) != 3 {
		t.Fatalf("got %d stages, want 3 (warm-up skipped)", len(test.Stages))
	}
	s := test.Stages[1]
	if s.Seq != 2 || s.HeartRate != 150 || s.Lactate != 2.4 {
		t.Errorf("stage 2 = %+v", s)
	}
	if s.Speed == nil || *s.Speed < 11.95 || *s.Speed > 12.05 {
		t.Errorf("stage 2 speed = %v, want about 12", s.Speed)
	}
}

func TestDecodeFITInvalid(t *testing.T) {
	if _, err := DecodeFIT(bytes.NewReader([]byte("not a fit file")), nil); err == nil {
		t.Error("DecodeFIT() accepted garbage")
	}
}

func TestDecodeFITNoLaps(t *testing.T) {
	data := buildStageFIT(t, nil)
	if _, err := DecodeFIT(bytes.NewReader(data), nil); !errors.Is(err, ErrNoLaps) {
		t.Errorf("DecodeFIT() error = %v, want ErrNoLaps", err)
	}
}

func TestStagesFromLaps(t *testing.T) {
	laps := []Lap{
		{AvgHeartRate: 120, SpeedKmh: 20, AvgPower: 150},
		{AvgHeartRate: 140, SpeedKmh: 25, AvgPower: 200},
		{AvgHeartRate: 160, SpeedKmh: 0, AvgPower: 250},
		{AvgHeartRate: 175, SpeedKmh: 30, AvgPower: 300},
	}

	tests := []struct {
		name        string
		lactates    []float64
		preferPower bool
		wantSeqs    int
		wantPower   bool
	}{
		{name: "speed by default", lactates: []float64{1.0, 1.5, 2.5, 5.0}, wantSeqs: 4},
		{name: "power for cycling", lactates: []float64{1.0, 1.5, 2.5, 5.0}, preferPower: true, wantSeqs: 4, wantPower: true},
		{name: "fewer lactates than laps", lactates: []float64{1.0, 1.5}, wantSeqs: 2},
		{name: "zero skips lap", lactates: []float64{0, 1.5, 0, 5.0}, wantSeqs: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stages := StagesFromLaps(laps, tt.lactates, tt.preferPower)
			if len(stages) != tt.wantSeqs {
				t.Fatalf("got %d stages, want %d", len(stages), tt.wantSeqs)
			}
			for i, s := range stages {
				if s.Seq != i+1 {
					t.Errorf("stage %d Seq = %d", i, s.Seq)
				}
				if tt.wantPower && s.Power == nil {
					t.Errorf("stage %d has no power", i)
				}
			}
		})
	}

	// A lap without speed falls back to power
	stages := StagesFromLaps(laps, []float64{1, 1.5, 2.5, 5}, false)
	if stages[2].Speed != nil || stages[2].Power == nil || *stages[2].Power != 250 {
		t.Errorf("stage 3 = %+v, want power fallback", stages[2])
	}
}

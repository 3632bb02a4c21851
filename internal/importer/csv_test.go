package importer

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	input := `stage,hr,lactate,speed
# warm-up excluded
1,128,1.2,9
2,136,1.4,10
3, 143, "1,8", 11
4,150,2.4,12
`
	stages, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if len(stages) != 4 {
		t.Fatalf("got %d stages, want 4", len(stages))
	}
	s := stages[2]
	if s.Seq != 3 || s.HeartRate != 143 || s.Lactate != 1.8 {
		t.Errorf("stage 3 = %+v", s)
	}
	if s.Speed == nil || *s.Speed != 11 || s.Power != nil || s.Pace != nil {
		t.Errorf("stage 3 intensity = %v %v %v", s.Speed, s.Power, s.Pace)
	}
}

func TestReadCSVPaceAndAliases(t *testing.T) {
	input := "Heart_Rate,LA,Pace\n120,1.1,6:40\n150,2.4,5:00\n171,6.5,4.0\n"
	stages, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if len(stages) != 3 {
		t.Fatalf("got %d stages, want 3", len(stages))
	}
	want := []float64{6 + 40.0/60, 5, 4}
	for i, s := range stages {
		if s.Seq != i+1 {
			t.Errorf("stage %d Seq = %d", i, s.Seq)
		}
		if s.Pace == nil || math.Abs(*s.Pace-want[i]) > 1e-9 {
			t.Errorf("stage %d pace = %v, want %v", i, s.Pace, want[i])
		}
	}
}

func TestReadCSVBlankCells(t *testing.T) {
	input := "stage,hr,lactate,speed,power\n1,130,,10,\n2,140,2.0,,210\n"
	stages, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if stages[0].Lactate != 0 || stages[0].Power != nil {
		t.Errorf("stage 1 = %+v, want unset lactate and power", stages[0])
	}
	if stages[1].Speed != nil || stages[1].Power == nil || *stages[1].Power != 210 {
		t.Errorf("stage 2 = %+v, want power only", stages[1])
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  error
		contains string
	}{
		{name: "empty", input: "", contains: "empty"},
		{name: "no intensity", input: "stage,hr,lactate\n1,130,1.2\n", wantErr: ErrNoIntensityColumn},
		{name: "no lactate", input: "stage,hr,speed\n1,130,10\n", contains: "lactate column"},
		{name: "header only", input: "hr,lactate,speed\n", contains: "no stage rows"},
		{name: "bad number", input: "hr,lactate,speed\n130,high,10\n", contains: "line 2: lactate"},
		{name: "bad pace", input: "hr,lactate,pace\n130,1.2,5:75\n", contains: "invalid pace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.contains != "" && !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q should contain %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestParsePace(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"5:00", 5},
		{"5:30", 5.5},
		{"4:15.0", 4.25},
		{"5.25", 5.25},
	}
	for _, tt := range tests {
		got, err := ParsePace(tt.in)
		if err != nil {
			t.Errorf("ParsePace(%q) error: %v", tt.in, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParsePace(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

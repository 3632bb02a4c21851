package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name       string
		stages     []Stage
		wantLT1    Method
		wantLT1Val float64
		wantLT1HR  int
		wantLT2    Method
		wantLT2Val float64
		tolerance  float64
	}{
		{
			name:       "standard curve falls through to fixed values",
			stages:     speedStages(standardCurve),
			wantLT1:    MethodFixed2,
			wantLT1Val: 11.33,
			wantLT1HR:  145,
			wantLT2:    MethodFixed4,
			wantLT2Val: 13.54,
			tolerance:  0.01,
		},
		{
			name:       "elite curve uses ensemble and Bishop",
			stages:     speedStages(eliteCurve),
			wantLT1:    MethodEliteEnsemble,
			wantLT1Val: 14.5,
			wantLT1HR:  152,
			wantLT2:    MethodBishopDmax,
			wantLT2Val: 16.16,
			tolerance:  0.05,
		},
		{
			name:       "low curve uses baseline delta and nearest stage",
			stages:     speedStages(lowCurve),
			wantLT1:    MethodEliteBaseline,
			wantLT1Val: 15.33,
			wantLT1HR:  157,
			wantLT2:    MethodNearestStage,
			wantLT2Val: 18,
			tolerance:  0.01,
		},
		{
			name:       "pace input",
			stages:     paceStages(standardCurve),
			wantLT1:    MethodFixed2,
			wantLT1Val: 5.29,
			wantLT1HR:  145,
			wantLT2:    MethodFixed4,
			wantLT2Val: 4.43,
			tolerance:  0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Analyze(tt.stages, Options{})
			if err != nil {
				t.Fatalf("Analyze() error: %v", err)
			}
			if got.LT1.Method != tt.wantLT1 {
				t.Errorf("LT1 method = %s, want %s", got.LT1.Method, tt.wantLT1)
			}
			if math.Abs(got.LT1.Value-tt.wantLT1Val) > tt.tolerance {
				t.Errorf("LT1 value = %v, want %v", got.LT1.Value, tt.wantLT1Val)
			}
			if got.LT1.HeartRate != tt.wantLT1HR {
				t.Errorf("LT1 heart rate = %d, want %d", got.LT1.HeartRate, tt.wantLT1HR)
			}
			if got.LT2.Method != tt.wantLT2 {
				t.Errorf("LT2 method = %s, want %s", got.LT2.Method, tt.wantLT2)
			}
			if math.Abs(got.LT2.Value-tt.wantLT2Val) > tt.tolerance {
				t.Errorf("LT2 value = %v, want %v", got.LT2.Value, tt.wantLT2Val)
			}
			if got.LT1.Effort() >= got.LT2.Effort() {
				t.Errorf("LT1 effort %v not below LT2 effort %v", got.LT1.Effort(), got.LT2.Effort())
			}
			if len(got.Warnings) != 0 {
				t.Errorf("unexpected warnings: %v", got.Warnings)
			}
		})
	}
}

func TestAnalyzeSteepCurveRejectsLowDmax(t *testing.T) {
	stages := speedStages(steepCurve)

	dm, ok := StandardDmax(stages)
	if !ok {
		t.Fatal("StandardDmax() returned no result")
	}
	if dm.Lactate >= lt2DmaxFloor {
		t.Fatalf("fixture no longer exercises the steep-curve guard: D-max lactate %v", dm.Lactate)
	}

	got, err := Analyze(stages, Options{})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if got.LT2.Method == MethodDmax {
		t.Errorf("LT2 accepted D-max at %.2f mmol/L on a curve peaking at 12", got.LT2.Lactate)
	}
	if got.LT2.Lactate < 3.0 {
		t.Errorf("LT2 lactate = %v, want >= 3.0", got.LT2.Lactate)
	}

	var rejected bool
	for _, a := range got.Trace {
		if a.Kind == LT2 && a.Method == MethodDmax && a.Outcome == "rejected" {
			rejected = true
		}
	}
	if !rejected {
		t.Error("trace has no rejected LT2 D-max attempt")
	}
}

func TestAnalyzeTrace(t *testing.T) {
	got, err := Analyze(speedStages(standardCurve), Options{})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	want := []struct {
		kind    Kind
		method  Method
		outcome string
	}{
		{LT1, MethodManualLT1, "skipped"},
		{LT1, MethodEliteEnsemble, "skipped"},
		{LT1, MethodDmax, "rejected"},
		{LT1, MethodFixed2, "accepted"},
		{LT2, MethodManualLT2, "skipped"},
		{LT2, MethodBishopDmax, "skipped"},
		{LT2, MethodDmax, "rejected"},
		{LT2, MethodDickhuth, "rejected"},
		{LT2, MethodFixed4, "accepted"},
	}
	if len(got.Trace) != len(want) {
		t.Fatalf("trace has %d attempts, want %d: %+v", len(got.Trace), len(want), got.Trace)
	}
	for i, w := range want {
		a := got.Trace[i]
		if a.Kind != w.kind || a.Method != w.method || a.Outcome != w.outcome {
			t.Errorf("trace[%d] = %s %s %s, want %s %s %s", i, a.Kind, a.Method, a.Outcome, w.kind, w.method, w.outcome)
		}
		if a.Outcome == "rejected" && a.Reason == "" {
			t.Errorf("trace[%d] rejected without a reason", i)
		}
	}
}

func TestAnalyzeManualOverride(t *testing.T) {
	opts := Options{
		Overrides: map[Kind]ManualOverride{
			LT1: {Lactate: 12, Intensity: 10},
		},
	}
	got, err := Analyze(speedStages(standardCurve), opts)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if got.LT1.Method != MethodManualLT1 || got.LT1.Confidence != ConfidenceHigh {
		t.Errorf("LT1 = %s/%s, want MANUAL_LT1/HIGH", got.LT1.Method, got.LT1.Confidence)
	}
	if got.LT1.Lactate != 12 || got.LT1.Value != 10 {
		t.Errorf("LT1 = %v mmol/L at %v, want 12 at 10", got.LT1.Lactate, got.LT1.Value)
	}
	if got.LT2.Method != MethodFixed4 {
		t.Errorf("LT2 method = %s, want automatic %s", got.LT2.Method, MethodFixed4)
	}
}

func TestAnalyzeSeparation(t *testing.T) {
	tests := []struct {
		name         string
		overrides    map[Kind]ManualOverride
		wantMethod   Method
		wantValue    float64
		wantWarnings int
	}{
		{
			name:         "manual LT1 above automatic LT2 is recomputed",
			overrides:    map[Kind]ManualOverride{LT1: {Lactate: 5, Intensity: 15}},
			wantMethod:   MethodFixed2,
			wantValue:    11.33,
			wantWarnings: 1,
		},
		{
			name: "both manual and inverted",
			overrides: map[Kind]ManualOverride{
				LT1: {Lactate: 4, Intensity: 14},
				LT2: {Lactate: 2.5, Intensity: 12},
			},
			wantMethod:   MethodFixed2,
			wantValue:    11.33,
			wantWarnings: 1,
		},
		{
			name: "recomputed LT1 still inverted",
			overrides: map[Kind]ManualOverride{
				LT1: {Lactate: 4, Intensity: 14},
				LT2: {Lactate: 1.9, Intensity: 11},
			},
			wantMethod:   MethodNearestStage,
			wantValue:    10,
			wantWarnings: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Analyze(speedStages(standardCurve), Options{Overrides: tt.overrides})
			if err != nil {
				t.Fatalf("Analyze() error: %v", err)
			}
			if got.LT1.Method != tt.wantMethod {
				t.Errorf("LT1 method = %s, want %s", got.LT1.Method, tt.wantMethod)
			}
			if math.Abs(got.LT1.Value-tt.wantValue) > 0.01 {
				t.Errorf("LT1 value = %v, want %v", got.LT1.Value, tt.wantValue)
			}
			if len(got.Warnings) != tt.wantWarnings {
				t.Errorf("warnings = %v, want %d", got.Warnings, tt.wantWarnings)
			}
			if got.LT1.Effort() >= got.LT2.Effort() {
				t.Errorf("LT1 %v not below LT2 %v", got.LT1.Value, got.LT2.Value)
			}
		})
	}
}

func TestAnalyzeMaxHR(t *testing.T) {
	stages := speedStages(standardCurve)

	got, err := Analyze(stages, Options{})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if got.MaxHR != 177 {
		t.Errorf("MaxHR = %d, want observed 177", got.MaxHR)
	}
	if got.LT1.PercentOfMax != 82 {
		t.Errorf("LT1 PercentOfMax = %d, want 82", got.LT1.PercentOfMax)
	}

	got, err = Analyze(stages, Options{MaxHR: 190})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if got.LT1.PercentOfMax != 76 {
		t.Errorf("LT1 PercentOfMax = %d, want 76", got.LT1.PercentOfMax)
	}
}

func TestAnalyzeProperties(t *testing.T) {
	curves := map[string][]Stage{
		"standard":   speedStages(standardCurve),
		"elite":      speedStages(eliteCurve),
		"steep":      speedStages(steepCurve),
		"low":        speedStages(lowCurve),
		"pace":       paceStages(eliteCurve),
		"power":      curveStages(standardCurve, UnitPower),
		"five stage": speedStages(standardCurve[2:7]),
		"flat":       speedStages(flatCurve),
		"flat pace":  paceStages(flatCurve),
	}
	for name, stages := range curves {
		t.Run(name, func(t *testing.T) {
			got, err := Analyze(stages, Options{})
			if err != nil {
				t.Fatalf("Analyze() error: %v", err)
			}
			for _, th := range []Threshold{got.LT1, got.LT2} {
				if th.PercentOfMax < 0 || th.PercentOfMax > 100 {
					t.Errorf("%s PercentOfMax = %d", th.Method, th.PercentOfMax)
				}
				if th.Confidence == "" || th.Method == "" {
					t.Errorf("threshold without provenance: %+v", th)
				}
			}
			if got.LT1.Effort() >= got.LT2.Effort() {
				t.Errorf("LT1 %v not below LT2 %v", got.LT1.Value, got.LT2.Value)
			}
		})
	}
}

func TestAnalyzeSingleStage(t *testing.T) {
	got, err := Analyze(speedStages(standardCurve[4:5]), Options{})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if got.LT2.Method != MethodNearestStage {
		t.Errorf("LT2 method = %s, want %s", got.LT2.Method, MethodNearestStage)
	}
	if len(got.Warnings) == 0 {
		t.Error("expected a warning when thresholds cannot be separated")
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	_, err := Analyze(nil, Options{})
	if !errors.Is(err, ErrNoThreshold) {
		t.Errorf("Analyze(nil) error = %v, want ErrNoThreshold", err)
	}
}

func TestImplausibleDmaxLT2(t *testing.T) {
	steep := AthleteProfile{BaselineAvg: 1.0, MaxLactate: 12}
	gentle := AthleteProfile{BaselineAvg: 1.0, MaxLactate: 6}

	tests := []struct {
		name    string
		lactate float64
		profile AthleteProfile
		reject  bool
	}{
		{"low on steep curve", 2.8, steep, true},
		{"plausible on steep curve", 3.4, steep, false},
		{"low on gentle curve", 2.8, gentle, false},
		{"at baseline", 1.6, gentle, true},
	}
	for _, tt := range tests {
		reason := implausibleDmaxLT2(Threshold{Lactate: tt.lactate}, tt.profile)
		if (reason != "") != tt.reject {
			t.Errorf("%s: implausibleDmaxLT2() = %q, reject want %v", tt.name, reason, tt.reject)
		}
	}

	if implausibleDickhuthLT2(Threshold{Lactate: 3.2}, steep) == "" {
		t.Error("implausibleDickhuthLT2() accepted 3.2 on a steep curve")
	}
	if implausibleDickhuthLT2(Threshold{Lactate: 3.2}, gentle) != "" {
		t.Error("implausibleDickhuthLT2() rejected 3.2 on a gentle curve")
	}
}

func TestAnalyzeFlatCurve(t *testing.T) {
	got, err := Analyze(speedStages(flatCurve), Options{})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if got.LT2.Value != 14 {
		t.Errorf("LT2 Value = %v, want the hardest stage 14", got.LT2.Value)
	}
	if got.LT1.Value >= got.LT2.Value {
		t.Errorf("LT1 %v not below LT2 %v", got.LT1.Value, got.LT2.Value)
	}
	for _, w := range got.Warnings {
		if strings.Contains(w, "could not be separated") {
			t.Errorf("unexpected warning %q", w)
		}
	}
}

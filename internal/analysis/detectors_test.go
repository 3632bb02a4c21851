package analysis

import (
	"math"
	"strings"
	"testing"
)

func TestLinearInterpolation(t *testing.T) {
	tests := []struct {
		name       string
		stages     []Stage
		kind       Kind
		wantValue  float64
		wantHR     int
		wantMethod Method
		wantConf   Confidence
	}{
		{"LT1 between stages", speedStages(standardCurve), LT1, 11.33, 145, MethodFixed2, ConfidenceMedium},
		{"LT2 between stages", speedStages(standardCurve), LT2, 13.54, 161, MethodFixed4, ConfidenceMedium},
		{"LT1 on a stage", speedStages(steepCurve), LT1, 12.0, 148, MethodFixed2, ConfidenceHigh},
		{"target not reached", speedStages(lowCurve), LT1, 18, 173, MethodFixed2, ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LinearInterpolation(tt.stages, tt.kind)
			if !ok {
				t.Fatal("LinearInterpolation() returned no result")
			}
			if math.Abs(got.Value-tt.wantValue) > 0.01 {
				t.Errorf("Value = %v, want %v", got.Value, tt.wantValue)
			}
			if got.HeartRate != tt.wantHR {
				t.Errorf("HeartRate = %d, want %d", got.HeartRate, tt.wantHR)
			}
			if got.Method != tt.wantMethod {
				t.Errorf("Method = %s, want %s", got.Method, tt.wantMethod)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("Confidence = %s, want %s", got.Confidence, tt.wantConf)
			}
		})
	}

	if _, ok := LinearInterpolation(nil, LT1); ok {
		t.Error("LinearInterpolation(nil) should fail")
	}
}

func TestCrossingOrNearestPrefersSecond(t *testing.T) {
	// Lactate dips after an early spike; the second crossing is the real one
	rows := [][3]float64{
		{10, 130, 1.0}, {11, 138, 4.2}, {12, 146, 3.5}, {13, 154, 5.0},
	}
	sorted := speedStages(rows)

	first := crossingOrNearest(sorted, 4.0, false, MethodFixed4)
	if math.Abs(first.Value-10.94) > 0.01 {
		t.Errorf("first crossing Value = %v, want 10.94", first.Value)
	}
	second := crossingOrNearest(sorted, 4.0, true, MethodFixed4)
	if math.Abs(second.Value-12.33) > 0.01 {
		t.Errorf("second crossing Value = %v, want 12.33", second.Value)
	}
}

func TestNearestStageTies(t *testing.T) {
	stages := speedStages(flatCurve)

	easy, _ := NearestStage(stages, LT1Lactate)
	if easy.Value != 10 {
		t.Errorf("NearestStage() tie = %v, want easiest stage 10", easy.Value)
	}
	hard, _ := nearestStage(stages, LT2Lactate, true)
	if hard.Value != 14 {
		t.Errorf("nearestStage(preferHarder) tie = %v, want hardest stage 14", hard.Value)
	}
	fixed, _ := LinearInterpolation(stages, LT2)
	if fixed.Value != 14 || fixed.Method != MethodFixed4 {
		t.Errorf("LinearInterpolation(LT2) = %v (%s), want 14 (%s)", fixed.Value, fixed.Method, MethodFixed4)
	}
}

func TestNearestStage(t *testing.T) {
	got, ok := NearestStage(speedStages(standardCurve), LT2Lactate)
	if !ok {
		t.Fatal("NearestStage() returned no result")
	}
	if got.Value != 14 || got.Lactate != 4.6 || got.HeartRate != 164 {
		t.Errorf("NearestStage() = %+v, want stage at 14 km/h", got)
	}
	if got.Confidence != ConfidenceLow || got.Method != MethodNearestStage {
		t.Errorf("NearestStage() method/conf = %s/%s", got.Method, got.Confidence)
	}
}

func TestExponentialRise(t *testing.T) {
	tests := []struct {
		name      string
		stages    []Stage
		delta     float64
		wantOK    bool
		wantValue float64
		wantConf  Confidence
	}{
		{"default delta", speedStages(standardCurve), 0, true, 11.5, ConfidenceMedium},
		{"small delta", speedStages(eliteCurve), 0.3, true, 14.5, ConfidenceMedium},
		{"no rise", speedStages(lowCurve), 0.3, false, 0, ""},
		{"too few stages", speedStages(standardCurve[:2]), 0, false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExponentialRise(tt.stages, tt.delta)
			if ok != tt.wantOK {
				t.Fatalf("ExponentialRise() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if math.Abs(got.Value-tt.wantValue) > 0.01 {
				t.Errorf("Value = %v, want %v", got.Value, tt.wantValue)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("Confidence = %s, want %s", got.Confidence, tt.wantConf)
			}
		})
	}
}

func TestExponentialRiseFirstStep(t *testing.T) {
	// A jump straight out of the first stage is not a trustworthy onset
	rows := [][3]float64{
		{10, 130, 1.0}, {11, 138, 2.0}, {12, 146, 3.0}, {13, 154, 4.0},
	}
	got, ok := ExponentialRise(speedStages(rows), 0.5)
	if !ok {
		t.Fatal("ExponentialRise() returned no result")
	}
	if got.Confidence != ConfidenceLow {
		t.Errorf("Confidence = %s, want LOW", got.Confidence)
	}
}

func TestDickhuth(t *testing.T) {
	got, ok := Dickhuth(speedStages(standardCurve), 0)
	if !ok {
		t.Fatal("Dickhuth() returned no result")
	}
	// Minimum equivalent at 9 km/h (1.2 mmol/L), so target is 2.7
	if math.Abs(got.Lactate-2.7) > 0.001 {
		t.Errorf("Lactate = %v, want 2.7", got.Lactate)
	}
	if math.Abs(got.Value-12.33) > 0.01 {
		t.Errorf("Value = %v, want 12.33", got.Value)
	}
	if got.Confidence != ConfidenceHigh {
		t.Errorf("Confidence = %s, want HIGH", got.Confidence)
	}
	if got.Diagnostics == nil || !strings.Contains(got.Diagnostics.Note, "stage 2") {
		t.Errorf("Diagnostics = %+v, want note naming stage 2", got.Diagnostics)
	}

	if _, ok := Dickhuth(speedStages(lowCurve), 0); ok {
		t.Error("Dickhuth() on a curve below min+1.5 should fail")
	}
}

func TestStandardDmax(t *testing.T) {
	got, ok := StandardDmax(speedStages(standardCurve))
	if !ok {
		t.Fatal("StandardDmax() returned no result")
	}
	if math.Abs(got.Value-12.67) > 0.05 {
		t.Errorf("Value = %v, want ~12.67", got.Value)
	}
	if math.Abs(got.Lactate-2.94) > 0.05 {
		t.Errorf("Lactate = %v, want ~2.94", got.Lactate)
	}
	if got.Confidence != ConfidenceHigh {
		t.Errorf("Confidence = %s, want HIGH", got.Confidence)
	}
	if got.Diagnostics == nil || got.Diagnostics.R2 < 0.99 || len(got.Diagnostics.Coefficients) != 4 {
		t.Errorf("Diagnostics = %+v", got.Diagnostics)
	}
	if got.Diagnostics.DmaxDistance <= 0 {
		t.Errorf("DmaxDistance = %v, want > 0", got.Diagnostics.DmaxDistance)
	}
}

func TestStandardDmaxTooFewPoints(t *testing.T) {
	if _, ok := StandardDmax(speedStages(standardCurve[:3])); ok {
		t.Error("StandardDmax() with 3 stages should fail")
	}
}

func TestStandardDmaxLinear(t *testing.T) {
	// A straight line has no point off the chord
	rows := [][3]float64{
		{10, 130, 1.0}, {11, 138, 2.0}, {12, 146, 3.0}, {13, 154, 4.0}, {14, 160, 5.0},
	}
	if got, ok := StandardDmax(speedStages(rows)); ok {
		t.Errorf("StandardDmax() on a line = %+v, want no result", got)
	}
}

func TestBishopDmax(t *testing.T) {
	got, ok := BishopDmax(speedStages(eliteCurve))
	if !ok {
		t.Fatal("BishopDmax() returned no result")
	}
	if math.Abs(got.Value-16.16) > 0.05 {
		t.Errorf("Value = %v, want ~16.16", got.Value)
	}
	if got.Method != MethodBishopDmax {
		t.Errorf("Method = %s", got.Method)
	}

	// Bishop's chord starts later, so it sits above standard D-max
	std, _ := StandardDmax(speedStages(eliteCurve))
	if got.Value <= std.Value {
		t.Errorf("Bishop %v not above standard %v", got.Value, std.Value)
	}

	if _, ok := BishopDmax(speedStages(lowCurve)); ok {
		t.Error("BishopDmax() without a 0.4 rise should fail")
	}
}

func TestDmaxConfidence(t *testing.T) {
	tests := []struct {
		name string
		n    int
		r2   float64
		t    float64
		want Confidence
	}{
		{"good fit", 8, 0.98, 0.5, ConfidenceHigh},
		{"four points", 4, 1.0, 0.5, ConfidenceMedium},
		{"loose fit", 8, 0.9, 0.5, ConfidenceMedium},
		{"poor fit", 8, 0.7, 0.5, ConfidenceLow},
		{"near start", 8, 0.99, 0.02, ConfidenceLow},
		{"near end", 8, 0.99, 0.98, ConfidenceLow},
	}
	for _, tt := range tests {
		if got := dmaxConfidence(tt.n, tt.r2, tt.t, 0, 1); got != tt.want {
			t.Errorf("%s: dmaxConfidence() = %s, want %s", tt.name, got, tt.want)
		}
	}
}

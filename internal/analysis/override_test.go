package analysis

import "testing"

func TestManualThreshold(t *testing.T) {
	stages := speedStages(standardCurve)

	tests := []struct {
		name   string
		ov     ManualOverride
		kind   Kind
		wantHR int
		method Method
	}{
		{"on a stage", ManualOverride{Lactate: 12, Intensity: 10}, LT1, 136, MethodManualLT1},
		{"between stages", ManualOverride{Lactate: 3.8, Intensity: 13.5}, LT2, 161, MethodManualLT2},
		{"above the tested range", ManualOverride{Lactate: 4, Intensity: 20}, LT2, 177, MethodManualLT2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ManualThreshold(stages, tt.ov, tt.kind)
			if got.Value != tt.ov.Intensity {
				t.Errorf("Value = %v, want %v", got.Value, tt.ov.Intensity)
			}
			if got.Lactate != tt.ov.Lactate {
				t.Errorf("Lactate = %v, want %v", got.Lactate, tt.ov.Lactate)
			}
			if got.HeartRate != tt.wantHR {
				t.Errorf("HeartRate = %d, want %d", got.HeartRate, tt.wantHR)
			}
			if got.Method != tt.method || got.Confidence != ConfidenceHigh {
				t.Errorf("method/conf = %s/%s, want %s/HIGH", got.Method, got.Confidence, tt.method)
			}
			if got.Unit != UnitSpeed {
				t.Errorf("Unit = %q", got.Unit)
			}
		})
	}
}

func TestManualThresholdPace(t *testing.T) {
	stages := paceStages(standardCurve)
	// 5:00 min/km is 12 km/h
	got := ManualThreshold(stages, ManualOverride{Lactate: 2.4, Intensity: 5}, LT1)
	if got.HeartRate != 150 {
		t.Errorf("HeartRate = %d, want 150", got.HeartRate)
	}
	if got.Value != 5 || got.Unit != UnitPace {
		t.Errorf("Value = %v %s, want 5 min/km", got.Value, got.Unit)
	}
}

func TestManualThresholdNoStages(t *testing.T) {
	got := ManualThreshold(nil, ManualOverride{Lactate: 2, Intensity: 11}, LT1)
	if got.HeartRate != 0 || got.Value != 11 || got.Confidence != ConfidenceHigh {
		t.Errorf("ManualThreshold(nil) = %+v", got)
	}
}

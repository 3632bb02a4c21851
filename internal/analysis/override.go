package analysis

import "math"

// ManualOverride is a tester-supplied lactate/intensity pair
type ManualOverride struct {
	Lactate   float64 // mmol/L
	Intensity float64 // in the test's unit
}

// ManualThreshold turns an override into a threshold. Heart rate is
// interpolated between the stages bracketing the intensity, or taken from
// the nearest end stage outside the tested range. It always succeeds.
func ManualThreshold(stages []Stage, ov ManualOverride, kind Kind) Threshold {
	method := MethodManualLT2
	if kind == LT1 {
		method = MethodManualLT1
	}

	th := Threshold{
		Value:      round2(ov.Intensity),
		Lactate:    round2(ov.Lactate),
		Method:     method,
		Confidence: ConfidenceHigh,
	}
	if len(stages) == 0 {
		return th
	}

	sorted := byEffort(stages)
	th.Unit = sorted[0].Unit
	hr, _ := interpolateAtEffort(sorted, toEffort(ov.Intensity, th.Unit))
	th.HeartRate = int(math.Round(hr))
	return th
}

package analysis

import "math"

// Kind identifies which physiological breakpoint a threshold describes
type Kind string

const (
	LT1 Kind = "LT1" // aerobic threshold
	LT2 Kind = "LT2" // anaerobic threshold
)

// Method records which strategy produced a threshold
type Method string

const (
	MethodManualLT1       Method = "MANUAL_LT1"
	MethodManualLT2       Method = "MANUAL_LT2"
	MethodEliteEnsemble   Method = "ELITE_ENSEMBLE"
	MethodDmax            Method = "DMAX"
	MethodBishopDmax      Method = "BISHOP_DMAX"
	MethodExponentialRise Method = "EXPONENTIAL_RISE"
	MethodDickhuth        Method = "DICKHUTH"
	MethodFixed2          Method = "FIXED_2_0"
	MethodFixed4          Method = "FIXED_4_0"
	MethodEliteBaseline   Method = "ELITE_BASELINE_DELTA"
	MethodNearestStage    Method = "NEAREST_STAGE"
)

// Confidence is the trust tier attached to every estimate
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether c is as trustworthy as other
func (c Confidence) AtLeast(other Confidence) bool {
	return c.rank() >= other.rank()
}

// Diagnostics carries curve-fit details for debugging only
type Diagnostics struct {
	R2           float64
	Coefficients []float64 // cubic, lowest order first, on effort scaled to [0,1]
	DmaxDistance float64
	Note         string
}

// Threshold is one located breakpoint
type Threshold struct {
	HeartRate    int
	Value        float64 // intensity in Unit
	Unit         IntensityUnit
	Lactate      float64
	PercentOfMax int
	Method       Method
	Confidence   Confidence
	Diagnostics  *Diagnostics
}

// Effort returns the threshold intensity on the harder-is-larger axis
func (t Threshold) Effort() float64 {
	return toEffort(t.Value, t.Unit)
}

// thresholdAt builds a threshold at an effort value on the stage curve.
// Lactate comes from the caller, heart rate from interpolation.
func thresholdAt(stages []Stage, x, lactate float64, method Method, conf Confidence) Threshold {
	hr, _ := interpolateAtEffort(stages, x)
	unit := stages[0].Unit
	return Threshold{
		HeartRate:  int(math.Round(hr)),
		Value:      round2(fromEffort(x, unit)),
		Unit:       unit,
		Lactate:    round2(lactate),
		Method:     method,
		Confidence: conf,
	}
}

// withPercentOfMax fills PercentOfMax relative to maxHR, clamped to 0–100
func (t Threshold) withPercentOfMax(maxHR int) Threshold {
	if maxHR <= 0 {
		return t
	}
	p := int(math.Round(float64(t.HeartRate) / float64(maxHR) * 100))
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	t.PercentOfMax = p
	return t
}

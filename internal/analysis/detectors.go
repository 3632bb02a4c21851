package analysis

import (
	"math"
	"strconv"
)

const (
	LT1Lactate = 2.0 // mmol/L
	LT2Lactate = 4.0 // mmol/L

	DefaultRiseDelta      = 0.5 // mmol/L between consecutive stages
	DefaultDickhuthOffset = 1.5 // mmol/L above the minimum equivalent

	minRisePoints = 3
)

// FixedTarget returns the fixed lactate concentration used for a kind
func FixedTarget(kind Kind) float64 {
	if kind == LT1 {
		return LT1Lactate
	}
	return LT2Lactate
}

func fixedMethod(kind Kind) Method {
	if kind == LT1 {
		return MethodFixed2
	}
	return MethodFixed4
}

// LinearInterpolation interpolates heart rate and intensity at the first
// upward crossing of the fixed lactate target for kind. When lactate never
// crosses the target it returns the nearest stage with LOW confidence.
func LinearInterpolation(stages []Stage, kind Kind) (Threshold, bool) {
	if len(stages) == 0 {
		return Threshold{}, false
	}
	return crossingOrNearest(byEffort(stages), FixedTarget(kind), false, fixedMethod(kind)), true
}

// NearestStage returns the stage whose lactate is closest to target. Ties
// go to the easier stage.
func NearestStage(stages []Stage, target float64) (Threshold, bool) {
	return nearestStage(stages, target, false)
}

// nearestStage breaks ties toward the harder stage when preferHarder is set.
// LT2 fallbacks use it so a flat curve still leaves room for LT1 below.
func nearestStage(stages []Stage, target float64, preferHarder bool) (Threshold, bool) {
	if len(stages) == 0 {
		return Threshold{}, false
	}
	sorted := byEffort(stages)
	best := 0
	for i, s := range sorted {
		d, bd := math.Abs(s.Lactate-target), math.Abs(sorted[best].Lactate-target)
		if d < bd || (preferHarder && d == bd) {
			best = i
		}
	}
	s := sorted[best]
	return thresholdAt(sorted, s.Effort(), s.Lactate, MethodNearestStage, ConfidenceLow), true
}

// ExponentialRise marks the onset of accumulation at the first stage-to-stage
// increase larger than riseDelta. The threshold is the midpoint between the
// last stable stage and the rise stage.
func ExponentialRise(stages []Stage, riseDelta float64) (Threshold, bool) {
	if len(stages) < minRisePoints {
		return Threshold{}, false
	}
	if riseDelta <= 0 {
		riseDelta = DefaultRiseDelta
	}
	sorted := byEffort(stages)
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Lactate-prev.Lactate <= riseDelta {
			continue
		}
		conf := ConfidenceLow
		sustained := i+1 < len(sorted) && sorted[i+1].Lactate-cur.Lactate > riseDelta
		if sustained && i > 1 {
			conf = ConfidenceMedium
		}
		x := (prev.Effort() + cur.Effort()) / 2
		return thresholdAt(sorted, x, (prev.Lactate+cur.Lactate)/2, MethodExponentialRise, conf), true
	}
	return Threshold{}, false
}

// Dickhuth finds the stage with the lowest lactate equivalent
// (lactate / intensity) and places LT2 at that lactate plus offset,
// interpolated back onto the curve.
func Dickhuth(stages []Stage, offset float64) (Threshold, bool) {
	if len(stages) < minRisePoints {
		return Threshold{}, false
	}
	if offset <= 0 {
		offset = DefaultDickhuthOffset
	}
	sorted := byEffort(stages)

	minIdx := -1
	minEq := math.Inf(1)
	for i, s := range sorted {
		x := s.Effort()
		if x <= 0 {
			continue
		}
		if eq := s.Lactate / x; eq < minEq {
			minEq, minIdx = eq, i
		}
	}
	if minIdx < 0 {
		return Threshold{}, false
	}

	target := sorted[minIdx].Lactate + offset
	idx := upwardCrossings(sorted, target, minIdx)
	if len(idx) == 0 {
		return Threshold{}, false
	}

	conf := ConfidenceLow
	if minIdx > 0 && minIdx < len(sorted)-1 {
		conf = ConfidenceMedium
		if len(sorted) >= 6 {
			conf = ConfidenceHigh
		}
	}
	th := interpolateCrossing(sorted, idx[0], target, MethodDickhuth, conf)
	th.Diagnostics = &Diagnostics{Note: "minimum equivalent at stage " + strconv.Itoa(sorted[minIdx].Seq)}
	return th, true
}

// eliteBaselineDelta places LT1 where lactate first exceeds the resting
// baseline by delta. Used for flat curves that never reach 2.0 mmol/L.
func eliteBaselineDelta(stages []Stage, profile AthleteProfile, delta float64) (Threshold, bool) {
	if len(stages) < minRisePoints {
		return Threshold{}, false
	}
	sorted := byEffort(stages)
	target := profile.BaselineAvg + delta
	idx := upwardCrossings(sorted, target, 0)
	if len(idx) == 0 {
		return Threshold{}, false
	}
	return interpolateCrossing(sorted, idx[0], target, MethodEliteBaseline, ConfidenceMedium), true
}

// crossingOrNearest interpolates at the first (or second, when preferSecond
// and available) upward crossing of target, else the nearest stage.
func crossingOrNearest(sorted []Stage, target float64, preferSecond bool, method Method) Threshold {
	idx := upwardCrossings(sorted, target, 0)
	if len(idx) == 0 {
		th, _ := nearestStage(sorted, target, target >= LT2Lactate)
		th.Method = method
		th.Diagnostics = &Diagnostics{Note: "target not reached; nearest stage"}
		return th
	}
	pick := idx[0]
	if preferSecond && len(idx) > 1 {
		pick = idx[1]
	}

	conf := ConfidenceMedium
	if math.Abs(sorted[pick].Lactate-target) <= 0.1 || math.Abs(sorted[pick-1].Lactate-target) <= 0.1 {
		conf = ConfidenceHigh
	}
	return interpolateCrossing(sorted, pick, target, method, conf)
}

// upwardCrossings returns indices i > from where lactate moves from below
// target at i-1 to at-or-above target at i.
func upwardCrossings(sorted []Stage, target float64, from int) []int {
	var idx []int
	for i := from + 1; i < len(sorted); i++ {
		if sorted[i-1].Lactate < target && sorted[i].Lactate >= target {
			idx = append(idx, i)
		}
	}
	return idx
}

func interpolateCrossing(sorted []Stage, i int, target float64, method Method, conf Confidence) Threshold {
	a, b := sorted[i-1], sorted[i]
	f := 1.0
	if b.Lactate != a.Lactate {
		f = (target - a.Lactate) / (b.Lactate - a.Lactate)
	}
	x := lerp(a.Effort(), b.Effort(), f)
	return thresholdAt(sorted, x, target, method, conf)
}

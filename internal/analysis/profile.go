package analysis

import "math"

// ProfileType classifies the shape of an athlete's lactate curve
type ProfileType string

const (
	ProfileEliteFlat ProfileType = "ELITE_FLAT"
	ProfileStandard  ProfileType = "STANDARD"
)

const (
	eliteBaselineMax = 1.5 // mmol/L
	eliteSlopeMax    = 0.1 // mmol/L per stage
	minBaselinePts   = 3
)

// AthleteProfile summarizes the low-intensity segment of a test
type AthleteProfile struct {
	Type          ProfileType
	BaselineAvg   float64 // mmol/L
	BaselineSlope float64 // mmol/L per stage
	MaxLactate    float64
	LactateRange  float64
}

// IsElite reports whether the curve is flat and low at easy intensities
func (p AthleteProfile) IsElite() bool {
	return p.Type == ProfileEliteFlat
}

// ClassifyProfile computes baseline statistics and the profile type.
// It never fails; with fewer than three stages the profile is STANDARD.
func ClassifyProfile(stages []Stage) AthleteProfile {
	profile := AthleteProfile{Type: ProfileStandard}
	if len(stages) == 0 {
		return profile
	}

	sorted := byEffort(stages)
	minL := sorted[0].Lactate
	for _, s := range sorted {
		if s.Lactate > profile.MaxLactate {
			profile.MaxLactate = s.Lactate
		}
		if s.Lactate < minL {
			minL = s.Lactate
		}
	}
	profile.LactateRange = profile.MaxLactate - minL

	base := baselineSegment(sorted)
	profile.BaselineAvg = mean(lactates(base))
	if len(base) < minBaselinePts {
		return profile
	}
	profile.BaselineSlope = slopePerStage(lactates(base))

	if profile.BaselineAvg <= eliteBaselineMax && math.Abs(profile.BaselineSlope) <= eliteSlopeMax {
		profile.Type = ProfileEliteFlat
	}
	return profile
}

// baselineSegment returns the lowest-intensity stages: the first 40% of the
// test, never fewer than three.
func baselineSegment(sorted []Stage) []Stage {
	n := int(math.Ceil(float64(len(sorted)) * 0.4))
	if n < minBaselinePts {
		n = minBaselinePts
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

func lactates(stages []Stage) []float64 {
	out := make([]float64, len(stages))
	for i, s := range stages {
		out[i] = s.Lactate
	}
	return out
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// slopePerStage is the least-squares slope of values against their index
func slopePerStage(v []float64) float64 {
	n := float64(len(v))
	if n < 2 {
		return 0
	}
	var sx, sy, sxx, sxy float64
	for i, y := range v {
		x := float64(i)
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}

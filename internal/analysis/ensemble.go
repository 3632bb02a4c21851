package analysis

import (
	"fmt"
	"math"
	"sort"
)

const (
	ensembleMinPoints = 5
	ensembleRiseDelta = 0.3 // elite curves rise in small steps
	ensembleBaseDelta = 0.5
)

// EliteEnsemble estimates LT1 on flat, low curves by letting three
// independent voters propose an intensity and taking the median:
//
//   - onset of a stage-to-stage rise larger than 0.3 mmol/L
//   - first crossing of baseline + 0.5 mmol/L
//   - breakpoint of a two-segment log-log regression
//
// Confidence follows agreement: the spread of the proposals relative to the
// tested intensity range.
func EliteEnsemble(stages []Stage, profile AthleteProfile) (Threshold, bool) {
	if !profile.IsElite() || len(stages) < ensembleMinPoints {
		return Threshold{}, false
	}
	sorted := byEffort(stages)

	var votes []float64
	if th, ok := ExponentialRise(sorted, ensembleRiseDelta); ok {
		votes = append(votes, th.Effort())
	}
	if th, ok := eliteBaselineDelta(sorted, profile, ensembleBaseDelta); ok {
		votes = append(votes, th.Effort())
	}
	if x, ok := logLogBreakpoint(sorted); ok {
		votes = append(votes, x)
	}
	if len(votes) < 2 {
		return Threshold{}, false
	}

	sort.Float64s(votes)
	x := median(votes)
	span := sorted[len(sorted)-1].Effort() - sorted[0].Effort()
	spread := 1.0
	if span > 0 {
		spread = (votes[len(votes)-1] - votes[0]) / span
	}

	conf := ConfidenceLow
	switch {
	case len(votes) >= 3 && spread <= 0.10:
		conf = ConfidenceHigh
	case spread <= 0.20:
		conf = ConfidenceMedium
	}

	_, lactate := interpolateAtEffort(sorted, x)
	th := thresholdAt(sorted, x, lactate, MethodEliteEnsemble, conf)
	th.Diagnostics = &Diagnostics{
		Note: fmt.Sprintf("%d votes, spread %.0f%% of range", len(votes), spread*100),
	}
	return th, true
}

// logLogBreakpoint splits the curve in log(lactate) vs log(intensity) space
// into two least-squares lines and returns the intensity where the best pair
// intersects.
func logLogBreakpoint(sorted []Stage) (float64, bool) {
	n := len(sorted)
	if n < 4 {
		return 0, false
	}
	lx := make([]float64, n)
	ly := make([]float64, n)
	for i, s := range sorted {
		if s.Effort() <= 0 || s.Lactate <= 0 {
			return 0, false
		}
		lx[i] = math.Log(s.Effort())
		ly[i] = math.Log(s.Lactate)
	}

	bestSSE := math.Inf(1)
	bestX := 0.0
	found := false
	for split := 2; split <= n-2; split++ {
		m1, b1, sse1, ok1 := lineFit(lx[:split], ly[:split])
		m2, b2, sse2, ok2 := lineFit(lx[split:], ly[split:])
		if !ok1 || !ok2 {
			continue
		}
		if sse := sse1 + sse2; sse < bestSSE {
			lo, hi := lx[split-1], lx[split]
			bx := (lo + hi) / 2
			if m1 != m2 {
				bx = (b2 - b1) / (m1 - m2)
			}
			bx = math.Max(lo, math.Min(hi, bx))
			bestSSE, bestX, found = sse, math.Exp(bx), true
		}
	}
	return bestX, found
}

// lineFit returns slope, intercept and residual sum of squares
func lineFit(xs, ys []float64) (m, b, sse float64, ok bool) {
	n := float64(len(xs))
	if n < 2 {
		return 0, 0, 0, false
	}
	var sx, sy, sxx, sxy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		sxy += xs[i] * ys[i]
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0, 0, 0, false
	}
	m = (n*sxy - sx*sy) / den
	b = (sy - m*sx) / n
	for i := range xs {
		d := ys[i] - (m*xs[i] + b)
		sse += d * d
	}
	return m, b, sse, true
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

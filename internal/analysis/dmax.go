package analysis

import "math"

const (
	minCurvePoints = 4
	dmaxSteps      = 500
	bishopRise     = 0.4 // mmol/L between consecutive stages
)

// StandardDmax locates the point of the fitted curve farthest from the chord
// joining the first and last stages.
func StandardDmax(stages []Stage) (Threshold, bool) {
	if len(stages) < minCurvePoints {
		return Threshold{}, false
	}
	return dmax(byEffort(stages), 0, MethodDmax)
}

// BishopDmax is D-max with the chord anchored at the stage immediately
// preceding the first rise of more than 0.4 mmol/L.
func BishopDmax(stages []Stage) (Threshold, bool) {
	if len(stages) < minCurvePoints {
		return Threshold{}, false
	}
	sorted := byEffort(stages)
	anchor := -1
	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i+1].Lactate-sorted[i].Lactate > bishopRise {
			anchor = i
			break
		}
	}
	// Need at least one stage between the anchor and the last stage
	if anchor < 0 || anchor > len(sorted)-3 {
		return Threshold{}, false
	}
	return dmax(sorted, anchor, MethodBishopDmax)
}

func dmax(sorted []Stage, anchor int, method Method) (Threshold, bool) {
	n := len(sorted)
	xmin, xmax := sorted[0].Effort(), sorted[n-1].Effort()
	span := xmax - xmin
	if span <= 0 {
		return Threshold{}, false
	}

	ts := make([]float64, n)
	ys := make([]float64, n)
	for i, s := range sorted {
		ts[i] = (s.Effort() - xmin) / span
		ys[i] = s.Lactate
	}

	degree := distinctCount(ts) - 1
	if degree > 3 {
		degree = 3
	}
	if degree < 2 {
		return Threshold{}, false
	}
	curve, r2, ok := polyFit(ts, ys, degree)
	if !ok {
		return Threshold{}, false
	}

	t0, y0 := ts[anchor], ys[anchor]
	t1, y1 := ts[n-1], ys[n-1]
	if t1 <= t0 {
		return Threshold{}, false
	}
	slope := (y1 - y0) / (t1 - t0)

	bestT, bestD := 0.0, 0.0
	for i := 1; i < dmaxSteps; i++ {
		t := t0 + (t1-t0)*float64(i)/dmaxSteps
		d := y0 + slope*(t-t0) - curve.eval(t)
		if d > bestD {
			bestD, bestT = d, t
		}
	}
	if bestD <= 1e-9 {
		return Threshold{}, false
	}

	// Vertical gap to perpendicular distance
	perp := bestD / math.Sqrt(1+slope*slope)

	lactate := curve.eval(bestT)
	if lactate < 0 {
		lactate = 0
	}

	conf := dmaxConfidence(n, r2, bestT, t0, t1)
	th := thresholdAt(sorted, xmin+bestT*span, lactate, method, conf)
	th.Diagnostics = &Diagnostics{
		R2:           round4(r2),
		Coefficients: []float64(curve),
		DmaxDistance: round4(perp),
	}
	return th, true
}

// dmaxConfidence grades a fit. A cubic through four points is exact, so it
// never earns HIGH; maxima hugging the chord ends are LOW.
func dmaxConfidence(n int, r2, t, t0, t1 float64) Confidence {
	edge := (t1 - t0) * 0.05
	if t-t0 < edge || t1-t < edge {
		return ConfidenceLow
	}
	switch {
	case n >= 5 && r2 >= 0.95:
		return ConfidenceHigh
	case r2 >= 0.85:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func distinctCount(v []float64) int {
	seen := make(map[float64]struct{}, len(v))
	for _, x := range v {
		seen[x] = struct{}{}
	}
	return len(seen)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

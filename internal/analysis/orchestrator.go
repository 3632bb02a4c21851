package analysis

import (
	"errors"
	"fmt"
)

// ErrNoThreshold is returned when no method, fallbacks included, can
// produce an estimate
var ErrNoThreshold = errors.New("no threshold could be estimated")

const (
	lt1DmaxMin = 1.5 // mmol/L
	lt1DmaxMax = 2.5

	steepMaxLactate   = 8.0 // mmol/L
	lt2DmaxFloor      = 3.0
	lt2DickhuthFloor  = 3.5
	lt2BaselineMargin = 1.0
	eliteLT1Delta     = 0.3
)

// Options tunes a single analysis. The zero value uses defaults.
type Options struct {
	MaxHR          int // bpm; 0 uses the highest stage heart rate
	Overrides      map[Kind]ManualOverride
	RiseDelta      float64
	DickhuthOffset float64
}

// Attempt records one step of a priority chain
type Attempt struct {
	Kind      Kind
	Method    Method
	Outcome   string // "accepted", "rejected", "unavailable", "skipped"
	Reason    string
	Candidate *Threshold
}

// Analysis is the outcome of threshold detection for one test
type Analysis struct {
	LT1      Threshold
	LT2      Threshold
	Profile  AthleteProfile
	Unit     IntensityUnit
	MaxHR    int
	Warnings []string
	Trace    []Attempt
}

type chain struct {
	stages  []Stage
	profile AthleteProfile
	opts    Options
}

// step is one strategy in a priority chain. when gates the step, validate
// returns a rejection reason or "".
type step struct {
	method   Method
	when     func(c *chain) bool
	run      func(c *chain) (Threshold, bool)
	validate func(c *chain, t Threshold) string
	terminal bool
}

// Analyze runs both threshold chains, applies the LT1 < LT2 sanity check
// and returns thresholds with provenance.
func Analyze(stages []Stage, opts Options) (*Analysis, error) {
	if len(stages) == 0 {
		return nil, ErrNoThreshold
	}

	c := &chain{
		stages:  byEffort(stages),
		profile: ClassifyProfile(stages),
		opts:    opts,
	}
	result := &Analysis{
		Profile: c.profile,
		Unit:    c.stages[0].Unit,
		MaxHR:   opts.MaxHR,
	}
	if result.MaxHR <= 0 {
		result.MaxHR = observedMaxHR(c.stages)
	}

	lt1, trace1, ok := c.run(LT1, lt1Chain())
	result.Trace = append(result.Trace, trace1...)
	if !ok {
		return nil, fmt.Errorf("LT1: %w", ErrNoThreshold)
	}
	lt2, trace2, ok := c.run(LT2, lt2Chain())
	result.Trace = append(result.Trace, trace2...)
	if !ok {
		return nil, fmt.Errorf("LT2: %w", ErrNoThreshold)
	}

	lt1, result.Warnings = separateThresholds(c.stages, lt1, lt2)

	result.LT1 = lt1.withPercentOfMax(result.MaxHR)
	result.LT2 = lt2.withPercentOfMax(result.MaxHR)
	return result, nil
}

// separateThresholds enforces LT1 below LT2. An inverted LT1 is discarded
// and recomputed at 2.0 mmol/L regardless of its original quality.
func separateThresholds(sorted []Stage, lt1, lt2 Threshold) (Threshold, []string) {
	if lt1.Effort() < lt2.Effort() {
		return lt1, nil
	}

	warnings := []string{fmt.Sprintf(
		"LT1 (%s, %.2f %s) was not below LT2 (%.2f %s); LT1 recomputed at %.1f mmol/L",
		lt1.Method, lt1.Value, lt1.Unit, lt2.Value, lt2.Unit, LT1Lactate)}
	lt1, _ = LinearInterpolation(sorted, LT1)
	if lt1.Effort() < lt2.Effort() {
		return lt1, warnings
	}

	// Still inverted: take the highest stage below LT2
	for i := len(sorted) - 1; i >= 0; i-- {
		s := sorted[i]
		if s.Effort() < lt2.Effort() {
			lt1 = thresholdAt(sorted, s.Effort(), s.Lactate, MethodNearestStage, ConfidenceLow)
			warnings = append(warnings, "LT1 at 2.0 mmol/L still not below LT2; using the stage preceding LT2")
			return lt1, warnings
		}
	}
	warnings = append(warnings, "no stage lies below LT2; LT1 could not be separated")
	return lt1, warnings
}

// run evaluates steps in order and returns the first accepted threshold.
// Non-terminal steps must reach MEDIUM confidence.
func (c *chain) run(kind Kind, steps []step) (Threshold, []Attempt, bool) {
	var trace []Attempt
	for _, s := range steps {
		a := Attempt{Kind: kind, Method: s.method}
		if s.when != nil && !s.when(c) {
			a.Outcome = "skipped"
			trace = append(trace, a)
			continue
		}
		th, ok := s.run(c)
		if !ok {
			a.Outcome = "unavailable"
			trace = append(trace, a)
			continue
		}
		cand := th
		a.Candidate = &cand

		reason := ""
		if s.validate != nil {
			reason = s.validate(c, th)
		}
		if reason == "" && !s.terminal && !th.Confidence.AtLeast(ConfidenceMedium) {
			reason = "confidence " + string(th.Confidence)
		}
		if reason != "" {
			a.Outcome = "rejected"
			a.Reason = reason
			trace = append(trace, a)
			continue
		}

		a.Outcome = "accepted"
		trace = append(trace, a)
		return th, trace, true
	}
	return Threshold{}, trace, false
}

func manualStep(kind Kind) step {
	return step{
		method: map[Kind]Method{LT1: MethodManualLT1, LT2: MethodManualLT2}[kind],
		when: func(c *chain) bool {
			_, ok := c.opts.Overrides[kind]
			return ok
		},
		run: func(c *chain) (Threshold, bool) {
			return ManualThreshold(c.stages, c.opts.Overrides[kind], kind), true
		},
	}
}

func lt1Chain() []step {
	return []step{
		manualStep(LT1),
		{
			method: MethodEliteEnsemble,
			when: func(c *chain) bool {
				return c.profile.IsElite() && len(c.stages) >= ensembleMinPoints
			},
			run: func(c *chain) (Threshold, bool) {
				return EliteEnsemble(c.stages, c.profile)
			},
		},
		{
			method: MethodDmax,
			run: func(c *chain) (Threshold, bool) {
				return StandardDmax(c.stages)
			},
			validate: func(c *chain, t Threshold) string {
				if t.Lactate < lt1DmaxMin || t.Lactate > lt1DmaxMax {
					return fmt.Sprintf("lactate %.2f outside [%.1f, %.1f]", t.Lactate, lt1DmaxMin, lt1DmaxMax)
				}
				return ""
			},
		},
		{
			method: MethodFixed2,
			run: func(c *chain) (Threshold, bool) {
				return LinearInterpolation(c.stages, LT1)
			},
		},
		{
			method: MethodEliteBaseline,
			when: func(c *chain) bool {
				return c.profile.IsElite() && c.profile.MaxLactate < LT1Lactate
			},
			run: func(c *chain) (Threshold, bool) {
				return eliteBaselineDelta(c.stages, c.profile, eliteLT1Delta)
			},
		},
		{
			method:   MethodNearestStage,
			run:      func(c *chain) (Threshold, bool) { return NearestStage(c.stages, LT1Lactate) },
			terminal: true,
		},
	}
}

func lt2Chain() []step {
	return []step{
		manualStep(LT2),
		{
			method: MethodBishopDmax,
			when:   func(c *chain) bool { return c.profile.IsElite() },
			run: func(c *chain) (Threshold, bool) {
				return BishopDmax(c.stages)
			},
		},
		{
			method: MethodDmax,
			run: func(c *chain) (Threshold, bool) {
				return StandardDmax(c.stages)
			},
			validate: func(c *chain, t Threshold) string {
				return implausibleDmaxLT2(t, c.profile)
			},
		},
		{
			method: MethodDickhuth,
			run: func(c *chain) (Threshold, bool) {
				return Dickhuth(c.stages, c.opts.DickhuthOffset)
			},
			validate: func(c *chain, t Threshold) string {
				return implausibleDickhuthLT2(t, c.profile)
			},
		},
		{
			method: MethodFixed4,
			run: func(c *chain) (Threshold, bool) {
				return crossingOrNearest(c.stages, LT2Lactate, true, MethodFixed4), true
			},
		},
		{
			method:   MethodNearestStage,
			run:      func(c *chain) (Threshold, bool) { return nearestStage(c.stages, LT2Lactate, true) },
			terminal: true,
		},
	}
}

// implausibleDmaxLT2 rejects D-max results that look like LT1: too low on a
// steep curve, or barely above the resting baseline.
func implausibleDmaxLT2(t Threshold, p AthleteProfile) string {
	if t.Lactate < lt2DmaxFloor && p.MaxLactate > steepMaxLactate {
		return fmt.Sprintf("lactate %.2f < %.1f on a steep curve (max %.1f)", t.Lactate, lt2DmaxFloor, p.MaxLactate)
	}
	if t.Lactate-p.BaselineAvg < lt2BaselineMargin {
		return fmt.Sprintf("lactate %.2f within %.1f of baseline %.2f", t.Lactate, lt2BaselineMargin, p.BaselineAvg)
	}
	return ""
}

func implausibleDickhuthLT2(t Threshold, p AthleteProfile) string {
	if t.Lactate < lt2DickhuthFloor && p.MaxLactate > steepMaxLactate {
		return fmt.Sprintf("lactate %.2f < %.1f on a steep curve (max %.1f)", t.Lactate, lt2DickhuthFloor, p.MaxLactate)
	}
	return ""
}

func observedMaxHR(stages []Stage) int {
	m := 0.0
	for _, s := range stages {
		if s.HeartRate > m {
			m = s.HeartRate
		}
	}
	return int(m + 0.5)
}

package analysis

// MethodResult is one detector evaluated on its own
type MethodResult struct {
	Kind      Kind
	Method    Method
	Threshold Threshold
	OK        bool
}

// CompareMethods runs every detector independently, outside the priority
// chains, so testers can see how the methods disagree.
func CompareMethods(stages []Stage, opts Options) []MethodResult {
	if len(stages) == 0 {
		return nil
	}
	profile := ClassifyProfile(stages)
	maxHR := opts.MaxHR
	if maxHR <= 0 {
		maxHR = observedMaxHR(stages)
	}

	type detector struct {
		kind   Kind
		method Method
		run    func() (Threshold, bool)
	}
	detectors := []detector{
		{LT1, MethodEliteEnsemble, func() (Threshold, bool) { return EliteEnsemble(stages, profile) }},
		{LT1, MethodFixed2, func() (Threshold, bool) { return LinearInterpolation(stages, LT1) }},
		{LT1, MethodExponentialRise, func() (Threshold, bool) { return ExponentialRise(stages, opts.RiseDelta) }},
		{LT2, MethodDmax, func() (Threshold, bool) { return StandardDmax(stages) }},
		{LT2, MethodBishopDmax, func() (Threshold, bool) { return BishopDmax(stages) }},
		{LT2, MethodDickhuth, func() (Threshold, bool) { return Dickhuth(stages, opts.DickhuthOffset) }},
		{LT2, MethodFixed4, func() (Threshold, bool) { return LinearInterpolation(stages, LT2) }},
	}

	results := make([]MethodResult, 0, len(detectors))
	for _, d := range detectors {
		th, ok := d.run()
		if ok {
			th = th.withPercentOfMax(maxHR)
		}
		results = append(results, MethodResult{Kind: d.kind, Method: d.method, Threshold: th, OK: ok})
	}
	return results
}

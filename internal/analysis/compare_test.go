package analysis

import "testing"

func TestCompareMethods(t *testing.T) {
	results := CompareMethods(speedStages(standardCurve), Options{})
	if len(results) != 7 {
		t.Fatalf("got %d results, want 7", len(results))
	}

	byMethod := make(map[Method]MethodResult)
	for _, r := range results {
		byMethod[r.Method] = r
	}

	if byMethod[MethodEliteEnsemble].OK {
		t.Error("ensemble should not run on a standard profile")
	}
	dm := byMethod[MethodDmax]
	if !dm.OK || dm.Kind != LT2 {
		t.Fatalf("D-max result = %+v", dm)
	}
	// Evaluated outside the chain, so the steep-curve guard does not apply
	if dm.Threshold.Lactate >= 3.0 {
		t.Errorf("D-max lactate = %v, want the raw value below 3.0", dm.Threshold.Lactate)
	}
	if dm.Threshold.PercentOfMax == 0 {
		t.Error("PercentOfMax not filled")
	}
}

func TestCompareMethodsEmpty(t *testing.T) {
	if got := CompareMethods(nil, Options{}); got != nil {
		t.Errorf("CompareMethods(nil) = %v, want nil", got)
	}
}

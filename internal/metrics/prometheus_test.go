package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAnalysis(t *testing.T) {
	okBefore := testutil.ToFloat64(AnalysesTotal.WithLabelValues(OutcomeOK))
	dmaxBefore := testutil.ToFloat64(ThresholdMethodTotal.WithLabelValues("LT2", "DMAX"))
	corrBefore := testutil.ToFloat64(SanityCorrections)

	RecordAnalysis(OutcomeOK, "FIXED_2_0", "DMAX", true)

	if got := testutil.ToFloat64(AnalysesTotal.WithLabelValues(OutcomeOK)) - okBefore; got != 1 {
		t.Errorf("ok analyses delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ThresholdMethodTotal.WithLabelValues("LT2", "DMAX")) - dmaxBefore; got != 1 {
		t.Errorf("LT2 DMAX delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(SanityCorrections) - corrBefore; got != 1 {
		t.Errorf("corrections delta = %v, want 1", got)
	}
}

func TestRecordAnalysisFailure(t *testing.T) {
	failedBefore := testutil.ToFloat64(AnalysesTotal.WithLabelValues(OutcomeFailed))
	corrBefore := testutil.ToFloat64(SanityCorrections)

	RecordAnalysis(OutcomeFailed, "", "", true)

	if got := testutil.ToFloat64(AnalysesTotal.WithLabelValues(OutcomeFailed)) - failedBefore; got != 1 {
		t.Errorf("failed analyses delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(SanityCorrections) - corrBefore; got != 0 {
		t.Errorf("failed run counted a correction")
	}
}

package entity

import "testing"

func TestNewConsistencyReportOrdersBySeverityAndScores(t *testing.T) {
	issues := []ConsistencyIssue{
		{Kind: "a", Severity: SeverityInfo},
		{Kind: "b", Severity: SeverityError},
		{Kind: "c", Severity: SeverityWarn},
	}
	r := NewConsistencyReport(issues)
	if len(r.Issues) != 3 {
		t.Fatalf("len(Issues) = %d, want 3", len(r.Issues))
	}
	if r.Issues[0].Severity != SeverityError || r.Issues[1].Severity != SeverityWarn || r.Issues[2].Severity != SeverityInfo {
		t.Errorf("issues not ordered by descending severity: %+v", r.Issues)
	}
	wantScore := 1.0 - 0.3 - 0.1 - 0.02
	if r.Score < wantScore-1e-9 || r.Score > wantScore+1e-9 {
		t.Errorf("Score = %v, want %v", r.Score, wantScore)
	}
}

func TestComputeScoreClampsToZero(t *testing.T) {
	issues := make([]ConsistencyIssue, 10)
	for i := range issues {
		issues[i] = ConsistencyIssue{Severity: SeverityError}
	}
	r := NewConsistencyReport(issues)
	if r.Score != 0 {
		t.Errorf("Score = %v, want 0 (clamped)", r.Score)
	}
}

func TestComputeScoreClampsToOneForEmptyIssueList(t *testing.T) {
	r := NewConsistencyReport(nil)
	if r.Score != 1 {
		t.Errorf("Score = %v, want 1 for no issues", r.Score)
	}
}

func TestHasErrorsDetectsErrorSeverity(t *testing.T) {
	withError := NewConsistencyReport([]ConsistencyIssue{{Severity: SeverityError}})
	if !withError.HasErrors() {
		t.Error("expected HasErrors=true with an ERROR-severity issue present")
	}
	withoutError := NewConsistencyReport([]ConsistencyIssue{{Severity: SeverityWarn}, {Severity: SeverityInfo}})
	if withoutError.HasErrors() {
		t.Error("expected HasErrors=false with no ERROR-severity issue")
	}
}

func TestNewConsistencyReportWithWeightsOverridesDefaults(t *testing.T) {
	issues := []ConsistencyIssue{{Severity: SeverityWarn}}
	r := NewConsistencyReportWithWeights(issues, map[IssueSeverity]float64{SeverityWarn: 0.5})
	if r.Score != 0.5 {
		t.Errorf("Score = %v, want 0.5 with a custom weight", r.Score)
	}
}

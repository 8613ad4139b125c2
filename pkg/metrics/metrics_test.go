package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLLMCallTotalIncrements(t *testing.T) {
	LLMCallTotal.Reset()
	LLMCallTotal.WithLabelValues("mock", "mock-model", "ok").Inc()
	if got := testutil.ToFloat64(LLMCallTotal.WithLabelValues("mock", "mock-model", "ok")); got != 1 {
		t.Errorf("LLMCallTotal = %v, want 1", got)
	}
}

func TestConsistencyIssuesTotalLabelsBySeverityAndKind(t *testing.T) {
	ConsistencyIssuesTotal.Reset()
	ConsistencyIssuesTotal.WithLabelValues("WARN", "character_trait").Inc()
	ConsistencyIssuesTotal.WithLabelValues("ERROR", "plot_contradiction").Add(2)

	if got := testutil.ToFloat64(ConsistencyIssuesTotal.WithLabelValues("WARN", "character_trait")); got != 1 {
		t.Errorf("WARN/character_trait = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ConsistencyIssuesTotal.WithLabelValues("ERROR", "plot_contradiction")); got != 2 {
		t.Errorf("ERROR/plot_contradiction = %v, want 2", got)
	}
}

func TestActiveSessionsGaugeSetsAndReads(t *testing.T) {
	ActiveSessions.Set(3)
	if got := testutil.ToFloat64(ActiveSessions); got != 3 {
		t.Errorf("ActiveSessions = %v, want 3", got)
	}
	ActiveSessions.Set(0)
}

// Package observability adapts cross-cutting service ports (usage
// recording, ...) onto the engine's structured logger and Prometheus
// metrics, the way the rest of the infrastructure layer adapts domain
// ports onto concrete backends.
package observability

import (
	"context"

	"github.com/loomtale/engine/internal/domain/service"
	"github.com/loomtale/engine/pkg/logger"
	"github.com/loomtale/engine/pkg/metrics"
)

// MetricsUsageRecorder implements service.LLMUsageRecorder by feeding the
// gateway's Prometheus counters and a structured log line. It never
// blocks or fails the calling workflow: Record always returns nil.
type MetricsUsageRecorder struct{}

// NewMetricsUsageRecorder builds a MetricsUsageRecorder.
func NewMetricsUsageRecorder() *MetricsUsageRecorder {
	return &MetricsUsageRecorder{}
}

func (r *MetricsUsageRecorder) Record(ctx context.Context, in service.LLMUsageInput) error {
	metrics.LLMTokensUsed.WithLabelValues(in.Provider, in.Model, "prompt").Add(float64(in.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(in.Provider, in.Model, "completion").Add(float64(in.CompletionTokens))

	logger.FromContext(ctx).Info("llm usage",
		"project_id", in.ProjectID,
		"session_id", in.SessionID,
		"workflow", in.Workflow,
		"provider", in.Provider,
		"model", in.Model,
		"prompt_tokens", in.PromptTokens,
		"completion_tokens", in.CompletionTokens,
		"duration_ms", in.DurationMs,
	)
	return nil
}

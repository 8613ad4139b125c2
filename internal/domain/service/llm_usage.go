package service

import "context"

// LLMUsageInput carries the observable data of one LLM gateway call. It
// lives in domain/service as a stable cross-layer port so infrastructure
// never depends on an application-layer type.
type LLMUsageInput struct {
	ProjectID string
	SessionID string

	Workflow string
	Provider string
	Model    string

	PromptTokens     int
	CompletionTokens int
	DurationMs       int
}

// LLMUsageRecorder records LLM usage for observability. Implementations
// should be best-effort and must never block the calling workflow.
type LLMUsageRecorder interface {
	Record(ctx context.Context, in LLMUsageInput) error
}

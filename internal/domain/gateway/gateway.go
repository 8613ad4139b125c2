// Package gateway defines the provider-agnostic contract every LLM
// backend is adapted to.
package gateway

import (
	"context"

	"github.com/loomtale/engine/internal/domain/entity"
)

// Message is one turn of a chat-shaped LLM request.
type Message struct {
	Role    entity.Role
	Content string
}

// Request is a uniform request accepted by every provider adapter.
type Request struct {
	Provider    string
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	TopP        float64
	Stop        []string
}

// FinishReason is why a provider stopped generating.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength         FinishReason = "length"
	FinishContentFilter  FinishReason = "content_filter"
	FinishError          FinishReason = "error"
)

// Usage reports token accounting for one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is a completed, non-streaming generation.
type Response struct {
	Content      string
	Usage        Usage
	FinishReason FinishReason
}

// Chunk is one increment of a streamed generation. The final chunk in a
// stream carries Done=true and the call's total Usage.
type Chunk struct {
	Delta        string
	Done         bool
	Usage        Usage
	FinishReason FinishReason
}

// Provider is the interface every concrete LLM backend implements. A
// Provider never mutates memory; it is a pure request/response
// collaborator.
type Provider interface {
	// Name identifies the provider for routing, metrics and error
	// classification (e.g. "openai", "anthropic", "gemini", "ollama",
	// "mock").
	Name() string

	Generate(ctx context.Context, req Request) (*Response, error)

	// GenerateStream returns a channel of Chunks. The channel is closed
	// after the Done chunk or after ctx is cancelled, whichever comes
	// first; cancellation is propagated to the provider as a stream abort.
	GenerateStream(ctx context.Context, req Request) (<-chan Chunk, error)

	// CountTokens estimates text's token cost using the provider's native
	// tokenizer or counting API if available, else a character-based
	// heuristic. ctx bounds providers that count tokens via a network
	// call rather than a local tokenizer.
	CountTokens(ctx context.Context, text string) (int, error)
}

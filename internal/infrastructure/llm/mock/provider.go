// Package mock provides a deterministic in-process LLM provider used by
// tests and the CLI demo path.
package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/gateway"
	"github.com/loomtale/engine/internal/infrastructure/llm/tokenizer"
)

// Provider echoes a deterministic completion derived from the request's
// last user message, so tests can assert on its output without a live
// API call.
type Provider struct {
	// Respond, if set, overrides the default echo behavior for
	// hand-scripted test scenarios.
	Respond func(req gateway.Request) string
}

// New creates a mock provider with the default echo behavior.
func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string { return "mock" }

func (p *Provider) Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	content := p.respond(req)
	prompt := promptTokens(req)
	completion := tokenizer.HeuristicCount(content)
	return &gateway.Response{
		Content: content,
		Usage: gateway.Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
		FinishReason: gateway.FinishStop,
	}, nil
}

func (p *Provider) GenerateStream(ctx context.Context, req gateway.Request) (<-chan gateway.Chunk, error) {
	content := p.respond(req)
	words := strings.Fields(content)
	out := make(chan gateway.Chunk)
	go func() {
		defer close(out)
		var sent string
		for i, w := range words {
			delta := w
			if i > 0 {
				delta = " " + w
			}
			select {
			case out <- gateway.Chunk{Delta: delta}:
				sent += delta
			case <-ctx.Done():
				return
			}
		}
		out <- gateway.Chunk{
			Done:         true,
			FinishReason: gateway.FinishStop,
			Usage: gateway.Usage{
				PromptTokens:     promptTokens(req),
				CompletionTokens: tokenizer.HeuristicCount(sent),
			},
		}
	}()
	return out, nil
}

func (p *Provider) CountTokens(ctx context.Context, text string) (int, error) {
	return tokenizer.HeuristicCount(text), nil
}

func (p *Provider) respond(req gateway.Request) string {
	if p.Respond != nil {
		return p.Respond(req)
	}
	last := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == entity.RoleUser {
			last = req.Messages[i].Content
			break
		}
	}
	return fmt.Sprintf("[mock response to: %s]", strings.TrimSpace(last))
}

func promptTokens(req gateway.Request) int {
	total := 0
	for _, m := range req.Messages {
		total += tokenizer.HeuristicCount(m.Content)
	}
	return total
}

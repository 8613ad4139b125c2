package llm

import (
	"context"

	"github.com/loomtale/engine/internal/config"
	"github.com/loomtale/engine/internal/domain/gateway"
	"github.com/loomtale/engine/internal/infrastructure/llm/anthropic"
	"github.com/loomtale/engine/internal/infrastructure/llm/gemini"
	"github.com/loomtale/engine/internal/infrastructure/llm/mock"
	"github.com/loomtale/engine/internal/infrastructure/llm/ollama"
	"github.com/loomtale/engine/internal/infrastructure/llm/openaicompat"
)

// RegisterDefaults installs the factory's built-in provider constructors.
// Gemini's client is constructed with ctx, since its SDK dials out at
// construction time rather than per-call.
func RegisterDefaults(f *ProviderFactory, ctx context.Context) {
	f.Register("openai", func(cfg config.ProviderConfig) (gateway.Provider, error) {
		return openaicompat.New("openai", cfg)
	})
	f.Register("azure-openai", func(cfg config.ProviderConfig) (gateway.Provider, error) {
		return openaicompat.New("azure-openai", cfg)
	})
	f.Register("ollama", func(cfg config.ProviderConfig) (gateway.Provider, error) {
		return ollama.New(cfg)
	})
	f.Register("anthropic", func(cfg config.ProviderConfig) (gateway.Provider, error) {
		return anthropic.New(cfg)
	})
	f.Register("gemini", func(cfg config.ProviderConfig) (gateway.Provider, error) {
		return gemini.New(ctx, cfg)
	})
	f.Register("mock", func(cfg config.ProviderConfig) (gateway.Provider, error) {
		return mock.New(), nil
	})
}

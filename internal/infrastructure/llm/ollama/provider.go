// Package ollama adapts locally-hosted Ollama models to the gateway's
// Provider contract. Ollama speaks the OpenAI-compatible chat completions
// wire shape at /v1, so this is a thin wrapper over openaicompat that fills
// in a local default base URL and tolerates a missing api_key.
package ollama

import (
	"github.com/loomtale/engine/internal/config"
	"github.com/loomtale/engine/internal/infrastructure/llm/openaicompat"
)

const defaultBaseURL = "http://localhost:11434/v1"
const localPlaceholderKey = "ollama-local"

// New builds an openaicompat.Provider named "ollama" pointed at a local
// server. Ollama ignores the API key but the underlying SDK requires one
// to be set.
func New(cfg config.ProviderConfig) (*openaicompat.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = localPlaceholderKey
	}
	return openaicompat.New("ollama", cfg)
}

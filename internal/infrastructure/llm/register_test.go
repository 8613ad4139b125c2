package llm

import (
	"context"
	"testing"

	"github.com/loomtale/engine/internal/config"
)

func TestRegisterDefaultsConstructsMockWithoutCredentials(t *testing.T) {
	f := NewProviderFactory(&config.LLMConfig{
		DefaultProvider: "mock",
		Providers:       map[string]config.ProviderConfig{},
	})
	RegisterDefaults(f, context.Background())

	p, err := f.Get("mock")
	if err != nil {
		t.Fatalf("Get(mock): %v", err)
	}
	if p.Name() != "mock" {
		t.Errorf("Name() = %q, want mock", p.Name())
	}
}

func TestRegisterDefaultsCredentialedProvidersFailCleanlyWithoutKeys(t *testing.T) {
	f := NewProviderFactory(&config.LLMConfig{
		Providers: map[string]config.ProviderConfig{},
	})
	RegisterDefaults(f, context.Background())

	for _, name := range []string{"openai", "azure-openai", "anthropic"} {
		if _, err := f.Get(name); err == nil {
			t.Errorf("expected Get(%s) to fail without an api_key", name)
		}
	}
}

// Package llm implements the provider-agnostic gateway: a lazily
// constructed provider factory, per-provider concurrency caps, retry with
// backoff, and usage recording.
package llm

import (
	"fmt"
	"sync"
	"time"

	"github.com/loomtale/engine/internal/config"
	"github.com/loomtale/engine/internal/domain/gateway"
	"github.com/loomtale/engine/internal/domain/service"
	"github.com/loomtale/engine/pkg/ferrors"
	"github.com/loomtale/engine/pkg/logger"
	"github.com/loomtale/engine/pkg/metrics"

	"context"
)

// ProviderFactory lazily builds and caches one Provider per configured
// name, over the project's own Provider interface.
type ProviderFactory struct {
	cfg       *config.LLMConfig
	providers map[string]gateway.Provider
	mu        sync.RWMutex

	build map[string]func(config.ProviderConfig) (gateway.Provider, error)
}

// NewProviderFactory creates a factory over cfg. Concrete provider
// constructors are registered by Register; callers typically call
// RegisterDefaults once at startup.
func NewProviderFactory(cfg *config.LLMConfig) *ProviderFactory {
	return &ProviderFactory{
		cfg:       cfg,
		providers: make(map[string]gateway.Provider),
		build:     make(map[string]func(config.ProviderConfig) (gateway.Provider, error)),
	}
}

// Register installs a constructor for provider kind (e.g. "openai",
// "anthropic", "gemini", "ollama", "mock").
func (f *ProviderFactory) Register(kind string, build func(config.ProviderConfig) (gateway.Provider, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.build[kind] = build
}

// Get returns the provider named name, or the configured default if name
// is empty, lazily constructing and caching it.
func (f *ProviderFactory) Get(name string) (gateway.Provider, error) {
	if name == "" {
		name = f.cfg.DefaultProvider
	}

	f.mu.RLock()
	p, ok := f.providers[name]
	f.mu.RUnlock()
	if ok {
		return p, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok = f.providers[name]; ok {
		return p, nil
	}

	build, ok := f.build[name]
	if !ok {
		return nil, ferrors.New(ferrors.KindConfig, fmt.Sprintf("no provider constructor registered for %q", name))
	}

	providerCfg := f.cfg.Providers[name]
	p, err := build(providerCfg)
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.KindConfig, fmt.Sprintf("failed to construct provider %q", name))
	}

	f.providers[name] = p
	return p, nil
}

// Gateway wraps a ProviderFactory with the cross-cutting concerns its
// calls go through: per-provider concurrency limiting, retry with
// backoff, metrics, and usage recording. Retry and usage recording apply
// to Generate only; GenerateStream applies the concurrency cap and token
// metrics.
type Gateway struct {
	factory  *ProviderFactory
	backoff  BackoffConfig
	sem      map[string]chan struct{}
	semMu    sync.Mutex
	cap      int
	recorder service.LLMUsageRecorder
}

// NewGateway builds a Gateway. recorder may be nil, in which case usage is
// not recorded.
func NewGateway(factory *ProviderFactory, backoff BackoffConfig, perProviderConcurrency int, recorder service.LLMUsageRecorder) *Gateway {
	if perProviderConcurrency <= 0 {
		perProviderConcurrency = 8
	}
	return &Gateway{
		factory:  factory,
		backoff:  backoff,
		sem:      make(map[string]chan struct{}),
		cap:      perProviderConcurrency,
		recorder: recorder,
	}
}

func (g *Gateway) semaphoreFor(provider string) chan struct{} {
	g.semMu.Lock()
	defer g.semMu.Unlock()
	s, ok := g.sem[provider]
	if !ok {
		s = make(chan struct{}, g.cap)
		g.sem[provider] = s
	}
	return s
}

// Generate resolves req's provider, acquires its concurrency slot, and
// runs the call under the gateway's retry policy.
func (g *Gateway) Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	provider, err := g.factory.Get(req.Provider)
	if err != nil {
		return nil, err
	}
	sem := g.semaphoreFor(provider.Name())

	select {
	case sem <- struct{}{}:
		defer func() { <-sem }()
	case <-ctx.Done():
		return nil, ferrors.Wrap(ctx.Err(), ferrors.KindCancelled, "context cancelled waiting for provider slot")
	}

	start := time.Now()
	var resp *gateway.Response
	attempt := 0
	err = WithRetry(ctx, g.backoff, func(ctx context.Context) error {
		attempt++
		var callErr error
		resp, callErr = provider.Generate(ctx, req)
		if callErr != nil && ferrors.As(callErr).Kind.Retryable() && attempt < g.backoff.MaxAttempts {
			metrics.LLMRetryTotal.WithLabelValues(provider.Name(), string(ferrors.As(callErr).Kind)).Inc()
		}
		return callErr
	})

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.LLMCallTotal.WithLabelValues(provider.Name(), req.Model, status).Inc()
	metrics.LLMCallDuration.WithLabelValues(provider.Name(), req.Model).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Error(ctx, "llm generate failed", err, "provider", provider.Name(), "model", req.Model)
		return nil, err
	}

	metrics.LLMTokensUsed.WithLabelValues(provider.Name(), req.Model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(provider.Name(), req.Model, "completion").Add(float64(resp.Usage.CompletionTokens))

	if g.recorder != nil {
		_ = g.recorder.Record(ctx, service.LLMUsageInput{
			Workflow:         service.WorkflowFromContext(ctx),
			Provider:         provider.Name(),
			Model:            req.Model,
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			DurationMs:       int(time.Since(start).Milliseconds()),
		})
	}

	return resp, nil
}

// GenerateStream resolves req's provider, acquires its concurrency slot
// for the stream's lifetime, and forwards chunks from the provider.
// Streaming calls are not retried: a mid-stream failure is surfaced to
// the caller directly, since partial output cannot be replayed safely.
func (g *Gateway) GenerateStream(ctx context.Context, req gateway.Request) (<-chan gateway.Chunk, error) {
	provider, err := g.factory.Get(req.Provider)
	if err != nil {
		return nil, err
	}
	sem := g.semaphoreFor(provider.Name())

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ferrors.Wrap(ctx.Err(), ferrors.KindCancelled, "context cancelled waiting for provider slot")
	}

	upstream, err := provider.GenerateStream(ctx, req)
	if err != nil {
		<-sem
		return nil, err
	}

	out := make(chan gateway.Chunk)
	go func() {
		defer close(out)
		defer func() { <-sem }()
		for chunk := range upstream {
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
			if chunk.Done {
				metrics.LLMTokensUsed.WithLabelValues(provider.Name(), req.Model, "prompt").Add(float64(chunk.Usage.PromptTokens))
				metrics.LLMTokensUsed.WithLabelValues(provider.Name(), req.Model, "completion").Add(float64(chunk.Usage.CompletionTokens))
			}
		}
	}()
	return out, nil
}

// CountTokens resolves name's provider (or the default) and delegates to
// its native tokenizer or counting API.
func (g *Gateway) CountTokens(ctx context.Context, providerName, text string) (int, error) {
	provider, err := g.factory.Get(providerName)
	if err != nil {
		return 0, err
	}
	return provider.CountTokens(ctx, text)
}

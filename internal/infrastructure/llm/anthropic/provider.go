// Package anthropic adapts Claude's messages API to the gateway's Provider
// contract.
package anthropic

import (
	"context"

	"github.com/loomtale/engine/internal/config"
	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/gateway"
	"github.com/loomtale/engine/internal/infrastructure/llm/tokenizer"
	"github.com/loomtale/engine/pkg/ferrors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultModel = "claude-sonnet-4-20250514"
const defaultMaxTokens = 4096

// Provider implements gateway.Provider over the Claude messages API.
type Provider struct {
	client    anthropic.Client
	model     string
	maxTokens int
	tokenizer *tokenizer.TiktokenCounter
}

// New builds a Provider from cfg.
func New(cfg config.ProviderConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, ferrors.New(ferrors.KindConfig, "missing api_key for anthropic provider")
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Provider{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: cfg.MaxTokens,
		tokenizer: tokenizer.NewTiktokenCounter(),
	}, nil
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) resolveModel(req gateway.Request) string {
	if req.Model != "" {
		return req.Model
	}
	return p.model
}

func (p *Provider) maxTokensFor(req gateway.Request) int64 {
	if req.MaxTokens > 0 {
		return int64(req.MaxTokens)
	}
	if p.maxTokens > 0 {
		return int64(p.maxTokens)
	}
	return defaultMaxTokens
}

func (p *Provider) params(req gateway.Request) anthropic.MessageNewParams {
	system, messages := splitSystem(req.Messages)
	params := anthropic.MessageNewParams{
		Model:     p.resolveModel(req),
		MaxTokens: p.maxTokensFor(req),
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.TopP > 0 {
		params.TopP = anthropic.Float(req.TopP)
	}
	if len(req.Stop) > 0 {
		params.StopSequences = req.Stop
	}
	return params
}

// splitSystem pulls out the leading system message, since Claude's wire
// shape carries system instructions outside the message list.
func splitSystem(messages []gateway.Message) (string, []anthropic.MessageParam) {
	system := ""
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		if m.Role == entity.RoleSystem {
			system = m.Content
			continue
		}
		if m.Role == entity.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return system, out
}

func (p *Provider) Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	resp, err := p.client.Messages.New(ctx, p.params(req))
	if err != nil {
		return nil, classifyErr(err)
	}
	content := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			content = block.Text
			break
		}
	}
	return &gateway.Response{
		Content: content,
		Usage: gateway.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
		FinishReason: mapStopReason(string(resp.StopReason)),
	}, nil
}

func (p *Provider) GenerateStream(ctx context.Context, req gateway.Request) (<-chan gateway.Chunk, error) {
	stream := p.client.Messages.NewStreaming(ctx, p.params(req))
	out := make(chan gateway.Chunk)

	go func() {
		defer close(out)
		var usage gateway.Usage
		finish := gateway.FinishStop
		for stream.Next() {
			event := stream.Current()
			switch delta := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				if delta.Delta.Text == "" {
					continue
				}
				select {
				case out <- gateway.Chunk{Delta: delta.Delta.Text}:
				case <-ctx.Done():
					return
				}
			case anthropic.MessageDeltaEvent:
				if delta.Delta.StopReason != "" {
					finish = mapStopReason(string(delta.Delta.StopReason))
				}
				usage.CompletionTokens = int(delta.Usage.OutputTokens)
			}
		}
		if err := stream.Err(); err != nil {
			select {
			case out <- gateway.Chunk{Done: true, FinishReason: gateway.FinishError}:
			case <-ctx.Done():
			}
			return
		}
		out <- gateway.Chunk{Done: true, FinishReason: finish, Usage: usage}
	}()

	return out, nil
}

func (p *Provider) CountTokens(ctx context.Context, text string) (int, error) {
	return p.tokenizer.Count(p.model, text), nil
}

func mapStopReason(reason string) gateway.FinishReason {
	switch reason {
	case "max_tokens":
		return gateway.FinishLength
	case "stop_sequence", "end_turn", "":
		return gateway.FinishStop
	default:
		return gateway.FinishStop
	}
}

func classifyErr(err error) error {
	if apiErr, ok := err.(*anthropic.Error); ok {
		return ferrors.Wrap(err, statusKind(apiErr.StatusCode), "anthropic provider error")
	}
	return ferrors.Wrap(err, ferrors.KindNetwork, "anthropic provider request failed")
}

func statusKind(status int) ferrors.Kind {
	switch {
	case status == 401 || status == 403:
		return ferrors.KindAuth
	case status == 429:
		return ferrors.KindRateLimit
	case status == 408:
		return ferrors.KindTimeout
	case status == 529 || status >= 500:
		return ferrors.KindProviderError
	default:
		return ferrors.KindProviderError
	}
}

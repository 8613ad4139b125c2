// Package openaicompat adapts the OpenAI-compatible chat completions API
// (OpenAI, Azure OpenAI, and local OpenAI-compatible servers such as
// Ollama) to the gateway's Provider contract.
package openaicompat

import (
	"context"

	"github.com/loomtale/engine/internal/config"
	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/gateway"
	"github.com/loomtale/engine/internal/infrastructure/llm/tokenizer"
	"github.com/loomtale/engine/pkg/ferrors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Provider implements gateway.Provider over the OpenAI-compatible chat
// completions wire shape. name lets the same implementation back both
// "openai" and "azure-openai" provider variants; only the base URL and
// default headers differ between them.
type Provider struct {
	name      string
	client    openai.Client
	model     string
	maxTokens int
	tokenizer *tokenizer.TiktokenCounter
}

// New builds a Provider named name from cfg.
func New(name string, cfg config.ProviderConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, ferrors.New(ferrors.KindConfig, "missing api_key for provider "+name)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Provider{
		name:      name,
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		tokenizer: tokenizer.NewTiktokenCounter(),
	}, nil
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) resolveModel(req gateway.Request) string {
	if req.Model != "" {
		return req.Model
	}
	return p.model
}

func (p *Provider) params(req gateway.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    p.resolveModel(req),
		Messages: convertMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	} else if p.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.maxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.TopP > 0 {
		params.TopP = openai.Float(req.TopP)
	}
	if len(req.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: req.Stop}
	}
	return params
}

func (p *Provider) Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.params(req))
	if err != nil {
		return nil, classifyErr(err)
	}
	if len(resp.Choices) == 0 {
		return nil, ferrors.New(ferrors.KindProviderError, "empty choices in response")
	}
	choice := resp.Choices[0]
	return &gateway.Response{
		Content: choice.Message.Content,
		Usage: gateway.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		FinishReason: mapFinishReason(choice.FinishReason),
	}, nil
}

func (p *Provider) GenerateStream(ctx context.Context, req gateway.Request) (<-chan gateway.Chunk, error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, p.params(req))
	out := make(chan gateway.Chunk)

	go func() {
		defer close(out)
		var usage gateway.Usage
		var finish gateway.FinishReason = gateway.FinishStop
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			if choice.FinishReason != "" {
				finish = mapFinishReason(choice.FinishReason)
			}
			if chunk.Usage.TotalTokens > 0 {
				usage = gateway.Usage{
					PromptTokens:     int(chunk.Usage.PromptTokens),
					CompletionTokens: int(chunk.Usage.CompletionTokens),
					TotalTokens:      int(chunk.Usage.TotalTokens),
				}
			}
			if choice.Delta.Content == "" {
				continue
			}
			select {
			case out <- gateway.Chunk{Delta: choice.Delta.Content}:
			case <-ctx.Done():
				return
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

func convertMessages(messages []gateway.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case entity.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case entity.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func mapFinishReason(reason string) gateway.FinishReason {
	switch reason {
	case "length":
		return gateway.FinishLength
	case "content_filter":
		return gateway.FinishContentFilter
	case "stop", "":
		return gateway.FinishStop
	default:
		return gateway.FinishStop
	}
}

func classifyErr(err error) error {
	if apiErr, ok := err.(*openai.Error); ok {
		return ferrors.Wrap(err, ferrors.ClassifyHTTPStatus(apiErr.StatusCode), "openai-compatible provider error")
	}
	return ferrors.Wrap(err, ferrors.KindNetwork, "openai-compatible provider request failed")
}

// Package gemini adapts Google's generative AI API to the gateway's
// Provider contract.
package gemini

import (
	"context"

	"github.com/loomtale/engine/internal/config"
	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/gateway"
	"github.com/loomtale/engine/pkg/ferrors"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// Provider implements gateway.Provider over the Gemini API.
type Provider struct {
	client *genai.Client
	model  string
}

// New builds a Provider from cfg. It dials the Gemini API directly (rather
// than Vertex AI), since cfg only carries an API key, not a GCP project.
func New(ctx context.Context, cfg config.ProviderConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, ferrors.New(ferrors.KindConfig, "missing api_key for gemini provider")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.KindConfig, "failed to create gemini client")
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Provider{client: client, model: model}, nil
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) resolveModel(req gateway.Request) string {
	if req.Model != "" {
		return req.Model
	}
	return p.model
}

func (p *Provider) convert(req gateway.Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	var contents []*genai.Content
	cfg := &genai.GenerateContentConfig{}
	for _, m := range req.Messages {
		switch m.Role {
		case entity.RoleSystem:
			cfg.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case entity.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if req.Temperature > 0 {
		t := float32(req.Temperature)
		cfg.Temperature = &t
	}
	if req.TopP > 0 {
		t := float32(req.TopP)
		cfg.TopP = &t
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(req.Stop) > 0 {
		cfg.StopSequences = req.Stop
	}
	return contents, cfg
}

func (p *Provider) Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	contents, cfg := p.convert(req)
	resp, err := p.client.Models.GenerateContent(ctx, p.resolveModel(req), contents, cfg)
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.KindProviderError, "gemini provider request failed")
	}
	if len(resp.Candidates) == 0 {
		return nil, ferrors.New(ferrors.KindProviderError, "empty candidates in gemini response")
	}
	candidate := resp.Candidates[0]
	text := ""
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
	}
	usage := gateway.Usage{}
	if resp.UsageMetadata != nil {
		usage = gateway.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return &gateway.Response{
		Content:      text,
		Usage:        usage,
		FinishReason: mapFinishReason(string(candidate.FinishReason)),
	}, nil
}

func (p *Provider) GenerateStream(ctx context.Context, req gateway.Request) (<-chan gateway.Chunk, error) {
	contents, cfg := p.convert(req)
	out := make(chan gateway.Chunk)

	go func() {
		defer close(out)
		var usage gateway.Usage
		finish := gateway.FinishStop
		for resp, err := range p.client.Models.GenerateContentStream(ctx, p.resolveModel(req), contents, cfg) {
			if err != nil {
				select {
				case out <- gateway.Chunk{Done: true, FinishReason: gateway.FinishError}:
				case <-ctx.Done():
				}
				return
			}
			if len(resp.Candidates) == 0 {
				continue
			}
			candidate := resp.Candidates[0]
			if candidate.FinishReason != "" {
				finish = mapFinishReason(string(candidate.FinishReason))
			}
			if resp.UsageMetadata != nil {
				usage = gateway.Usage{
					PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
					CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
					TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
				}
			}
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text == "" {
					continue
				}
				select {
				case out <- gateway.Chunk{Delta: part.Text}:
				case <-ctx.Done():
					return
				}
			}
		}
		out <- gateway.Chunk{Done: true, FinishReason: finish, Usage: usage}
	}()

	return out, nil
}

// CountTokens calls Gemini's native token-counting RPC rather than the
// tiktoken heuristic every other provider falls back to, since Gemini's
// tokenizer is not publicly documented and a local approximation can
// drift from what the API actually bills.
func (p *Provider) CountTokens(ctx context.Context, text string) (int, error) {
	resp, err := p.client.Models.CountTokens(ctx, p.model, genai.Text(text), nil)
	if err != nil {
		return 0, ferrors.Wrap(err, ferrors.KindProviderError, "gemini count tokens request failed")
	}
	return int(resp.TotalTokens), nil
}

func mapFinishReason(reason string) gateway.FinishReason {
	switch reason {
	case "MAX_TOKENS":
		return gateway.FinishLength
	case "SAFETY", "RECITATION":
		return gateway.FinishContentFilter
	case "STOP", "":
		return gateway.FinishStop
	default:
		return gateway.FinishStop
	}
}

package embedding

import (
	"context"

	"github.com/loomtale/engine/internal/config"
	"github.com/loomtale/engine/pkg/ferrors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultModel = "text-embedding-3-small"
const defaultDims = 1536

// OpenAIEmbedder embeds text through any OpenAI-compatible embeddings
// endpoint (OpenAI itself, Azure OpenAI, or a local server exposing the
// same wire shape).
type OpenAIEmbedder struct {
	client openai.Client
	model  string
	dims   int
}

// NewOpenAIEmbedder builds an OpenAIEmbedder from cfg.
func NewOpenAIEmbedder(cfg config.EmbeddingConfig) (*OpenAIEmbedder, error) {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	dims := cfg.Dimension
	if dims == 0 {
		dims = defaultDims
	}
	opts := []option.RequestOption{}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(opts...),
		model:  model,
		dims:   dims,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: e.model,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.KindProviderError, "embedding request failed")
	}
	if len(resp.Data) == 0 {
		return nil, ferrors.New(ferrors.KindProviderError, "empty embedding response")
	}
	values := resp.Data[0].Embedding
	out := make(Vector, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out, nil
}

func (e *OpenAIEmbedder) Dims() int { return e.dims }

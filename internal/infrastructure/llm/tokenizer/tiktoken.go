package tokenizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenCounter wraps the BPE tokenizer used by OpenAI-compatible
// models. A model tiktoken does not recognize is counted with the
// cl100k_base encoding; HeuristicCount is used only when that encoding
// cannot be loaded.
type TiktokenCounter struct {
	mu    sync.Mutex
	cache map[string]*tiktoken.Tiktoken
}

// NewTiktokenCounter creates an empty, lazily-populated counter.
func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{cache: make(map[string]*tiktoken.Tiktoken)}
}

// Count returns text's BPE token count under model's encoding
// (cl100k_base for an unrecognized model), or a heuristic estimate if no
// encoding can be loaded.
func (c *TiktokenCounter) Count(model, text string) int {
	enc, ok := c.encodingFor(model)
	if !ok {
		return HeuristicCount(text)
	}
	return len(enc.Encode(text, nil, nil))
}

func (c *TiktokenCounter) encodingFor(model string) (*tiktoken.Tiktoken, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if enc, ok := c.cache[model]; ok {
		return enc, true
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, false
		}
	}
	c.cache[model] = enc
	return enc, true
}

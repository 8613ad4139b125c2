// Package intent classifies a conversational turn into the closed label
// set the agent dispatches on. A fast keyword rule stage handles the
// common case; low-confidence turns fall back to an LLM call with a
// closed-label prompt.
package intent

import (
	"context"
	"regexp"
	"strings"

	"github.com/loomtale/engine/internal/domain/gateway"
)

// Kind is the closed set of turn intents the agent dispatches on.
type Kind string

const (
	CreateStory     Kind = "CREATE_STORY"
	ModifySetting   Kind = "MODIFY_SETTING"
	ModifyContent   Kind = "MODIFY_CONTENT"
	Query           Kind = "QUERY"
	GenerateContent Kind = "GENERATE_CONTENT"
	ContinueContent Kind = "CONTINUE_CONTENT"
	Chat            Kind = "CHAT"
)

// allKinds is the closed label set in priority order: the rule stage
// checks earlier kinds first, so a turn matching both a creation and a
// query cue classifies as the more specific intent.
var allKinds = []Kind{CreateStory, ModifySetting, ModifyContent, GenerateContent, ContinueContent, Query}

// confidenceThreshold is the rule stage's minimum confidence before the
// recognizer trusts it over an LLM fallback call.
const confidenceThreshold = 0.6

// Result is the recognizer's output for one turn.
type Result struct {
	Intent     Kind
	Confidence float64
	Rationale  string
}

var keywordPatterns = map[Kind][]*regexp.Regexp{
	CreateStory: compileAll(
		`\bcreate\b`, `\bnew story\b`, `\bstart a (story|novel)\b`, `\bbegin writing\b`,
		`创建`, `新建`, `开始写`, `新故事`,
	),
	ModifySetting: compileAll(
		`\bchange (the )?(character|world|setting|genre)\b`, `\bupdate (the )?(character|world|setting)\b`,
		`\brename\b`, `\bedit (the )?(character|world)\b`,
		`修改设定`, `改变世界观`, `更新角色`,
	),
	ModifyContent: compileAll(
		`\brewrite\b`, `\brevise\b`, `\bedit (this|that|chapter)\b`, `\bfix (this|that) chapter\b`,
		`重写`, `改写`, `修改这一章`,
	),
	GenerateContent: compileAll(
		`\bwrite (a |the )?chapter\b`, `\bgenerate\b`, `\bwrite the next part\b`,
		`生成`, `写一章`, `写下一段`,
	),
	ContinueContent: compileAll(
		`\bcontinue\b`, `\bkeep going\b`, `\bwhat happens next\b`, `\bnext chapter\b`,
		`继续`, `接着写`, `下一章`,
	),
	Query: compileAll(
		`\bwhat\b`, `\bwho is\b`, `\bhow (does|did)\b`, `\btell me about\b`, `\bdescribe\b`,
		`什么`, `谁是`, `告诉我`, `介绍一下`,
	),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

// Recognizer classifies turns against the keyword rule stage first,
// falling back to provider when the rule stage's confidence is too low.
type Recognizer struct {
	provider gateway.Provider
	model    string
}

// New builds a Recognizer. provider may be nil, in which case
// low-confidence turns fall back to Chat rather than an LLM call.
func New(provider gateway.Provider, model string) *Recognizer {
	return &Recognizer{provider: provider, model: model}
}

// Recognize classifies one turn, escalating to the LLM fallback when the
// rule stage's confidence is below threshold.
func (r *Recognizer) Recognize(ctx context.Context, turn string) (Result, error) {
	result := recognizeRules(turn)
	if result.Confidence >= confidenceThreshold || r.provider == nil {
		return result, nil
	}
	return r.recognizeLLM(ctx, turn, result)
}

// recognizeRules runs the keyword stage, scoring confidence as 0.5 plus
// 0.2 per distinct cue pattern matched for the winning kind. Any hit
// therefore clears the threshold; only a turn with no cue (0.4) reaches
// the LLM fallback.
func recognizeRules(turn string) Result {
	if strings.TrimSpace(turn) == "" {
		return Result{Intent: Chat, Confidence: 1.0, Rationale: "empty turn"}
	}

	for _, kind := range allKinds {
		hits := 0
		for _, pattern := range keywordPatterns[kind] {
			if pattern.MatchString(turn) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		confidence := 0.5 + 0.2*float64(hits)
		if confidence > 1.0 {
			confidence = 1.0
		}
		return Result{Intent: kind, Confidence: confidence, Rationale: "keyword match"}
	}

	return Result{Intent: Chat, Confidence: 0.4, Rationale: "no keyword cue matched"}
}

const classificationPrompt = `Classify the user's message into exactly one label from this closed set:
CREATE_STORY, MODIFY_SETTING, MODIFY_CONTENT, QUERY, GENERATE_CONTENT, CONTINUE_CONTENT, CHAT

Respond with only the label, nothing else.`

func (r *Recognizer) recognizeLLM(ctx context.Context, turn string, fallback Result) (Result, error) {
	resp, err := r.provider.Generate(ctx, gateway.Request{
		Model: r.model,
		Messages: []gateway.Message{
			{Role: "system", Content: classificationPrompt},
			{Role: "user", Content: turn},
		},
		Temperature: 0,
		MaxTokens:   16,
	})
	if err != nil {
		return fallback, nil
	}

	label := Kind(strings.TrimSpace(strings.ToUpper(resp.Content)))
	if !isValidKind(label) {
		return fallback, nil
	}
	return Result{Intent: label, Confidence: 0.9, Rationale: "llm classification"}, nil
}

func isValidKind(k Kind) bool {
	if k == Chat {
		return true
	}
	for _, kind := range allKinds {
		if kind == k {
			return true
		}
	}
	return false
}

// HasGenerationCue reports whether turn contains an explicit write/
// continue cue, independent of the full recognizer — the creation
// decision consults this on its own, not just the classified intent.
func HasGenerationCue(turn string) bool {
	for _, pattern := range keywordPatterns[GenerateContent] {
		if pattern.MatchString(turn) {
			return true
		}
	}
	for _, pattern := range keywordPatterns[ContinueContent] {
		if pattern.MatchString(turn) {
			return true
		}
	}
	return false
}

// Package generation produces, continues, expands, rewrites, and
// outlines chapter prose from a settings snapshot and the layered memory
// store, running every draft through the consistency checker before
// handing it back.
package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/loomtale/engine/internal/application/consistency"
	"github.com/loomtale/engine/internal/application/memory"
	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/gateway"
	"github.com/loomtale/engine/internal/domain/repository"
	"github.com/loomtale/engine/internal/infrastructure/llm/tokenizer"
	"github.com/loomtale/engine/pkg/logger"
	"github.com/loomtale/engine/pkg/metrics"
)

// LLMClient is the minimal surface Generator needs from the gateway. A
// *llm.Gateway satisfies this directly; tests can substitute a plain
// gateway.Provider-backed stub.
type LLMClient interface {
	Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error)
	GenerateStream(ctx context.Context, req gateway.Request) (<-chan gateway.Chunk, error)
}

// Input is one call's request, matching the generate(...) contract.
type Input struct {
	Mode            entity.GenerationMode
	Bundle          *entity.SettingsBundle
	ChapterNumber   int
	TargetLength    int
	Constraints     string
	PreviousContent string
	ExpectedCast    []string
	IsResolution    bool

	ProjectID string
	ParentID  string
	Provider  string
	Model     string
	// Locale pins the word-count strategy (see entity.CountWordsForLocale);
	// empty auto-detects by script.
	Locale string
}

// Output is one call's result.
type Output struct {
	Record            *entity.GenerationRecord
	Content           string
	WordCount         int
	Usage             gateway.Usage
	ConsistencyReport *entity.ConsistencyReport
}

// Generator ties the prompt registry, LLM client, consistency checkers,
// chapter lifecycle, and layered memory store into the content
// generator's single contract.
type Generator struct {
	client        LLMClient
	prompts       *PromptRegistry
	repo          repository.ChapterRepository
	checkers      []consistency.Checker
	weights       map[entity.IssueSeverity]float64
	memories      func(projectID string) memory.Store
	contextWindow int

	inFlight singleflight.Group
}

// New builds a Generator. memories resolves a project-scoped memory
// store lazily, since each project has its own store instance.
// contextWindow is the target model's total token budget, used to split
// the 60% prompt / 35% completion / 5% slack rule.
func New(client LLMClient, repo repository.ChapterRepository, checkers []consistency.Checker, weights map[entity.IssueSeverity]float64, memories func(projectID string) memory.Store, contextWindow int) *Generator {
	if contextWindow <= 0 {
		contextWindow = defaultContextWindow
	}
	return &Generator{
		client:        client,
		prompts:       NewPromptRegistry(),
		repo:          repo,
		checkers:      checkers,
		weights:       weights,
		memories:      memories,
		contextWindow: contextWindow,
	}
}

// Generate runs one (project, chapter) generation attempt end to end.
// Concurrent calls for the same chapter are coalesced: only the first
// caller does the work, the rest receive its result.
func (g *Generator) Generate(ctx context.Context, in Input) (*Output, error) {
	key := fmt.Sprintf("%s:%d", in.ProjectID, in.ChapterNumber)
	result, err, _ := g.inFlight.Do(key, func() (any, error) {
		return g.generate(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Output), nil
}

func (g *Generator) generate(ctx context.Context, in Input) (*Output, error) {
	if in.Bundle == nil {
		return nil, fmt.Errorf("settings bundle is required")
	}
	if in.Mode == "" {
		in.Mode = entity.ModeFull
	}

	record, err := startAttempt(ctx, g.repo, in.ProjectID, in.ChapterNumber, in.Mode, in.ParentID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	content, usage, err := g.callModel(ctx, in)
	metrics.GenerationDuration.WithLabelValues(string(in.Mode)).Observe(time.Since(start).Seconds())
	if err != nil {
		failAttempt(ctx, g.repo, record)
		metrics.GenerationTotal.WithLabelValues(string(in.Mode), "error").Inc()
		return nil, err
	}
	metrics.GenerationTotal.WithLabelValues(string(in.Mode), "ok").Inc()

	return g.finishAttempt(ctx, in, record, content, usage)
}

func (g *Generator) memoryStoreFor(projectID string) memory.Store {
	if g.memories == nil {
		return nil
	}
	return g.memories(projectID)
}

func (g *Generator) callModel(ctx context.Context, in Input) (string, gateway.Usage, error) {
	req, err := g.buildRequest(ctx, in)
	if err != nil {
		return "", gateway.Usage{}, err
	}

	resp, err := g.client.Generate(ctx, req)
	if err != nil {
		return "", gateway.Usage{}, err
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", gateway.Usage{}, fmt.Errorf("empty chapter content")
	}
	return content, resp.Usage, nil
}

// buildRequest composes the gateway.Request for one generation attempt,
// running the same 60%-prompt-budget-with-one-retry logic callModel and
// GenerateStream both rely on.
func (g *Generator) buildRequest(ctx context.Context, in Input) (gateway.Request, error) {
	promptBudget := promptBudgetTokens(g.contextWindow)
	worldBudget := int(float64(promptBudget) * worldBudgetFraction)
	worldBlock := buildWorldBlock(in.Bundle.World, worldBudget)
	characterBlock := buildCharacterBlock(in.Bundle, in.ExpectedCast)
	taskBlock := taskBlockFor(in.Mode, in.TargetLength, in.Constraints)
	query := in.Constraints
	if query == "" {
		query = taskBlock
	}

	memoryBudget := promptBudget - worldBudget - tokenizer.HeuristicCount(worldBlock+characterBlock+taskBlock)
	system, user, err := g.renderWithMemory(ctx, in, query, memoryBudget, worldBlock, characterBlock, taskBlock)
	if err != nil {
		return gateway.Request{}, err
	}

	// Settings + memory exceeded the prompt budget: re-run BuildContext
	// with a tighter budget and lower implied k, then re-render once
	// rather than looping indefinitely.
	if memoryBudget > 0 && tokenizer.HeuristicCount(system+user) > promptBudget {
		system, user, err = g.renderWithMemory(ctx, in, query, memoryBudget/2, worldBlock, characterBlock, taskBlock)
		if err != nil {
			return gateway.Request{}, err
		}
	}

	return gateway.Request{
		Provider: in.Provider,
		Model:    in.Model,
		Messages: []gateway.Message{
			{Role: entity.RoleSystem, Content: system},
			{Role: entity.RoleUser, Content: user},
		},
		Temperature: 0.8,
		MaxTokens:   completionBudgetTokens(g.contextWindow),
	}, nil
}

// StreamChunk is one increment of a streamed generation attempt: either
// a token (Token != ""), the finished attempt (Done != nil), or a
// terminal error (Err != nil). Exactly one of the three is set per
// chunk, and a Done or Err chunk is always the last one sent.
type StreamChunk struct {
	Token string
	Done  *Output
	Err   error
}

// GenerateStream runs one generation attempt the same way Generate does,
// but forwards the model's output incrementally instead of waiting for
// the full completion. Concurrent calls for the same (project, chapter)
// are not coalesced here: singleflight cannot fan one upstream byte
// stream out to multiple readers, so a caller racing a streaming and a
// non-streaming request for the same chapter may see two attempts;
// ChapterRepository.SetCurrent still enforces at most one CURRENT
// record, so the race is safe, just not coalesced.
func (g *Generator) GenerateStream(ctx context.Context, in Input) <-chan StreamChunk {
	out := make(chan StreamChunk)
	go g.streamInto(ctx, in, out)
	return out
}

func (g *Generator) streamInto(ctx context.Context, in Input, out chan<- StreamChunk) {
	defer close(out)

	if in.Bundle == nil {
		out <- StreamChunk{Err: fmt.Errorf("settings bundle is required")}
		return
	}
	if in.Mode == "" {
		in.Mode = entity.ModeFull
	}

	record, err := startAttempt(ctx, g.repo, in.ProjectID, in.ChapterNumber, in.Mode, in.ParentID)
	if err != nil {
		out <- StreamChunk{Err: err}
		return
	}

	req, err := g.buildRequest(ctx, in)
	if err != nil {
		failAttempt(ctx, g.repo, record)
		out <- StreamChunk{Err: err}
		return
	}

	start := time.Now()
	upstream, err := g.client.GenerateStream(ctx, req)
	if err != nil {
		failAttempt(ctx, g.repo, record)
		metrics.GenerationTotal.WithLabelValues(string(in.Mode), "error").Inc()
		out <- StreamChunk{Err: err}
		return
	}

	var content strings.Builder
	var usage gateway.Usage
	for chunk := range upstream {
		if chunk.Delta != "" {
			content.WriteString(chunk.Delta)
			select {
			case out <- StreamChunk{Token: chunk.Delta}:
			case <-ctx.Done():
				failAttempt(ctx, g.repo, record)
				out <- StreamChunk{Err: ctx.Err()}
				return
			}
		}
		if chunk.Done {
			usage = chunk.Usage
		}
	}
	metrics.GenerationDuration.WithLabelValues(string(in.Mode)).Observe(time.Since(start).Seconds())

	finalContent := strings.TrimSpace(content.String())
	if finalContent == "" {
		failAttempt(ctx, g.repo, record)
		metrics.GenerationTotal.WithLabelValues(string(in.Mode), "error").Inc()
		out <- StreamChunk{Err: fmt.Errorf("empty chapter content")}
		return
	}
	metrics.GenerationTotal.WithLabelValues(string(in.Mode), "ok").Inc()

	result, err := g.finishAttempt(ctx, in, record, finalContent, usage)
	if err != nil {
		out <- StreamChunk{Err: err}
		return
	}
	out <- StreamChunk{Done: result}
}

// finishAttempt runs the shared post-generation steps (word count,
// consistency check, lifecycle completion, auto-accept, chapter recap)
// that both Generate and GenerateStream apply once the model's full
// output is known.
func (g *Generator) finishAttempt(ctx context.Context, in Input, record *entity.GenerationRecord, content string, usage gateway.Usage) (*Output, error) {
	wordCount := entity.CountWordsForLocale(content, in.Locale)
	metrics.GenerationWordCount.WithLabelValues(string(in.Mode)).Observe(float64(wordCount))
	fingerprint := in.Bundle.Fingerprint()

	report, err := consistency.Aggregate(ctx, g.checkers, consistency.CheckInput{
		Bundle:        in.Bundle,
		CandidateText: content,
		IsResolution:  in.IsResolution,
	}, g.weights)
	if err != nil {
		logger.FromContext(ctx).Warn("consistency check failed after generation", "error", err)
		report = entity.NewConsistencyReportWithWeights(nil, g.weights)
	}

	if err := completeAttempt(ctx, g.repo, record, content, wordCount, fingerprint); err != nil {
		return nil, err
	}
	if err := Accept(ctx, g.repo, in.ProjectID, in.ChapterNumber, record.ID); err != nil {
		return nil, fmt.Errorf("failed to accept generated chapter: %w", err)
	}

	if store := g.memoryStoreFor(in.ProjectID); store != nil {
		g.rememberChapter(ctx, store, in, content)
	}

	return &Output{
		Record:            record,
		Content:           content,
		WordCount:         wordCount,
		Usage:             usage,
		ConsistencyReport: report,
	}, nil
}

// renderWithMemory builds the memory block under memoryBudget tokens and
// renders the full prompt around it.
func (g *Generator) renderWithMemory(ctx context.Context, in Input, query string, memoryBudget int, worldBlock, characterBlock, taskBlock string) (system, user string, err error) {
	memoryBlock := "(no retrieved memory)"
	if store := g.memoryStoreFor(in.ProjectID); store != nil && memoryBudget > 0 {
		built, buildErr := store.BuildContext(ctx, query, memoryBudget)
		if buildErr != nil {
			logger.FromContext(ctx).Warn("failed to build memory context for generation", "error", buildErr)
		} else if built != "" {
			memoryBlock = built
		}
	}

	return g.prompts.Render(promptData{
		StyleHints:       strings.Join(styleHintValues(in.Bundle), "; "),
		POV:              in.Bundle.StyleHints["pov"],
		Tense:            in.Bundle.StyleHints["tense"],
		Language:         in.Bundle.StyleHints["language"],
		WorldBlock:       worldBlock,
		CharacterBlock:   characterBlock,
		MemoryBlock:      memoryBlock,
		ContinuationSeed: buildContinuationSeed(in.PreviousContent),
		TaskBlock:        taskBlock,
	})
}

const summaryWordBudget = 200

// rememberChapter summarizes the generated chapter into a PLOT memory
// item. A summarization failure is logged and skipped, not surfaced: a
// missing recap is recoverable, a failed chapter generation is not.
func (g *Generator) rememberChapter(ctx context.Context, store memory.Store, in Input, content string) {
	summary, err := g.client.Generate(ctx, gateway.Request{
		Provider: in.Provider,
		Model:    in.Model,
		Messages: []gateway.Message{
			{Role: entity.RoleSystem, Content: fmt.Sprintf("Summarize the following chapter in at most %d words, for use as plot memory.", summaryWordBudget)},
			{Role: entity.RoleUser, Content: content},
		},
		Temperature: 0.2,
		MaxTokens:   512,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("failed to summarize chapter into plot memory", "error", err)
		return
	}

	item := entity.NewMemoryItem("", in.ProjectID, entity.LevelPlot, strings.TrimSpace(summary.Content))
	item.Metadata["chapter_number"] = fmt.Sprintf("%d", in.ChapterNumber)
	if _, err := store.Add(ctx, item); err != nil {
		logger.FromContext(ctx).Warn("failed to store chapter summary", "error", err)
	}
}

func styleHintValues(bundle *entity.SettingsBundle) []string {
	out := make([]string, 0, len(bundle.StyleHints))
	for aspect, value := range bundle.StyleHints {
		if aspect == "pov" || aspect == "tense" || aspect == "language" {
			continue
		}
		out = append(out, fmt.Sprintf("%s=%s", aspect, value))
	}
	return out
}

// defaultContextWindow is the context window New falls back to when it
// is given a non-positive one.
const defaultContextWindow = 8192

// promptBudgetTokens and completionBudgetTokens implement the 60%
// prompt / 35% completion / 5% slack split.
func promptBudgetTokens(contextWindow int) int {
	return contextWindow * 60 / 100
}

func completionBudgetTokens(contextWindow int) int {
	return contextWindow * 35 / 100
}

// Package agent implements the conversational agent: the per-turn
// pipeline that takes one chat message, classifies it, folds any
// setting changes into the project's bundle, decides whether to
// generate a chapter, and returns a reply.
package agent

import (
	"context"
	"fmt"

	"github.com/loomtale/engine/internal/application/consistency"
	"github.com/loomtale/engine/internal/application/extraction"
	"github.com/loomtale/engine/internal/application/generation"
	"github.com/loomtale/engine/internal/application/intent"
	"github.com/loomtale/engine/internal/application/memory"
	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/repository"
	"github.com/loomtale/engine/pkg/logger"
	"github.com/loomtale/engine/pkg/metrics"
)

// ChatInput is one call into the agent.
type ChatInput struct {
	SessionID string
	ProjectID string
	Message   string
	Provider  string
	Model     string
}

// GeneratedChapter summarizes one chapter produced during a turn.
type GeneratedChapter struct {
	ChapterNumber int
	Content       string
	WordCount     int
}

// ChatReply is the agent's response to one turn.
type ChatReply struct {
	SessionID         string
	Text              string
	Generated         *GeneratedChapter
	ConsistencyReport *entity.ConsistencyReport
}

// completenessThreshold and consistencyThreshold gate the creation
// decision: a turn only generates without an explicit cue once the
// bundle is complete enough and stable enough to trust.
const (
	defaultCompletenessThreshold = 0.7
	defaultConsistencyThreshold  = 0.5
)

// Agent wires every component the per-turn algorithm calls into one
// entry point.
type Agent struct {
	sessions   *sessionCache
	recognizer *intent.Recognizer
	extractor  *extraction.Extractor
	completer  *extraction.Completer
	checkers   []consistency.Checker
	weights    map[entity.IssueSeverity]float64
	generator  *generation.Generator
	chapters   repository.ChapterRepository
	projects   repository.ProjectRepository
	memories   func(projectID string) memory.Store

	completenessThreshold float64
	consistencyThreshold  float64
}

// Config bundles Agent's tunables, sourced from config.AgentConfig and
// config.GenerationConfig/ConsistencyConfig at construction.
type Config struct {
	SessionTurnCap        int
	SessionCacheSize      int
	CompletenessThreshold float64
	ConsistencyThreshold  float64
}

// New builds an Agent. memories resolves a project-scoped memory store
// lazily, mirroring generation.Generator's own memories hook.
func New(
	sessions repository.SessionRepository,
	recognizer *intent.Recognizer,
	extractor *extraction.Extractor,
	completer *extraction.Completer,
	checkers []consistency.Checker,
	weights map[entity.IssueSeverity]float64,
	generator *generation.Generator,
	chapters repository.ChapterRepository,
	projects repository.ProjectRepository,
	memories func(projectID string) memory.Store,
	cfg Config,
) *Agent {
	if cfg.CompletenessThreshold <= 0 {
		cfg.CompletenessThreshold = defaultCompletenessThreshold
	}
	if cfg.ConsistencyThreshold <= 0 {
		cfg.ConsistencyThreshold = defaultConsistencyThreshold
	}
	return &Agent{
		sessions:               newSessionCache(sessions, cfg.SessionCacheSize, cfg.SessionTurnCap),
		recognizer:             recognizer,
		extractor:              extractor,
		completer:              completer,
		checkers:               checkers,
		weights:                weights,
		generator:              generator,
		chapters:               chapters,
		projects:               projects,
		memories:               memories,
		completenessThreshold:  cfg.CompletenessThreshold,
		consistencyThreshold:   cfg.ConsistencyThreshold,
	}
}

// settingIntents is the set of intents that trigger setting extraction.
var settingIntents = map[intent.Kind]bool{
	intent.CreateStory:   true,
	intent.ModifySetting: true,
	intent.ModifyContent: true,
}

// turnPlan is everything steps 1-4 of the per-turn algorithm decide,
// before step 5 either generates or replies conversationally. Chat and
// ChatStream share it so the two entry points can never disagree on
// intent, completeness, or mode selection.
type turnPlan struct {
	session    *entity.Session
	intentKind intent.Kind
	report     *entity.ConsistencyReport

	generate      bool
	conversational string // set when generate is false: the reply to send as-is

	mode          entity.GenerationMode
	chapterNumber int
	parentID      string
	previous      string
}

// prepareTurn runs steps 1-4 of the per-turn algorithm: append the user
// turn, classify intent, extract/complete settings, and decide whether
// to generate. Step 5 (generation) is left to the caller so Chat can run
// it synchronously and ChatStream can run it incrementally.
func (a *Agent) prepareTurn(ctx context.Context, in ChatInput) (*turnPlan, error) {
	session, err := a.sessions.loadOrCreate(ctx, in.SessionID, in.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err := a.sessions.appendTurn(ctx, session, entity.RoleUser, in.Message); err != nil {
		return nil, fmt.Errorf("failed to append user turn: %w", err)
	}

	result, err := a.recognizer.Recognize(ctx, in.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to recognize intent: %w", err)
	}

	var report *entity.ConsistencyReport
	if settingIntents[result.Intent] {
		report, err = a.applySettingTurn(ctx, session, in.Message)
		if err != nil {
			return nil, err
		}
	}

	if report != nil && report.HasErrors() {
		return &turnPlan{
			session:        session,
			intentKind:     result.Intent,
			report:         report,
			generate:       false,
			conversational: clarificationFor(report),
		}, nil
	}

	if !a.decideGeneration(result.Intent, in.Message, session.DerivedSettings, report) {
		var text string
		if result.Intent == intent.Query {
			text = queryReplyFor(session.DerivedSettings)
		} else {
			text = acknowledgmentFor(in.Message, session.DerivedSettings)
		}
		return &turnPlan{
			session:        session,
			intentKind:     result.Intent,
			report:         report,
			generate:       false,
			conversational: text,
		}, nil
	}

	mode, chapterNumber, parentID, err := a.chooseMode(ctx, in.Message, in.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to choose generation mode: %w", err)
	}
	previous := a.previousContentFor(ctx, in.ProjectID, mode, chapterNumber, parentID)

	return &turnPlan{
		session:       session,
		intentKind:    result.Intent,
		report:        report,
		generate:      true,
		mode:          mode,
		chapterNumber: chapterNumber,
		parentID:      parentID,
		previous:      previous,
	}, nil
}

func (a *Agent) generationInput(ctx context.Context, in ChatInput, plan *turnPlan) generation.Input {
	var locale string
	if a.projects != nil && in.ProjectID != "" {
		if project, err := a.projects.Get(ctx, in.ProjectID); err == nil && project != nil {
			locale = project.Locale
		}
	}
	return generation.Input{
		Mode:            plan.mode,
		Bundle:          plan.session.DerivedSettings.Clone(),
		ChapterNumber:   plan.chapterNumber,
		PreviousContent: plan.previous,
		ProjectID:       in.ProjectID,
		ParentID:        plan.parentID,
		Provider:        in.Provider,
		Model:           in.Model,
		Locale:          locale,
	}
}

// Chat runs one turn through the full per-turn algorithm: load/append
// session history, classify intent, extract and complete settings,
// decide whether to generate, optionally generate, then persist and
// reply. Turns within one session are serialized by sessionCache's
// per-session lock; turns across sessions proceed concurrently.
func (a *Agent) Chat(ctx context.Context, in ChatInput) (*ChatReply, error) {
	unlock := a.sessions.lock(in.SessionID)
	defer unlock()

	plan, err := a.prepareTurn(ctx, in)
	if err != nil {
		return nil, err
	}

	if !plan.generate {
		if err := a.finishTurn(ctx, plan.session, in.ProjectID, plan.conversational); err != nil {
			return nil, err
		}
		metrics.AgentTurnsTotal.WithLabelValues(string(plan.intentKind), "false").Inc()
		return &ChatReply{SessionID: plan.session.SessionID, Text: plan.conversational, ConsistencyReport: plan.report}, nil
	}

	out, err := a.generator.Generate(ctx, a.generationInput(ctx, in, plan))
	if err != nil {
		logger.FromContext(ctx).Error("chapter generation failed", "error", err, "project_id", in.ProjectID, "chapter", plan.chapterNumber)
		text := "I ran into trouble writing that chapter. Want me to try again?"
		if ferr := a.finishTurn(ctx, plan.session, in.ProjectID, text); ferr != nil {
			return nil, ferr
		}
		metrics.AgentTurnsTotal.WithLabelValues(string(plan.intentKind), "false").Inc()
		return &ChatReply{SessionID: plan.session.SessionID, Text: text}, nil
	}

	text := replyForGenerated(plan.mode, out)
	if err := a.finishTurn(ctx, plan.session, in.ProjectID, text); err != nil {
		return nil, err
	}
	metrics.AgentTurnsTotal.WithLabelValues(string(plan.intentKind), "true").Inc()

	return &ChatReply{
		SessionID: plan.session.SessionID,
		Text:      text,
		Generated: &GeneratedChapter{
			ChapterNumber: plan.chapterNumber,
			Content:       out.Content,
			WordCount:     out.WordCount,
		},
		ConsistencyReport: out.ConsistencyReport,
	}, nil
}

// GenerateChapter runs a generation attempt directly, bypassing the
// conversational pipeline, for callers that already know the target
// chapter and mode (an explicit "regenerate chapter 4" command, a batch
// job, or a management API). It reads the project's persisted settings
// bundle rather than a session's in-progress one.
func (a *Agent) GenerateChapter(ctx context.Context, projectID string, chapterNumber int, mode entity.GenerationMode, constraints string) (*entity.GenerationRecord, error) {
	project, err := a.projects.Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	var parentID string
	if mode == entity.ModeExpand || mode == entity.ModeRewrite {
		if current, cerr := a.chapters.GetCurrent(ctx, projectID, chapterNumber); cerr == nil {
			parentID = current.ID
		}
	}
	previous := a.previousContentFor(ctx, projectID, mode, chapterNumber, parentID)

	out, err := a.generator.Generate(ctx, generation.Input{
		Mode:            mode,
		Bundle:          project.Settings.Clone(),
		ChapterNumber:   chapterNumber,
		Constraints:     constraints,
		PreviousContent: previous,
		ProjectID:       projectID,
		ParentID:        parentID,
		Locale:          project.Locale,
	})
	if err != nil {
		return nil, err
	}
	return out.Record, nil
}

// ListGenerations returns every generation record for a project.
func (a *Agent) ListGenerations(ctx context.Context, projectID string) ([]*entity.GenerationRecord, error) {
	return a.chapters.List(ctx, projectID)
}

// finishTurn appends the assistant's reply, persists the session, and
// folds any turns the session's turn cap evicted into a single CONTEXT
// memory item before they are gone for good.
func (a *Agent) finishTurn(ctx context.Context, session *entity.Session, projectID, text string) error {
	if err := a.sessions.appendTurn(ctx, session, entity.RoleAssistant, text); err != nil {
		return fmt.Errorf("failed to append assistant turn: %w", err)
	}
	if projectID != "" && a.projects != nil {
		if err := a.projects.UpdateSettings(ctx, projectID, session.DerivedSettings); err != nil {
			logger.FromContext(ctx).Warn("failed to sync derived settings to project", "error", err, "project_id", projectID)
		}
	}

	evicted := a.sessions.evictOverflow(session)
	if len(evicted) > 0 {
		if store := a.memoryStoreFor(projectID); store != nil {
			item := entity.NewMemoryItem("", projectID, entity.LevelContext, summarizeEvictedTurns(evicted))
			item.Metadata["order"] = fmt.Sprintf("%d", len(session.Turns))
			if _, err := store.Add(ctx, item); err != nil {
				logger.FromContext(ctx).Warn("failed to fold evicted turns into context memory", "error", err, "project_id", projectID)
			}
		}
	}
	return nil
}

// summarizeEvictedTurns folds a run of evicted turns into one compact
// CONTEXT-tier line per turn, oldest first.
func summarizeEvictedTurns(evicted []entity.Turn) string {
	var b []byte
	for _, t := range evicted {
		b = append(b, fmt.Sprintf("[%s] %s\n", t.Role, t.Text)...)
	}
	return string(b)
}

// previousContentFor loads the source content a CONTINUE/REWRITE/EXPAND
// attempt builds from: the prior chapter's current record for CONTINUE,
// the targeted record directly for REWRITE/EXPAND.
func (a *Agent) previousContentFor(ctx context.Context, projectID string, mode entity.GenerationMode, chapterNumber int, parentID string) string {
	switch mode {
	case entity.ModeContinue:
		record, err := a.chapters.GetCurrent(ctx, projectID, chapterNumber-1)
		if err != nil {
			return ""
		}
		return record.Content
	case entity.ModeRewrite, entity.ModeExpand:
		if parentID == "" {
			return ""
		}
		record, err := a.chapters.Get(ctx, parentID)
		if err != nil {
			return ""
		}
		return record.Content
	default:
		return ""
	}
}

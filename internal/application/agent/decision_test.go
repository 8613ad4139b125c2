package agent

import (
	"context"
	"testing"

	"github.com/loomtale/engine/internal/application/intent"
	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/infrastructure/persistence/inmemory"
)

func newTestAgent(t *testing.T) (*Agent, *inmemory.ChapterRepository) {
	t.Helper()
	chapters := inmemory.NewChapterRepository()
	a := New(
		inmemory.NewSessionRepository(),
		intent.New(nil, ""),
		nil, nil, nil, nil, nil,
		chapters,
		inmemory.NewProjectRepository(),
		nil,
		Config{},
	)
	return a, chapters
}

func TestDecideGenerationOnExplicitIntent(t *testing.T) {
	a, _ := newTestAgent(t)
	bundle := entity.NewSettingsBundle()
	if !a.decideGeneration(intent.GenerateContent, "anything", bundle, nil) {
		t.Error("GENERATE_CONTENT intent should always decide to generate")
	}
	if !a.decideGeneration(intent.ContinueContent, "anything", bundle, nil) {
		t.Error("CONTINUE_CONTENT intent should always decide to generate")
	}
}

func TestDecideGenerationRequiresCompletenessForImplicitCue(t *testing.T) {
	a, _ := newTestAgent(t)
	sparse := entity.NewSettingsBundle()

	if a.decideGeneration(intent.Chat, "write the next chapter", sparse, nil) {
		t.Error("an incomplete bundle should not auto-generate off a bare cue")
	}

	complete := entity.NewSettingsBundle()
	complete.Apply(entity.Edit{Kind: entity.EditUpsertCharacter, CharacterName: "Mira", CharacterRole: entity.RoleProtagonist})
	complete.Apply(entity.Edit{Kind: entity.EditAddPlotPoint, PlotPoint: entity.NewPlotPoint("a rebellion", entity.PlotInciting)})
	complete.Apply(entity.Edit{Kind: entity.EditUpsertWorldField, WorldField: "genre", WorldValue: "fantasy"})
	complete.Apply(entity.Edit{Kind: entity.EditAddLocation, Location: "Varn"})

	if !a.decideGeneration(intent.Chat, "write the next chapter", complete, nil) {
		t.Error("a complete, consistent bundle with a generation cue should decide to generate")
	}
	if a.decideGeneration(intent.Chat, "no cue here", complete, nil) {
		t.Error("no generation cue should mean no generation even with a complete bundle")
	}
}

func TestDecideGenerationBlockedByLowConsistency(t *testing.T) {
	a, _ := newTestAgent(t)
	complete := entity.NewSettingsBundle()
	complete.Apply(entity.Edit{Kind: entity.EditUpsertCharacter, CharacterName: "Mira", CharacterRole: entity.RoleProtagonist})
	complete.Apply(entity.Edit{Kind: entity.EditAddPlotPoint, PlotPoint: entity.NewPlotPoint("a rebellion", entity.PlotInciting)})
	complete.Apply(entity.Edit{Kind: entity.EditUpsertWorldField, WorldField: "genre", WorldValue: "fantasy"})
	complete.Apply(entity.Edit{Kind: entity.EditAddLocation, Location: "Varn"})

	report := entity.NewConsistencyReport([]entity.ConsistencyIssue{
		{Kind: "genre_contradiction", Severity: entity.SeverityError},
		{Kind: "era_contradiction", Severity: entity.SeverityError},
	})

	if a.decideGeneration(intent.Chat, "write the next chapter", complete, report) {
		t.Error("a low-consistency report should block implicit generation")
	}
}

func TestChooseModeFullOnEmptyProject(t *testing.T) {
	a, _ := newTestAgent(t)
	mode, chapter, parent, err := a.chooseMode(context.Background(), "write a chapter", "proj-1")
	if err != nil {
		t.Fatalf("chooseMode: %v", err)
	}
	if mode != entity.ModeFull || chapter != 1 || parent != "" {
		t.Errorf("got mode=%s chapter=%d parent=%q, want FULL chapter=1 parent=\"\"", mode, chapter, parent)
	}
}

func TestChooseModeContinuesAfterCurrentChapter(t *testing.T) {
	a, chapters := newTestAgent(t)
	ctx := context.Background()

	record := entity.NewGenerationRecord("rec-1", "proj-1", 1, entity.ModeFull, "")
	record.Transition(entity.StateGenerating)
	record.Complete("once upon a time", 4, "fp")
	if err := chapters.Add(ctx, record); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := chapters.SetCurrent(ctx, "proj-1", 1, "rec-1"); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}

	mode, chapter, _, err := a.chooseMode(ctx, "continue the story", "proj-1")
	if err != nil {
		t.Fatalf("chooseMode: %v", err)
	}
	if mode != entity.ModeContinue || chapter != 2 {
		t.Errorf("got mode=%s chapter=%d, want CONTINUE chapter=2", mode, chapter)
	}
}

func TestChooseModeExpandsOnExplicitChapterLocator(t *testing.T) {
	a, chapters := newTestAgent(t)
	ctx := context.Background()

	record := entity.NewGenerationRecord("rec-1", "proj-1", 3, entity.ModeFull, "")
	record.Transition(entity.StateGenerating)
	record.Complete("chapter three content", 4, "fp")
	chapters.Add(ctx, record)
	chapters.SetCurrent(ctx, "proj-1", 3, "rec-1")

	mode, chapter, parent, err := a.chooseMode(ctx, "let's expand chapter 3, paragraph 2", "proj-1")
	if err != nil {
		t.Fatalf("chooseMode: %v", err)
	}
	if mode != entity.ModeExpand || chapter != 3 || parent != "rec-1" {
		t.Errorf("got mode=%s chapter=%d parent=%q, want EXPAND chapter=3 parent=rec-1", mode, chapter, parent)
	}
}

func TestChooseModeRewritesOnBareChapterLocator(t *testing.T) {
	a, chapters := newTestAgent(t)
	ctx := context.Background()

	record := entity.NewGenerationRecord("rec-1", "proj-1", 2, entity.ModeFull, "")
	record.Transition(entity.StateGenerating)
	record.Complete("chapter two content", 4, "fp")
	chapters.Add(ctx, record)
	chapters.SetCurrent(ctx, "proj-1", 2, "rec-1")

	mode, chapter, parent, err := a.chooseMode(ctx, "rewrite chapter 2 please", "proj-1")
	if err != nil {
		t.Fatalf("chooseMode: %v", err)
	}
	if mode != entity.ModeRewrite || chapter != 2 || parent != "rec-1" {
		t.Errorf("got mode=%s chapter=%d parent=%q, want REWRITE chapter=2 parent=rec-1", mode, chapter, parent)
	}
}

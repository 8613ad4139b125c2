package extraction

import (
	"context"
	"testing"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/gateway"
)

// fakeProvider returns fixed content from Generate and is never expected
// to have GenerateStream/CountTokens exercised by the completer.
type fakeProvider struct {
	content string
	calls   int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	f.calls++
	return &gateway.Response{Content: f.content}, nil
}

func (f *fakeProvider) GenerateStream(ctx context.Context, req gateway.Request) (<-chan gateway.Chunk, error) {
	panic("not used by Completer")
}

func (f *fakeProvider) CountTokens(ctx context.Context, text string) (int, error) { return len(text) / 4, nil }

func TestReadinessReportsMissingSlots(t *testing.T) {
	bundle := entity.NewSettingsBundle()
	c := NewCompleter(nil, "")
	r := c.Readiness(bundle)
	if r.Ready() {
		t.Fatal("an empty bundle should not be ready")
	}
	if r.HasProtagonist || r.HasConflict || r.HasGenre || r.HasLocation {
		t.Errorf("expected all slots empty, got %+v", r)
	}
}

func TestReadinessReadyWhenAllSlotsFilled(t *testing.T) {
	bundle := entity.NewSettingsBundle()
	bundle.Apply(entity.Edit{Kind: entity.EditUpsertCharacter, CharacterName: "Mira", CharacterRole: entity.RoleProtagonist})
	bundle.Apply(entity.Edit{Kind: entity.EditAddPlotPoint, PlotPoint: entity.NewPlotPoint("the war begins", entity.PlotInciting)})
	bundle.Apply(entity.Edit{Kind: entity.EditAddLocation, Location: "Varn"})
	bundle.World.Genre = "fantasy"

	c := NewCompleter(nil, "")
	r := c.Readiness(bundle)
	if !r.Ready() {
		t.Fatalf("expected a fully-populated bundle to be ready: %+v", r)
	}
}

func TestCompleteSkipsProviderCallWhenAlreadyReady(t *testing.T) {
	bundle := entity.NewSettingsBundle()
	bundle.Apply(entity.Edit{Kind: entity.EditUpsertCharacter, CharacterName: "Mira", CharacterRole: entity.RoleProtagonist})
	bundle.Apply(entity.Edit{Kind: entity.EditAddPlotPoint, PlotPoint: entity.NewPlotPoint("the war begins", entity.PlotInciting)})
	bundle.Apply(entity.Edit{Kind: entity.EditAddLocation, Location: "Varn"})
	bundle.World.Genre = "fantasy"

	provider := &fakeProvider{content: `{"genre": "sci-fi"}`}
	c := NewCompleter(provider, "gpt-test")

	edits, err := c.Complete(context.Background(), bundle)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if edits != nil {
		t.Errorf("expected no edits for an already-ready bundle, got %+v", edits)
	}
	if provider.calls != 0 {
		t.Errorf("expected the provider not to be called, got %d calls", provider.calls)
	}
}

func TestCompleteFillsMissingSlotsFromProviderResponse(t *testing.T) {
	bundle := entity.NewSettingsBundle()
	provider := &fakeProvider{content: `{"protagonist_name": "Mira", "genre": "fantasy", "location": "Varn", "conflict": "the war begins"}`}
	c := NewCompleter(provider, "gpt-test")

	edits, err := c.Complete(context.Background(), bundle)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(edits) != 4 {
		t.Fatalf("expected 4 edits (one per missing slot), got %d: %+v", len(edits), edits)
	}
	for _, e := range edits {
		if !e.AIGenerated {
			t.Errorf("expected edit %+v to be marked AIGenerated", e)
		}
	}
}

func TestCompleteSwallowsUnparseableResponse(t *testing.T) {
	bundle := entity.NewSettingsBundle()
	provider := &fakeProvider{content: "sorry, I can't help with that"}
	c := NewCompleter(provider, "gpt-test")

	edits, err := c.Complete(context.Background(), bundle)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if edits != nil {
		t.Errorf("expected no edits for an unparseable response, got %+v", edits)
	}
}

func TestCompleteOnlyFillsSlotsStillMissing(t *testing.T) {
	bundle := entity.NewSettingsBundle()
	bundle.World.Genre = "fantasy"

	provider := &fakeProvider{content: `{"genre": "sci-fi", "location": "Varn"}`}
	c := NewCompleter(provider, "gpt-test")

	edits, err := c.Complete(context.Background(), bundle)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	for _, e := range edits {
		if e.Kind == entity.EditUpsertWorldField && e.WorldField == "genre" {
			t.Error("genre is already set; the completer should not propose overwriting it")
		}
	}
	if len(edits) != 1 || edits[0].Location != "Varn" {
		t.Errorf("expected only the location edit, got %+v", edits)
	}
}

package generation

import (
	"strings"
	"testing"

	"github.com/loomtale/engine/internal/domain/entity"
)

func TestBuildWorldBlockIncludesKnownFields(t *testing.T) {
	world := entity.NewWorld()
	world.Genre = "fantasy"
	world.Era = "medieval"
	world.AddLocation("Varn")
	world.AddRule("magic requires blood")

	block := buildWorldBlock(world, 500)
	for _, want := range []string{"fantasy", "medieval", "Varn", "magic requires blood"} {
		if !strings.Contains(block, want) {
			t.Errorf("world block %q missing %q", block, want)
		}
	}
}

func TestBuildWorldBlockHandlesNilWorld(t *testing.T) {
	if got := buildWorldBlock(nil, 500); got == "" {
		t.Error("expected a placeholder string for a nil world, not empty")
	}
}

func TestBuildWorldBlockTruncatesToBudget(t *testing.T) {
	world := entity.NewWorld()
	world.Genre = strings.Repeat("fantasy saga ", 200)

	full := buildWorldBlock(world, 10000)
	truncated := buildWorldBlock(world, 5)
	if len(truncated) >= len(full) {
		t.Errorf("expected a tight token budget to truncate the block: got %d vs full %d", len(truncated), len(full))
	}
}

func TestBuildCharacterBlockListsExpectedNamesInOrder(t *testing.T) {
	bundle := entity.NewSettingsBundle()
	bundle.Apply(entity.Edit{Kind: entity.EditUpsertCharacter, CharacterName: "Mira", CharacterRole: entity.RoleProtagonist})
	bundle.Apply(entity.Edit{Kind: entity.EditUpsertCharacter, CharacterName: "Kael", CharacterRole: entity.RoleAntagonist})
	bundle.Apply(entity.Edit{Kind: entity.EditAddTrait, CharacterName: "Mira", Trait: "brave"})

	block := buildCharacterBlock(bundle, []string{"Kael", "Mira"})
	kaelIdx := strings.Index(block, "Kael")
	miraIdx := strings.Index(block, "Mira")
	if kaelIdx == -1 || miraIdx == -1 {
		t.Fatalf("expected both names present: %q", block)
	}
	if kaelIdx > miraIdx {
		t.Errorf("expected Kael before Mira per the explicit expected order, got %q", block)
	}
	if !strings.Contains(block, "brave") {
		t.Errorf("expected Mira's trait listed: %q", block)
	}
}

func TestBuildCharacterBlockEmptyBundle(t *testing.T) {
	bundle := entity.NewSettingsBundle()
	if got := buildCharacterBlock(bundle, nil); got == "" {
		t.Error("expected a placeholder for an empty bundle, not empty string")
	}
}

func TestTaskBlockForEachMode(t *testing.T) {
	for _, mode := range []entity.GenerationMode{
		entity.ModeFull, entity.ModeContinue, entity.ModeExpand, entity.ModeRewrite, entity.ModeOutline,
	} {
		block := taskBlockFor(mode, 500, "keep it tense")
		if block == "" {
			t.Errorf("task block for %s is empty", mode)
		}
		if !strings.Contains(block, "500") {
			t.Errorf("task block for %s missing target length: %q", mode, block)
		}
		if !strings.Contains(block, "keep it tense") {
			t.Errorf("task block for %s missing constraints: %q", mode, block)
		}
	}
}

func TestBuildContinuationSeedEmptyInputStaysEmpty(t *testing.T) {
	if got := buildContinuationSeed(""); got != "" {
		t.Errorf("expected empty continuation seed for empty input, got %q", got)
	}
}

func TestBuildContinuationSeedKeepsTrailingContent(t *testing.T) {
	text := strings.Repeat("word ", 1000) + "THE_END"
	seed := buildContinuationSeed(text)
	if !strings.Contains(seed, "THE_END") {
		t.Error("expected the continuation seed to keep the trailing content, not the leading content")
	}
}

func TestPromptRegistryRendersBothPrompts(t *testing.T) {
	r := NewPromptRegistry()
	system, user, err := r.Render(promptData{
		StyleHints:     "tense",
		POV:            "third",
		Tense:          "past",
		WorldBlock:     "a fantasy world",
		CharacterBlock: "Mira, the protagonist",
		TaskBlock:      "write chapter one",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if system == "" || user == "" {
		t.Fatal("expected both system and user prompts to render non-empty")
	}
}

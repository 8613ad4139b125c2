package consistency

import (
	"context"
	"testing"

	"github.com/loomtale/engine/internal/domain/entity"
)

func TestWorldRuleCheckerFlagsGenreContradiction(t *testing.T) {
	bundle := entity.NewSettingsBundle()
	bundle.World.Genre = "fantasy sci-fi blend"

	issues, err := NewWorldRuleChecker().Check(context.Background(), CheckInput{Bundle: bundle})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !hasIssue(issues, "genre_contradiction") {
		t.Errorf("expected a genre_contradiction issue, got %+v", issues)
	}
}

func TestWorldRuleCheckerFlagsEraContradiction(t *testing.T) {
	bundle := entity.NewSettingsBundle()
	bundle.World.Era = "an ancient future"

	issues, err := NewWorldRuleChecker().Check(context.Background(), CheckInput{Bundle: bundle})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !hasIssue(issues, "era_contradiction") {
		t.Errorf("expected an era_contradiction issue, got %+v", issues)
	}
}

func TestWorldRuleCheckerFlagsRuleNegation(t *testing.T) {
	bundle := entity.NewSettingsBundle()
	bundle.World.AddRule("magic is forbidden")

	edits := []entity.Edit{
		{Kind: entity.EditUpsertWorldField, WorldField: "rule", WorldValue: "no magic is forbidden"},
	}

	issues, err := NewWorldRuleChecker().Check(context.Background(), CheckInput{Bundle: bundle, NewEdits: edits})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !hasIssue(issues, "rule_negation") {
		t.Errorf("expected a rule_negation issue, got %+v", issues)
	}
}

func TestWorldRuleCheckerNoIssuesForConsistentWorld(t *testing.T) {
	bundle := entity.NewSettingsBundle()
	bundle.World.Genre = "fantasy"
	bundle.World.Era = "medieval"

	issues, err := NewWorldRuleChecker().Check(context.Background(), CheckInput{Bundle: bundle})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("expected no issues for a consistent world, got %+v", issues)
	}
}

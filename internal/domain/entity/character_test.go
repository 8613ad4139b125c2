package entity

import "testing"

func TestNewCharacterStartsWithEmptySets(t *testing.T) {
	c := NewCharacter("Mira", RoleProtagonist)
	if c.Name != "Mira" || c.Role != RoleProtagonist {
		t.Fatalf("NewCharacter = %+v", c)
	}
	if len(c.Traits) != 0 || len(c.Relationships) != 0 {
		t.Errorf("expected empty trait/relationship sets, got %+v", c)
	}
}

func TestAddTraitIsIdempotentAndIgnoresEmpty(t *testing.T) {
	c := NewCharacter("Mira", RoleProtagonist)
	c.AddTrait("brave")
	c.AddTrait("brave")
	c.AddTrait("")
	if len(c.Traits) != 1 || !c.Traits["brave"] {
		t.Errorf("Traits = %+v, want only {brave: true}", c.Traits)
	}
}

func TestSetRelationshipIgnoresEmptyOtherOrRelation(t *testing.T) {
	c := NewCharacter("Mira", RoleProtagonist)
	c.SetRelationship("", "friend")
	c.SetRelationship("Kael", "")
	if len(c.Relationships) != 0 {
		t.Errorf("Relationships = %+v, want empty", c.Relationships)
	}
	c.SetRelationship("Kael", "rival")
	if c.Relationships["Kael"] != "rival" {
		t.Errorf("Relationships[Kael] = %q, want rival", c.Relationships["Kael"])
	}
}

func TestTraitListReturnsAllTraits(t *testing.T) {
	c := NewCharacter("Mira", RoleProtagonist)
	c.AddTrait("brave")
	c.AddTrait("stubborn")
	list := c.TraitList()
	if len(list) != 2 {
		t.Fatalf("TraitList = %v, want 2 entries", list)
	}
	seen := map[string]bool{list[0]: true, list[1]: true}
	if !seen["brave"] || !seen["stubborn"] {
		t.Errorf("TraitList = %v, missing expected traits", list)
	}
}

func TestCloneDeepCopiesTraitsAndRelationships(t *testing.T) {
	c := NewCharacter("Mira", RoleProtagonist)
	c.AddTrait("brave")
	c.SetRelationship("Kael", "rival")

	clone := c.Clone()
	clone.AddTrait("reckless")
	clone.SetRelationship("Kael", "ally")

	if c.Traits["reckless"] {
		t.Error("mutating clone's Traits affected the original")
	}
	if c.Relationships["Kael"] != "rival" {
		t.Errorf("mutating clone's Relationships affected the original: %q", c.Relationships["Kael"])
	}
	if clone.Name != c.Name || clone.Role != c.Role {
		t.Errorf("Clone changed immutable fields: %+v vs %+v", clone, c)
	}
}

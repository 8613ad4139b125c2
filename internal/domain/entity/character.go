package entity

// CharacterRole is a character's narrative function.
type CharacterRole string

const (
	RoleProtagonist CharacterRole = "PROTAGONIST"
	RoleAntagonist  CharacterRole = "ANTAGONIST"
	RoleSupporting  CharacterRole = "SUPPORTING"
	RoleMinor       CharacterRole = "MINOR"
)

// Character is a project's character profile. Name is the stable key
// other entities reference it by; edits must preserve it unless the
// caller explicitly renames the character.
type Character struct {
	Name          string            `json:"name"`
	Role          CharacterRole     `json:"role"`
	Traits        map[string]bool   `json:"traits"`
	Background    string            `json:"background,omitempty"`
	Relationships map[string]string `json:"relationships"`
	AIGenerated   bool              `json:"ai_generated"`
}

// NewCharacter creates a character profile with empty trait/relationship sets.
func NewCharacter(name string, role CharacterRole) *Character {
	return &Character{
		Name:          name,
		Role:          role,
		Traits:        map[string]bool{},
		Relationships: map[string]string{},
	}
}

// AddTrait adds a trait to the character's trait set. Idempotent.
func (c *Character) AddTrait(trait string) {
	if trait == "" {
		return
	}
	c.Traits[trait] = true
}

// SetRelationship records a directed relationship claim (c.Name -> other).
func (c *Character) SetRelationship(other, relation string) {
	if other == "" || relation == "" {
		return
	}
	c.Relationships[other] = relation
}

// TraitList returns the character's traits as a sorted-free slice; callers
// that need determinism should sort the result themselves.
func (c *Character) TraitList() []string {
	out := make([]string, 0, len(c.Traits))
	for t := range c.Traits {
		out = append(out, t)
	}
	return out
}

// Clone returns a deep copy so callers may mutate without aliasing the
// bundle's stored value.
func (c *Character) Clone() *Character {
	cp := &Character{
		Name:        c.Name,
		Role:        c.Role,
		Background:  c.Background,
		AIGenerated: c.AIGenerated,
		Traits:      make(map[string]bool, len(c.Traits)),
		Relationships: make(map[string]string, len(c.Relationships)),
	}
	for k, v := range c.Traits {
		cp.Traits[k] = v
	}
	for k, v := range c.Relationships {
		cp.Relationships[k] = v
	}
	return cp
}

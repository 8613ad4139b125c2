package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// SettingsBundle is a project's authoritative, composite setting state.
// Every generation reads from an immutable snapshot of a bundle.
type SettingsBundle struct {
	Characters  map[string]*Character `json:"characters"`
	World       *World                `json:"world"`
	PlotPoints  []*PlotPoint          `json:"plot_points"`
	Themes      map[string]bool       `json:"themes"`
	StyleHints  map[string]string     `json:"style_hints"` // aspect -> value
}

// NewSettingsBundle creates an empty bundle.
func NewSettingsBundle() *SettingsBundle {
	return &SettingsBundle{
		Characters: map[string]*Character{},
		World:      NewWorld(),
		PlotPoints: []*PlotPoint{},
		Themes:     map[string]bool{},
		StyleHints: map[string]string{},
	}
}

// EditKind is the closed set of deterministic mutations a bundle accepts.
// Extraction never mutates a bundle directly; it emits a sequence of Edit
// values that the bundle applies one at a time via Apply.
type EditKind string

const (
	EditUpsertCharacter EditKind = "UPSERT_CHARACTER"
	EditAddTrait        EditKind = "ADD_TRAIT"
	EditAddLocation     EditKind = "ADD_LOCATION"
	EditUpsertWorldField EditKind = "UPSERT_WORLD_FIELD"
	EditAddPlotPoint    EditKind = "ADD_PLOT_POINT"
	EditSetStyle        EditKind = "SET_STYLE"
)

// Edit is one deterministic mutation to a settings bundle. Only the
// fields relevant to Kind are read by Apply.
type Edit struct {
	Kind EditKind

	// UpsertCharacter / AddTrait
	CharacterName string
	CharacterRole CharacterRole
	Trait         string

	// AddLocation
	Location string

	// UpsertWorldField
	WorldField string // "genre" | "era" | "technology_level" | "rule"
	WorldValue string

	// AddPlotPoint
	PlotPoint *PlotPoint

	// SetStyle
	StyleAspect string
	StyleValue  string

	AIGenerated bool
}

// Apply mutates the bundle according to e.Kind. Unknown kinds are no-ops,
// keeping Apply total over the closed union.
func (b *SettingsBundle) Apply(e Edit) {
	switch e.Kind {
	case EditUpsertCharacter:
		c, ok := b.Characters[e.CharacterName]
		if !ok {
			c = NewCharacter(e.CharacterName, e.CharacterRole)
			c.AIGenerated = e.AIGenerated
			b.Characters[e.CharacterName] = c
			return
		}
		if e.CharacterRole != "" {
			c.Role = e.CharacterRole
		}
	case EditAddTrait:
		c, ok := b.Characters[e.CharacterName]
		if !ok {
			return
		}
		c.AddTrait(e.Trait)
	case EditAddLocation:
		b.World.AddLocation(e.Location)
	case EditUpsertWorldField:
		switch e.WorldField {
		case "genre":
			b.World.Genre = e.WorldValue
		case "era":
			b.World.Era = e.WorldValue
		case "technology_level":
			b.World.TechnologyLevel = e.WorldValue
		case "rule":
			b.World.AddRule(strings.ToLower(strings.TrimSpace(e.WorldValue)))
		}
		if e.AIGenerated {
			b.World.AIGenerated = true
		}
	case EditAddPlotPoint:
		if e.PlotPoint == nil {
			return
		}
		for _, p := range b.PlotPoints {
			if p.Summary == e.PlotPoint.Summary && p.Kind == e.PlotPoint.Kind {
				return
			}
		}
		b.PlotPoints = append(b.PlotPoints, e.PlotPoint)
	case EditSetStyle:
		b.StyleHints[e.StyleAspect] = e.StyleValue
	}
}

// ApplyAll applies edits in order. Applying the same set of edits twice
// (idempotent extraction) leaves the bundle unchanged the second time,
// since every operation is an upsert or set-membership add (a plot point
// is added only if none with the same summary and kind is present).
func (b *SettingsBundle) ApplyAll(edits []Edit) {
	for _, e := range edits {
		b.Apply(e)
	}
}

// Clone returns a deep copy of the bundle.
func (b *SettingsBundle) Clone() *SettingsBundle {
	cp := NewSettingsBundle()
	for name, c := range b.Characters {
		cp.Characters[name] = c.Clone()
	}
	cp.World = b.World.Clone()
	for _, p := range b.PlotPoints {
		cp.PlotPoints = append(cp.PlotPoints, p.Clone())
	}
	for t := range b.Themes {
		cp.Themes[t] = true
	}
	for k, v := range b.StyleHints {
		cp.StyleHints[k] = v
	}
	return cp
}

// canonical is the JSON-stable, key-sorted projection of a bundle used for
// fingerprinting. Maps already sort keys under encoding/json; slices are
// sorted here so equivalent bundles built via different edit orders hash
// identically.
type canonical struct {
	Characters []canonicalCharacter `json:"characters"`
	World      *World               `json:"world"`
	PlotPoints []canonicalPlotPoint `json:"plot_points"`
	Themes     []string             `json:"themes"`
	StyleHints map[string]string    `json:"style_hints"`
}

type canonicalCharacter struct {
	Name          string   `json:"name"`
	Role          string   `json:"role"`
	Traits        []string `json:"traits"`
	Background    string   `json:"background"`
	Relationships map[string]string `json:"relationships"`
	AIGenerated   bool     `json:"ai_generated"`
}

type canonicalPlotPoint struct {
	Summary            string   `json:"summary"`
	Kind               string   `json:"kind"`
	InvolvedCharacters []string `json:"involved_characters"`
	Resolved           bool     `json:"resolved"`
}

// Canonicalize projects the bundle into a form stable under key reordering,
// so Fingerprint is stable regardless of map iteration or edit order.
func (b *SettingsBundle) Canonicalize() []byte {
	c := canonical{
		StyleHints: b.StyleHints,
		World:      b.World,
	}
	names := make([]string, 0, len(b.Characters))
	for n := range b.Characters {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		ch := b.Characters[n]
		traits := ch.TraitList()
		sort.Strings(traits)
		c.Characters = append(c.Characters, canonicalCharacter{
			Name:          ch.Name,
			Role:          string(ch.Role),
			Traits:        traits,
			Background:    ch.Background,
			Relationships: ch.Relationships,
			AIGenerated:   ch.AIGenerated,
		})
	}
	for _, p := range b.PlotPoints {
		involved := make([]string, 0, len(p.InvolvedCharacters))
		for n := range p.InvolvedCharacters {
			involved = append(involved, n)
		}
		sort.Strings(involved)
		c.PlotPoints = append(c.PlotPoints, canonicalPlotPoint{
			Summary:            p.Summary,
			Kind:               string(p.Kind),
			InvolvedCharacters: involved,
			Resolved:           p.Resolved,
		})
	}
	themes := make([]string, 0, len(b.Themes))
	for t := range b.Themes {
		themes = append(themes, t)
	}
	sort.Strings(themes)
	c.Themes = themes

	buf, _ := json.Marshal(c)
	return buf
}

// Fingerprint returns a stable hash of the canonicalized bundle, used to
// detect whether a generation record's premises have drifted since it was
// produced.
func (b *SettingsBundle) Fingerprint() string {
	sum := sha256.Sum256(b.Canonicalize())
	return hex.EncodeToString(sum[:])
}

// CompletenessScore computes the weighted-slot completeness heuristic:
// at least one protagonist, at least one conflict-bearing plot point, a
// known genre, and at least one location.
func (b *SettingsBundle) CompletenessScore() float64 {
	const (
		wProtagonist = 0.3
		wConflict    = 0.3
		wGenre       = 0.2
		wLocation    = 0.2
	)
	var score float64
	for _, c := range b.Characters {
		if c.Role == RoleProtagonist {
			score += wProtagonist
			break
		}
	}
	for _, p := range b.PlotPoints {
		if p.Kind == PlotInciting || p.Kind == PlotRising || p.Kind == PlotClimax {
			score += wConflict
			break
		}
	}
	if b.World.Genre != "" {
		score += wGenre
	}
	if len(b.World.Locations) > 0 {
		score += wLocation
	}
	return score
}

// Package extraction derives setting edits from a conversational turn,
// scores a bundle's completeness, and completes missing slots through
// the LLM gateway without ever surfacing a form to the user.
package extraction

import (
	"regexp"
	"strings"

	"github.com/loomtale/engine/internal/domain/entity"
)

var (
	namePattern       = regexp.MustCompile(`(?i)(?:named|called)\s+([A-Z][a-zA-Z'-]{1,20})`)
	rolePattern       = regexp.MustCompile(`(?i)\b(protagonist|antagonist|villain|supporting|hero)\b`)
	traitPattern      = regexp.MustCompile(`(?i)(?:personality is|is very|is quite|trait:)\s*([a-zA-Z ,]{2,30})`)
	genrePattern      = regexp.MustCompile(`(?i)\b(fantasy|sci-?fi|science fiction|cyberpunk|steampunk|historical|contemporary|horror|romance|mystery)\b`)
	eraPattern        = regexp.MustCompile(`(?i)\bin the ([a-zA-Z0-9 ]{2,20})\s*(?:era|period|age|dynasty)\b`)
	locationPattern   = regexp.MustCompile(`(?i)\b(?:in|at|near)\s+([A-Z][a-zA-Z' ]{2,24})\b`)
	conflictPattern   = regexp.MustCompile(`(?i)(?:conflict is|main issue is|stakes are)\s*([a-zA-Z0-9 ,']{3,60})`)
	tonePattern       = regexp.MustCompile(`(?i)\b(dark|lighthearted|whimsical|grim|comedic|melancholic|tense|hopeful)\b(?:\s+tone)?`)
)

var roleByCue = map[string]entity.CharacterRole{
	"protagonist": entity.RoleProtagonist,
	"hero":        entity.RoleProtagonist,
	"antagonist":  entity.RoleAntagonist,
	"villain":     entity.RoleAntagonist,
	"supporting":  entity.RoleSupporting,
}

// Extractor derives a closed set of deterministic edits from one
// conversational turn's raw text, using compiled cue patterns rather
// than a loop of substring checks.
type Extractor struct{}

// New builds an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract scans turn for character, world, plot, and style cues,
// returning the edits a SettingsBundle.ApplyAll call would apply.
func (e *Extractor) Extract(turn string) []entity.Edit {
	var edits []entity.Edit

	if name := namePattern.FindStringSubmatch(turn); name != nil {
		role := entity.RoleSupporting
		if m := rolePattern.FindString(turn); m != "" {
			if r, ok := roleByCue[strings.ToLower(m)]; ok {
				role = r
			}
		}
		edits = append(edits, entity.Edit{
			Kind:          entity.EditUpsertCharacter,
			CharacterName: strings.TrimSpace(name[1]),
			CharacterRole: role,
		})
		if trait := traitPattern.FindStringSubmatch(turn); trait != nil {
			edits = append(edits, entity.Edit{
				Kind:          entity.EditAddTrait,
				CharacterName: strings.TrimSpace(name[1]),
				Trait:         strings.TrimSpace(trait[1]),
			})
		}
	}

	if genre := genrePattern.FindString(turn); genre != "" {
		edits = append(edits, entity.Edit{
			Kind:       entity.EditUpsertWorldField,
			WorldField: "genre",
			WorldValue: strings.ToLower(genre),
		})
	}
	if era := eraPattern.FindStringSubmatch(turn); era != nil {
		edits = append(edits, entity.Edit{
			Kind:       entity.EditUpsertWorldField,
			WorldField: "era",
			WorldValue: strings.TrimSpace(era[1]),
		})
	}
	if loc := locationPattern.FindStringSubmatch(turn); loc != nil {
		edits = append(edits, entity.Edit{Kind: entity.EditAddLocation, Location: strings.TrimSpace(loc[1])})
	}

	if conflict := conflictPattern.FindStringSubmatch(turn); conflict != nil {
		edits = append(edits, entity.Edit{
			Kind: entity.EditAddPlotPoint,
			PlotPoint: entity.NewPlotPoint(strings.TrimSpace(conflict[1]), entity.PlotInciting),
		})
	}

	if tone := tonePattern.FindStringSubmatch(turn); tone != nil {
		edits = append(edits, entity.Edit{
			Kind:        entity.EditSetStyle,
			StyleAspect: "tone",
			StyleValue:  strings.ToLower(tone[1]),
		})
	}

	return edits
}

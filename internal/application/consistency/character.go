package consistency

import (
	"context"
	"fmt"
	"strings"

	"github.com/loomtale/engine/internal/domain/entity"
)

// contradictoryTraits pairs traits that cannot both hold for the same
// character without an explicit note reconciling them.
var contradictoryTraits = map[string][]string{
	"shy":         {"outgoing", "extroverted", "bold"},
	"outgoing":    {"shy", "introverted", "reserved"},
	"kind":        {"cruel", "mean", "evil"},
	"cruel":       {"kind", "compassionate", "gentle"},
	"brave":       {"cowardly", "fearful"},
	"cowardly":    {"brave", "courageous", "bold"},
	"intelligent": {"stupid", "foolish", "dim-witted"},
	"honest":      {"dishonest", "deceitful", "lying"},
}

// CharacterChecker verifies name spelling against the bundle's known
// characters, flags a role reassigned away from its established value,
// flags contradictory trait pairs, and checks relationship symmetry: a
// recorded A-to-B relationship with no matching B-to-A entry is
// unverified rather than wrong, so it scores INFO, not ERROR. A role
// contradiction scores ERROR: it usually means the model or the user
// is describing a different character under the same name.
type CharacterChecker struct{}

// NewCharacterChecker builds a CharacterChecker.
func NewCharacterChecker() *CharacterChecker { return &CharacterChecker{} }

func (c *CharacterChecker) Check(ctx context.Context, in CheckInput) ([]entity.ConsistencyIssue, error) {
	if in.Bundle == nil {
		return nil, nil
	}
	var issues []entity.ConsistencyIssue

	for _, e := range in.NewEdits {
		if e.CharacterName == "" {
			continue
		}
		if _, known := in.Bundle.Characters[e.CharacterName]; !known && e.Kind == entity.EditAddTrait {
			issues = append(issues, entity.ConsistencyIssue{
				Kind:        "unknown_character",
				Severity:    entity.SeverityWarn,
				Locus:       e.CharacterName,
				Description: fmt.Sprintf("trait added for character %q, which has no existing profile", e.CharacterName),
			})
		}
		if e.Kind == entity.EditUpsertCharacter && e.CharacterRole != "" {
			if prior, ok := in.PriorCharacterRoles[e.CharacterName]; ok && prior != "" && prior != e.CharacterRole {
				issues = append(issues, entity.ConsistencyIssue{
					Kind:        "role_contradiction",
					Severity:    entity.SeverityError,
					Locus:       e.CharacterName,
					Description: fmt.Sprintf("%s was established as %s but this turn assigns role %s", e.CharacterName, prior, e.CharacterRole),
				})
			}
		}
	}

	for _, ch := range in.Bundle.Characters {
		issues = append(issues, traitContradictions(ch)...)
		issues = append(issues, relationshipSymmetry(ch, in.Bundle)...)
	}

	return issues, nil
}

func traitContradictions(ch *entity.Character) []entity.ConsistencyIssue {
	var issues []entity.ConsistencyIssue
	seen := map[string]bool{}
	for trait := range ch.Traits {
		lower := strings.ToLower(trait)
		for _, contradiction := range contradictoryTraits[lower] {
			if !ch.Traits[contradiction] {
				continue
			}
			key := lower + "|" + contradiction
			if seen[key] || seen[contradiction+"|"+lower] {
				continue
			}
			seen[key] = true
			issues = append(issues, entity.ConsistencyIssue{
				Kind:        "contradictory_trait",
				Severity:    entity.SeverityWarn,
				Locus:       ch.Name,
				Description: fmt.Sprintf("%s has contradictory traits %q and %q", ch.Name, trait, contradiction),
			})
		}
	}
	return issues
}

func relationshipSymmetry(ch *entity.Character, bundle *entity.SettingsBundle) []entity.ConsistencyIssue {
	var issues []entity.ConsistencyIssue
	for other := range ch.Relationships {
		partner, ok := bundle.Characters[other]
		if !ok {
			issues = append(issues, entity.ConsistencyIssue{
				Kind:        "unverified_relationship",
				Severity:    entity.SeverityInfo,
				Locus:       ch.Name,
				Description: fmt.Sprintf("%s has a relationship to %q, who has no profile", ch.Name, other),
			})
			continue
		}
		if _, reciprocated := partner.Relationships[ch.Name]; !reciprocated {
			issues = append(issues, entity.ConsistencyIssue{
				Kind:        "unverified_relationship",
				Severity:    entity.SeverityInfo,
				Locus:       ch.Name,
				Description: fmt.Sprintf("%s's relationship to %s is not reciprocated in %s's profile", ch.Name, other, other),
			})
		}
	}
	return issues
}

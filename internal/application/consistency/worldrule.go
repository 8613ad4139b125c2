package consistency

import (
	"context"
	"fmt"
	"strings"

	"github.com/loomtale/engine/internal/application/extraction"
	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/gateway"
	"github.com/loomtale/engine/pkg/logger"
)

// mutuallyExclusiveGenres maps a genre fragment to the other fragments it
// cannot coexist with in the same world.
var mutuallyExclusiveGenres = map[string][]string{
	"fantasy":      {"sci-fi", "science fiction", "contemporary", "modern"},
	"sci-fi":       {"fantasy", "historical", "ancient"},
	"historical":   {"sci-fi", "future", "modern"},
	"contemporary": {"fantasy", "sci-fi", "historical", "ancient"},
}

// contradictoryEraPairs are era descriptors that cannot both describe the
// same setting.
var contradictoryEraPairs = [][2]string{
	{"ancient", "future"},
	{"medieval", "modern"},
	{"past", "future"},
	{"historical", "futuristic"},
}

// WorldRuleChecker flags genre and era self-contradictions in the
// bundle's world field, plus direct rule negations (a new assertion that
// is the stated negation of an existing one). When given a provider, it
// also escalates to an LLM verdict for contradictions the static rules
// are too narrow to catch, degrading silently if that call fails.
type WorldRuleChecker struct {
	provider gateway.Provider
	model    string
}

// NewWorldRuleChecker builds a WorldRuleChecker with no LLM escalation.
func NewWorldRuleChecker() *WorldRuleChecker { return &WorldRuleChecker{} }

// NewWorldRuleCheckerWithProvider builds a WorldRuleChecker that escalates
// ambiguous cases to provider.
func NewWorldRuleCheckerWithProvider(provider gateway.Provider, model string) *WorldRuleChecker {
	return &WorldRuleChecker{provider: provider, model: model}
}

func (c *WorldRuleChecker) Check(ctx context.Context, in CheckInput) ([]entity.ConsistencyIssue, error) {
	if in.Bundle == nil || in.Bundle.World == nil {
		return nil, nil
	}
	var issues []entity.ConsistencyIssue

	genre := strings.ToLower(in.Bundle.World.Genre)
	for primary, contradictions := range mutuallyExclusiveGenres {
		if !strings.Contains(genre, primary) {
			continue
		}
		for _, contradiction := range contradictions {
			if strings.Contains(genre, contradiction) {
				issues = append(issues, entity.ConsistencyIssue{
					Kind:        "genre_contradiction",
					Severity:    entity.SeverityError,
					Locus:       "world.genre",
					Description: fmt.Sprintf("genre cannot be both %q and %q", primary, contradiction),
				})
			}
		}
	}

	era := strings.ToLower(in.Bundle.World.Era)
	for _, pair := range contradictoryEraPairs {
		if strings.Contains(era, pair[0]) && strings.Contains(era, pair[1]) {
			issues = append(issues, entity.ConsistencyIssue{
				Kind:        "era_contradiction",
				Severity:    entity.SeverityError,
				Locus:       "world.era",
				Description: fmt.Sprintf("era cannot be both %q and %q", pair[0], pair[1]),
			})
		}
	}

	issues = append(issues, ruleNegations(in)...)

	if c.provider != nil {
		escalated, err := c.escalate(ctx, in)
		if err != nil {
			logger.FromContext(ctx).Warn("world rule llm escalation failed", "error", err)
		} else {
			issues = append(issues, escalated...)
		}
	}

	return issues, nil
}

const worldAmbiguityPrompt = `Review this world setting for contradictions a simple keyword check
would miss (e.g. technology implied by one detail conflicting with another,
or a location described inconsistently). Respond with JSON only:
{"contradictions":[{"severity":"error|warn|info","message":"..."}]}
If there are none, respond {"contradictions":[]}.

World setting:
genre=%q era=%q technology_level=%q locations=%v rules=%v`

// escalate asks the provider to flag contradictions the static rules
// above are too narrow to express, mirroring the structured-JSON verdict
// pattern used for artifact conflict scans elsewhere in this project.
func (c *WorldRuleChecker) escalate(ctx context.Context, in CheckInput) ([]entity.ConsistencyIssue, error) {
	w := in.Bundle.World
	rules := make([]string, 0, len(w.Rules))
	for r := range w.Rules {
		rules = append(rules, r)
	}

	resp, err := c.provider.Generate(ctx, gateway.Request{
		Model: c.model,
		Messages: []gateway.Message{
			{Role: entity.RoleSystem, Content: fmt.Sprintf(worldAmbiguityPrompt, w.Genre, w.Era, w.TechnologyLevel, w.Locations, rules)},
		},
		Temperature: 0,
		MaxTokens:   256,
	})
	if err != nil {
		return nil, err
	}

	verdict, ok := extraction.ScanContradictionVerdict(resp.Content)
	if !ok {
		return nil, nil
	}

	issues := make([]entity.ConsistencyIssue, 0, len(verdict))
	for _, v := range verdict {
		issues = append(issues, entity.ConsistencyIssue{
			Kind:        "llm_world_contradiction",
			Severity:    severityFromLabel(v.Severity),
			Locus:       "world",
			Description: v.Message,
		})
	}
	return issues, nil
}

func severityFromLabel(label string) entity.IssueSeverity {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "error":
		return entity.SeverityError
	case "warn", "warning":
		return entity.SeverityWarn
	default:
		return entity.SeverityInfo
	}
}

// ruleNegations flags a new "no X" or "not X" assertion arriving while an
// existing "X" rule is already recorded, or the reverse.
func ruleNegations(in CheckInput) []entity.ConsistencyIssue {
	var issues []entity.ConsistencyIssue
	for _, e := range in.NewEdits {
		if e.Kind != entity.EditUpsertWorldField || e.WorldField != "rule" {
			continue
		}
		candidate := strings.ToLower(strings.TrimSpace(e.WorldValue))
		negated := strings.TrimPrefix(strings.TrimPrefix(candidate, "no "), "not ")
		if negated == candidate {
			for _, prefix := range []string{"no ", "not "} {
				if in.Bundle.World.Rules[prefix+candidate] {
					issues = append(issues, entity.ConsistencyIssue{
						Kind:        "rule_negation",
						Severity:    entity.SeverityError,
						Locus:       "world.rules",
						Description: fmt.Sprintf("new rule %q contradicts existing rule %q", candidate, prefix+candidate),
					})
				}
			}
			continue
		}
		if in.Bundle.World.Rules[negated] {
			issues = append(issues, entity.ConsistencyIssue{
				Kind:        "rule_negation",
				Severity:    entity.SeverityError,
				Locus:       "world.rules",
				Description: fmt.Sprintf("new rule %q contradicts existing rule %q", candidate, negated),
			})
		}
	}
	return issues
}

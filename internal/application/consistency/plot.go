package consistency

import (
	"context"
	"fmt"

	"github.com/loomtale/engine/internal/domain/entity"
)

// PlotChecker flags plot points that reference characters absent from the
// bundle, and unresolved foreshadows: a dangling setup, inciting event or
// subplot is only
// informational mid-story, but a WARN once the candidate chapter is
// flagged as the story's resolution.
type PlotChecker struct{}

// NewPlotChecker builds a PlotChecker.
func NewPlotChecker() *PlotChecker { return &PlotChecker{} }

func (c *PlotChecker) Check(ctx context.Context, in CheckInput) ([]entity.ConsistencyIssue, error) {
	if in.Bundle == nil {
		return nil, nil
	}
	var issues []entity.ConsistencyIssue

	for _, p := range in.Bundle.PlotPoints {
		for name := range p.InvolvedCharacters {
			if _, known := in.Bundle.Characters[name]; !known {
				issues = append(issues, entity.ConsistencyIssue{
					Kind:        "unknown_character_in_plot",
					Severity:    entity.SeverityWarn,
					Locus:       p.Summary,
					Description: fmt.Sprintf("plot point %q involves %q, which has no character profile", p.Summary, name),
				})
			}
		}

		if p.Resolved || p.Kind == entity.PlotResolution {
			continue
		}
		if !isForeshadow(p.Kind) {
			continue
		}

		severity := entity.SeverityInfo
		if in.IsResolution || p.IsResolutionChapter {
			severity = entity.SeverityWarn
		}
		issues = append(issues, entity.ConsistencyIssue{
			Kind:        "unresolved_foreshadow",
			Severity:    severity,
			Locus:       p.Summary,
			Description: fmt.Sprintf("plot point %q was never resolved", p.Summary),
		})
	}

	return issues, nil
}

func isForeshadow(kind entity.PlotKind) bool {
	return kind == entity.PlotSetup || kind == entity.PlotSubplot || kind == entity.PlotInciting
}

// Package consistency runs a set of sub-checkers over a candidate
// setting change or chapter draft, aggregating their issues into one
// scored report.
package consistency

import (
	"context"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/pkg/metrics"
)

// CheckInput is the shared input every sub-checker reads from. Not every
// field is relevant to every checker: the character and world-rule
// checkers care about NewEdits, the plot checker cares about
// CandidateText and the bundle's existing plot points.
type CheckInput struct {
	Bundle        *entity.SettingsBundle
	NewEdits      []entity.Edit
	CandidateText string
	IsResolution  bool

	// PriorCharacterRoles snapshots each named character's role as it
	// stood immediately before NewEdits were applied to Bundle, so the
	// character checker can detect a role overwritten by this batch
	// even though Bundle itself only reflects the post-apply state.
	PriorCharacterRoles map[string]entity.CharacterRole
}

// Checker is one sub-checker's contract.
type Checker interface {
	Check(ctx context.Context, in CheckInput) ([]entity.ConsistencyIssue, error)
}

// Aggregate runs every checker over in and folds their issues into one
// report, scored with weights (config.ConsistencyWeights converted by the
// caller into the entity.IssueSeverity-keyed map NewConsistencyReportWithWeights
// expects).
func Aggregate(ctx context.Context, checkers []Checker, in CheckInput, weights map[entity.IssueSeverity]float64) (*entity.ConsistencyReport, error) {
	var issues []entity.ConsistencyIssue
	for _, c := range checkers {
		found, err := c.Check(ctx, in)
		if err != nil {
			return nil, err
		}
		issues = append(issues, found...)
	}
	for _, issue := range issues {
		metrics.ConsistencyIssuesTotal.WithLabelValues(string(issue.Severity), issue.Kind).Inc()
	}
	report := entity.NewConsistencyReportWithWeights(issues, weights)
	metrics.ConsistencyScore.Observe(report.Score)
	return report, nil
}

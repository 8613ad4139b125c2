package agent

import (
	"context"
	"fmt"

	"github.com/loomtale/engine/internal/application/consistency"
	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/pkg/logger"
)

// applySettingTurn runs the extraction+completion step for one turn and
// returns the consistency report the agent-level creation decision
// gates on. Extraction failures are logged, never surfaced: a missed
// setting update is recoverable, an aborted turn is not.
func (a *Agent) applySettingTurn(ctx context.Context, session *entity.Session, message string) (*entity.ConsistencyReport, error) {
	edits := a.extractor.Extract(message)
	priorRoles := priorCharacterRoles(session.DerivedSettings)
	session.DerivedSettings.ApplyAll(edits)

	appliedCompletions := a.completeIfNeeded(ctx, session.DerivedSettings)
	edits = append(edits, appliedCompletions...)

	if store := a.memoryStoreFor(session.ProjectID); store != nil {
		syncEditsToMemory(ctx, store, session.ProjectID, edits)
	}

	report, err := consistency.Aggregate(ctx, a.checkers, consistency.CheckInput{
		Bundle:              session.DerivedSettings,
		NewEdits:            edits,
		PriorCharacterRoles: priorRoles,
	}, a.weights)
	if err != nil {
		return nil, fmt.Errorf("failed to check consistency for turn: %w", err)
	}
	return report, nil
}

// priorCharacterRoles snapshots every character's current role, so a
// consistency check run after the bundle has already absorbed this
// turn's edits can still tell whether an EditUpsertCharacter changed an
// established role.
func priorCharacterRoles(bundle *entity.SettingsBundle) map[string]entity.CharacterRole {
	roles := make(map[string]entity.CharacterRole, len(bundle.Characters))
	for name, c := range bundle.Characters {
		roles[name] = c.Role
	}
	return roles
}

// completeIfNeeded asks the completer to fill missing slots, discarding
// the whole completion batch if it introduces an ERROR-severity
// contradiction rather than committing a half-checked bundle.
func (a *Agent) completeIfNeeded(ctx context.Context, bundle *entity.SettingsBundle) []entity.Edit {
	if a.completer == nil {
		return nil
	}
	readiness := a.completer.Readiness(bundle)
	if readiness.Ready() {
		return nil
	}

	completionEdits, err := a.completer.Complete(ctx, bundle)
	if err != nil {
		logger.FromContext(ctx).Warn("setting completion failed", "error", err)
		return nil
	}
	if len(completionEdits) == 0 {
		return nil
	}

	priorRoles := priorCharacterRoles(bundle)
	tentative := bundle.Clone()
	tentative.ApplyAll(completionEdits)

	report, err := consistency.Aggregate(ctx, a.checkers, consistency.CheckInput{
		Bundle:              tentative,
		NewEdits:            completionEdits,
		PriorCharacterRoles: priorRoles,
	}, a.weights)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to check completion consistency, discarding completion", "error", err)
		return nil
	}
	if report.HasErrors() {
		logger.FromContext(ctx).Info("discarding auto-completed settings after consistency check flagged an error", "issues", len(report.Issues))
		return nil
	}

	bundle.ApplyAll(completionEdits)
	return completionEdits
}

// syncEditsToMemory upserts a lightweight memory item per applied edit,
// best-effort: a failed memory write never fails the turn.
func syncEditsToMemory(ctx context.Context, store memoryStore, projectID string, edits []entity.Edit) {
	for _, e := range edits {
		level, content := memoryFact(e)
		if content == "" {
			continue
		}
		item := entity.NewMemoryItem("", projectID, level, content)
		if _, err := store.Add(ctx, item); err != nil {
			logger.FromContext(ctx).Warn("failed to upsert setting fact to memory", "error", err, "edit_kind", e.Kind)
		}
	}
}

func memoryFact(e entity.Edit) (entity.MemoryLevel, string) {
	switch e.Kind {
	case entity.EditUpsertCharacter:
		return entity.LevelCharacter, fmt.Sprintf("%s is the %s.", e.CharacterName, e.CharacterRole)
	case entity.EditAddTrait:
		return entity.LevelCharacter, fmt.Sprintf("%s has the trait %q.", e.CharacterName, e.Trait)
	case entity.EditUpsertWorldField:
		return entity.LevelGlobal, fmt.Sprintf("World %s: %s.", e.WorldField, e.WorldValue)
	case entity.EditAddLocation:
		return entity.LevelGlobal, fmt.Sprintf("Location: %s.", e.Location)
	case entity.EditAddPlotPoint:
		if e.PlotPoint == nil {
			return "", ""
		}
		return entity.LevelPlot, e.PlotPoint.Summary
	case entity.EditSetStyle:
		return entity.LevelStyle, fmt.Sprintf("Style %s: %s.", e.StyleAspect, e.StyleValue)
	default:
		return "", ""
	}
}

// memoryStore is the narrow surface settings syncing needs from
// memory.Store, so this file doesn't need the full interface import.
type memoryStore interface {
	Add(ctx context.Context, item *entity.MemoryItem) (string, error)
}

func (a *Agent) memoryStoreFor(projectID string) memoryStore {
	if a.memories == nil || projectID == "" {
		return nil
	}
	if store := a.memories(projectID); store != nil {
		return store
	}
	return nil
}

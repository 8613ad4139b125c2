package agent

import (
	"context"
	"regexp"
	"strconv"

	"github.com/loomtale/engine/internal/application/intent"
	"github.com/loomtale/engine/internal/domain/entity"
)

// decideGeneration implements the creation-decision rule: generate when
// the intent itself is a generation request, or when the bundle is
// complete and consistent enough and the turn carries an explicit
// generation cue.
func (a *Agent) decideGeneration(kind intent.Kind, message string, bundle *entity.SettingsBundle, report *entity.ConsistencyReport) bool {
	if kind == intent.GenerateContent || kind == intent.ContinueContent {
		return true
	}
	if bundle.CompletenessScore() < a.completenessThreshold {
		return false
	}
	if report != nil && report.Score < a.consistencyThreshold {
		return false
	}
	return intent.HasGenerationCue(message)
}

// scopeLocatorPattern recognizes an explicit chapter (and optional
// paragraph) locator, e.g. "chapter 4 paragraph 2" or "chapter 4".
var scopeLocatorPattern = regexp.MustCompile(`(?i)chapter\s+(\d+)(?:\s*,?\s*paragraph\s+(\d+))?`)

// chooseMode picks a generation mode and target chapter for one turn,
// per the agent's mode-selection rule: EXPAND/REWRITE on an explicit
// chapter locator, CONTINUE on a generation cue with a current chapter
// to follow, else FULL on the next unwritten chapter.
func (a *Agent) chooseMode(ctx context.Context, message, projectID string) (entity.GenerationMode, int, string, error) {
	records, err := a.chapters.List(ctx, projectID)
	if err != nil {
		return "", 0, "", err
	}

	latestCurrent := 0
	currentByChapter := map[int]*entity.GenerationRecord{}
	for _, r := range records {
		if r.State == entity.StateCurrent {
			currentByChapter[r.ChapterNumber] = r
			if r.ChapterNumber > latestCurrent {
				latestCurrent = r.ChapterNumber
			}
		}
	}

	if m := scopeLocatorPattern.FindStringSubmatch(message); m != nil {
		chapterNum, convErr := strconv.Atoi(m[1])
		if convErr == nil {
			if m[2] != "" {
				if target, ok := currentByChapter[chapterNum]; ok {
					return entity.ModeExpand, chapterNum, target.ID, nil
				}
				return entity.ModeExpand, chapterNum, "", nil
			}
			if target, ok := currentByChapter[chapterNum]; ok {
				return entity.ModeRewrite, chapterNum, target.ID, nil
			}
		}
	}

	if intent.HasGenerationCue(message) && latestCurrent > 0 {
		return entity.ModeContinue, latestCurrent + 1, "", nil
	}

	return entity.ModeFull, latestCurrent + 1, "", nil
}

package generation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/repository"
)

// startAttempt creates a PENDING record for (projectID, chapterNumber)
// and immediately transitions it to GENERATING, persisting both steps
// through repo. parentID is set when this attempt is a rewrite of an
// existing draft.
func startAttempt(ctx context.Context, repo repository.ChapterRepository, projectID string, chapterNumber int, mode entity.GenerationMode, parentID string) (*entity.GenerationRecord, error) {
	record := entity.NewGenerationRecord(uuid.NewString(), projectID, chapterNumber, mode, parentID)
	if err := repo.Add(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create generation record: %w", err)
	}
	if !record.Transition(entity.StateGenerating) {
		return nil, fmt.Errorf("record %s could not transition to GENERATING", record.ID)
	}
	if err := repo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist generating state: %w", err)
	}
	return record, nil
}

// completeAttempt marks record DRAFT with its produced content.
func completeAttempt(ctx context.Context, repo repository.ChapterRepository, record *entity.GenerationRecord, content string, wordCount int, fingerprint string) error {
	if !record.Complete(content, wordCount, fingerprint) {
		return fmt.Errorf("record %s could not transition to DRAFT", record.ID)
	}
	if err := repo.Update(ctx, record); err != nil {
		return fmt.Errorf("failed to persist draft state: %w", err)
	}
	return nil
}

// failAttempt marks record FAILED, swallowing the repository error into
// the log rather than masking the original generation failure.
func failAttempt(ctx context.Context, repo repository.ChapterRepository, record *entity.GenerationRecord) {
	if !record.Fail() {
		return
	}
	_ = repo.Update(ctx, record)
}

// Accept promotes a DRAFT record to CURRENT, demoting whatever record
// was previously CURRENT for the same chapter to HISTORY.
func Accept(ctx context.Context, repo repository.ChapterRepository, projectID string, chapterNumber int, recordID string) error {
	return repo.SetCurrent(ctx, projectID, chapterNumber, recordID)
}

package generation

import (
	"context"
	"testing"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/infrastructure/persistence/inmemory"
)

func TestStartCompleteAcceptLifecycle(t *testing.T) {
	repo := inmemory.NewChapterRepository()
	ctx := context.Background()

	record, err := startAttempt(ctx, repo, "proj-1", 1, entity.ModeFull, "")
	if err != nil {
		t.Fatalf("startAttempt: %v", err)
	}
	if record.State != entity.StateGenerating {
		t.Fatalf("state after startAttempt = %s, want GENERATING", record.State)
	}

	if err := completeAttempt(ctx, repo, record, "once upon a time", 4, "fp-1"); err != nil {
		t.Fatalf("completeAttempt: %v", err)
	}
	if record.State != entity.StateDraft {
		t.Fatalf("state after completeAttempt = %s, want DRAFT", record.State)
	}

	if err := Accept(ctx, repo, "proj-1", 1, record.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	current, err := repo.GetCurrent(ctx, "proj-1", 1)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.ID != record.ID {
		t.Errorf("GetCurrent returned %s, want %s", current.ID, record.ID)
	}
}

func TestAcceptDemotesPriorCurrentToHistory(t *testing.T) {
	repo := inmemory.NewChapterRepository()
	ctx := context.Background()

	first, _ := startAttempt(ctx, repo, "proj-1", 1, entity.ModeFull, "")
	completeAttempt(ctx, repo, first, "draft one", 2, "fp-1")
	if err := Accept(ctx, repo, "proj-1", 1, first.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	second, _ := startAttempt(ctx, repo, "proj-1", 1, entity.ModeRewrite, first.ID)
	completeAttempt(ctx, repo, second, "draft two", 2, "fp-2")
	if err := Accept(ctx, repo, "proj-1", 1, second.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	reloadedFirst, err := repo.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloadedFirst.State != entity.StateHistory {
		t.Errorf("prior CURRENT record state = %s, want HISTORY", reloadedFirst.State)
	}

	current, err := repo.GetCurrent(ctx, "proj-1", 1)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.ID != second.ID {
		t.Errorf("GetCurrent = %s, want %s", current.ID, second.ID)
	}
}

func TestFailAttemptTransitionsToFailed(t *testing.T) {
	repo := inmemory.NewChapterRepository()
	ctx := context.Background()

	record, _ := startAttempt(ctx, repo, "proj-1", 1, entity.ModeFull, "")
	failAttempt(ctx, repo, record)
	if record.State != entity.StateFailed {
		t.Errorf("state after failAttempt = %s, want FAILED", record.State)
	}
}

func TestTransitionRejectsIllegalEdge(t *testing.T) {
	record := entity.NewGenerationRecord("rec-1", "proj-1", 1, entity.ModeFull, "")
	if record.Transition(entity.StateCurrent) {
		t.Error("PENDING record should not transition directly to CURRENT")
	}
	if record.State != entity.StatePending {
		t.Errorf("state after rejected transition = %s, want PENDING unchanged", record.State)
	}
}

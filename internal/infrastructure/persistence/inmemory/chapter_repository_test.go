package inmemory

import (
	"context"
	"testing"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/repository"
)

func TestChapterRepositoryAddGetRoundtrip(t *testing.T) {
	r := NewChapterRepository()
	ctx := context.Background()
	record := entity.NewGenerationRecord("rec-1", "proj-1", 1, entity.ModeFull, "")

	if err := r.Add(ctx, record); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := r.Get(ctx, "rec-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.ChapterNumber != 1 {
		t.Fatalf("Get = %+v, want ChapterNumber 1", got)
	}
}

func TestChapterRepositoryGetCurrentErrorsWhenNoneCurrent(t *testing.T) {
	r := NewChapterRepository()
	_, err := r.GetCurrent(context.Background(), "proj-1", 1)
	if err != repository.ErrNoCurrent {
		t.Fatalf("GetCurrent err = %v, want ErrNoCurrent", err)
	}
}

func TestChapterRepositorySetCurrentDemotesPriorCurrent(t *testing.T) {
	r := NewChapterRepository()
	ctx := context.Background()

	first := entity.NewGenerationRecord("rec-1", "proj-1", 1, entity.ModeFull, "")
	second := entity.NewGenerationRecord("rec-2", "proj-1", 1, entity.ModeRewrite, "rec-1")
	r.Add(ctx, first)
	r.Add(ctx, second)

	if err := r.SetCurrent(ctx, "proj-1", 1, "rec-1"); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	if err := r.SetCurrent(ctx, "proj-1", 1, "rec-2"); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}

	reloadedFirst, _ := r.Get(ctx, "rec-1")
	if reloadedFirst.State != entity.StateHistory {
		t.Errorf("rec-1 state = %s, want HISTORY", reloadedFirst.State)
	}

	current, err := r.GetCurrent(ctx, "proj-1", 1)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.ID != "rec-2" {
		t.Errorf("GetCurrent = %s, want rec-2", current.ID)
	}
}

func TestChapterRepositorySetCurrentUnknownIDErrors(t *testing.T) {
	r := NewChapterRepository()
	if err := r.SetCurrent(context.Background(), "proj-1", 1, "ghost"); err != repository.ErrNoCurrent {
		t.Fatalf("SetCurrent err = %v, want ErrNoCurrent", err)
	}
}

func TestChapterRepositoryListOrdersByChapterThenCreatedAt(t *testing.T) {
	r := NewChapterRepository()
	ctx := context.Background()
	r.Add(ctx, entity.NewGenerationRecord("rec-2", "proj-1", 2, entity.ModeFull, ""))
	r.Add(ctx, entity.NewGenerationRecord("rec-1", "proj-1", 1, entity.ModeFull, ""))

	records, err := r.List(ctx, "proj-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 || records[0].ChapterNumber != 1 || records[1].ChapterNumber != 2 {
		t.Fatalf("List = %+v, want chapter 1 then chapter 2", records)
	}
}

func TestChapterRepositoryHistoryExcludesCurrent(t *testing.T) {
	r := NewChapterRepository()
	ctx := context.Background()
	first := entity.NewGenerationRecord("rec-1", "proj-1", 1, entity.ModeFull, "")
	second := entity.NewGenerationRecord("rec-2", "proj-1", 1, entity.ModeRewrite, "rec-1")
	r.Add(ctx, first)
	r.Add(ctx, second)
	r.SetCurrent(ctx, "proj-1", 1, "rec-1")
	r.SetCurrent(ctx, "proj-1", 1, "rec-2")

	history, err := r.History(ctx, "proj-1", 1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].ID != "rec-1" {
		t.Fatalf("History = %+v, want only rec-1", history)
	}
}

func TestChapterRepositoryDeleteByProjectRemovesAllRecords(t *testing.T) {
	r := NewChapterRepository()
	ctx := context.Background()
	r.Add(ctx, entity.NewGenerationRecord("rec-1", "proj-1", 1, entity.ModeFull, ""))
	r.Add(ctx, entity.NewGenerationRecord("rec-2", "proj-2", 1, entity.ModeFull, ""))

	if err := r.DeleteByProject(ctx, "proj-1"); err != nil {
		t.Fatalf("DeleteByProject: %v", err)
	}

	records, _ := r.List(ctx, "proj-1")
	if len(records) != 0 {
		t.Errorf("expected proj-1's records gone, got %+v", records)
	}
	remaining, _ := r.List(ctx, "proj-2")
	if len(remaining) != 1 {
		t.Errorf("expected proj-2's record untouched, got %+v", remaining)
	}
}

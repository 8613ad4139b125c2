package inmemory

import (
	"context"
	"testing"

	"github.com/loomtale/engine/internal/domain/entity"
)

func TestMemoryRepositoryAddGetRoundtrip(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	item := entity.NewMemoryItem("item-1", "proj-1", entity.LevelGlobal, "Mira leads the Varn guard")

	if err := r.Add(ctx, item); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := r.Get(ctx, "item-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Content != "Mira leads the Varn guard" {
		t.Fatalf("Get = %+v", got)
	}
}

func TestMemoryRepositoryUpdateMutatesInPlace(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	r.Add(ctx, entity.NewMemoryItem("item-1", "proj-1", entity.LevelGlobal, "original"))

	updated, err := r.Update(ctx, "item-1", func(item *entity.MemoryItem) error {
		item.Content = "revised"
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Content != "revised" {
		t.Errorf("updated.Content = %q, want revised", updated.Content)
	}

	got, _ := r.Get(ctx, "item-1")
	if got.Content != "revised" {
		t.Errorf("Get after Update = %q, want revised", got.Content)
	}
}

func TestMemoryRepositoryUpdateUnknownIDErrors(t *testing.T) {
	r := NewMemoryRepository()
	_, err := r.Update(context.Background(), "ghost", func(*entity.MemoryItem) error { return nil })
	if err == nil {
		t.Fatal("expected an error updating a nonexistent item")
	}
}

func TestMemoryRepositoryListFiltersByProjectAndLevel(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	r.Add(ctx, entity.NewMemoryItem("item-1", "proj-1", entity.LevelGlobal, "a"))
	r.Add(ctx, entity.NewMemoryItem("item-2", "proj-1", entity.LevelCharacter, "b"))
	r.Add(ctx, entity.NewMemoryItem("item-3", "proj-2", entity.LevelGlobal, "c"))

	items, err := r.List(ctx, "proj-1", entity.LevelGlobal, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].ID != "item-1" {
		t.Fatalf("List = %+v, want only item-1", items)
	}
}

func TestMemoryRepositoryListRespectsLimit(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		r.Add(ctx, entity.NewMemoryItem(string(rune('a'+i)), "proj-1", entity.LevelGlobal, "text"))
	}
	items, err := r.List(ctx, "proj-1", "", 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("List len = %d, want 2", len(items))
	}
}

func TestMemoryRepositoryLexicalSearchRanksByOverlap(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	r.Add(ctx, entity.NewMemoryItem("item-1", "proj-1", entity.LevelGlobal, "Mira leads the Varn guard"))
	r.Add(ctx, entity.NewMemoryItem("item-2", "proj-1", entity.LevelGlobal, "the weather was mild that day"))

	results, err := r.LexicalSearch(ctx, "proj-1", "", "Mira Varn guard", 5)
	if err != nil {
		t.Fatalf("LexicalSearch: %v", err)
	}
	if len(results) != 1 || results[0].Item.ID != "item-1" {
		t.Fatalf("results = %+v, want only item-1 to match", results)
	}
}

func TestMemoryRepositoryLexicalSearchEmptyQueryReturnsNil(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	r.Add(ctx, entity.NewMemoryItem("item-1", "proj-1", entity.LevelGlobal, "some content"))

	results, err := r.LexicalSearch(ctx, "proj-1", "", "   ", 5)
	if err != nil {
		t.Fatalf("LexicalSearch: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results for a blank query, got %+v", results)
	}
}

func TestMemoryRepositoryDeleteByProjectRemovesAllItems(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	r.Add(ctx, entity.NewMemoryItem("item-1", "proj-1", entity.LevelGlobal, "a"))
	r.Add(ctx, entity.NewMemoryItem("item-2", "proj-2", entity.LevelGlobal, "b"))

	if err := r.DeleteByProject(ctx, "proj-1"); err != nil {
		t.Fatalf("DeleteByProject: %v", err)
	}

	remaining, _ := r.List(ctx, "proj-1", "", 0)
	if len(remaining) != 0 {
		t.Errorf("expected proj-1's items gone, got %+v", remaining)
	}
	other, _ := r.List(ctx, "proj-2", "", 0)
	if len(other) != 1 {
		t.Errorf("expected proj-2's item untouched, got %+v", other)
	}
}

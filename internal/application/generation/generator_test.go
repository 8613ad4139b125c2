package generation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/gateway"
	"github.com/loomtale/engine/internal/infrastructure/persistence/inmemory"
)

// fakeClient is a minimal LLMClient stub returning fixed content.
// When release is non-nil, Generate blocks until it is closed.
type fakeClient struct {
	content string
	calls   int32
	err     error
	release chan struct{}
}

func (f *fakeClient) Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.Response{Content: f.content, Usage: gateway.Usage{TotalTokens: 10}}, nil
}

func (f *fakeClient) GenerateStream(ctx context.Context, req gateway.Request) (<-chan gateway.Chunk, error) {
	out := make(chan gateway.Chunk, 2)
	out <- gateway.Chunk{Delta: f.content}
	out <- gateway.Chunk{Done: true, Usage: gateway.Usage{TotalTokens: 10}}
	close(out)
	return out, nil
}

func newTestGenerator(client LLMClient) (*Generator, *inmemory.ChapterRepository) {
	repo := inmemory.NewChapterRepository()
	return New(client, repo, nil, nil, nil, 0), repo
}

func validBundle() *entity.SettingsBundle {
	b := entity.NewSettingsBundle()
	b.Apply(entity.Edit{Kind: entity.EditUpsertCharacter, CharacterName: "Mira", CharacterRole: entity.RoleProtagonist})
	b.World.Genre = "fantasy"
	return b
}

func TestGenerateProducesCurrentRecord(t *testing.T) {
	client := &fakeClient{content: "once upon a time, Mira set out on her quest."}
	gen, repo := newTestGenerator(client)

	out, err := gen.Generate(context.Background(), Input{
		Mode: entity.ModeFull, Bundle: validBundle(), ChapterNumber: 1, ProjectID: "proj-1",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out.Record.State != entity.StateCurrent {
		t.Errorf("record state = %s, want CURRENT (auto-accept)", out.Record.State)
	}
	if out.WordCount == 0 {
		t.Error("expected a non-zero word count")
	}

	current, err := repo.GetCurrent(context.Background(), "proj-1", 1)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.ID != out.Record.ID {
		t.Errorf("GetCurrent = %s, want %s", current.ID, out.Record.ID)
	}
}

func TestGenerateFailsAttemptOnEmptyContent(t *testing.T) {
	client := &fakeClient{content: "   "}
	gen, repo := newTestGenerator(client)

	_, err := gen.Generate(context.Background(), Input{
		Mode: entity.ModeFull, Bundle: validBundle(), ChapterNumber: 1, ProjectID: "proj-1",
	})
	if err == nil {
		t.Fatal("expected an error for empty model content")
	}

	records, _ := repo.List(context.Background(), "proj-1")
	if len(records) != 1 || records[0].State != entity.StateFailed {
		t.Fatalf("expected one FAILED record, got %+v", records)
	}
}

func TestGenerateRequiresBundle(t *testing.T) {
	gen, _ := newTestGenerator(&fakeClient{content: "x"})
	_, err := gen.Generate(context.Background(), Input{Mode: entity.ModeFull, ChapterNumber: 1, ProjectID: "proj-1"})
	if err == nil {
		t.Fatal("expected an error when Bundle is nil")
	}
}

func TestGenerateCoalescesConcurrentCallsForSameChapter(t *testing.T) {
	client := &fakeClient{content: "a chapter's worth of prose appears here.", release: make(chan struct{})}
	gen, _ := newTestGenerator(client)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = gen.Generate(context.Background(), Input{
				Mode: entity.ModeFull, Bundle: validBundle(), ChapterNumber: 1, ProjectID: "proj-coalesce",
			})
		}()
	}
	// Hold the model call open so every caller is in flight at once.
	time.Sleep(50 * time.Millisecond)
	close(client.release)
	wg.Wait()

	if calls := atomic.LoadInt32(&client.calls); calls != 1 {
		t.Errorf("expected singleflight to coalesce concurrent calls into 1 model call, got %d", calls)
	}
}

func TestGenerateStreamForwardsTokensThenDone(t *testing.T) {
	client := &fakeClient{content: "the river carried her onward through the mist."}
	gen, _ := newTestGenerator(client)

	chunks := gen.GenerateStream(context.Background(), Input{
		Mode: entity.ModeFull, Bundle: validBundle(), ChapterNumber: 1, ProjectID: "proj-stream",
	})

	var sawToken, sawDone bool
	for chunk := range chunks {
		if chunk.Err != nil {
			t.Fatalf("unexpected stream error: %v", chunk.Err)
		}
		if chunk.Token != "" {
			sawToken = true
		}
		if chunk.Done != nil {
			sawDone = true
			if chunk.Done.Record.State != entity.StateCurrent {
				t.Errorf("streamed record state = %s, want CURRENT", chunk.Done.Record.State)
			}
		}
	}
	if !sawToken {
		t.Error("expected at least one token chunk")
	}
	if !sawDone {
		t.Error("expected a final done chunk")
	}
}

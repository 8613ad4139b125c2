package bootstrap

import (
	"context"
	"testing"

	"github.com/loomtale/engine/internal/config"
	"github.com/loomtale/engine/internal/domain/agentapi"
	"github.com/loomtale/engine/internal/domain/entity"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.LLM.DefaultProvider = "mock"
	return cfg
}

func TestNewWiresAgentContextWithoutError(t *testing.T) {
	cfg := testConfig(t)
	ac, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ac == nil {
		t.Fatal("expected a non-nil AgentContext")
	}
}

func TestNewRejectsUnknownVectorBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vector.Backend = "nonexistent"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected an error for an unknown vector backend")
	}
}

func TestCreateProjectThenChatReturnsSessionID(t *testing.T) {
	cfg := testConfig(t)
	ac, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	project, err := ac.CreateProject(context.Background(), "My Story")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if project.ID == "" {
		t.Fatal("expected a generated project ID")
	}

	reply, err := ac.Chat(context.Background(), "", "hello there", project.ID)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply == nil || reply.SessionID == "" {
		t.Fatal("expected a reply carrying a session ID")
	}
}

func TestDeleteProjectCascadesToChaptersAndMemory(t *testing.T) {
	cfg := testConfig(t)
	ac, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	project, err := ac.CreateProject(context.Background(), "Doomed Story")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if _, err := ac.Chat(context.Background(), "", "let's begin", project.ID); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if err := ac.memories.Add(context.Background(), entity.NewMemoryItem("mem-1", project.ID, entity.LevelGlobal, "doomed fact")); err != nil {
		t.Fatalf("memories.Add: %v", err)
	}
	if err := ac.chapters.Add(context.Background(), entity.NewGenerationRecord("rec-1", project.ID, 1, entity.ModeFull, "")); err != nil {
		t.Fatalf("chapters.Add: %v", err)
	}

	if err := ac.DeleteProject(context.Background(), project.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}

	items, err := ac.memories.List(context.Background(), project.ID, "", 0)
	if err != nil {
		t.Fatalf("memories.List: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no memory items after DeleteProject, got %d", len(items))
	}
	records, err := ac.chapters.List(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("chapters.List: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no generation records after DeleteProject, got %d", len(records))
	}

	if _, err := ac.Chat(context.Background(), "", "still there?", project.ID); err == nil {
		t.Log("Chat on a deleted project did not error; DeleteProject does not currently block new sessions for a stale project ID")
	}
}

func TestChatStreamEmitsTokensFollowedByDone(t *testing.T) {
	cfg := testConfig(t)
	ac, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	project, err := ac.CreateProject(context.Background(), "Streamed Story")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	events, err := ac.ChatStream(context.Background(), "", "hello there", project.ID)
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}

	var sawToken, sawDone bool
	for ev := range events {
		if ev.Type == agentapi.StreamToken && !sawDone {
			sawToken = true
		}
		if ev.Type == agentapi.StreamDone {
			sawDone = true
		}
		if ev.Type == agentapi.StreamError {
			t.Fatalf("unexpected stream error event: %v", ev.Payload)
		}
	}
	if !sawToken {
		t.Error("expected at least one StreamToken event before StreamDone")
	}
	if !sawDone {
		t.Error("expected the event stream to end with a StreamDone event")
	}
}

func TestSweepRetentionOverEmptyProjectSetIsNoop(t *testing.T) {
	cfg := testConfig(t)
	ac, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ac.SweepRetention(context.Background()); err != nil {
		t.Fatalf("SweepRetention: %v", err)
	}
}

func TestWeightsFromConfigSkipsNonPositiveEntries(t *testing.T) {
	w := weightsFromConfig(config.ConsistencyWeights{Error: 0.5, Warn: 0, Info: 0.1})
	if w[entity.SeverityError] != 0.5 {
		t.Errorf("SeverityError weight = %v, want 0.5", w[entity.SeverityError])
	}
	if _, ok := w[entity.SeverityWarn]; ok {
		t.Error("expected a zero Warn weight to be omitted")
	}
	if w[entity.SeverityInfo] != 0.1 {
		t.Errorf("SeverityInfo weight = %v, want 0.1", w[entity.SeverityInfo])
	}
}

// Package bootstrap assembles the engine's components into one
// agentapi.Agent implementation. It is the only place in the module
// allowed to know about every concrete infrastructure adapter at once;
// every other package depends on interfaces.
package bootstrap

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/loomtale/engine/internal/application/agent"
	"github.com/loomtale/engine/internal/application/consistency"
	"github.com/loomtale/engine/internal/application/extraction"
	"github.com/loomtale/engine/internal/application/generation"
	"github.com/loomtale/engine/internal/application/intent"
	"github.com/loomtale/engine/internal/application/memory"
	"github.com/loomtale/engine/internal/config"
	"github.com/loomtale/engine/internal/domain/agentapi"
	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/repository"
	"github.com/loomtale/engine/internal/infrastructure/embedding"
	"github.com/loomtale/engine/internal/infrastructure/llm"
	"github.com/loomtale/engine/internal/infrastructure/llm/tokenizer"
	"github.com/loomtale/engine/internal/infrastructure/observability"
	"github.com/loomtale/engine/internal/infrastructure/persistence/inmemory"
	"github.com/loomtale/engine/internal/infrastructure/vectorstore"
	"github.com/loomtale/engine/internal/infrastructure/vectorstore/exact"
)

// AgentContext is the single explicit dependency carrier that implements
// agentapi.Agent: no package-level globals, every collaborator is wired
// once at construction and threaded through from here.
type AgentContext struct {
	cfg *config.Config

	agent    *agent.Agent
	projects repository.ProjectRepository
	memories repository.MemoryRepository
	chapters repository.ChapterRepository

	vectors  vectorstore.VectorStore
	embedder embedding.Embedder
	tokens   *tokenizer.TiktokenCounter

	storesMu sync.Mutex
	stores   map[string]memory.Store
}

var _ agentapi.Agent = (*AgentContext)(nil)

// New wires every component of cfg into an AgentContext. It always uses
// the in-memory repositories and the "exact" (or configured) vector
// backend; a deployment that needs Postgres/Redis/Milvus durability
// constructs those adapters directly and passes them to NewWithStores
// instead of calling New.
func New(ctx context.Context, cfg *config.Config) (*AgentContext, error) {
	projects := inmemory.NewProjectRepository()
	memories := inmemory.NewMemoryRepository()
	chapters := inmemory.NewChapterRepository()
	sessions := inmemory.NewSessionRepository()

	vectors, err := buildVectorStore(cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	return NewWithStores(ctx, cfg, projects, memories, chapters, sessions, vectors, embedder)
}

// NewWithStores wires cfg's application layer over caller-supplied
// repositories and vector store, for deployments that need Postgres,
// Redis, or Milvus in place of the in-memory defaults.
func NewWithStores(
	ctx context.Context,
	cfg *config.Config,
	projects repository.ProjectRepository,
	memories repository.MemoryRepository,
	chapters repository.ChapterRepository,
	sessions repository.SessionRepository,
	vectors vectorstore.VectorStore,
	embedder embedding.Embedder,
) (*AgentContext, error) {
	factory := llm.NewProviderFactory(&cfg.LLM)
	llm.RegisterDefaults(factory, ctx)
	recorder := observability.NewMetricsUsageRecorder()
	gw := llm.NewGateway(factory, llm.DefaultBackoffConfig(), cfg.LLM.PerProviderConcurrency, recorder)

	ac := &AgentContext{
		cfg:      cfg,
		projects: projects,
		memories: memories,
		chapters: chapters,
		vectors:  vectors,
		embedder: embedder,
		tokens:   tokenizer.NewTiktokenCounter(),
		stores:   make(map[string]memory.Store),
	}

	weights := weightsFromConfig(cfg.Consistency.Weights)

	worldProvider, err := factory.Get(cfg.LLM.DefaultProvider)
	if err != nil {
		worldProvider = nil
	}
	checkers := []consistency.Checker{
		consistency.NewCharacterChecker(),
		consistency.NewPlotChecker(),
	}
	if worldProvider != nil {
		checkers = append(checkers, consistency.NewWorldRuleCheckerWithProvider(worldProvider, cfg.LLM.DefaultModel))
	} else {
		checkers = append(checkers, consistency.NewWorldRuleChecker())
	}

	recognizer := intent.New(worldProvider, cfg.LLM.DefaultModel)
	extractor := extraction.New()
	var completer *extraction.Completer
	if worldProvider != nil {
		completer = extraction.NewCompleter(worldProvider, cfg.LLM.DefaultModel)
	}

	generator := generation.New(gw, chapters, checkers, weights, ac.memoryStoreFor, cfg.LLM.ContextWindow)

	ac.agent = agent.New(
		sessions,
		recognizer,
		extractor,
		completer,
		checkers,
		weights,
		generator,
		chapters,
		projects,
		ac.memoryStoreFor,
		agent.Config{
			SessionTurnCap:        cfg.Agent.SessionTurnCap,
			SessionCacheSize:      cfg.Agent.SessionCacheSize,
			CompletenessThreshold: cfg.Generation.CompletionThreshold,
			ConsistencyThreshold:  cfg.Consistency.ConsistencyThreshold,
		},
	)

	return ac, nil
}

func buildVectorStore(cfg *config.Config) (vectorstore.VectorStore, error) {
	switch cfg.Vector.Backend {
	case "", "exact":
		return exact.New(), nil
	case "milvus":
		// Milvus requires a live connection; callers that select this
		// backend are expected to use NewWithStores with a client built
		// via infrastructure/vectorstore/milvus directly, since dialing
		// out doesn't belong in a config-only constructor.
		return nil, fmt.Errorf("milvus vector backend requires NewWithStores with a pre-built client")
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.Vector.Backend)
	}
}

func buildEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	if cfg.Embedding.Provider != "openai" {
		return nil, nil
	}
	emb, err := embedding.NewOpenAIEmbedder(cfg.Embedding)
	if err != nil {
		// Embedding is optional: memory search degrades to lexical-only
		// rather than failing startup over a missing API key.
		return nil, nil
	}
	return emb, nil
}

func weightsFromConfig(w config.ConsistencyWeights) map[entity.IssueSeverity]float64 {
	out := map[entity.IssueSeverity]float64{}
	if w.Error > 0 {
		out[entity.SeverityError] = w.Error
	}
	if w.Warn > 0 {
		out[entity.SeverityWarn] = w.Warn
	}
	if w.Info > 0 {
		out[entity.SeverityInfo] = w.Info
	}
	return out
}

// memoryStoreFor lazily builds and caches a project-scoped memory.Store,
// mirroring the per-project store cache generation.Generator and
// agent.Agent both expect behind their memories hook.
func (ac *AgentContext) memoryStoreFor(projectID string) memory.Store {
	if projectID == "" {
		return nil
	}
	ac.storesMu.Lock()
	defer ac.storesMu.Unlock()
	if s, ok := ac.stores[projectID]; ok {
		return s
	}
	s := memory.New(projectID, ac.memories, ac.vectors, ac.embedder, ac.tokens, ac.cfg.Memory)
	ac.stores[projectID] = s
	return s
}

// Chat implements agentapi.Agent.
func (ac *AgentContext) Chat(ctx context.Context, sessionID, message, projectID string) (*agentapi.ChatReply, error) {
	reply, err := ac.agent.Chat(ctx, agent.ChatInput{SessionID: sessionID, ProjectID: projectID, Message: message})
	if err != nil {
		return nil, err
	}
	return toChatReply(reply), nil
}

// ChatStream implements agentapi.Agent.
func (ac *AgentContext) ChatStream(ctx context.Context, sessionID, message, projectID string) (<-chan agentapi.StreamEvent, error) {
	return ac.agent.ChatStream(ctx, agent.ChatInput{SessionID: sessionID, ProjectID: projectID, Message: message})
}

// GenerateChapter implements agentapi.Agent.
func (ac *AgentContext) GenerateChapter(ctx context.Context, projectID string, chapterNumber int, mode entity.GenerationMode, constraints string) (*entity.GenerationRecord, error) {
	return ac.agent.GenerateChapter(ctx, projectID, chapterNumber, mode, constraints)
}

// ListGenerations implements agentapi.Agent.
func (ac *AgentContext) ListGenerations(ctx context.Context, projectID string) ([]*entity.GenerationRecord, error) {
	return ac.agent.ListGenerations(ctx, projectID)
}

// CreateProject creates a new authoring project and returns it, a
// convenience wrapper a transport layer (or the CLI) calls before its
// first Chat turn.
func (ac *AgentContext) CreateProject(ctx context.Context, title string) (*entity.Project, error) {
	project := entity.NewProject(uuid.NewString(), title)
	if err := ac.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// SweepRetention re-applies the CONTEXT memory ring-buffer bound across
// every project, for a background scheduler to call periodically as a
// defensive idempotent pass alongside the per-write enforcement
// memory.Store.Add already does.
func (ac *AgentContext) SweepRetention(ctx context.Context) error {
	page := repository.NewPagination(1, 100)
	for {
		result, err := ac.projects.List(ctx, page)
		if err != nil {
			return fmt.Errorf("failed to list projects for retention sweep: %w", err)
		}
		for _, project := range result.Items {
			if store := ac.memoryStoreFor(project.ID); store != nil {
				if err := store.EnforceRetention(ctx); err != nil {
					return fmt.Errorf("failed to enforce retention for project %s: %w", project.ID, err)
				}
			}
		}
		if len(result.Items) < page.PageSize {
			return nil
		}
		page.Page++
	}
}

// DeleteProject removes a project and cascades the delete to its memory
// and generation records, since ProjectRepository.Delete deliberately
// does not cascade on its own.
func (ac *AgentContext) DeleteProject(ctx context.Context, projectID string) error {
	if err := ac.memories.DeleteByProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project memory: %w", err)
	}
	if err := ac.chapters.DeleteByProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project chapters: %w", err)
	}
	if err := ac.projects.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

package agent

import (
	"context"

	"github.com/loomtale/engine/internal/domain/agentapi"
	"github.com/loomtale/engine/pkg/logger"
	"github.com/loomtale/engine/pkg/metrics"
)

// ChatStream runs the same per-turn algorithm as Chat, but streams the
// model's tokens as they arrive instead of waiting for the full
// completion. Turns that don't generate content send a single token
// event carrying the full reply, mirroring Chat's result with the same
// event shape a caller can treat uniformly.
func (a *Agent) ChatStream(ctx context.Context, in ChatInput) (<-chan agentapi.StreamEvent, error) {
	unlock := a.sessions.lock(in.SessionID)

	plan, err := a.prepareTurn(ctx, in)
	if err != nil {
		unlock()
		return nil, err
	}

	events := make(chan agentapi.StreamEvent)

	if !plan.generate {
		go func() {
			defer unlock()
			defer close(events)
			if err := a.finishTurn(ctx, plan.session, in.ProjectID, plan.conversational); err != nil {
				events <- agentapi.StreamEvent{Type: agentapi.StreamError, Payload: err.Error()}
				return
			}
			metrics.AgentTurnsTotal.WithLabelValues(string(plan.intentKind), "false").Inc()
			events <- agentapi.StreamEvent{Type: agentapi.StreamToken, Token: plan.conversational}
			if plan.report != nil {
				events <- agentapi.StreamEvent{Type: agentapi.StreamConsistency, Payload: plan.report}
			}
			events <- agentapi.StreamEvent{Type: agentapi.StreamDone}
		}()
		return events, nil
	}

	go a.streamGeneration(ctx, in, plan, events, unlock)
	return events, nil
}

func (a *Agent) streamGeneration(ctx context.Context, in ChatInput, plan *turnPlan, events chan<- agentapi.StreamEvent, unlock func()) {
	defer unlock()
	defer close(events)

	chunks := a.generator.GenerateStream(ctx, a.generationInput(ctx, in, plan))
	for chunk := range chunks {
		switch {
		case chunk.Err != nil:
			logger.FromContext(ctx).Error("streamed chapter generation failed", "error", chunk.Err, "project_id", in.ProjectID, "chapter", plan.chapterNumber)
			text := "I ran into trouble writing that chapter. Want me to try again?"
			if ferr := a.finishTurn(ctx, plan.session, in.ProjectID, text); ferr != nil {
				events <- agentapi.StreamEvent{Type: agentapi.StreamError, Payload: ferr.Error()}
				return
			}
			metrics.AgentTurnsTotal.WithLabelValues(string(plan.intentKind), "false").Inc()
			events <- agentapi.StreamEvent{Type: agentapi.StreamToken, Token: text}
			events <- agentapi.StreamEvent{Type: agentapi.StreamDone}
			return

		case chunk.Token != "":
			events <- agentapi.StreamEvent{Type: agentapi.StreamToken, Token: chunk.Token}

		case chunk.Done != nil:
			out := chunk.Done
			text := replyForGenerated(plan.mode, out)
			if err := a.finishTurn(ctx, plan.session, in.ProjectID, text); err != nil {
				events <- agentapi.StreamEvent{Type: agentapi.StreamError, Payload: err.Error()}
				return
			}
			metrics.AgentTurnsTotal.WithLabelValues(string(plan.intentKind), "true").Inc()

			events <- agentapi.StreamEvent{
				Type: agentapi.StreamArtifact,
				Payload: agentapi.GeneratedChapter{
					ChapterNumber: plan.chapterNumber,
					Content:       out.Content,
					WordCount:     out.WordCount,
				},
			}
			if out.ConsistencyReport != nil {
				events <- agentapi.StreamEvent{Type: agentapi.StreamConsistency, Payload: out.ConsistencyReport}
			}
			events <- agentapi.StreamEvent{Type: agentapi.StreamDone}
			return
		}
	}
}

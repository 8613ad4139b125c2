package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/gateway"
	"github.com/loomtale/engine/pkg/logger"
)

// Readiness is the boolean-slot vector the completeness check is built
// from, plus the weighted score entity.SettingsBundle already computes
// from the same slots.
type Readiness struct {
	HasProtagonist bool
	HasConflict    bool
	HasGenre       bool
	HasLocation    bool
	Score          float64
}

// Ready reports whether every required slot is filled.
func (r Readiness) Ready() bool {
	return r.HasProtagonist && r.HasConflict && r.HasGenre && r.HasLocation
}

// Completer fills missing bundle slots through an LLM call when the
// rule-based extractor leaves required slots empty.
type Completer struct {
	provider gateway.Provider
	model    string
}

// NewCompleter builds a Completer over provider.
func NewCompleter(provider gateway.Provider, model string) *Completer {
	return &Completer{provider: provider, model: model}
}

// Readiness computes the boolean-slot vector and score for bundle.
func (c *Completer) Readiness(bundle *entity.SettingsBundle) Readiness {
	r := Readiness{Score: bundle.CompletenessScore()}
	for _, ch := range bundle.Characters {
		if ch.Role == entity.RoleProtagonist {
			r.HasProtagonist = true
			break
		}
	}
	for _, p := range bundle.PlotPoints {
		if p.Kind == entity.PlotInciting || p.Kind == entity.PlotRising || p.Kind == entity.PlotClimax {
			r.HasConflict = true
			break
		}
	}
	r.HasGenre = bundle.World.Genre != ""
	r.HasLocation = len(bundle.World.Locations) > 0
	return r
}

const completionPrompt = `The story bundle below is missing some required slots. Propose values for
the missing slots only, as compact JSON with keys among:
protagonist_name, genre, location, conflict.

Bundle summary:
%s

Respond with JSON only.`

// Complete asks the gateway to fill bundle's missing slots, parsing the
// response tolerantly. An unparseable response is logged and the call is
// retried once; if the retry is unparseable too, Complete gives up for
// this turn and returns no edits rather than an error.
func (c *Completer) Complete(ctx context.Context, bundle *entity.SettingsBundle) ([]entity.Edit, error) {
	readiness := c.Readiness(bundle)
	if readiness.Ready() {
		return nil, nil
	}

	var fields map[string]string
	parsed := false
	for attempt := 1; attempt <= 2 && !parsed; attempt++ {
		resp, err := c.provider.Generate(ctx, gateway.Request{
			Model: c.model,
			Messages: []gateway.Message{
				{Role: "system", Content: fmt.Sprintf(completionPrompt, summarize(bundle))},
			},
			Temperature: 0.7,
			MaxTokens:   256,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to complete settings: %w", err)
		}

		fields, parsed = ScanJSONObject(resp.Content)
		if !parsed {
			logger.FromContext(ctx).Warn("setting completion response was not parseable JSON", "raw", resp.Content, "attempt", attempt)
		}
	}
	if !parsed {
		return nil, nil
	}

	var edits []entity.Edit
	if name, ok := fields["protagonist_name"]; ok && !readiness.HasProtagonist {
		edits = append(edits, entity.Edit{
			Kind:          entity.EditUpsertCharacter,
			CharacterName: name,
			CharacterRole: entity.RoleProtagonist,
			AIGenerated:   true,
		})
	}
	if genre, ok := fields["genre"]; ok && !readiness.HasGenre {
		edits = append(edits, entity.Edit{
			Kind:        entity.EditUpsertWorldField,
			WorldField:  "genre",
			WorldValue:  genre,
			AIGenerated: true,
		})
	}
	if location, ok := fields["location"]; ok && !readiness.HasLocation {
		edits = append(edits, entity.Edit{Kind: entity.EditAddLocation, Location: location, AIGenerated: true})
	}
	if conflict, ok := fields["conflict"]; ok && !readiness.HasConflict {
		pp := entity.NewPlotPoint(conflict, entity.PlotInciting)
		edits = append(edits, entity.Edit{Kind: entity.EditAddPlotPoint, PlotPoint: pp, AIGenerated: true})
	}
	return edits, nil
}

func summarize(bundle *entity.SettingsBundle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "genre=%q locations=%v characters=%d plot_points=%d",
		bundle.World.Genre, bundle.World.Locations, len(bundle.Characters), len(bundle.PlotPoints))
	return b.String()
}

package generation

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/infrastructure/llm/tokenizer"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// promptData is the block set every mode's template renders from. Blocks
// are assembled by buildRequest and renderWithMemory before the registry
// ever sees them; the
// templates themselves only lay blocks out, never compute content.
type promptData struct {
	StyleHints string
	POV        string
	Tense      string
	Language   string

	WorldBlock       string
	CharacterBlock   string
	MemoryBlock      string
	ContinuationSeed string
	TaskBlock        string
}

// PromptRegistry caches the parsed system/user template pair; there is
// only one template pair, since blocks (not separate files per mode)
// are what vary between generation modes.
type PromptRegistry struct {
	parseOnce sync.Once
	system    *template.Template
	user      *template.Template
	parseErr  error
}

// NewPromptRegistry builds an empty registry; templates are parsed
// lazily on first use.
func NewPromptRegistry() *PromptRegistry {
	return &PromptRegistry{}
}

func (r *PromptRegistry) parse() {
	r.parseOnce.Do(func() {
		r.system, r.parseErr = template.ParseFS(templatesFS, "templates/system.tmpl")
		if r.parseErr != nil {
			return
		}
		r.user, r.parseErr = template.ParseFS(templatesFS, "templates/user.tmpl")
	})
}

// Render produces the system and user prompt text for one generation call.
func (r *PromptRegistry) Render(data promptData) (system, user string, err error) {
	r.parse()
	if r.parseErr != nil {
		return "", "", fmt.Errorf("failed to parse prompt templates: %w", r.parseErr)
	}

	var sysBuf, userBuf strings.Builder
	if err := r.system.Execute(&sysBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	if err := r.user.Execute(&userBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to render user prompt: %w", err)
	}
	return sysBuf.String(), userBuf.String(), nil
}

// worldBudgetFraction caps the world block at 15% of the prompt budget,
// per the content generator's prompt composition rule.
const worldBudgetFraction = 0.15

// buildWorldBlock compacts the bundle's world setting into a summary
// capped at worldBudget tokens, truncating at a rune boundary rather
// than failing if the summary runs long.
func buildWorldBlock(world *entity.World, worldBudget int) string {
	if world == nil {
		return "(no world setting yet)"
	}
	var b strings.Builder
	if world.Genre != "" {
		fmt.Fprintf(&b, "Genre: %s. ", world.Genre)
	}
	if world.Era != "" {
		fmt.Fprintf(&b, "Era: %s. ", world.Era)
	}
	if world.TechnologyLevel != "" {
		fmt.Fprintf(&b, "Technology level: %s. ", world.TechnologyLevel)
	}
	if len(world.Locations) > 0 {
		fmt.Fprintf(&b, "Locations: %s. ", strings.Join(world.Locations, ", "))
	}
	if len(world.Rules) > 0 {
		rules := make([]string, 0, len(world.Rules))
		for r := range world.Rules {
			rules = append(rules, r)
		}
		sort.Strings(rules)
		fmt.Fprintf(&b, "World rules: %s.", strings.Join(rules, "; "))
	}
	return truncateToTokenBudget(b.String(), worldBudget)
}

// buildCharacterBlock lists the profiles of the characters expected to
// appear in this chapter, by name.
func buildCharacterBlock(bundle *entity.SettingsBundle, expected []string) string {
	if bundle == nil || len(bundle.Characters) == 0 {
		return "(no characters yet)"
	}
	names := expected
	if len(names) == 0 {
		for name := range bundle.Characters {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	var b strings.Builder
	for _, name := range names {
		c, ok := bundle.Characters[name]
		if !ok {
			continue
		}
		traits := c.TraitList()
		sort.Strings(traits)
		rels := make([]string, 0, len(c.Relationships))
		for other, relation := range c.Relationships {
			rels = append(rels, fmt.Sprintf("%s (%s)", other, relation))
		}
		sort.Strings(rels)
		fmt.Fprintf(&b, "- %s (%s): traits=%s", c.Name, c.Role, strings.Join(traits, ", "))
		if len(rels) > 0 {
			fmt.Fprintf(&b, "; relationships=%s", strings.Join(rels, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// continuationSeedBudgetTokens bounds the trailing slice of previous
// content carried forward for CONTINUE/REWRITE/EXPAND modes.
const continuationSeedBudgetTokens = 800

func buildContinuationSeed(previousContent string) string {
	if previousContent == "" {
		return ""
	}
	return truncateToTokenBudget(previousContent, continuationSeedBudgetTokens)
}

// truncateToTokenBudget trims text to roughly budget tokens (via the
// heuristic counter) from the end, so continuation seeds keep the most
// recent content rather than the oldest.
func truncateToTokenBudget(text string, budget int) string {
	if budget <= 0 || tokenizer.HeuristicCount(text) <= budget {
		return text
	}
	runes := []rune(text)
	// 4 Latin chars ~= 1 token; approximate, then drop another 10% of the
	// runes from the front while still over.
	keep := budget * 4
	if keep >= len(runes) {
		return text
	}
	trimmed := runes[len(runes)-keep:]
	for tokenizer.HeuristicCount(string(trimmed)) > budget && len(trimmed) > 0 {
		cut := len(trimmed) / 10
		if cut == 0 {
			cut = 1
		}
		if cut >= len(trimmed) {
			break
		}
		trimmed = trimmed[cut:]
	}
	return string(trimmed)
}

func taskBlockFor(mode entity.GenerationMode, targetLength int, constraints string) string {
	var directive string
	switch mode {
	case entity.ModeFull:
		directive = "Write this chapter in full, following the outline below."
	case entity.ModeContinue:
		directive = "Continue directly from the continuation seed above, picking up mid-scene if needed."
	case entity.ModeExpand:
		directive = "Expand the indicated passage with more sensory and emotional detail without changing plot facts."
	case entity.ModeRewrite:
		directive = "Rewrite the targeted chapter under the new constraint, keeping every plot fact that the constraint does not override."
	case entity.ModeOutline:
		directive = "Produce a beat-by-beat summary of the upcoming chapter, not full prose."
	default:
		directive = "Write the requested content."
	}

	var b strings.Builder
	b.WriteString(directive)
	if targetLength > 0 {
		fmt.Fprintf(&b, " Target length: approximately %d words.", targetLength)
	}
	if constraints != "" {
		fmt.Fprintf(&b, " Constraints: %s", constraints)
	}
	return b.String()
}

// Package scenario generates detective cases and script-host mysteries with an
// AI completion backend, falling back to canned scenarios when the backend is
// unavailable or returns something unparseable.
package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/moriarty/internal/ai"
	"github.com/myrjola/moriarty/internal/models"
)

// Known subtypes. Unknown subtypes fall through to the murder prompt and
// fallback, so a bad request still yields a playable scenario.
const (
	SubtypeMurder        = "murder"
	SubtypeCampus        = "campus"
	SubtypeCastle        = "castle"
	SubtypeModernCampus  = "modern_campus"
	SubtypeAncientPalace = "ancient_palace"
)

type Generator struct {
	completer ai.Completer
	logger    *slog.Logger
}

func NewGenerator(completer ai.Completer, logger *slog.Logger) *Generator {
	return &Generator{
		completer: completer,
		logger:    logger.With("source", "scenario.Generator"),
	}
}

// Generate asks the completion backend for a scenario of the given subtype.
// Backend failures and unparseable responses degrade to the canned fallback so
// a game can always start.
func (g *Generator) Generate(ctx context.Context, subtype string) *models.Scenario {
	response, err := g.completer.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: buildPrompt(subtype)},
	})
	if err != nil {
		g.logger.LogAttrs(ctx, slog.LevelWarn, "scenario generation failed, using fallback",
			slog.String("subtype", subtype), slog.Any("error", err))
		return Fallback(subtype)
	}
	scenario, err := Parse(response)
	if err != nil {
		g.logger.LogAttrs(ctx, slog.LevelWarn, "scenario response unparseable, using fallback",
			slog.String("subtype", subtype), slog.Any("error", err))
		return Fallback(subtype)
	}
	return scenario
}

var subtypeThemes = map[string]string{
	SubtypeMurder:        "a mysterious murder in a bustling modern city",
	SubtypeCampus:        "a strange incident on a university campus",
	SubtypeCastle:        "a baffling disappearance in an ancient castle",
	SubtypeModernCampus:  "a locked-room death in a university library late at night",
	SubtypeAncientPalace: "a poisoning at a banquet in an old palace",
}

func buildPrompt(subtype string) string {
	theme, ok := subtypeThemes[subtype]
	if !ok {
		theme = subtypeThemes[SubtypeMurder]
	}
	var b strings.Builder
	b.WriteString("You are a mystery writer. Design a complete, self-consistent whodunnit about ")
	b.WriteString(theme)
	b.WriteString(".\n\n")
	b.WriteString("Respond with a single JSON object and nothing else, using this shape:\n")
	b.WriteString(`{
  "title": "...",
  "case_overview": "two or three paragraphs setting the scene",
  "location": "...",
  "time": "...",
  "victim": {"name": "...", "background": "...", "death_time": "...", "death_method": "..."},
  "suspects": [
    {"name": "...", "role": "...", "background": "...", "personality": "...", "motive": "...", "alibi": "...", "secret": "..."}
  ],
  "key_evidence": [
    {"id": "clue_1", "type": "physical", "description": "...", "location": "...", "importance": 5}
  ],
  "truth": {"real_culprit": "...", "method": "...", "motive": "...", "evidence": "..."}
}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- exactly 5 suspects, one of whom is the culprit named in truth.real_culprit\n")
	b.WriteString("- 6 to 8 pieces of evidence with importance from 1 to 5\n")
	b.WriteString("- every suspect has a plausible motive but only the evidence convicts the culprit\n")
	b.WriteString("- truth.real_culprit must exactly match one suspect's name\n")
	return b.String()
}

// CharacterID derives a stable character id from a suspect name.
func CharacterID(prefix, name string) string {
	sanitised := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	return fmt.Sprintf("%s_%s", prefix, sanitised)
}

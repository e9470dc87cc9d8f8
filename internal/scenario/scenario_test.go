package scenario

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/moriarty/internal/ai"
	"github.com/myrjola/moriarty/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

const sampleResponse = "Here is your mystery:\n```json\n" + `{
  "title": "The Midnight Gallery",
  "case_overview": "An art dealer is found dead during a private viewing.",
  "location": "Riverside gallery",
  "time": "Saturday night",
  "victim": {"name": "Hugo Brandt", "background": "art dealer", "death_time": "11 pm", "death_method": "poisoned champagne"},
  "suspects": [
    {"name": "Clara Voss", "role": "rival dealer", "background": "lost three sales to Hugo", "personality": "icy", "motive": "business rivalry", "alibi": "greeting guests", "secret": "owes Hugo money"},
    {"name": "Leo Brandt", "role": "nephew", "basic_info": "sole heir", "personality": "feckless", "motive": "inheritance", "alibi": "smoking outside", "secrets": "disinherited last week"}
  ],
  "key_evidence": [
    {"id": "clue_1", "type": "physical", "description": "a vial in the cloakroom", "location": "cloakroom", "importance": 5},
    {"type": "record", "description": "a rewritten will", "location": "Hugo's office", "importance": 4}
  ],
  "truth": {"real_culprit": "Leo Brandt", "method": "poison in the glass", "motive": "revenge for disinheritance", "evidence": "the vial"}
}` + "\n```\nGood luck, detective."

func TestParse(t *testing.T) {
	t.Parallel()
	scenario, err := Parse(sampleResponse)
	require.NoError(t, err)

	require.Equal(t, "The Midnight Gallery", scenario.Title)
	require.Equal(t, "An art dealer is found dead during a private viewing.", scenario.Overview)
	require.Equal(t, "Hugo Brandt", scenario.Victim.Name)

	require.Len(t, scenario.Suspects, 2)
	// Alias keys fold into the canonical fields.
	require.Equal(t, "sole heir", scenario.Suspects[1].Background)
	require.Equal(t, "disinherited last week", scenario.Suspects[1].Secret)

	require.Len(t, scenario.Clues, 2)
	// Missing clue ids get sequential ones.
	require.Equal(t, "clue_2", scenario.Clues[1].ID)

	require.Equal(t, "Leo Brandt", scenario.Truth.Culprit)
}

func TestParse_scriptShapedResponse(t *testing.T) {
	t.Parallel()
	response := `{
  "case_info": {"title": "Campus Night", "background": "a death in the library", "location": "the library", "time": "11:30 pm", "victim": "Jordan Wells"},
  "characters": [
    {"name": "Riley Chen", "role": "vice-president", "background": "wants the top job", "personality": "ambitious", "secret": "canvassed the council", "motive": "power"}
  ],
  "clues": [
    {"description": "an unclaimed door log entry", "importance": 5}
  ],
  "truth": {"culprit": "Riley Chen", "method": "a blow with a book-end", "motive": "power"}
}`
	scenario, err := Parse(response)
	require.NoError(t, err)
	require.Equal(t, "Campus Night", scenario.Title)
	require.Equal(t, "a death in the library", scenario.Overview)
	require.Equal(t, "Jordan Wells", scenario.Victim.Name)
	require.Equal(t, "Riley Chen", scenario.Truth.Culprit)
	require.Equal(t, "clue_1", scenario.Clues[0].ID)
}

func TestParse_rejectsBrokenResponses(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		response string
	}{
		{name: "no JSON at all", response: "I'm sorry, I can't write a mystery today."},
		{name: "invalid JSON", response: "{not json}"},
		{name: "no suspects", response: `{"title": "x", "clues": [{"description": "y"}], "truth": {"culprit": "z"}}`},
		{
			name:     "culprit matches nobody",
			response: `{"suspects": [{"name": "Ann"}], "clues": [{"description": "y"}], "truth": {"culprit": "Zed"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.response)
			require.Error(t, err)
		})
	}
}

func TestFallback_everySubtypePlayable(t *testing.T) {
	t.Parallel()
	subtypes := []string{
		SubtypeMurder, SubtypeCampus, SubtypeCastle,
		SubtypeModernCampus, SubtypeAncientPalace,
		"something_unheard_of",
	}
	for _, subtype := range subtypes {
		scenario := Fallback(subtype)
		require.NotEmpty(t, scenario.Title, subtype)
		require.NotEmpty(t, scenario.Overview, subtype)
		require.NotEmpty(t, scenario.Victim.Name, subtype)
		require.GreaterOrEqual(t, len(scenario.Suspects), 5, subtype)
		require.GreaterOrEqual(t, len(scenario.Clues), 6, subtype)
		require.NotEmpty(t, scenario.Truth.Culprit, subtype)

		// The culprit must resolve to a suspect or the game can't be won.
		_, found := FindSuspect(scenario.SuspectNames(), scenario.Truth.Culprit)
		require.True(t, found, subtype)

		for _, suspect := range scenario.Suspects {
			require.NotEmpty(t, suspect.Name, subtype)
			require.NotEmpty(t, suspect.Secret, subtype)
		}
		for _, clue := range scenario.Clues {
			require.NotEmpty(t, clue.ID, subtype)
			require.NotEmpty(t, clue.Description, subtype)
		}
	}
}

func TestGenerator_fallsBackOnError(t *testing.T) {
	t.Parallel()
	logger := testhelpers.NewLogger(io.Discard)
	generator := NewGenerator(ai.NewScripted("this is not JSON"), logger)

	scenario := generator.Generate(context.Background(), SubtypeCampus)
	require.Equal(t, "Night Terror in the Library", scenario.Title)
}

func TestGenerator_usesModelResponse(t *testing.T) {
	t.Parallel()
	logger := testhelpers.NewLogger(io.Discard)
	generator := NewGenerator(ai.NewScripted(sampleResponse), logger)

	scenario := generator.Generate(context.Background(), SubtypeMurder)
	require.Equal(t, "The Midnight Gallery", scenario.Title)
}

func TestFuzzyMatch(t *testing.T) {
	t.Parallel()
	require.True(t, FuzzyMatch("Riley Chen", "riley chen"))
	require.True(t, FuzzyMatch("Riley Chen", "Chen"))
	require.True(t, FuzzyMatch("Chen", "Riley Chen"))
	require.False(t, FuzzyMatch("Riley Chen", "Priya Nair"))
	require.False(t, FuzzyMatch("", "Riley Chen"))
	require.False(t, FuzzyMatch("  ", "Riley Chen"))
}

func TestCharacterID(t *testing.T) {
	t.Parallel()
	require.Equal(t, "suspect_riley_chen", CharacterID("suspect", " Riley Chen "))
}

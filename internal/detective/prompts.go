package detective

import (
	"fmt"
	"strings"

	"github.com/myrjola/moriarty/internal/models"
)

func caseSummary(current *models.Scenario) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Case: %s\n%s\nScene: %s, %s. Victim: %s (%s).\n",
		current.Title, current.Overview, current.Location, current.Time,
		current.Victim.Name, current.Victim.DeathMethod)
	b.WriteString("Suspects: ")
	b.WriteString(strings.Join(current.SuspectNames(), ", "))
	b.WriteString(".")
	return b.String()
}

func investigationPrompt(current *models.Scenario, target string, discovered *models.Clue) string {
	finding := "There is nothing new to find here; describe the search honestly without inventing evidence."
	if discovered != nil {
		finding = fmt.Sprintf("The search turns up a real clue, work it in naturally: %s.", discovered.Description)
	}
	return fmt.Sprintf(`You narrate a detective story in the second person.

%s

The detective investigates: %s.
%s

Write three or four atmospheric sentences. Never reveal the culprit.`,
		caseSummary(current), target, finding)
}

func interrogationPrompt(current *models.Scenario, suspect models.Suspect, memory, question string) string {
	return fmt.Sprintf(`You play %s under questioning by a detective.

%s

Who you are: %s, %s. Personality: %s. Your alibi: %s.
Your secret, which you protect unless the question corners you: %s.
What has happened in this interrogation so far: %s

The detective asks: %q

Answer in first person, two to four sentences, in character. You may deflect,
lie, or let something slip under pressure, but stay consistent with your alibi
and what you've said before.`,
		suspect.Name, caseSummary(current), suspect.Name, suspect.Role,
		suspect.Personality, suspect.Alibi, suspect.Secret, memory, question)
}

func analysisPrompt(current *models.Scenario, clue models.Clue) string {
	return fmt.Sprintf(`You narrate a detective story in the second person.

%s

The detective closely analyzes a piece of evidence: %s (found at %s, importance %d of 5).

Write three or four sentences on what the analysis reveals and which suspects it
bears on. Point toward the truth in proportion to the clue's importance, but
never name the culprit outright.`,
		caseSummary(current), clue.Description, clue.Location, clue.Importance)
}

func hintPrompt(current *models.Scenario) string {
	var undiscovered []string
	for _, clue := range current.Clues {
		if !clue.Discovered {
			undiscovered = append(undiscovered, fmt.Sprintf("%s (at %s)", clue.Description, clue.Location))
		}
	}
	return fmt.Sprintf(`You are a veteran detective mentoring a junior on a case.

%s

Evidence the junior has not found yet:
%s

Give one short hint that points at a productive line of inquiry or an overlooked
location. Never name the culprit or state a clue outright.`,
		caseSummary(current), strings.Join(undiscovered, "\n"))
}

// fallbackHint steers at the weightiest clue still buried.
func fallbackHint(current *models.Scenario) string {
	var best *models.Clue
	for i := range current.Clues {
		clue := &current.Clues[i]
		if clue.Discovered {
			continue
		}
		if best == nil || clue.Importance > best.Importance {
			best = clue
		}
	}
	if best == nil {
		return "You have seen everything there is to see. Line up the alibis against the evidence and ask who had both the means and the need."
	}
	return fmt.Sprintf("You haven't looked hard enough at %s. Something there doesn't fit the story you've been told.", best.Location)
}

func evaluationPrompt(current *models.Scenario, accused, reasoning string, correct bool) string {
	outcome := "The accusation is wrong."
	if correct {
		outcome = "The accusation is right."
	}
	return fmt.Sprintf(`You are the chief inspector reviewing a detective's conclusion.

%s

The actual culprit: %s. Method: %s. Motive: %s.

The detective accuses %s, reasoning: %q
%s

Write a short review, three to five sentences: what the reasoning got right,
what it missed, and how the case actually hangs together.`,
		caseSummary(current), current.Truth.Culprit, current.Truth.Method,
		current.Truth.Motive, accused, reasoning, outcome)
}

func fallbackFeedback(current *models.Scenario, correct bool) string {
	if correct {
		return fmt.Sprintf("Correct. %s was the culprit, and the evidence bears your reasoning out.", current.Truth.Culprit)
	}
	return "The accusation doesn't hold. The evidence points elsewhere."
}

package scripthost

import (
	"fmt"
	"strings"

	"github.com/myrjola/moriarty/internal/models"
)

// briefing is the opening hand-out: the case as the table knows it before the
// host takes over.
func briefing(script *models.Scenario) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Welcome to \"%s\".\n\n", script.Title)
	fmt.Fprintf(&b, "%s\n\n", script.Overview)
	fmt.Fprintf(&b, "Location: %s\nTime: %s\n", script.Location, script.Time)
	fmt.Fprintf(&b, "Victim: %s, %s. Died of %s at %s.\n\n",
		script.Victim.Name, script.Victim.Background, script.Victim.DeathMethod, script.Victim.DeathTime)
	b.WriteString("At the table:\n")
	for _, suspect := range script.Suspects {
		fmt.Fprintf(&b, "- %s, %s\n", suspect.Name, suspect.Role)
	}
	b.WriteString("\nYou play the detective. Watch, listen, and when the moment comes, accuse.")
	return b.String()
}

func hostIntroductionPrompt() string {
	return "You are the host of a murder mystery night. Give a short, " +
		"atmospheric welcome to the players in two or three sentences. " +
		"Set the mood without revealing anything about the case."
}

func npcSpeechPrompt(npc *models.Character, transcript string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s at a murder mystery night.\n", npc.Name)
	fmt.Fprintf(&b, "Personality: %s\n", npc.Personality)
	fmt.Fprintf(&b, "Background: %s\n", npc.Background)
	if npc.Secrets != "" {
		fmt.Fprintf(&b, "Your secret, which you must not reveal outright: %s\n", npc.Secrets)
	}
	fmt.Fprintf(&b, "You remember:\n%s\n", npc.RecentMemory(5))
	if transcript != "" {
		fmt.Fprintf(&b, "\nRecent conversation:\n%s", transcript)
	}
	b.WriteString("\nSay one or two sentences in character. " +
		"React to the conversation, defend yourself, or cast suspicion on someone else.")
	return b.String()
}

func questionPrompt(npc *models.Character, question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a character in a murder mystery, questioned by the detective.\n", npc.Name)
	fmt.Fprintf(&b, "Personality: %s\n", npc.Personality)
	fmt.Fprintf(&b, "Background: %s\n", npc.Background)
	if npc.Secrets != "" {
		fmt.Fprintf(&b, "Your secret: %s. Deflect rather than confess.\n", npc.Secrets)
	}
	fmt.Fprintf(&b, "You remember:\n%s\n", npc.RecentMemory(5))
	fmt.Fprintf(&b, "\nThe detective asks: %s\n", question)
	b.WriteString("Answer in character, in one to three sentences.")
	return b.String()
}

func analysisPrompt(script *models.Scenario, clue models.Clue) string {
	return fmt.Sprintf(
		"You are the host of the murder mystery \"%s\". The detective is studying a clue: %s (found at %s). "+
			"Describe in two sentences what a careful examination reveals, hinting at its significance "+
			"without naming the culprit.",
		script.Title, clue.Description, clue.Location)
}

// truthReveal closes the case in the host's voice.
func truthReveal(script *models.Scenario) string {
	var b strings.Builder
	b.WriteString("The truth comes out.\n\n")
	fmt.Fprintf(&b, "The culprit: %s.\n", script.Truth.Culprit)
	fmt.Fprintf(&b, "The method: %s\n", script.Truth.Method)
	fmt.Fprintf(&b, "The motive: %s\n", script.Truth.Motive)
	if script.Truth.Evidence != "" {
		fmt.Fprintf(&b, "The evidence that gave it away: %s\n", script.Truth.Evidence)
	}
	b.WriteString("\nThank you all for playing. The night is over.")
	return b.String()
}

package werewolf

import (
	"context"
	"fmt"
	"strings"

	"github.com/myrjola/moriarty/internal/models"
)

// The judge's narration is AI-generated with a fixed template behind every
// prompt, so the table never falls silent on a backend failure.

func (g *Game) openingAnnouncement(ctx context.Context, playerCount int, roles []Role) string {
	counts := map[Role]int{}
	for _, role := range roles {
		counts[role]++
	}
	var parts []string
	for _, role := range []Role{RoleWerewolf, RoleVillager, RoleSeer, RoleWitch} {
		if counts[role] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[role], role))
		}
	}
	setup := strings.Join(parts, ", ")

	prompt := fmt.Sprintf(`You are the judge of a werewolf game with %d players (%s).
Write an opening narration: set the scene of a village infiltrated by wolves, state the
basic rules (night and day alternate, the village votes someone out each day), and
declare the first night. Atmospheric, under 150 words. Output only the narration.`,
		playerCount, setup)

	fallback := fmt.Sprintf(`Welcome to the village. Among the %d of you walk wolves in human skin: %s.
Each night the wolves hunt; each day the village debates and votes one player out.
The village wins when the last wolf falls; the wolves win when the village can no longer outvote them.

Roles have been dealt in secret. Night falls. Close your eyes.`, playerCount, setup)

	return g.complete(ctx, prompt, fallback)
}

func (g *Game) nightAnnouncement(ctx context.Context, dayCount int) string {
	prompt := fmt.Sprintf(`You are the judge of a werewolf game. Announce night %d:
dark, tense, reminding the wolves, the seer, and the witch to act. Under 60 words.
Output only the announcement.`, dayCount)

	fallback := fmt.Sprintf(
		"Night %d falls. The village sleeps. Wolves, open your eyes and choose. Seer, point to the one you would know. Witch, weigh your potions.",
		dayCount)

	return g.complete(ctx, prompt, fallback)
}

func (g *Game) dayAnnouncement(ctx context.Context, deaths []int) string {
	if len(deaths) == 0 {
		prompt := `You are the judge of a werewolf game. Announce that nobody died in the night and
open the day's discussion. Tense but brief, under 40 words. Output only the announcement.`
		return g.complete(ctx, prompt,
			"Dawn breaks and, against the odds, everyone wakes. A quiet night rarely means a safe village. Discuss.")
	}

	var names []string
	for _, seat := range deaths {
		names = append(names, fmt.Sprintf("player %d", seat))
	}
	deathList := strings.Join(names, " and ")
	prompt := fmt.Sprintf(`You are the judge of a werewolf game. Announce that %s died in the night,
with a moment of mourning, then open the day's discussion. Under 60 words. Output only the announcement.`,
		deathList)
	fallback := fmt.Sprintf("Dawn breaks over a grim scene: %s did not survive the night. Mourn them briefly, then speak, for the wolves are still among you.", deathList)
	return g.complete(ctx, prompt, fallback)
}

func (g *Game) endAnnouncement(ctx context.Context, winner, reveal string) string {
	prompt := fmt.Sprintf(`You are the judge of a werewolf game that has just ended. %s won.
The roles were:
%s
Write a closing speech: congratulate the winners and note a turning point. Under 120 words.
Output only the speech.`, winner, reveal)

	fallback := fmt.Sprintf("The game is over. Victory goes to %s. Well played, all.", winner)
	speech := g.complete(ctx, prompt, fallback)
	return fmt.Sprintf("%s\n\nThe roles, revealed:\n%s", speech, reveal)
}

func revealRoles(players []Player) string {
	var lines []string
	for _, player := range players {
		name := fmt.Sprintf("player %d", player.Seat)
		if player.Human {
			name += " (you)"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", name, player.Role))
	}
	return strings.Join(lines, "\n")
}

func describeSeats(players []Player) string {
	var lines []string
	for _, player := range players {
		kind := "AI player"
		if player.Human {
			kind = "the human player"
		}
		lines = append(lines, fmt.Sprintf("player %d (%s)", player.Seat, kind))
	}
	return strings.Join(lines, "\n")
}

func killPrompt(targets []Player, transcript string) string {
	return fmt.Sprintf(`You decide for the werewolf pack. It is night; choose a victim.

Possible victims:
%s

Recent table talk:
%s

Favour whoever threatens the pack most; exposed power roles first, and the human player
is usually dangerous. Output only the chosen player's number.`,
		describeSeats(targets), transcript)
}

func seerPrompt(targets []Player, memory, transcript string) string {
	return fmt.Sprintf(`You are the seer. It is night; choose one player to check.

Players you may check:
%s

Your previous checks:
%s

Recent table talk:
%s

Do not re-check someone you already know. Prefer the suspicious and the influential.
Output only the chosen player's number.`,
		describeSeats(targets), memory, transcript)
}

func witchPrompt(dayCount, killTarget int, canSave, canPoison bool) string {
	var options []string
	if canSave {
		options = append(options, fmt.Sprintf(`- answer "save" to spend the antidote on player %d, tonight's victim`, killTarget))
	}
	if canPoison {
		options = append(options, `- answer "poison N" to spend the poison on player N`)
	}
	options = append(options, `- answer "pass" to keep your potions`)

	return fmt.Sprintf(`You are the witch on night %d. Each potion can be used once per game.

Your options:
%s

The antidote is precious; the poison is for a confirmed wolf. Early nights usually call
for patience. Output only your answer.`, dayCount, strings.Join(options, "\n"))
}

func discussionPrompt(player Player, character *models.Character, dayCount int, statement, transcript string) string {
	return fmt.Sprintf(`You are player %d in a werewolf game. Your secret role is %s.
Your manner: %s.
What you remember: %s

It is day %d. Another player just said: %q

Recent table talk:
%s

Reply in character, one or two sentences. A wolf deflects and muddies; a villager hunts
for inconsistencies; a power role protects its cover. Output only your statement.`,
		player.Seat, player.Role, character.Personality, character.RecentMemory(10), dayCount, statement, transcript)
}

func votePrompt(voter Player, character *models.Character, candidates []Player, transcript string) string {
	return fmt.Sprintf(`You are player %d in a werewolf game. Your secret role is %s.
What you remember: %s

It is time to vote someone out. Candidates:
%s

Recent table talk:
%s

A wolf votes against the village and shields the pack; a villager votes for the most
suspicious; a power role also protects itself. Output only the number of the player
you vote for.`,
		voter.Seat, voter.Role, character.RecentMemory(10), describeSeats(candidates), transcript)
}

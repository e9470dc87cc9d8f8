package werewolf

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/moriarty/internal/errors"
	"github.com/myrjola/moriarty/internal/repositories"
)

// RunNight plays one full night: the judge's night narration, the wolves'
// kill, the seer's check, and the witch's potions, then resolves the deaths
// and opens the day. Night actions are AI-driven with deterministic fallbacks,
// so a dead backend still produces a legal night.
func (g *Game) RunNight(ctx context.Context, sessionID string) error {
	session, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Finished() {
		return errors.Wrap(ErrGameFinished, "run night")
	}
	if err = g.sessions.UpdatePhase(ctx, sessionID, PhaseNight); err != nil {
		return err
	}

	announcement := g.nightAnnouncement(ctx, session.DayCount)
	if err = g.judgeSay(ctx, sessionID, PhaseNight, announcement); err != nil {
		return err
	}

	players, err := g.loadPlayers(ctx, sessionID)
	if err != nil {
		return err
	}
	living := alive(players)

	if err = g.werewolfKill(ctx, sessionID, living); err != nil {
		return err
	}
	if err = g.seerCheck(ctx, sessionID, session.DayCount, living); err != nil {
		return err
	}
	if err = g.witchAct(ctx, sessionID, session.DayCount, living); err != nil {
		return err
	}

	return g.startDay(ctx, sessionID)
}

// werewolfKill picks tonight's victim for the pack and stores it for resolution.
func (g *Game) werewolfKill(ctx context.Context, sessionID string, living []Player) error {
	var wolves, targets []Player
	for _, player := range living {
		if player.Role == RoleWerewolf {
			wolves = append(wolves, player)
		} else {
			targets = append(targets, player)
		}
	}
	if len(wolves) == 0 || len(targets) == 0 {
		return nil
	}

	transcript, err := g.recentTranscript(ctx, sessionID)
	if err != nil {
		return err
	}
	prompt := killPrompt(targets, transcript)
	response := g.complete(ctx, prompt, "")
	target := chooseSeat(response, seatsOf(targets), func() int { return preferHuman(targets) })

	g.logger.LogAttrs(ctx, slog.LevelDebug, "wolves chose a victim",
		slog.String("session_id", sessionID), slog.Int("seat", target))
	return g.states.Set(ctx, sessionID, stateKillTarget, target)
}

// seerCheck lets the seer learn one player's alignment. The result is recorded
// privately and written into the seer's memory for later prompts.
func (g *Game) seerCheck(ctx context.Context, sessionID string, dayCount int, living []Player) error {
	var seer Player
	var found bool
	for _, player := range living {
		if player.Role == RoleSeer && !player.Human {
			seer, found = player, true
			break
		}
	}
	if !found {
		return nil
	}

	var targets []Player
	for _, player := range living {
		if player.Seat != seer.Seat {
			targets = append(targets, player)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	character, err := g.characters.Get(ctx, sessionID, seer.CharacterID)
	if err != nil {
		return err
	}
	transcript, err := g.recentTranscript(ctx, sessionID)
	if err != nil {
		return err
	}
	prompt := seerPrompt(targets, character.RecentMemory(10), transcript)
	response := g.complete(ctx, prompt, "")
	targetSeat := chooseSeat(response, seatsOf(targets), func() int { return preferHuman(targets) })

	target, _ := bySeat(targets, targetSeat)
	verdict := "innocent"
	if target.Role == RoleWerewolf {
		verdict = "a werewolf"
	}

	if err = g.seatSay(ctx, sessionID, PhaseNight, seer,
		fmt.Sprintf("Checked player %d: %s.", targetSeat, verdict), true); err != nil {
		return err
	}
	return g.characters.AppendMemory(ctx, sessionID, seer.CharacterID,
		fmt.Sprintf("night %d check: player %d is %s", dayCount, targetSeat, verdict), "")
}

// witchAct decides whether the witch spends the antidote on tonight's victim
// or the poison on a player. Both potions are single-use per game.
func (g *Game) witchAct(ctx context.Context, sessionID string, dayCount int, living []Player) error {
	var witch Player
	var found bool
	for _, player := range living {
		if player.Role == RoleWitch && !player.Human {
			witch, found = player, true
			break
		}
	}
	if !found {
		return nil
	}

	antidoteUsed, err := g.boolState(ctx, sessionID, stateAntidoteUsed)
	if err != nil {
		return err
	}
	poisonUsed, err := g.boolState(ctx, sessionID, statePoisonUsed)
	if err != nil {
		return err
	}
	killTarget, err := g.intState(ctx, sessionID, stateKillTarget)
	if err != nil {
		return err
	}

	canSave := !antidoteUsed && killTarget != 0
	canPoison := !poisonUsed
	if !canSave && !canPoison {
		return nil
	}

	prompt := witchPrompt(dayCount, killTarget, canSave, canPoison)
	response := strings.ToLower(g.complete(ctx, prompt, "pass"))

	switch {
	case canSave && strings.Contains(response, "save"):
		if err = g.states.Set(ctx, sessionID, stateSaveTarget, killTarget); err != nil {
			return err
		}
		if err = g.states.Set(ctx, sessionID, stateAntidoteUsed, true); err != nil {
			return err
		}
		if err = g.seatSay(ctx, sessionID, PhaseNight, witch,
			fmt.Sprintf("Used the antidote on player %d.", killTarget), true); err != nil {
			return err
		}
		return g.characters.AppendMemory(ctx, sessionID, witch.CharacterID,
			fmt.Sprintf("night %d: spent the antidote on player %d", dayCount, killTarget), "")

	case canPoison && strings.Contains(response, "poison"):
		var targets []Player
		for _, player := range living {
			if player.Seat != witch.Seat {
				targets = append(targets, player)
			}
		}
		if len(targets) == 0 {
			return nil
		}
		poisonSeat := chooseSeat(response, seatsOf(targets), func() int { return preferHuman(targets) })
		if err = g.states.Set(ctx, sessionID, statePoisonTarget, poisonSeat); err != nil {
			return err
		}
		if err = g.states.Set(ctx, sessionID, statePoisonUsed, true); err != nil {
			return err
		}
		if err = g.seatSay(ctx, sessionID, PhaseNight, witch,
			fmt.Sprintf("Used the poison on player %d.", poisonSeat), true); err != nil {
			return err
		}
		return g.characters.AppendMemory(ctx, sessionID, witch.CharacterID,
			fmt.Sprintf("night %d: poisoned player %d", dayCount, poisonSeat), "")

	default:
		return g.seatSay(ctx, sessionID, PhaseNight, witch,
			"Kept both potions for a more decisive night.", true)
	}
}

// startDay resolves the night's deaths, checks for a winner, and opens the
// discussion phase.
func (g *Game) startDay(ctx context.Context, sessionID string) error {
	deaths, err := g.resolveNight(ctx, sessionID)
	if err != nil {
		return err
	}

	over, err := g.checkGameOver(ctx, sessionID)
	if err != nil || over {
		return err
	}

	if err = g.sessions.UpdatePhase(ctx, sessionID, PhaseDayDiscussion); err != nil {
		return err
	}
	announcement := g.dayAnnouncement(ctx, deaths)
	if err = g.judgeSay(ctx, sessionID, PhaseDayDiscussion, announcement); err != nil {
		return err
	}
	return g.systemSay(ctx, sessionID, PhaseDayDiscussion,
		"The floor is open. Speak your suspicions; the vote will follow.", false)
}

// resolveNight turns the stored night actions into deaths. The wolves' victim
// survives if the antidote was spent on them; the poison target always dies.
// A poisoned victim who was also the wolves' target dies once.
func (g *Game) resolveNight(ctx context.Context, sessionID string) ([]int, error) {
	killTarget, err := g.intState(ctx, sessionID, stateKillTarget)
	if err != nil {
		return nil, err
	}
	saveTarget, err := g.intState(ctx, sessionID, stateSaveTarget)
	if err != nil {
		return nil, err
	}
	poisonTarget, err := g.intState(ctx, sessionID, statePoisonTarget)
	if err != nil {
		return nil, err
	}

	var deaths []int
	if killTarget != 0 && killTarget != saveTarget {
		deaths = append(deaths, killTarget)
	}
	if poisonTarget != 0 && poisonTarget != killTarget {
		deaths = append(deaths, poisonTarget)
	} else if poisonTarget != 0 && poisonTarget == killTarget && killTarget == saveTarget {
		// Saved from the wolves but poisoned the same night.
		deaths = append(deaths, poisonTarget)
	}

	if len(deaths) > 0 {
		if err = g.eliminate(ctx, sessionID, deaths...); err != nil {
			return nil, err
		}
	}

	for _, key := range []string{stateKillTarget, stateSaveTarget, statePoisonTarget} {
		if err = g.states.Delete(ctx, sessionID, key); err != nil {
			return nil, err
		}
	}
	return deaths, nil
}

func (g *Game) eliminate(ctx context.Context, sessionID string, seats ...int) error {
	players, err := g.loadPlayers(ctx, sessionID)
	if err != nil {
		return err
	}
	for i := range players {
		for _, seat := range seats {
			if players[i].Seat == seat {
				players[i].Alive = false
				if players[i].CharacterID != "" {
					if err = g.characters.SetAlive(ctx, sessionID, players[i].CharacterID, false); err != nil {
						return err
					}
				}
			}
		}
	}
	return g.savePlayers(ctx, sessionID, players)
}

// checkGameOver applies the win conditions: the village wins when no wolves
// remain; the wolves win when they are no longer outnumbered by the rest.
func (g *Game) checkGameOver(ctx context.Context, sessionID string) (bool, error) {
	players, err := g.loadPlayers(ctx, sessionID)
	if err != nil {
		return false, err
	}
	living := alive(players)

	var wolves, others int
	for _, player := range living {
		if player.Role == RoleWerewolf {
			wolves++
		} else {
			others++
		}
	}
	humanRole, err := g.PlayerRole(ctx, sessionID)
	if err != nil {
		return false, err
	}

	var winner string
	switch {
	case wolves == 0:
		winner = "the village"
	case wolves >= others:
		winner = "the werewolves"
	default:
		return false, nil
	}

	if err = g.states.Set(ctx, sessionID, stateWinner, winner); err != nil {
		return false, err
	}
	if err = g.sessions.UpdatePhase(ctx, sessionID, PhaseGameOver); err != nil {
		return false, err
	}

	humanWon := (winner == "the werewolves") == (humanRole == RoleWerewolf)
	status := modelsStatus(humanWon)
	if err = g.sessions.UpdateStatus(ctx, sessionID, status); err != nil {
		return false, err
	}

	reveal := revealRoles(players)
	endMessage := g.endAnnouncement(ctx, winner, reveal)
	if err = g.judgeSay(ctx, sessionID, PhaseGameOver, endMessage); err != nil {
		return false, err
	}
	return true, nil
}

func (g *Game) recentTranscript(ctx context.Context, sessionID string) (string, error) {
	messages, err := g.messages.ListPublic(ctx, sessionID)
	if err != nil {
		return "", err
	}
	const window = 10
	if len(messages) > window {
		messages = messages[len(messages)-window:]
	}
	var b strings.Builder
	for _, message := range messages {
		content := message.Content
		if len(content) > 100 {
			content = content[:100]
		}
		fmt.Fprintf(&b, "%s: %s\n", message.SpeakerName, content)
	}
	return b.String(), nil
}

func (g *Game) boolState(ctx context.Context, sessionID, key string) (bool, error) {
	var value bool
	err := g.states.Get(ctx, sessionID, key, &value)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	return value, err
}

func (g *Game) intState(ctx context.Context, sessionID, key string) (int, error) {
	var value int
	err := g.states.Get(ctx, sessionID, key, &value)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, nil
	}
	return value, err
}

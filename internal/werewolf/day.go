package werewolf

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/myrjola/moriarty/internal/errors"
	"github.com/myrjola/moriarty/internal/models"
	"github.com/myrjola/moriarty/internal/random"
)

// A discussion moves to the vote once this many player statements have landed.
const discussionStatementsBeforeVote = 4

// How many AI players chime in after a human statement.
const maxResponders = 3

// PlayerSpeak records the human player's statement and has a few AI players
// respond. Once the discussion has run its course the judge opens the vote.
func (g *Game) PlayerSpeak(ctx context.Context, sessionID, statement string) error {
	session, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Finished() {
		return errors.Wrap(ErrGameFinished, "player speak")
	}
	if session.Phase != PhaseDayDiscussion && session.Phase != PhaseDayVoting {
		return errors.Wrap(ErrWrongPhase, "player speak", slog.String("phase", session.Phase))
	}

	players, err := g.loadPlayers(ctx, sessionID)
	if err != nil {
		return err
	}
	human, ok := bySeat(players, humanSeat)
	if !ok || !human.Alive {
		return errors.Wrap(ErrInvalidTarget, "player speak: the human player is dead")
	}

	if err = g.seatSay(ctx, sessionID, session.Phase, human, statement, false); err != nil {
		return err
	}

	if err = g.aiResponses(ctx, sessionID, session, statement); err != nil {
		return err
	}
	return g.maybeOpenVote(ctx, sessionID, session.Phase)
}

// aiResponses has up to three living AI players reply to the human's statement
// in character.
func (g *Game) aiResponses(ctx context.Context, sessionID string, session *models.Session, statement string) error {
	players, err := g.loadPlayers(ctx, sessionID)
	if err != nil {
		return err
	}
	var aiAlive []Player
	for _, player := range alive(players) {
		if !player.Human {
			aiAlive = append(aiAlive, player)
		}
	}
	if len(aiAlive) == 0 {
		return nil
	}

	transcript, err := g.recentTranscript(ctx, sessionID)
	if err != nil {
		return err
	}
	responders := random.Sample(aiAlive, maxResponders)
	for _, responder := range responders {
		character, err := g.characters.Get(ctx, sessionID, responder.CharacterID)
		if err != nil {
			return err
		}
		prompt := discussionPrompt(responder, character, session.DayCount, statement, transcript)
		fallback := "We should weigh everyone's words carefully before the vote."
		response := g.complete(ctx, prompt, fallback)
		if err = g.seatSay(ctx, sessionID, session.Phase, responder, response, false); err != nil {
			return err
		}
	}
	return nil
}

// maybeOpenVote advances the discussion to the vote once enough statements
// have been made.
func (g *Game) maybeOpenVote(ctx context.Context, sessionID, phase string) error {
	if phase != PhaseDayDiscussion {
		return nil
	}
	humanCount, err := g.messages.CountBySpeakerKind(ctx, sessionID, PhaseDayDiscussion, string(models.CharacterKindPlayer))
	if err != nil {
		return err
	}
	aiCount, err := g.messages.CountBySpeakerKind(ctx, sessionID, PhaseDayDiscussion, "ai_player")
	if err != nil {
		return err
	}
	if humanCount+aiCount >= discussionStatementsBeforeVote {
		return g.StartVoting(ctx, sessionID)
	}
	return nil
}

// StartVoting closes the discussion and opens the vote.
func (g *Game) StartVoting(ctx context.Context, sessionID string) error {
	session, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Finished() {
		return errors.Wrap(ErrGameFinished, "start voting")
	}
	if session.Phase != PhaseDayDiscussion {
		return errors.Wrap(ErrWrongPhase, "start voting")
	}
	if err = g.sessions.UpdatePhase(ctx, sessionID, PhaseDayVoting); err != nil {
		return err
	}
	return g.judgeSay(ctx, sessionID, PhaseDayVoting,
		"Discussion is over. Cast your votes: the player with the most votes leaves the game.")
}

// PlayerVote records the human's vote, collects the AI votes, resolves the
// elimination, and either ends the game or starts the next night.
func (g *Game) PlayerVote(ctx context.Context, sessionID string, targetSeat int) error {
	session, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Finished() {
		return errors.Wrap(ErrGameFinished, "player vote")
	}
	if session.Phase != PhaseDayVoting {
		return errors.Wrap(ErrWrongPhase, "player vote")
	}

	players, err := g.loadPlayers(ctx, sessionID)
	if err != nil {
		return err
	}
	living := alive(players)
	target, ok := bySeat(living, targetSeat)
	if !ok || targetSeat == humanSeat {
		return errors.Wrap(ErrInvalidTarget, "player vote")
	}

	human, _ := bySeat(players, humanSeat)
	votes := map[int]int{}
	if human.Alive {
		votes[humanSeat] = target.Seat
		if err = g.seatSay(ctx, sessionID, PhaseDayVoting, human,
			fmt.Sprintf("I vote for player %d.", target.Seat), false); err != nil {
			return err
		}
	}

	if err = g.collectAIVotes(ctx, sessionID, living, votes); err != nil {
		return err
	}
	return g.resolveVotes(ctx, sessionID, session.DayCount, votes)
}

// collectAIVotes asks every living AI player for a vote. Wolves that fail to
// answer usefully default to a non-wolf; everyone else defaults to a random
// other player.
func (g *Game) collectAIVotes(ctx context.Context, sessionID string, living []Player, votes map[int]int) error {
	transcript, err := g.recentTranscript(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, voter := range living {
		if voter.Human {
			continue
		}
		var candidates []Player
		for _, candidate := range living {
			if candidate.Seat != voter.Seat {
				candidates = append(candidates, candidate)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		character, err := g.characters.Get(ctx, sessionID, voter.CharacterID)
		if err != nil {
			return err
		}
		prompt := votePrompt(voter, character, candidates, transcript)
		response := g.complete(ctx, prompt, "")
		target := chooseSeat(response, seatsOf(candidates), func() int {
			return fallbackVote(voter, candidates)
		})

		votes[voter.Seat] = target
		if err = g.seatSay(ctx, sessionID, PhaseDayVoting, voter,
			fmt.Sprintf("I vote for player %d.", target), false); err != nil {
			return err
		}
	}
	return nil
}

// fallbackVote picks a vote when the model gave no usable answer: wolves avoid
// their pack, everyone else votes at random.
func fallbackVote(voter Player, candidates []Player) int {
	if voter.Role == RoleWerewolf {
		var nonWolves []Player
		for _, candidate := range candidates {
			if candidate.Role != RoleWerewolf {
				nonWolves = append(nonWolves, candidate)
			}
		}
		if len(nonWolves) > 0 {
			return random.Pick(nonWolves).Seat
		}
	}
	return random.Pick(candidates).Seat
}

// resolveVotes tallies, announces the per-seat counts, eliminates the loser
// (ties break at random), and moves the game on.
func (g *Game) resolveVotes(ctx context.Context, sessionID string, dayCount int, votes map[int]int) error {
	counts := map[int]int{}
	for _, target := range votes {
		counts[target]++
	}
	if len(counts) == 0 {
		return errors.New("no votes were cast")
	}

	maxVotes := 0
	for _, count := range counts {
		if count > maxVotes {
			maxVotes = count
		}
	}
	var leaders []int
	for seat, count := range counts {
		if count == maxVotes {
			leaders = append(leaders, seat)
		}
	}
	sort.Ints(leaders)
	eliminated := leaders[0]
	if len(leaders) > 1 {
		eliminated = random.Pick(leaders)
	}

	if err := g.eliminate(ctx, sessionID, eliminated); err != nil {
		return err
	}

	var tally []string
	seats := make([]int, 0, len(counts))
	for seat := range counts {
		seats = append(seats, seat)
	}
	sort.Ints(seats)
	for _, seat := range seats {
		tally = append(tally, fmt.Sprintf("player %d: %d", seat, counts[seat]))
	}
	announcement := fmt.Sprintf("The vote is in. Player %d is eliminated.\n\nTally: %s.",
		eliminated, strings.Join(tally, ", "))
	if err := g.judgeSay(ctx, sessionID, PhaseDayVoting, announcement); err != nil {
		return err
	}

	over, err := g.checkGameOver(ctx, sessionID)
	if err != nil || over {
		return err
	}

	if err = g.sessions.UpdateDayCount(ctx, sessionID, dayCount+1); err != nil {
		return err
	}
	return g.RunNight(ctx, sessionID)
}

func modelsStatus(humanWon bool) models.SessionStatus {
	if humanWon {
		return models.SessionStatusWon
	}
	return models.SessionStatusLost
}

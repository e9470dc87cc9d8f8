package werewolf

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/myrjola/moriarty/internal/ai"
	"github.com/myrjola/moriarty/internal/db"
	"github.com/myrjola/moriarty/internal/models"
	"github.com/myrjola/moriarty/internal/repositories"
	"github.com/myrjola/moriarty/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

type completerFunc func(ctx context.Context, messages []ai.Message) (string, error)

func (f completerFunc) Complete(ctx context.Context, messages []ai.Message) (string, error) {
	return f(ctx, messages)
}

// promptRouter answers prompts by keyword so tests stay independent of the
// order in which the engine consults the model.
func promptRouter(answers map[string]string) completerFunc {
	return func(_ context.Context, messages []ai.Message) (string, error) {
		prompt := messages[len(messages)-1].Content
		for keyword, answer := range answers {
			if strings.Contains(prompt, keyword) {
				return answer, nil
			}
		}
		return "", nil
	}
}

func newGame(t *testing.T, completer ai.Completer) (*Game, *repositories.SessionRepository, *repositories.StateRepository) {
	t.Helper()
	dbs, err := db.NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbs.Close() })

	logger := testhelpers.NewLogger(io.Discard)
	sessions := repositories.NewSessionRepository(dbs, logger)
	characters := repositories.NewCharacterRepository(dbs, logger)
	messages := repositories.NewMessageRepository(dbs, logger)
	states := repositories.NewStateRepository(dbs, logger)
	game := New(sessions, characters, messages, states, completer, logger)
	return game, sessions, states
}

// setupTable seeds a session with a fixed seating plan, bypassing the random
// deal so tests control who holds which role.
func setupTable(t *testing.T, game *Game, sessions *repositories.SessionRepository, players []Player) string {
	t.Helper()
	ctx := context.Background()
	session, err := sessions.Create(ctx, models.GameKindWerewolf, 1)
	require.NoError(t, err)

	require.NoError(t, game.characters.Create(ctx, &models.Character{
		SessionID: session.ID, ID: "judge", Name: "Judge",
		Kind: models.CharacterKindJudge, Alive: true,
	}))
	for _, player := range players {
		if player.Human {
			continue
		}
		require.NoError(t, game.characters.Create(ctx, &models.Character{
			SessionID: session.ID, ID: player.CharacterID,
			Name: fmt.Sprintf("Player %d", player.Seat),
			Kind: models.CharacterKindNPC, Alive: player.Alive,
		}))
	}
	require.NoError(t, game.savePlayers(ctx, session.ID, players))
	return session.ID
}

func sixSeats() []Player {
	return []Player{
		{Seat: 1, Role: RoleVillager, Alive: true, Human: true},
		{Seat: 2, CharacterID: "seat_2", Role: RoleWerewolf, Alive: true},
		{Seat: 3, CharacterID: "seat_3", Role: RoleSeer, Alive: true},
		{Seat: 4, CharacterID: "seat_4", Role: RoleWitch, Alive: true},
		{Seat: 5, CharacterID: "seat_5", Role: RoleVillager, Alive: true},
		{Seat: 6, CharacterID: "seat_6", Role: RoleVillager, Alive: true},
	}
}

func TestGenerateRoles(t *testing.T) {
	t.Parallel()
	tests := []struct {
		playerCount int
		want        map[Role]int
	}{
		{6, map[Role]int{RoleWerewolf: 2, RoleVillager: 3, RoleSeer: 1}},
		{8, map[Role]int{RoleWerewolf: 2, RoleVillager: 4, RoleSeer: 1, RoleWitch: 1}},
		{10, map[Role]int{RoleWerewolf: 3, RoleVillager: 5, RoleSeer: 1, RoleWitch: 1}},
		{12, map[Role]int{RoleWerewolf: 4, RoleVillager: 6, RoleSeer: 1, RoleWitch: 1}},
		// Unsupported sizes fall back to the eight-player table.
		{7, map[Role]int{RoleWerewolf: 2, RoleVillager: 4, RoleSeer: 1, RoleWitch: 1}},
	}
	for _, tt := range tests {
		roles := GenerateRoles(tt.playerCount)
		got := map[Role]int{}
		for _, role := range roles {
			got[role]++
		}
		require.Equal(t, tt.want, got, "player count %d", tt.playerCount)
	}
}

func TestRunNight_antidoteCancelsKill(t *testing.T) {
	t.Parallel()
	completer := promptRouter(map[string]string{
		"choose a victim":  "5",
		"You are the seer": "2",
		"You are the witch": "save",
	})
	game, sessions, states := newGame(t, completer)
	sessionID := setupTable(t, game, sessions, sixSeats())
	ctx := context.Background()

	require.NoError(t, game.RunNight(ctx, sessionID))

	living, err := game.AlivePlayers(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, living, 6, "the antidote cancels the wolves' kill")

	var antidoteUsed bool
	require.NoError(t, states.Get(ctx, sessionID, stateAntidoteUsed, &antidoteUsed))
	require.True(t, antidoteUsed)

	session, err := sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, PhaseDayDiscussion, session.Phase)
}

func TestRunNight_poisonOnKilledTargetIsOneDeath(t *testing.T) {
	t.Parallel()
	completer := promptRouter(map[string]string{
		"choose a victim":  "5",
		"You are the seer": "2",
		"You are the witch": "poison 5",
	})
	game, sessions, _ := newGame(t, completer)
	sessionID := setupTable(t, game, sessions, sixSeats())
	ctx := context.Background()

	require.NoError(t, game.RunNight(ctx, sessionID))

	living, err := game.AlivePlayers(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, living, 5, "a doubly targeted player dies exactly once")
	for _, player := range living {
		require.NotEqual(t, 5, player.Seat)
	}
}

func TestRunNight_potionsAreSingleUse(t *testing.T) {
	t.Parallel()
	night := 0
	completer := completerFunc(func(_ context.Context, messages []ai.Message) (string, error) {
		prompt := messages[len(messages)-1].Content
		switch {
		case strings.Contains(prompt, "choose a victim"):
			night++
			if night == 1 {
				return "5", nil
			}
			return "6", nil
		case strings.Contains(prompt, "You are the seer"):
			return "2", nil
		case strings.Contains(prompt, "You are the witch"):
			// Tries to save every night; only the first succeeds.
			return "save", nil
		}
		return "", nil
	})
	game, sessions, _ := newGame(t, completer)
	sessionID := setupTable(t, game, sessions, sixSeats())
	ctx := context.Background()

	require.NoError(t, game.RunNight(ctx, sessionID))
	living, err := game.AlivePlayers(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, living, 6)

	require.NoError(t, game.RunNight(ctx, sessionID))
	living, err = game.AlivePlayers(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, living, 5, "the second save attempt fails, the victim dies")
	for _, player := range living {
		require.NotEqual(t, 6, player.Seat)
	}
}

func TestCheckGameOver(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		players    []Player
		over       bool
		winner     string
		status     models.SessionStatus
	}{
		{
			name: "no wolves left means the village wins",
			players: []Player{
				{Seat: 1, Role: RoleVillager, Alive: true, Human: true},
				{Seat: 2, CharacterID: "seat_2", Role: RoleWerewolf, Alive: false},
				{Seat: 3, CharacterID: "seat_3", Role: RoleVillager, Alive: true},
			},
			over: true, winner: "the village", status: models.SessionStatusWon,
		},
		{
			name: "wolves matching the rest means the wolves win",
			players: []Player{
				{Seat: 1, Role: RoleVillager, Alive: true, Human: true},
				{Seat: 2, CharacterID: "seat_2", Role: RoleWerewolf, Alive: true},
				{Seat: 3, CharacterID: "seat_3", Role: RoleVillager, Alive: false},
			},
			over: true, winner: "the werewolves", status: models.SessionStatusLost,
		},
		{
			name: "a wolf human wins with the wolves",
			players: []Player{
				{Seat: 1, Role: RoleWerewolf, Alive: true, Human: true},
				{Seat: 2, CharacterID: "seat_2", Role: RoleVillager, Alive: true},
				{Seat: 3, CharacterID: "seat_3", Role: RoleVillager, Alive: false},
			},
			over: true, winner: "the werewolves", status: models.SessionStatusWon,
		},
		{
			name: "wolves outnumbered keeps the game going",
			players: []Player{
				{Seat: 1, Role: RoleVillager, Alive: true, Human: true},
				{Seat: 2, CharacterID: "seat_2", Role: RoleWerewolf, Alive: true},
				{Seat: 3, CharacterID: "seat_3", Role: RoleVillager, Alive: true},
			},
			over: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			game, sessions, states := newGame(t, ai.NewScripted())
			sessionID := setupTable(t, game, sessions, tt.players)
			ctx := context.Background()

			over, err := game.checkGameOver(ctx, sessionID)
			require.NoError(t, err)
			require.Equal(t, tt.over, over)
			if !tt.over {
				return
			}

			var winner string
			require.NoError(t, states.Get(ctx, sessionID, stateWinner, &winner))
			require.Equal(t, tt.winner, winner)

			session, err := sessions.Get(ctx, sessionID)
			require.NoError(t, err)
			require.Equal(t, PhaseGameOver, session.Phase)
			require.Equal(t, tt.status, session.Status)
		})
	}
}

func TestPlayerVote_eliminatesAndEndsGame(t *testing.T) {
	t.Parallel()
	completer := promptRouter(map[string]string{
		"time to vote": "2",
	})
	game, sessions, states := newGame(t, completer)
	players := []Player{
		{Seat: 1, Role: RoleVillager, Alive: true, Human: true},
		{Seat: 2, CharacterID: "seat_2", Role: RoleWerewolf, Alive: true},
		{Seat: 3, CharacterID: "seat_3", Role: RoleVillager, Alive: true},
		{Seat: 4, CharacterID: "seat_4", Role: RoleVillager, Alive: true},
	}
	sessionID := setupTable(t, game, sessions, players)
	ctx := context.Background()
	require.NoError(t, sessions.UpdatePhase(ctx, sessionID, PhaseDayVoting))

	require.NoError(t, game.PlayerVote(ctx, sessionID, 2))

	session, err := sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, PhaseGameOver, session.Phase)
	require.Equal(t, models.SessionStatusWon, session.Status)

	var winner string
	require.NoError(t, states.Get(ctx, sessionID, stateWinner, &winner))
	require.Equal(t, "the village", winner)
}

func TestPlayerVote_phaseValidation(t *testing.T) {
	t.Parallel()
	game, sessions, _ := newGame(t, ai.NewScripted())
	sessionID := setupTable(t, game, sessions, sixSeats())
	ctx := context.Background()
	require.NoError(t, sessions.UpdatePhase(ctx, sessionID, PhaseNight))

	err := game.PlayerVote(ctx, sessionID, 2)
	require.ErrorIs(t, err, ErrWrongPhase)

	require.NoError(t, sessions.UpdatePhase(ctx, sessionID, PhaseDayVoting))
	// Voting for yourself or a dead seat is refused.
	err = game.PlayerVote(ctx, sessionID, 1)
	require.ErrorIs(t, err, ErrInvalidTarget)
	err = game.PlayerVote(ctx, sessionID, 99)
	require.ErrorIs(t, err, ErrInvalidTarget)
}

func TestPlayerSpeak_advancesToVoting(t *testing.T) {
	t.Parallel()
	completer := promptRouter(map[string]string{
		"Reply in character": "I agree, something is off about the quiet ones.",
	})
	game, sessions, _ := newGame(t, completer)
	sessionID := setupTable(t, game, sessions, sixSeats())
	ctx := context.Background()
	require.NoError(t, sessions.UpdatePhase(ctx, sessionID, PhaseDayDiscussion))

	// One human statement draws three AI replies, which reaches the
	// threshold and opens the vote.
	require.NoError(t, game.PlayerSpeak(ctx, sessionID, "Player 2 has been far too quiet."))

	session, err := sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, PhaseDayVoting, session.Phase)
}

func TestPlayerSpeak_wrongPhase(t *testing.T) {
	t.Parallel()
	game, sessions, _ := newGame(t, ai.NewScripted())
	sessionID := setupTable(t, game, sessions, sixSeats())
	ctx := context.Background()
	require.NoError(t, sessions.UpdatePhase(ctx, sessionID, PhaseNight))

	err := game.PlayerSpeak(ctx, sessionID, "hello?")
	require.ErrorIs(t, err, ErrWrongPhase)
}

func TestStart_playsThroughTheFirstNight(t *testing.T) {
	t.Parallel()
	// A completer that never gives a usable answer: every decision falls
	// back deterministically and the game must still reach a legal state.
	game, _, _ := newGame(t, ai.NewScripted())
	ctx := context.Background()

	session, err := game.Start(ctx, 1, 8)
	require.NoError(t, err)
	require.Equal(t, models.GameKindWerewolf, session.Kind)

	players, err := game.loadPlayers(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, players, 8)
	require.True(t, players[0].Human)

	// With no usable answers the wolves default to the human player, so
	// seat one dies on night one unless the human drew wolf (the wolves
	// never target the pack) or the witch saved them.
	if session.Status == models.SessionStatusActive {
		require.Equal(t, PhaseDayDiscussion, session.Phase)
	}

	role, err := game.PlayerRole(ctx, session.ID)
	require.NoError(t, err)
	require.Contains(t, []Role{RoleWerewolf, RoleVillager, RoleSeer, RoleWitch}, role)
}

package scripthost

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/myrjola/moriarty/internal/ai"
	"github.com/myrjola/moriarty/internal/db"
	"github.com/myrjola/moriarty/internal/models"
	"github.com/myrjola/moriarty/internal/repositories"
	"github.com/myrjola/moriarty/internal/scenario"
	"github.com/myrjola/moriarty/internal/scheduler"
	"github.com/myrjola/moriarty/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

// slowTimings parks the automation loop in the introduction so tests can
// drive phases by hand.
func slowTimings() Timings {
	return Timings{
		Introduction:   time.Hour,
		Discussion:     time.Hour,
		SpeechInterval: time.Hour,
		Investigation:  time.Hour,
		FinalReasoning: time.Hour,
	}
}

func fastTimings() Timings {
	return Timings{
		Introduction:   time.Millisecond,
		Discussion:     25 * time.Millisecond,
		SpeechInterval: 10 * time.Millisecond,
		Investigation:  time.Millisecond,
		FinalReasoning: time.Millisecond,
	}
}

type fixture struct {
	game       *Game
	sessions   *repositories.SessionRepository
	characters *repositories.CharacterRepository
	messages   *repositories.MessageRepository
}

// newGame wires a Game against an in-memory database. The scenario generator
// gets an empty completer so it always serves the canned campus script; the
// game itself speaks through the given completer.
func newGame(t *testing.T, completer ai.Completer, timings Timings) fixture {
	t.Helper()
	logger := testhelpers.NewLogger(io.Discard)
	database, err := db.NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	sessions := repositories.NewSessionRepository(database, logger)
	characters := repositories.NewCharacterRepository(database, logger)
	messages := repositories.NewMessageRepository(database, logger)
	states := repositories.NewStateRepository(database, logger)
	generator := scenario.NewGenerator(ai.NewScripted(), logger)
	sched := scheduler.New(logger)
	t.Cleanup(sched.Shutdown)

	game := New(sessions, characters, messages, states, generator, completer, sched, timings, logger)
	return fixture{game: game, sessions: sessions, characters: characters, messages: messages}
}

// startInteractive starts a game and moves it into the investigation phase.
func startInteractive(t *testing.T, f fixture) *models.Session {
	t.Helper()
	ctx := context.Background()
	session, err := f.game.StartGame(ctx, 1, scenario.SubtypeModernCampus)
	require.NoError(t, err)
	require.NoError(t, f.sessions.UpdatePhase(ctx, session.ID, PhaseInvestigation))
	return session
}

func TestStartGame(t *testing.T) {
	t.Parallel()
	f := newGame(t, ai.NewScripted(), slowTimings())
	ctx := context.Background()

	session, err := f.game.StartGame(ctx, 1, scenario.SubtypeModernCampus)
	require.NoError(t, err)
	require.Equal(t, models.GameKindScriptHost, session.Kind)
	require.Equal(t, models.SessionStatusActive, session.Status)

	npcs, err := f.characters.GetByKind(ctx, session.ID, models.CharacterKindNPC)
	require.NoError(t, err)
	require.Len(t, npcs, 5)
	for _, npc := range npcs {
		require.Len(t, npc.Memory, 1, "each NPC starts knowing who they play")
		require.Contains(t, npc.Memory[0].Event, npc.Name)
	}

	msgs, err := f.messages.List(ctx, session.ID)
	require.NoError(t, err)
	require.NotEmpty(t, msgs)
	require.Equal(t, models.SpeakerHost, msgs[0].SpeakerID)
	require.Contains(t, msgs[0].Content, "Night Terror in the Library")
	require.Contains(t, msgs[0].Content, "Jordan Wells")
}

func TestInvestigate_findsCluesAtLocation(t *testing.T) {
	t.Parallel()
	f := newGame(t, ai.NewScripted(), slowTimings())
	session := startInteractive(t, f)
	ctx := context.Background()

	found, err := f.game.Investigate(ctx, session.ID, "security office")
	require.NoError(t, err)
	require.Len(t, found, 3)
	for _, clue := range found {
		require.True(t, clue.Discovered)
	}

	// Discovery persists across a reload of the script.
	again, err := f.game.Investigate(ctx, session.ID, "the security office")
	require.NoError(t, err)
	require.Len(t, again, 3)

	nothing, err := f.game.Investigate(ctx, session.ID, "the attic")
	require.NoError(t, err)
	require.Empty(t, nothing)

	msgs, err := f.messages.List(ctx, session.ID)
	require.NoError(t, err)
	last := msgs[len(msgs)-1]
	require.Equal(t, models.SpeakerHost, last.SpeakerID)
	require.Contains(t, last.Content, "nothing of note")
}

func TestQuestion(t *testing.T) {
	t.Parallel()
	f := newGame(t, ai.NewScripted("I left at ten fifty, check the door log."), slowTimings())
	session := startInteractive(t, f)
	ctx := context.Background()

	answer, err := f.game.Question(ctx, session.ID, "riley", "Where were you at eleven?")
	require.NoError(t, err)
	require.Equal(t, "I left at ten fifty, check the door log.", answer)

	npc, err := f.characters.Get(ctx, session.ID, scenario.CharacterID("npc", "Riley Chen"))
	require.NoError(t, err)
	require.Len(t, npc.Memory, 2, "the exchange lands in the NPC's memory")

	msgs, err := f.messages.List(ctx, session.ID)
	require.NoError(t, err)
	last := msgs[len(msgs)-1]
	require.Equal(t, "Riley Chen", last.SpeakerName)
	require.Equal(t, string(models.CharacterKindNPC), last.SpeakerKind)

	_, err = f.game.Question(ctx, session.ID, "nobody at all", "Anything?")
	require.ErrorIs(t, err, ErrUnknownNPC)
}

func TestAnalyze(t *testing.T) {
	t.Parallel()
	f := newGame(t, ai.NewScripted(), slowTimings())
	session := startInteractive(t, f)
	ctx := context.Background()

	analysis, err := f.game.Analyze(ctx, session.ID, "clue_1")
	require.NoError(t, err)
	require.NotEmpty(t, analysis)

	_, err = f.game.Analyze(ctx, session.ID, "the ghost of the library")
	require.ErrorIs(t, err, ErrUnknownClue)
}

func TestAccuse(t *testing.T) {
	t.Parallel()
	t.Run("correct accusation wins and stops automation", func(t *testing.T) {
		t.Parallel()
		f := newGame(t, ai.NewScripted(), slowTimings())
		session := startInteractive(t, f)
		ctx := context.Background()

		correct, err := f.game.Accuse(ctx, session.ID, "riley chen", "The door log entry was hers.")
		require.NoError(t, err)
		require.True(t, correct)

		updated, err := f.sessions.Get(ctx, session.ID)
		require.NoError(t, err)
		require.Equal(t, models.SessionStatusWon, updated.Status)
		require.Equal(t, PhaseRevelation, updated.Phase)
		require.False(t, f.game.scheduler.Running(session.ID))

		msgs, err := f.messages.List(ctx, session.ID)
		require.NoError(t, err)
		last := msgs[len(msgs)-1]
		require.Contains(t, last.Content, "Riley Chen")
		require.Contains(t, last.Content, "The truth comes out.")

		_, err = f.game.Investigate(ctx, session.ID, "anywhere")
		require.ErrorIs(t, err, ErrWrongPhase)
	})

	t.Run("wrong accusation loses", func(t *testing.T) {
		t.Parallel()
		f := newGame(t, ai.NewScripted(), slowTimings())
		session := startInteractive(t, f)
		ctx := context.Background()

		correct, err := f.game.Accuse(ctx, session.ID, "Sam Porter", "No alibi.")
		require.NoError(t, err)
		require.False(t, correct)

		updated, err := f.sessions.Get(ctx, session.ID)
		require.NoError(t, err)
		require.Equal(t, models.SessionStatusLost, updated.Status)
	})
}

func TestActionsRefusedDuringIntroduction(t *testing.T) {
	t.Parallel()
	f := newGame(t, ai.NewScripted(), slowTimings())
	ctx := context.Background()
	session, err := f.game.StartGame(ctx, 1, scenario.SubtypeModernCampus)
	require.NoError(t, err)

	_, err = f.game.Investigate(ctx, session.ID, "the scene")
	require.ErrorIs(t, err, ErrWrongPhase)
}

func TestAutomation_runsToRevelation(t *testing.T) {
	t.Parallel()
	f := newGame(t, ai.NewScripted(), fastTimings())
	ctx := context.Background()
	session, err := f.game.StartGame(ctx, 1, scenario.SubtypeModernCampus)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		current, getErr := f.sessions.Get(ctx, session.ID)
		return getErr == nil && current.Status == models.SessionStatusEnded
	}, 5*time.Second, 5*time.Millisecond)

	current, err := f.sessions.Get(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, PhaseRevelation, current.Phase)

	msgs, err := f.messages.List(ctx, session.ID)
	require.NoError(t, err)
	var npcSpoke, truthRevealed bool
	for _, msg := range msgs {
		if msg.SpeakerKind == string(models.CharacterKindNPC) && msg.Phase == PhaseFreeDiscussion {
			npcSpoke = true
		}
		if msg.SpeakerID == models.SpeakerHost && strings.Contains(msg.Content, "Riley Chen") {
			truthRevealed = true
		}
	}
	require.True(t, npcSpoke, "NPCs chatter during free discussion")
	require.True(t, truthRevealed, "the host reveals the culprit")
}

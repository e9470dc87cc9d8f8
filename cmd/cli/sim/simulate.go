// Package sim runs complete games in the terminal without a server.
package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/myrjola/moriarty/internal/ai"
	"github.com/myrjola/moriarty/internal/db"
	"github.com/myrjola/moriarty/internal/models"
	"github.com/myrjola/moriarty/internal/repositories"
	"github.com/myrjola/moriarty/internal/werewolf"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "sim",
	Title: "Game simulation",
}

func init() {
	Werewolf.Flags().Int("players", werewolf.DefaultPlayerCount, "number of players at the table")
	Werewolf.Flags().Bool("live", false, "use the configured model instead of canned lines")
}

var Werewolf = &cobra.Command{
	Use:     "werewolf",
	GroupID: "sim",
	Short:   "Simulate a werewolf game",
	Long: `Plays a complete werewolf game against the AI table and prints the
transcript. Without --live the AI players speak canned lines, so the
simulation runs offline.`,
	Run: func(cmd *cobra.Command, _ []string) {
		playerCount, err := cmd.Flags().GetInt("players")
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "invalid players flag: %v\n", err)
			return
		}
		live, err := cmd.Flags().GetBool("live")
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "invalid live flag: %v\n", err)
			return
		}
		if err = simulateWerewolf(cmd.Context(), playerCount, live); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Simulation error: %v\n", err)
		}
	},
}

// Keeps a runaway game from looping forever.
const maxSimulationSteps = 60

func simulateWerewolf(ctx context.Context, playerCount int, live bool) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	database, err := db.NewDatabase(":memory:")
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	var completer ai.Completer = ai.NewScripted()
	if live {
		completer = ai.NewClient(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_BASE_URL"),
			os.Getenv("OPENAI_MODEL"), logger)
	}

	sessions := repositories.NewSessionRepository(database, logger)
	characters := repositories.NewCharacterRepository(database, logger)
	messages := repositories.NewMessageRepository(database, logger)
	states := repositories.NewStateRepository(database, logger)
	game := werewolf.New(sessions, characters, messages, states, completer, logger)

	session, err := game.Start(ctx, 1, playerCount)
	if err != nil {
		return err
	}
	printed, err := printNewMessages(ctx, messages, session.ID, 0)
	if err != nil {
		return err
	}

	// The human seat plays along as a spectator: open the vote as soon as the
	// discussion allows and vote for the first living AI player.
	for range maxSimulationSteps {
		if session, err = sessions.Get(ctx, session.ID); err != nil {
			return err
		}
		if session.Finished() {
			break
		}

		switch session.Phase {
		case werewolf.PhaseDayDiscussion:
			err = game.StartVoting(ctx, session.ID)
		case werewolf.PhaseDayVoting:
			err = voteForFirstCandidate(ctx, game, session.ID)
		default:
			err = fmt.Errorf("simulation stuck in phase %s", session.Phase)
		}
		if err != nil {
			return err
		}
		if printed, err = printNewMessages(ctx, messages, session.ID, printed); err != nil {
			return err
		}
	}

	if session, err = sessions.Get(ctx, session.ID); err != nil {
		return err
	}
	fmt.Printf("\nGame over after %d day(s): %s\n", session.DayCount, session.Status)
	return nil
}

func voteForFirstCandidate(ctx context.Context, game *werewolf.Game, sessionID string) error {
	living, err := game.AlivePlayers(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, player := range living {
		if !player.Human {
			return game.PlayerVote(ctx, sessionID, player.Seat)
		}
	}
	return fmt.Errorf("no candidates left to vote for")
}

// printNewMessages prints transcript entries after the first skip entries and
// returns the new total.
func printNewMessages(ctx context.Context, messages *repositories.MessageRepository, sessionID string, skip int) (int, error) {
	all, err := messages.List(ctx, sessionID)
	if err != nil {
		return skip, err
	}
	for _, message := range all[skip:] {
		marker := ""
		if message.Private {
			marker = " (private)"
		}
		fmt.Printf("[%s]%s %s: %s\n", message.Phase, marker, speakerLabel(message), message.Content)
	}
	return len(all), nil
}

func speakerLabel(message models.Message) string {
	if message.SpeakerName != "" {
		return message.SpeakerName
	}
	return message.SpeakerID
}

// Package chat talks to the configured completion backend from the terminal,
// useful for trying out prompts before wiring them into a game.
package chat

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/myrjola/moriarty/internal/ai"
	"github.com/myrjola/moriarty/internal/errors"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "chat",
	Title: "Model access",
}

var Ask = &cobra.Command{
	Use:     "ask [prompt]",
	GroupID: "chat",
	Short:   "Ask the model",
	Long:    `Sends a prompt to the completion backend and streams the answer to stdout.`,
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		client := ai.NewClient(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_BASE_URL"),
			os.Getenv("OPENAI_MODEL"), logger)

		prompt := strings.Join(args, " ")
		stream, err := client.StreamCompletion(cmd.Context(), []ai.Message{
			{Role: ai.RoleUser, Content: prompt},
		})
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Completion error: %v\n", err)
			return
		}
		defer func() { _ = stream.Close() }()

		for {
			response, recvErr := stream.Recv()
			if errors.Is(recvErr, io.EOF) {
				break
			}
			if recvErr != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Stream error: %v\n", recvErr)
				return
			}
			if len(response.Choices) > 0 {
				fmt.Print(response.Choices[0].Delta.Content)
			}
		}
		fmt.Println()
	},
}
